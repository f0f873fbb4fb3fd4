package netlist

import (
	"context"
	"fmt"

	"tlog.app/go/tlog"
)

// reservedNames remaps verilog keywords a design is likely to use as
// signal names.
var reservedNames = map[string]string{
	"input":  "input$",
	"output": "output$",
	"reg":    "reg$",
	"self":   "self$",
}

type setNames struct {
	nl *Netlist

	idents map[ModuleID]map[string]int
	mods   map[string]int
}

// SetNames assigns final names to every live module, node output and
// instance. Equal base symbols within a module get _1, _2 suffixes in
// visit order, keywords are remapped before counting. Dead modules and
// nodes keep their raw symbols.
func (nl *Netlist) SetNames(ctx context.Context) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "netlist: set names", "modules", len(nl.mods))
	defer tr.Finish("err", &err)

	s := &setNames{
		nl:     nl,
		idents: make(map[ModuleID]map[string]int),
		mods:   make(map[string]int),
	}

	for _, m := range nl.mods {
		if m.Skip {
			continue
		}

		s.module(m)
	}

	return nil
}

func (s *setNames) module(m *Module) {
	m.Name = bump(s.mods, m.Name)

	counts := s.modIdents(m.id)

	for it := m.Nodes(); ; {
		nid := it.Next()
		if nid == Nil {
			break
		}

		if m.nodes[nid].skip {
			continue
		}

		s.node(m, nid, counts)
	}
}

func (s *setNames) node(m *Module, nid NodeID, counts map[string]int) {
	outs := m.nodes[nid].outs

	for i := range outs {
		sym := outs[i].Sym
		if sym == "" {
			sym = "__tmp"
		}

		outs[i].Sym = bump(counts, sym)
	}

	// unnamed instances are named after their target module
	k, ok := m.nodes[nid].kind.(*ModInst)
	if !ok || k.Name != "" {
		return
	}

	k.Name = bump(counts, "__"+s.nl.mods[k.Target].Name)
}

func (s *setNames) modIdents(id ModuleID) map[string]int {
	m, ok := s.idents[id]
	if !ok {
		m = make(map[string]int)
		s.idents[id] = m
	}

	return m
}

func bump(counts map[string]int, sym string) string {
	if re, ok := reservedNames[sym]; ok {
		sym = re
	}

	count, ok := counts[sym]
	if ok {
		count++
	}

	counts[sym] = count

	return makeSym(sym, count)
}

func makeSym(sym string, count int) string {
	if count == 0 {
		return sym
	}

	return fmt.Sprintf("%v_%v", sym, count)
}
