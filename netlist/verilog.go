package netlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// SynthVerilog writes the finalized design as verilog: every live
// module in container order, live nodes and ports only. It relies on
// the pipeline having run: names are unique, widths known, dead logic
// flagged.
func (nl *Netlist) SynthVerilog(ctx context.Context, w io.Writer) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "netlist: synth verilog", "top", nl.Top)
	defer tr.Finish("err", &err)

	var b []byte

	for _, m := range nl.mods {
		if m.Skip {
			continue
		}

		if len(b) != 0 {
			b = append(b, '\n')
		}

		b, err = emitModule(b, nl, m)
		if err != nil {
			return errors.Wrap(err, "module %v", m.Name)
		}
	}

	_, err = w.Write(b)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}

func (nl *Netlist) SynthVerilogFile(ctx context.Context, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}

	defer func() {
		e := f.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close")
		}
	}()

	w := bufio.NewWriter(f)

	err = nl.SynthVerilog(ctx, w)
	if err != nil {
		return err
	}

	err = w.Flush()
	if err != nil {
		return errors.Wrap(err, "flush")
	}

	return nil
}

func emitModule(b []byte, nl *Netlist, m *Module) (_ []byte, err error) {
	b = app(b, 0, "module %v (\n", m.Name)

	// ports the header already declares, they are not redeclared as
	// wires below
	header := make(map[Port]bool)

	// a designated output may resolve to a designated input or to
	// another output after reconnections, such duplicates get a
	// derived name driven by an alias assign
	type alias struct {
		name string
		p    Port
	}

	var aliases []alias

	first := true

	for _, p := range m.ins {
		if !m.live(p) {
			continue
		}

		if !first {
			b = append(b, ",\n"...)
		}
		first = false

		b = app(b, 1, "input wire %v%v", ranges(m.Out(p).Ty.Width()), m.Out(p).Sym)

		header[p] = true
	}

	for _, p := range m.outs {
		if !m.live(p) {
			continue
		}

		out := m.Out(p)

		if !first {
			b = append(b, ",\n"...)
		}
		first = false

		if header[p] {
			name := out.Sym + "$o"
			aliases = append(aliases, alias{name: name, p: p})

			b = app(b, 1, "output wire %v%v", ranges(out.Ty.Width()), name)

			continue
		}

		kw := "wire"
		if out.Reg {
			kw = "reg"
		}

		b = app(b, 1, "output %v %v%v", kw, ranges(out.Ty.Width()), out.Sym)

		header[p] = true
	}

	b = append(b, "\n);\n"...)

	decls := false

	for it := m.Nodes(); ; {
		nid := it.Next()
		if nid == Nil {
			break
		}

		if m.nodes[nid].skip {
			continue
		}

		// unused instance outputs still occupy a position in the
		// instantiation, they need a wire too
		_, inst := m.nodes[nid].kind.(*ModInst)

		for i := range m.nodes[nid].outs {
			p := Port{Node: nid, Out: uint32(i)}
			if header[p] {
				continue
			}

			if !m.live(p) && !(inst && m.Out(p).Ty.Width() != 0) {
				continue
			}

			out := m.Out(p)

			kw := "wire"
			if out.Reg {
				kw = "reg"
			}

			if !decls {
				b = append(b, '\n')
				decls = true
			}

			b = app(b, 0, "%v %v%v;\n", kw, ranges(out.Ty.Width()), out.Sym)
		}
	}

	for _, a := range aliases {
		b = app(b, 0, "\nassign %v = %v;\n", a.name, m.Out(a.p).Sym)
	}

	for it := m.Nodes(); ; {
		nid := it.Next()
		if nid == Nil {
			break
		}

		if m.nodes[nid].skip {
			continue
		}

		b, err = emitNode(b, nl, m, nid)
		if err != nil {
			return nil, errors.Wrap(err, "node %v", nid)
		}
	}

	b = app(b, 0, "\nendmodule\n")

	return b, nil
}

func emitNode(b []byte, nl *Netlist, m *Module, nid NodeID) ([]byte, error) {
	switch k := m.nodes[nid].kind.(type) {
	case *Input:
	case *Const:
		if p := (Port{Node: nid}); m.live(p) {
			b = app(b, 0, "\nassign %v = %v;\n", m.Out(p).Sym, k.Value)
		}
	case *MultiConst:
		for i, v := range k.Values {
			p := Port{Node: nid, Out: uint32(i)}
			if !m.live(p) {
				continue
			}

			b = app(b, 0, "\nassign %v = %v;\n", m.Out(p).Sym, v)
		}
	case *Pass:
		b = app(b, 0, "\nassign %v = %v;\n", m.Out(Port{Node: nid}).Sym, m.ref(m.Input(nid, 0)))
	case *BitNot:
		b = app(b, 0, "\nassign %v = ~%v;\n", m.Out(Port{Node: nid}).Sym, m.ref(m.Input(nid, 0)))
	case *BinOp:
		b = app(b, 0, "\nassign %v = %v %v %v;\n",
			m.Out(Port{Node: nid}).Sym,
			m.ref(m.Input(nid, 0)), k.Op, m.ref(m.Input(nid, 1)))
	case *Extend:
		b = emitExtend(b, m, nid, k)
	case *Merger:
		b = emitMerger(b, m, nid, k)
	case *Splitter:
		b = emitSplitter(b, m, nid)
	case *Switch:
		b = emitSwitch(b, m, nid, k)
	case *DFF:
		b = emitDFF(b, m, nid, k)
	case *ModInst:
		b = emitModInst(b, nl, m, nid, k)
	default:
		return nil, errors.New("unsupported node kind: %T", k)
	}

	return b, nil
}

func emitExtend(b []byte, m *Module, nid NodeID, k *Extend) []byte {
	in := m.Input(nid, 0)
	out := m.Out(Port{Node: nid})

	pad := out.Ty.Width() - m.Out(in).Ty.Width()
	if pad == 0 {
		return app(b, 0, "\nassign %v = %v;\n", out.Sym, m.ref(in))
	}

	fill := "1'b0"
	if k.Signed {
		fill = fmt.Sprintf("%v[%v]", m.ref(in), m.Out(in).Ty.Width()-1)
	}

	return app(b, 0, "\nassign %v = {{%v{%v}}, %v};\n", out.Sym, pad, fill, m.ref(in))
}

func emitMerger(b []byte, m *Module, nid NodeID, k *Merger) []byte {
	ins := m.Incoming(nid)

	b = app(b, 0, "\nassign %v = {", m.Out(Port{Node: nid}).Sym)

	first := true

	for i := range ins {
		in := ins[i]
		if k.Rev {
			in = ins[len(ins)-1-i]
		}

		if m.Out(in).Ty.Width() == 0 {
			continue
		}

		if !first {
			b = append(b, ", "...)
		}
		first = false

		b = append(b, m.ref(in)...)
	}

	return append(b, "};\n"...)
}

func emitSplitter(b []byte, m *Module, nid NodeID) []byte {
	in := m.ref(m.Input(nid, 0))
	indices := m.splitterIndices(nid)

	for i := range m.nodes[nid].outs {
		p := Port{Node: nid, Out: uint32(i)}
		if !m.live(p) {
			continue
		}

		out := m.Out(p)

		w := out.Ty.Width()
		if w == 1 {
			b = app(b, 0, "\nassign %v = %v[%v];\n", out.Sym, in, indices[i])
		} else {
			b = app(b, 0, "\nassign %v = %v[%v:%v];\n", out.Sym, in, indices[i]+w-1, indices[i])
		}
	}

	return b
}

func emitSwitch(b []byte, m *Module, nid NodeID, k *Switch) []byte {
	si := m.switchInputs(nid)
	sel := m.ref(si.sel)

	// the chain ends at the default arm, or at the last case
	last := len(k.Cases) - 1
	for c, cs := range k.Cases {
		if cs.IsDefault() {
			last = c
			break
		}
	}

	for j := range m.nodes[nid].outs {
		p := Port{Node: nid, Out: uint32(j)}
		if !m.live(p) {
			continue
		}

		b = app(b, 0, "\nassign %v =", m.Out(p).Sym)

		for c := 0; c < last; c++ {
			b = app(b, 0, "\n")
			b = app(b, 1, "%v ? %v :", caseCond(sel, k.Cases[c]), m.ref(si.chunks[c][j]))
		}

		if last == 0 {
			b = app(b, 0, " %v;\n", m.ref(si.chunks[last][j]))
		} else {
			b = app(b, 0, "\n")
			b = app(b, 1, "%v;\n", m.ref(si.chunks[last][j]))
		}
	}

	return b
}

func caseCond(sel string, cs Case) string {
	if len(cs.Vals) == 1 {
		return fmt.Sprintf("%v == %v", sel, cs.Vals[0])
	}

	cond := "("

	for i, v := range cs.Vals {
		if i != 0 {
			cond += " || "
		}

		cond += fmt.Sprintf("%v == %v", sel, v)
	}

	return cond + ")"
}

func emitDFF(b []byte, m *Module, nid NodeID, k *DFF) []byte {
	ins := m.dffInputs(nid)
	name := m.Out(Port{Node: nid}).Sym

	data := ins.data
	if data.IsNil() {
		data = ins.init
	}

	sens := "posedge " + m.ref(ins.clk)

	if k.HasRst && k.RstKind == RstAsync {
		e := "posedge"
		if k.RstPol == PolLow {
			e = "negedge"
		}

		sens += fmt.Sprintf(" or %v %v", e, m.ref(ins.rst))
	}

	b = app(b, 0, "\nalways @(%v) begin\n", sens)

	switch {
	case k.HasRst:
		cond := m.ref(ins.rst)
		if k.RstPol == PolLow {
			cond = "!" + cond
		}

		b = app(b, 1, "if (%v)\n", cond)
		b = app(b, 2, "%v <= %v;\n", name, m.ref(ins.init))

		if k.HasEn {
			b = app(b, 1, "else if (%v)\n", m.ref(ins.en))
		} else {
			b = app(b, 1, "else\n")
		}

		b = app(b, 2, "%v <= %v;\n", name, m.ref(data))
	case k.HasEn:
		b = app(b, 1, "if (%v)\n", m.ref(ins.en))
		b = app(b, 2, "%v <= %v;\n", name, m.ref(data))
	default:
		b = app(b, 1, "%v <= %v;\n", name, m.ref(data))
	}

	return app(b, 0, "end\n")
}

// emitModInst writes a positional instantiation: live target inputs in
// order, then live target outputs. Feeds of target-side dead inputs
// are omitted to keep positions aligned with the target's header.
func emitModInst(b []byte, nl *Netlist, m *Module, nid NodeID, k *ModInst) []byte {
	tgt := nl.mods[k.Target]
	feeds := m.Incoming(nid)

	b = app(b, 0, "\n%v %v (\n", tgt.Name, k.Name)

	first := true

	for i, p := range tgt.ins {
		if !tgt.live(p) {
			continue
		}

		if !first {
			b = append(b, ",\n"...)
		}
		first = false

		b = app(b, 1, "%v", m.ref(feeds[i]))
	}

	for i, p := range tgt.outs {
		if !tgt.live(p) {
			continue
		}

		if !first {
			b = append(b, ",\n"...)
		}
		first = false

		b = app(b, 1, "%v", m.ref(Port{Node: nid, Out: uint32(i)}))
	}

	return append(b, "\n);\n"...)
}

func ranges(w uint) string {
	if w <= 1 {
		return ""
	}

	return fmt.Sprintf("[%v:0] ", w-1)
}

func (m *Module) live(p Port) bool {
	out := m.Out(p)

	return !out.Skip && out.Ty.Width() != 0
}

// ref renders an operand: the port's name, or the literal value for a
// constant whose node was excluded from the live walk.
func (m *Module) ref(p Port) string {
	out := m.Out(p)

	if out.Skip {
		if v, ok := m.ToConst(p); ok {
			return v.String()
		}
	}

	return out.Sym
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
