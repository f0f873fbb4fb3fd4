package netlist

import (
	"fmt"
	"io"

	"tlog.app/go/errors"
)

// Dump writes a debug listing of the whole netlist: every module, its
// nodes in container order, inputs and consumer links per output.
// With liveOnly set, dead modules and nodes are hidden.
func (nl *Netlist) Dump(w io.Writer, liveOnly bool) error {
	var b []byte

	for _, m := range nl.mods {
		if liveOnly && m.Skip {
			continue
		}

		b = app(b, 0, "mod %v %v%v  ins %v  outs %v\n",
			m.id, m.Name, skipMark(m.Skip), m.ins, m.outs)

		for it := m.Nodes(); ; {
			nid := it.Next()
			if nid == Nil {
				break
			}

			if liveOnly && m.nodes[nid].skip {
				continue
			}

			b = nl.dumpNode(b, m, nid)
		}

		b = append(b, '\n')
	}

	_, err := w.Write(b)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}

func (nl *Netlist) dumpNode(b []byte, m *Module, nid NodeID) []byte {
	b = app(b, 0, "%4v  %v%v", nid, nl.kindLabel(m, nid), skipMark(m.nodes[nid].skip))

	b = append(b, "  ["...)

	for i, out := range m.nodes[nid].outs {
		if i != 0 {
			b = append(b, ' ')
		}

		reg := ""
		if out.Reg {
			reg = " reg"
		}

		b = app(b, 0, "%v:%q %v%v%v", i, out.Sym, out.Ty, reg, skipMark(out.Skip))
	}

	b = append(b, ']')

	if ins := m.Incoming(nid); len(ins) != 0 {
		b = app(b, 0, "  ins %v", ins)
	}

	for i := range m.nodes[nid].outs {
		cons := m.Consumers(Port{Node: nid, Out: uint32(i)})
		if len(cons) == 0 {
			continue
		}

		b = app(b, 0, "  %v -> %v", i, cons)
	}

	return append(b, '\n')
}

func (nl *Netlist) kindLabel(m *Module, nid NodeID) string {
	switch k := m.nodes[nid].kind.(type) {
	case *Const:
		return fmt.Sprintf("const %v", k.Value)
	case *MultiConst:
		return fmt.Sprintf("multi_const %v", k.Values)
	case *Merger:
		return fmt.Sprintf("merger rev=%v", k.Rev)
	case *Splitter:
		return fmt.Sprintf("splitter start=%v rev=%v", k.Start, k.Rev)
	case *Extend:
		return fmt.Sprintf("extend signed=%v", k.Signed)
	case *BinOp:
		return fmt.Sprintf("bin_op %v", k.Op)
	case *Switch:
		return fmt.Sprintf("switch cases=%v", len(k.Cases))
	case *DFF:
		return fmt.Sprintf("dff rst=%v en=%v", k.HasRst, k.HasEn)
	case *ModInst:
		return fmt.Sprintf("mod_inst %v %q", nl.mods[k.Target].Name, k.Name)
	default:
		return k.name()
	}
}

func skipMark(skip bool) string {
	if skip {
		return " skip"
	}

	return ""
}
