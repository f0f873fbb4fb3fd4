package netlist

import (
	"context"

	"tlog.app/go/tlog"
)

type reachability struct {
	nl *Netlist

	ports   []Port
	queue   []ModuleID
	handled []bool
}

// Reachability walks backward from every designated output and clears
// the skip flags of the ports, nodes and modules it can reach. Nothing
// is deleted, dead logic simply keeps skip set. Re-running it on a
// processed netlist changes no flags.
func (nl *Netlist) Reachability(ctx context.Context) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "netlist: reachability", "modules", len(nl.mods))
	defer tr.Finish("err", &err)

	r := &reachability{
		nl:      nl,
		handled: make([]bool, len(nl.mods)),
	}

	if nl.Top != NilMod {
		r.queue = append(r.queue, nl.Top)
	}

	for len(r.queue) != 0 {
		id := r.queue[0]
		r.queue = r.queue[1:]

		if r.handled[id] {
			continue
		}

		r.module(nl.mods[id])

		r.handled[id] = true

		tr.V("reach").Printw("module reached", "mod", nl.mods[id].Name)
	}

	return nil
}

func (r *reachability) module(m *Module) {
	r.ports = r.ports[:0]

	for i := len(m.outs) - 1; i >= 0; i-- {
		r.ports = append(r.ports, m.outs[i])
	}

	for len(r.ports) != 0 {
		p := r.ports[len(r.ports)-1]
		r.ports = r.ports[:len(r.ports)-1]

		out := m.Out(p)
		if !out.Skip || out.Ty.Width() == 0 {
			continue
		}

		if k, ok := m.nodes[p.Node].kind.(*ModInst); ok {
			if len(m.nodes[p.Node].outs) == 0 && m.InCount(p.Node) == 0 {
				continue
			}

			r.queue = append(r.queue, k.Target)
		}

		// a dead register's init literal must not force its const
		// node live when nothing else consumes it
		exclude := NoPort

		if _, ok := m.nodes[p.Node].kind.(*DFF); ok {
			init := m.dffInputs(p.Node).init

			if _, isConst := m.ToConst(init); isConst && !m.IsModOutput(init) && r.onlyConsumer(m, init, p.Node) {
				m.Out(init).Skip = true
				r.killNode(m, init.Node)

				exclude = init
			}
		}

		out.Skip = false
		m.nodes[p.Node].skip = false
		m.Skip = false

		for _, in := range m.Incoming(p.Node) {
			if in == exclude {
				continue
			}

			r.ports = append(r.ports, in)
		}
	}
}

func (r *reachability) onlyConsumer(m *Module, p Port, nid NodeID) bool {
	for _, c := range m.Consumers(p) {
		if c != nid {
			return false
		}
	}

	return true
}

// killNode marks the node dead once every one of its ports is dead.
func (r *reachability) killNode(m *Module, nid NodeID) {
	for i := range m.nodes[nid].outs {
		if !m.nodes[nid].outs[i].Skip {
			return
		}
	}

	m.nodes[nid].skip = true
}
