package netlist

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// InlinePolicy selects how module instances are handled during
	// transform.
	InlinePolicy int

	// Config tunes the passes.
	Config struct {
		Inline InlinePolicy

		// MaxInlines caps how many instances transform may inline.
		// Zero disables inlining, negative means no cap.
		MaxInlines int

		// NoConstDedup keeps every folded constant as its own node
		// instead of sharing one node per value per module.
		NoConstDedup bool
	}

	// Netlist is the whole design: every module plus the top.
	Netlist struct {
		Cfg Config

		Top ModuleID

		mods []*Module
	}
)

const (
	// InlineAuto inlines instances that are marked, trivial or fed
	// only by constants.
	InlineAuto InlinePolicy = iota

	// InlineAll inlines every instance it can.
	InlineAll

	// InlineNone keeps every instance.
	InlineNone
)

func DefaultConfig() Config {
	return Config{MaxInlines: -1}
}

func New(cfg Config) *Netlist {
	return &Netlist{
		Cfg: cfg,
		Top: NilMod,
	}
}

func (nl *Netlist) AddModule(m *Module) ModuleID {
	assertf(m.id == NilMod, "module %v already added", m.Name)

	id := ModuleID(len(nl.mods))
	m.id = id

	nl.mods = append(nl.mods, m)

	if m.IsTop {
		nl.Top = id
	}

	return id
}

func (nl *Netlist) Module(id ModuleID) *Module {
	return nl.mods[id]
}

func (nl *Netlist) ModuleCount() int { return len(nl.mods) }

// AddModInst instantiates target inside m. Inputs feed the target's
// formal inputs in order, the node gets one output per designated
// target output.
func (nl *Netlist) AddModInst(m *Module, args ModInstArgs) NodeID {
	tgt := nl.mods[args.Target]

	assertf(len(args.Ins) == len(tgt.ins), "instance of %v: %v inputs, expected %v", tgt.Name, len(args.Ins), len(tgt.ins))

	outs := make([]Output, len(tgt.outs))

	for i, p := range tgt.outs {
		to := tgt.Out(p)
		outs[i] = output(to.Ty, to.Sym)
	}

	id := m.addNode(&ModInst{Target: args.Target, Name: args.Name}, outs)

	for i, in := range args.Ins {
		iw := m.Out(in).Ty.Width()
		fw := tgt.Out(tgt.ins[i]).Ty.Width()
		assertf(iw == fw, "instance of %v: input %v width mismatch: %v != %v", tgt.Name, i, iw, fw)

		m.AddEdge(in, Port{Node: id, Out: uint32(i)})
	}

	return id
}

// InlineMod splices the target module's body in place of the instance.
// Copied nodes keep their relative order and are linked right before
// the instance, designated target outputs are bridged through fresh
// pass nodes, then the instance is removed.
//
// Returns the id to continue iteration from: the first spliced node,
// or the instance's list successor if nothing was spliced. Self
// instantiation is refused.
func (nl *Netlist) InlineMod(m *Module, inst NodeID) (cont NodeID, ok bool) {
	k, isInst := m.nodes[inst].kind.(*ModInst)
	if !isInst || k.Target == m.id {
		return Nil, false
	}

	src := nl.mods[k.Target]

	feeds := m.Incoming(inst)
	assertf(len(feeds) == len(src.ins), "inline %v: %v feeds for %v inputs", src.Name, len(feeds), len(src.ins))

	// formal input port -> instantiation feed
	pmap := make(map[Port]Port, len(src.ins))
	for i, p := range src.ins {
		pmap[p] = feeds[i]
	}

	idmap := make(map[NodeID]NodeID, len(src.nodes))

	first := Nil

	for it := src.Nodes(); ; {
		sid := it.Next()
		if sid == Nil {
			break
		}

		if _, isIn := src.nodes[sid].kind.(*Input); isIn {
			continue
		}

		nid := m.addNodeBefore(inst, cloneKind(src.nodes[sid].kind), cloneOuts(src.nodes[sid].outs))

		idmap[sid] = nid

		if first == Nil {
			first = nid
		}
	}

	mp := func(p Port) Port {
		if nid, ok := idmap[p.Node]; ok {
			return Port{Node: nid, Out: p.Out}
		}

		fp, ok := pmap[p]
		assertf(ok, "inline %v: unmapped port %v.%v", src.Name, p.Node, p.Out)

		return fp
	}

	// edges follow the source incoming lists, so slots stay in order
	for it := src.Nodes(); ; {
		sid := it.Next()
		if sid == Nil {
			break
		}

		nid, copied := idmap[sid]
		if !copied {
			continue
		}

		for eid := src.nodes[sid].links[dirIn].head; eid != nilEdge; eid = src.edges[eid].next[dirIn] {
			e := src.edges[eid]

			m.AddEdge(mp(e.from), Port{Node: nid, Out: e.to.Out})
		}
	}

	ports := make([]Port, len(src.outs))

	for i, p := range src.outs {
		bridged := mp(p)

		sym := m.nodes[inst].outs[i].Sym
		ty := m.nodes[inst].outs[i].Ty

		pid := m.addNodeBefore(inst, &Pass{}, []Output{output(ty, sym)})
		m.AddEdge(bridged, Port{Node: pid})

		ports[i] = Port{Node: pid}

		if first == Nil {
			first = pid
		}
	}

	m.reconnectOutputs(inst, ports)

	cont = first
	if cont == Nil {
		cont = m.nodes[inst].next
	}

	moved := m.RemoveNode(inst)
	if moved != Nil && cont == moved {
		cont = inst
	}

	return cont, true
}

// RunPasses folds constants and inlines instances, strips dead logic
// and assigns final names. The netlist is ready for emission
// afterwards.
func (nl *Netlist) RunPasses(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "netlist: run passes", "top", nl.Top)
	defer tr.Finish("err", &err)

	if nl.Top == NilMod {
		return errors.New("no top module")
	}

	err = nl.Transform(ctx)
	if err != nil {
		return errors.Wrap(err, "transform")
	}

	err = nl.Reachability(ctx)
	if err != nil {
		return errors.Wrap(err, "reachability")
	}

	err = nl.SetNames(ctx)
	if err != nil {
		return errors.Wrap(err, "set names")
	}

	return nil
}
