package netlist

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/zshell31/ferrum-hls/netlist/constval"
)

// inlineNodeLimit is the target module size under which auto inlining
// fires.
const inlineNodeLimit = 10

type (
	transform struct {
		nl *Netlist

		cons    map[consKey]Port
		visited []bool

		inlined int
	}

	consKey struct {
		mod ModuleID
		val constval.Val
	}
)

// Transform folds constants, eliminates pass-through nodes and inlines
// module instances, starting from the top module and visiting callees
// before their callers.
func (nl *Netlist) Transform(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "netlist: transform", "modules", len(nl.mods))
	defer tr.Finish("err", &err)

	if nl.Top == NilMod {
		return nil
	}

	t := &transform{
		nl:      nl,
		cons:    make(map[consKey]Port),
		visited: make([]bool, len(nl.mods)),
	}

	return t.module(ctx, nl.Top)
}

func (t *transform) module(ctx context.Context, id ModuleID) (err error) {
	if t.visited[id] {
		return nil
	}

	t.visited[id] = true

	m := t.nl.mods[id]

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "transform module", "mod", m.Name)
	defer tr.Finish("err", &err)

	it := m.Nodes()

	for {
		nid := it.Next()
		if nid == Nil {
			break
		}

		if k, ok := m.nodes[nid].kind.(*ModInst); ok {
			err = t.module(ctx, k.Target)
			if err != nil {
				return errors.Wrap(err, "callee %v", t.nl.mods[k.Target].Name)
			}
		}

		inline := t.rewrite(m, nid)

		if inline && t.budget() {
			cont, ok := t.nl.InlineMod(m, nid)
			if ok {
				t.inlined++
				it.SetNext(cont)

				tr.V("inline").Printw("inlined instance", "mod", m.Name, "node", nid, "total", t.inlined)
			}
		}
	}

	return nil
}

func (t *transform) budget() bool {
	lim := t.nl.Cfg.MaxInlines

	return lim < 0 || t.inlined < lim
}

// rewrite applies the per-kind rule to one node and reports whether a
// module instance should be inlined.
func (t *transform) rewrite(m *Module, nid NodeID) (inline bool) {
	switch k := m.nodes[nid].kind.(type) {
	case *Pass:
		t.pass(m, nid)
	case *Const:
		t.eliminateConst(m, Port{Node: nid}, k.Value)
	case *MultiConst:
		t.eliminateMultiConst(m, nid)
	case *ModInst:
		inline = t.modInst(m, nid, k)
	case *BitNot:
		if v, ok := m.ToConst(m.Input(nid, 0)); ok {
			t.replaceConst(m, nid, v.Not())
		}
	case *BinOp:
		l, lok := m.ToConst(m.Input(nid, 0))
		r, rok := m.ToConst(m.Input(nid, 1))

		if lok && rok {
			t.replaceConst(m, nid, k.Op.Eval(l, r))
		}
	case *Splitter:
		t.splitter(m, nid, k)
	case *Merger:
		t.merger(m, nid, k)
	case *Extend:
		t.extend(m, nid, k)
	case *Switch:
		t.swtch(m, nid, k)
	case *DFF:
		t.dff(m, nid)
	}

	return inline
}

func (t *transform) pass(m *Module, nid NodeID) {
	input := m.Input(nid, 0)
	out := Port{Node: nid}

	if v, ok := m.ToConst(input); ok {
		o := *m.Out(out)
		m.ReplaceWithConst(nid, ConstArgs{Ty: o.Ty, Value: v, Sym: o.Sym})

		return
	}

	// designated ports keep their node
	if m.IsModOutput(out) || m.IsModInput(input) {
		return
	}

	if m.Out(input).Ty.Width() != m.Out(out).Ty.Width() {
		return
	}

	m.ReconnectAllOutgoing(out, input)
}

// eliminateConst reconnects consumers of an already seen value to its
// first node, one constant per value per module.
func (t *transform) eliminateConst(m *Module, cons Port, val constval.Val) {
	if t.nl.Cfg.NoConstDedup || m.IsModOutput(cons) {
		return
	}

	key := consKey{mod: m.id, val: val}

	have, ok := t.cons[key]
	if !ok {
		t.cons[key] = cons
		return
	}

	// the cached node may have been swept away by an inline
	if v, live := t.resolveCons(m, have); !live || v != val {
		t.cons[key] = cons
		return
	}

	m.ReconnectAllOutgoing(cons, have)
}

func (t *transform) resolveCons(m *Module, p Port) (constval.Val, bool) {
	if int(p.Node) >= len(m.nodes) || int(p.Out) >= len(m.nodes[p.Node].outs) {
		return constval.Val{}, false
	}

	return m.ToConst(p)
}

func (t *transform) eliminateMultiConst(m *Module, nid NodeID) {
	if t.nl.Cfg.NoConstDedup {
		return
	}

	k := m.nodes[nid].kind.(*MultiConst)

	for i := range k.Values {
		t.eliminateConst(m, Port{Node: nid, Out: uint32(i)}, k.Values[i])
	}
}

func (t *transform) replaceConst(m *Module, nid NodeID, val constval.Val) {
	o := *m.Out(Port{Node: nid})

	m.ReplaceWithConst(nid, ConstArgs{Ty: o.Ty, Value: val, Sym: o.Sym})

	t.rewrite(m, nid)
}

func (t *transform) replaceMultiConst(m *Module, nid NodeID, args []ConstArgs) {
	m.ReplaceWithMultiConst(nid, args)

	t.rewrite(m, nid)
}

func (t *transform) modInst(m *Module, nid NodeID, k *ModInst) bool {
	tgt := t.nl.mods[k.Target]

	if len(tgt.outs) != 0 && tgt.hasConstOutputs() {
		args := make([]ConstArgs, len(tgt.outs))

		for i, p := range tgt.outs {
			v, _ := tgt.ToConst(p)
			o := *tgt.Out(p)

			args[i] = ConstArgs{Ty: o.Ty, Value: v, Sym: o.Sym}
		}

		t.replaceMultiConst(m, nid, args)

		return false
	}

	switch t.nl.Cfg.Inline {
	case InlineAll:
		return true
	case InlineNone:
		return false
	}

	return tgt.Inline ||
		len(m.ins) == 0 || len(m.outs) == 0 ||
		tgt.NodeCount() <= inlineNodeLimit ||
		t.constFeeds(m, nid)
}

func (t *transform) constFeeds(m *Module, nid NodeID) bool {
	for _, in := range m.Incoming(nid) {
		if _, ok := m.ToConst(in); !ok {
			return false
		}
	}

	return true
}

func (m *Module) hasConstOutputs() bool {
	for _, p := range m.outs {
		if _, ok := m.ToConst(p); !ok {
			return false
		}
	}

	return true
}

func (t *transform) splitter(m *Module, nid NodeID, k *Splitter) {
	if m.passAllBits(nid) {
		m.ReconnectAllOutgoing(Port{Node: nid}, m.Input(nid, 0))
		return
	}

	input := m.Input(nid, 0)

	if v, ok := m.ToConst(input); ok {
		indices := m.splitterIndices(nid)
		outs := m.nodes[nid].outs

		args := make([]ConstArgs, len(outs))

		for i := range outs {
			args[i] = ConstArgs{
				Ty:    outs[i].Ty,
				Value: v.Slice(indices[i], outs[i].Ty.Width()),
				Sym:   outs[i].Sym,
			}
		}

		t.replaceMultiConst(m, nid, args)

		return
	}

	mk, isMerger := m.nodes[input.Node].kind.(*Merger)
	if !isMerger {
		return
	}

	if k.Rev != mk.Rev && m.isReversible(input.Node, nid) {
		m.reconnectFromInputsToOutputs(input.Node, nid)
	}
}

func (t *transform) merger(m *Module, nid NodeID, k *Merger) {
	ins := m.Incoming(nid)

	var val constval.Val

	for i := range ins {
		in := ins[i]
		if k.Rev {
			in = ins[len(ins)-1-i]
		}

		v, ok := m.ToConst(in)
		if !ok {
			return
		}

		val.ShiftIn(v)
	}

	t.replaceConst(m, nid, val)
}

func (t *transform) extend(m *Module, nid NodeID, k *Extend) {
	input := m.Input(nid, 0)
	out := *m.Out(Port{Node: nid})

	if v, ok := m.ToConst(input); ok {
		t.replaceConst(m, nid, extendVal(v, out.Ty.Width(), k.Signed))
		return
	}

	if m.Out(input).Ty.Width() == out.Ty.Width() {
		m.ReconnectAllOutgoing(Port{Node: nid}, input)
	}
}

func extendVal(v constval.Val, w uint, signed bool) constval.Val {
	r := v.Convert(w)

	iw := v.Width()
	if signed && iw != 0 && iw < w && v.Bit(iw-1) {
		fill := constval.Zero(w).Not().Shl(iw)
		r = r.Or(fill)
	}

	return r
}

func (t *transform) swtch(m *Module, nid NodeID, k *Switch) {
	si := m.switchInputs(nid)

	var chunk []Port

	if len(k.Cases) == 1 {
		chunk = si.chunks[0]
	} else if sel, ok := m.ToConst(si.sel); ok {
		for c := range k.Cases {
			if k.Cases[c].Matches(sel) {
				chunk = si.chunks[c]
				break
			}
		}
	}

	if chunk != nil {
		m.reconnectOutputs(nid, chunk)
	}
}

// dff simplifies constant reset and enable inputs, feeding each
// rebuilt register back into the same rules until nothing changes.
func (t *transform) dff(m *Module, nid NodeID) {
	for {
		k := m.nodes[nid].kind.(*DFF)
		ins := m.dffInputs(nid)

		trueRst := false

		if !ins.rst.IsNil() {
			if v, ok := m.ToConst(ins.rst); ok {
				if k.RstPol.inactive(v) {
					t.rebuildDFF(m, nid, k, ins, true, false)
					continue
				}

				trueRst = true
			}
		}

		falseEn := false

		if !ins.en.IsNil() {
			if v, ok := m.ToConst(ins.en); ok {
				if !v.IsZero() {
					t.rebuildDFF(m, nid, k, ins, false, true)
					continue
				}

				falseEn = true
			}
		}

		if trueRst || falseEn {
			m.ReconnectAllOutgoing(Port{Node: nid}, ins.init)
		}

		return
	}
}

func (t *transform) rebuildDFF(m *Module, nid NodeID, k *DFF, ins dffInputs, dropRst, dropEn bool) {
	o := *m.Out(Port{Node: nid})

	args := DFFArgs{
		RstKind: k.RstKind,
		RstPol:  k.RstPol,
		Clk:     ins.clk,
		Rst:     ins.rst,
		En:      ins.en,
		Init:    ins.init,
		Data:    ins.data,
		Ty:      o.Ty,
		Sym:     o.Sym,
	}

	if dropRst {
		args.Rst = NoPort
	}

	if dropEn {
		args.En = NoPort
	}

	m.ReplaceWithDFF(nid, args)
}
