package netlist

import (
	"fmt"

	"tlog.app/go/loc"

	"github.com/zshell31/ferrum-hls/netlist/constval"
	"github.com/zshell31/ferrum-hls/netlist/types"
)

type (
	// Module is one netlist graph: a node arena, an edge arena and a
	// doubly linked node order list. Designated inputs and outputs
	// are the module's external boundary and are kept in declaration
	// order.
	Module struct {
		Name  string
		IsTop bool

		// Inline forces inlining of every instance of this module.
		Inline bool

		// Skip marks the module dead. Reachability clears it when a
		// live instance pulls the module in.
		Skip bool

		// Span is an optional source location for diagnostics.
		Span string

		id ModuleID

		nodes []node
		edges []edge

		head, tail NodeID

		ins  []Port
		outs []Port
	}

	// NodeCursor walks the node order list. The next id is read ahead,
	// so the current node may be removed or relinked while iterating.
	NodeCursor struct {
		m    *Module
		next NodeID
	}
)

// NoStart marks a splitter without an explicit base bit.
const NoStart = -1

type (
	InputArgs struct {
		Ty     types.NodeTy
		Sym    string
		Global GlobalSignal
	}

	ConstArgs struct {
		Ty    types.NodeTy
		Value constval.Val
		Sym   string
	}

	PassArgs struct {
		Ty    types.NodeTy
		Input Port
		Sym   string
	}

	MergerArgs struct {
		Ins []Port
		Rev bool
		Sym string
	}

	OutputArgs struct {
		Ty  types.NodeTy
		Sym string
	}

	SplitterArgs struct {
		Input Port
		Outs  []OutputArgs

		// Start is the base bit of the first range, NoStart for the
		// natural base: 0, or the input width when Rev is set.
		Start int
		Rev   bool
	}

	ExtendArgs struct {
		Ty     types.NodeTy
		Input  Port
		Signed bool
		Sym    string
	}

	BinOpArgs struct {
		Op  types.BinOp
		Lhs Port
		Rhs Port
		Sym string
	}

	BitNotArgs struct {
		Input Port
		Sym   string
	}

	CaseArgs struct {
		Vals []constval.Val
		Ins  []Port
	}

	SwitchArgs struct {
		Sel   Port
		Cases []CaseArgs
		Outs  []OutputArgs
	}

	DFFArgs struct {
		RstKind RstKind
		RstPol  Polarity

		Clk  Port
		Rst  Port // NoPort if absent
		En   Port // NoPort if absent
		Init Port
		Data Port // NoPort to bind later with SetData

		// Ty is the register type. Ignored if Data is set, the data
		// type wins then.
		Ty  types.NodeTy
		Sym string
	}

	ModInstArgs struct {
		Target ModuleID
		Name   string
		Ins    []Port
	}
)

func NewModule(name string) *Module {
	return &Module{
		Name: name,
		Skip: true,
		id:   NilMod,
		head: Nil,
		tail: Nil,
	}
}

func (m *Module) ID() ModuleID { return m.id }

func (m *Module) NodeCount() int { return len(m.nodes) }
func (m *Module) EdgeCount() int { return len(m.edges) }

func (m *Module) Kind(id NodeID) Kind { return m.nodes[id].kind }

// Out returns the output descriptor behind a port. The pointer is
// valid until the next node is added.
func (m *Module) Out(p Port) *Output {
	return &m.nodes[p.Node].outs[p.Out]
}

func (m *Module) OutCount(id NodeID) int { return len(m.nodes[id].outs) }

func (m *Module) Outputs(id NodeID) []Output { return m.nodes[id].outs }

// ToConst resolves a port to its value if the producer is a constant
// node.
func (m *Module) ToConst(p Port) (constval.Val, bool) {
	switch k := m.nodes[p.Node].kind.(type) {
	case *Const:
		return k.Value, true
	case *MultiConst:
		return k.Values[p.Out], true
	}

	return constval.Val{}, false
}

func (m *Module) ModInputs() []Port  { return m.ins }
func (m *Module) ModOutputs() []Port { return m.outs }

func (m *Module) AddModOutput(p Port) {
	m.assertPort(p)

	m.outs = append(m.outs, p)
}

// AddModOutputs designates every output of the node as a module
// output.
func (m *Module) AddModOutputs(id NodeID) {
	for i := range m.nodes[id].outs {
		m.outs = append(m.outs, Port{Node: id, Out: uint32(i)})
	}
}

func (m *Module) IsModInput(p Port) bool {
	for _, in := range m.ins {
		if in == p {
			return true
		}
	}

	return false
}

func (m *Module) IsModOutput(p Port) bool {
	for _, out := range m.outs {
		if out == p {
			return true
		}
	}

	return false
}

func (m *Module) AddInput(args InputArgs) Port {
	id := m.addNode(&Input{Global: args.Global}, []Output{output(args.Ty, args.Sym)})

	p := Port{Node: id}
	m.ins = append(m.ins, p)

	return p
}

func (m *Module) AddConst(args ConstArgs) Port {
	v := args.Value.Convert(args.Ty.Width())

	id := m.addNode(&Const{Value: v}, []Output{output(args.Ty, args.Sym)})

	return Port{Node: id}
}

func (m *Module) AddMultiConst(args []ConstArgs) NodeID {
	assertf(len(args) != 0, "multi const with no outputs")

	vals := make([]constval.Val, len(args))
	outs := make([]Output, len(args))

	for i, a := range args {
		vals[i] = a.Value.Convert(a.Ty.Width())
		outs[i] = output(a.Ty, a.Sym)
	}

	return m.addNode(&MultiConst{Values: vals}, outs)
}

func (m *Module) AddPass(args PassArgs) Port {
	id := m.addNode(&Pass{}, []Output{output(args.Ty, args.Sym)})

	m.AddEdge(args.Input, Port{Node: id})

	return Port{Node: id}
}

// AddMerger concatenates the inputs. The output is a bit vector as
// wide as all inputs together.
func (m *Module) AddMerger(args MergerArgs) Port {
	assertf(len(args.Ins) != 0, "merger with no inputs")

	var w uint
	for _, in := range args.Ins {
		w += m.Out(in).Ty.Width()
	}

	id := m.addNode(&Merger{Ins: len(args.Ins), Rev: args.Rev}, []Output{output(types.BitVec(w), args.Sym)})

	for i, in := range args.Ins {
		m.AddEdge(in, Port{Node: id, Out: uint32(i)})
	}

	return Port{Node: id}
}

func (m *Module) AddSplitter(args SplitterArgs) NodeID {
	assertf(len(args.Outs) != 0, "splitter with no outputs")

	outs := make([]Output, len(args.Outs))
	for i, o := range args.Outs {
		outs[i] = output(o.Ty, o.Sym)
	}

	id := m.addNode(&Splitter{Start: args.Start, Rev: args.Rev}, outs)

	m.AddEdge(args.Input, Port{Node: id})

	wi := m.Out(args.Input).Ty.Width()

	for i, base := range m.splitterIndices(id) {
		w := m.nodes[id].outs[i].Ty.Width()
		assertf(base+w <= wi, "splitter %v: output %v out of range: [%v +%v] of %v", id, i, base, w, wi)
	}

	return id
}

func (m *Module) AddExtend(args ExtendArgs) Port {
	wi := m.Out(args.Input).Ty.Width()
	assertf(args.Ty.Width() >= wi, "extend shrinks: %v < %v", args.Ty.Width(), wi)

	id := m.addNode(&Extend{Signed: args.Signed}, []Output{output(args.Ty, args.Sym)})

	m.AddEdge(args.Input, Port{Node: id})

	return Port{Node: id}
}

// AddBinOp applies the operator to two operands. Comparisons produce a
// single bit, every other operator keeps the left operand type.
func (m *Module) AddBinOp(args BinOpArgs) Port {
	ty := m.Out(args.Lhs).Ty

	if !args.Op.IsShift() {
		rw := m.Out(args.Rhs).Ty.Width()
		assertf(ty.Width() == rw, "binop %v: operand widths differ: %v != %v", args.Op, ty.Width(), rw)
	}

	if args.Op.IsCmp() {
		ty = types.Bit
	}

	id := m.addNode(&BinOp{Op: args.Op}, []Output{output(ty, args.Sym)})

	m.AddEdge(args.Lhs, Port{Node: id})
	m.AddEdge(args.Rhs, Port{Node: id, Out: 1})

	return Port{Node: id}
}

func (m *Module) AddBitNot(args BitNotArgs) Port {
	ty := m.Out(args.Input).Ty

	id := m.addNode(&BitNot{}, []Output{output(ty, args.Sym)})

	m.AddEdge(args.Input, Port{Node: id})

	return Port{Node: id}
}

func (m *Module) AddSwitch(args SwitchArgs) NodeID {
	assertf(len(args.Outs) != 0, "switch with no outputs")
	assertf(len(args.Cases) != 0, "switch with no cases")

	selW := m.Out(args.Sel).Ty.Width()

	outs := make([]Output, len(args.Outs))
	for i, o := range args.Outs {
		outs[i] = output(o.Ty, o.Sym)
	}

	cases := make([]Case, len(args.Cases))

	for c, ca := range args.Cases {
		assertf(len(ca.Ins) == len(args.Outs), "switch case %v: %v inputs, expected %v", c, len(ca.Ins), len(args.Outs))

		for _, v := range ca.Vals {
			assertf(v.Width() == selW, "switch case %v: selector width mismatch: %v != %v", c, v.Width(), selW)
		}

		for j, in := range ca.Ins {
			assertf(m.Out(in).Ty.Width() == outs[j].Ty.Width(), "switch case %v: input %v width mismatch", c, j)
		}

		cases[c] = Case{Vals: append([]constval.Val(nil), ca.Vals...)}
	}

	id := m.addNode(&Switch{Cases: cases}, outs)

	m.AddEdge(args.Sel, Port{Node: id})

	slot := uint32(1)

	for _, ca := range args.Cases {
		for _, in := range ca.Ins {
			m.AddEdge(in, Port{Node: id, Out: slot})
			slot++
		}
	}

	return id
}

func (m *Module) AddDFF(args DFFArgs) Port {
	ty := m.dffTy(args)

	id := m.addNode(dffKind(args), []Output{regOutput(ty, args.Sym)})

	m.wireDFF(id, args)

	return Port{Node: id}
}

// SetData binds the data input of a register created without one.
// Registers feed back on themselves, so the data source often does not
// exist yet when the register is created.
func (m *Module) SetData(id NodeID, data Port) {
	k, ok := m.nodes[id].kind.(*DFF)
	assertf(ok, "set data: %v is not a dff", id)
	assertf(!k.HasData, "set data: %v already has data", id)

	w := m.Out(data).Ty.Width()
	rw := m.nodes[id].outs[0].Ty.Width()
	assertf(w == rw, "set data: width mismatch: %v != %v", w, rw)

	slot := uint32(m.InCount(id))

	m.AddEdge(data, Port{Node: id, Out: slot})

	k.HasData = true
}

// ReplaceWithConst rewrites the node in place into a constant,
// dropping its inputs and keeping its consumers and list position.
func (m *Module) ReplaceWithConst(id NodeID, args ConstArgs) {
	assertf(len(m.nodes[id].outs) == 1, "replace: %v has %v outputs", id, len(m.nodes[id].outs))

	m.removeIncomingEdges(id)

	m.nodes[id].kind = &Const{Value: args.Value.Convert(args.Ty.Width())}
	m.nodes[id].outs[0] = output(args.Ty, args.Sym)
}

func (m *Module) ReplaceWithMultiConst(id NodeID, args []ConstArgs) {
	assertf(len(args) == len(m.nodes[id].outs), "replace: %v values for %v outputs", len(args), len(m.nodes[id].outs))

	m.removeIncomingEdges(id)

	vals := make([]constval.Val, len(args))

	for i, a := range args {
		vals[i] = a.Value.Convert(a.Ty.Width())
		m.nodes[id].outs[i] = output(a.Ty, a.Sym)
	}

	m.nodes[id].kind = &MultiConst{Values: vals}
}

func (m *Module) ReplaceWithDFF(id NodeID, args DFFArgs) {
	assertf(len(m.nodes[id].outs) == 1, "replace: %v has %v outputs", id, len(m.nodes[id].outs))

	m.removeIncomingEdges(id)

	ty := m.dffTy(args)

	m.nodes[id].kind = dffKind(args)
	m.nodes[id].outs[0] = regOutput(ty, args.Sym)

	m.wireDFF(id, args)
}

func (m *Module) dffTy(args DFFArgs) types.NodeTy {
	assertf(!args.Clk.IsNil(), "dff: clock required")
	assertf(!args.Init.IsNil(), "dff: init required")

	ty := args.Ty
	if !args.Data.IsNil() {
		ty = m.Out(args.Data).Ty
	}

	iw := m.Out(args.Init).Ty.Width()
	assertf(iw == ty.Width(), "dff: init width mismatch: %v != %v", iw, ty.Width())

	if !args.Rst.IsNil() {
		assertf(m.Out(args.Rst).Ty.Width() == 1, "dff: reset is %v bits wide", m.Out(args.Rst).Ty.Width())
	}

	if !args.En.IsNil() {
		assertf(m.Out(args.En).Ty.Width() == 1, "dff: enable is %v bits wide", m.Out(args.En).Ty.Width())
	}

	return ty
}

func dffKind(args DFFArgs) *DFF {
	return &DFF{
		RstKind: args.RstKind,
		RstPol:  args.RstPol,
		HasRst:  !args.Rst.IsNil(),
		HasEn:   !args.En.IsNil(),
		HasData: !args.Data.IsNil(),
	}
}

func (m *Module) wireDFF(id NodeID, args DFFArgs) {
	m.AddEdge(args.Clk, Port{Node: id})

	slot := uint32(1)

	if !args.Rst.IsNil() {
		m.AddEdge(args.Rst, Port{Node: id, Out: slot})
		slot++
	}

	if !args.En.IsNil() {
		m.AddEdge(args.En, Port{Node: id, Out: slot})
		slot++
	}

	m.AddEdge(args.Init, Port{Node: id, Out: slot})
	slot++

	if !args.Data.IsNil() {
		m.AddEdge(args.Data, Port{Node: id, Out: slot})
	}
}

// reconnectFromInputsToOutputs bridges each input of one node to the
// matching output of another through fresh pass nodes appended at the
// list end.
func (m *Module) reconnectFromInputsToOutputs(from, to NodeID) {
	ins := m.Incoming(from)

	outs := m.nodes[to].outs
	assertf(len(ins) == len(outs), "reconnect: %v inputs to %v outputs", len(ins), len(outs))

	for i, in := range ins {
		p := m.AddPass(PassArgs{Ty: outs[i].Ty, Input: in, Sym: outs[i].Sym})

		m.ReconnectAllOutgoing(Port{Node: to, Out: uint32(i)}, p)
	}
}

// RemoveNode deletes the node together with all its edges. The last
// node of the arena is moved into the freed slot; the returned id is
// the one that moved, Nil if none did. Callers holding ids must remap
// it to id.
func (m *Module) RemoveNode(id NodeID) (moved NodeID) {
	m.removeAllEdges(id)
	m.listUnlinkNode(id)

	last := NodeID(len(m.nodes) - 1)
	moved = Nil

	if id != last {
		mv := m.nodes[last]

		if mv.prev != Nil {
			m.nodes[mv.prev].next = id
		} else {
			m.head = id
		}

		if mv.next != Nil {
			m.nodes[mv.next].prev = id
		} else {
			m.tail = id
		}

		for eid := mv.links[dirIn].head; eid != nilEdge; eid = m.edges[eid].next[dirIn] {
			m.edges[eid].to.Node = id
		}

		for eid := mv.links[dirOut].head; eid != nilEdge; eid = m.edges[eid].next[dirOut] {
			m.edges[eid].from.Node = id
		}

		for i := range m.ins {
			if m.ins[i].Node == last {
				m.ins[i].Node = id
			}
		}

		for i := range m.outs {
			if m.outs[i].Node == last {
				m.outs[i].Node = id
			}
		}

		m.nodes[id] = mv
		moved = last
	}

	m.nodes = m.nodes[:last]

	return moved
}

func (m *Module) Nodes() NodeCursor {
	return NodeCursor{m: m, next: m.head}
}

func (c *NodeCursor) Next() NodeID {
	id := c.next

	if id != Nil {
		c.next = c.m.nodes[id].next
	}

	return id
}

// SetNext redirects the cursor, used after splicing new nodes before
// the current position.
func (c *NodeCursor) SetNext(id NodeID) { c.next = id }

func (m *Module) addNode(kind Kind, outs []Output) NodeID {
	id := m.pushNode(kind, outs)

	m.listAppendNode(id)

	return id
}

func (m *Module) addNodeBefore(at NodeID, kind Kind, outs []Output) NodeID {
	id := m.pushNode(kind, outs)

	m.listInsertNodeBefore(at, id)

	return id
}

func (m *Module) pushNode(kind Kind, outs []Output) NodeID {
	id := NodeID(len(m.nodes))

	m.nodes = append(m.nodes, node{
		kind:  kind,
		outs:  outs,
		next:  Nil,
		prev:  Nil,
		links: [2]edgeList{makeEdgeList(), makeEdgeList()},
		skip:  true,
	})

	return id
}

func (m *Module) listAppendNode(id NodeID) {
	if m.tail == Nil {
		m.head, m.tail = id, id
		return
	}

	m.nodes[m.tail].next = id
	m.nodes[id].prev = m.tail
	m.tail = id
}

func (m *Module) listInsertNodeBefore(at, id NodeID) {
	prev := m.nodes[at].prev

	m.nodes[id].prev = prev
	m.nodes[id].next = at
	m.nodes[at].prev = id

	if prev != Nil {
		m.nodes[prev].next = id
	} else {
		m.head = id
	}
}

func (m *Module) listUnlinkNode(id NodeID) {
	n := &m.nodes[id]

	if n.prev != Nil {
		m.nodes[n.prev].next = n.next
	} else {
		m.head = n.next
	}

	if n.next != Nil {
		m.nodes[n.next].prev = n.prev
	} else {
		m.tail = n.prev
	}

	n.next, n.prev = Nil, Nil
}

func (m *Module) nodeList() []NodeID {
	var r []NodeID

	for id := m.head; id != Nil; id = m.nodes[id].next {
		r = append(r, id)
	}

	return r
}

func (m *Module) assertPort(p Port) {
	assertf(p.Node >= 0 && int(p.Node) < len(m.nodes), "bad node: %v", p.Node)
	assertf(int(p.Out) < len(m.nodes[p.Node].outs), "bad port: %v of %v", p.Out, p.Node)
}

func output(ty types.NodeTy, sym string) Output {
	return Output{Ty: ty, Sym: sym, Skip: true}
}

func regOutput(ty types.NodeTy, sym string) Output {
	return Output{Ty: ty, Sym: sym, Reg: true, Skip: true}
}

func assertf(ok bool, f string, args ...interface{}) {
	if ok {
		return
	}

	_, file, line := loc.Caller(1).NameFileLine()

	panic(fmt.Sprintf(f+" (%v:%v)", append(args, file, line)...))
}
