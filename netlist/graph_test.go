package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zshell31/ferrum-hls/netlist/types"
)

func TestIncomingSlotOrder(t *testing.T) {
	m := NewModule("test")

	a := m.AddInput(InputArgs{Ty: types.Unsigned(8), Sym: "a"})
	b := m.AddInput(InputArgs{Ty: types.Unsigned(8), Sym: "b"})

	y := m.AddBinOp(BinOpArgs{Op: types.Add, Lhs: a, Rhs: b, Sym: "y"})

	assert.Equal(t, []Port{a, b}, m.Incoming(y.Node))
	assert.Equal(t, 2, m.InCount(y.Node))
	assert.Equal(t, a, m.Input(y.Node, 0))
	assert.Equal(t, b, m.Input(y.Node, 1))
	assert.Equal(t, NoPort, m.Input(y.Node, 2))
}

func TestConsumers(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	p1 := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p1"})
	p2 := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p2"})

	assert.Equal(t, []NodeID{p1.Node, p2.Node}, m.Consumers(a))
	assert.Empty(t, m.Consumers(p2))
}

func TestReconnectKeepsSlots(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	b := m.AddInput(InputArgs{Ty: u8, Sym: "b"})
	c := m.AddInput(InputArgs{Ty: u8, Sym: "c"})

	y := m.AddBinOp(BinOpArgs{Op: types.Sub, Lhs: a, Rhs: b, Sym: "y"})

	m.ReconnectAllOutgoing(b, c)

	assert.Equal(t, []Port{a, c}, m.Incoming(y.Node))
	assert.Equal(t, c, m.Input(y.Node, 1))
	assert.Empty(t, m.Consumers(b))
	assert.Equal(t, []NodeID{y.Node}, m.Consumers(c))
	assert.Equal(t, 2, m.EdgeCount())
}

func TestReconnectManyConsumers(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	b := m.AddInput(InputArgs{Ty: u8, Sym: "b"})
	c := m.AddInput(InputArgs{Ty: u8, Sym: "c"})

	op1 := m.AddBinOp(BinOpArgs{Op: types.Add, Lhs: a, Rhs: b, Sym: "op1"})
	op2 := m.AddBinOp(BinOpArgs{Op: types.Add, Lhs: b, Rhs: a, Sym: "op2"})
	p := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p"})

	m.ReconnectAllOutgoing(a, c)

	assert.Equal(t, []Port{c, b}, m.Incoming(op1.Node))
	assert.Equal(t, []Port{b, c}, m.Incoming(op2.Node))
	assert.Equal(t, []Port{c}, m.Incoming(p.Node))

	assert.Empty(t, m.Consumers(a))
	assert.Equal(t, []NodeID{op1.Node, op2.Node, p.Node}, m.Consumers(c))
}

func TestReconnectRetargetsModOutputs(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	b := m.AddInput(InputArgs{Ty: u8, Sym: "b"})
	p := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p"})

	m.AddModOutput(p)

	m.ReconnectAllOutgoing(p, b)

	assert.Equal(t, []Port{b}, m.ModOutputs())
}

func TestReconnectSelfIsNoop(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	p := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p"})

	m.ReconnectAllOutgoing(a, a)

	assert.Equal(t, []Port{a}, m.Incoming(p.Node))
	assert.Equal(t, 1, m.EdgeCount())
}

func TestRemoveNodeSwap(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	b := m.AddInput(InputArgs{Ty: u8, Sym: "b"})
	pa := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "pa"})
	pb := m.AddPass(PassArgs{Ty: u8, Input: b, Sym: "pb"})
	y := m.AddBinOp(BinOpArgs{Op: types.Add, Lhs: pa, Rhs: pb, Sym: "y"})

	m.AddModOutput(y)

	// the last node moves into the freed slot
	moved := m.RemoveNode(pa.Node)
	assert.Equal(t, y.Node, moved)

	yy := pa.Node

	assert.Equal(t, 4, m.NodeCount())
	assert.Equal(t, []NodeID{a.Node, b.Node, pb.Node, yy}, m.nodeList())
	assert.IsType(t, &BinOp{}, m.Kind(yy))

	assert.Equal(t, []Port{pb}, m.Incoming(yy))
	assert.Equal(t, NoPort, m.Input(yy, 0))
	assert.Equal(t, pb, m.Input(yy, 1))
	assert.Equal(t, []NodeID{yy}, m.Consumers(pb))
	assert.Empty(t, m.Consumers(a))

	assert.Equal(t, []Port{{Node: yy}}, m.ModOutputs())
	assert.Equal(t, 2, m.EdgeCount())
}

func TestRemoveLastNode(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	p := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p"})

	moved := m.RemoveNode(p.Node)

	assert.Equal(t, Nil, moved)
	assert.Equal(t, 1, m.NodeCount())
	assert.Equal(t, 0, m.EdgeCount())
	assert.Equal(t, []NodeID{a.Node}, m.nodeList())
}

func TestCursorSurvivesRemoval(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	p1 := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p1"})
	p2 := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p2"})
	m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p3"})

	var visited []NodeID

	for it := m.Nodes(); ; {
		nid := it.Next()
		if nid == Nil {
			break
		}

		visited = append(visited, nid)

		if nid == p1.Node {
			m.RemoveNode(nid)
		}
	}

	// p3 was moved into p1's slot and is visited under its new id
	assert.Equal(t, []NodeID{a.Node, p1.Node, p2.Node, p1.Node}, visited)
	assert.Equal(t, []NodeID{a.Node, p2.Node, p1.Node}, m.nodeList())
}

func TestCursorSetNext(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	p := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p"})

	it := m.Nodes()

	assert.Equal(t, a.Node, it.Next())
	assert.Equal(t, p.Node, it.Next())

	it.SetNext(a.Node)

	assert.Equal(t, a.Node, it.Next())
	assert.Equal(t, p.Node, it.Next())
	assert.Equal(t, Nil, it.Next())
}

func TestPortString(t *testing.T) {
	assert.Equal(t, "3.1", Port{Node: 3, Out: 1}.String())
	assert.Equal(t, "nil", NoPort.String())
}
