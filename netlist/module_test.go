package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zshell31/ferrum-hls/netlist/constval"
	"github.com/zshell31/ferrum-hls/netlist/types"
)

func TestAddConstConverts(t *testing.T) {
	m := NewModule("test")

	c := m.AddConst(ConstArgs{Ty: types.Unsigned(8), Value: constval.New64(0x1ff, 9)})

	v, ok := m.ToConst(c)
	require.True(t, ok)
	assert.Equal(t, constval.New64(0xff, 8), v)
}

func TestMergerTy(t *testing.T) {
	m := NewModule("test")

	a := m.AddInput(InputArgs{Ty: types.Unsigned(3), Sym: "a"})
	b := m.AddInput(InputArgs{Ty: types.Unsigned(5), Sym: "b"})

	y := m.AddMerger(MergerArgs{Ins: []Port{a, b}, Sym: "y"})

	assert.Equal(t, types.BitVec(8), m.Out(y).Ty)
	assert.Equal(t, []Port{a, b}, m.Incoming(y.Node))
}

func TestSplitterIndices(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})

	outs := []OutputArgs{{Ty: types.Unsigned(3)}, {Ty: types.Unsigned(5)}}

	s := m.AddSplitter(SplitterArgs{Input: a, Outs: outs, Start: NoStart})
	assert.Equal(t, []uint{0, 3}, m.splitterIndices(s))

	s = m.AddSplitter(SplitterArgs{Input: a, Outs: outs, Start: NoStart, Rev: true})
	assert.Equal(t, []uint{5, 0}, m.splitterIndices(s))

	outs = []OutputArgs{{Ty: types.Unsigned(2)}, {Ty: types.Unsigned(2)}}

	s = m.AddSplitter(SplitterArgs{Input: a, Outs: outs, Start: 2})
	assert.Equal(t, []uint{2, 4}, m.splitterIndices(s))

	s = m.AddSplitter(SplitterArgs{Input: a, Outs: outs, Start: 6, Rev: true})
	assert.Equal(t, []uint{4, 2}, m.splitterIndices(s))
}

func TestSplitterRangeAssert(t *testing.T) {
	m := NewModule("test")

	a := m.AddInput(InputArgs{Ty: types.Unsigned(8), Sym: "a"})

	assert.Panics(t, func() {
		m.AddSplitter(SplitterArgs{
			Input: a,
			Outs:  []OutputArgs{{Ty: types.Unsigned(5)}, {Ty: types.Unsigned(5)}},
			Start: NoStart,
		})
	})
}

func TestExtendShrinkPanics(t *testing.T) {
	m := NewModule("test")

	a := m.AddInput(InputArgs{Ty: types.Unsigned(8), Sym: "a"})

	assert.Panics(t, func() {
		m.AddExtend(ExtendArgs{Ty: types.Unsigned(4), Input: a})
	})
}

func TestBinOpTy(t *testing.T) {
	m := NewModule("test")

	a := m.AddInput(InputArgs{Ty: types.Unsigned(8), Sym: "a"})
	b := m.AddInput(InputArgs{Ty: types.Unsigned(8), Sym: "b"})
	n := m.AddInput(InputArgs{Ty: types.Unsigned(3), Sym: "n"})

	sum := m.AddBinOp(BinOpArgs{Op: types.Add, Lhs: a, Rhs: b})
	assert.Equal(t, types.Unsigned(8), m.Out(sum).Ty)

	eq := m.AddBinOp(BinOpArgs{Op: types.Eq, Lhs: a, Rhs: b})
	assert.Equal(t, types.Bit, m.Out(eq).Ty)

	// shifts take a right operand of any width
	sh := m.AddBinOp(BinOpArgs{Op: types.Sll, Lhs: a, Rhs: n})
	assert.Equal(t, types.Unsigned(8), m.Out(sh).Ty)

	assert.Panics(t, func() {
		m.AddBinOp(BinOpArgs{Op: types.Add, Lhs: a, Rhs: n})
	})
}

func TestSwitchLayout(t *testing.T) {
	m := NewModule("test")

	u2 := types.Unsigned(2)
	u8 := types.Unsigned(8)

	sel := m.AddInput(InputArgs{Ty: u2, Sym: "sel"})
	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	b := m.AddInput(InputArgs{Ty: u8, Sym: "b"})
	c := m.AddInput(InputArgs{Ty: u8, Sym: "c"})
	d := m.AddInput(InputArgs{Ty: u8, Sym: "d"})

	s := m.AddSwitch(SwitchArgs{
		Sel: sel,
		Cases: []CaseArgs{
			{Vals: []constval.Val{constval.New64(0, 2)}, Ins: []Port{a, b}},
			{Ins: []Port{c, d}},
		},
		Outs: []OutputArgs{{Ty: u8, Sym: "x"}, {Ty: u8, Sym: "y"}},
	})

	si := m.switchInputs(s)

	assert.Equal(t, sel, si.sel)
	assert.Equal(t, [][]Port{{a, b}, {c, d}}, si.chunks)

	k := m.Kind(s).(*Switch)
	assert.False(t, k.Cases[0].IsDefault())
	assert.True(t, k.Cases[1].IsDefault())
	assert.True(t, k.Cases[0].Matches(constval.New64(0, 2)))
	assert.False(t, k.Cases[0].Matches(constval.New64(1, 2)))
	assert.True(t, k.Cases[1].Matches(constval.New64(3, 2)))
}

func TestSwitchAsserts(t *testing.T) {
	m := NewModule("test")

	u2 := types.Unsigned(2)
	u8 := types.Unsigned(8)

	sel := m.AddInput(InputArgs{Ty: u2, Sym: "sel"})
	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})

	// case arity must match the output count
	assert.Panics(t, func() {
		m.AddSwitch(SwitchArgs{
			Sel:   sel,
			Cases: []CaseArgs{{Ins: []Port{a, a}}},
			Outs:  []OutputArgs{{Ty: u8}},
		})
	})

	// case values must be as wide as the selector
	assert.Panics(t, func() {
		m.AddSwitch(SwitchArgs{
			Sel:   sel,
			Cases: []CaseArgs{{Vals: []constval.Val{constval.New64(0, 3)}, Ins: []Port{a}}},
			Outs:  []OutputArgs{{Ty: u8}},
		})
	})
}

func TestDFFSlots(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	clk := m.AddInput(InputArgs{Ty: types.Clock, Sym: "clk", Global: GlobalClk})
	rst := m.AddInput(InputArgs{Ty: types.Bit, Sym: "rst", Global: GlobalRst})
	en := m.AddInput(InputArgs{Ty: types.Bit, Sym: "en"})
	d := m.AddInput(InputArgs{Ty: u8, Sym: "d"})
	init := m.AddConst(ConstArgs{Ty: u8, Value: constval.New64(0, 8)})

	q := m.AddDFF(DFFArgs{
		Clk:  clk,
		Rst:  rst,
		En:   en,
		Init: init,
		Data: d,
		Sym:  "q",
	})

	assert.True(t, m.Out(q).Reg)
	assert.Equal(t, u8, m.Out(q).Ty)

	ins := m.dffInputs(q.Node)

	assert.Equal(t, clk, ins.clk)
	assert.Equal(t, rst, ins.rst)
	assert.Equal(t, en, ins.en)
	assert.Equal(t, init, ins.init)
	assert.Equal(t, d, ins.data)
}

func TestDFFSetData(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	clk := m.AddInput(InputArgs{Ty: types.Clock, Sym: "clk", Global: GlobalClk})
	init := m.AddConst(ConstArgs{Ty: u8, Value: constval.New64(0, 8)})

	q := m.AddDFF(DFFArgs{Clk: clk, Rst: NoPort, En: NoPort, Init: init, Data: NoPort, Ty: u8, Sym: "q"})

	one := m.AddConst(ConstArgs{Ty: u8, Value: constval.New64(1, 8)})
	d := m.AddBinOp(BinOpArgs{Op: types.Add, Lhs: q, Rhs: one, Sym: "d"})

	m.SetData(q.Node, d)

	k := m.Kind(q.Node).(*DFF)
	assert.True(t, k.HasData)

	ins := m.dffInputs(q.Node)
	assert.Equal(t, clk, ins.clk)
	assert.Equal(t, NoPort, ins.rst)
	assert.Equal(t, NoPort, ins.en)
	assert.Equal(t, init, ins.init)
	assert.Equal(t, d, ins.data)

	assert.Panics(t, func() { m.SetData(q.Node, d) })
}

func TestDFFInitWidthAssert(t *testing.T) {
	m := NewModule("test")

	clk := m.AddInput(InputArgs{Ty: types.Clock, Sym: "clk", Global: GlobalClk})
	init := m.AddConst(ConstArgs{Ty: types.Unsigned(4), Value: constval.New64(0, 4)})

	assert.Panics(t, func() {
		m.AddDFF(DFFArgs{Clk: clk, Rst: NoPort, En: NoPort, Init: init, Data: NoPort, Ty: types.Unsigned(8)})
	})
}

func TestReplaceWithConst(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})
	p := m.AddPass(PassArgs{Ty: u8, Input: a, Sym: "p"})
	q := m.AddPass(PassArgs{Ty: u8, Input: p, Sym: "q"})

	m.ReplaceWithConst(p.Node, ConstArgs{Ty: u8, Value: constval.New64(7, 8), Sym: "p"})

	v, ok := m.ToConst(p)
	require.True(t, ok)
	assert.Equal(t, constval.New64(7, 8), v)

	// consumers stay, inputs are gone
	assert.Equal(t, []Port{p}, m.Incoming(q.Node))
	assert.Empty(t, m.Incoming(p.Node))
	assert.Empty(t, m.Consumers(a))
}

func TestReplaceWithDFF(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	clk := m.AddInput(InputArgs{Ty: types.Clock, Sym: "clk", Global: GlobalClk})
	rst := m.AddInput(InputArgs{Ty: types.Bit, Sym: "rst", Global: GlobalRst})
	init := m.AddConst(ConstArgs{Ty: u8, Value: constval.New64(0, 8)})
	d := m.AddInput(InputArgs{Ty: u8, Sym: "d"})

	q := m.AddDFF(DFFArgs{Clk: clk, Rst: rst, En: NoPort, Init: init, Data: d, Sym: "q"})
	y := m.AddBitNot(BitNotArgs{Input: q, Sym: "y"})

	m.ReplaceWithDFF(q.Node, DFFArgs{Clk: clk, Rst: NoPort, En: NoPort, Init: init, Data: d, Sym: "q"})

	k := m.Kind(q.Node).(*DFF)
	assert.False(t, k.HasRst)
	assert.True(t, k.HasData)

	ins := m.dffInputs(q.Node)
	assert.Equal(t, clk, ins.clk)
	assert.Equal(t, NoPort, ins.rst)
	assert.Equal(t, init, ins.init)
	assert.Equal(t, d, ins.data)

	assert.Equal(t, []Port{q}, m.Incoming(y.Node))
	assert.Empty(t, m.Consumers(rst))
}

func TestModOutputs(t *testing.T) {
	m := NewModule("test")

	u8 := types.Unsigned(8)

	a := m.AddInput(InputArgs{Ty: u8, Sym: "a"})

	mc := m.AddMultiConst([]ConstArgs{
		{Ty: u8, Value: constval.New64(1, 8)},
		{Ty: u8, Value: constval.New64(2, 8)},
	})

	m.AddModOutputs(mc)

	assert.Equal(t, []Port{{Node: mc}, {Node: mc, Out: 1}}, m.ModOutputs())
	assert.True(t, m.IsModOutput(Port{Node: mc, Out: 1}))
	assert.False(t, m.IsModOutput(a))

	assert.True(t, m.IsModInput(a))
	assert.False(t, m.IsModInput(Port{Node: mc}))

	v, ok := m.ToConst(Port{Node: mc, Out: 1})
	require.True(t, ok)
	assert.Equal(t, constval.New64(2, 8), v)

	_, ok = m.ToConst(a)
	assert.False(t, ok)
}
