package main

import (
	"github.com/zshell31/ferrum-hls/netlist"
	"github.com/zshell31/ferrum-hls/netlist/constval"
	"github.com/zshell31/ferrum-hls/netlist/types"
)

type design struct {
	name  string
	build func(cfg netlist.Config) *netlist.Netlist
}

var designs = []design{
	{"counter", buildCounter},
	{"shift", buildShift},
	{"mux", buildMux},
}

func findDesign(name string) (design, bool) {
	for _, d := range designs {
		if d.name == name {
			return d, true
		}
	}

	return design{}, false
}

func designNames() []string {
	r := make([]string, len(designs))

	for i, d := range designs {
		r[i] = d.name
	}

	return r
}

// buildCounter is an 8-bit counter with enable and async reset.
func buildCounter(cfg netlist.Config) *netlist.Netlist {
	nl := netlist.New(cfg)

	m := netlist.NewModule("counter")
	m.IsTop = true
	nl.AddModule(m)

	u8 := types.Unsigned(8)

	clk := m.AddInput(netlist.InputArgs{Ty: types.Clock, Sym: "clk", Global: netlist.GlobalClk})
	rst := m.AddInput(netlist.InputArgs{Ty: types.Bit, Sym: "rst", Global: netlist.GlobalRst})
	en := m.AddInput(netlist.InputArgs{Ty: types.Bit, Sym: "en"})

	zero := m.AddConst(netlist.ConstArgs{Ty: u8, Value: constval.New64(0, 8)})

	q := m.AddDFF(netlist.DFFArgs{
		RstKind: netlist.RstAsync,
		Clk:     clk,
		Rst:     rst,
		En:      en,
		Init:    zero,
		Data:    netlist.NoPort,
		Ty:      u8,
		Sym:     "cnt",
	})

	one := m.AddConst(netlist.ConstArgs{Ty: u8, Value: constval.New64(1, 8)})
	d := m.AddBinOp(netlist.BinOpArgs{Op: types.Add, Lhs: q, Rhs: one, Sym: "d"})

	m.SetData(q.Node, d)
	m.AddModOutput(q)

	return nl
}

// buildShift is an 8-bit shift register, shifting in from the low end.
func buildShift(cfg netlist.Config) *netlist.Netlist {
	nl := netlist.New(cfg)

	m := netlist.NewModule("shift")
	m.IsTop = true
	nl.AddModule(m)

	u8 := types.Unsigned(8)

	clk := m.AddInput(netlist.InputArgs{Ty: types.Clock, Sym: "clk", Global: netlist.GlobalClk})
	si := m.AddInput(netlist.InputArgs{Ty: types.Bit, Sym: "si"})

	zero := m.AddConst(netlist.ConstArgs{Ty: u8, Value: constval.New64(0, 8)})

	q := m.AddDFF(netlist.DFFArgs{
		Clk:  clk,
		Rst:  netlist.NoPort,
		En:   netlist.NoPort,
		Init: zero,
		Data: netlist.NoPort,
		Ty:   u8,
		Sym:  "q",
	})

	lo := m.AddSplitter(netlist.SplitterArgs{
		Input: q,
		Outs:  []netlist.OutputArgs{{Ty: types.Unsigned(7), Sym: "lo"}},
		Start: netlist.NoStart,
	})

	nxt := m.AddMerger(netlist.MergerArgs{
		Ins: []netlist.Port{{Node: lo}, si},
		Sym: "nxt",
	})

	m.SetData(q.Node, nxt)
	m.AddModOutput(q)

	return nl
}

// buildMux is a 4-way multiplexer assembled from 2-way submodules, a
// small playground for the inline policies.
func buildMux(cfg netlist.Config) *netlist.Netlist {
	nl := netlist.New(cfg)

	u8 := types.Unsigned(8)

	m2 := netlist.NewModule("mux2")

	sel := m2.AddInput(netlist.InputArgs{Ty: types.Bit, Sym: "sel"})
	a := m2.AddInput(netlist.InputArgs{Ty: u8, Sym: "a"})
	b := m2.AddInput(netlist.InputArgs{Ty: u8, Sym: "b"})

	y := m2.AddSwitch(netlist.SwitchArgs{
		Sel: sel,
		Cases: []netlist.CaseArgs{
			{Vals: []constval.Val{constval.New64(0, 1)}, Ins: []netlist.Port{a}},
			{Ins: []netlist.Port{b}},
		},
		Outs: []netlist.OutputArgs{{Ty: u8, Sym: "y"}},
	})

	m2.AddModOutputs(y)
	m2ID := nl.AddModule(m2)

	top := netlist.NewModule("mux4")
	top.IsTop = true
	nl.AddModule(top)

	s := top.AddInput(netlist.InputArgs{Ty: types.Unsigned(2), Sym: "sel"})

	in0 := top.AddInput(netlist.InputArgs{Ty: u8, Sym: "in0"})
	in1 := top.AddInput(netlist.InputArgs{Ty: u8, Sym: "in1"})
	in2 := top.AddInput(netlist.InputArgs{Ty: u8, Sym: "in2"})
	in3 := top.AddInput(netlist.InputArgs{Ty: u8, Sym: "in3"})

	sb := top.AddSplitter(netlist.SplitterArgs{
		Input: s,
		Outs:  []netlist.OutputArgs{{Ty: types.Bit, Sym: "s0"}, {Ty: types.Bit, Sym: "s1"}},
		Start: netlist.NoStart,
	})

	s0 := netlist.Port{Node: sb}
	s1 := netlist.Port{Node: sb, Out: 1}

	lo := nl.AddModInst(top, netlist.ModInstArgs{Target: m2ID, Ins: []netlist.Port{s0, in0, in1}})
	hi := nl.AddModInst(top, netlist.ModInstArgs{Target: m2ID, Ins: []netlist.Port{s0, in2, in3}})
	out := nl.AddModInst(top, netlist.ModInstArgs{Target: m2ID, Ins: []netlist.Port{s1, {Node: lo}, {Node: hi}}})

	top.AddModOutput(netlist.Port{Node: out})

	return nl
}
