package netlist

import (
	"github.com/zshell31/ferrum-hls/netlist/constval"
	"github.com/zshell31/ferrum-hls/netlist/types"
)

type (
	// Kind is the closed set of node variants. Every pass matches on it
	// exhaustively.
	Kind interface {
		name() string
	}

	// Output is one output port of a node. Skip is the dead flag:
	// it starts true and is cleared by the reachability pass.
	Output struct {
		Ty   types.NodeTy
		Sym  string
		Reg  bool
		Skip bool
	}

	node struct {
		kind Kind
		outs []Output

		next, prev NodeID
		links      [2]edgeList

		skip bool
	}
)

type (
	// Input is a module formal input. It has no inputs of its own and a
	// single output carrying the input value.
	Input struct {
		Global GlobalSignal
	}

	// Const is a single constant value.
	Const struct {
		Value constval.Val
	}

	// MultiConst is a batch of constants, one per output.
	MultiConst struct {
		Values []constval.Val
	}

	// Pass forwards its single input unchanged.
	Pass struct{}

	// Merger concatenates its inputs, first input at the most
	// significant end, or the least significant one if Rev is set.
	Merger struct {
		Ins int
		Rev bool
	}

	// Splitter extracts contiguous bit ranges of its input, one per
	// output. Ranges are laid out from the least significant end, or
	// from the most significant one if Rev is set. Start overrides
	// the first range's base bit, -1 means the natural base.
	Splitter struct {
		Start int
		Rev   bool
	}

	// Extend widens its input to the output width, zero-filling or
	// replicating the sign bit.
	Extend struct {
		Signed bool
	}

	// BinOp applies a two-operand combinational operator.
	BinOp struct {
		Op types.BinOp
	}

	// BitNot inverts every bit of its input.
	BitNot struct{}

	// Switch selects one of its case chunks by the selector value.
	// Input slots: selector first, then one chunk of len(outs) inputs
	// per case.
	Switch struct {
		Cases []Case
	}

	// Case is one switch arm. Nil Vals match any selector value
	// (the default arm).
	Case struct {
		Vals []constval.Val
	}

	// DFF is a clocked register. Input slots in order: clock, reset if
	// HasRst, enable if HasEn, initial value, data if HasData. Data may
	// be bound after construction with SetData so feedback loops can be
	// closed.
	DFF struct {
		RstKind RstKind
		RstPol  Polarity

		HasRst  bool
		HasEn   bool
		HasData bool
	}

	// ModInst instantiates another module. Inputs feed the target's
	// formal inputs in order, outputs mirror the target's designated
	// outputs.
	ModInst struct {
		Target ModuleID
		Name   string
	}
)

type (
	GlobalSignal uint8
	RstKind      uint8
	Polarity     uint8
)

const (
	GlobalNone GlobalSignal = iota
	GlobalClk
	GlobalRst
)

const (
	RstSync RstKind = iota
	RstAsync
)

const (
	PolHigh Polarity = iota
	PolLow
)

func (*Input) name() string      { return "input" }
func (*Const) name() string      { return "const" }
func (*MultiConst) name() string { return "multi_const" }
func (*Pass) name() string       { return "pass" }
func (*Merger) name() string     { return "merger" }
func (*Splitter) name() string   { return "splitter" }
func (*Extend) name() string     { return "extend" }
func (*BinOp) name() string      { return "bin_op" }
func (*BitNot) name() string     { return "bit_not" }
func (*Switch) name() string     { return "switch" }
func (*DFF) name() string        { return "dff" }
func (*ModInst) name() string    { return "mod_inst" }

// Matches reports whether the arm takes the given selector value.
func (c Case) Matches(sel constval.Val) bool {
	if c.Vals == nil {
		return true
	}

	for _, v := range c.Vals {
		if v.Equal(sel) {
			return true
		}
	}

	return false
}

func (c Case) IsDefault() bool { return c.Vals == nil }

// inactive reports whether a constant reset value never asserts
// the reset.
func (p Polarity) inactive(v constval.Val) bool {
	if p == PolHigh {
		return v.IsZero()
	}

	return !v.IsZero()
}

func cloneKind(k Kind) Kind {
	switch k := k.(type) {
	case *Input:
		c := *k
		return &c
	case *Const:
		c := *k
		return &c
	case *MultiConst:
		c := MultiConst{Values: append([]constval.Val(nil), k.Values...)}
		return &c
	case *Pass:
		return &Pass{}
	case *Merger:
		c := *k
		return &c
	case *Splitter:
		c := *k
		return &c
	case *Extend:
		c := *k
		return &c
	case *BinOp:
		c := *k
		return &c
	case *BitNot:
		return &BitNot{}
	case *Switch:
		c := Switch{Cases: make([]Case, len(k.Cases))}
		for i, cs := range k.Cases {
			c.Cases[i] = Case{Vals: append([]constval.Val(nil), cs.Vals...)}
		}
		return &c
	case *DFF:
		c := *k
		return &c
	case *ModInst:
		c := *k
		return &c
	default:
		panic("unsupported node kind")
	}
}

func cloneOuts(outs []Output) []Output {
	return append([]Output(nil), outs...)
}

type dffInputs struct {
	clk, rst, en, init, data Port
}

func (m *Module) dffInputs(id NodeID) dffInputs {
	k := m.nodes[id].kind.(*DFF)
	ins := m.Incoming(id)

	r := dffInputs{rst: NoPort, en: NoPort, data: NoPort}
	i := 0

	r.clk = ins[i]
	i++

	if k.HasRst {
		r.rst = ins[i]
		i++
	}

	if k.HasEn {
		r.en = ins[i]
		i++
	}

	r.init = ins[i]
	i++

	if k.HasData {
		r.data = ins[i]
		i++
	}

	assertf(i == len(ins), "dff %v: %v inputs, expected %v", id, len(ins), i)

	return r
}

type switchInputs struct {
	sel    Port
	chunks [][]Port
}

func (m *Module) switchInputs(id NodeID) switchInputs {
	k := m.nodes[id].kind.(*Switch)
	ins := m.Incoming(id)

	outs := len(m.nodes[id].outs)
	cases := len(k.Cases)

	assertf(len(ins) == 1+cases*outs, "switch %v: %v inputs, expected %v", id, len(ins), 1+cases*outs)

	r := switchInputs{sel: ins[0], chunks: make([][]Port, cases)}

	for c := 0; c < cases; c++ {
		r.chunks[c] = ins[1+c*outs : 1+(c+1)*outs]
	}

	return r
}

// splitterIndices returns the base bit of every output range.
func (m *Module) splitterIndices(id NodeID) []uint {
	k := m.nodes[id].kind.(*Splitter)
	outs := m.nodes[id].outs

	in := m.Input(id, 0)
	wi := m.Out(in).Ty.Width()

	r := make([]uint, len(outs))

	if !k.Rev {
		base := uint(0)
		if k.Start >= 0 {
			base = uint(k.Start)
		}

		for i := range outs {
			r[i] = base
			base += outs[i].Ty.Width()
		}
	} else {
		base := wi
		if k.Start >= 0 {
			base = uint(k.Start)
		}

		for i := range outs {
			w := outs[i].Ty.Width()
			assertf(base >= w, "splitter %v: range underflow at output %v", id, i)

			base -= w
			r[i] = base
		}
	}

	return r
}

// passAllBits reports whether the splitter forwards its whole input
// through a single output.
func (m *Module) passAllBits(id NodeID) bool {
	outs := m.nodes[id].outs
	if len(outs) != 1 {
		return false
	}

	in := m.Input(id, 0)

	return outs[0].Ty.Width() == m.Out(in).Ty.Width()
}

// isReversible reports whether the splitter undoes the merger
// output-for-input: no explicit start and pairwise equal widths.
func (m *Module) isReversible(merger, splitter NodeID) bool {
	sk := m.nodes[splitter].kind.(*Splitter)
	if sk.Start >= 0 {
		return false
	}

	ins := m.Incoming(merger)
	outs := m.nodes[splitter].outs

	if len(ins) != len(outs) {
		return false
	}

	for i, in := range ins {
		if m.Out(in).Ty.Width() != outs[i].Ty.Width() {
			return false
		}
	}

	return true
}
