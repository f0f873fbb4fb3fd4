package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zshell31/ferrum-hls/netlist/constval"
)

func TestWidths(t *testing.T) {
	assert.Equal(t, uint(1), Bit.Width())
	assert.Equal(t, uint(1), Clock.Width())
	assert.Equal(t, uint(8), Unsigned(8).Width())
	assert.Equal(t, uint(6), BitVec(6).Width())

	sig := Group{Items: []Named{
		{Name: "a", Sig: Prim{Ty: Unsigned(8)}},
		{Name: "b", Sig: Array{N: 3, Elem: Prim{Ty: Bit}}},
	}}

	assert.Equal(t, uint(11), sig.Width())
}

func TestPackOrder(t *testing.T) {
	// 0b011011 as three 2-bit chunks: the first element
	// takes the most significant bits.
	sig := Array{N: 3, Elem: Prim{Ty: Unsigned(2)}}

	val := []interface{}{
		constval.New64(0b01, 2),
		constval.New64(0b10, 2),
		constval.New64(0b11, 2),
	}

	b := Pack(sig, val)

	assert.Equal(t, uint(6), b.Width())
	assert.Equal(t, uint64(0b011011), b.Uint64())
}

func TestRoundTrip(t *testing.T) {
	sig := Group{Items: []Named{
		{Name: "op", Sig: Prim{Ty: Unsigned(4)}},
		{Name: "args", Sig: Array{N: 2, Elem: Prim{Ty: Unsigned(8)}}},
		{Name: "valid", Sig: Prim{Ty: Bit}},
	}}

	val := []interface{}{
		constval.New64(0xa, 4),
		[]interface{}{
			constval.New64(0x12, 8),
			constval.New64(0x34, 8),
		},
		constval.New64(1, 1),
	}

	b := Pack(sig, val)
	require.Equal(t, uint(21), b.Width())

	back := Unpack(sig, b)
	assert.Equal(t, val, back)
}

func TestRoundTripNested(t *testing.T) {
	sig := Array{N: 2, Elem: Array{N: 1, Elem: Array{N: 3, Elem: Prim{Ty: Bit}}}}

	bit := func(b uint64) interface{} { return constval.New64(b, 1) }

	val := []interface{}{
		[]interface{}{[]interface{}{bit(0), bit(1), bit(1)}},
		[]interface{}{[]interface{}{bit(0), bit(1), bit(1)}},
	}

	b := Pack(sig, val)
	require.Equal(t, uint(6), b.Width())
	assert.Equal(t, uint64(0b011011), b.Uint64())

	assert.Equal(t, val, Unpack(sig, b))
}

func TestRoundTripWide(t *testing.T) {
	// Wider than the 128-bit constant container in total,
	// but every leaf still fits.
	sig := Array{N: 3, Elem: Prim{Ty: Unsigned(64)}}

	val := []interface{}{
		constval.New64(0x1111111111111111, 64),
		constval.New64(0x2222222222222222, 64),
		constval.New64(0x3333333333333333, 64),
	}

	b := Pack(sig, val)
	require.Equal(t, uint(192), b.Width())

	assert.Equal(t, val, Unpack(sig, b))
}

func TestPackShapeMismatch(t *testing.T) {
	sig := Array{N: 2, Elem: Prim{Ty: Bit}}

	assert.Panics(t, func() { Pack(sig, []interface{}{constval.New64(0, 1)}) })
	assert.Panics(t, func() { Pack(sig, "nope") })
	assert.Panics(t, func() { Pack(Prim{Ty: Unsigned(8)}, constval.New64(0, 4)) })
}

func TestEvalArith(t *testing.T) {
	a := constval.New64(200, 8)
	b := constval.New64(100, 8)

	assert.Equal(t, constval.New64(44, 8), Add.Eval(a, b))
	assert.Equal(t, constval.New64(100, 8), Sub.Eval(a, b))
	assert.Equal(t, constval.New64(2, 8), Div.Eval(a, b))
	assert.Equal(t, constval.New64(0, 8), Rem.Eval(a, b))
}

func TestEvalCmp(t *testing.T) {
	a := constval.New64(3, 8)
	b := constval.New64(5, 8)

	assert.Equal(t, constval.FromBool(false), Eq.Eval(a, b))
	assert.Equal(t, constval.FromBool(true), Ne.Eval(a, b))
	assert.Equal(t, constval.FromBool(true), Lt.Eval(a, b))
	assert.Equal(t, constval.FromBool(false), Ge.Eval(a, b))
	assert.Equal(t, constval.FromBool(true), Le.Eval(a, a))

	for _, op := range []BinOp{Eq, Ne, Ge, Gt, Le, Lt} {
		assert.True(t, op.IsCmp())
		assert.Equal(t, uint(1), op.ResultWidth(8))
	}
}

func TestEvalLogic(t *testing.T) {
	a := constval.New64(0b1100, 4)
	b := constval.New64(0b1010, 4)

	assert.Equal(t, constval.New64(0b1000, 4), BitAnd.Eval(a, b))
	assert.Equal(t, constval.New64(0b1110, 4), BitOr.Eval(a, b))
	assert.Equal(t, constval.New64(0b0110, 4), BitXor.Eval(a, b))

	// Logical and/or on single-bit operands.
	one := constval.New64(1, 1)
	zero := constval.New64(0, 1)

	assert.Equal(t, zero, And.Eval(one, zero))
	assert.Equal(t, one, Or.Eval(one, zero))
}

func TestEvalShifts(t *testing.T) {
	v := constval.New64(0x81, 8)

	assert.Equal(t, constval.New64(0x04, 8), Sll.Eval(v, constval.New64(2, 8)))
	assert.Equal(t, constval.New64(0x20, 8), Slr.Eval(v, constval.New64(2, 8)))
	assert.Equal(t, constval.New64(0xe0, 8), Sra.Eval(v, constval.New64(2, 8)))
	assert.Equal(t, constval.New64(0, 8), Sll.Eval(v, constval.New64(200, 8)))
}

func TestOpStrings(t *testing.T) {
	assert.Equal(t, "+", Add.String())
	assert.Equal(t, ">>>", Sra.String())
	assert.Equal(t, "!=", Ne.String())
}
