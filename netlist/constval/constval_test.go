package constval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"lukechampine.com/uint128"
)

func TestMaskOnConstruction(t *testing.T) {
	v := New64(0x1ff, 8)

	assert.Equal(t, uint64(0xff), v.Uint64())
	assert.Equal(t, uint(8), v.Width())

	assert.True(t, v.Equal(New64(0xff, 8)))
}

func TestValIsMapKey(t *testing.T) {
	m := map[Val]int{}

	m[New64(0x1ff, 8)] = 1
	m[New64(0xff, 8)]++

	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[New64(0xff, 8)])
}

func TestWidthMismatchPanics(t *testing.T) {
	a := New64(1, 8)
	b := New64(1, 9)

	assert.Panics(t, func() { a.Equal(b) })
	assert.Panics(t, func() { a.Add(b) })
	assert.Panics(t, func() { New64(0, 200) })
}

func TestArith(t *testing.T) {
	a := New64(200, 8)
	b := New64(100, 8)

	assert.Equal(t, New64(44, 8), a.Add(b), "sum is truncated to the width")
	assert.Equal(t, New64(100, 8), a.Sub(b))
	assert.Equal(t, New64(32, 8), a.Mul(b), "product is truncated to the width")
	assert.Equal(t, New64(2, 8), a.Div(b))
	assert.Equal(t, New64(0, 8), a.Rem(b))
}

func TestArithContainerOverflow(t *testing.T) {
	max := New(uint128.Max, 128)
	one := New64(1, 128)

	assert.Panics(t, func() { max.Add(one) }, "128-bit sum does not fit the container")
	assert.Panics(t, func() { max.Mul(max) })
	assert.Panics(t, func() { one.Sub(max) })
	assert.Panics(t, func() { one.Div(Zero(128)) })

	assert.NotPanics(t, func() {
		r := New64(255, 8).Add(New64(255, 8))
		assert.Equal(t, New64(254, 8), r)
	}, "only the 128-bit container can overflow, not the masked width")
}

func TestBitwise(t *testing.T) {
	a := New64(0b1100, 4)
	b := New64(0b1010, 4)

	assert.Equal(t, New64(0b1000, 4), a.And(b))
	assert.Equal(t, New64(0b1110, 4), a.Or(b))
	assert.Equal(t, New64(0b0110, 4), a.Xor(b))
	assert.Equal(t, New64(0b0011, 4), a.Not())
}

func TestShifts(t *testing.T) {
	v := New64(0b1001, 4)

	assert.Equal(t, New64(0b0100, 4), v.Shl(2))
	assert.Equal(t, New64(0b0010, 4), v.Shr(2))
	assert.Equal(t, Zero(4), v.Shl(4))
	assert.Equal(t, Zero(4), v.Shr(100))
}

func TestSra(t *testing.T) {
	assert.Equal(t, New64(0xf0, 8), New64(0x80, 8).Sra(3), "sign bit is replicated")
	assert.Equal(t, New64(0x0f, 8), New64(0x78, 8).Sra(3), "positive values shift in zeros")
	assert.Equal(t, New64(0xff, 8), New64(0x80, 8).Sra(100))
	assert.Equal(t, Zero(8), New64(0x7f, 8).Sra(100))
}

func TestShiftIn(t *testing.T) {
	v := New64(0b101, 3)
	v.ShiftIn(New64(0b0011, 4))

	assert.Equal(t, uint(7), v.Width())
	assert.Equal(t, New64(0b101_0011, 7), v)

	assert.Panics(t, func() {
		a := New(uint128.Max, 128)
		a.ShiftIn(FromBool(true))
	})
}

func TestSliceConvert(t *testing.T) {
	v := New64(0b1101_0011, 8)

	assert.Equal(t, New64(0b101, 3), v.Slice(4, 3))
	assert.Equal(t, New64(0b0011, 4), v.Slice(0, 4))
	assert.Equal(t, New64(0b11, 2), v.Slice(6, 3), "width is clamped to the available bits")
	assert.Panics(t, func() { v.Slice(9, 0) })

	assert.Equal(t, New64(0b0011, 4), v.Convert(4))
	assert.Equal(t, New64(0b1101_0011, 12), v.Convert(12))
}

func TestWide(t *testing.T) {
	v := New(uint128.New(0x1122334455667788, 0x99aa), 80)

	assert.Equal(t, "99aa1122334455667788", v.Hex())
	assert.Equal(t, New64(0x99aa, 16), v.Slice(64, 16))

	v2 := v.Slice(64, 16)
	v2.ShiftIn(v.Slice(0, 64))
	assert.Equal(t, v, v2)
}

func TestBool(t *testing.T) {
	assert.Equal(t, New64(1, 1), FromBool(true))
	assert.Equal(t, Zero(1), FromBool(false))
	assert.True(t, New64(4, 8).Bool())
	assert.False(t, Zero(8).Bool())
}
