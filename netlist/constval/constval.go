package constval

import (
	"fmt"
	"strconv"

	"lukechampine.com/uint128"
	"tlog.app/go/loc"
)

// Val is an unsigned constant of a fixed bit width up to 128.
// The value is kept masked to the width at all times, so Val can be
// compared with == and used as a map key directly.
type Val struct {
	val   uint128.Uint128
	width uint
}

const MaxWidth = 128

func New(val uint128.Uint128, width uint) Val {
	assertf(width <= MaxWidth, "const width out of range: %v", width)

	return Val{val: val.And(mask(width)), width: width}
}

func New64(val uint64, width uint) Val {
	return New(uint128.From64(val), width)
}

func FromBool(b bool) Val {
	if b {
		return Val{val: uint128.From64(1), width: 1}
	}

	return Val{width: 1}
}

func Zero(width uint) Val {
	assertf(width <= MaxWidth, "const width out of range: %v", width)

	return Val{width: width}
}

func (v Val) Width() uint { return v.width }

func (v Val) Val() uint128.Uint128 { return v.val }

// Uint64 returns the value of a constant no wider than 64 bits.
func (v Val) Uint64() uint64 {
	assertf(v.width <= 64, "const too wide for uint64: %v", v.width)

	return v.val.Lo
}

func (v Val) IsZero() bool { return v.val.IsZero() }

func (v Val) Bool() bool { return !v.val.IsZero() }

// Equal reports whether two constants of the same width hold the same value.
// Comparing constants of different widths is a bug in the caller.
func (v Val) Equal(x Val) bool {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return v.val.Equals(x.val)
}

func (v Val) Cmp(x Val) int {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return v.val.Cmp(x.val)
}

// ShiftIn widens v by x.Width() and moves x into the freed low bits.
// Building a value from chunks starts from the most significant one.
func (v *Val) ShiftIn(x Val) {
	assertf(v.width+x.width <= MaxWidth, "shift in overflows container: %v + %v", v.width, x.width)

	v.val = v.val.Lsh(x.width).Or(x.val)
	v.width += x.width
}

// Slice extracts width bits starting at bit start (counting from the lsb).
// The width is clamped to the bits available above start.
func (v Val) Slice(start, width uint) Val {
	assertf(start <= v.width, "slice out of range: [%v +%v] of %v", start, width, v.width)

	if w := v.width - start; width > w {
		width = w
	}

	return New(v.val.Rsh(start), width)
}

// Convert truncates or zero-extends v to the given width.
func (v Val) Convert(width uint) Val {
	return New(v.val, width)
}

func (v Val) Not() Val {
	return Val{val: v.val.Xor(mask(v.width)), width: v.width}
}

// Add panics if the untruncated sum does not fit the 128-bit container.
func (v Val) Add(x Val) Val {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return New(v.val.Add(x.val), v.width)
}

// Sub panics if x is greater than v.
func (v Val) Sub(x Val) Val {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return New(v.val.Sub(x.val), v.width)
}

// Mul panics if the untruncated product does not fit the 128-bit container.
func (v Val) Mul(x Val) Val {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return New(v.val.Mul(x.val), v.width)
}

// Div panics on division by zero.
func (v Val) Div(x Val) Val {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return New(v.val.Div(x.val), v.width)
}

// Rem panics on division by zero.
func (v Val) Rem(x Val) Val {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return New(v.val.Mod(x.val), v.width)
}

func (v Val) And(x Val) Val {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return Val{val: v.val.And(x.val), width: v.width}
}

func (v Val) Or(x Val) Val {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return Val{val: v.val.Or(x.val), width: v.width}
}

func (v Val) Xor(x Val) Val {
	assertf(v.width == x.width, "width mismatch: %v != %v", v.width, x.width)

	return Val{val: v.val.Xor(x.val), width: v.width}
}

func (v Val) Shl(n uint) Val {
	if n >= v.width {
		return Zero(v.width)
	}

	return New(v.val.Lsh(n), v.width)
}

func (v Val) Shr(n uint) Val {
	if n >= v.width {
		return Zero(v.width)
	}

	return Val{val: v.val.Rsh(n), width: v.width}
}

// Sra shifts right filling the freed bits with the sign bit,
// which is bit width-1 of the value.
func (v Val) Sra(n uint) Val {
	if v.width == 0 {
		return v
	}

	sign := v.Bit(v.width - 1)

	if n >= v.width {
		if sign {
			return Val{val: mask(v.width), width: v.width}
		}

		return Zero(v.width)
	}

	r := v.val.Rsh(n)

	if sign {
		fill := mask(v.width).Lsh(v.width - n).And(mask(v.width))
		r = r.Or(fill)
	}

	return Val{val: r, width: v.width}
}

func (v Val) Bit(i uint) bool {
	assertf(i < v.width, "bit out of range: %v of %v", i, v.width)

	return v.val.Rsh(i).Lo&1 != 0
}

// String renders the constant as a sized verilog-style literal, 8'd42.
func (v Val) String() string {
	return fmt.Sprintf("%d'd%v", v.width, v.val)
}

// Hex renders the value as a bare hex string without a 0x prefix.
func (v Val) Hex() string {
	if v.val.Hi == 0 {
		return strconv.FormatUint(v.val.Lo, 16)
	}

	return strconv.FormatUint(v.val.Hi, 16) + fmt.Sprintf("%016x", v.val.Lo)
}

func mask(width uint) uint128.Uint128 {
	if width == 0 {
		return uint128.Zero
	}

	return uint128.Max.Rsh(MaxWidth - width)
}

func assertf(ok bool, f string, args ...interface{}) {
	if ok {
		return
	}

	_, file, line := loc.Caller(1).NameFileLine()

	panic(fmt.Sprintf(f+" (%v:%v)", append(args, file, line)...))
}
