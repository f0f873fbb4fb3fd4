package bitvec

import (
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Vec is a bit vector of a fixed width with no upper bound.
	// Words are little-endian: bit i lives in word i/64.
	//
	// Assigning a Vec shares the underlying words. Use Copy to detach.
	Vec struct {
		b     []uint64
		width uint
		b0    [1]uint64
	}
)

func New(width uint) *Vec {
	s := Make(width)
	return &s
}

func Make(width uint) Vec {
	s := Vec{width: width}
	s.b = s.b0[:]

	if w := words(width); w > len(s.b) {
		s.b = make([]uint64, w)
	}

	return s
}

func From64(val uint64, width uint) Vec {
	return FromWords(width, val)
}

// FromWords builds a vector from little-endian words,
// masking everything beyond the width.
func FromWords(width uint, w ...uint64) Vec {
	s := Make(width)

	copy(s.b, w)
	s.maskTop()

	return s
}

func (s *Vec) Width() uint { return s.width }

func (s *Vec) Words() []uint64 { return s.b }

func (s *Vec) Uint64() uint64 {
	if len(s.b) == 0 {
		return 0
	}

	return s.b[0]
}

func (s *Vec) Bit(i uint) bool {
	if i >= s.width {
		return false
	}

	x, j := s.ij(i)

	return (s.b[x] & (1 << j)) != 0
}

func (s *Vec) SetBit(i uint) {
	if i >= s.width {
		panic(fmt.Sprintf("bit out of range: %v of %v", i, s.width))
	}

	x, j := s.ij(i)

	s.b[x] |= 1 << j
}

func (s *Vec) ClearBit(i uint) {
	if i >= s.width {
		return
	}

	x, j := s.ij(i)

	s.b[x] &^= 1 << j
}

func (s *Vec) IsZero() bool {
	for _, w := range s.b {
		if w != 0 {
			return false
		}
	}

	return true
}

func (s *Vec) Equal(x Vec) bool {
	if s.width != x.width {
		return false
	}

	for i, w := range s.b {
		if w != x.b[i] {
			return false
		}
	}

	return true
}

func (s *Vec) Copy() Vec {
	r := Make(s.width)
	copy(r.b, s.b)

	return r
}

// ShiftIn widens the vector by x.Width() and moves x into the freed low bits.
// Packing a value from chunks starts from the most significant one.
func (s *Vec) ShiftIn(x Vec) Vec {
	r := Make(s.width + x.width)

	copy(r.b, x.b[:words(x.width)])

	off, sh := int(x.width/64), x.width%64

	for i, n := 0, words(s.width); i < n; i++ {
		r.b[off+i] |= s.b[i] << sh

		if sh != 0 && off+i+1 < len(r.b) {
			r.b[off+i+1] |= s.b[i] >> (64 - sh)
		}
	}

	r.maskTop()

	return r
}

// Slice extracts width bits starting at bit start (counting from the lsb).
func (s *Vec) Slice(start, width uint) Vec {
	if start+width > s.width {
		panic(fmt.Sprintf("slice out of range: [%v +%v] of %v", start, width, s.width))
	}

	r := Make(width)

	off, sh := int(start/64), start%64

	for i, n := 0, words(width); i < n; i++ {
		w := s.b[off+i] >> sh

		if sh != 0 && off+i+1 < len(s.b) {
			w |= s.b[off+i+1] << (64 - sh)
		}

		r.b[i] = w
	}

	r.maskTop()

	return r
}

// Hex renders the value as a bare hex string without a 0x prefix.
func (s *Vec) Hex() string {
	top := len(s.b) - 1

	for top > 0 && s.b[top] == 0 {
		top--
	}

	if top < 0 {
		return "0"
	}

	var b strings.Builder

	b.WriteString(strconv.FormatUint(s.b[top], 16))

	for i := top - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%016x", s.b[i])
	}

	return b.String()
}

func (s Vec) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	h := s.Hex()

	b = e.AppendTag(b, tlwire.String, len(h))
	b = append(b, h...)

	return b
}

func (s *Vec) maskTop() {
	w := words(s.width)

	for i := w; i < len(s.b); i++ {
		s.b[i] = 0
	}

	if rem := s.width % 64; rem != 0 {
		s.b[w-1] &= 1<<rem - 1
	}
}

func (s *Vec) ij(pos uint) (i int, j int) {
	return int(pos / 64), int(pos % 64)
}

func words(width uint) int {
	return int(width+63) / 64
}
