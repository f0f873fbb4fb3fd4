package types

import (
	"fmt"

	"lukechampine.com/uint128"
	"tlog.app/go/loc"

	"github.com/zshell31/ferrum-hls/netlist/bitvec"
	"github.com/zshell31/ferrum-hls/netlist/constval"
)

type (
	TyKind uint8

	// NodeTy is the primitive type of a single node output.
	NodeTy struct {
		Kind TyKind
		N    uint
	}
)

const (
	KindBit TyKind = iota
	KindClock
	KindUnsigned
	KindBitVec
)

var (
	Bit   = NodeTy{Kind: KindBit}
	Clock = NodeTy{Kind: KindClock}
)

func Unsigned(n uint) NodeTy { return NodeTy{Kind: KindUnsigned, N: n} }

func BitVec(n uint) NodeTy { return NodeTy{Kind: KindBitVec, N: n} }

func (t NodeTy) Width() uint {
	switch t.Kind {
	case KindBit, KindClock:
		return 1
	default:
		return t.N
	}
}

func (t NodeTy) String() string {
	switch t.Kind {
	case KindBit:
		return "bit"
	case KindClock:
		return "clock"
	case KindUnsigned:
		return fmt.Sprintf("u%d", t.N)
	case KindBitVec:
		return fmt.Sprintf("bv%d", t.N)
	default:
		return fmt.Sprintf("ty%d", t.Kind)
	}
}

type (
	// Signal is the shape of a front-end value: a primitive or a
	// composite built from primitives. Composites flatten into a
	// contiguous bit vector, first element at the most significant end.
	Signal interface {
		Width() uint
	}

	Prim struct {
		Ty NodeTy
	}

	Array struct {
		N    uint
		Elem Signal
	}

	Group struct {
		Items []Named
	}

	Named struct {
		Name string
		Sig  Signal
	}
)

func (s Prim) Width() uint { return s.Ty.Width() }

func (s Array) Width() uint { return s.N * s.Elem.Width() }

func (s Group) Width() (w uint) {
	for _, it := range s.Items {
		w += it.Sig.Width()
	}

	return w
}

// Pack flattens a shaped value into a bit vector.
// The value mirrors the signal: constval.Val for a Prim,
// []interface{} of element values for an Array or a Group.
func Pack(sig Signal, val interface{}) bitvec.Vec {
	switch sig := sig.(type) {
	case Prim:
		v, ok := val.(constval.Val)
		assertf(ok, "prim %v: expected constval.Val, got %T", sig.Ty, val)
		assertf(v.Width() == sig.Ty.Width(), "prim %v: width mismatch: %v", sig.Ty, v.Width())

		x := v.Val()

		return bitvec.FromWords(v.Width(), x.Lo, x.Hi)
	case Array:
		vals, ok := val.([]interface{})
		assertf(ok, "array: expected []interface{}, got %T", val)
		assertf(uint(len(vals)) == sig.N, "array: expected %v elements, got %v", sig.N, len(vals))

		r := bitvec.Make(0)

		for _, el := range vals {
			chunk := Pack(sig.Elem, el)
			r = r.ShiftIn(chunk)
		}

		return r
	case Group:
		vals, ok := val.([]interface{})
		assertf(ok, "group: expected []interface{}, got %T", val)
		assertf(len(vals) == len(sig.Items), "group: expected %v items, got %v", len(sig.Items), len(vals))

		r := bitvec.Make(0)

		for i, el := range vals {
			chunk := Pack(sig.Items[i].Sig, el)
			r = r.ShiftIn(chunk)
		}

		return r
	default:
		panic(fmt.Sprintf("unsupported signal: %T", sig))
	}
}

// Unpack rebuilds a shaped value from a bit vector produced by Pack.
func Unpack(sig Signal, b bitvec.Vec) interface{} {
	assertf(b.Width() == sig.Width(), "width mismatch: %v != %v", b.Width(), sig.Width())

	switch sig := sig.(type) {
	case Prim:
		w := b.Words()

		var lo, hi uint64

		if len(w) > 0 {
			lo = w[0]
		}
		if len(w) > 1 {
			hi = w[1]
		}

		return constval.New(uint128.New(lo, hi), b.Width())
	case Array:
		vals := make([]interface{}, sig.N)

		rem := b.Width()
		ew := sig.Elem.Width()

		for i := range vals {
			rem -= ew
			chunk := b.Slice(rem, ew)
			vals[i] = Unpack(sig.Elem, chunk)
		}

		return vals
	case Group:
		vals := make([]interface{}, len(sig.Items))

		rem := b.Width()

		for i, it := range sig.Items {
			w := it.Sig.Width()
			rem -= w
			chunk := b.Slice(rem, w)
			vals[i] = Unpack(it.Sig, chunk)
		}

		return vals
	default:
		panic(fmt.Sprintf("unsupported signal: %T", sig))
	}
}

func assertf(ok bool, f string, args ...interface{}) {
	if ok {
		return
	}

	_, file, line := loc.Caller(1).NameFileLine()

	panic(fmt.Sprintf(f+" (%v:%v)", append(args, file, line)...))
}
