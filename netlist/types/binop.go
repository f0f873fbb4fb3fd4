package types

import (
	"fmt"

	"github.com/zshell31/ferrum-hls/netlist/constval"
)

// BinOp is a two-operand combinational operator. Operands always have
// equal widths. Comparisons produce a single bit, everything else keeps
// the operand width.
type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Rem
	BitAnd
	BitOr
	BitXor
	And
	Or
	Sll
	Slr
	Sra
	Eq
	Ne
	Ge
	Gt
	Le
	Lt
)

func (op BinOp) IsCmp() bool {
	switch op {
	case Eq, Ne, Ge, Gt, Le, Lt:
		return true
	default:
		return false
	}
}

// IsShift ops are the only ones taking a right operand narrower or
// wider than the left one.
func (op BinOp) IsShift() bool {
	switch op {
	case Sll, Slr, Sra:
		return true
	default:
		return false
	}
}

func (op BinOp) ResultWidth(in uint) uint {
	if op.IsCmp() {
		return 1
	}

	return in
}

// Eval folds the operator over two constants of equal width.
// Arithmetic panics if the untruncated result does not fit 128 bits.
func (op BinOp) Eval(l, r constval.Val) constval.Val {
	switch op {
	case Add:
		return l.Add(r)
	case Sub:
		return l.Sub(r)
	case Mul:
		return l.Mul(r)
	case Div:
		return l.Div(r)
	case Rem:
		return l.Rem(r)
	case BitAnd, And:
		return l.And(r)
	case BitOr, Or:
		return l.Or(r)
	case BitXor:
		return l.Xor(r)
	case Sll:
		return l.Shl(shiftAmount(r))
	case Slr:
		return l.Shr(shiftAmount(r))
	case Sra:
		return l.Sra(shiftAmount(r))
	case Eq:
		return constval.FromBool(l.Equal(r))
	case Ne:
		return constval.FromBool(!l.Equal(r))
	case Ge:
		return constval.FromBool(l.Cmp(r) >= 0)
	case Gt:
		return constval.FromBool(l.Cmp(r) > 0)
	case Le:
		return constval.FromBool(l.Cmp(r) <= 0)
	case Lt:
		return constval.FromBool(l.Cmp(r) < 0)
	default:
		panic(fmt.Sprintf("unsupported op: %v", op))
	}
}

func shiftAmount(r constval.Val) uint {
	v := r.Val()

	if v.Hi != 0 || v.Lo > constval.MaxWidth {
		return constval.MaxWidth
	}

	return uint(v.Lo)
}

func (op BinOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Rem:
		return "%"
	case BitAnd:
		return "&"
	case BitOr:
		return "|"
	case BitXor:
		return "^"
	case And:
		return "&&"
	case Or:
		return "||"
	case Sll:
		return "<<"
	case Slr:
		return ">>"
	case Sra:
		return ">>>"
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Ge:
		return ">="
	case Gt:
		return ">"
	case Le:
		return "<="
	case Lt:
		return "<"
	default:
		return fmt.Sprintf("op%d", int(op))
	}
}
