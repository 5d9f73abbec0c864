// Package arith implements KCEP's binary/unary arithmetic evaluator: the
// numeric coercion policy of §4.1 plus the operator semantics of §4.4,
// grounded on original_source/execution-plan/src/arithmetic.rs's
// arithmetic_body! macro (translated from a generic-over-std::ops::Trait
// macro to an explicit switch, since Go has no equivalent generic
// operator dispatch).
package arith

import (
	"math"

	"kcep/internal/errors"
	"kcep/internal/primitive"
)

// BinaryOp names a two-operand arithmetic operation.
type BinaryOp string

const (
	Add BinaryOp = "Add"
	Sub BinaryOp = "Sub"
	Mul BinaryOp = "Mul"
	Div BinaryOp = "Div"
	Mod BinaryOp = "Mod"
	Pow BinaryOp = "Pow"
)

// UnaryOp names a one-operand arithmetic operation.
type UnaryOp string

const (
	Not UnaryOp = "Not"
	Neg UnaryOp = "Neg"
)

// EvalUnary applies op to v, per §4.4: Not requires a bool, Neg requires a
// signed integer or float.
func EvalUnary(op UnaryOp, v primitive.Primitive) (primitive.Primitive, error) {
	switch op {
	case Not:
		b, err := v.AsBool()
		if err != nil {
			return primitive.Primitive{}, errors.NewCannotApplyOperation(string(op), []string{v.Kind.String()})
		}
		return primitive.Bool(!b), nil
	case Neg:
		n, err := v.AsNumeric()
		if err != nil {
			return primitive.Primitive{}, errors.NewCannotApplyOperation(string(op), []string{v.Kind.String()})
		}
		switch n.Kind {
		case primitive.NumInt:
			return primitive.IntValue(-n.Int), nil
		case primitive.NumFloat:
			return primitive.FloatValue(-n.Float), nil
		default:
			return primitive.Primitive{}, errors.NewCannotApplyOperation(string(op), []string{v.Kind.String()})
		}
	default:
		return primitive.Primitive{}, errors.NewCannotApplyOperation(string(op), []string{v.Kind.String()})
	}
}

// EvalBinary applies op to l and r under the numeric coercion policy in
// §4.1: (UInt,Int) widens to Int; (UInt|Int,Float) reinterprets the integer
// as a float64; same-kind pairs stay in that kind. Non-numeric operands of
// either side produce CannotApplyOperation.
func EvalBinary(op BinaryOp, l, r primitive.Primitive) (primitive.Primitive, error) {
	ln, err := l.AsNumeric()
	if err != nil {
		return primitive.Primitive{}, cannotApply(op, l, r)
	}
	rn, err := r.AsNumeric()
	if err != nil {
		return primitive.Primitive{}, cannotApply(op, l, r)
	}

	switch {
	case ln.Kind == primitive.NumUInt && rn.Kind == primitive.NumUInt:
		return applyUint(op, ln.UInt, rn.UInt)
	case ln.Kind == primitive.NumInt && rn.Kind == primitive.NumInt:
		return applyInt(op, ln.Int, rn.Int)
	case ln.Kind == primitive.NumFloat && rn.Kind == primitive.NumFloat:
		return applyFloat(op, ln.Float, rn.Float)
	case ln.Kind == primitive.NumUInt && rn.Kind == primitive.NumInt:
		return applyInt(op, int64(ln.UInt), rn.Int)
	case ln.Kind == primitive.NumInt && rn.Kind == primitive.NumUInt:
		return applyInt(op, ln.Int, int64(rn.UInt))
	default:
		// Any pairing involving a Float coerces both sides to float64.
		return applyFloat(op, ln.AsFloat64(), rn.AsFloat64())
	}
}

func cannotApply(op BinaryOp, l, r primitive.Primitive) error {
	return errors.NewCannotApplyOperation(string(op), []string{l.Kind.String(), r.Kind.String()})
}

func applyUint(op BinaryOp, x, y uint64) (primitive.Primitive, error) {
	switch op {
	case Add:
		return primitive.UIntValue(x + y), nil
	case Sub:
		return primitive.UIntValue(x - y), nil
	case Mul:
		return primitive.UIntValue(x * y), nil
	case Div:
		if y == 0 {
			return primitive.Primitive{}, errors.NewDivisionByZero(string(op))
		}
		return primitive.UIntValue(x / y), nil
	case Mod:
		if y == 0 {
			return primitive.Primitive{}, errors.NewDivisionByZero(string(op))
		}
		return primitive.UIntValue(x % y), nil
	case Pow:
		return primitive.UIntValue(overflowingPowUint(x, uint32(y))), nil
	default:
		return primitive.Primitive{}, errors.NewCannotApplyOperation(string(op), nil)
	}
}

func applyInt(op BinaryOp, x, y int64) (primitive.Primitive, error) {
	switch op {
	case Add:
		return primitive.IntValue(x + y), nil
	case Sub:
		return primitive.IntValue(x - y), nil
	case Mul:
		return primitive.IntValue(x * y), nil
	case Div:
		if y == 0 {
			return primitive.Primitive{}, errors.NewDivisionByZero(string(op))
		}
		return primitive.IntValue(x / y), nil
	case Mod:
		if y == 0 {
			return primitive.Primitive{}, errors.NewDivisionByZero(string(op))
		}
		return primitive.IntValue(x % y), nil
	case Pow:
		return primitive.IntValue(overflowingPowInt(x, uint32(y))), nil
	default:
		return primitive.Primitive{}, errors.NewCannotApplyOperation(string(op), nil)
	}
}

func applyFloat(op BinaryOp, x, y float64) (primitive.Primitive, error) {
	switch op {
	case Add:
		return primitive.FloatValue(x + y), nil
	case Sub:
		return primitive.FloatValue(x - y), nil
	case Mul:
		return primitive.FloatValue(x * y), nil
	case Div:
		return primitive.FloatValue(x / y), nil
	case Mod:
		return primitive.FloatValue(math.Mod(x, y)), nil
	case Pow:
		return primitive.FloatValue(math.Pow(x, y)), nil
	default:
		return primitive.Primitive{}, errors.NewCannotApplyOperation(string(op), nil)
	}
}

// overflowingPowUint mirrors Rust's usize::overflowing_pow: it silently
// wraps on overflow rather than panicking (§4.1: "Pow uses overflowing
// semantics and silently wraps").
func overflowingPowUint(base uint64, exp uint32) uint64 {
	result := uint64(1)
	for i := uint32(0); i < exp; i++ {
		result *= base
	}
	return result
}

func overflowingPowInt(base int64, exp uint32) int64 {
	result := int64(1)
	for i := uint32(0); i < exp; i++ {
		result *= base
	}
	return result
}
