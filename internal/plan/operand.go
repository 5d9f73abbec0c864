package plan

import (
	"kcep/internal/address"
	"kcep/internal/memory"
	"kcep/internal/primitive"
)

// OperandKind discriminates Operand's variants (§3: "Operand is one of:
// literal primitive; reference (memory address); stack-pop").
type OperandKind int

const (
	OperandLiteral OperandKind = iota
	OperandReference
	OperandStackPop
)

// Operand names where an instruction reads one primitive value from.
type Operand struct {
	Kind    OperandKind
	Literal primitive.Primitive
	Address address.Address
}

func LiteralOperand(p primitive.Primitive) Operand {
	return Operand{Kind: OperandLiteral, Literal: p}
}

func ReferenceOperand(a address.Address) Operand {
	return Operand{Kind: OperandReference, Address: a}
}

func StackPopOperand() Operand {
	return Operand{Kind: OperandStackPop}
}

// Eval resolves the operand to a concrete primitive, per §4.4's
// Operand::eval: Literal clones the stored value, Reference reads memory
// (failing with MemoryEmpty if unset), StackPop pops exactly one primitive
// off the stack (failing with StackFrameWrongArity if the top frame
// doesn't hold exactly one).
func (o Operand) Eval(mem *memory.Memory, stack *memory.Stack) (primitive.Primitive, error) {
	switch o.Kind {
	case OperandLiteral:
		return o.Literal, nil
	case OperandReference:
		return mem.GetRequired(o.Address)
	case OperandStackPop:
		return stack.PopSingle()
	default:
		return primitive.Primitive{}, nil
	}
}
