// Package plan implements KCEP's instruction sum type, its Operand/
// Destination descriptors, and the per-step event log, grounded on
// original_source/execution-plan/src/instruction.rs's Instruction enum
// (the superset sketch, per spec's Open Question) and generalized from a
// Rust enum match to a Go tagged struct the way the teacher's
// internal/bytecode/opcodes.go generalizes an opcode byte into a constant
// set the VM switches on.
package plan

import (
	"github.com/google/uuid"

	"kcep/internal/address"
	"kcep/internal/arith"
	"kcep/internal/primitive"
)

// Kind discriminates Instruction's variants.
type Kind int

const (
	KindApiRequest Kind = iota
	KindSetPrimitive
	KindSetValue
	KindSetList
	KindAddrOfMember
	KindBinaryArithmetic
	KindUnaryArithmetic
	KindStackPush
	KindStackPop
	KindCopy
	KindCopyLen
)

func (k Kind) String() string {
	switch k {
	case KindApiRequest:
		return "ApiRequest"
	case KindSetPrimitive:
		return "SetPrimitive"
	case KindSetValue:
		return "SetValue"
	case KindSetList:
		return "SetList"
	case KindAddrOfMember:
		return "AddrOfMember"
	case KindBinaryArithmetic:
		return "BinaryArithmetic"
	case KindUnaryArithmetic:
		return "UnaryArithmetic"
	case KindStackPush:
		return "StackPush"
	case KindStackPop:
		return "StackPop"
	case KindCopy:
		return "Copy"
	case KindCopyLen:
		return "CopyLen"
	default:
		return "Unknown"
	}
}

// LocatorKind discriminates an InMemory argument locator (§6: "Address,
// StackPop, or StackPeek").
type LocatorKind int

const (
	LocatorAddress LocatorKind = iota
	LocatorStackPop
	LocatorStackPeek
)

// InMemory names where an ApiRequest argument's primitives come from.
type InMemory struct {
	Kind    LocatorKind
	Address address.Address
}

func AddressLocator(a address.Address) InMemory { return InMemory{Kind: LocatorAddress, Address: a} }
func StackPopLocator() InMemory                 { return InMemory{Kind: LocatorStackPop} }
func StackPeekLocator() InMemory                { return InMemory{Kind: LocatorStackPeek} }

// RangeKind discriminates whether a Copy/CopyLen endpoint names a memory
// range or a stack range.
type RangeKind int

const (
	RangeMemory RangeKind = iota
	RangeStack
)

// Range is one endpoint of a Copy/CopyLen instruction. Len is only
// meaningful for CopyLen, which (unlike Copy) carries its length on each
// endpoint rather than once on the instruction, per spec.md's Open
// Question about the two divergent Instruction sketches.
type Range struct {
	Kind  RangeKind
	Start address.Address
	Len   int
}

func MemoryRange(start address.Address) Range { return Range{Kind: RangeMemory, Start: start} }

func MemoryRangeLen(start address.Address, length int) Range {
	return Range{Kind: RangeMemory, Start: start, Len: length}
}

func StackRangeLen(length int) Range { return Range{Kind: RangeStack, Len: length} }
func StackRange() Range              { return Range{Kind: RangeStack} }

// Instruction is the tagged union of every operation a plan can contain.
// Only the fields relevant to Kind are populated, mirroring the teacher's
// EnhancedCallFrame/ScopeFrame style of one struct carrying every variant's
// payload behind a discriminant rather than a Go interface-per-variant
// (which would force type assertions at every call site instead of a
// single switch).
type Instruction struct {
	Kind Kind

	// ApiRequest
	Endpoint      string
	StoreResponse *address.Address
	Arguments     []InMemory
	CmdID         uuid.UUID

	// SetPrimitive
	Addr  address.Address
	Value primitive.Primitive

	// SetValue
	Parts []primitive.Primitive

	// SetList
	Start    address.Address
	Elements [][]primitive.Primitive

	// AddrOfMember
	Member Operand

	// BinaryArithmetic / UnaryArithmetic
	BinaryOp arith.BinaryOp
	UnaryOp  arith.UnaryOp
	Operand0 Operand
	Operand1 Operand
	Operand  Operand
	Dst      Destination

	// StackPush
	Data []primitive.Primitive

	// StackPop
	PopDst *address.Address

	// Copy
	Src    Range
	Len    int
	CopyTo Range

	// CopyLen
	SrcRange Range
	DstRange Range
}

func NewSetPrimitive(addr address.Address, v primitive.Primitive) Instruction {
	return Instruction{Kind: KindSetPrimitive, Addr: addr, Value: v}
}

func NewSetValue(addr address.Address, parts []primitive.Primitive) Instruction {
	return Instruction{Kind: KindSetValue, Addr: addr, Parts: parts}
}

func NewSetList(start address.Address, elements [][]primitive.Primitive) Instruction {
	return Instruction{Kind: KindSetList, Start: start, Elements: elements}
}

func NewAddrOfMember(start address.Address, member Operand) Instruction {
	return Instruction{Kind: KindAddrOfMember, Start: start, Member: member}
}

func NewBinaryArithmetic(op arith.BinaryOp, op0, op1 Operand, dst Destination) Instruction {
	return Instruction{Kind: KindBinaryArithmetic, BinaryOp: op, Operand0: op0, Operand1: op1, Dst: dst}
}

func NewUnaryArithmetic(op arith.UnaryOp, operand Operand, dst Destination) Instruction {
	return Instruction{Kind: KindUnaryArithmetic, UnaryOp: op, Operand: operand, Dst: dst}
}

func NewStackPush(data []primitive.Primitive) Instruction {
	return Instruction{Kind: KindStackPush, Data: data}
}

func NewStackPop(dst *address.Address) Instruction {
	return Instruction{Kind: KindStackPop, PopDst: dst}
}

func NewCopy(src Range, length int, dst Range) Instruction {
	return Instruction{Kind: KindCopy, Src: src, Len: length, CopyTo: dst}
}

func NewCopyLen(srcRange, dstRange Range) Instruction {
	return Instruction{Kind: KindCopyLen, SrcRange: srcRange, DstRange: dstRange}
}

func NewApiRequest(endpoint string, storeResponse *address.Address, args []InMemory, cmdID uuid.UUID) Instruction {
	return Instruction{Kind: KindApiRequest, Endpoint: endpoint, StoreResponse: storeResponse, Arguments: args, CmdID: cmdID}
}
