package plan

import (
	"kcep/internal/address"
	"kcep/internal/memory"
	"kcep/internal/primitive"
)

// DestinationKind discriminates Destination's variants (§3: "Destination is
// one of: memory address; stack-push; stack-extend").
type DestinationKind int

const (
	DestinationAddress DestinationKind = iota
	DestinationStackPush
	DestinationStackExtend
)

// Destination names where an instruction writes its one-primitive result.
type Destination struct {
	Kind    DestinationKind
	Address address.Address
}

func AddressDestination(a address.Address) Destination {
	return Destination{Kind: DestinationAddress, Address: a}
}

func StackPushDestination() Destination {
	return Destination{Kind: DestinationStackPush}
}

func StackExtendDestination() Destination {
	return Destination{Kind: DestinationStackExtend}
}

// Store writes p to the destination: a single memory slot, a new
// single-primitive stack frame, or an append to the top stack frame
// (StackExtend's resolved "append to top frame, error if empty"
// semantics).
func (d Destination) Store(mem *memory.Memory, stack *memory.Stack, p primitive.Primitive) error {
	switch d.Kind {
	case DestinationAddress:
		mem.Set(d.Address, p)
		return nil
	case DestinationStackPush:
		stack.Push(memory.Frame{p})
		return nil
	case DestinationStackExtend:
		return stack.Extend([]primitive.Primitive{p})
	default:
		return nil
	}
}
