package value

import (
	"kcep/internal/errors"
	"kcep/internal/primitive"
)

// SumKind discriminates SumExample's variants.
type SumKind string

const (
	SumA SumKind = "A"
	SumB SumKind = "B"
	SumC SumKind = "C"
	SumD SumKind = "D"
	SumE SumKind = "E"
)

var sumExampleVariants = []string{string(SumA), string(SumB), string(SumC), string(SumD), string(SumE)}

// SumExample exercises the tagged-sum contract from §3/§8 scenario 7: a sum
// type with a struct variant, an Option-bearing variant, a tuple variant, a
// unit variant, and a boxed variant. It exists purely to keep the contract
// machinery centrally tested, the same role
// execution-plan-macros/tests/main.rs plays for the original's derive macro.
type SumExample struct {
	Kind SumKind
	AX   uint64  // A{x}
	BY   *uint64 // B{y: Option<uint>}
	CX   uint64  // C(uint, string)
	CY   string
	EVal *uint64 // E(Box<uint>)
}

func NewSumA(x uint64) SumExample           { return SumExample{Kind: SumA, AX: x} }
func NewSumB(y *uint64) SumExample          { return SumExample{Kind: SumB, BY: y} }
func NewSumC(x uint64, y string) SumExample { return SumExample{Kind: SumC, CX: x, CY: y} }
func NewSumD() SumExample                   { return SumExample{Kind: SumD} }
func NewSumE(v uint64) SumExample           { return SumExample{Kind: SumE, EVal: &v} }

// IntoParts flattens the leading variant tag followed by that variant's
// fields in declaration order, per §3's "tagged sums" rule.
func (s SumExample) IntoParts() []primitive.Primitive {
	parts := []primitive.Primitive{primitive.String(string(s.Kind))}
	switch s.Kind {
	case SumA:
		parts = append(parts, EncodeUint(s.AX)...)
	case SumB:
		parts = append(parts, EncodeOption(s.BY, EncodeUint)...)
	case SumC:
		parts = append(parts, EncodeUint(s.CX)...)
		parts = append(parts, EncodeString(s.CY)...)
	case SumD:
		// unit variant: no fields
	case SumE:
		parts = append(parts, EncodeBox(*s.EVal, EncodeUint)...)
	}
	return parts
}

// DecodeSumExample reconstructs a SumExample, re-instantiating fields in the
// same declaration order they were serialized in.
func DecodeSumExample(it *Iter) (SumExample, int, error) {
	p, err := next(it)
	if err != nil {
		return SumExample{}, 0, err
	}
	tag, err := p.AsString()
	if err != nil {
		return SumExample{}, 0, err
	}
	count := 1
	switch SumKind(tag) {
	case SumA:
		x, n, err := DecodeUint(it)
		if err != nil {
			return SumExample{}, 0, err
		}
		return NewSumA(x), count + n, nil
	case SumB:
		y, n, err := DecodeOption(it, DecodeUint)
		if err != nil {
			return SumExample{}, 0, err
		}
		return NewSumB(y), count + n, nil
	case SumC:
		x, n1, err := DecodeUint(it)
		if err != nil {
			return SumExample{}, 0, err
		}
		y, n2, err := DecodeString(it)
		if err != nil {
			return SumExample{}, 0, err
		}
		return NewSumC(x, y), count + n1 + n2, nil
	case SumD:
		return NewSumD(), count, nil
	case SumE:
		v, n, err := DecodeBox(it, DecodeUint)
		if err != nil {
			return SumExample{}, 0, err
		}
		return SumExample{Kind: SumE, EVal: v}, count + n, nil
	default:
		return SumExample{}, 0, errors.NewInvalidEnumVariant("SumExample", tag, sumExampleVariants)
	}
}
