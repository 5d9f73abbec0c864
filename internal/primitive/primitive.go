// Package primitive implements KCEP's tagged scalar union and the numeric
// coercion policy used by the arithmetic evaluator.
package primitive

import (
	"math"

	"github.com/google/uuid"

	"kcep/internal/errors"
)

// Kind discriminates the variant a Primitive holds.
type Kind int

const (
	KindNil Kind = iota
	KindString
	KindNumeric
	KindUUID
	KindBytes
	KindBool
	KindListHeader
	KindObjectHeader
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindString:
		return "string"
	case KindNumeric:
		return "numeric"
	case KindUUID:
		return "uuid"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindListHeader:
		return "list_header"
	case KindObjectHeader:
		return "object_header"
	default:
		return "unknown"
	}
}

// NumericKind discriminates the three numeric representations.
type NumericKind int

const (
	NumUInt NumericKind = iota
	NumInt
	NumFloat
)

// Numeric is the tagged union of number kinds KCEP stores in memory.
type Numeric struct {
	Kind  NumericKind
	UInt  uint64
	Int   int64
	Float float64
}

func UInt(v uint64) Numeric   { return Numeric{Kind: NumUInt, UInt: v} }
func Int(v int64) Numeric     { return Numeric{Kind: NumInt, Int: v} }
func Float(v float64) Numeric { return Numeric{Kind: NumFloat, Float: v} }

// AsFloat64 reinterprets any numeric kind as a float64, per the coercion
// policy in §4.1 (integers are never range-checked when widened to float).
func (n Numeric) AsFloat64() float64 {
	switch n.Kind {
	case NumUInt:
		return float64(n.UInt)
	case NumInt:
		return float64(n.Int)
	default:
		return n.Float
	}
}

// ListHeader is the metadata primitive at the start of a list layout (§3).
type ListHeader struct {
	Count int
	Size  int
}

// ObjectHeader is the metadata primitive at the start of an object layout.
type ObjectHeader struct {
	Properties []string
	Size       int
}

// Primitive is a tagged scalar stored in one address of KCEP memory.
type Primitive struct {
	Kind   Kind
	Str    string
	Num    Numeric
	UUID   uuid.UUID
	Bytes  []byte
	Bool   bool
	List   ListHeader
	Object ObjectHeader
}

func Nil() Primitive { return Primitive{Kind: KindNil} }

func String(s string) Primitive { return Primitive{Kind: KindString, Str: s} }

func Bool(b bool) Primitive { return Primitive{Kind: KindBool, Bool: b} }

func UUIDValue(u uuid.UUID) Primitive { return Primitive{Kind: KindUUID, UUID: u} }

func BytesValue(b []byte) Primitive { return Primitive{Kind: KindBytes, Bytes: b} }

func UIntValue(v uint64) Primitive { return Primitive{Kind: KindNumeric, Num: UInt(v)} }

func IntValue(v int64) Primitive { return Primitive{Kind: KindNumeric, Num: Int(v)} }

func FloatValue(v float64) Primitive { return Primitive{Kind: KindNumeric, Num: Float(v)} }

func ListHeaderValue(count, size int) Primitive {
	return Primitive{Kind: KindListHeader, List: ListHeader{Count: count, Size: size}}
}

func ObjectHeaderValue(props []string, size int) Primitive {
	return Primitive{Kind: KindObjectHeader, Object: ObjectHeader{Properties: props, Size: size}}
}

// wrongType builds the WrongType error this package's converters share.
func wrongType(expected string, p Primitive) *errors.Error {
	return errors.NewWrongType(expected, p.Kind.String())
}

func (p Primitive) AsString() (string, error) {
	if p.Kind != KindString {
		return "", wrongType("string", p)
	}
	return p.Str, nil
}

func (p Primitive) AsBool() (bool, error) {
	if p.Kind != KindBool {
		return false, wrongType("bool", p)
	}
	return p.Bool, nil
}

func (p Primitive) AsUUID() (uuid.UUID, error) {
	if p.Kind != KindUUID {
		return uuid.UUID{}, wrongType("uuid", p)
	}
	return p.UUID, nil
}

func (p Primitive) AsBytes() ([]byte, error) {
	if p.Kind != KindBytes {
		return nil, wrongType("bytes", p)
	}
	return p.Bytes, nil
}

func (p Primitive) AsListHeader() (ListHeader, error) {
	if p.Kind != KindListHeader {
		return ListHeader{}, wrongType("list_header", p)
	}
	return p.List, nil
}

func (p Primitive) AsObjectHeader() (ObjectHeader, error) {
	if p.Kind != KindObjectHeader {
		return ObjectHeader{}, wrongType("object_header", p)
	}
	return p.Object, nil
}

func (p Primitive) AsNumeric() (Numeric, error) {
	if p.Kind != KindNumeric {
		return Numeric{}, wrongType("numeric", p)
	}
	return p.Num, nil
}

// AsUint accepts a UInteger, or an Integer that is non-negative, failing
// with WrongType (not a separate overflow kind — spec.md folds narrowing
// overflow into WrongType) for a negative Integer or any Float.
func (p Primitive) AsUint() (uint64, error) {
	n, err := p.AsNumeric()
	if err != nil {
		return 0, err
	}
	switch n.Kind {
	case NumUInt:
		return n.UInt, nil
	case NumInt:
		if n.Int < 0 {
			return 0, errors.NewWrongType("uint", "negative int")
		}
		return uint64(n.Int), nil
	default:
		return 0, errors.NewWrongType("uint", "float")
	}
}

// AsUintExact requires the primitive to already be tagged UInteger, matching
// the original's strict `usize`/`u32` TryFrom impls (no implicit widening
// from Integer or Float).
func (p Primitive) AsUintExact() (uint64, error) {
	n, err := p.AsNumeric()
	if err != nil {
		return 0, err
	}
	if n.Kind != NumUInt {
		return 0, errors.NewWrongType("uint", "other numeric kind")
	}
	return n.UInt, nil
}

func (p Primitive) AsInt() (int64, error) {
	n, err := p.AsNumeric()
	if err != nil {
		return 0, err
	}
	if n.Kind != NumInt {
		return 0, errors.NewWrongType("int", "other numeric kind")
	}
	return n.Int, nil
}

func (p Primitive) AsFloat() (float64, error) {
	n, err := p.AsNumeric()
	if err != nil {
		return 0, err
	}
	if n.Kind != NumFloat {
		return 0, errors.NewWrongType("float", "other numeric kind")
	}
	return n.Float, nil
}

// AsU32 narrows a UInteger primitive to uint32, failing with WrongType on
// overflow, mirroring the original's checked `u32::try_from`.
func (p Primitive) AsU32() (uint32, error) {
	v, err := p.AsUintExact()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, errors.NewWrongType("u32", "overflow")
	}
	return uint32(v), nil
}

// Equal reports deep equality, used by round-trip property tests.
func Equal(a, b Primitive) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindString:
		return a.Str == b.Str
	case KindBool:
		return a.Bool == b.Bool
	case KindUUID:
		return a.UUID == b.UUID
	case KindBytes:
		if len(a.Bytes) != len(b.Bytes) {
			return false
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return false
			}
		}
		return true
	case KindListHeader:
		return a.List == b.List
	case KindObjectHeader:
		if a.Object.Size != b.Object.Size || len(a.Object.Properties) != len(b.Object.Properties) {
			return false
		}
		for i := range a.Object.Properties {
			if a.Object.Properties[i] != b.Object.Properties[i] {
				return false
			}
		}
		return true
	case KindNumeric:
		if a.Num.Kind != b.Num.Kind {
			return false
		}
		switch a.Num.Kind {
		case NumUInt:
			return a.Num.UInt == b.Num.UInt
		case NumInt:
			return a.Num.Int == b.Num.Int
		default:
			return a.Num.Float == b.Num.Float
		}
	default:
		return false
	}
}
