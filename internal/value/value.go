// Package value implements the Value flattening contract (§3/§4.2): every
// compound type that lives in KCEP memory knows how to flatten itself to an
// ordered sequence of Primitives and how to reconstruct itself from such a
// sequence.
//
// Go has no derive macros, so unlike the original's
// execution-plan-macros/src/derive_from_memory.rs this package centralizes
// the *container* impls (Option, slice-of, set-of) as generic helpers and
// leaves each concrete struct to write its own field list once — the same
// division of labor the teacher keeps between internal/bytecode/chunk.go
// (shared machinery) and each opcode's handling in internal/vm/vm.go.
package value

import (
	"kcep/internal/errors"
	"kcep/internal/primitive"
)

// Value is any type that can flatten itself into a contiguous run of
// primitives.
type Value interface {
	IntoParts() []primitive.Primitive
}

// Slot is one element of the memory-backed iterator decoders read from:
// Present is false for an empty memory cell (Rust's `Option<Primitive>` of
// None), which decoders treat identically to running out of elements.
type Slot struct {
	Primitive primitive.Primitive
	Present   bool
}

// Iter is the cursor Decoder functions consume. It is anchored at a
// contiguous prefix of the caller's slots (the "locality" invariant).
type Iter struct {
	slots []Slot
	pos   int
}

// NewIter wraps a slice of slots for decoding.
func NewIter(slots []Slot) *Iter {
	return &Iter{slots: slots}
}

// Next returns the next slot and whether the iterator had one available.
func (it *Iter) Next() (Slot, bool) {
	if it.pos >= len(it.slots) {
		return Slot{}, false
	}
	s := it.slots[it.pos]
	it.pos++
	return s, true
}

// Consumed reports how many slots have been read so far.
func (it *Iter) Consumed() int {
	return it.pos
}

// next fetches exactly one present primitive, or WrongSize — the shared
// first step of every Decode* helper below (mirrors
// `values.next().flatten().ok_or(MemoryError::MemoryWrongSize)` in the
// original).
func next(it *Iter) (primitive.Primitive, error) {
	slot, ok := it.Next()
	if !ok || !slot.Present {
		return primitive.Primitive{}, errors.NewWrongSize()
	}
	return slot.Primitive, nil
}

// Decoder reads one T from the iterator, returning how many slots it
// consumed (the locality count) alongside the value.
type Decoder[T any] func(it *Iter) (T, int, error)

// Encoder flattens one T to primitives.
type Encoder[T any] func(v T) []primitive.Primitive

// --- primitive-ish leaf decoders/encoders ---

func EncodePrimitive(p primitive.Primitive) []primitive.Primitive { return []primitive.Primitive{p} }

func DecodePrimitive(it *Iter) (primitive.Primitive, int, error) {
	p, err := next(it)
	if err != nil {
		return primitive.Primitive{}, 0, err
	}
	return p, 1, nil
}

func EncodeString(s string) []primitive.Primitive { return []primitive.Primitive{primitive.String(s)} }

func DecodeString(it *Iter) (string, int, error) {
	p, err := next(it)
	if err != nil {
		return "", 0, err
	}
	s, err := p.AsString()
	return s, 1, err
}

func EncodeBool(b bool) []primitive.Primitive { return []primitive.Primitive{primitive.Bool(b)} }

func DecodeBool(it *Iter) (bool, int, error) {
	p, err := next(it)
	if err != nil {
		return false, 0, err
	}
	b, err := p.AsBool()
	return b, 1, err
}

func EncodeFloat64(f float64) []primitive.Primitive { return []primitive.Primitive{primitive.FloatValue(f)} }

func DecodeFloat64(it *Iter) (float64, int, error) {
	p, err := next(it)
	if err != nil {
		return 0, 0, err
	}
	f, err := p.AsFloat()
	return f, 1, err
}

func EncodeUint(u uint64) []primitive.Primitive { return []primitive.Primitive{primitive.UIntValue(u)} }

func DecodeUint(it *Iter) (uint64, int, error) {
	p, err := next(it)
	if err != nil {
		return 0, 0, err
	}
	u, err := p.AsUintExact()
	return u, 1, err
}

func EncodeInt64(i int64) []primitive.Primitive { return []primitive.Primitive{primitive.IntValue(i)} }

func DecodeInt64(it *Iter) (int64, int, error) {
	p, err := next(it)
	if err != nil {
		return 0, 0, err
	}
	i, err := p.AsInt()
	return i, 1, err
}

func EncodeBytes(b []byte) []primitive.Primitive { return []primitive.Primitive{primitive.BytesValue(b)} }

func DecodeBytes(it *Iter) ([]byte, int, error) {
	p, err := next(it)
	if err != nil {
		return nil, 0, err
	}
	b, err := p.AsBytes()
	return b, 1, err
}

// --- container impls: tagged Option, length-prefixed slice, set-as-slice, pointer-transparent Box ---

const (
	optionNone = "None"
	optionSome = "Some"
)

// EncodeOption serializes Option<T> as a leading "Some"/"None" tag followed
// by the fields of T, per §3's tagged-sum rule applied to Option.
func EncodeOption[T any](v *T, encode Encoder[T]) []primitive.Primitive {
	if v == nil {
		return []primitive.Primitive{primitive.String(optionNone)}
	}
	parts := make([]primitive.Primitive, 0, 1+4)
	parts = append(parts, primitive.String(optionSome))
	parts = append(parts, encode(*v)...)
	return parts
}

func DecodeOption[T any](it *Iter, decode Decoder[T]) (*T, int, error) {
	p, err := next(it)
	if err != nil {
		return nil, 0, err
	}
	tag, err := p.AsString()
	if err != nil {
		return nil, 0, err
	}
	switch tag {
	case optionNone:
		return nil, 1, nil
	case optionSome:
		val, n, err := decode(it)
		if err != nil {
			return nil, 0, err
		}
		return &val, n + 1, nil
	default:
		return nil, 0, errors.NewInvalidEnumVariant("option", tag, []string{optionNone, optionSome})
	}
}

// EncodeSlice lays out a length primitive followed by the concatenation of
// each element's parts.
func EncodeSlice[T any](vs []T, encode Encoder[T]) []primitive.Primitive {
	parts := make([]primitive.Primitive, 0, len(vs)+1)
	parts = append(parts, primitive.UIntValue(uint64(len(vs))))
	for _, v := range vs {
		parts = append(parts, encode(v)...)
	}
	return parts
}

func DecodeSlice[T any](it *Iter, decode Decoder[T]) ([]T, int, error) {
	p, err := next(it)
	if err != nil {
		return nil, 0, err
	}
	n, err := p.AsUintExact()
	if err != nil {
		return nil, 0, err
	}
	count := 1
	out := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		v, c, err := decode(it)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
		count += c
	}
	return out, count, nil
}

// EncodeSet uses the same layout as a slice; set-ness is a read-side
// construction detail, not a wire-format difference (§3: "the set
// constructor is responsible for re-establishing uniqueness on read").
func EncodeSet[T comparable](vs map[T]struct{}, encode Encoder[T]) []primitive.Primitive {
	list := make([]T, 0, len(vs))
	for v := range vs {
		list = append(list, v)
	}
	return EncodeSlice(list, encode)
}

func DecodeSet[T comparable](it *Iter, decode Decoder[T]) (map[T]struct{}, int, error) {
	list, n, err := DecodeSlice(it, decode)
	if err != nil {
		return nil, 0, err
	}
	out := make(map[T]struct{}, len(list))
	for _, v := range list {
		out[v] = struct{}{}
	}
	return out, n, nil
}

// EncodeBox serializes a boxed T identically to an unboxed T (§3:
// "pointer-transparent boxing") — unlike Option, there is no tag primitive.
func EncodeBox[T any](v T, encode Encoder[T]) []primitive.Primitive {
	return encode(v)
}

func DecodeBox[T any](it *Iter, decode Decoder[T]) (*T, int, error) {
	val, n, err := decode(it)
	if err != nil {
		return nil, 0, err
	}
	return &val, n, nil
}
