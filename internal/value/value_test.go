package value

import (
	"testing"

	"kcep/internal/errors"
	"kcep/internal/primitive"
)

// slotsFromParts wraps flattened primitives as present slots, the
// round-trip harness every test in this file shares.
func slotsFromParts(parts []primitive.Primitive) []Slot {
	slots := make([]Slot, len(parts))
	for i, p := range parts {
		slots[i] = Slot{Primitive: p, Present: true}
	}
	return slots
}

func TestSumExampleRoundTrip(t *testing.T) {
	two := uint64(2)
	cases := []SumExample{
		NewSumA(3),
		NewSumB(ptr(uint64(3))),
		NewSumB(nil),
		NewSumC(4, "hello"),
		NewSumD(),
		NewSumE(two),
	}
	for _, v := range cases {
		parts := v.IntoParts()
		it := NewIter(slotsFromParts(parts))
		got, n, err := DecodeSumExample(it)
		if err != nil {
			t.Fatalf("decode %+v: %v", v, err)
		}
		if n != len(parts) {
			t.Fatalf("locality violated: encoded %d parts, decoded consumed %d", len(parts), n)
		}
		if it.Consumed() != len(parts) {
			t.Fatalf("iterator consumed %d, want %d", it.Consumed(), len(parts))
		}
		assertSumEqual(t, v, got)
	}
}

func ptr[T any](v T) *T { return &v }

func assertSumEqual(t *testing.T, want, got SumExample) {
	t.Helper()
	if want.Kind != got.Kind {
		t.Fatalf("kind mismatch: want %s got %s", want.Kind, got.Kind)
	}
	switch want.Kind {
	case SumA:
		if want.AX != got.AX {
			t.Fatalf("A.x mismatch: want %d got %d", want.AX, got.AX)
		}
	case SumB:
		if (want.BY == nil) != (got.BY == nil) {
			t.Fatalf("B.y presence mismatch")
		}
		if want.BY != nil && *want.BY != *got.BY {
			t.Fatalf("B.y mismatch: want %d got %d", *want.BY, *got.BY)
		}
	case SumC:
		if want.CX != got.CX || want.CY != got.CY {
			t.Fatalf("C mismatch: want (%d,%s) got (%d,%s)", want.CX, want.CY, got.CX, got.CY)
		}
	case SumE:
		if *want.EVal != *got.EVal {
			t.Fatalf("E mismatch: want %d got %d", *want.EVal, *got.EVal)
		}
	}
}

func TestDecodeSumExampleInvalidVariant(t *testing.T) {
	it := NewIter(slotsFromParts([]primitive.Primitive{primitive.String("NotAVariant")}))
	_, _, err := DecodeSumExample(it)
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.InvalidEnumVariant {
		t.Fatalf("expected InvalidEnumVariant, got %v", err)
	}
}

func TestDecodeMissingElementIsWrongSize(t *testing.T) {
	it := NewIter(nil)
	_, _, err := DecodeUint(it)
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.WrongSize {
		t.Fatalf("expected WrongSize, got %v", err)
	}

	// An empty memory cell (Present: false) is indistinguishable from
	// running out of elements.
	it2 := NewIter([]Slot{{Present: false}})
	_, _, err = DecodeUint(it2)
	kerr, ok = err.(*errors.Error)
	if !ok || kerr.Kind != errors.WrongSize {
		t.Fatalf("expected WrongSize for empty cell, got %v", err)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	in := []uint64{10, 20, 30}
	parts := EncodeSlice(in, EncodeUint)
	it := NewIter(slotsFromParts(parts))
	out, n, err := DecodeSlice(it, DecodeUint)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(parts) {
		t.Fatalf("locality violated: want %d got %d", len(parts), n)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: want %d got %d", len(in), len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("element %d mismatch: want %d got %d", i, in[i], out[i])
		}
	}
}

func TestSetRoundTrip(t *testing.T) {
	in := map[string]struct{}{"a": {}, "b": {}}
	parts := EncodeSet(in, EncodeString)
	it := NewIter(slotsFromParts(parts))
	out, _, err := DecodeSet(it, DecodeString)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("set size mismatch: want %d got %d", len(in), len(out))
	}
}

func TestSetDecodeReestablishesUniqueness(t *testing.T) {
	// The wire layout is just a sequence; a duplicated element collapses
	// when the set constructor re-reads it.
	parts := EncodeSlice([]string{"a", "b", "a"}, EncodeString)
	out, n, err := DecodeSet(NewIter(slotsFromParts(parts)), DecodeString)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(parts) {
		t.Fatalf("locality violated: want %d got %d", len(parts), n)
	}
	if len(out) != 2 {
		t.Fatalf("expected duplicates collapsed to 2 elements, got %d", len(out))
	}
}

func TestOptionEncodedLength(t *testing.T) {
	none := EncodeOption[uint64](nil, EncodeUint)
	if len(none) != 1 {
		t.Fatalf("None should serialize to exactly 1 primitive, got %d", len(none))
	}
	v := uint64(42)
	some := EncodeOption(&v, EncodeUint)
	if len(some) != 2 {
		t.Fatalf("Some(u64) should serialize to exactly 2 primitives, got %d", len(some))
	}
}

func TestBoxIsTransparent(t *testing.T) {
	boxed := EncodeBox(uint64(7), EncodeUint)
	unboxed := EncodeUint(7)
	if len(boxed) != len(unboxed) {
		t.Fatalf("boxed encoding should match unboxed encoding exactly")
	}
	for i := range boxed {
		if !primitive.Equal(boxed[i], unboxed[i]) {
			t.Fatalf("boxed[%d] != unboxed[%d]", i, i)
		}
	}
}
