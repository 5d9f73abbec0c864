package memory

import (
	"testing"

	"kcep/internal/address"
	"kcep/internal/errors"
	"kcep/internal/primitive"
	"kcep/internal/value"
)

func TestGetSetPointOperation(t *testing.T) {
	m := New()
	if _, ok := m.Get(address.Address(5)); ok {
		t.Fatalf("expected empty slot before any write")
	}
	m.Set(address.Address(5), primitive.UIntValue(42))
	p, ok := m.Get(address.Address(5))
	if !ok || p.Num.UInt != 42 {
		t.Fatalf("expected 42 at address 5, got %+v ok=%v", p, ok)
	}
}

func TestGetRequiredMemoryEmpty(t *testing.T) {
	m := New()
	_, err := m.GetRequired(address.Address(0))
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.MemoryEmpty {
		t.Fatalf("expected MemoryEmpty, got %v", err)
	}
}

func TestMemoryGrowsByDoublingAndNeverShrinks(t *testing.T) {
	m := New()
	start := len(m.slots)
	far := start * 4
	m.Set(address.Address(far), primitive.Bool(true))
	if len(m.slots) <= start {
		t.Fatalf("expected growth, still at %d slots", len(m.slots))
	}
	if len(m.slots)&(len(m.slots)-1) != 0 {
		t.Fatalf("expected a power-of-two capacity after doubling, got %d", len(m.slots))
	}
	grown := len(m.slots)
	m.Set(address.Address(0), primitive.Bool(false))
	if len(m.slots) < grown {
		t.Fatalf("memory shrank from %d to %d", grown, len(m.slots))
	}
}

func TestMemoryMonotonicity(t *testing.T) {
	m := New()
	m.Set(address.Address(3), primitive.IntValue(7))
	m.Set(address.Address(9), primitive.IntValue(1))
	p, ok := m.Get(address.Address(3))
	if !ok || p.Num.Int != 7 {
		t.Fatalf("address 3 should still read 7 after an unrelated later write, got %+v", p)
	}
}

func TestGetSliceFailsOnInteriorEmptySlot(t *testing.T) {
	m := New()
	m.Set(address.Address(0), primitive.UIntValue(1))
	m.Set(address.Address(2), primitive.UIntValue(3))
	_, err := m.GetSlice(address.Address(0), 3)
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.MemoryEmpty {
		t.Fatalf("expected MemoryEmpty for the gap at address 1, got %v", err)
	}
}

func TestNextEmptyCell(t *testing.T) {
	m := New()
	m.Set(address.Address(0), primitive.Bool(true))
	m.Set(address.Address(1), primitive.Bool(true))
	if got := m.NextEmptyCell(); got != address.Address(2) {
		t.Fatalf("expected next empty cell 2, got %d", got)
	}
}

func TestSetCompositeGetComposite(t *testing.T) {
	m := New()
	n := SetComposite[sliceU64](m, address.Address(10), sliceU64{1, 2, 3})
	if n != 4 { // length prefix + 3 elements
		t.Fatalf("expected 4 addresses written, got %d", n)
	}
	got, err := GetComposite(m, address.Address(10), decodeSliceU64)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("round-trip mismatch: got %v", got)
	}
}

// sliceU64 is a minimal Value wrapper used only to exercise
// SetComposite/GetComposite against the shared value.Slice codecs.
type sliceU64 []uint64

func (s sliceU64) IntoParts() []primitive.Primitive {
	return value.EncodeSlice([]uint64(s), value.EncodeUint)
}

func decodeSliceU64(it *value.Iter) (sliceU64, int, error) {
	vs, n, err := value.DecodeSlice(it, value.DecodeUint)
	return sliceU64(vs), n, err
}

func TestStackPushPopRoundTrip(t *testing.T) {
	s := NewStack()
	frame := Frame{primitive.UIntValue(1), primitive.UIntValue(2)}
	s.Push(frame)
	got, err := s.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected frame of 2, got %d", len(got))
	}
	if _, err := s.Pop(); err == nil {
		t.Fatalf("expected StackEmpty popping an empty stack")
	}
}

func TestStackPopSingleArity(t *testing.T) {
	s := NewStack()
	s.Push(Frame{primitive.UIntValue(1)})
	p, err := s.PopSingle()
	if err != nil {
		t.Fatal(err)
	}
	if p.Num.UInt != 1 {
		t.Fatalf("expected 1, got %+v", p)
	}

	s.Push(Frame{primitive.UIntValue(1), primitive.UIntValue(2)})
	_, err = s.PopSingle()
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.StackFrameWrongArity {
		t.Fatalf("expected StackFrameWrongArity, got %v", err)
	}
}

func TestStackExtendErrorsWhenEmpty(t *testing.T) {
	s := NewStack()
	err := s.Extend([]primitive.Primitive{primitive.Bool(true)})
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.StackEmpty {
		t.Fatalf("expected StackEmpty, got %v", err)
	}

	s.Push(Frame{primitive.UIntValue(1)})
	if err := s.Extend([]primitive.Primitive{primitive.UIntValue(2)}); err != nil {
		t.Fatal(err)
	}
	top, _ := s.Peek()
	if len(top) != 2 {
		t.Fatalf("expected extended frame of 2, got %d", len(top))
	}
}

func TestStaticInitializerAssignsSequentialAddresses(t *testing.T) {
	m := New()
	init := NewStaticInitializer(m)
	a1 := Push[sliceU64](init, sliceU64{1})
	a2 := Push[sliceU64](init, sliceU64{2, 3})
	if a2 <= a1 {
		t.Fatalf("expected a2 (%d) after a1 (%d)", a2, a1)
	}
	mem := init.Finish()
	got, err := GetComposite(mem, a2, decodeSliceU64)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("round-trip at a2 mismatch: got %v", got)
	}
}
