// Package memory implements KCEP's flat addressable memory and its LIFO
// stack of primitive frames (§4.3).
package memory

import (
	"github.com/dustin/go-humanize"

	"kcep/internal/address"
	"kcep/internal/errors"
	"kcep/internal/primitive"
	"kcep/internal/value"
)

// initialSize is the slot count a fresh Memory starts with, mirroring the
// teacher's stack manager starting small and growing on demand rather than
// pre-allocating a worst case.
const initialSize = 256

// Memory is a flat, append-only sequence of optional primitive slots. It
// never shrinks and never reclaims: per §4.3, set/get are point operations
// and growth only ever doubles capacity.
type Memory struct {
	slots []value.Slot

	// GrowthLog, if set, receives a human-readable note each time the
	// backing array doubles. Nil by default (no-op).
	GrowthLog func(msg string)
}

// New returns an empty Memory with its initial backing capacity.
func New() *Memory {
	return &Memory{slots: make([]value.Slot, initialSize)}
}

// ensure grows the backing slice by repeated doubling until addr is
// addressable, per §4.3's "grows memory by repeatedly doubling until
// addr < capacity" rule. Intervening new slots are left empty.
func (m *Memory) ensure(addr int) {
	if addr < len(m.slots) {
		return
	}
	before := len(m.slots)
	newSize := len(m.slots)
	if newSize == 0 {
		newSize = initialSize
	}
	for addr >= newSize {
		newSize *= 2
	}
	grown := make([]value.Slot, newSize)
	copy(grown, m.slots)
	m.slots = grown
	if m.GrowthLog != nil {
		m.GrowthLog(humanize.Comma(int64(before)) + " -> " + humanize.Comma(int64(newSize)) + " slots")
	}
}

// Get returns the slot at addr and whether it was present. It never grows
// memory or errors; an out-of-range address simply reads as empty.
func (m *Memory) Get(addr address.Address) (primitive.Primitive, bool) {
	i := int(addr)
	if i < 0 || i >= len(m.slots) || !m.slots[i].Present {
		return primitive.Primitive{}, false
	}
	return m.slots[i].Primitive, true
}

// GetRequired is Get, but classifies an empty or out-of-range slot as
// MemoryEmpty per §7.
func (m *Memory) GetRequired(addr address.Address) (primitive.Primitive, error) {
	p, ok := m.Get(addr)
	if !ok {
		return primitive.Primitive{}, errors.NewMemoryEmpty(int(addr))
	}
	return p, nil
}

// Set writes a single primitive at addr, growing memory first if needed.
func (m *Memory) Set(addr address.Address, p primitive.Primitive) {
	m.ensure(int(addr))
	m.slots[int(addr)] = value.Slot{Primitive: p, Present: true}
}

// GetSlice reads n consecutive primitives starting at start, failing with
// MemoryEmpty at the first empty slot it encounters.
func (m *Memory) GetSlice(start address.Address, n int) ([]primitive.Primitive, error) {
	out := make([]primitive.Primitive, n)
	for i := 0; i < n; i++ {
		p, err := m.GetRequired(start.Offset(i))
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// Clone returns an independent snapshot of memory's current contents, the
// deep copy the time-travel driver takes after every executed step (§4.5).
// A plain slice copy suffices: Primitives are replaced wholesale by Set,
// never mutated in place, so the clone can never observe a write made to
// the original after this call.
func (m *Memory) Clone() *Memory {
	slots := make([]value.Slot, len(m.slots))
	copy(slots, m.slots)
	return &Memory{slots: slots, GrowthLog: m.GrowthLog}
}

// NextEmptyCell scans forward from address zero and returns the first
// address with no slot set, the helper static plan initializers use to
// lay out constants without tracking a cursor by hand.
func (m *Memory) NextEmptyCell() address.Address {
	for i, s := range m.slots {
		if !s.Present {
			return address.Address(i)
		}
	}
	return address.Address(len(m.slots))
}

// iterFrom builds a value.Iter reading forward from start, used by
// GetComposite. It never grows memory: reads past the allocated
// region surface as absent slots (value.next folds that into WrongSize),
// exactly like running out of elements.
func (m *Memory) iterFrom(start address.Address) *value.Iter {
	i := int(start)
	if i >= len(m.slots) {
		return value.NewIter(nil)
	}
	return value.NewIter(m.slots[i:])
}

// SetComposite flattens v and writes its parts starting at start, returning
// the number of addresses written (§4.3: set_composite).
func SetComposite[T value.Value](m *Memory, start address.Address, v T) int {
	parts := v.IntoParts()
	for i, p := range parts {
		m.Set(start.Offset(i), p)
	}
	return len(parts)
}

// GetComposite decodes a T anchored at start using decode, the dual of
// SetComposite (§4.3: get_composite).
func GetComposite[T any](m *Memory, start address.Address, decode value.Decoder[T]) (T, error) {
	it := m.iterFrom(start)
	v, _, err := decode(it)
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Frame is an ordered sequence of primitives pushed or popped as a unit.
type Frame []primitive.Primitive

// Stack is the LIFO of frames the stepper pushes/pops for StackPush,
// StackPop, StackExtend and pop_single (§4.3). It is entirely independent
// of the address space it shares a Memory with.
type Stack struct {
	frames []Frame
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push adds frame to the top of the stack.
func (s *Stack) Push(frame Frame) {
	s.frames = append(s.frames, frame)
}

// Pop removes and returns the top frame, failing with StackEmpty if none.
func (s *Stack) Pop() (Frame, error) {
	if len(s.frames) == 0 {
		return nil, errors.NewStackEmpty()
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, nil
}

// Peek returns the top frame without removing it, failing with StackEmpty
// if none.
func (s *Stack) Peek() (Frame, error) {
	if len(s.frames) == 0 {
		return nil, errors.NewStackEmpty()
	}
	return s.frames[len(s.frames)-1], nil
}

// Extend appends parts to the top frame, failing with StackEmpty if the
// stack has no frame to extend (spec's resolved semantics for the
// optional StackExtend instruction).
func (s *Stack) Extend(parts []primitive.Primitive) error {
	if len(s.frames) == 0 {
		return errors.NewStackEmpty()
	}
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], parts...)
	return nil
}

// PopSingle pops the top frame and requires it to carry exactly one
// primitive, failing with StackFrameWrongArity otherwise.
func (s *Stack) PopSingle() (primitive.Primitive, error) {
	frame, err := s.Pop()
	if err != nil {
		return primitive.Primitive{}, err
	}
	if len(frame) != 1 {
		return primitive.Primitive{}, errors.NewStackFrameWrongArity()
	}
	return frame[0], nil
}

// StaticInitializer lays out constant values in fresh memory ahead of a
// run, handing back the addresses they landed at — the analogue of the
// original's StaticMemoryInitializer used to seed literals a plan
// references by address.
type StaticInitializer struct {
	mem    *Memory
	cursor *address.Cursor
}

// NewStaticInitializer builds an initializer writing into mem starting at
// address zero.
func NewStaticInitializer(mem *Memory) *StaticInitializer {
	return &StaticInitializer{mem: mem, cursor: address.NewCursor()}
}

// Push flattens v, writes it at the next free address, and returns where
// it landed.
func Push[T value.Value](s *StaticInitializer, v T) address.Address {
	parts := v.IntoParts()
	start := s.cursor.Peek()
	it := s.cursor.Allocate(len(parts))
	for i := range parts {
		a, _ := it.Next()
		s.mem.Set(a, parts[i])
	}
	return start
}

// Finish returns the initialized memory.
func (s *StaticInitializer) Finish() *Memory {
	return s.mem
}
