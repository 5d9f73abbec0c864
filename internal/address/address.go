// Package address implements KCEP's memory address arithmetic.
package address

import "fmt"

// Address is a non-negative index into KCEP program memory.
type Address int

// Zero is the first memory address, and the canonical initial allocation
// cursor for a memory.StaticInitializer.
const Zero Address = 0

// Offset returns the address moved forward by n.
func (a Address) Offset(n int) Address {
	return a + Address(n)
}

// Sub returns the distance between two addresses.
func (a Address) Sub(b Address) int {
	return int(a - b)
}

func (a Address) String() string {
	return fmt.Sprintf("%d", int(a))
}

// Cursor is a mutable allocation pointer over memory addresses.
//
// Allocate is the post-increment analogue of the original's
// Address::allocate: it returns the address range [old, old+n) and advances
// the cursor past it.
type Cursor struct {
	next Address
}

// NewCursor returns a cursor starting at address zero.
func NewCursor() *Cursor {
	return &Cursor{next: Zero}
}

// Allocate reserves n addresses and returns an iterator over them, advancing
// the cursor by n.
func (c *Cursor) Allocate(n int) *Iterator {
	start := c.next
	c.next += Address(n)
	return &Iterator{pos: start, end: c.next}
}

// Peek returns the address the next Allocate call would start at, without
// advancing the cursor.
func (c *Cursor) Peek() Address {
	return c.next
}

// Iterator walks a contiguous range of addresses [start, start+n).
type Iterator struct {
	pos Address
	end Address
}

// NewIterator builds an iterator over [start, start+n).
func NewIterator(start Address, n int) *Iterator {
	return &Iterator{pos: start, end: start + Address(n)}
}

// Next returns the next address in the range, and whether one was available.
func (it *Iterator) Next() (Address, bool) {
	if it.pos >= it.end {
		return 0, false
	}
	a := it.pos
	it.pos++
	return a, true
}

// Remaining reports how many addresses the iterator has left to yield.
func (it *Iterator) Remaining() int {
	if it.end <= it.pos {
		return 0
	}
	return int(it.end - it.pos)
}
