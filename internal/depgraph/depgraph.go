// Package depgraph implements the instruction dependency analyzer (C12): a
// static data-flow pass over a plan that maps each instruction to the
// earlier instructions that produced the memory addresses it reads.
//
// Grounded on the teacher's internal/build/linker.go ModuleGraph/ModuleNode
// (a dependency graph keyed by import path, with a Dependencies list per
// node and a topological-sort pass), generalized from module import edges
// to memory-address def/use edges between plan instructions. Where the
// teacher's graph answers "which modules must compile before this one",
// this graph answers "which earlier instructions must have run before
// this one's reads are valid" — the same last-writer-wins dependency shape,
// applied to addresses instead of import paths.
package depgraph

import (
	"kcep/internal/address"
	"kcep/internal/plan"
)

// Node is one instruction's position in the dependency graph: its plan
// index, the indices of the instructions that produced the addresses it
// reads, and whether it is itself an ApiRequest (the only instruction kind
// the batch dispatcher cares about grouping).
type Node struct {
	PC         int
	Producers  []int
	ApiRequest bool
}

// Graph is the dependency graph for one plan: one Node per instruction, in
// plan order.
type Graph struct {
	Nodes []Node
}

// Analyze builds the dependency graph for program: a single forward pass
// tracking, per address, the most recent instruction that wrote it (the
// "last writer"), and recording each instruction's producers as the
// deduplicated last-writers of every address it reads.
func Analyze(program []plan.Instruction) Graph {
	lastWriter := make(map[address.Address]int)
	g := Graph{Nodes: make([]Node, len(program))}

	for pc, instr := range program {
		node := Node{PC: pc, ApiRequest: instr.Kind == plan.KindApiRequest}

		seen := make(map[int]bool)
		for _, a := range readsOf(instr) {
			if w, ok := lastWriter[a]; ok && !seen[w] {
				node.Producers = append(node.Producers, w)
				seen[w] = true
			}
		}
		g.Nodes[pc] = node

		for _, a := range writesOf(instr) {
			lastWriter[a] = pc
		}
	}
	return g
}

// DependsOn reports whether instruction b (by plan index) is a transitive
// producer of instruction a, i.e. whether a must run after b.
func (g Graph) DependsOn(a, b int) bool {
	visited := make(map[int]bool)
	var walk func(pc int) bool
	walk = func(pc int) bool {
		if visited[pc] {
			return false
		}
		visited[pc] = true
		for _, p := range g.Nodes[pc].Producers {
			if p == b || walk(p) {
				return true
			}
		}
		return false
	}
	return walk(a)
}

// IndependentApiRequestRuns partitions the plan's ApiRequest instructions
// into maximal runs of contiguous indices that carry no dependency edges
// between them — candidate groups the batch dispatcher (C10) can safely
// submit as a single transport batch, since none of them needs another's
// response before it can be built. Non-ApiRequest instructions break a run.
func (g Graph) IndependentApiRequestRuns() [][]int {
	var runs [][]int
	var current []int

	flush := func() {
		if len(current) > 0 {
			runs = append(runs, current)
			current = nil
		}
	}

	for _, n := range g.Nodes {
		if !n.ApiRequest {
			flush()
			continue
		}
		independent := true
		for _, member := range current {
			if g.DependsOn(n.PC, member) || g.DependsOn(member, n.PC) {
				independent = false
				break
			}
		}
		if independent {
			current = append(current, n.PC)
		} else {
			flush()
			current = []int{n.PC}
		}
	}
	flush()
	return runs
}

func readsOf(instr plan.Instruction) []address.Address {
	var out []address.Address
	addOperand := func(o plan.Operand) {
		if o.Kind == plan.OperandReference {
			out = append(out, o.Address)
		}
	}

	switch instr.Kind {
	case plan.KindApiRequest:
		for _, a := range instr.Arguments {
			if a.Kind == plan.LocatorAddress {
				out = append(out, a.Address)
			}
		}
	case plan.KindAddrOfMember:
		out = append(out, instr.Start)
		addOperand(instr.Member)
	case plan.KindBinaryArithmetic:
		addOperand(instr.Operand0)
		addOperand(instr.Operand1)
	case plan.KindUnaryArithmetic:
		addOperand(instr.Operand)
	case plan.KindCopy:
		if instr.Src.Kind == plan.RangeMemory {
			out = append(out, rangeOf(instr.Src, instr.Len)...)
		}
	case plan.KindCopyLen:
		if instr.SrcRange.Kind == plan.RangeMemory {
			out = append(out, rangeOf(instr.SrcRange, instr.SrcRange.Len)...)
		}
	}
	return out
}

func writesOf(instr plan.Instruction) []address.Address {
	switch instr.Kind {
	case plan.KindApiRequest:
		if instr.StoreResponse != nil {
			// The response's length is not known statically; only its
			// leading address is recorded, as for StackPop below.
			return []address.Address{*instr.StoreResponse}
		}
	case plan.KindSetPrimitive:
		return []address.Address{instr.Addr}
	case plan.KindSetValue:
		return rangeOf(plan.MemoryRange(instr.Addr), len(instr.Parts))
	case plan.KindSetList:
		// The header, then one size word plus the body per element.
		n := 1
		for _, el := range instr.Elements {
			n += 1 + len(el)
		}
		return rangeOf(plan.MemoryRange(instr.Start), n)
	case plan.KindBinaryArithmetic:
		if instr.Dst.Kind == plan.DestinationAddress {
			return []address.Address{instr.Dst.Address}
		}
	case plan.KindUnaryArithmetic:
		if instr.Dst.Kind == plan.DestinationAddress {
			return []address.Address{instr.Dst.Address}
		}
	case plan.KindStackPop:
		if instr.PopDst != nil {
			// Arity unknown statically (depends on the popped frame's
			// runtime length); the pc is recorded as the last writer of
			// its destination's leading address, which covers the common
			// one-primitive case exactly and is a safe (if imprecise)
			// over-approximation for wider frames.
			return []address.Address{*instr.PopDst}
		}
	case plan.KindCopy:
		if instr.CopyTo.Kind == plan.RangeMemory {
			return rangeOf(instr.CopyTo, instr.Len)
		}
	case plan.KindCopyLen:
		if instr.DstRange.Kind == plan.RangeMemory {
			return rangeOf(instr.DstRange, instr.DstRange.Len)
		}
	}
	return nil
}

func rangeOf(r plan.Range, length int) []address.Address {
	out := make([]address.Address, length)
	for i := 0; i < length; i++ {
		out[i] = r.Start.Offset(i)
	}
	return out
}
