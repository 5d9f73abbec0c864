// Package stepper implements the instruction stepper (C7) of §4.4: it
// executes one plan.Instruction at a time against memory and the stack,
// evaluating arithmetic, walking list/object members, and handing
// ApiRequest instructions to a dispatcher. Grounded on the teacher's
// internal/vm/vm.go run loop (a big switch over an opcode, mutating a
// frame's stack/locals and calling out to module bindings for anything
// that leaves the VM) generalized from a bytecode switch to a switch over
// plan.Kind, and on original_source/execution-plan/src/lib.rs's `execute`
// function for the per-variant semantics themselves.
package stepper

import (
	"context"

	"kcep/internal/address"
	"kcep/internal/arith"
	"kcep/internal/dispatch"
	"kcep/internal/errors"
	"kcep/internal/memory"
	"kcep/internal/plan"
	"kcep/internal/primitive"
)

// Step executes one instruction against mem/stack, emitting events into w
// and dispatching any ApiRequest through d (which may be nil if the plan
// never reaches one — a nil Dispatcher's Single/Batch report NoApiClient).
//
// Per §4.4: every step records a Debug "before" marker, mutates state,
// and emits at least one Info event describing the effect before
// returning (or an Error event on failure, per §4.5/§7).
func Step(ctx context.Context, mem *memory.Memory, stack *memory.Stack, instr plan.Instruction, w *plan.EventWriter, d *dispatch.Dispatcher) error {
	w.Push(plan.NewEvent("executing "+instr.Kind.String(), plan.SeverityDebug))

	err := step(ctx, mem, stack, instr, w, d)
	if err != nil {
		w.Push(plan.NewEvent(instr.Kind.String()+" failed: "+err.Error(), plan.SeverityError))
	}
	return err
}

func step(ctx context.Context, mem *memory.Memory, stack *memory.Stack, instr plan.Instruction, w *plan.EventWriter, d *dispatch.Dispatcher) error {
	switch instr.Kind {
	case plan.KindApiRequest:
		w.Push(plan.NewEvent("sending request to "+instr.Endpoint, plan.SeverityInfo))
		if err := d.Single(ctx, instr, mem, stack); err != nil {
			return err
		}
		if instr.StoreResponse != nil {
			w.Push(plan.NewEvent("stored response", plan.SeverityInfo).WithAddress(*instr.StoreResponse))
		}
		return nil

	case plan.KindSetPrimitive:
		mem.Set(instr.Addr, instr.Value)
		w.Push(plan.NewEvent("set primitive", plan.SeverityInfo).WithAddress(instr.Addr))
		return nil

	case plan.KindSetValue:
		for i, p := range instr.Parts {
			mem.Set(instr.Addr.Offset(i), p)
		}
		w.Push(plan.NewEvent("set value", plan.SeverityInfo).WithAddress(instr.Addr))
		return nil

	case plan.KindSetList:
		setList(mem, instr.Start, instr.Elements)
		w.Push(plan.NewEvent("set list", plan.SeverityInfo).WithAddress(instr.Start))
		return nil

	case plan.KindAddrOfMember:
		addr, err := addrOfMember(mem, instr.Start, instr.Member, stack)
		if err != nil {
			return err
		}
		stack.Push(memory.Frame{primitive.UIntValue(uint64(addr))})
		w.Push(plan.NewEvent("pushed member address", plan.SeverityInfo).WithAddress(addr))
		return nil

	case plan.KindBinaryArithmetic:
		l, err := instr.Operand0.Eval(mem, stack)
		if err != nil {
			return err
		}
		r, err := instr.Operand1.Eval(mem, stack)
		if err != nil {
			return err
		}
		out, err := arith.EvalBinary(instr.BinaryOp, l, r)
		if err != nil {
			return err
		}
		if err := instr.Dst.Store(mem, stack, out); err != nil {
			return err
		}
		w.Push(plan.NewEvent("binary arithmetic "+string(instr.BinaryOp), plan.SeverityInfo))
		return nil

	case plan.KindUnaryArithmetic:
		v, err := instr.Operand.Eval(mem, stack)
		if err != nil {
			return err
		}
		out, err := arith.EvalUnary(instr.UnaryOp, v)
		if err != nil {
			return err
		}
		if err := instr.Dst.Store(mem, stack, out); err != nil {
			return err
		}
		w.Push(plan.NewEvent("unary arithmetic "+string(instr.UnaryOp), plan.SeverityInfo))
		return nil

	case plan.KindStackPush:
		stack.Push(memory.Frame(instr.Data))
		w.Push(plan.NewEvent("pushed stack frame", plan.SeverityInfo))
		return nil

	case plan.KindStackPop:
		frame, err := stack.Pop()
		if err != nil {
			return err
		}
		if instr.PopDst != nil {
			for i, p := range frame {
				mem.Set(instr.PopDst.Offset(i), p)
			}
			w.Push(plan.NewEvent("popped stack frame into memory", plan.SeverityInfo).WithAddress(*instr.PopDst))
		} else {
			w.Push(plan.NewEvent("popped stack frame", plan.SeverityInfo))
		}
		return nil

	case plan.KindCopy:
		parts, err := readRange(mem, stack, instr.Src, instr.Len)
		if err != nil {
			return err
		}
		if err := writeRange(mem, stack, instr.CopyTo, parts); err != nil {
			return err
		}
		w.Push(plan.NewEvent("copied", plan.SeverityInfo))
		return nil

	case plan.KindCopyLen:
		if instr.SrcRange.Len != instr.DstRange.Len {
			return errors.NewWrongSize()
		}
		parts, err := readRange(mem, stack, instr.SrcRange, instr.SrcRange.Len)
		if err != nil {
			return err
		}
		if err := writeRange(mem, stack, instr.DstRange, parts); err != nil {
			return err
		}
		w.Push(plan.NewEvent("copied range", plan.SeverityInfo))
		return nil

	default:
		return errors.NewCannotApplyOperation(instr.Kind.String(), nil)
	}
}

// setList writes the list layout of §3: a header (count, total size),
// then for each element a leading size word followed by its primitives.
// Returns the address one past the last primitive written.
func setList(mem *memory.Memory, start address.Address, elements [][]primitive.Primitive) address.Address {
	cur := start.Offset(1)
	for _, el := range elements {
		mem.Set(cur, primitive.UIntValue(uint64(len(el))))
		cur = cur.Offset(1)
		for _, p := range el {
			mem.Set(cur, p)
			cur = cur.Offset(1)
		}
	}
	size := cur.Sub(start) - 1
	mem.Set(start, primitive.ListHeaderValue(len(elements), size))
	return cur
}

// addrOfMember resolves AddrOfMember's target address (§4.4): read the
// header at start, resolve member against it (list index or object
// property), and walk from start+1 to the member's element data, skipping
// each preceding element's leading size word and body.
func addrOfMember(mem *memory.Memory, start address.Address, member plan.Operand, stack *memory.Stack) (address.Address, error) {
	header, err := mem.GetRequired(start)
	if err != nil {
		return 0, err
	}

	var count int
	switch header.Kind {
	case primitive.KindListHeader:
		count = header.List.Count
	case primitive.KindObjectHeader:
		count = len(header.Object.Properties)
	default:
		return 0, errors.NewWrongType("list or object header", header.Kind.String())
	}

	m, err := member.Eval(mem, stack)
	if err != nil {
		return 0, err
	}

	var idx int
	switch header.Kind {
	case primitive.KindListHeader:
		u, err := m.AsUint()
		if err != nil {
			return 0, err
		}
		if int(u) >= count {
			return 0, errors.NewListIndexOutOfBounds(count, int(u))
		}
		idx = int(u)
	case primitive.KindObjectHeader:
		name, err := m.AsString()
		if err != nil {
			return 0, err
		}
		idx = -1
		for i, prop := range header.Object.Properties {
			if prop == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return 0, errors.NewUndefinedProperty(name, int(start))
		}
	}

	cur := start.Offset(1)
	for i := 0; i < idx; i++ {
		sizePrim, err := mem.GetRequired(cur)
		if err != nil {
			return 0, err
		}
		// An element's leading slot is either a bare size word or, for a
		// nested composite, a header carrying its own size.
		var size int
		switch sizePrim.Kind {
		case primitive.KindListHeader:
			size = sizePrim.List.Size
		case primitive.KindObjectHeader:
			size = sizePrim.Object.Size
		case primitive.KindNumeric:
			u, err := sizePrim.AsUint()
			if err != nil {
				return 0, err
			}
			size = int(u)
		default:
			return 0, errors.NewWrongType("list header, object header, or uint", sizePrim.Kind.String())
		}
		cur = cur.Offset(1 + size)
	}
	return cur.Offset(1), nil
}

func readRange(mem *memory.Memory, stack *memory.Stack, r plan.Range, length int) ([]primitive.Primitive, error) {
	switch r.Kind {
	case plan.RangeMemory:
		return mem.GetSlice(r.Start, length)
	case plan.RangeStack:
		frame, err := stack.Pop()
		if err != nil {
			return nil, err
		}
		if len(frame) != length {
			return nil, errors.NewWrongSize()
		}
		return []primitive.Primitive(frame), nil
	default:
		return nil, errors.NewWrongType("memory or stack range", "unknown")
	}
}

func writeRange(mem *memory.Memory, stack *memory.Stack, r plan.Range, parts []primitive.Primitive) error {
	switch r.Kind {
	case plan.RangeMemory:
		for i, p := range parts {
			mem.Set(r.Start.Offset(i), p)
		}
		return nil
	case plan.RangeStack:
		stack.Push(memory.Frame(parts))
		return nil
	default:
		return errors.NewWrongType("memory or stack range", "unknown")
	}
}
