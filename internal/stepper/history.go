// Time-travel execution (§4.5, C13): run a plan step by step, capturing a
// memory snapshot, the step's event log, and its pc after every executed
// instruction, so a debugger can scrub back and forth through a run.
//
// Grounded on execution-plan-debugger/src/app.rs's
// Context{history, result, plan} shape and main.rs's
// `execute_time_travel(&mut mem, plan, session)` call, and on the
// teacher's DebugHook (internal/vm/vm.go: OnInstruction called before each
// VM instruction, can halt execution) for the instruction-boundary
// callback style this package generalizes into an unconditional snapshot
// rather than a breakpoint-only hook.
package stepper

import (
	"context"

	"kcep/internal/dispatch"
	"kcep/internal/memory"
	"kcep/internal/plan"
)

// Snapshot is the state captured after one executed instruction: a deep
// copy of memory as it stood immediately after the step, the events that
// step produced, and the pc (index into the plan) that was active.
type Snapshot struct {
	Memory *memory.Memory
	Events []plan.Event
	PC     int
}

// History is the result of a time-travel run: the ordered snapshots taken
// after each executed step, the pc of the last instruction attempted, and
// the terminal error if the run halted early. The snapshot immediately
// before a failing step is always retained (§4.5: "the snapshot prior to
// the failure is retained and the error is attached to the history").
type History struct {
	Snapshots []Snapshot
	LastPC    int
	Err       error
}

// RunTimeTravel executes program step by step against mem/stack, snapshotting
// after every step (C7 driving C13). Execution halts on the first failed
// step; the failing step's own snapshot (memory state right after the
// partial/failed mutation attempt, plus its events) is still appended so
// the caller can see exactly where things went wrong.
func RunTimeTravel(ctx context.Context, mem *memory.Memory, stack *memory.Stack, program []plan.Instruction, d *dispatch.Dispatcher) History {
	hist := History{}
	for pc, instr := range program {
		var w plan.EventWriter
		err := Step(ctx, mem, stack, instr, &w, d)
		hist.Snapshots = append(hist.Snapshots, Snapshot{
			Memory: mem.Clone(),
			Events: w.Drain(),
			PC:     pc,
		})
		hist.LastPC = pc
		if err != nil {
			hist.Err = err
			return hist
		}
	}
	return hist
}

// Run executes program to completion (or first error) without recording a
// snapshot per step, for callers that only want the final memory state and
// the flat event log — the non-time-travel convenience path (C7 alone).
func Run(ctx context.Context, mem *memory.Memory, stack *memory.Stack, program []plan.Instruction, d *dispatch.Dispatcher) ([]plan.Event, error) {
	var all []plan.Event
	for _, instr := range program {
		var w plan.EventWriter
		err := Step(ctx, mem, stack, instr, &w, d)
		all = append(all, w.Drain()...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}
