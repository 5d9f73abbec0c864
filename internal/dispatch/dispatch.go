// Package dispatch implements the single-request (C9) and batch (C10)
// remote-command dispatchers of §4.6: build a typed command from
// memory-resident arguments via internal/endpoint, send it through the
// session actor, and write any response back into memory.
//
// Grounded on original_source/execution-plan/src/api_request.rs's
// ApiRequest::execute (single) and execute_batch functions, translated
// from async/await + a HashMap correlating cmd_id to the request for
// store_response lookup into the same shape in Go.
package dispatch

import (
	"context"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"kcep/internal/endpoint"
	"kcep/internal/errors"
	"kcep/internal/memory"
	"kcep/internal/plan"
)

// Sender is the subset of *session.Session the dispatcher needs. Declaring
// it here (rather than importing *session.Session directly) keeps this
// package testable against a fake without pulling in a real websocket.
type Sender interface {
	SendModelingCmd(ctx context.Context, cmd interface{}, cmdID uuid.UUID) error
	SendModelingBatch(ctx context.Context, reqs map[uuid.UUID]interface{}, batchID uuid.UUID) error
	GetResponse(ctx context.Context, cmdID uuid.UUID) (Response, error)
}

// Response is the slice of session.WebSocketResponse the dispatcher reads:
// the raw modeling_response payload to decode via endpoint.DecodeWireResponse.
type Response struct {
	Data []byte
}

// Dispatcher owns the session used to issue remote commands. A nil
// Dispatcher (or one built over a nil Sender) reports NoApiClient, per
// §7's "ApiRequest encountered without a session".
type Dispatcher struct {
	sender Sender
}

// New wraps sender for dispatch. sender may be nil, meaning no session is
// attached (a plan with no ApiRequest instructions can still run).
func New(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Single builds, sends, and awaits one ApiRequest instruction (C9), then
// stores its response into memory if instr.StoreResponse is set (§4.6
// steps 1-4).
func (d *Dispatcher) Single(ctx context.Context, instr plan.Instruction, mem *memory.Memory, stack *memory.Stack) error {
	if d == nil || d.sender == nil {
		return errors.NewNoAPIClient()
	}
	cmd, err := endpoint.Build(instr.Endpoint, instr.Arguments, mem, stack)
	if err != nil {
		return pkgerrors.Wrapf(err, "dispatch: building %s request", instr.Endpoint)
	}
	if err := d.sender.SendModelingCmd(ctx, cmd, instr.CmdID); err != nil {
		return pkgerrors.Wrapf(err, "dispatch: sending %s", instr.Endpoint)
	}
	resp, err := d.sender.GetResponse(ctx, instr.CmdID)
	if err != nil {
		return err
	}
	return storeResponse(mem, instr, resp.Data)
}

// Status is one command's outcome within a batch, since §4.6's batch
// dispatch "MUST surface each command's status separately" even though the
// batch itself is sent as a single transport message.
type Status struct {
	CmdID uuid.UUID
	Err   error
}

// Batch assembles every instr into a single transport batch (C10), awaits
// each command's response individually by cmd_id (responses "need not
// arrive in order", §4.6), and stores each into memory as it arrives. It
// returns one Status per instruction, submission order, regardless of the
// order responses actually arrived in.
func (d *Dispatcher) Batch(ctx context.Context, instrs []plan.Instruction, mem *memory.Memory, stack *memory.Stack) ([]Status, error) {
	if d == nil || d.sender == nil {
		return nil, errors.NewNoAPIClient()
	}
	if len(instrs) == 0 {
		return nil, nil
	}

	reqs := make(map[uuid.UUID]interface{}, len(instrs))
	for _, instr := range instrs {
		cmd, err := endpoint.Build(instr.Endpoint, instr.Arguments, mem, stack)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "dispatch: building %s request for batch", instr.Endpoint)
		}
		reqs[instr.CmdID] = cmd
	}

	batchID := uuid.New()
	if err := d.sender.SendModelingBatch(ctx, reqs, batchID); err != nil {
		return nil, pkgerrors.Wrap(err, "dispatch: sending batch")
	}

	// Responses "need not arrive in order" (spec §4.6), so every
	// GetResponse is awaited concurrently — each goroutine only reads the
	// session's reply channel, writes its own slot of results, and reports
	// its index on arrived, never touching mem/stack. store_response writes
	// are applied back on this goroutine in the order indices come off
	// arrived (response-arrival order), preserving the single-writer
	// memory model §5 requires.
	results := make([]dispatchResult, len(instrs))
	arrived := make(chan int, len(instrs))
	g, gctx := errgroup.WithContext(ctx)
	for i, instr := range instrs {
		i, instr := i, instr
		g.Go(func() error {
			resp, err := d.sender.GetResponse(gctx, instr.CmdID)
			results[i] = dispatchResult{resp: resp, err: err}
			arrived <- i
			return nil
		})
	}

	statuses := make([]Status, len(instrs))
	for range instrs {
		i := <-arrived
		instr := instrs[i]
		if results[i].err != nil {
			statuses[i] = Status{CmdID: instr.CmdID, Err: results[i].err}
			continue
		}
		statuses[i] = Status{CmdID: instr.CmdID, Err: storeResponse(mem, instr, results[i].resp.Data)}
	}
	_ = g.Wait() // per-command errors are surfaced via Status, not joined here
	return statuses, nil
}

type dispatchResult struct {
	resp Response
	err  error
}

func storeResponse(mem *memory.Memory, instr plan.Instruction, raw []byte) error {
	if instr.StoreResponse == nil {
		return nil
	}
	resp, err := endpoint.DecodeWireResponse(instr.Endpoint, raw)
	if err != nil {
		return err
	}
	memory.SetComposite[endpoint.Response](mem, *instr.StoreResponse, resp)
	return nil
}
