// Package session implements the session actor (§4.7, C11): a single
// goroutine owning one duplex connection, draining a mailbox of requests
// in FIFO order and correlating inbound frames to outstanding GetResponse
// calls by request id.
//
// Grounded on original_source/modeling-session/src/actor.rs's start()
// function (Request enum, pending response map, timeout handling) and the
// teacher's own worker idiom in internal/concurrency/concurrency.go
// (goroutines draining a buffered job channel, one owner per resource).
// Rust's
// tokio::time::Instant polling loop becomes context.Context +
// context.WithTimeout, the idiomatic Go substitute noted in SPEC_FULL.md
// §5.
package session

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"

	"kcep/internal/errors"
	"kcep/internal/wsconn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ApiError is one entry of a failure envelope's errors array.
type ApiError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// WebSocketResponse is a decoded inbound frame (§6): either a success
// envelope carrying modeling response data, or a failure envelope
// carrying errors.
type WebSocketResponse struct {
	Success   bool
	RequestID uuid.UUID
	Kind      string // resp.type, e.g. "modeling"
	Data      []byte // raw resp.data, decoded further by the caller
	Errors    []ApiError
}

type wireEnvelope struct {
	Success   bool                     `json:"success"`
	RequestID uuid.UUID                `json:"request_id"`
	Resp      *wireResp                `json:"resp,omitempty"`
	Errors    []ApiError               `json:"errors,omitempty"`
	Responses map[string]wireBatchItem `json:"responses,omitempty"`
}

type wireResp struct {
	Type string              `json:"type"`
	Data jsoniter.RawMessage `json:"data"`
}

// wireBatchItem is one per-command entry of a batch response envelope (§6:
// `{responses: {cmd_id → {response | errors}}}`).
type wireBatchItem struct {
	Response jsoniter.RawMessage `json:"response,omitempty"`
	Errors   []ApiError          `json:"errors,omitempty"`
}

// decodeWebSocketText decodes one inbound text frame into the responses it
// carries: one for a single-command envelope, one per cmd_id for a batch
// response envelope. Responses within a batch are keyed by cmd_id and need
// not arrive (or be iterated) in submission order.
func decodeWebSocketText(data []byte) ([]WebSocketResponse, error) {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewWebSocketRecv(err)
	}
	if env.Responses != nil {
		out := make([]WebSocketResponse, 0, len(env.Responses))
		for id, item := range env.Responses {
			cmdID, err := uuid.Parse(id)
			if err != nil {
				continue
			}
			out = append(out, WebSocketResponse{
				Success:   len(item.Errors) == 0,
				RequestID: cmdID,
				Kind:      "modeling",
				Data:      item.Response,
				Errors:    item.Errors,
			})
		}
		return out, nil
	}
	resp := WebSocketResponse{Success: env.Success, RequestID: env.RequestID, Errors: env.Errors}
	if env.Resp != nil {
		resp.Kind = env.Resp.Type
		resp.Data = env.Resp.Data
	}
	return []WebSocketResponse{resp}, nil
}

// cmdEnvelope is the outbound single-command wire shape (§6:
// ModelingCmdReq{cmd, cmd_id}).
type cmdEnvelope struct {
	Type  string      `json:"type"`
	Cmd   interface{} `json:"cmd"`
	CmdID uuid.UUID   `json:"cmd_id"`
}

// batchEnvelope is the outbound batch wire shape (§6:
// ModelingCmdBatchReq{requests, batch_id, responses}).
type batchEnvelope struct {
	Type      string                    `json:"type"`
	Requests  map[uuid.UUID]interface{} `json:"requests"`
	BatchID   uuid.UUID                 `json:"batch_id"`
	Responses bool                      `json:"responses"`
}

// mailbox request kinds: each carries its own reply channel, the Go
// substitute for Rust's oneshot::Sender (SPEC_FULL.md §4.7).
type sendCmdReq struct {
	envelope cmdEnvelope
	reply    chan error
}

type sendBatchReq struct {
	envelope batchEnvelope
	reply    chan error
}

type getResponseReq struct {
	cmdID uuid.UUID
	reply chan result
}

type result struct {
	resp WebSocketResponse
	err  error
}

// Session owns one duplex connection and the actor goroutine serving it.
type Session struct {
	conn           *wsconn.Conn
	mailbox        chan interface{}
	defaultTimeout time.Duration
}

// Start spawns the session actor over conn. defaultTimeout is the
// per-response deadline used when a caller's context carries none
// (default 10s per §4.7).
func Start(conn *wsconn.Conn, defaultTimeout time.Duration) *Session {
	if defaultTimeout <= 0 {
		defaultTimeout = 10 * time.Second
	}
	s := &Session{conn: conn, mailbox: make(chan interface{}, 10), defaultTimeout: defaultTimeout}
	go s.run()
	return s
}

// run is the single background task: it is the exclusive reader of both
// the mailbox and the inbound frame stream, which is what lets it
// correlate responses without any other synchronization.
func (s *Session) run() {
	pending := make(map[uuid.UUID]WebSocketResponse)
	waiting := make(map[uuid.UUID]chan result)

	inbound := s.conn.Inbound()
	for {
		select {
		case req, ok := <-s.mailbox:
			if !ok {
				return
			}
			switch r := req.(type) {
			case sendCmdReq:
				data, err := json.Marshal(r.envelope)
				if err != nil {
					r.reply <- err
					continue
				}
				r.reply <- s.conn.SendText(data)
			case sendBatchReq:
				data, err := json.Marshal(r.envelope)
				if err != nil {
					r.reply <- err
					continue
				}
				r.reply <- s.conn.SendText(data)
			case getResponseReq:
				if resp, ok := pending[r.cmdID]; ok {
					delete(pending, r.cmdID)
					r.reply <- result{resp: resp}
					continue
				}
				waiting[r.cmdID] = r.reply
			}

		case frame, ok := <-inbound:
			if !ok {
				// Connection closed: fail every outstanding waiter.
				for id, reply := range waiting {
					reply <- result{err: errors.NewWebSocketClosed()}
					delete(waiting, id)
				}
				return
			}
			if frame.Type != wsconn.Text {
				continue
			}
			resps, err := decodeWebSocketText(frame.Data)
			if err != nil {
				continue
			}
			for _, resp := range resps {
				if reply, ok := waiting[resp.RequestID]; ok {
					delete(waiting, resp.RequestID)
					reply <- result{resp: resp}
					continue
				}
				pending[resp.RequestID] = resp
			}
		}
	}
}

// SendModelingCmd enqueues a single command for transmission, acking once
// it has been written to the wire (§4.7: SendModelingCmd).
func (s *Session) SendModelingCmd(ctx context.Context, cmd interface{}, cmdID uuid.UUID) error {
	reply := make(chan error, 1)
	req := sendCmdReq{envelope: cmdEnvelope{Type: "ModelingCmdReq", Cmd: cmd, CmdID: cmdID}, reply: reply}
	select {
	case s.mailbox <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendModelingBatch enqueues a batch of commands for transmission (§4.7:
// SendModelingBatch).
func (s *Session) SendModelingBatch(ctx context.Context, reqs map[uuid.UUID]interface{}, batchID uuid.UUID) error {
	reply := make(chan error, 1)
	req := sendBatchReq{envelope: batchEnvelope{Type: "ModelingCmdBatchReq", Requests: reqs, BatchID: batchID, Responses: true}, reply: reply}
	select {
	case s.mailbox <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetResponse awaits the response for cmdID, first checking the pending
// map, then blocking on the inbound stream until a match arrives, the
// connection closes, or ctx's deadline elapses (§4.7: GetResponse).
//
// Per §5's cancellation note, a timed-out or canceled call does not tell
// the actor to stop waiting: the actor keeps draining the matching frame
// when it eventually arrives and simply discards it, since nothing is
// listening on reply anymore.
func (s *Session) GetResponse(ctx context.Context, cmdID uuid.UUID) (WebSocketResponse, error) {
	reply := make(chan result, 1)
	req := getResponseReq{cmdID: cmdID, reply: reply}

	timeout := s.defaultTimeout
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case s.mailbox <- req:
	case <-ctx.Done():
		return WebSocketResponse{}, timeoutOrCancel(ctx, cmdID, timeout)
	}

	select {
	case res := <-reply:
		if res.err != nil {
			return WebSocketResponse{}, pkgerrors.Wrapf(res.err, "session: awaiting response for %s", cmdID)
		}
		if !res.resp.Success {
			return WebSocketResponse{}, errors.NewModelingAPIFailure(cmdID.String(), apiErrorStrings(res.resp.Errors))
		}
		if res.resp.Kind != "modeling" {
			return WebSocketResponse{}, errors.NewServerSentWrongType()
		}
		return res.resp, nil
	case <-ctx.Done():
		return WebSocketResponse{}, timeoutOrCancel(ctx, cmdID, timeout)
	}
}

// timeoutOrCancel classifies a done context as a deadline-exceeded
// TimeOutWaitingForResponse, tagging the wrapped message with the human
// scale of the deadline that elapsed (e.g. "10 seconds") rather than a raw
// duration value, and otherwise passes through the caller's own
// cancellation.
func timeoutOrCancel(ctx context.Context, cmdID uuid.UUID, timeout time.Duration) error {
	if ctx.Err() == context.DeadlineExceeded {
		return pkgerrors.Wrapf(errors.NewTimeout(), "session: no response for %s after %s", cmdID, humanize.RelTime(time.Now().Add(-timeout), time.Now(), "", ""))
	}
	return ctx.Err()
}

func apiErrorStrings(errs []ApiError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code + ": " + e.Message
	}
	return out
}

// RunCommand is a combined send-then-await convenience for a single
// request: send the command, then await its response under the same
// deadline. The dispatcher does not call it; dispatch.Single issues the
// two calls itself through its Sender.
func (s *Session) RunCommand(ctx context.Context, cmd interface{}, cmdID uuid.UUID) (WebSocketResponse, error) {
	if err := s.SendModelingCmd(ctx, cmd, cmdID); err != nil {
		return WebSocketResponse{}, err
	}
	return s.GetResponse(ctx, cmdID)
}
