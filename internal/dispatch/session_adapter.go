package dispatch

import (
	"context"

	"github.com/google/uuid"

	"kcep/internal/session"
)

// SessionAdapter satisfies Sender over a real *session.Session, translating
// its WebSocketResponse down to the raw Data field the dispatcher decodes.
// Kept as a thin wrapper (rather than having Sender depend on the session
// package's concrete type) so dispatch's own tests can substitute a fake
// without a live websocket.
type SessionAdapter struct {
	Session *session.Session
}

func (a SessionAdapter) SendModelingCmd(ctx context.Context, cmd interface{}, cmdID uuid.UUID) error {
	return a.Session.SendModelingCmd(ctx, cmd, cmdID)
}

func (a SessionAdapter) SendModelingBatch(ctx context.Context, reqs map[uuid.UUID]interface{}, batchID uuid.UUID) error {
	return a.Session.SendModelingBatch(ctx, reqs, batchID)
}

func (a SessionAdapter) GetResponse(ctx context.Context, cmdID uuid.UUID) (Response, error) {
	resp, err := a.Session.GetResponse(ctx, cmdID)
	if err != nil {
		return Response{}, err
	}
	return Response{Data: resp.Data}, nil
}

// NewFromSession builds a Dispatcher directly over a live session.
func NewFromSession(s *session.Session) *Dispatcher {
	if s == nil {
		return New(nil)
	}
	return New(SessionAdapter{Session: s})
}
