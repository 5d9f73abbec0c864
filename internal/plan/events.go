package plan

import "kcep/internal/address"

// Severity classifies an Event for UI filtering, grounded on
// original_source/execution-plan/src/events.rs's Severity enum (extended
// here from its single Info variant to the Debug/Info/Error set §4.5
// requires).
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one entry in a step's event log (§4.5): free text, a severity,
// and the memory addresses a UI should highlight alongside it.
type Event struct {
	Text             string
	Severity         Severity
	RelatedAddresses []address.Address
}

// NewEvent builds an Event with no related addresses.
func NewEvent(text string, sev Severity) Event {
	return Event{Text: text, Severity: sev}
}

// WithAddress attaches a single related address, the common case when an
// event describes reading or writing one memory cell.
func (e Event) WithAddress(a address.Address) Event {
	e.RelatedAddresses = append(e.RelatedAddresses, a)
	return e
}

// EventWriter accumulates events produced while executing one step, then
// hands them to the caller to drain into a Snapshot (C13), grounded on
// execution-plan/src/events.rs's EventWriter{push, iter, drain}.
type EventWriter struct {
	events []Event
}

// Push appends an event to the log.
func (w *EventWriter) Push(e Event) {
	w.events = append(w.events, e)
}

// Drain returns the accumulated events and resets the writer for the next
// step.
func (w *EventWriter) Drain() []Event {
	out := w.events
	w.events = nil
	return out
}
