package ledger

import (
	"context"
	"time"
)

// Event is a notification published by a contract during a committed unit.
type Event struct {
	InvocationID string  `json:"invocation_id"`
	Contract     Address `json:"contract"`
	Topic        string  `json:"topic"`
	Data         Val     `json:"data"`
	Sequence     uint32  `json:"sequence"`
	Index        int     `json:"index"`
}

// EventSink consumes the events of committed units. Sinks are called while the
// host lock is held and must not invoke the host.
type EventSink interface {
	HandleEvents(ctx context.Context, events []Event) error
}

// UnitOutcome summarizes a finished unit of execution.
type UnitOutcome struct {
	InvocationID string
	Contract     Address
	Method       string
	Events       int
	Duration     time.Duration
	Err          error
}

// UnitObserver is notified of every finished unit, committed or aborted.
type UnitObserver interface {
	ObserveUnit(outcome UnitOutcome)
}
