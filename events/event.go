// Package events carries the fund's append-only notification log.
package events

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libfund-go/account"
)

// Event type names.
const (
	TypeTransfer        = "fund.transfer"
	TypeApproval        = "fund.approval"
	TypeDividendIssued  = "fund.dividend.issued"
	TypeDividendClaimed = "fund.dividend.claimed"
)

// Event is a notification emitted by a committed fund call.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (indexers, RPC, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}

// Transfer records share movement. From is nil for reservoir mints.
type Transfer struct {
	From  *account.Account
	To    *account.Account
	Value uint256.Int
}

// EventType implements Event.
func (Transfer) EventType() string { return TypeTransfer }

// Approval records an allowance being set.
type Approval struct {
	Owner   account.Account
	Spender account.Account
	Value   uint256.Int
}

// EventType implements Event.
func (Approval) EventType() string { return TypeApproval }

// DividendIssued records a new dividend event appended to the history.
type DividendIssued struct {
	Amount    uint256.Int
	Timestamp uint64
}

// EventType implements Event.
func (DividendIssued) EventType() string { return TypeDividendIssued }

// DividendClaimed records a settled, non-zero payout.
type DividendClaimed struct {
	User      account.Account
	Amount    uint256.Int
	Timestamp uint64
}

// EventType implements Event.
func (DividendClaimed) EventType() string { return TypeDividendClaimed }

// Log is an in-memory append-only Emitter.
type Log struct {
	mu     sync.RWMutex
	events []Event
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Emit appends evt to the log.
func (l *Log) Emit(evt Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

// Events returns a copy of all recorded events in emission order.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// OfType returns the recorded events whose type equals typ.
func (l *Log) OfType(typ string) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, evt := range l.events {
		if evt.EventType() == typ {
			out = append(out, evt)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Fanout emits every event to each of its emitters in order.
type Fanout []Emitter

// Emit implements Emitter.
func (f Fanout) Emit(evt Event) {
	for _, e := range f {
		if e != nil {
			e.Emit(evt)
		}
	}
}
