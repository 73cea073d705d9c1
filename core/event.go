// Package core provides the building blocks of the strata data-access layer.
// This file defines statement events: observation points for every piece of
// SQL a DB executes, including the engine's batched follow-up queries.
package core

import "sync"

// Event identifies a statement lifecycle event emitted by a DB.
type Event string

const (
	// EventQuery is emitted after a row-returning statement completes.
	EventQuery Event = "query"
	// EventExec is emitted after a non-row statement completes.
	EventExec Event = "exec"
)

// EventHandler is the callback signature for event listeners. The payload
// is a *QueryPayload for EventQuery and an *ExecPayload for EventExec.
type EventHandler func(payload any)

// QueryPayload describes one executed row-returning statement.
type QueryPayload struct {
	Table string
	SQL   string
	Args  []any
	Rows  []Row
}

// ExecPayload describes one executed non-row statement.
type ExecPayload struct {
	Table    string
	SQL      string
	Args     []any
	Affected int64
}

// eventDispatcher fans statement events out to registered handlers. Each DB
// owns its own dispatcher; there is no process-wide one.
type eventDispatcher struct {
	mutex       sync.RWMutex
	handlerList map[Event][]EventHandler
}

func newEventDispatcher() *eventDispatcher {
	return &eventDispatcher{handlerList: make(map[Event][]EventHandler)}
}

func (d *eventDispatcher) on(event Event, handler EventHandler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.handlerList[event] = append(d.handlerList[event], handler)
}

func (d *eventDispatcher) emit(event Event, payload any) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	for _, h := range d.handlerList[event] {
		h(payload)
	}
}
