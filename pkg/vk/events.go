package vk

import (
	"encoding/json"
	"sync"
)

type EventName string

const (
	EventAPICall   EventName = "apiCall"
	EventInitCall  EventName = "initCall"
	EventInitError EventName = "initError"
)

// Event is published for every outcome the client delivers. For EventAPICall
// exactly one of Err and Result is set; init events carry only Err.
type Event struct {
	Name   EventName
	Method string
	Err    error
	Result json.RawMessage
}

type Listener func(Event)

// emitter fans events out to listeners in registration order.
type emitter struct {
	mu        sync.RWMutex
	listeners map[EventName][]Listener
}

func newEmitter() *emitter {
	return &emitter{listeners: make(map[EventName][]Listener)}
}

func (e *emitter) on(name EventName, l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[name] = append(e.listeners[name], l)
}

func (e *emitter) emit(ev Event) {
	e.mu.RLock()
	ls := append([]Listener(nil), e.listeners[ev.Name]...)
	e.mu.RUnlock()

	for _, l := range ls {
		l(ev)
	}
}
