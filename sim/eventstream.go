// sim/eventstream.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/armada-sim/armada/log"
)

// EventStream provides a basic pub/sub interface: flight processes post
// events to the stream and subscribers such as the HTTP server or the
// CLI pull everything posted since their previous Get.
type EventStream struct {
	mu            sync.Mutex
	events        []Event
	subscriptions map[*EventsSubscription]interface{}
	warnedLong    bool
	lg            *log.Logger
}

type EventsSubscription struct {
	stream *EventStream
	// offset is offset in the EventStream stream array up to which the
	// subscriber has consumed events so far.
	offset int
	source string
}

func (e *EventsSubscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("offset", e.offset),
		slog.String("source", e.source))
}

func NewEventStream(lg *log.Logger) *EventStream {
	return &EventStream{
		subscriptions: make(map[*EventsSubscription]interface{}),
		lg:            lg,
	}
}

// Subscribe registers a new subscriber to the stream; it will receive
// events posted after this call.
func (e *EventStream) Subscribe() *EventsSubscription {
	// Record the subscriber's callsite, so that we can more easily debug
	// subscribers that aren't consuming events.
	_, fn, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", fn, line)

	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &EventsSubscription{
		stream: e,
		offset: len(e.events),
		source: source,
	}
	e.subscriptions[sub] = nil
	return sub
}

// Unsubscribe removes a subscriber from the subscriber list
func (e *EventsSubscription) Unsubscribe() {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("Attempted to unsubscribe invalid subscription: %+v", e)
	}
	delete(e.stream.subscriptions, e)
	e.stream.compact()
}

// Post adds an event to the event stream.
func (e *EventStream) Post(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lg.Debug("posted event", slog.Any("event", event))

	// Ignore the event if no one's paying attention.
	if len(e.subscriptions) == 0 {
		return
	}
	e.events = append(e.events, event)

	if len(e.events) > 10000 && !e.warnedLong {
		// It's likely that one of the subscribers is out to lunch if the
		// stream has grown this long.
		var sources []string
		for sub := range e.subscriptions {
			sources = append(sources, sub.source)
		}
		slices.Sort(sources)
		e.lg.Warn("Long EventStream", slog.Int("length", len(e.events)),
			slog.String("subscribers", strings.Join(sources, ",")))
		e.warnedLong = true
	}
}

// Get returns all of the events from the stream since the last time Get
// was called with the given subscription. Events posted before the
// subscription was created are never returned.
func (e *EventsSubscription) Get() []Event {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("Attempted to get with unregistered subscription: %+v", e)
		return nil
	}

	events := slices.Clone(e.stream.events[e.offset:])
	e.offset = len(e.stream.events)
	e.stream.compact()

	return events
}

// compact reclaims storage for events that all subscribers have seen so
// that EventStream memory usage doesn't grow without bound.
func (e *EventStream) compact() {
	minOffset := len(e.events)
	for sub := range e.subscriptions {
		minOffset = min(minOffset, sub.offset)
	}

	if minOffset > cap(e.events)/2 {
		n := len(e.events) - minOffset

		copy(e.events, e.events[minOffset:])
		clear(e.events[n:])
		e.events = e.events[:n]

		for sub := range e.subscriptions {
			sub.offset -= minOffset
		}

		e.warnedLong = false // reset this after a successful compact.
	}
}

// implements slog.LogValuer
func (e *EventStream) LogValue() slog.Value {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := []slog.Attr{slog.Int("len", len(e.events)), slog.Int("cap", cap(e.events)),
		slog.Int("subscriptions", len(e.subscriptions))}
	if len(e.events) > 0 {
		items = append(items, slog.Any("last_element", e.events[len(e.events)-1]))
	}
	return slog.GroupValue(items...)
}

///////////////////////////////////////////////////////////////////////////

type EventType int

const (
	FlightStartedEvent EventType = iota
	PadDeniedEvent
	PadGrantedEvent
	PhaseChangedEvent
	LandedEvent
	FlightAbortedEvent
	ProcessErrorEvent
	NumEventTypes
)

func (t EventType) String() string {
	return []string{"FlightStarted", "PadDenied", "PadGranted", "PhaseChanged", "Landed",
		"FlightAborted", "ProcessError"}[t]
}

func (t EventType) MarshalText() ([]byte, error) {
	if t < 0 || t >= NumEventTypes {
		return nil, fmt.Errorf("%d: invalid event type", int(t))
	}
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	for et := range NumEventTypes {
		if et.String() == string(b) {
			*t = et
			return nil
		}
	}
	return fmt.Errorf("%q: unknown event type", string(b))
}

type Event struct {
	Type      EventType `json:"type"`
	Time      float64   `json:"time"`
	VehicleID string    `json:"vehicle,omitempty"`
	Skyport   string    `json:"skyport,omitempty"` // destination for pad events
	Phase     string    `json:"phase,omitempty"`   // PhaseChangedEvent
	Message   string    `json:"message,omitempty"` // FlightAbortedEvent and ProcessErrorEvent
}

func (e *Event) String() string {
	s := fmt.Sprintf("%s @ %g: vehicle %q", e.Type, e.Time, e.VehicleID)
	if e.Skyport != "" {
		s += fmt.Sprintf(" skyport %q", e.Skyport)
	}
	if e.Phase != "" {
		s += " phase " + e.Phase
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", e.Type.String()), slog.Float64("time", e.Time)}
	if e.VehicleID != "" {
		attrs = append(attrs, slog.String("vehicle", e.VehicleID))
	}
	if e.Skyport != "" {
		attrs = append(attrs, slog.String("skyport", e.Skyport))
	}
	if e.Phase != "" {
		attrs = append(attrs, slog.String("phase", e.Phase))
	}
	if e.Message != "" {
		attrs = append(attrs, slog.String("message", e.Message))
	}
	return slog.GroupValue(attrs...)
}
