// sim/eventstream_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"testing"

	"github.com/armada-sim/armada/log"
)

func TestEventStreamSubscriptions(t *testing.T) {
	es := NewEventStream(log.NewDiscard())

	// Posted with no subscribers: dropped.
	es.Post(Event{Type: LandedEvent, VehicleID: "early"})

	a := es.Subscribe()
	es.Post(Event{Type: FlightStartedEvent, VehicleID: "V1"})
	b := es.Subscribe()
	es.Post(Event{Type: PadDeniedEvent, VehicleID: "V2", Skyport: "OAK"})

	if ev := a.Get(); len(ev) != 2 || ev[0].VehicleID != "V1" || ev[1].Type != PadDeniedEvent {
		t.Errorf("a got %v", ev)
	}
	if ev := b.Get(); len(ev) != 1 || ev[0].VehicleID != "V2" {
		t.Errorf("b got %v", ev)
	}
	if ev := a.Get(); len(ev) != 0 {
		t.Errorf("a got %v on second Get", ev)
	}

	b.Unsubscribe()
	for range 100 {
		es.Post(Event{Type: PhaseChangedEvent, Phase: "cruise"})
		if ev := a.Get(); len(ev) != 1 {
			t.Fatalf("got %d events", len(ev))
		}
	}
	// Everything has been consumed, so compaction should have kept the
	// backing store small.
	if len(es.events) > 1 {
		t.Errorf("event stream holds %d consumed events", len(es.events))
	}
	a.Unsubscribe()
}

func TestEventTypeJSON(t *testing.T) {
	e := Event{Type: FlightAbortedEvent, Time: 12, VehicleID: "V", Message: "flight canceled"}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"type":"FlightAborted","time":12,"vehicle":"V","message":"flight canceled"}`
	if string(b) != expected {
		t.Errorf("got %s, expected %s", b, expected)
	}

	var back Event
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != e {
		t.Errorf("got %+v back", back)
	}

	if err := json.Unmarshal([]byte(`{"type":"Teleported"}`), &back); err == nil {
		t.Errorf("expected an error for an unknown event type")
	}
	for et := range NumEventTypes {
		if et.String() == "" {
			t.Errorf("event type %d has no name", et)
		}
	}
}
