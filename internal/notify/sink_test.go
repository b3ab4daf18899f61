package notify

import (
	"fmt"
	"testing"
)

func TestPublish_HistoryOrderAndCap(t *testing.T) {
	s := NewSink(5)

	for i := 0; i < 8; i++ {
		s.Publish(Event{Kind: KindInfo, Message: fmt.Sprintf("event %d", i)})
	}

	hist := s.History()
	if len(hist) != 5 {
		t.Fatalf("history length = %d, want 5", len(hist))
	}
	if hist[0].Message != "event 7" {
		t.Errorf("newest = %q, want event 7", hist[0].Message)
	}
	if hist[4].Message != "event 3" {
		t.Errorf("oldest retained = %q, want event 3", hist[4].Message)
	}
}

func TestPublish_AssignsIDAndTimestamp(t *testing.T) {
	s := NewSink(0)

	ev := s.Publish(Event{Kind: KindStale, Message: "stale", Ticker: "INFY"})
	if ev.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("Publish did not assign an ID")
	}
	if ev.OccurredAt.IsZero() {
		t.Error("Publish did not assign OccurredAt")
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	s := NewSink(0)

	var got []Event
	sub := s.Subscribe(func(ev Event) { got = append(got, ev) })

	s.Publish(Event{Kind: KindInfo, Message: "first"})
	if len(got) != 1 || got[0].Message != "first" {
		t.Fatalf("handler got %v, want [first]", got)
	}

	s.Unsubscribe(sub)
	s.Publish(Event{Kind: KindInfo, Message: "second"})
	if len(got) != 1 {
		t.Errorf("handler called after Unsubscribe, got %d events", len(got))
	}
}
