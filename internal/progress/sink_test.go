package progress

import (
	"testing"
	"time"
)

func collect(s *Sink) []Event {
	var events []Event
	for ev := range s.Events() {
		events = append(events, ev)
	}
	return events
}

func TestSinkDeliversInOrder(t *testing.T) {
	s := NewSink()

	done := make(chan []Event)
	go func() { done <- collect(s) }()

	s.Publish(Event{JobIndex: 0, Phase: PhaseResolving, Percent: IndeterminatePercent})
	s.Publish(Event{JobIndex: 0, Phase: PhasePlaced, Percent: 100, Terminal: true})
	s.Close()

	events := <-done
	if len(events) < 1 {
		t.Fatal("Expected at least the terminal event")
	}
	last := events[len(events)-1]
	if last.Phase != PhasePlaced || !last.Terminal {
		t.Errorf("Expected terminal Placed event last, got %+v", last)
	}
}

func TestSinkReplacesStaleEventsPerJob(t *testing.T) {
	s := NewSink()

	// No consumer yet: every publish must still return immediately, and
	// newer non-terminal events replace staler ones for the same job.
	for percent := 1; percent <= 50; percent++ {
		s.Publish(Event{JobIndex: 3, Phase: PhaseFetching, Percent: float64(percent)})
	}
	s.Publish(Event{JobIndex: 7, Phase: PhaseFetching, Percent: 10})
	s.Close()

	var forJob3 []Event
	var forJob7 []Event
	for ev := range s.Events() {
		switch ev.JobIndex {
		case 3:
			forJob3 = append(forJob3, ev)
		case 7:
			forJob7 = append(forJob7, ev)
		}
	}

	if len(forJob3) != 1 {
		t.Fatalf("Expected exactly 1 surviving event for job 3, got %d", len(forJob3))
	}
	if forJob3[0].Percent != 50 {
		t.Errorf("Expected most recent percent 50, got %v", forJob3[0].Percent)
	}
	if len(forJob7) != 1 || forJob7[0].Percent != 10 {
		t.Errorf("Expected job 7 event to survive independently, got %+v", forJob7)
	}
}

func TestSinkTerminalSupersedesStaleEvent(t *testing.T) {
	s := NewSink()

	// No consumer: the queued fetching event is stale by the time the
	// terminal event arrives and must not surface after it.
	s.Publish(Event{JobIndex: 0, Phase: PhaseFetching, Percent: 50})
	s.Publish(Event{JobIndex: 0, Phase: PhasePlaced, Percent: 100, Terminal: true})
	s.Close()

	events := collect(s)
	if len(events) != 1 {
		t.Fatalf("Expected only the terminal event, got %d: %+v", len(events), events)
	}
	if events[0].Phase != PhasePlaced || !events[0].Terminal {
		t.Errorf("Expected terminal Placed event, got %+v", events[0])
	}
}

func TestSinkNeverDropsTerminalEvents(t *testing.T) {
	s := NewSink()

	for i := 0; i < 5; i++ {
		s.Publish(Event{JobIndex: i, Phase: PhaseFailed, Message: "boom", Terminal: true})
	}
	s.Close()

	count := 0
	for ev := range s.Events() {
		if !ev.Terminal {
			t.Errorf("Unexpected non-terminal event %+v", ev)
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected all 5 terminal events, got %d", count)
	}
}

func TestSinkPublishNeverBlocks(t *testing.T) {
	s := NewSink()
	defer s.Close()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			s.Publish(Event{JobIndex: i % 4, Phase: PhaseFetching, Percent: float64(i % 100)})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked with a slow consumer")
	}
}

func TestSinkCloseIsIdempotent(t *testing.T) {
	s := NewSink()
	s.Close()
	s.Close()
	s.Publish(Event{JobIndex: 0, Phase: PhaseFetching}) // ignored after close

	for range s.Events() {
		t.Error("Expected no events after close")
	}
}
