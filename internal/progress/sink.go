// Package progress carries transient per-job progress events from the engine
// to its single consumer. Publishing never blocks job progress: when the
// consumer lags, a stale undelivered event for a job is replaced by the newer
// one. Terminal events are always delivered.
package progress

import "sync"

// Phase names the step a job is in when an event is emitted
type Phase string

const (
	PhaseResolving  Phase = "resolving"
	PhaseFetching   Phase = "fetching"
	PhaseConverting Phase = "converting"
	PhasePlaced     Phase = "placed"
	PhaseFailed     Phase = "failed"
	PhaseCancelled  Phase = "cancelled"
)

// IndeterminatePercent marks progress without a known total
const IndeterminatePercent = -1

// Event is one transient progress notification. Events are consumed at most
// once and never replayed.
type Event struct {
	JobIndex int
	Phase    Phase
	Percent  float64
	Message  string
	Terminal bool
}

// Sink is a per-run event channel. One producer side (the orchestrator, from
// multiple workers) and one consumer of Events().
type Sink struct {
	mu       sync.Mutex
	latest   map[int]Event // undelivered non-terminal event per job
	order    []int         // job indices with a pending latest event
	terminal []Event       // never dropped
	closed   bool
	wake     chan struct{}
	out      chan Event
}

// NewSink creates a sink and starts its forwarding loop.
func NewSink() *Sink {
	s := &Sink{
		latest: make(map[int]Event),
		wake:   make(chan struct{}, 1),
		out:    make(chan Event),
	}
	go s.forward()
	return s
}

// Events returns the receive side of the sink.
func (s *Sink) Events() <-chan Event {
	return s.out
}

// Publish enqueues an event without ever blocking the caller. A non-terminal
// event replaces any undelivered event for the same job.
func (s *Sink) Publish(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if ev.Terminal {
		s.terminal = append(s.terminal, ev)
		// A job's terminal event supersedes its undelivered progress; the
		// consumer must never see a stale phase after the terminal one.
		delete(s.latest, ev.JobIndex)
	} else {
		if _, pending := s.latest[ev.JobIndex]; !pending {
			s.order = append(s.order, ev.JobIndex)
		}
		s.latest[ev.JobIndex] = ev
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close ends the stream once everything already published is delivered.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// forward drains pending events to the consumer, terminal events first.
func (s *Sink) forward() {
	for {
		ev, ok, done := s.next()
		if ok {
			s.out <- ev
			continue
		}
		if done {
			close(s.out)
			return
		}
		<-s.wake
	}
}

// next pops the next deliverable event. done is true when the sink is closed
// and drained.
func (s *Sink) next() (ev Event, ok bool, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.terminal) > 0 {
		ev = s.terminal[0]
		s.terminal = s.terminal[1:]
		return ev, true, false
	}
	for len(s.order) > 0 {
		idx := s.order[0]
		s.order = s.order[1:]
		if pending, exists := s.latest[idx]; exists {
			delete(s.latest, idx)
			return pending, true, false
		}
	}
	return Event{}, false, s.closed
}
