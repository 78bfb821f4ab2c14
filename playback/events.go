package playback

type EventKind int

const (
	EventChordStarted EventKind = iota
	EventLoopCompleted
	EventPlaybackEnded
)

func (k EventKind) String() string {
	switch k {
	case EventChordStarted:
		return "chord"
	case EventLoopCompleted:
		return "loop"
	default:
		return "ended"
	}
}

type Event struct {
	Kind      EventKind
	SessionID string
	Index     int
	Chord     string
	// Pass counts completed passes over the progression
	Pass int
}

// Watch returns a channel that receives playback events. The channel is
// buffered (cap 16) and events are dropped when it is full, so receive on a
// separate goroutine. Only the most recent Watch channel receives events.
func (s *Scheduler) Watch() <-chan Event {
	ch := make(chan Event, 16)
	s.eventsMu.Lock()
	s.events = ch
	s.eventsMu.Unlock()
	return ch
}

func (s *Scheduler) sendEvent(ev Event) {
	s.eventsMu.Lock()
	ch := s.events
	s.eventsMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
