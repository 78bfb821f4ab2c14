package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/chordgen/logger"
	"github.com/jsphweid/chordgen/model"
)

var (
	ErrNoProgression  = errors.New("no progression to play, generate one first")
	ErrAlreadyRunning = errors.New("playback is already running")
)

type State int

const (
	Idle State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "idle"
	}
}

// Sink receives note events. Implementations must be safe for concurrent use.
type Sink interface {
	NoteOn(note uint8, velocity uint8) error
	NoteOff(note uint8, velocity uint8) error
}

type Options struct {
	Tempo        float64
	Mode         model.PlaybackMode
	Loop         bool
	Velocity     uint8
	OctaveOffset int
}

func (o Options) normalized() Options {
	if o.Tempo <= 0 {
		o.Tempo = DefaultTempo
	}
	if o.Velocity == 0 {
		o.Velocity = DefaultVelocity
	}
	return o
}

func (o Options) beat() time.Duration {
	return time.Duration(float64(time.Minute) / o.Tempo)
}

type Session struct {
	ID          string
	Progression []string
	Options     Options
	StartedAt   time.Time

	done chan struct{}
}

// Done is closed once the session has ended and every note is off.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

type Scheduler struct {
	sink  Sink
	clock Clock

	mu      sync.Mutex
	state   State
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}

	eventsMu sync.Mutex
	events   chan Event
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

func New(sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{sink: sink, clock: RealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session returns the active session, or nil when idle.
func (s *Scheduler) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Start plays progression on a new goroutine and returns at once. Cancelling
// ctx has the same effect as Stop.
func (s *Scheduler) Start(ctx context.Context, progression []string, opts Options) (*Session, error) {
	if len(progression) == 0 {
		return nil, ErrNoProgression
	}

	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	session := &Session{
		ID:          uuid.NewString(),
		Progression: append([]string(nil), progression...),
		Options:     opts.normalized(),
		StartedAt:   time.Now(),
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	session.done = done
	s.state = Running
	s.session = session
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	logger.Info("Playback started", logger.Fields{
		"session_id": session.ID,
		"chords":     len(session.Progression),
		"tempo":      session.Options.Tempo,
		"mode":       session.Options.Mode.String(),
		"loop":       session.Options.Loop,
	})
	go s.run(runCtx, cancel, session, done)
	return session, nil
}

// Stop asks the running session to end and returns without waiting. It
// reports whether a session was running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return false
	}
	s.state = Stopping
	s.cancel()
	return true
}

// Wait blocks until the current session, if any, has ended and every note is
// off.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Scheduler) run(ctx context.Context, cancel context.CancelFunc, session *Session, done chan struct{}) {
	v := newVoice(s.sink, session.Options.Velocity, session.ID)
	passes := 0
	defer func() {
		v.release()
		s.sweep(v)

		s.mu.Lock()
		s.state = Idle
		s.session = nil
		s.cancel = nil
		s.done = nil
		s.mu.Unlock()
		cancel()

		logger.Info("Playback ended", logger.Fields{
			"session_id": session.ID,
			"passes":     passes,
			"cancelled":  ctx.Err() != nil,
		})
		s.sendEvent(Event{Kind: EventPlaybackEnded, SessionID: session.ID, Pass: passes})
		close(done)
	}()

	for {
		for i, chord := range session.Progression {
			if ctx.Err() != nil {
				return
			}
			s.sendEvent(Event{Kind: EventChordStarted, SessionID: session.ID, Index: i, Chord: chord, Pass: passes})
			if err := playChord(ctx, s.clock, v, chord, session.Options); err != nil {
				return
			}
		}
		passes++
		if !session.Options.Loop {
			return
		}
		s.sendEvent(Event{Kind: EventLoopCompleted, SessionID: session.ID, Pass: passes})
	}
}

// sweep turns off every note on the channel so nothing is left hanging. A
// failing sink stops the sweep, there is nothing to send the rest to.
func (s *Scheduler) sweep(v *voice) {
	for n := 0; n <= 127; n++ {
		if err := s.sink.NoteOff(uint8(n), 0); err != nil {
			v.check(err)
			return
		}
	}
}

// Preview plays chord once as a block chord on its own goroutine, alongside
// any running session. The returned channel closes when the chord is off.
func (s *Scheduler) Preview(ctx context.Context, chord string, velocity uint8) <-chan struct{} {
	if velocity == 0 {
		velocity = DefaultVelocity
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		v := newVoice(s.sink, velocity, "preview")
		playPreview(ctx, s.clock, v, chord)
	}()
	return done
}
