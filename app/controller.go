package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jsphweid/chordgen/config"
	"github.com/jsphweid/chordgen/logger"
	"github.com/jsphweid/chordgen/midi"
	"github.com/jsphweid/chordgen/model"
	"github.com/jsphweid/chordgen/playback"
	"github.com/jsphweid/chordgen/progression"
	"github.com/jsphweid/chordgen/theory"
	"github.com/jsphweid/chordgen/util"
)

var (
	ErrNothingToSave = errors.New("nothing to save, generate a progression first")
	ErrInvalidBars   = errors.New("bars out of range")
	ErrClosed        = errors.New("controller closed")
)

// Sink is the device side of the controller. *midi.Output implements it.
type Sink interface {
	playback.Sink
	Devices() []midi.Device
	Open(id int) error
	// Ensure opens the output if needed and reports when none is available.
	Ensure() error
	// Current names the open output, or "" when none is open.
	Current() string
	Close() error
}

type Status struct {
	State     playback.State
	SessionID string
	Device    string
	Report    *progression.Report
}

// Started is a session that is now running. Warning is set when the MIDI
// output is unavailable: the session still runs and its notes go nowhere.
type Started struct {
	*playback.Session
	Warning error
}

// Controller owns the current progression, the scheduler and the sink. Its
// methods never block on playback except Close.
type Controller struct {
	cfg       *config.Config
	generator *progression.Generator
	scheduler *playback.Scheduler
	sink      Sink

	// parent of every playback context; request contexts end too early
	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current *progression.Report

	// life guards closed, and is held while playback or a preview is started
	// so that Close never races with new work
	life     sync.Mutex
	closed   bool
	previews sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

func New(cfg *config.Config, generator *progression.Generator, sink Sink, opts ...playback.Option) *Controller {
	base, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:       cfg,
		generator: generator,
		scheduler: playback.New(sink, opts...),
		sink:      sink,
		base:      base,
		cancel:    cancel,
	}
}

func (c *Controller) Scheduler() *playback.Scheduler {
	return c.scheduler
}

// Generate builds a new progression and makes it current. Unknown keys and
// styles fall back to C and Pop, and the report names what was used.
func (c *Controller) Generate(key string, style string, bars int) (progression.Report, error) {
	if bars < 1 || bars > config.MaxBars {
		return progression.Report{}, fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidBars, bars, config.MaxBars)
	}
	if !theory.IsKnownKey(key) {
		logger.Warn("Unknown key, using default", logger.Fields{
			"key":       key,
			"default":   theory.DefaultKey,
			"available": strings.Join(theory.Keys(), " "),
		})
		key = theory.DefaultKey
	}
	if !c.generator.HasStyle(style) {
		logger.Warn("Unknown style, using default", logger.Fields{
			"style":     style,
			"default":   progression.DefaultStyle,
			"available": strings.Join(c.generator.Styles(), " "),
		})
		style = progression.DefaultStyle
	}

	report := progression.Report{
		Key:    key,
		Style:  style,
		Bars:   bars,
		Chords: c.generator.Generate(key, style, bars),
	}

	c.mu.Lock()
	c.current = &report
	c.mu.Unlock()

	logger.Info("Generated progression", logger.Fields{"key": key, "style": style, "bars": bars})
	return report, nil
}

// Current returns a copy of the current progression, or nil.
func (c *Controller) Current() *progression.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	r := *c.current
	r.Chords = append([]string(nil), c.current.Chords...)
	return &r
}

func (c *Controller) StartPlayback(tempo float64, mode model.PlaybackMode, loop bool) (Started, error) {
	c.life.Lock()
	defer c.life.Unlock()
	if c.closed {
		return Started{}, ErrClosed
	}

	current := c.Current()
	if current == nil {
		return Started{}, playback.ErrNoProgression
	}
	if tempo > 0 {
		tempo = util.Clamp(tempo, config.MinTempo, config.MaxTempo)
	}

	warning := c.CheckDevice()
	session, err := c.scheduler.Start(c.base, current.Chords, playback.Options{
		Tempo:    tempo,
		Mode:     mode,
		Loop:     loop,
		Velocity: c.cfg.Velocity,
	})
	if err != nil {
		return Started{}, err
	}
	return Started{Session: session, Warning: warning}, nil
}

// CheckDevice opens the MIDI output if needed. A non-nil result is advisory,
// playback and previews still run without a device.
func (c *Controller) CheckDevice() error {
	err := c.sink.Ensure()
	if err != nil {
		logger.Warn("MIDI output unavailable", logger.Fields{"error": err.Error()})
	}
	return err
}

// StopPlayback signals the running session and returns at once. It reports
// whether anything was playing.
func (c *Controller) StopPlayback() bool {
	return c.scheduler.Stop()
}

// PreviewChord plays chord once, alongside any running session. The returned
// channel closes when the chord is off; the error is advisory as for
// CheckDevice, except ErrClosed, in which case nothing plays.
func (c *Controller) PreviewChord(chord string) (<-chan struct{}, error) {
	c.life.Lock()
	defer c.life.Unlock()
	if c.closed {
		done := make(chan struct{})
		close(done)
		return done, ErrClosed
	}

	warning := c.CheckDevice()
	c.previews.Add(1)
	done := c.scheduler.Preview(c.base, chord, c.cfg.Velocity)
	go func() {
		<-done
		c.previews.Done()
	}()
	return done, warning
}

func (c *Controller) Save(path string) error {
	current := c.Current()
	if current == nil {
		return ErrNothingToSave
	}
	if err := progression.Save(path, *current); err != nil {
		logger.Error("Saving progression failed", err, logger.Fields{"path": path})
		return err
	}
	logger.Info("Saved progression", logger.Fields{"path": path})
	return nil
}

func (c *Controller) Devices() []midi.Device {
	return c.sink.Devices()
}

func (c *Controller) SelectDevice(id int) error {
	if err := c.sink.Open(id); err != nil {
		return err
	}
	logger.Info("Selected MIDI output", logger.Fields{"id": id})
	return nil
}

func (c *Controller) Status() Status {
	s := Status{State: c.scheduler.State(), Device: c.sink.Current(), Report: c.Current()}
	if session := c.scheduler.Session(); session != nil {
		s.SessionID = session.ID
	}
	return s
}

// Close stops playback and previews, waits until all their notes are off and
// releases the sink. Only the first call does anything.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.life.Lock()
		c.closed = true
		c.life.Unlock()

		c.scheduler.Stop()
		c.scheduler.Wait()
		c.cancel()
		c.previews.Wait()
		c.closeErr = c.sink.Close()
	})
	return c.closeErr
}
