package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/chordgen/config"
	"github.com/jsphweid/chordgen/midi"
	"github.com/jsphweid/chordgen/model"
	"github.com/jsphweid/chordgen/playback"
	"github.com/jsphweid/chordgen/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firstPicker struct{}

func (firstPicker) Intn(n int) int { return 0 }

type fakeSink struct {
	mu        sync.Mutex
	ons       int
	offs      int
	lostOffs  int
	opened    []int
	closes    int
	closed    bool
	devices   []midi.Device
	ensureErr error
}

func (f *fakeSink) NoteOn(note, velocity uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ons++
	return nil
}

// NoteOff after Close is counted as lost, a real port would drop it.
func (f *fakeSink) NoteOff(note, velocity uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		f.lostOffs++
		return midi.ErrClosed
	}
	f.offs++
	return nil
}

func (f *fakeSink) noteOns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ons
}

func (f *fakeSink) Devices() []midi.Device { return f.devices }

func (f *fakeSink) Open(id int) error {
	for _, d := range f.devices {
		if d.IsOutput && d.ID == id {
			f.opened = append(f.opened, id)
			return nil
		}
	}
	return midi.ErrNoDevice
}

func (f *fakeSink) Ensure() error { return f.ensureErr }

func (f *fakeSink) Current() string {
	if f.ensureErr != nil {
		return ""
	}
	return "Fake"
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.closed = true
	return nil
}

func (f *fakeSink) counts() (ons, offs, lost int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ons, f.offs, f.lostOffs
}

// noPorts is a system without any MIDI ports.
type noPorts struct{}

func (noPorts) Outs() []midi.Port     { return nil }
func (noPorts) Ins() []midi.NamedPort { return nil }

// holdClock blocks every hold until the context is cancelled, so a session
// stays Running until it is stopped.
type holdClock struct{}

func (holdClock) Sleep(ctx context.Context, d time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

type instantClock struct{}

func (instantClock) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newController(sink *fakeSink, clock playback.Clock) *Controller {
	cfg := config.FromEnv()
	cfg.Velocity = 90
	gen := progression.NewGenerator(progression.WithPicker(firstPicker{}))
	return New(cfg, gen, sink, playback.WithClock(clock))
}

func TestGenerateMakesProgressionCurrent(t *testing.T) {
	c := newController(&fakeSink{}, instantClock{})
	assert.Nil(t, c.Current())

	report, err := c.Generate("G", "Pop", 4)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal([]string{"G", "D", "Em", "C"}, report.Chords)
	assert.Equal(report, *c.Current())
	assert.Equal(report.Chords, c.Status().Report.Chords)
}

func TestGenerateFallsBackAndValidates(t *testing.T) {
	c := newController(&fakeSink{}, instantClock{})

	report, err := c.Generate("H", "Polka", 2)
	require.NoError(t, err)
	assert.Equal(t, "C", report.Key)
	assert.Equal(t, "Pop", report.Style)
	assert.Equal(t, []string{"C", "G"}, report.Chords)

	_, err = c.Generate("C", "Pop", 0)
	assert.ErrorIs(t, err, ErrInvalidBars)
	_, err = c.Generate("C", "Pop", config.MaxBars+1)
	assert.ErrorIs(t, err, ErrInvalidBars)
}

func TestStartPlaybackRequiresProgression(t *testing.T) {
	c := newController(&fakeSink{}, instantClock{})
	_, err := c.StartPlayback(120, model.Block, false)
	assert.ErrorIs(t, err, playback.ErrNoProgression)
}

func TestPlayStopLifecycle(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink, holdClock{})
	_, err := c.Generate("C", "Rock", 4)
	require.NoError(t, err)

	session, err := c.StartPlayback(500, model.Arpeggio, true)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.NoError(session.Warning)
	assert.Equal(float64(config.MaxTempo), session.Options.Tempo)
	assert.Equal(uint8(90), session.Options.Velocity)
	assert.Equal(playback.Running, c.Status().State)
	assert.Equal(session.ID, c.Status().SessionID)
	assert.Equal("Fake", c.Status().Device)

	_, err = c.StartPlayback(120, model.Block, false)
	assert.ErrorIs(err, playback.ErrAlreadyRunning)

	assert.True(c.StopPlayback())
	c.Scheduler().Wait()
	assert.Equal(playback.Idle, c.Status().State)
	assert.Empty(c.Status().SessionID)
	assert.False(c.StopPlayback())
}

func TestSave(t *testing.T) {
	c := newController(&fakeSink{}, instantClock{})
	path := filepath.Join(t.TempDir(), "prog.txt")
	assert.ErrorIs(t, c.Save(path), ErrNothingToSave)

	report, err := c.Generate("D", "Ballad", 4)
	require.NoError(t, err)
	require.NoError(t, c.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, report.String(), string(data))
}

func TestSaveErrorLeavesPlaybackAlone(t *testing.T) {
	c := newController(&fakeSink{}, holdClock{})
	_, err := c.Generate("C", "Pop", 4)
	require.NoError(t, err)
	_, err = c.StartPlayback(0, model.Block, true)
	require.NoError(t, err)

	err = c.Save(filepath.Join(t.TempDir(), "missing", "prog.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, playback.Running, c.Status().State)

	require.NoError(t, c.Close())
}

func TestPreviewChord(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink, instantClock{})
	done, err := c.PreviewChord("G7")
	require.NoError(t, err)
	<-done
	assert.Equal(t, 4, sink.ons)
	assert.Equal(t, 4, sink.offs)
}

func TestCloseWaitsForPreviews(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink, holdClock{})
	done, err := c.PreviewChord("C")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sink.noteOns() == 3 }, time.Second, time.Millisecond)

	require.NoError(t, c.Close())

	assert := assert.New(t)
	select {
	case <-done:
	default:
		t.Fatal("preview still sounding after Close")
	}
	ons, offs, lost := sink.counts()
	assert.Equal(3, ons)
	assert.Equal(3, offs)
	assert.Zero(lost)
}

func TestNothingStartsAfterClose(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink, instantClock{})
	_, err := c.Generate("C", "Pop", 4)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	done, err := c.PreviewChord("C")
	assert.ErrorIs(t, err, ErrClosed)
	<-done
	_, err = c.StartPlayback(90, model.Block, false)
	assert.ErrorIs(t, err, ErrClosed)

	ons, _, _ := sink.counts()
	assert.Zero(t, ons)
}

func TestMissingDeviceIsReportedButPlays(t *testing.T) {
	out := midi.NewOutput(noPorts{}, "", 0)
	gen := progression.NewGenerator(progression.WithPicker(firstPicker{}))
	c := New(config.FromEnv(), gen, out, playback.WithClock(holdClock{}))
	t.Cleanup(func() { c.Close() })
	_, err := c.Generate("C", "Pop", 4)
	require.NoError(t, err)

	session, err := c.StartPlayback(90, model.Block, true)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.ErrorIs(session.Warning, midi.ErrNoDevice)
	assert.Equal(playback.Running, c.Status().State)
	assert.Empty(c.Status().Device)

	_, err = c.PreviewChord("G")
	assert.ErrorIs(err, midi.ErrNoDevice)
	assert.ErrorIs(c.CheckDevice(), midi.ErrNoDevice)
}

func TestDevices(t *testing.T) {
	sink := &fakeSink{devices: []midi.Device{
		{ID: 0, Name: "Synth", IsOutput: true},
		{ID: 0, Name: "Keys", IsOutput: false},
	}}
	c := newController(sink, instantClock{})

	assert.Len(t, c.Devices(), 2)
	assert.NoError(t, c.SelectDevice(0))
	assert.ErrorIs(t, c.SelectDevice(3), midi.ErrNoDevice)
	assert.Equal(t, []int{0}, sink.opened)
}

func TestCloseStopsPlaybackOnce(t *testing.T) {
	sink := &fakeSink{}
	c := newController(sink, holdClock{})
	_, err := c.Generate("C", "Pop", 4)
	require.NoError(t, err)
	_, err = c.StartPlayback(90, model.Block, true)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sink.noteOns() == 3 }, time.Second, time.Millisecond)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert := assert.New(t)
	assert.Equal(playback.Idle, c.Status().State)
	// the held chord plus the 128-note sweep
	ons, offs, lost := sink.counts()
	assert.Equal(1, sink.closes)
	assert.Equal(3, ons)
	assert.Equal(3+128, offs)
	assert.Zero(lost)
}
