package playback

import (
	"context"
	"time"

	"github.com/jsphweid/chordgen/logger"
	"github.com/jsphweid/chordgen/model"
	"github.com/jsphweid/chordgen/theory"
)

const (
	DefaultTempo    = 90
	DefaultVelocity = 100

	blockBeats = 2
	barBeats   = 4

	// arpeggio notes sound for 9/10 of their slot
	arpeggioHoldNum = 9
	arpeggioHoldDen = 10

	ChordPause  = 50 * time.Millisecond
	PreviewHold = 800 * time.Millisecond
)

// voice tracks which notes it has turned on so they can always be turned off.
type voice struct {
	sink     Sink
	velocity uint8
	owner    string
	sounding model.Notes
	failed   bool
}

func newVoice(sink Sink, velocity uint8, owner string) *voice {
	return &voice{sink: sink, velocity: velocity, owner: owner}
}

// check logs the first sink failure only; playback carries on without a device.
func (v *voice) check(err error) {
	if err == nil || v.failed {
		return
	}
	v.failed = true
	logger.Warn("MIDI sink unavailable, continuing silently", logger.Fields{
		"owner": v.owner,
		"error": err.Error(),
	})
}

func (v *voice) on(note uint8) {
	v.check(v.sink.NoteOn(note, v.velocity))
	v.sounding = append(v.sounding, note)
}

// release turns off every sounding note in the order they were started.
func (v *voice) release() {
	for _, note := range v.sounding {
		v.check(v.sink.NoteOff(note, v.velocity))
	}
	v.sounding = v.sounding[:0]
}

func playChord(ctx context.Context, clock Clock, v *voice, chord string, opts Options) error {
	notes := theory.ChordToNotes(chord, opts.OctaveOffset)
	if opts.Mode == model.Arpeggio {
		return playArpeggio(ctx, clock, v, notes, opts.beat())
	}
	return playBlock(ctx, clock, v, notes, blockBeats*opts.beat())
}

func playBlock(ctx context.Context, clock Clock, v *voice, notes model.Notes, hold time.Duration) error {
	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			v.release()
			return err
		}
		v.on(n)
	}
	err := clock.Sleep(ctx, hold)
	v.release()
	return err
}

func playArpeggio(ctx context.Context, clock Clock, v *voice, notes model.Notes, beat time.Duration) error {
	if len(notes) == 0 {
		return clock.Sleep(ctx, ChordPause)
	}
	step := barBeats * beat / time.Duration(len(notes))
	hold := step * arpeggioHoldNum / arpeggioHoldDen
	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return err
		}
		v.on(n)
		err := clock.Sleep(ctx, hold)
		v.release()
		if err != nil {
			return err
		}
		if err := clock.Sleep(ctx, step-hold); err != nil {
			return err
		}
	}
	return clock.Sleep(ctx, ChordPause)
}

func playPreview(ctx context.Context, clock Clock, v *voice, chord string) {
	playBlock(ctx, clock, v, theory.ChordToNotes(chord, 0), PreviewHold)
}
