package model

import (
	"fmt"
	"strings"
)

type PlaybackMode int

const (
	Block PlaybackMode = iota
	Arpeggio
)

func (m PlaybackMode) String() string {
	if m == Arpeggio {
		return "arpeggio"
	}
	return "block"
}

// ParsePlaybackMode accepts "block" or "arpeggio" (and the short "arp"), case
// insensitive. An empty string is block.
func ParsePlaybackMode(s string) (PlaybackMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return Block, nil
	case "arp", "arpeggio":
		return Arpeggio, nil
	default:
		return Block, fmt.Errorf("invalid playback mode %q (expected block|arpeggio)", s)
	}
}

func (m PlaybackMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *PlaybackMode) UnmarshalText(text []byte) error {
	parsed, err := ParsePlaybackMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
