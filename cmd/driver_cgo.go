//go:build cgo

package cmd

import (
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

const midiDriver = "rtmidi"
