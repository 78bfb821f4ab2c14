//go:build !cgo

package cmd

// without cgo there is no rtmidi, so no ports are listed and notes go nowhere
const midiDriver = ""
