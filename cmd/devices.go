package cmd

import (
	"fmt"

	"github.com/jsphweid/chordgen/midi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(devicesCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Lists MIDI ports",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if midiDriver == "" {
			fmt.Fprintln(out, "built without cgo, no MIDI driver available")
			return
		}
		devices := midi.ListDevices(midi.SystemPorts())
		if len(devices) == 0 {
			fmt.Fprintln(out, "no MIDI ports found")
			return
		}
		for _, d := range devices {
			direction := "in "
			if d.IsOutput {
				direction = "out"
			}
			fmt.Fprintf(out, "[%s] %d: %s\n", direction, d.ID, d.Name)
		}
	},
}
