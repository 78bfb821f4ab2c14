package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/chordgen/theory"
	"github.com/spf13/cobra"
)

var octaveFlag int

func init() {
	notesCmd.Flags().IntVar(&octaveFlag, "octave", 0, "octave offset")
	rootCmd.AddCommand(notesCmd)
}

var notesCmd = &cobra.Command{
	Use:   "notes CHORD...",
	Short: "Shows how chords are parsed and the MIDI notes they play",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			name = strings.TrimSpace(name)
			c := theory.ParseChord(name)
			root, suffix := theory.SplitChordName(name)
			notes := theory.ChordToNotes(name, octaveFlag)
			fmt.Fprintf(cmd.OutOrStdout(), "chord: %v\n", c.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "  root: %v (pitch class %d)\n", root, c.Root)
			fmt.Fprintf(cmd.OutOrStdout(), "  quality: %v (suffix %q)\n", c.Quality, suffix)
			fmt.Fprintf(cmd.OutOrStdout(), "  notes: %v (%v)\n", notes, theory.CreateChordKey(notes))
			fmt.Fprintf(cmd.OutOrStdout(), "  shape: %v\n", c.Shape)
		}
	},
}
