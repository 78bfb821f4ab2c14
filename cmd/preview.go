package cmd

import (
	"fmt"

	"github.com/jsphweid/chordgen/theory"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview CHORD...",
	Short: "Plays each chord once as a block chord",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		warned := false
		for _, chord := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", chord, theory.Shape(chord))
			done, err := ctrl.PreviewChord(chord)
			if err != nil && !warned {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v, playing silently\n", err)
				warned = true
			}
			<-done
		}
		return nil
	},
}
