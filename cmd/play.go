package cmd

import (
	"fmt"

	"github.com/jsphweid/chordgen/model"
	"github.com/jsphweid/chordgen/playback"
	"github.com/spf13/cobra"
)

var (
	tempoFlag int
	modeFlag  string
	loopFlag  bool
)

func init() {
	addProgressionFlags(playCmd)
	playCmd.Flags().IntVarP(&tempoFlag, "tempo", "t", 0, "tempo in BPM, 40-200")
	playCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "block or arpeggio")
	playCmd.Flags().BoolVarP(&loopFlag, "loop", "l", false, "repeat until interrupted")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Generates a progression and plays it on the MIDI output",
	Long: `Generates a progression and plays it on the MIDI output. With --loop
it repeats until interrupted with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tempo, mode, loop := cfg.Tempo, cfg.Mode, cfg.Loop
		if cmd.Flags().Changed("tempo") {
			tempo = tempoFlag
		}
		if cmd.Flags().Changed("mode") {
			mode = modeFlag
		}
		if cmd.Flags().Changed("loop") {
			loop = loopFlag
		}
		playbackMode, err := model.ParsePlaybackMode(mode)
		if err != nil {
			return err
		}

		ctrl, err := newController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		key, style, bars := progressionArgs(cmd)
		report, err := ctrl.Generate(key, style, bars)
		if err != nil {
			return err
		}
		shapes := report.Shapes()
		out := cmd.OutOrStdout()
		fmt.Fprint(out, report.String())

		ctx, stop := interruptContext()
		defer stop()

		events := ctrl.Scheduler().Watch()
		session, err := ctrl.StartPlayback(float64(tempo), playbackMode, loop)
		if err != nil {
			return err
		}
		if session.Warning != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v, playing silently\n", session.Warning)
		}
		fmt.Fprintf(out, "\nPlaying at %.0f BPM (%v)\n", session.Options.Tempo, session.Options.Mode)

		show := func(ev playback.Event) {
			switch ev.Kind {
			case playback.EventChordStarted:
				fmt.Fprintf(out, "%-6s %s\n", ev.Chord, shapes[ev.Index])
			case playback.EventLoopCompleted:
				fmt.Fprintf(out, "-- pass %d --\n", ev.Pass)
			}
		}
		for {
			select {
			case <-ctx.Done():
				ctrl.StopPlayback()
				<-session.Done()
				fmt.Fprintln(out, "\nStopped")
				return nil
			case <-session.Done():
				// events may be dropped when nobody reads them, print what is left
				for len(events) > 0 {
					show(<-events)
				}
				return nil
			case ev := <-events:
				show(ev)
			}
		}
	},
}
