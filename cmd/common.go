package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsphweid/chordgen/app"
	"github.com/jsphweid/chordgen/midi"
	"github.com/jsphweid/chordgen/progression"
	"github.com/spf13/cobra"
)

var (
	keyFlag   string
	styleFlag string
	barsFlag  int
)

func addProgressionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&keyFlag, "key", "k", "", "key, one of C G D A E B F# Gb F Bb Eb Ab")
	cmd.Flags().StringVarP(&styleFlag, "style", "s", "", "style pool (Pop, Rock, Ballad, Blues or one from --styles)")
	cmd.Flags().IntVarP(&barsFlag, "bars", "b", 0, "number of bars, 1-16")
}

// progressionArgs merges the progression flags over the configured defaults.
func progressionArgs(cmd *cobra.Command) (string, string, int) {
	key, style, bars := cfg.Key, cfg.Style, cfg.Bars
	if cmd.Flags().Changed("key") {
		key = keyFlag
	}
	if cmd.Flags().Changed("style") {
		style = styleFlag
	}
	if cmd.Flags().Changed("bars") {
		bars = barsFlag
	}
	return key, style, bars
}

func newGenerator() (*progression.Generator, error) {
	opts := []progression.Option{}
	if cfg.StylesPath != "" {
		pools, err := progression.LoadStyles(cfg.StylesPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, progression.WithStyles(pools))
	}
	return progression.NewGenerator(opts...), nil
}

func newController() (*app.Controller, error) {
	gen, err := newGenerator()
	if err != nil {
		return nil, err
	}
	out := midi.NewOutput(midi.SystemPorts(), cfg.Device, cfg.Channel)
	return app.New(cfg, gen, out), nil
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
