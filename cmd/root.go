package cmd

import (
	"github.com/jsphweid/chordgen/config"
	"github.com/jsphweid/chordgen/logger"
	"github.com/jsphweid/chordgen/midi"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	cfg      *config.Config
	shutdown = func() {}

	deviceFlag   string
	channelFlag  uint8
	velocityFlag uint8
	stylesFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "chordgen",
	Short: "Guitar chord progression generator",
	Long: `Generates guitar chord progressions from a key and a style, shows the
chord shapes and plays them on a MIDI output.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		applyRootFlags(cmd)

		flush, err := logger.Init(cfg.SentryDSN, cfg.Environment, version)
		if err != nil {
			logger.Warn("Sentry disabled", logger.Fields{"error": err.Error()})
		}
		shutdown = func() {
			midi.CloseDriver()
			flush()
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&deviceFlag, "device", "", "MIDI output: port number or name prefix (default first output)")
	flags.Uint8Var(&channelFlag, "channel", 0, "MIDI channel 0-15")
	flags.Uint8Var(&velocityFlag, "velocity", config.DefaultVelocity, "note velocity 1-127")
	flags.StringVar(&stylesFlag, "styles", "", "YAML file with extra style pools")
}

// applyRootFlags lets explicitly set flags win over the environment.
func applyRootFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = deviceFlag
	}
	if flags.Changed("channel") {
		cfg.Channel = channelFlag & 0x0f
	}
	if flags.Changed("velocity") {
		cfg.Velocity = velocityFlag & 0x7f
	}
	if flags.Changed("styles") {
		cfg.StylesPath = stylesFlag
	}
}

func Execute() {
	err := rootCmd.Execute()
	shutdown()
	cobra.CheckErr(err)
}
