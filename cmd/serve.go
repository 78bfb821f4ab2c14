package cmd

import (
	"github.com/jsphweid/chordgen/server"
	"github.com/spf13/cobra"
)

var addrFlag string

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (default :8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the generator over HTTP",
	Long: `Serves the generator over HTTP: POST /generate, /play, /stop, /preview,
/save, /devices/{id} and GET /devices, /status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Addr
		if cmd.Flags().Changed("addr") {
			addr = addrFlag
		}

		ctrl, err := newController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		ctx, stop := interruptContext()
		defer stop()
		return server.New(ctrl).ListenAndServe(ctx, addr)
	},
}
