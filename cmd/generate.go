package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var outFlag string

func init() {
	addProgressionFlags(generateCmd)
	generateCmd.Flags().StringVarP(&outFlag, "out", "o", "", "also save the report to this file")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generates a progression and prints it with chord shapes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		fmt.Fprint(cmd.OutOrStdout(), report.String())

		if outFlag != "" {
			return ctrl.Save(outFlag)
		}
		return nil
	},
}
