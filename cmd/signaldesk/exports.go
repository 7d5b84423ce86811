package main

import (
	"fmt"

	"github.com/newthinker/signaldesk/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportsCmd = &cobra.Command{
	Use:   "exports [prefix]",
	Short: "List saved signal exports",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App, log *zap.Logger) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			locs, err := a.ListExports(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			if len(locs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No exports saved")
				return nil
			}
			for _, loc := range locs {
				fmt.Fprintln(cmd.OutOrStdout(), loc)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportsCmd)
}
