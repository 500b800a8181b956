package cmd

import (
	"github.com/spf13/cobra"

	"otagent/internal/logger"
)

var (
	verbose bool
	log     = logger.New()
)

var rootCmd = &cobra.Command{
	Use:   "otagent",
	Short: "otagent - a multiplexing RPC agent in front of the transaction engine",
	Long: `otagent sits between remote clients and an embedded financial-transaction
engine. It authenticates clients over CurveZMQ, dispatches their requests to
a worker pool, and pushes asynchronous task and nym events back to the
right client connection.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetSilentMode(false)
		if verbose {
			logger.SetLevel(logger.LOG_DEBUG)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(keysCmd)
}
