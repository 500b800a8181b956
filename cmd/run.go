package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"otagent/internal/agentcore"
	"otagent/internal/bootstrap"
	"otagent/internal/engine"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap.Load(configPath)
		if err != nil {
			return err
		}

		// The engine is an external collaborator named by interface only;
		// this binary wires an in-memory stand-in so `run` is
		// self-contained. A real deployment links an implementation of
		// internal/engine.Engine against the actual transaction engine.
		pushEndpoint := "inproc://opentxs/agent/rpc/push"
		eng := engine.NewMockEngine(pushEndpoint)

		orch, err := agentcore.Start(cfg, eng)
		if err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return orch.Shutdown(ctx)
	},
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "otagent.yaml", "path to the agent's bootstrap config file")
}
