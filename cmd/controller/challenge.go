package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ndi/ingress-controller/pkg/challenge"
	"github.com/ndi/ingress-controller/pkg/config"
	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// challengeCmd is the challenge-responder workload's entrypoint
// (spec.md §4.4/§4.6 step 4, "runs as an independent process"). It is
// the default command of the image named in cluster config's
// services.challenge, so ensureChallenge never needs to pass an
// explicit Command.
var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Run the HTTP-01 challenge responder on port 80",
	RunE:  runChallenge,
}

func init() {
	rootCmd.AddCommand(challengeCmd)
}

func runChallenge(cmd *cobra.Command, _ []string) error {
	logger := log.WithComponent("cmd")

	bootstrap, err := config.LoadBootstrap(bootstrapPath)
	if err != nil {
		return fmt.Errorf("load bootstrap config: %w", err)
	}
	if bootstrap.DockerHost != "" {
		_ = os.Setenv("DOCKER_HOST", bootstrap.DockerHost)
	}

	o, err := orchestrator.NewDocker()
	if err != nil {
		return fmt.Errorf("connect to orchestrator: %w", err)
	}

	srv := challenge.New(o, bootstrap.Namespace)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", bootstrap.ChallengeAddr).Msg("challenge responder listening")
	if err := srv.ListenAndServe(ctx, bootstrap.ChallengeAddr); err != nil {
		return fmt.Errorf("challenge responder: %w", err)
	}
	logger.Info().Msg("challenge responder stopped")
	return nil
}
