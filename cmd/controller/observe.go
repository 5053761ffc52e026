package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ndi/ingress-controller/pkg/acmeagent"
	"github.com/ndi/ingress-controller/pkg/acmeclient"
	"github.com/ndi/ingress-controller/pkg/config"
	"github.com/ndi/ingress-controller/pkg/crypto"
	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
	"github.com/ndi/ingress-controller/pkg/reconciler"
	"github.com/spf13/cobra"
)

var observeCmd = &cobra.Command{
	Use:       "observe [ensure-account|observe-and-obey]",
	Short:     "Run one of the two observe-worker subcommands (spec.md §6 process surface)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"ensure-account", "observe-and-obey"},
	RunE:      runObserve,
}

func runObserve(cmd *cobra.Command, args []string) error {
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
	cluster, err := config.LoadCluster(o, bootstrap.Namespace)
	if err != nil {
		return fmt.Errorf("load cluster config: %w", err)
	}
	acmeClient := acmeclient.New(cluster.ACME.DirectoryURL)

	switch args[0] {
	case "ensure-account":
		if err := reconciler.BootstrapAccount(cmd.Context(), o, acmeClient, bootstrap.Namespace, cluster); err != nil {
			return fmt.Errorf("ensure-account: %w", err)
		}
		logger.Info().Msg("account bootstrap complete")
		return nil

	case "observe-and-obey":
		agent := &acmeagent.Agent{
			ACME:         acmeClient,
			Crypto:       crypto.New(),
			Orchestrator: o,
			Namespace:    bootstrap.Namespace,
		}
		obs := reconciler.NewObserver(o, agent, bootstrap.Namespace)
		if bootstrap.ObserveInterval > 0 {
			reconciler.ObserveInterval = bootstrap.ObserveInterval
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runObserver(ctx, obs)

	default:
		return fmt.Errorf("observe: unknown subcommand %q, want ensure-account or observe-and-obey", args[0])
	}
}

func runObserver(ctx context.Context, obs *reconciler.Observer) error {
	log.WithComponent("cmd").Info().Msg("observe worker starting")
	err := obs.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}
	log.WithComponent("cmd").Info().Msg("observe worker stopped")
	return nil
}
