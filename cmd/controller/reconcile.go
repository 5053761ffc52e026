package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ndi/ingress-controller/pkg/config"
	"github.com/ndi/ingress-controller/pkg/crypto"
	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/metrics"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
	"github.com/ndi/ingress-controller/pkg/reconciler"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the reconcile loop: bootstrap ACME/dhparam/workloads, then keep the nginx service converged",
	Long: `reconcile runs the controller's main loop: the four one-time
bootstrap steps (account, dhparam, observe worker, challenge responder),
then an indefinite loop that re-renders the nginx configuration for every
"nginx-ingress.*" labelled service and keeps the reverse-proxy service
converged to it.`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, _ []string) error {
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

	if bootstrap.ReconcileInterval > 0 {
		reconciler.NginxInterval = bootstrap.ReconcileInterval
	}

	go func() {
		http.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(bootstrap.MetricsAddr, nil); err != nil && err != http.ErrServerClosed {
			logger.Warn().Err(err).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", bootstrap.MetricsAddr).Msg("metrics endpoint listening")

	recon := reconciler.NewReconciler(o, crypto.New(), bootstrap.Namespace, cluster)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("reconciler starting")
	if err := recon.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("reconciler: %w", err)
	}
	logger.Info().Msg("reconciler stopped")
	return nil
}
