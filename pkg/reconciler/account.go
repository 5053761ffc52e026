package reconciler

import (
	"context"
	"fmt"

	"github.com/ndi/ingress-controller/pkg/acmeclient"
	"github.com/ndi/ingress-controller/pkg/config"
	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

// BootstrapAccount is the account-bootstrap workload's entire body
// (spec.md §4.6 step 1, §6 process surface "ensure-account"): register a
// fresh ACME account against acme.email/acme.accept_tos and write it to
// the "<ns>.acct" secret. It does not check whether the secret already
// exists — the Reconciler only launches this workload when it doesn't.
func BootstrapAccount(ctx context.Context, o orchestrator.Orchestrator, acme acmeclient.ACMEClient, namespace string, cluster config.Cluster) error {
	logger := log.WithComponent("ensure-account")

	if !cluster.ACME.AcceptTOS {
		return fmt.Errorf("%w: acme.accept_tos must be true to bootstrap an account", orchestrator.ErrValidation)
	}

	acc, err := acme.Register(ctx, cluster.ACME.Email)
	if err != nil {
		return fmt.Errorf("%w: register ACME account: %v", orchestrator.ErrACMEFailure, err)
	}

	data, err := acmeclient.MarshalAccount(acc)
	if err != nil {
		return fmt.Errorf("bootstrap account: %w", err)
	}
	if err := o.WriteSecret(ctx, namespace+".acct", data, nil); err != nil {
		return fmt.Errorf("bootstrap account: write acct secret: %w", err)
	}

	logger.Info().Str("email", cluster.ACME.Email).Msg("ACME account registered")
	return nil
}
