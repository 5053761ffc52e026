package acmeagent

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/ndi/ingress-controller/pkg/acmeclient"
	"github.com/ndi/ingress-controller/pkg/crypto"
	"github.com/ndi/ingress-controller/pkg/ingressview"
	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/metrics"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

// Agent runs ACMEAgent orders against one ACME account and orchestrator.
type Agent struct {
	ACME         acmeclient.ACMEClient
	Crypto       crypto.Crypto
	Orchestrator orchestrator.Orchestrator
	Namespace    string
}

// Issue runs the full spec.md §4.5 workflow for view, using acc as the
// ACME account. It returns the version the new key/cert pair was
// written at. Any failure aborts without writing partial state; the
// caller (the observe worker) retries on its next tick.
func (a *Agent) Issue(ctx context.Context, view *ingressview.View, acc *acmeclient.Account) (version int, err error) {
	timer := metrics.NewTimer()
	o := newOrder(view.ServiceID, view.Hosts)
	logger := log.WithComponent("acmeagent").With().Str("service_id", view.ServiceID).Str("order_id", o.id).Logger()
	defer func() {
		outcome := "issued"
		if err != nil {
			outcome = "failed"
			o.transition(StateFailed)
		}
		metrics.ACMEOrdersTotal.WithLabelValues(outcome).Inc()
		timer.ObserveDuration(metrics.ACMEOrderDuration)
	}()

	if len(view.Hosts) == 0 {
		return 0, fmt.Errorf("%w: service %s: acmeagent.Issue requires at least one host", orchestrator.ErrValidation, view.ServiceID)
	}

	// Step 1: nextVersion = (latest_cert_version ?? -1) + 1. Keys and
	// certs are written at the same version, so compute it once from
	// whichever store is ahead.
	nextVersion, err := nextSharedVersion(view)
	if err != nil {
		return 0, err
	}

	key, err := a.Crypto.GeneratePrivateKey()
	if err != nil {
		return 0, fmt.Errorf("acmeagent: generate key for %s: %w", view.ServiceID, err)
	}
	csr, err := a.Crypto.CreateCSR(key, view.Hosts)
	if err != nil {
		return 0, fmt.Errorf("acmeagent: create CSR for %s: %w", view.ServiceID, err)
	}

	o.transition(StateChallenging)
	publish := func(ctx context.Context, token, keyAuth string) error {
		// Step 3: write challange.<token> before the authorization is
		// triggered (invariant I5).
		name := fmt.Sprintf("%s.challange.%s", a.Namespace, token)
		encoded := base64.StdEncoding.EncodeToString([]byte(keyAuth))
		if err := a.Orchestrator.WriteConfig(ctx, name, []byte(encoded), nil); err != nil {
			return fmt.Errorf("%w: publish challenge %s: %v", orchestrator.ErrACMEFailure, token, err)
		}
		return nil
	}

	o.transition(StateReady)
	o.transition(StateFinalizing)
	certPEM, notAfter, err := a.ACME.ObtainCertificate(ctx, acc, view.Hosts, csr, publish)
	if err != nil {
		logger.Error().Err(err).Msg("ACME order failed")
		return 0, fmt.Errorf("%w: %v", orchestrator.ErrACMEFailure, err)
	}
	o.transition(StateValid)

	keyPEM, err := crypto.EncodePrivateKeyPEM(key)
	if err != nil {
		return 0, fmt.Errorf("acmeagent: encode private key for %s: %w", view.ServiceID, err)
	}

	// Step 9: defensive delete — these names should not exist yet since
	// nextVersion was freshly computed, but delete-then-create is the
	// orchestrator's own write contract.
	keyName := view.Keys.NameAt(nextVersion)
	certName := view.Certs.NameAt(nextVersion)
	if err := a.Orchestrator.DeleteSecret(ctx, keyName); err != nil {
		return 0, fmt.Errorf("acmeagent: defensive delete %s: %w", keyName, err)
	}
	if err := a.Orchestrator.DeleteSecret(ctx, certName); err != nil {
		return 0, fmt.Errorf("acmeagent: defensive delete %s: %w", certName, err)
	}

	if err := a.Orchestrator.WriteSecret(ctx, keyName, keyPEM, nil); err != nil {
		return 0, fmt.Errorf("acmeagent: write key for %s: %w", view.ServiceID, err)
	}
	expiresLabel := map[string]string{"expires": strconv.FormatInt(notAfter.Unix(), 10)}
	if err := a.Orchestrator.WriteSecret(ctx, certName, certPEM, expiresLabel); err != nil {
		_ = a.Orchestrator.DeleteSecret(ctx, keyName)
		return 0, fmt.Errorf("acmeagent: write cert for %s: %w", view.ServiceID, err)
	}

	logger.Info().Int("version", nextVersion).Time("expires", notAfter).Msg("certificate issued")
	return nextVersion, nil
}

// nextSharedVersion computes the version the new key+cert pair must use:
// one past the higher of the two stores' current max versions, so a
// partially-written previous attempt (key written, cert write failed)
// can't collide with the new pair.
func nextSharedVersion(view *ingressview.View) (int, error) {
	keyNext, err := view.Keys.NextVersion()
	if err != nil {
		return 0, fmt.Errorf("acmeagent: %w", err)
	}
	certNext, err := view.Certs.NextVersion()
	if err != nil {
		return 0, fmt.Errorf("acmeagent: %w", err)
	}
	if keyNext > certNext {
		return keyNext, nil
	}
	return certNext, nil
}
