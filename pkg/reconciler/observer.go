package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ndi/ingress-controller/pkg/acmeagent"
	"github.com/ndi/ingress-controller/pkg/acmeclient"
	"github.com/ndi/ingress-controller/pkg/ingressview"
	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

// ObserveInterval is the observe worker's tick cadence (spec.md §4.6's
// "observe worker ... loops every 10 s").
var ObserveInterval = 10 * time.Second

// Observer is the ensureRobot workload's command body: it loads the ACME
// account once, then on every tick classifies each acmeSsl-opted-in
// service as new/renew/skip and runs ACMEAgent concurrently across the
// classified set.
type Observer struct {
	Orchestrator orchestrator.Orchestrator
	Agent        *acmeagent.Agent
	Namespace    string
}

// NewObserver builds an Observer that lists services on o and issues
// certificates through agent, reading secrets under namespace.
func NewObserver(o orchestrator.Orchestrator, agent *acmeagent.Agent, namespace string) *Observer {
	return &Observer{Orchestrator: o, Agent: agent, Namespace: namespace}
}

// LoadAccount reads the "<ns>.acct" secret that the ensure-account
// bootstrap job wrote and decodes it. observe-and-obey depends on this
// secret existing first; ensure-account is the step that writes it.
func (o *Observer) LoadAccount(ctx context.Context) (*acmeclient.Account, error) {
	entry, err := o.Orchestrator.GetSecret(ctx, o.Namespace+".acct")
	if err != nil {
		return nil, fmt.Errorf("observer: load account: %w", err)
	}
	acc, err := acmeclient.UnmarshalAccount(entry.Data)
	if err != nil {
		return nil, fmt.Errorf("observer: decode account: %w", err)
	}
	return acc, nil
}

// Run loads the account once, then loops ObserveInterval forever,
// running one classify-and-issue tick each time, until ctx is cancelled.
// A failed account load is fatal (spec.md §4.6: "If load fails, log and
// exit") — there is no retry, since the account secret only appears once
// and ensureAccount already guarantees it exists before ensureRobot
// starts this workload.
func (o *Observer) Run(ctx context.Context) error {
	logger := log.WithComponent("observer")
	acc, err := o.LoadAccount(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load ACME account, exiting")
		return err
	}

	ticker := time.NewTicker(ObserveInterval)
	defer ticker.Stop()
	for {
		o.tick(ctx, acc)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// classification is one service's ACME issuance intent for this tick.
type classification string

const (
	classifyNew   classification = "new"
	classifySkip  classification = "skip"
	classifyRenew classification = "renew"
)

// tick runs one classify-and-issue pass: every acmeSsl-labelled service
// is classified independently, then every non-skip service's ACMEAgent
// order runs concurrently (spec.md §4.6/§5: "per-service ACME issuance
// ... different services run concurrently").
func (o *Observer) tick(ctx context.Context, acc *acmeclient.Account) {
	logger := log.WithComponent("observer")

	services, err := o.Orchestrator.ListLabelledServices(ctx, labelPrefix)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list labelled services")
		return
	}

	var wg sync.WaitGroup
	for _, svc := range services {
		view, err := ingressview.New(svc, o.Orchestrator, o.Namespace)
		if err != nil {
			logger.Warn().Err(err).Str("service_id", svc.ID).Msg("skipping service with invalid ingress labels")
			continue
		}
		if !view.AcmeSSL {
			continue
		}

		class, err := o.classify(view)
		if err != nil {
			logger.Warn().Err(err).Str("service_id", svc.ID).Msg("failed to classify certificate state")
			continue
		}
		if class == classifySkip {
			continue
		}

		wg.Add(1)
		go func(v *ingressview.View, c classification) {
			defer wg.Done()
			if _, err := o.Agent.Issue(ctx, v, acc); err != nil {
				logger.Error().Err(err).Str("service_id", v.ServiceID).Str("classification", string(c)).Msg("ACME order failed")
			}
		}(view, class)
	}
	wg.Wait()
}

// classify implements spec.md §4.6's observe worker classification:
// "new" when no cert pair exists yet, "renew" when CertRenewable (I6),
// "skip" otherwise.
func (o *Observer) classify(view *ingressview.View) (classification, error) {
	_, ok, err := view.LatestCertPair()
	if err != nil {
		return classifySkip, err
	}
	if !ok {
		return classifyNew, nil
	}
	renewable, err := view.CertRenewable()
	if err != nil {
		return classifySkip, err
	}
	if renewable {
		return classifyRenew, nil
	}
	return classifySkip, nil
}
