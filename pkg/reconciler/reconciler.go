package reconciler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ndi/ingress-controller/pkg/config"
	"github.com/ndi/ingress-controller/pkg/crypto"
	"github.com/ndi/ingress-controller/pkg/ingressview"
	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/metrics"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

// NginxInterval is the sleep between ensureNginxService iterations in the
// main loop (spec §4.6 step 5). A var, not a const, so tests can shrink it.
var NginxInterval = 10 * time.Second

// DH parameter lifetime and renewal threshold, invariant I7: generated
// with a 28-day expiry, regenerated once fewer than 7 days remain.
const (
	DHParamBits             = 4096
	DHParamLifetime         = 28 * 24 * time.Hour
	DHParamRenewalThreshold = 7 * 24 * time.Hour
)

const labelPrefix = "nginx-ingress."

// Reconciler runs the fixed-order bootstrap steps and the steady-state
// ensureNginxService loop of spec.md §4.6 against one orchestrator and
// cluster config.
type Reconciler struct {
	Orchestrator orchestrator.Orchestrator
	Crypto       crypto.Crypto
	Namespace    string
	Cluster      config.Cluster

	// workloadCommand builds the argv for a workload this reconciler
	// launches (account bootstrap, observe worker); overridable by tests
	// so they never depend on a real image's entrypoint.
	workloadCommand func(subcommand string) []string
}

// NewReconciler returns a Reconciler whose bootstrap workloads invoke
// this binary as "controller observe <subcommand>" (spec.md §6's process
// surface), matching how cmd/controller wires cluster config into an
// actual Swarm service command.
func NewReconciler(o orchestrator.Orchestrator, cr crypto.Crypto, namespace string, cluster config.Cluster) *Reconciler {
	return &Reconciler{
		Orchestrator: o,
		Crypto:       cr,
		Namespace:    namespace,
		Cluster:      cluster,
		workloadCommand: func(subcommand string) []string {
			return []string{"controller", "observe", subcommand}
		},
	}
}

// Run executes the four one-time bootstrap steps in order, then loops
// ensureNginxService with NginxInterval between passes until ctx is
// cancelled. This is "controller reconcile"'s entire body.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.ensureAccount(ctx); err != nil {
		return fmt.Errorf("reconciler: %w", err)
	}
	if err := r.ensureDhparams(ctx); err != nil {
		return fmt.Errorf("reconciler: %w", err)
	}
	if err := r.ensureRobot(ctx); err != nil {
		return fmt.Errorf("reconciler: %w", err)
	}
	if err := r.ensureChallenge(ctx); err != nil {
		return fmt.Errorf("reconciler: %w", err)
	}

	logger := log.WithComponent("reconciler")
	ticker := time.NewTicker(NginxInterval)
	defer ticker.Stop()
	for {
		if err := r.reconcileNginxPass(ctx); err != nil {
			logger.Error().Err(err).Msg("reconcile pass failed, retrying next tick")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Reconciler) reconcileNginxPass(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()
	return r.ensureNginxService(ctx)
}

func (r *Reconciler) acctSecretName() string {
	return r.Namespace + ".acct"
}

// ensureAccount implements spec.md §4.6 step 1: if the account secret
// already exists, nothing to do. Otherwise launch the short-lived
// bootstrap workload, wait for it to reach complete (failed aborts the
// pass), then remove it — it must never linger as a permanent service.
func (r *Reconciler) ensureAccount(ctx context.Context) error {
	if _, err := r.Orchestrator.GetSecret(ctx, r.acctSecretName()); err == nil {
		return nil
	} else if !orchestrator.NotFound(err) {
		return fmt.Errorf("ensureAccount: %w", err)
	}

	workload := r.Cluster.Services.Account
	spec := orchestrator.ServiceSpec{
		Name:                workload.Name,
		Image:               workload.Image,
		Command:             r.workloadCommand("ensure-account"),
		Constraints:         workload.Constraints,
		Labels:              workload.Labels,
		Mode:                orchestrator.ServiceModeReplicated,
		Replicas:            uint64Ptr(1),
		RestartOnCompletion: false,
	}
	if err := r.Orchestrator.EnsureService(ctx, spec); err != nil {
		return fmt.Errorf("ensureAccount: create bootstrap workload: %w", err)
	}

	ok, err := r.Orchestrator.WaitForState(ctx, workload.Name, orchestrator.TaskStateComplete, []orchestrator.TaskState{orchestrator.TaskStateFailed})
	if err != nil {
		return fmt.Errorf("ensureAccount: wait for bootstrap workload: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: account bootstrap workload %s reached a failed state", orchestrator.ErrACMEFailure, workload.Name)
	}

	if err := r.Orchestrator.RemoveService(ctx, workload.Name); err != nil {
		return fmt.Errorf("ensureAccount: remove completed bootstrap workload: %w", err)
	}
	log.WithComponent("reconciler").Info().Msg("ACME account bootstrapped")
	return nil
}

// ensureDhparams implements spec.md §4.6 step 2 and invariant I7.
func (r *Reconciler) ensureDhparams(ctx context.Context) error {
	store := orchestrator.SecretStore(r.Orchestrator, r.Namespace+".dhparam.")
	entry, version, ok, err := store.Latest()
	if err != nil {
		return fmt.Errorf("ensureDhparams: %w", err)
	}
	if ok {
		expiresRaw, hasExpires := entry.Labels["expires"]
		if !hasExpires {
			return fmt.Errorf("%w: dhparam.%d has no expires label", orchestrator.ErrInvariant, version)
		}
		unixSeconds, err := strconv.ParseInt(expiresRaw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: dhparam.%d expires label %q is not an integer", orchestrator.ErrInvariant, version, expiresRaw)
		}
		if time.Until(time.Unix(unixSeconds, 0)) >= DHParamRenewalThreshold {
			return nil
		}
	}

	pem, err := r.Crypto.GenerateDHParams(ctx, DHParamBits)
	if err != nil {
		return fmt.Errorf("ensureDhparams: generate: %w", err)
	}
	expires := time.Now().Add(DHParamLifetime)
	if _, err := store.Write(pem, map[string]string{"expires": strconv.FormatInt(expires.Unix(), 10)}); err != nil {
		return fmt.Errorf("ensureDhparams: write: %w", err)
	}
	metrics.DHParamRegenerationsTotal.Inc()
	log.WithComponent("reconciler").Info().Time("expires", expires).Msg("regenerated DH parameters")
	return nil
}

// ensureRobot implements spec.md §4.6 step 3: tear down any previous
// observe-worker workload and recreate it with the account secret
// mounted, running the observe loop indefinitely (RestartOnCompletion,
// unlike the one-shot bootstrap job).
func (r *Reconciler) ensureRobot(ctx context.Context) error {
	workload := r.Cluster.Services.Robot
	if err := r.Orchestrator.RemoveService(ctx, workload.Name); err != nil {
		return fmt.Errorf("ensureRobot: remove previous workload: %w", err)
	}
	spec := orchestrator.ServiceSpec{
		Name:        workload.Name,
		Image:       workload.Image,
		Command:     r.workloadCommand("observe-and-obey"),
		Constraints: workload.Constraints,
		Labels:      workload.Labels,
		Secrets: []orchestrator.SecretRef{
			{SecretName: r.acctSecretName(), Target: "acct", Mode: 0o440},
		},
		Mode:                orchestrator.ServiceModeReplicated,
		Replicas:            uint64Ptr(1),
		RestartOnCompletion: true,
	}
	if err := r.Orchestrator.EnsureService(ctx, spec); err != nil {
		return fmt.Errorf("ensureRobot: create workload: %w", err)
	}
	return nil
}

// ensureChallenge implements spec.md §4.6 step 4: tear down any previous
// challenge-responder workload and recreate it attached to the ingress
// network, so the reverse proxy can reach it.
func (r *Reconciler) ensureChallenge(ctx context.Context) error {
	workload := r.Cluster.Services.Challenge
	if err := r.Orchestrator.RemoveService(ctx, workload.Name); err != nil {
		return fmt.Errorf("ensureChallenge: remove previous workload: %w", err)
	}
	spec := orchestrator.ServiceSpec{
		Name:                workload.Name,
		Image:               workload.Image,
		Networks:            []string{r.ingressNetwork()},
		Constraints:         workload.Constraints,
		Labels:              workload.Labels,
		Mode:                orchestrator.ServiceModeReplicated,
		Replicas:            uint64Ptr(1),
		RestartOnCompletion: true,
	}
	if err := r.Orchestrator.EnsureService(ctx, spec); err != nil {
		return fmt.Errorf("ensureChallenge: create workload: %w", err)
	}
	return nil
}

// ingressNetwork is the network the challenge responder and the reverse
// proxy share: the nginx role's first configured network, or "ingress"
// if cluster config leaves that unset.
func (r *Reconciler) ingressNetwork() string {
	if len(r.Cluster.Services.Nginx.Networks) > 0 {
		return r.Cluster.Services.Nginx.Networks[0]
	}
	return "ingress"
}

// ensureNginxService implements spec.md §4.6's ensureNginxService:
// enumerate labelled services, render the proxy config, content-address
// it (I4), collect the secret-reference set every mounted cert pair
// belongs to (I2/I3), and ensure the reverse-proxy service converges to
// running.
func (r *Reconciler) ensureNginxService(ctx context.Context) error {
	logger := log.WithComponent("reconciler")

	services, err := r.Orchestrator.ListLabelledServices(ctx, labelPrefix)
	if err != nil {
		return fmt.Errorf("ensureNginxService: list labelled services: %w", err)
	}
	metrics.ManagedServicesTotal.Set(float64(len(services)))

	views := make([]*ingressview.View, 0, len(services))
	renewable := 0
	for _, svc := range services {
		view, err := ingressview.New(svc, r.Orchestrator, r.Namespace)
		if err != nil {
			logger.Warn().Err(err).Str("service_id", svc.ID).Msg("skipping service with invalid ingress labels")
			continue
		}
		views = append(views, view)
		if view.AcmeSSL {
			if ok, err := view.CertRenewable(); err == nil && ok {
				renewable++
			}
		}
	}
	metrics.CertificatesRenewableTotal.Set(float64(renewable))

	rendered, err := ingressview.Render(ingressview.RenderInput{Views: views, ClusterCfg: r.Cluster})
	if err != nil {
		return fmt.Errorf("ensureNginxService: render: %w", err)
	}
	confName := r.Namespace + "." + rendered.SecretName
	if _, err := r.Orchestrator.GetSecret(ctx, confName); err != nil {
		if !orchestrator.NotFound(err) {
			return fmt.Errorf("ensureNginxService: lookup config secret %s: %w", confName, err)
		}
		if err := r.Orchestrator.WriteSecret(ctx, confName, rendered.Bytes, nil); err != nil {
			return fmt.Errorf("ensureNginxService: write config secret %s: %w", confName, err)
		}
		metrics.ProxyConfigWritesTotal.Inc()
	}

	secretRefs := []orchestrator.SecretRef{
		{SecretName: confName, Target: "nginx.conf", Mode: 0o440},
	}

	dhStore := orchestrator.SecretStore(r.Orchestrator, r.Namespace+".dhparam.")
	if dhEntry, _, ok, err := dhStore.Latest(); err != nil {
		return fmt.Errorf("ensureNginxService: latest dhparam: %w", err)
	} else if ok {
		secretRefs = append(secretRefs, orchestrator.SecretRef{SecretName: dhEntry.Name, Target: "ssl-dhparams.pem", Mode: 0o440})
	} else {
		logger.Warn().Msg("no dhparam secret exists yet, nginx will start without one")
	}

	for _, view := range views {
		pair, ok, err := view.LatestCertPair()
		if err != nil {
			return fmt.Errorf("ensureNginxService: cert pair for %s: %w", view.ServiceID, err)
		}
		if !ok {
			continue
		}
		secretRefs = append(secretRefs,
			orchestrator.SecretRef{SecretName: pair.Self.Name, Target: fmt.Sprintf("svc.%s.key.%d", view.ServiceID, pair.Version), Mode: 0o440},
			orchestrator.SecretRef{SecretName: pair.Other.Name, Target: fmt.Sprintf("svc.%s.crt.%d", view.ServiceID, pair.Version), Mode: 0o440},
		)
	}

	spec, err := r.nginxServiceSpec(secretRefs)
	if err != nil {
		return fmt.Errorf("ensureNginxService: %w", err)
	}
	if err := r.Orchestrator.EnsureService(ctx, spec); err != nil {
		return fmt.Errorf("ensureNginxService: ensure service: %w", err)
	}

	ok, err := r.Orchestrator.WaitForState(ctx, spec.Name, orchestrator.TaskStateRunning, []orchestrator.TaskState{orchestrator.TaskStateFailed})
	if err != nil {
		return fmt.Errorf("ensureNginxService: wait for running: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: nginx service %s reached a failed task state", orchestrator.ErrInvariant, spec.Name)
	}
	return nil
}

func (r *Reconciler) nginxServiceSpec(secretRefs []orchestrator.SecretRef) (orchestrator.ServiceSpec, error) {
	nginx := r.Cluster.Services.Nginx

	publishMode := orchestrator.PublishModeIngress
	switch nginx.PortMode {
	case "host":
		publishMode = orchestrator.PublishModeHost
	case "none":
		publishMode = orchestrator.PublishModeNone
	case "", "ingress":
	default:
		return orchestrator.ServiceSpec{}, fmt.Errorf("%w: unknown port_mode %q", orchestrator.ErrValidation, nginx.PortMode)
	}

	var ports []orchestrator.PortSpec
	if publishMode != orchestrator.PublishModeNone {
		ports = []orchestrator.PortSpec{
			{Name: "http", TargetPort: 80, PublishedPort: nginx.Ports.HTTP, Protocol: "tcp", PublishMode: publishMode},
			{Name: "https", TargetPort: 443, PublishedPort: nginx.Ports.HTTPS, Protocol: "tcp", PublishMode: publishMode},
		}
	}

	var placement []orchestrator.PlacementPreference
	for _, p := range nginx.Preferences {
		placement = append(placement, orchestrator.PlacementPreference{Strategy: p.Strategy, Descriptor: p.Descriptor})
	}

	mode := orchestrator.ServiceModeReplicated
	if nginx.ServiceMode == "global" {
		mode = orchestrator.ServiceModeGlobal
	}

	networks := nginx.Networks
	if len(networks) == 0 {
		networks = []string{r.ingressNetwork()}
	}
	if nginx.AttachToHostNetwork {
		networks = append(networks, "host")
	}

	return orchestrator.ServiceSpec{
		Name:                nginx.Name,
		Image:               nginx.Image,
		Networks:            networks,
		Secrets:             secretRefs,
		Constraints:         nginx.Constraints,
		Labels:              nginx.Labels,
		Placement:           placement,
		Mode:                mode,
		Replicas:            nginx.Replicas,
		MaxReplicas:         nginx.MaxReplicas,
		Ports:               ports,
		RestartOnCompletion: true,
	}, nil
}

func uint64Ptr(n uint64) *uint64 { return &n }
