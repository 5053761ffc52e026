package orchestrator

import (
	"context"
	"time"

	"github.com/ndi/ingress-controller/pkg/versionstore"
)

// Orchestrator is the adapter boundary between the controller and the
// cluster it manages (spec §4.2). The controller keeps no durable local
// state of its own: everything it knows about the world is re-read
// through this interface on every reconcile/observe pass.
//
// Two implementations exist: Docker, backed by a live Swarm manager
// connection, and Memory, an in-process fake used by every other
// package's tests.
type Orchestrator interface {
	// ListLabelledServices returns every service carrying at least one
	// label with the given prefix (e.g. "nginx-ingress.").
	ListLabelledServices(ctx context.Context, labelPrefix string) ([]ManagedService, error)

	// GetSecret returns one secret's content by exact name. Returns
	// ErrNotFound if no secret with that name exists.
	GetSecret(ctx context.Context, name string) (versionstore.Entry, error)
	// GetConfig is GetSecret's counterpart for orchestrator configs.
	GetConfig(ctx context.Context, name string) (versionstore.Entry, error)

	// ListSecrets returns every secret whose name starts with prefix.
	ListSecrets(ctx context.Context, prefix string) ([]versionstore.Entry, error)
	// ListConfigs is ListSecrets' counterpart for configs.
	ListConfigs(ctx context.Context, prefix string) ([]versionstore.Entry, error)

	// WriteSecret creates a new secret named name. Orchestrator secrets
	// are immutable once created (spec §4.2): if an entry with that exact
	// name already exists, WriteSecret deletes it first, then creates the
	// replacement. Every versioned name this controller ever writes is
	// new (NextVersion monotonically increases), so the delete branch
	// only fires when a caller reuses a fixed name such as "<ns>.acct".
	WriteSecret(ctx context.Context, name string, data []byte, labels map[string]string) error
	// WriteConfig is WriteSecret's counterpart for configs.
	WriteConfig(ctx context.Context, name string, data []byte, labels map[string]string) error

	// DeleteSecret removes a secret by name. Deleting a name that does
	// not exist is not an error.
	DeleteSecret(ctx context.Context, name string) error
	// DeleteConfig is DeleteSecret's counterpart for configs.
	DeleteConfig(ctx context.Context, name string) error

	// EnsureService creates the named service if absent, or updates it in
	// place (new task spec revision) if it already exists. It
	// never deletes and recreates a running service: Swarm's own rolling
	// update handles convergence.
	EnsureService(ctx context.Context, spec ServiceSpec) error

	// RemoveService tears down a service by name. Removing a name that
	// does not exist is not an error — ensureRobot/ensureChallenge/
	// ensureAccount call this unconditionally before recreating their
	// workload.
	RemoveService(ctx context.Context, name string) error

	// WaitForState polls every 5 seconds until the set of live (non-
	// shutdown-desired) task states for serviceName equals {desired},
	// returning true — or until any task is observed in one of the
	// invalid states, returning false. It imposes no global timeout of
	// its own; ctx cancellation is the only way to bound it externally.
	WaitForState(ctx context.Context, serviceName string, desired TaskState, invalid []TaskState) (bool, error)
}

// secretBackend and configBackend adapt an Orchestrator to
// versionstore.Backend so pkg/ingressview and pkg/acmeagent can obtain a
// *versionstore.Store without depending on Orchestrator directly.

type secretBackend struct {
	o Orchestrator
}

func (b secretBackend) List(prefix string) ([]versionstore.Entry, error) {
	return b.o.ListSecrets(context.Background(), prefix)
}

func (b secretBackend) Create(name string, data []byte, labels map[string]string) error {
	return b.o.WriteSecret(context.Background(), name, data, labels)
}

type configBackend struct {
	o Orchestrator
}

func (b configBackend) List(prefix string) ([]versionstore.Entry, error) {
	return b.o.ListConfigs(context.Background(), prefix)
}

func (b configBackend) Create(name string, data []byte, labels map[string]string) error {
	return b.o.WriteConfig(context.Background(), name, data, labels)
}

// SecretStore returns a VersionedStore over secrets named "<prefix><N>".
func SecretStore(o Orchestrator, prefix string) *versionstore.Store {
	return versionstore.New(secretBackend{o: o}, prefix)
}

// ConfigStore returns a VersionedStore over configs named "<prefix><N>".
func ConfigStore(o Orchestrator, prefix string) *versionstore.Store {
	return versionstore.New(configBackend{o: o}, prefix)
}

// pollInterval is how often WaitForState re-checks task state. It is a
// var, not a const, so tests can shrink it.
var pollInterval = 5 * time.Second
