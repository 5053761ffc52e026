package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ndi/ingress-controller/pkg/versionstore"
)

// memoryPollInterval is Memory's WaitForState poll cadence. Much shorter
// than the Docker adapter's pollInterval since tests run it many times.
var memoryPollInterval = 10 * time.Millisecond

// Memory is an in-process Orchestrator fake. It never talks to a real
// cluster; it exists so every other package's tests can exercise
// reconcile/observe logic deterministically. It is safe for concurrent
// use.
type Memory struct {
	mu       sync.Mutex
	services map[string]ManagedService
	specs    map[string]ServiceSpec
	secrets  map[string]versionstore.Entry
	configs  map[string]versionstore.Entry
	states   map[string]TaskState // serviceName -> current task state
}

// NewMemory returns an empty Memory orchestrator.
func NewMemory() *Memory {
	return &Memory{
		services: make(map[string]ManagedService),
		specs:    make(map[string]ServiceSpec),
		secrets:  make(map[string]versionstore.Entry),
		configs:  make(map[string]versionstore.Entry),
		states:   make(map[string]TaskState),
	}
}

// AddService registers a service as if the cluster orchestrator had
// created it, for tests that drive the controller against pre-existing
// labelled workloads.
func (m *Memory) AddService(svc ManagedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[svc.ID] = svc
}

// SetTaskState lets a test simulate a service's tasks converging to a
// state, for exercising WaitForState.
func (m *Memory) SetTaskState(serviceName string, state TaskState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[serviceName] = state
}

func (m *Memory) ListLabelledServices(_ context.Context, labelPrefix string) ([]ManagedService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ManagedService
	for _, svc := range m.services {
		for k := range svc.Labels {
			if strings.HasPrefix(k, labelPrefix) {
				out = append(out, svc)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) GetSecret(_ context.Context, name string) (versionstore.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.secrets[name]
	if !ok {
		return versionstore.Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) GetConfig(_ context.Context, name string) (versionstore.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.configs[name]
	if !ok {
		return versionstore.Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) ListSecrets(_ context.Context, prefix string) ([]versionstore.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return listWithPrefix(m.secrets, prefix), nil
}

func (m *Memory) ListConfigs(_ context.Context, prefix string) ([]versionstore.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return listWithPrefix(m.configs, prefix), nil
}

func listWithPrefix(store map[string]versionstore.Entry, prefix string) []versionstore.Entry {
	var out []versionstore.Entry
	for name, e := range store {
		if strings.HasPrefix(name, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func (m *Memory) WriteSecret(_ context.Context, name string, data []byte, labels map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, name) // delete-then-create, per spec §4.2
	m.secrets[name] = versionstore.Entry{Name: name, Data: data, Labels: labels}
	return nil
}

func (m *Memory) WriteConfig(_ context.Context, name string, data []byte, labels map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.configs, name)
	m.configs[name] = versionstore.Entry{Name: name, Data: data, Labels: labels}
	return nil
}

func (m *Memory) DeleteSecret(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, name)
	return nil
}

func (m *Memory) DeleteConfig(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.configs, name)
	return nil
}

func (m *Memory) EnsureService(_ context.Context, spec ServiceSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specs[spec.Name] = spec
	if _, ok := m.states[spec.Name]; !ok {
		m.states[spec.Name] = TaskStateRunning
	}
	return nil
}

func (m *Memory) RemoveService(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.specs, name)
	delete(m.states, name)
	return nil
}

// Spec returns the ServiceSpec most recently passed to EnsureService, for
// assertions in tests.
func (m *Memory) Spec(name string) (ServiceSpec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.specs[name]
	return s, ok
}

// WaitForState polls every memoryPollInterval until the service's state
// (as last set by SetTaskState/EnsureService) matches desired, or one of
// invalid is observed, or ctx is cancelled. Tests that need a state
// transition mid-wait call SetTaskState from a separate goroutine.
func (m *Memory) WaitForState(ctx context.Context, serviceName string, desired TaskState, invalid []TaskState) (bool, error) {
	ticker := time.NewTicker(memoryPollInterval)
	defer ticker.Stop()
	for {
		m.mu.Lock()
		got, ok := m.states[serviceName]
		m.mu.Unlock()
		if ok {
			if got == desired {
				return true, nil
			}
			for _, bad := range invalid {
				if got == bad {
					return false, nil
				}
			}
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
