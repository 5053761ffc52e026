package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/client"

	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/versionstore"
)

// Docker adapts a live Swarm manager connection to Orchestrator. It is
// the only package that imports github.com/docker/docker: everything
// above this file deals in ManagedService/ServiceSpec/versionstore.Entry,
// never in swarm.Service or swarm.Secret directly.
type Docker struct {
	cli *client.Client

	// retries bounds the retry-with-backoff wrapper around read calls
	// (SPEC_FULL.md §5): a manager election or a momentary API hiccup
	// should not fail a whole reconcile pass.
	retries int
	backoff time.Duration
}

// NewDocker connects to the local Swarm manager using the standard
// DOCKER_HOST/TLS environment, matching how the Docker CLI itself
// resolves a daemon connection.
func NewDocker() (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: docker client: %v", ErrUnavailable, err)
	}
	return &Docker{cli: cli, retries: 3, backoff: 500 * time.Millisecond}, nil
}

// withRetry retries a read-only orchestrator call on transient failure.
// It never retries writes: a failed write must surface immediately so
// callers don't double-apply delete-then-create semantics.
func (d *Docker) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == d.retries {
			break
		}
		log.WithComponent("orchestrator.docker").Warn().
			Err(err).Str("op", op).Int("attempt", attempt+1).Msg("retrying after orchestrator read failure")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.backoff * time.Duration(attempt+1)):
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func (d *Docker) ListLabelledServices(ctx context.Context, labelPrefix string) ([]ManagedService, error) {
	var services []swarm.Service
	err := d.withRetry(ctx, "list services", func() error {
		var err error
		services, err = d.cli.ServiceList(ctx, client.ServiceListOptions{})
		return err
	})
	if err != nil {
		return nil, err
	}

	var out []ManagedService
	for _, svc := range services {
		labels := svc.Spec.Labels
		matched := false
		for k := range labels {
			if hasPrefix(k, labelPrefix) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		out = append(out, ManagedService{ID: svc.ID, Name: svc.Spec.Name, Labels: labels})
	}
	return out, nil
}

func (d *Docker) GetSecret(ctx context.Context, name string) (versionstore.Entry, error) {
	entries, err := d.listSecretsByNameFilter(ctx, name)
	if err != nil {
		return versionstore.Entry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return versionstore.Entry{}, ErrNotFound
}

func (d *Docker) GetConfig(ctx context.Context, name string) (versionstore.Entry, error) {
	entries, err := d.listConfigsByNameFilter(ctx, name)
	if err != nil {
		return versionstore.Entry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return versionstore.Entry{}, ErrNotFound
}

func (d *Docker) ListSecrets(ctx context.Context, prefix string) ([]versionstore.Entry, error) {
	all, err := d.listSecretsByNameFilter(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []versionstore.Entry
	for _, e := range all {
		if hasPrefix(e.Name, prefix) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *Docker) ListConfigs(ctx context.Context, prefix string) ([]versionstore.Entry, error) {
	all, err := d.listConfigsByNameFilter(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []versionstore.Entry
	for _, e := range all {
		if hasPrefix(e.Name, prefix) {
			out = append(out, e)
		}
	}
	return out, nil
}

// listSecretsByNameFilter lists secrets, optionally narrowed to one exact
// name via the API's name filter. Swarm never returns a secret's
// payload on list/inspect once written, so Entry.Data is always empty
// here; the controller only ever needs presence and labels for secrets.
func (d *Docker) listSecretsByNameFilter(ctx context.Context, name string) ([]versionstore.Entry, error) {
	opts := client.SecretListOptions{}
	if name != "" {
		opts.Filters = filters.NewArgs(filters.Arg("name", name))
	}
	var secrets []swarm.Secret
	err := d.withRetry(ctx, "list secrets", func() error {
		var err error
		secrets, err = d.cli.SecretList(ctx, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]versionstore.Entry, 0, len(secrets))
	for _, s := range secrets {
		out = append(out, versionstore.Entry{Name: s.Spec.Name, Labels: s.Spec.Labels})
	}
	return out, nil
}

func (d *Docker) listConfigsByNameFilter(ctx context.Context, name string) ([]versionstore.Entry, error) {
	opts := client.ConfigListOptions{}
	if name != "" {
		opts.Filters = filters.NewArgs(filters.Arg("name", name))
	}
	var configs []swarm.Config
	err := d.withRetry(ctx, "list configs", func() error {
		var err error
		configs, err = d.cli.ConfigList(ctx, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]versionstore.Entry, 0, len(configs))
	for _, c := range configs {
		out = append(out, versionstore.Entry{Name: c.Spec.Name, Data: c.Spec.Data, Labels: c.Spec.Labels})
	}
	return out, nil
}

func (d *Docker) WriteSecret(ctx context.Context, name string, data []byte, labels map[string]string) error {
	if err := d.DeleteSecret(ctx, name); err != nil {
		return err
	}
	spec := swarm.SecretSpec{
		Annotations: swarm.Annotations{Name: name, Labels: labels},
		Data:        data,
	}
	if _, err := d.cli.SecretCreate(ctx, spec); err != nil {
		return fmt.Errorf("%w: create secret %q: %v", ErrUnavailable, name, err)
	}
	return nil
}

func (d *Docker) WriteConfig(ctx context.Context, name string, data []byte, labels map[string]string) error {
	if err := d.DeleteConfig(ctx, name); err != nil {
		return err
	}
	spec := swarm.ConfigSpec{
		Annotations: swarm.Annotations{Name: name, Labels: labels},
		Data:        data,
	}
	if _, err := d.cli.ConfigCreate(ctx, spec); err != nil {
		return fmt.Errorf("%w: create config %q: %v", ErrUnavailable, name, err)
	}
	return nil
}

func (d *Docker) DeleteSecret(ctx context.Context, name string) error {
	id, err := d.secretIDByName(ctx, name)
	if err != nil {
		if NotFound(err) {
			return nil
		}
		return err
	}
	if err := d.cli.SecretRemove(ctx, id); err != nil {
		return fmt.Errorf("%w: remove secret %q: %v", ErrUnavailable, name, err)
	}
	return nil
}

func (d *Docker) DeleteConfig(ctx context.Context, name string) error {
	id, err := d.configIDByName(ctx, name)
	if err != nil {
		if NotFound(err) {
			return nil
		}
		return err
	}
	if err := d.cli.ConfigRemove(ctx, id); err != nil {
		return fmt.Errorf("%w: remove config %q: %v", ErrUnavailable, name, err)
	}
	return nil
}

func (d *Docker) secretIDByName(ctx context.Context, name string) (string, error) {
	opts := client.SecretListOptions{Filters: filters.NewArgs(filters.Arg("name", name))}
	var secrets []swarm.Secret
	err := d.withRetry(ctx, "lookup secret", func() error {
		var err error
		secrets, err = d.cli.SecretList(ctx, opts)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, s := range secrets {
		if s.Spec.Name == name {
			return s.ID, nil
		}
	}
	return "", ErrNotFound
}

func (d *Docker) configIDByName(ctx context.Context, name string) (string, error) {
	opts := client.ConfigListOptions{Filters: filters.NewArgs(filters.Arg("name", name))}
	var configs []swarm.Config
	err := d.withRetry(ctx, "lookup config", func() error {
		var err error
		configs, err = d.cli.ConfigList(ctx, opts)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, c := range configs {
		if c.Spec.Name == name {
			return c.ID, nil
		}
	}
	return "", ErrNotFound
}

func (d *Docker) EnsureService(ctx context.Context, spec ServiceSpec) error {
	existing, findErr := d.findServiceByName(ctx, spec.Name)
	if findErr != nil && !NotFound(findErr) {
		return findErr
	}

	swarmSpec := toSwarmServiceSpec(spec)
	if NotFound(findErr) {
		_, err := d.cli.ServiceCreate(ctx, swarmSpec, client.ServiceCreateOptions{})
		if err != nil {
			return fmt.Errorf("%w: create service %q: %v", ErrUnavailable, spec.Name, err)
		}
		return nil
	}

	_, err := d.cli.ServiceUpdate(ctx, existing.ID, existing.Version, swarmSpec, client.ServiceUpdateOptions{})
	if err != nil {
		return fmt.Errorf("%w: update service %q: %v", ErrUnavailable, spec.Name, err)
	}
	return nil
}

func (d *Docker) RemoveService(ctx context.Context, name string) error {
	existing, err := d.findServiceByName(ctx, name)
	if err != nil {
		if NotFound(err) {
			return nil
		}
		return err
	}
	if err := d.cli.ServiceRemove(ctx, existing.ID); err != nil {
		return fmt.Errorf("%w: remove service %q: %v", ErrUnavailable, name, err)
	}
	return nil
}

func (d *Docker) findServiceByName(ctx context.Context, name string) (swarm.Service, error) {
	opts := client.ServiceListOptions{Filters: filters.NewArgs(filters.Arg("name", name))}
	var services []swarm.Service
	err := d.withRetry(ctx, "lookup service", func() error {
		var err error
		services, err = d.cli.ServiceList(ctx, opts)
		return err
	})
	if err != nil {
		return swarm.Service{}, err
	}
	for _, s := range services {
		if s.Spec.Name == name {
			return s, nil
		}
	}
	return swarm.Service{}, ErrNotFound
}

func (d *Docker) WaitForState(ctx context.Context, serviceName string, desired TaskState, invalid []TaskState) (bool, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		result, err := d.taskStateSnapshot(ctx, serviceName, desired, invalid)
		if err != nil {
			return false, err
		}
		switch result {
		case snapshotDesired:
			return true, nil
		case snapshotInvalid:
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

type taskSnapshot int

const (
	snapshotPending taskSnapshot = iota
	snapshotDesired
	snapshotInvalid
)

// taskStateSnapshot lists non-shutdown-desired tasks of serviceName and
// classifies them per spec §4.2: snapshotInvalid as soon as any task is
// in one of invalid, snapshotDesired when every live task equals desired,
// snapshotPending otherwise (including when there are no live tasks yet).
func (d *Docker) taskStateSnapshot(ctx context.Context, serviceName string, desired TaskState, invalid []TaskState) (taskSnapshot, error) {
	opts := client.TaskListOptions{Filters: filters.NewArgs(filters.Arg("service", serviceName))}
	var tasks []swarm.Task
	err := d.withRetry(ctx, "list tasks", func() error {
		var err error
		tasks, err = d.cli.TaskList(ctx, opts)
		return err
	})
	if err != nil {
		return snapshotPending, err
	}

	live := 0
	atDesired := 0
	for _, t := range tasks {
		if TaskState(t.DesiredState) == TaskStateShutdown {
			continue
		}
		live++
		state := TaskState(t.Status.State)
		for _, bad := range invalid {
			if state == bad {
				return snapshotInvalid, nil
			}
		}
		if state == desired {
			atDesired++
		}
	}
	if live > 0 && atDesired == live {
		return snapshotDesired, nil
	}
	return snapshotPending, nil
}
