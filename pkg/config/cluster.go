package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

// Cluster is the YAML schema stored in the orchestrator's config.<N>
// VersionedStore family (spec.md §6). It is the authoritative source for
// the ACME account email/ToS and for the four workload roles the
// reconciler ensures every pass: account, challenge, nginx, robot.
type Cluster struct {
	ACME     ACMEConfig      `yaml:"acme"`
	Services ServicesConfig  `yaml:"services"`
}

type ACMEConfig struct {
	Email      string `yaml:"email"`
	AcceptTOS  bool   `yaml:"accept_tos"`
	DirectoryURL string `yaml:"directory_url,omitempty"`
}

type ServicesConfig struct {
	Account   WorkloadConfig  `yaml:"account"`
	Challenge WorkloadConfig  `yaml:"challenge"`
	Nginx     NginxConfig     `yaml:"nginx"`
	Robot     WorkloadConfig  `yaml:"robot"`
}

// WorkloadConfig is the common shape shared by the account, challenge,
// and robot roles: just enough to call EnsureService.
type WorkloadConfig struct {
	Name        string            `yaml:"name"`
	Image       string            `yaml:"image"`
	Constraints []string          `yaml:"constraints,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
}

// NginxConfig adds the reverse proxy's port/placement/scaling fields on
// top of WorkloadConfig, per spec.md §6's services.nginx block.
type NginxConfig struct {
	Name        string            `yaml:"name"`
	Image       string            `yaml:"image"`
	Constraints []string          `yaml:"constraints,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`

	Ports                PortsConfig `yaml:"ports"`
	PortMode             string      `yaml:"port_mode"` // ingress|host|none
	AttachToHostNetwork  bool        `yaml:"attach_to_host_network"`
	Replicas             *uint64     `yaml:"replicas,omitempty"`
	ServiceMode          string      `yaml:"service_mode"` // replicated|global
	Preferences          []Preference `yaml:"preferences,omitempty"`
	MaxReplicas          *uint64     `yaml:"maxreplicas,omitempty"`
	Networks             []string    `yaml:"networks,omitempty"`
}

type PortsConfig struct {
	HTTP  int `yaml:"http"`
	HTTPS int `yaml:"https"`
}

type Preference struct {
	Strategy   string `yaml:"strategy"`
	Descriptor string `yaml:"descriptor"`
}

// DefaultCluster returns every default named in spec.md §6 ("Defaults
// supplied for everything except acme.email and acme.accept_tos").
func DefaultCluster() Cluster {
	return Cluster{
		Services: ServicesConfig{
			Account:   WorkloadConfig{Name: "ndi-account", Image: "ndi/ingress-controller:latest"},
			Challenge: WorkloadConfig{Name: "ndi-challenge", Image: "ndi/ingress-controller:latest"},
			Robot:     WorkloadConfig{Name: "ndi-robot", Image: "ndi/ingress-controller:latest"},
			Nginx: NginxConfig{
				Name:        "ndi-nginx",
				Image:       "nginx:stable",
				Ports:       PortsConfig{HTTP: 80, HTTPS: 443},
				PortMode:    "ingress",
				ServiceMode: "replicated",
			},
		},
	}
}

// LoadCluster reads the latest entry in the "<ns>.config." VersionedStore
// family (spec.md §6's ClusterConfig: "name config.<N>, latest version
// wins") and parses it. Config-load failure at startup is fatal (spec.md
// §7) — callers (cmd/controller) propagate this error straight to exit 1.
func LoadCluster(o orchestrator.Orchestrator, namespace string) (Cluster, error) {
	store := orchestrator.ConfigStore(o, namespace+".config.")
	entry, _, ok, err := store.Latest()
	if err != nil {
		return Cluster{}, fmt.Errorf("config: load cluster config: %w", err)
	}
	if !ok {
		return Cluster{}, fmt.Errorf("%w: no cluster config found at %q", orchestrator.ErrNotFound, store.Prefix())
	}
	return ParseCluster(entry.Data)
}

// ParseCluster parses a Cluster from rendered YAML bytes, applying
// defaults for every field the document omits, then validating it.
func ParseCluster(data []byte) (Cluster, error) {
	cfg := DefaultCluster()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Cluster{}, fmt.Errorf("%w: cluster config: %v", orchestrator.ErrValidation, err)
	}
	if err := cfg.Validate(); err != nil {
		return Cluster{}, err
	}
	return cfg, nil
}

// Validate checks the invariants spec.md §6/§9 ask for: acme.email and
// acme.accept_tos are mandatory (no safe default), every workload port is
// in 1..65535 (the REDESIGN FLAGS resolution — the original never
// validated this), and the four role names are pairwise distinct.
func (c Cluster) Validate() error {
	if c.ACME.Email == "" {
		return fmt.Errorf("%w: acme.email is required", orchestrator.ErrValidation)
	}
	if !c.ACME.AcceptTOS {
		return fmt.Errorf("%w: acme.accept_tos must be true", orchestrator.ErrValidation)
	}

	if err := validatePort("services.nginx.ports.http", c.Services.Nginx.Ports.HTTP); err != nil {
		return err
	}
	if err := validatePort("services.nginx.ports.https", c.Services.Nginx.Ports.HTTPS); err != nil {
		return err
	}

	names := map[string]string{
		"account":   c.Services.Account.Name,
		"challenge": c.Services.Challenge.Name,
		"nginx":     c.Services.Nginx.Name,
		"robot":     c.Services.Robot.Name,
	}
	seen := make(map[string]string, len(names))
	for role, name := range names {
		if name == "" {
			return fmt.Errorf("%w: services.%s.name is required", orchestrator.ErrValidation, role)
		}
		if other, dup := seen[name]; dup {
			return fmt.Errorf("%w: services.%s and services.%s share the name %q, service names must be unique across roles",
				orchestrator.ErrValidation, other, role, name)
		}
		seen[name] = role
	}

	switch c.Services.Nginx.ServiceMode {
	case "", "replicated", "global":
	default:
		return fmt.Errorf("%w: services.nginx.service_mode %q must be replicated or global", orchestrator.ErrValidation, c.Services.Nginx.ServiceMode)
	}
	switch c.Services.Nginx.PortMode {
	case "", "ingress", "host", "none":
	default:
		return fmt.Errorf("%w: services.nginx.port_mode %q must be ingress, host, or none", orchestrator.ErrValidation, c.Services.Nginx.PortMode)
	}

	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s = %d is outside the valid port range 1..65535", orchestrator.ErrValidation, field, port)
	}
	return nil
}
