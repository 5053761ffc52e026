// Package config holds the controller's two configuration surfaces:
// Bootstrap, read once from a local YAML file at process start, and
// Cluster, the ACME/service-workload schema stored in the orchestrator
// itself, loaded from the latest config.<N> entry once at process start.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bootstrap is local process configuration: where to find the
// orchestrator, the controller's own namespace, and the timing of its
// two loops. It never touches the orchestrator — everything here exists
// before a connection is possible.
type Bootstrap struct {
	DockerHost string `yaml:"docker_host"`

	// Namespace prefixes every secret/config name this controller
	// writes, per spec.md §6 ("Default namespace ns = \"ndi\"").
	Namespace string `yaml:"ns"`

	ChallengeAddr string `yaml:"challenge_addr"`
	MetricsAddr   string `yaml:"metrics_addr"`

	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ObserveInterval   time.Duration `yaml:"observe_interval"`
}

// DefaultBootstrap returns the bootstrap configuration used when no
// override file is present.
func DefaultBootstrap() Bootstrap {
	return Bootstrap{
		DockerHost:        "unix:///var/run/docker.sock",
		Namespace:         "ndi",
		ChallengeAddr:     ":80",
		MetricsAddr:       "127.0.0.1:9090",
		ReconcileInterval: 10 * time.Second,
		ObserveInterval:   10 * time.Second,
	}
}

// LoadBootstrap reads path (if it exists) over DefaultBootstrap(), so a
// file only needs to set the fields it wants to override.
func LoadBootstrap(path string) (Bootstrap, error) {
	cfg := DefaultBootstrap()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Bootstrap{}, fmt.Errorf("config: read bootstrap file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Bootstrap{}, fmt.Errorf("config: parse bootstrap file %q: %w", path, err)
	}
	if cfg.Namespace == "" {
		return Bootstrap{}, fmt.Errorf("config: ns must not be empty")
	}
	return cfg, nil
}
