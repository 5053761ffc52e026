package config

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

const validClusterYAML = `
acme:
  email: ops@example.com
  accept_tos: true
services:
  account: { name: acct-svc, image: ndi/acct:latest }
  challenge: { name: chal-svc, image: ndi/chal:latest }
  nginx:
    name: nginx-svc
    image: nginx:stable
    ports: { http: 80, https: 443 }
  robot: { name: robot-svc, image: ndi/robot:latest }
`

func TestLoadClusterReturnsLatestVersion(t *testing.T) {
	o := orchestrator.NewMemory()
	olderDoc := strings.Replace(validClusterYAML, "ops@example.com", "old@example.com", 1)
	if err := o.WriteConfig(context.Background(), "ndi.config.0", []byte(olderDoc), nil); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := o.WriteConfig(context.Background(), "ndi.config.1", []byte(validClusterYAML), nil); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	cfg, err := LoadCluster(o, "ndi")
	if err != nil {
		t.Fatalf("LoadCluster: %v", err)
	}
	if cfg.ACME.Email != "ops@example.com" {
		t.Errorf("LoadCluster().ACME.Email = %q, want the config.1 document's email", cfg.ACME.Email)
	}
}

func TestLoadClusterFailsWhenNoConfigExists(t *testing.T) {
	o := orchestrator.NewMemory()

	if _, err := LoadCluster(o, "ndi"); err == nil {
		t.Fatal("LoadCluster() = nil error, want error when no config.<N> entry exists")
	}
}

func TestParseClusterValid(t *testing.T) {
	cfg, err := ParseCluster([]byte(validClusterYAML))
	if err != nil {
		t.Fatalf("ParseCluster: %v", err)
	}
	if cfg.ACME.Email != "ops@example.com" {
		t.Errorf("ACME.Email = %q, want ops@example.com", cfg.ACME.Email)
	}
	if cfg.Services.Nginx.Ports.HTTP != 80 {
		t.Errorf("Nginx.Ports.HTTP = %d, want 80", cfg.Services.Nginx.Ports.HTTP)
	}
}

func TestParseClusterMissingEmailIsValidationError(t *testing.T) {
	doc := `
acme:
  accept_tos: true
services:
  account: { name: a }
  challenge: { name: c }
  nginx: { name: n, ports: { http: 80, https: 443 } }
  robot: { name: r }
`
	_, err := ParseCluster([]byte(doc))
	if !isValidationErr(err) {
		t.Fatalf("ParseCluster() err = %v, want ErrValidation", err)
	}
}

func TestParseClusterDuplicateServiceNameIsRejected(t *testing.T) {
	doc := `
acme:
  email: ops@example.com
  accept_tos: true
services:
  account: { name: shared }
  challenge: { name: shared }
  nginx: { name: n, ports: { http: 80, https: 443 } }
  robot: { name: r }
`
	_, err := ParseCluster([]byte(doc))
	if !isValidationErr(err) {
		t.Fatalf("ParseCluster() err = %v, want ErrValidation for duplicate service names", err)
	}
	if !strings.Contains(err.Error(), "share the name") {
		t.Errorf("error message %q does not explain the duplicate", err)
	}
}

func TestParseClusterPortOutOfRangeIsRejected(t *testing.T) {
	for _, tc := range []struct {
		name string
		http int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too large", 70000},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc := strings.Replace(validClusterYAML, "http: 80", "http: "+strconv.Itoa(tc.http), 1)
			_, err := ParseCluster([]byte(doc))
			if !isValidationErr(err) {
				t.Fatalf("ParseCluster() with http=%d err = %v, want ErrValidation", tc.http, err)
			}
		})
	}
}

func TestDefaultClusterFillsEverythingButACME(t *testing.T) {
	doc := `
acme:
  email: ops@example.com
  accept_tos: true
`
	cfg, err := ParseCluster([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCluster: %v", err)
	}
	if cfg.Services.Nginx.Name == "" {
		t.Error("default nginx service name was not applied")
	}
	if cfg.Services.Nginx.Ports.HTTPS != 443 {
		t.Errorf("default https port = %d, want 443", cfg.Services.Nginx.Ports.HTTPS)
	}
}

func isValidationErr(err error) bool {
	return err != nil && errors.Is(err, orchestrator.ErrValidation)
}
