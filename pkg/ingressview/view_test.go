package ingressview

import (
	"strconv"
	"testing"
	"time"

	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

func svc(id string, labels map[string]string) orchestrator.ManagedService {
	return orchestrator.ManagedService{ID: id, Name: id, Labels: labels}
}

func TestNewDefaultsPathToSlash(t *testing.T) {
	o := orchestrator.NewMemory()
	v, err := New(svc("web", map[string]string{"nginx-ingress.host": "a.example.com"}), o, "ndi")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v.Path != "/" {
		t.Errorf("Path = %q, want / (v1 default)", v.Path)
	}
	if v.Port != 80 {
		t.Errorf("Port = %d, want 80", v.Port)
	}
}

func TestNewParsesHostsDroppingEmpty(t *testing.T) {
	o := orchestrator.NewMemory()
	v, err := New(svc("web", map[string]string{"nginx-ingress.host": "a.example.com, ,b.example.com,"}), o, "ndi")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []string{"a.example.com", "b.example.com"}
	if len(v.Hosts) != len(want) {
		t.Fatalf("Hosts = %v, want %v", v.Hosts, want)
	}
	for i, h := range want {
		if v.Hosts[i] != h {
			t.Errorf("Hosts[%d] = %q, want %q", i, v.Hosts[i], h)
		}
	}
}

func TestNewRejectsPortOutOfRange(t *testing.T) {
	o := orchestrator.NewMemory()
	_, err := New(svc("web", map[string]string{"nginx-ingress.port": "70000"}), o, "ndi")
	if err == nil {
		t.Fatal("New() with out-of-range port = nil error, want Validation error")
	}
}

func TestNewRejectsNonIntegerPort(t *testing.T) {
	o := orchestrator.NewMemory()
	_, err := New(svc("web", map[string]string{"nginx-ingress.port": "http"}), o, "ndi")
	if err == nil {
		t.Fatal("New() with non-integer port = nil error, want Validation error")
	}
}

func TestNewParsesOptInFlagsByPresence(t *testing.T) {
	o := orchestrator.NewMemory()
	v, err := New(svc("web", map[string]string{
		"nginx-ingress.ssl":            "",
		"nginx-ingress.ssl-redirect":   "",
		"nginx-ingress.proxy-protocol": "",
	}), o, "ndi")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !v.AcmeSSL || !v.SSLRedirect || !v.ProxyProtocol {
		t.Errorf("opt-in flags = (%v,%v,%v), want all true", v.AcmeSSL, v.SSLRedirect, v.ProxyProtocol)
	}
}

func TestLatestCertPairUndefinedWhenEmpty(t *testing.T) {
	o := orchestrator.NewMemory()
	v, err := New(svc("web", nil), o, "ndi")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, ok, err := v.LatestCertPair()
	if err != nil {
		t.Fatalf("LatestCertPair: %v", err)
	}
	if ok {
		t.Error("LatestCertPair() ok = true, want false for a service with no certs")
	}
}

func TestCertRenewableTrueWithNoCertYet(t *testing.T) {
	o := orchestrator.NewMemory()
	v, err := New(svc("web", nil), o, "ndi")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	renewable, err := v.CertRenewable()
	if err != nil {
		t.Fatalf("CertRenewable: %v", err)
	}
	if !renewable {
		t.Error("CertRenewable() = false, want true when no cert pair exists yet")
	}
}

func TestCertRenewableBoundary(t *testing.T) {
	for _, tc := range []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"exactly 7 days", RenewalThreshold, false},
		{"6 days 23 hours", RenewalThreshold - time.Hour, true},
		{"30 days", 30 * 24 * time.Hour, false},
		{"already expired", -time.Hour, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := orchestrator.NewMemory()
			v, err := New(svc("web", nil), o, "ndi")
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, err := v.Keys.Write([]byte("key"), nil); err != nil {
				t.Fatalf("write key: %v", err)
			}
			expires := time.Now().Add(tc.offset).Unix()
			if _, err := v.Certs.Write([]byte("crt"), map[string]string{
				"expires": strconv.FormatInt(expires, 10),
			}); err != nil {
				t.Fatalf("write cert: %v", err)
			}

			got, err := v.CertRenewable()
			if err != nil {
				t.Fatalf("CertRenewable: %v", err)
			}
			if got != tc.want {
				t.Errorf("CertRenewable() = %v, want %v", got, tc.want)
			}
		})
	}
}
