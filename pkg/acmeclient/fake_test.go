package acmeclient

import (
	"context"
	"testing"

	"github.com/ndi/ingress-controller/pkg/crypto"
)

func TestFakeObtainCertificatePublishesBeforeSucceeding(t *testing.T) {
	fake := NewFake()
	acc, err := fake.Register(context.Background(), "ops@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	c := crypto.NewFake()
	key, err := c.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	csr, err := c.CreateCSR(key, []string{"a.example.com"})
	if err != nil {
		t.Fatalf("CreateCSR: %v", err)
	}

	var published []string
	publish := func(_ context.Context, token, _ string) error {
		published = append(published, token)
		return nil
	}

	certPEM, notAfter, err := fake.ObtainCertificate(context.Background(), acc, []string{"a.example.com"}, csr, publish)
	if err != nil {
		t.Fatalf("ObtainCertificate: %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("publish called %d times, want 1", len(published))
	}
	if len(certPEM) == 0 {
		t.Error("ObtainCertificate() returned empty certificate PEM")
	}
	if notAfter.IsZero() {
		t.Error("ObtainCertificate() returned zero notAfter")
	}
}

func TestFakeObtainCertificateFailsAfterPublishForInvalidHost(t *testing.T) {
	fake := NewFake()
	fake.FailHosts = map[string]bool{"bad.example.com": true}
	acc, err := fake.Register(context.Background(), "ops@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	c := crypto.NewFake()
	key, err := c.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	csr, err := c.CreateCSR(key, []string{"bad.example.com"})
	if err != nil {
		t.Fatalf("CreateCSR: %v", err)
	}

	published := false
	publish := func(_ context.Context, _, _ string) error {
		published = true
		return nil
	}

	_, _, err = fake.ObtainCertificate(context.Background(), acc, []string{"bad.example.com"}, csr, publish)
	if err == nil {
		t.Fatal("ObtainCertificate() = nil error, want error for failing host")
	}
	if !published {
		t.Error("ObtainCertificate() failed without ever publishing — I5 requires publish before any trigger, even on a doomed order")
	}
}
