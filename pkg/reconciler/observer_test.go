package reconciler

import (
	"context"
	"testing"

	"github.com/ndi/ingress-controller/pkg/acmeagent"
	"github.com/ndi/ingress-controller/pkg/acmeclient"
	"github.com/ndi/ingress-controller/pkg/crypto"
	"github.com/ndi/ingress-controller/pkg/ingressview"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

func testObserver(o orchestrator.Orchestrator) (*Observer, *acmeagent.Agent) {
	agent := &acmeagent.Agent{
		ACME:         acmeclient.NewFake(),
		Crypto:       crypto.NewFake(),
		Orchestrator: o,
		Namespace:    "ndi",
	}
	return NewObserver(o, agent, "ndi"), agent
}

func newView(t *testing.T, o orchestrator.Orchestrator, id string, labels map[string]string) *ingressview.View {
	t.Helper()
	view, err := ingressview.New(orchestrator.ManagedService{ID: id, Labels: labels}, o, "ndi")
	if err != nil {
		t.Fatalf("ingressview.New: %v", err)
	}
	return view
}

func TestClassifyNewWhenNoCertPair(t *testing.T) {
	o := orchestrator.NewMemory()
	obs, _ := testObserver(o)
	view := newView(t, o, "web", map[string]string{"nginx-ingress.host": "a.example.com", "nginx-ingress.ssl": ""})

	class, err := obs.classify(view)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if class != classifyNew {
		t.Errorf("classify() = %q, want %q", class, classifyNew)
	}
}

func TestClassifyRenewWhenCertNearExpiry(t *testing.T) {
	o := orchestrator.NewMemory()
	obs, _ := testObserver(o)
	if err := o.WriteSecret(context.Background(), "ndi.svc.web.key.0", []byte("key"), nil); err != nil {
		t.Fatalf("WriteSecret: %v", err)
	}
	if err := o.WriteSecret(context.Background(), "ndi.svc.web.crt.0", []byte("crt"), map[string]string{"expires": "1"}); err != nil {
		t.Fatalf("WriteSecret: %v", err)
	}
	view := newView(t, o, "web", map[string]string{"nginx-ingress.host": "a.example.com", "nginx-ingress.ssl": ""})

	class, err := obs.classify(view)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if class != classifyRenew {
		t.Errorf("classify() = %q, want %q", class, classifyRenew)
	}
}

func TestClassifySkipWhenCertFresh(t *testing.T) {
	o := orchestrator.NewMemory()
	obs, _ := testObserver(o)
	if err := o.WriteSecret(context.Background(), "ndi.svc.web.key.0", []byte("key"), nil); err != nil {
		t.Fatalf("WriteSecret: %v", err)
	}
	if err := o.WriteSecret(context.Background(), "ndi.svc.web.crt.0", []byte("crt"), map[string]string{"expires": "9999999999"}); err != nil {
		t.Fatalf("WriteSecret: %v", err)
	}
	view := newView(t, o, "web", map[string]string{"nginx-ingress.host": "a.example.com", "nginx-ingress.ssl": ""})

	class, err := obs.classify(view)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if class != classifySkip {
		t.Errorf("classify() = %q, want %q", class, classifySkip)
	}
}

func TestTickIssuesForNewAndSkipsNonSSLServices(t *testing.T) {
	o := orchestrator.NewMemory()
	o.AddService(orchestrator.ManagedService{
		ID:     "web",
		Labels: map[string]string{"nginx-ingress.host": "a.example.com", "nginx-ingress.ssl": ""},
	})
	o.AddService(orchestrator.ManagedService{
		ID:     "plain",
		Labels: map[string]string{"nginx-ingress.host": "b.example.com"},
	})
	obs, agent := testObserver(o)
	acc, err := agent.ACME.Register(context.Background(), "ops@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	obs.tick(context.Background(), acc)

	pairs, err := o.ListSecrets(context.Background(), "ndi.svc.web.key.")
	if err != nil {
		t.Fatalf("ListSecrets: %v", err)
	}
	if len(pairs) != 1 {
		t.Errorf("tick() wrote %d key secrets for the ssl-opted service, want 1", len(pairs))
	}
	plainPairs, err := o.ListSecrets(context.Background(), "ndi.svc.plain.key.")
	if err != nil {
		t.Fatalf("ListSecrets: %v", err)
	}
	if len(plainPairs) != 0 {
		t.Errorf("tick() issued a certificate for a service without nginx-ingress.ssl, want none")
	}
}

func TestLoadAccountFailsWhenAcctSecretMissing(t *testing.T) {
	o := orchestrator.NewMemory()
	obs, _ := testObserver(o)

	if _, err := obs.LoadAccount(context.Background()); err == nil {
		t.Fatal("LoadAccount() = nil error, want error when no acct secret exists")
	}
}

func TestLoadAccountRoundTripsMarshalledAccount(t *testing.T) {
	o := orchestrator.NewMemory()
	obs, agent := testObserver(o)
	acc, err := agent.ACME.Register(context.Background(), "ops@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	data, err := acmeclient.MarshalAccount(acc)
	if err != nil {
		t.Fatalf("MarshalAccount: %v", err)
	}
	if err := o.WriteSecret(context.Background(), "ndi.acct", data, nil); err != nil {
		t.Fatalf("WriteSecret: %v", err)
	}

	got, err := obs.LoadAccount(context.Background())
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if got.Email != acc.Email {
		t.Errorf("LoadAccount().Email = %q, want %q", got.Email, acc.Email)
	}
}
