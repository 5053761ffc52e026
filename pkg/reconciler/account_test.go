package reconciler

import (
	"context"
	"testing"

	"github.com/ndi/ingress-controller/pkg/acmeclient"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

func TestBootstrapAccountWritesAcctSecret(t *testing.T) {
	o := orchestrator.NewMemory()
	acme := acmeclient.NewFake()
	cluster := testCluster()

	if err := BootstrapAccount(context.Background(), o, acme, "ndi", cluster); err != nil {
		t.Fatalf("BootstrapAccount: %v", err)
	}

	entry, err := o.GetSecret(context.Background(), "ndi.acct")
	if err != nil {
		t.Fatalf("GetSecret(ndi.acct): %v", err)
	}
	acc, err := acmeclient.UnmarshalAccount(entry.Data)
	if err != nil {
		t.Fatalf("UnmarshalAccount: %v", err)
	}
	if acc.Email != cluster.ACME.Email {
		t.Errorf("account email = %q, want %q", acc.Email, cluster.ACME.Email)
	}
}

func TestBootstrapAccountRejectsMissingTOS(t *testing.T) {
	o := orchestrator.NewMemory()
	acme := acmeclient.NewFake()
	cluster := testCluster()
	cluster.ACME.AcceptTOS = false

	if err := BootstrapAccount(context.Background(), o, acme, "ndi", cluster); err == nil {
		t.Fatal("BootstrapAccount() = nil error, want error when accept_tos is false")
	}
}
