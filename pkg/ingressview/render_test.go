package ingressview

import (
	"testing"

	"github.com/ndi/ingress-controller/pkg/config"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

func viewFor(t *testing.T, id string, labels map[string]string) *View {
	t.Helper()
	o := orchestrator.NewMemory()
	v, err := New(svc(id, labels), o, "ndi")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestRenderIsDeterministic(t *testing.T) {
	v := viewFor(t, "web", map[string]string{"nginx-ingress.host": "a.example.com"})
	in := RenderInput{Views: []*View{v}, ClusterCfg: config.DefaultCluster()}

	r1, err := Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	r2, err := Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r1.SecretName != r2.SecretName {
		t.Errorf("Render() produced different names for identical input: %q vs %q", r1.SecretName, r2.SecretName)
	}
}

func TestRenderContentAddressingChangesWithInput(t *testing.T) {
	v1 := viewFor(t, "web", map[string]string{"nginx-ingress.host": "a.example.com"})
	v2 := viewFor(t, "web", map[string]string{"nginx-ingress.host": "b.example.com"})

	r1, err := Render(RenderInput{Views: []*View{v1}, ClusterCfg: config.DefaultCluster()})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	r2, err := Render(RenderInput{Views: []*View{v2}, ClusterCfg: config.DefaultCluster()})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r1.SecretName == r2.SecretName {
		t.Error("Render() produced the same name for different input")
	}
}

func TestRenderIdlePlaceholderWhenNoServices(t *testing.T) {
	r, err := Render(RenderInput{ClusterCfg: config.DefaultCluster()})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(r.Bytes) == 0 {
		t.Error("Render() with zero services produced empty output, want an idle placeholder config")
	}
}

func TestProxyProtocolAnyServiceFlag(t *testing.T) {
	withFlag := viewFor(t, "web", map[string]string{"nginx-ingress.proxy-protocol": ""})
	without := viewFor(t, "api", nil)

	if !proxyProtocolAnyServiceFlag([]*View{without, withFlag}) {
		t.Error("proxyProtocolAnyServiceFlag() = false, want true when any service opts in")
	}
	if proxyProtocolAnyServiceFlag([]*View{without}) {
		t.Error("proxyProtocolAnyServiceFlag() = true, want false when no service opts in")
	}
}
