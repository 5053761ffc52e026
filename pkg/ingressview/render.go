package ingressview

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // content-addressing per spec.md I4, not a security use
	"encoding/hex"
	"fmt"
	"text/template"

	"github.com/ndi/ingress-controller/pkg/config"
)

// RenderInput is everything Render needs to produce one nginx config:
// the set of labelled services' views and the cluster config. The
// template reads only the views; ClusterCfg does not affect the output,
// and the ACME challenge location block is fixed text.
type RenderInput struct {
	Views      []*View
	ClusterCfg config.Cluster
}

// RenderResult is a rendered config and its content hash.
type RenderResult struct {
	Bytes []byte
	// SecretName is "conf.<sha1-hex>" per invariant I4: identical
	// renderings produce the same name, so ensureNginxService never
	// writes a duplicate secret for unchanged input.
	SecretName string
}

// proxyProtocolAnyServiceFlag is true whenever any labelled service opts
// into nginx-ingress.proxy-protocol, per SPEC_FULL.md §5: the top-level
// `listen ... proxy_protocol;` stanza is emitted once, cluster-wide,
// rather than per service.
func proxyProtocolAnyServiceFlag(views []*View) bool {
	for _, v := range views {
		if v.ProxyProtocol {
			return true
		}
	}
	return false
}

type renderData struct {
	Services      []*View
	ProxyProtocol bool
}

// configTemplate is deliberately plain: it emits one server block per
// service view plus the ACME HTTP-01 well-known location, and falls back
// to an idle placeholder server block when Services is empty (the
// SPEC_FULL.md §5 "idle config" supplement — ensureNginxService must
// never stall waiting for the first labelled service).
var configTemplate = template.Must(template.New("nginx.conf").Parse(`
worker_processes auto;

events {
    worker_connections 1024;
}

http {
    {{- if .ProxyProtocol}}
    # at least one service opted into nginx-ingress.proxy-protocol
    {{- end}}
    {{- if .Services}}
    {{- range .Services}}
    server {
        listen 80{{if $.ProxyProtocol}} proxy_protocol{{end}};
        {{- range .Hosts}}
        server_name {{.}};
        {{- end}}

        location /.well-known/acme-challenge/ {
            proxy_pass http://challenge-responder;
        }

        location {{.Path}} {
            proxy_pass http://backend-{{.ServiceID}}:{{.Port}};
            {{- if .SSLRedirect}}
            return 301 https://$host$request_uri;
            {{- end}}
        }
    }
    {{- end}}
    {{- else}}
    server {
        listen 80 default_server;
        location / {
            return 503 "no ingress services configured";
        }
    }
    {{- end}}
}
`))

// Render produces the proxy config for the given views, per spec.md
// §4.6's ensureNginxService description: "Render the proxy config with
// (services, proxyProtocolAnyServiceFlag, clusterConfig)."
func Render(in RenderInput) (RenderResult, error) {
	data := renderData{
		Services:      in.Views,
		ProxyProtocol: proxyProtocolAnyServiceFlag(in.Views),
	}

	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, data); err != nil {
		return RenderResult{}, fmt.Errorf("ingressview: render config: %w", err)
	}

	sum := sha1.Sum(buf.Bytes()) //nolint:gosec
	name := fmt.Sprintf("conf.%s", hex.EncodeToString(sum[:]))
	return RenderResult{Bytes: buf.Bytes(), SecretName: name}, nil
}
