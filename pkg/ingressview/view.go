// Package ingressview implements spec.md §4.3's ServiceView: the
// projection of one nginx-ingress.*-labelled service into the data the
// proxy-config renderer and ACMEAgent need, plus the render pipeline
// that turns a set of views into a content-addressed nginx config.
package ingressview

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndi/ingress-controller/pkg/orchestrator"
	"github.com/ndi/ingress-controller/pkg/versionstore"
)

const labelPrefix = "nginx-ingress."

// RenewalThreshold is invariant I6: a cert is renewable iff its expires
// label is less than this far in the future. Exactly 7 days remaining is
// NOT renewable (the boundary belongs to "not yet").
const RenewalThreshold = 7 * 24 * time.Hour

// View is one labelled service's ingress intent, per spec.md §4.3's
// label table.
type View struct {
	ServiceID     string
	Hosts         []string
	Port          int
	Path          string
	AcmeSSL       bool
	SSLRedirect   bool
	ProxyProtocol bool

	Keys  *versionstore.Store
	Certs *versionstore.Store
}

// New parses svc's nginx-ingress.* labels into a View. Per the REDESIGN
// FLAGS resolution recorded in DESIGN.md, an absent path label defaults
// to "/" (the v1 behavior), not "" as the v2 original did. A port label
// outside 1..65535, or not an integer, is a Validation error scoped to
// this one service — callers skip the service and continue the pass.
func New(svc orchestrator.ManagedService, o orchestrator.Orchestrator, namespace string) (*View, error) {
	labels := svc.Labels

	port := 80
	if raw, ok := labels[labelPrefix+"port"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: service %s: nginx-ingress.port %q is not an integer", orchestrator.ErrValidation, svc.ID, raw)
		}
		if n < 1 || n > 65535 {
			return nil, fmt.Errorf("%w: service %s: nginx-ingress.port %d is outside 1..65535", orchestrator.ErrValidation, svc.ID, n)
		}
		port = n
	}

	path := "/"
	if raw, ok := labels[labelPrefix+"path"]; ok && raw != "" {
		path = raw
	}

	var hosts []string
	if raw, ok := labels[labelPrefix+"host"]; ok {
		for _, h := range strings.Split(raw, ",") {
			h = strings.TrimSpace(h)
			if h != "" {
				hosts = append(hosts, h)
			}
		}
	}

	_, acmeSSL := labels[labelPrefix+"ssl"]
	_, sslRedirect := labels[labelPrefix+"ssl-redirect"]
	_, proxyProtocol := labels[labelPrefix+"proxy-protocol"]

	prefix := fmt.Sprintf("%s.svc.%s.", namespace, svc.ID)
	return &View{
		ServiceID:     svc.ID,
		Hosts:         hosts,
		Port:          port,
		Path:          path,
		AcmeSSL:       acmeSSL,
		SSLRedirect:   sslRedirect,
		ProxyProtocol: proxyProtocol,
		Keys:          orchestrator.SecretStore(o, prefix+"key."),
		Certs:         orchestrator.SecretStore(o, prefix+"crt."),
	}, nil
}

// LatestCertPair returns the highest version present in both Keys and
// Certs (invariant I2), or ok=false if undefined.
func (v *View) LatestCertPair() (pair versionstore.Pair, ok bool, err error) {
	p, found, err := v.Keys.LatestCommon(v.Certs)
	if err != nil {
		return versionstore.Pair{}, false, fmt.Errorf("ingressview: latest cert pair for %s: %w", v.ServiceID, err)
	}
	return p, found, nil
}

// CertRenewable reports invariant I6 for the service's current latest
// cert pair: renewable iff there is no pair yet, or expires - now < 7
// days. The expires label is parsed as unix seconds (written by
// pkg/acmeagent).
func (v *View) CertRenewable() (bool, error) {
	pair, ok, err := v.LatestCertPair()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	expiresRaw, ok := pair.Other.Labels["expires"]
	if !ok {
		return false, fmt.Errorf("%w: service %s: cert version %d has no expires label", orchestrator.ErrInvariant, v.ServiceID, pair.Version)
	}
	unixSeconds, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("%w: service %s: expires label %q is not an integer", orchestrator.ErrInvariant, v.ServiceID, expiresRaw)
	}
	remaining := time.Duration(unixSeconds-time.Now().Unix()) * time.Second
	return remaining < RenewalThreshold, nil
}
