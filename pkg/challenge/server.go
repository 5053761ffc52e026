// Package challenge implements the ChallengeServer (spec.md §4.4): a
// single HTTP listener answering ACME HTTP-01 challenge requests by
// reading the token's content out of the orchestrator config store.
package challenge

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/ndi/ingress-controller/pkg/log"
	"github.com/ndi/ingress-controller/pkg/metrics"
	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

const wellKnownPrefix = "/.well-known/acme-challenge/"

// Server answers GET /.well-known/acme-challenge/{token} by looking up
// config "<namespace>.challange.<token>" (sic — the misspelling is the
// wire format per spec.md §6) and returning its base64-decoded content
// as text/plain. Every other request, and any token with no matching
// config, gets 404. There is no state beyond the orchestrator itself.
type Server struct {
	orchestrator orchestrator.Orchestrator
	namespace    string
}

// New returns a Server bound to o, reading configs named
// "<namespace>.challange.<token>".
func New(o orchestrator.Orchestrator, namespace string) *Server {
	return &Server{orchestrator: o, namespace: namespace}
}

func (s *Server) configName(token string) string {
	return fmt.Sprintf("%s.challange.%s", s.namespace, token)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponent("challenge")

	if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, wellKnownPrefix) {
		metrics.ChallengeRequestsTotal.WithLabelValues("not_found").Inc()
		http.NotFound(w, r)
		return
	}

	token := strings.TrimPrefix(r.URL.Path, wellKnownPrefix)
	if token == "" || strings.Contains(token, "/") {
		metrics.ChallengeRequestsTotal.WithLabelValues("not_found").Inc()
		http.NotFound(w, r)
		return
	}

	entry, err := s.orchestrator.GetConfig(r.Context(), s.configName(token))
	if err != nil {
		if !orchestrator.NotFound(err) {
			logger.Warn().Err(err).Str("token", token).Msg("challenge config lookup failed")
		}
		metrics.ChallengeRequestsTotal.WithLabelValues("not_found").Inc()
		http.NotFound(w, r)
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(string(entry.Data))
	if err != nil {
		logger.Error().Err(err).Str("token", token).Msg("challenge config is not valid base64")
		metrics.ChallengeRequestsTotal.WithLabelValues("error").Inc()
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	metrics.ChallengeRequestsTotal.WithLabelValues("served").Inc()
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write(decoded)
}

// ListenAndServe runs the challenge responder on addr until ctx is
// cancelled. It is a plain net/http server, which serves each request on
// its own goroutine. Shutdown uses the server's own graceful drain rather
// than killing in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
