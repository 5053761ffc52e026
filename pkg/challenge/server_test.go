package challenge

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndi/ingress-controller/pkg/orchestrator"
)

func TestServeHTTPReturnsDecodedToken(t *testing.T) {
	o := orchestrator.NewMemory()
	content := "token123.thumbprint456"
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	if err := o.WriteConfig(context.Background(), "ndi.challange.token123", []byte(encoded), nil); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	s := New(o, "ndi")
	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/token123", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != content {
		t.Errorf("body = %q, want %q", rec.Body.String(), content)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestServeHTTPReturns404ForUnknownToken(t *testing.T) {
	o := orchestrator.NewMemory()
	s := New(o, "ndi")
	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/missing", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeHTTPReturns404ForOtherPaths(t *testing.T) {
	o := orchestrator.NewMemory()
	s := New(o, "ndi")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeHTTPReturns404ForNonGET(t *testing.T) {
	o := orchestrator.NewMemory()
	s := New(o, "ndi")
	req := httptest.NewRequest(http.MethodPost, "/.well-known/acme-challenge/token123", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
