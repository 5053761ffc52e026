package versionstore

import (
	"fmt"
	"testing"
)

// fakeBackend is a minimal in-memory Backend for exercising Store without
// an orchestrator.
type fakeBackend struct {
	entries map[string]Entry
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{entries: make(map[string]Entry)}
}

func (f *fakeBackend) List(prefix string) ([]Entry, error) {
	var out []Entry
	for name, e := range f.entries {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeBackend) Create(name string, data []byte, labels map[string]string) error {
	if _, exists := f.entries[name]; exists {
		return fmt.Errorf("entry %q already exists", name)
	}
	f.entries[name] = Entry{Name: name, Data: data, Labels: labels}
	return nil
}

func TestNextVersionEmptyIsZero(t *testing.T) {
	s := New(newFakeBackend(), "svc.abc.crt.")
	n, err := s.NextVersion()
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if n != 0 {
		t.Errorf("NextVersion() on empty store = %d, want 0", n)
	}
}

func TestWriteMonotonicVersions(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, "svc.abc.crt.")

	var written []int
	for i := 0; i < 4; i++ {
		n, err := s.Write([]byte("data"), nil)
		if err != nil {
			t.Fatalf("Write #%d: %v", i, err)
		}
		written = append(written, n)
	}

	for i, n := range written {
		if n != i {
			t.Errorf("write #%d got version %d, want %d", i, n, i)
		}
	}

	entry, version, ok, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !ok {
		t.Fatal("Latest() ok = false, want true")
	}
	if version != 3 {
		t.Errorf("Latest() version = %d, want 3", version)
	}
	if entry.Name != "svc.abc.crt.3" {
		t.Errorf("Latest() name = %q, want svc.abc.crt.3", entry.Name)
	}

	// Property 1: the next name is fresh and strictly greater than any
	// previous version suffix.
	next, err := s.NextVersion()
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if next <= version {
		t.Errorf("NextVersion() = %d, want > %d", next, version)
	}
}

func TestVersionsIgnoresMalformedSuffixes(t *testing.T) {
	backend := newFakeBackend()
	_ = backend.Create("svc.abc.crt.0", []byte("ok"), nil)
	_ = backend.Create("svc.abc.crt.latest", []byte("bad"), nil)
	_ = backend.Create("svc.abc.crt.-1", []byte("bad"), nil)
	_ = backend.Create("svc.abc.crt.07x", []byte("bad"), nil)

	s := New(backend, "svc.abc.crt.")
	versions, err := s.Versions()
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("Versions() = %v, want exactly version 0", versions)
	}
	if _, ok := versions[0]; !ok {
		t.Error("Versions() missing well-formed version 0")
	}
}

func TestLatestCommonVersion(t *testing.T) {
	backend := newFakeBackend()
	keys := New(backend, "svc.abc.key.")
	certs := New(backend, "svc.abc.crt.")

	for i := 0; i < 3; i++ {
		if _, err := keys.Write([]byte("key"), nil); err != nil {
			t.Fatalf("write key: %v", err)
		}
	}
	// certs only has versions 0 and 1 — version 2's cert hasn't landed yet.
	for i := 0; i < 2; i++ {
		if _, err := certs.Write([]byte("crt"), nil); err != nil {
			t.Fatalf("write crt: %v", err)
		}
	}

	pair, ok, err := keys.LatestCommon(certs)
	if err != nil {
		t.Fatalf("LatestCommon: %v", err)
	}
	if !ok {
		t.Fatal("LatestCommon() ok = false, want true")
	}
	if pair.Version != 1 {
		t.Errorf("LatestCommon() version = %d, want 1 (I2: max(keys ∩ certs))", pair.Version)
	}
}

func TestLatestCommonUndefinedWhenNoOverlap(t *testing.T) {
	backend := newFakeBackend()
	keys := New(backend, "svc.xyz.key.")
	certs := New(backend, "svc.xyz.crt.")

	if _, err := keys.Write([]byte("key"), nil); err != nil {
		t.Fatalf("write key: %v", err)
	}

	_, ok, err := keys.LatestCommon(certs)
	if err != nil {
		t.Fatalf("LatestCommon: %v", err)
	}
	if ok {
		t.Error("LatestCommon() ok = true, want false when certs is empty")
	}
}

func TestNameAt(t *testing.T) {
	s := New(newFakeBackend(), "dhparam.")
	if got, want := s.NameAt(5), "dhparam.5"; got != want {
		t.Errorf("NameAt(5) = %q, want %q", got, want)
	}
}
