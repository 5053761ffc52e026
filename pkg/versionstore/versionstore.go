// Package versionstore implements the VersionedStore abstraction: a typed
// view over a flat namespace of orchestrator entries named "<prefix>.<N>",
// where N is a monotonically increasing, non-negative integer version.
//
// It is deliberately the only generic piece of the controller (per the
// design note in SPEC_FULL.md §4.1): a single parameterised store over
// a minimal Backend, rather than a class hierarchy with one subtype per
// orchestrator resource kind. The same Store type backs both the Swarm
// secret family (key/cert/dhparam) and the Swarm config family
// (cluster config) — see pkg/orchestrator.
package versionstore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Entry is one orchestrator secret or config entry.
type Entry struct {
	Name   string
	Data   []byte
	Labels map[string]string
}

// Backend is the minimal set of orchestrator operations a VersionedStore
// needs. pkg/orchestrator provides one Backend bound to secrets and one
// bound to configs; both share this file's logic unchanged.
type Backend interface {
	// List returns every entry whose name starts with prefix.
	List(prefix string) ([]Entry, error)
	// Create writes a new entry. Backends implement delete-then-create
	// semantics internally (spec §4.2) — Store does not orchestrate that
	// here, it only ever calls Create with a name it has proven is free.
	Create(name string, data []byte, labels map[string]string) error
}

// Store is a VersionedStore bound to one prefix (which must end in ".").
type Store struct {
	backend Backend
	prefix  string
}

// New creates a Store. prefix must end with "." (e.g. "svc.abc123.crt.").
func New(backend Backend, prefix string) *Store {
	if !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	return &Store{backend: backend, prefix: prefix}
}

// Prefix returns the store's namespace prefix.
func (s *Store) Prefix() string {
	return s.prefix
}

// List returns every entry in this store's namespace, in no particular
// order. Every call reflects current orchestrator state — there is no
// cache (spec §4.1).
func (s *Store) List() ([]Entry, error) {
	entries, err := s.backend.List(s.prefix)
	if err != nil {
		return nil, fmt.Errorf("versionstore: list %q: %w", s.prefix, err)
	}
	return entries, nil
}

// versionOf extracts the integer suffix after the store's prefix. ok is
// false when the suffix is missing, not an integer, or negative — such
// entries are ignored by Versions/Latest/CommonVersions per spec §4.1.
func (s *Store) versionOf(name string) (int, bool) {
	suffix := strings.TrimPrefix(name, s.prefix)
	if suffix == name { // prefix didn't match
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Versions returns a version -> entry mapping for every well-formed
// versioned entry in this store's namespace.
func (s *Store) Versions() (map[int]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	out := make(map[int]Entry, len(entries))
	for _, e := range entries {
		if v, ok := s.versionOf(e.Name); ok {
			out[v] = e
		}
	}
	return out, nil
}

// Latest returns the entry at the maximum version, or ok=false if the
// namespace is empty.
func (s *Store) Latest() (entry Entry, version int, ok bool, err error) {
	versions, err := s.Versions()
	if err != nil {
		return Entry{}, 0, false, err
	}
	if len(versions) == 0 {
		return Entry{}, 0, false, nil
	}
	max := -1
	for v := range versions {
		if v > max {
			max = v
		}
	}
	return versions[max], max, true, nil
}

// NextVersion returns the version a new write to this store should use:
// max(existing)+1, or 0 if the namespace is empty (invariant I1).
func (s *Store) NextVersion() (int, error) {
	versions, err := s.Versions()
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, nil
	}
	max := -1
	for v := range versions {
		if v > max {
			max = v
		}
	}
	return max + 1, nil
}

// NameAt returns the fully-qualified entry name for version n.
func (s *Store) NameAt(n int) string {
	return s.prefix + strconv.Itoa(n)
}

// Write creates the entry at NextVersion(), returning the version used.
// Callers that must write two related stores at the same version (e.g.
// key+cert in ACMEAgent) compute NextVersion() once up front instead of
// calling Write independently on each store.
func (s *Store) Write(data []byte, labels map[string]string) (int, error) {
	n, err := s.NextVersion()
	if err != nil {
		return 0, err
	}
	if err := s.backend.Create(s.NameAt(n), data, labels); err != nil {
		return 0, fmt.Errorf("versionstore: write %q: %w", s.NameAt(n), err)
	}
	return n, nil
}

// Pair is one version present in both of two related stores.
type Pair struct {
	Version int
	Self    Entry
	Other   Entry
}

// CommonVersions returns every version present in both s and other,
// sorted descending by version (so callers that want "the latest common
// version" can take element 0).
func (s *Store) CommonVersions(other *Store) ([]Pair, error) {
	selfVersions, err := s.Versions()
	if err != nil {
		return nil, err
	}
	otherVersions, err := other.Versions()
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for v, selfEntry := range selfVersions {
		if otherEntry, ok := otherVersions[v]; ok {
			pairs = append(pairs, Pair{Version: v, Self: selfEntry, Other: otherEntry})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Version > pairs[j].Version })
	return pairs, nil
}

// LatestCommon returns the highest version present in both s and other,
// or ok=false if there is no such version (invariant I2).
func (s *Store) LatestCommon(other *Store) (pair Pair, ok bool, err error) {
	pairs, err := s.CommonVersions(other)
	if err != nil {
		return Pair{}, false, err
	}
	if len(pairs) == 0 {
		return Pair{}, false, nil
	}
	return pairs[0], true, nil
}
