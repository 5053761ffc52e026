// Package acmeagent implements ACMEAgent (spec.md §4.5): one
// certificate issuance for a ServiceView, modeled as an explicit order
// state machine so each transition is independently testable, per the
// design note in spec.md §9.
package acmeagent

import "github.com/google/uuid"

// State is one stage of an in-flight certificate order.
type State string

const (
	StateCreated    State = "created"
	StateChallenging State = "challenging"
	StateReady      State = "ready"
	StateFinalizing State = "finalizing"
	StateValid      State = "valid"
	StateFailed     State = "failed"
)

// order tracks one issuance attempt's progress through the states above.
// It exists purely for observability (logging, tests asserting
// intermediate state) — the workflow itself is linear and does not
// resume from a persisted order. ID correlates an order's log lines
// across the challenge-publish and finalize steps.
type order struct {
	id        string
	serviceID string
	hosts     []string
	state     State
}

func newOrder(serviceID string, hosts []string) *order {
	return &order{id: uuid.NewString(), serviceID: serviceID, hosts: hosts, state: StateCreated}
}

func (o *order) transition(to State) {
	o.state = to
}
