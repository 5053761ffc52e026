// Package orchestrator is the adapter boundary described in spec §4.2:
// everything the controller knows about the cluster it manages — which
// services carry nginx-ingress labels, what secrets and configs exist,
// how to converge a service's task state — flows through the
// Orchestrator interface. Docker implements it against a live Swarm
// manager; Memory implements it in-process for tests.
package orchestrator
