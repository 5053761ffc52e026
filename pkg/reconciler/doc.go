/*
Package reconciler implements spec.md §4.6: the fixed-order bootstrap
steps (ensureAccount, ensureDhparams, ensureRobot, ensureChallenge),
the steady-state ensureNginxService loop, and the observe worker
(Observer) that classifies each ACME-opted-in service as new/renew/skip
and runs ACMEAgent concurrently across them.

Reconciler holds no state between passes beyond the cluster config it
was constructed with — every decision is re-derived from the
orchestrator on each call, per the "controller keeps no durable local
state" design note in spec.md §9.
*/
package reconciler
