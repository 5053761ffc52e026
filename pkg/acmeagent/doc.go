/*
Package acmeagent implements ACMEAgent, spec.md §4.5's certificate
issuance workflow for one ServiceView: next-version computation, order
submission, per-authorization challenge publication before triggering
(invariant I5), finalization with a freshly generated CSR, and a
defensive delete-then-write of the resulting key/cert pair.
*/
package acmeagent
