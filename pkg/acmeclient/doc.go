/*
Package acmeclient narrows github.com/go-acme/lego/v4 down to the
Register/ObtainCertificate surface pkg/acmeagent's order state machine
drives. Lego handles directory discovery, nonce management, and polling
order/authorization status; this package only adds the PublishFunc hook
so challenge tokens land in the orchestrator config store before lego
triggers validation (invariant I5).
*/
package acmeclient
