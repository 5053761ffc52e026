/*
Package log provides structured logging for the ingress controller using
zerolog.

The controller has no admin API and no alerting surface (spec §7): INFO
and DEBUG logs are the only user-visible record of what a reconcile pass
or an ACME order did. This package wraps zerolog to keep that record
structured and consistently shaped across components.

# Usage

Initializing the logger, once, at process start:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Simple logging:

	log.Info("reconcile pass starting")
	log.Warn("challenge responder not reachable on ingress network")
	log.Error("order finalize failed")

Structured, component-scoped logging:

	reconcileLog := log.WithComponent("reconciler")
	reconcileLog.Info().Int("services", len(views)).Msg("rendering proxy config")

	orderLog := log.WithServiceID(svc.ID).With().Str("order_id", orderID).Logger()
	orderLog.Info().Str("status", "valid").Msg("order finalized")

# Output

JSON (production):

	{"level":"info","component":"acmeagent","service_id":"svc-1","time":"...","message":"order finalized"}

Console (development), selected by Config.JSONOutput == false:

	2024-05-01T15:04:05Z INF order finalized component=acmeagent service_id=svc-1

# Levels

Debug is for per-poll detail (waitForState ticks, challenge lookups);
Info is for state transitions (order created, cert written, service
ensured); Warn is for retried-but-recovered conditions; Error is for a
failed pass or a failed order, both of which the caller treats as
non-fatal and retries on the next tick; Fatal is reserved for startup
failures where no further work is safe (an unparseable cluster config).
*/
package log
