package combat

import "go.opentelemetry.io/otel/trace"

type EngineOpt func(*Engine)

func WithTracer(tr trace.Tracer) EngineOpt {
	return func(e *Engine) {
		e.tracer = tr
	}
}

// WithRefetchLimit bounds how often a repeated question is fetched again
// before the fight is abandoned.
func WithRefetchLimit(n int) EngineOpt {
	return func(e *Engine) {
		if n > 0 {
			e.refetchLimit = n
		}
	}
}
