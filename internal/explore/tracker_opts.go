package explore

import "go.opentelemetry.io/otel/trace"

type TrackerOpt func(*Tracker)

func WithTracer(tr trace.Tracer) TrackerOpt {
	return func(t *Tracker) {
		t.tracer = tr
	}
}
