package telemetry

import (
	"context"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestNoopTracer(t *testing.T) {
	_, span := NoopTracer().Start(context.Background(), "combat.start")
	defer span.End()

	testutil.AssertEqual(t, "recording", span.IsRecording(), false)
}
