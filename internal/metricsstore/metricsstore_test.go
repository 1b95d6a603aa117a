package metricsstore

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

// The mysql driver validates DSN syntax inside sql.Open itself, before any
// network I/O, so a malformed DSN fails fast without a reachable server.
func TestOpenRejectsMalformedDSN(t *testing.T) {
	_, err := Open("not a valid dsn!!", zap.NewNop())
	if err == nil {
		t.Fatalf("expected an error for a malformed DSN")
	}
}

func TestBuildMetricDurationConvertsToMicroseconds(t *testing.T) {
	m := BuildMetric{Method: "f", BuildDuration: 2500 * time.Microsecond}
	if got := m.BuildDuration.Microseconds(); got != 2500 {
		t.Fatalf("BuildDuration.Microseconds() = %d, want 2500", got)
	}
}
