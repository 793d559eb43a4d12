package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ConversionsTotal", ConversionsTotal},
		{"ConversionDuration", ConversionDuration},
		{"OutputBytesTotal", OutputBytesTotal},
		{"BatchesTotal", BatchesTotal},
		{"EngineLoadsTotal", EngineLoadsTotal},
		{"LiveBlobs", LiveBlobs},
		{"LiveBlobBytes", LiveBlobBytes},
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestConversionsCounter(t *testing.T) {
	before := testutil.ToFloat64(ConversionsTotal.WithLabelValues(StatusFailure))
	ConversionsTotal.WithLabelValues(Status(errors.New("x"))).Inc()
	after := testutil.ToFloat64(ConversionsTotal.WithLabelValues(StatusFailure))
	if after-before != 1 {
		t.Errorf("failure counter moved by %v, want 1", after-before)
	}
}

func TestStatus(t *testing.T) {
	if Status(nil) != StatusSuccess {
		t.Error("nil error not success")
	}
	if Status(errors.New("boom")) != StatusFailure {
		t.Error("error not failure")
	}
}
