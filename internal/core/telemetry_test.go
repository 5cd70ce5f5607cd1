// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wattgrid/marketplace-api/internal/config"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func TestStartSpan_ErrorAndEvents(t *testing.T) {
	sr := recordSpans(t)

	ctx, span := StartSpan(context.Background(), "quotation.check_quota",
		attribute.String("seller.id", "s-1"))
	assert.NotEmpty(t, TraceIDFromContext(ctx))

	AddSpanEvent(ctx, "quotation.quota_rejected", attribute.Int("quota.used", 3))
	SetSpanError(ctx, errors.New("quota exceeded"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	got := ended[0]

	assert.Equal(t, "quotation.check_quota", got.Name())
	assert.Equal(t, TracerName, got.InstrumentationScope().Name)
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "quota exceeded", got.Status().Description)
	assert.Contains(t, got.Attributes(), attribute.String("seller.id", "s-1"))

	names := make([]string, 0, len(got.Events()))
	for _, ev := range got.Events() {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"quotation.quota_rejected", "exception"}, names)
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestServiceAttributes(t *testing.T) {
	attrs := serviceAttributes(
		config.OtelConfig{ServiceName: "wattgrid-marketplace", ServiceNamespace: "wattgrid"},
		config.AppConfig{Version: "1.2.0", Environment: "staging"},
	)

	assert.Contains(t, attrs, attribute.String("service.name", "wattgrid-marketplace"))
	assert.Contains(t, attrs, attribute.String("service.namespace", "wattgrid"))
	assert.Contains(t, attrs, attribute.String("service.version", "1.2.0"))
	assert.Contains(t, attrs, attribute.String("deployment.environment", "staging"))

	attrs = serviceAttributes(config.OtelConfig{ServiceName: "x"}, config.AppConfig{})
	for _, kv := range attrs {
		assert.NotEqual(t, attribute.Key("service.namespace"), kv.Key)
	}
}

func TestSampleRate(t *testing.T) {
	assert.InDelta(t, 0.1, sampleRate(0), 0)
	assert.InDelta(t, 0.1, sampleRate(1.5), 0)
	assert.InDelta(t, 0.25, sampleRate(0.25), 0)
	assert.InDelta(t, 1.0, sampleRate(1), 0)
}

func TestNewTelemetry_Disabled(t *testing.T) {
	tel, err := NewTelemetry(context.Background(),
		config.OtelConfig{Enabled: false, Endpoint: "collector:4317"},
		config.AppConfig{},
	)
	require.NoError(t, err)
	assert.Nil(t, tel.TracerProvider)
	assert.NoError(t, tel.Shutdown(context.Background()))
}
