package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "goyfeed-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	span, ctx := NewSpan(context.Background(), "noop", attribute.String("k", "v"))
	assert.NotNil(t, ctx)
	span.SetError(errors.New("ignored"))
	span.End()
	assert.Empty(t, span.TraceID())
}

func TestInitTracing_Stdout(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "goyfeed-test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1.0,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = InitTracing(TracingConfig{ServiceName: "goyfeed-test"})
	})

	span, _ := NewSpan(context.Background(), "graphql.test")
	assert.NotEmpty(t, span.TraceID())
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}
