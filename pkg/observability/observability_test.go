package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestTracer_NoopBeforeInitialize(t *testing.T) {
	require.NoError(t, Shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "noop")
	assert.NotNil(t, ctx)
	EndSpan(span, nil)
	assert.False(t, span.SpanContext().IsSampled())
}

func TestInitialize_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Writer = &buf
	cfg.PrettyPrint = false

	require.NoError(t, Initialize(context.Background(), cfg))

	_, span := StartSpan(context.Background(), "remote.enumerate", attribute.Int("max_depth", 1))
	assert.True(t, span.SpanContext().IsSampled())
	EndSpan(span, errors.New("boom"))

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "remote.enumerate")
	assert.Contains(t, buf.String(), "boom")
}
