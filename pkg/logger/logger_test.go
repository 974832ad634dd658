package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "loud"})
	require.Error(t, err)
}

func TestFromContext_AddsIDs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := ContextWithJob(context.Background(), "job-1")
	ctx = ContextWithConnector(ctx, "ftp")
	ctx = ContextWithSubTask(ctx, "ftp_3")

	FromContext(ctx, base).Info("enumerated")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "job-1", fields["job_id"])
	assert.Equal(t, "ftp", fields["connector"])
	assert.Equal(t, "ftp_3", fields["subtask_id"])
}

func TestGet_ReturnsInstalledLogger(t *testing.T) {
	l := zap.NewNop()
	Set(l)
	t.Cleanup(func() { Set(nil) })

	assert.Same(t, l, Get())
}
