package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "urdfc",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
	})
	require.NoError(t, err)

	assert.True(t, p.Enabled())
	assert.NotNil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_DefaultBatchTimeout(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "urdfc",
		ServiceVersion: "0.0.0-test",
		LogWriter:      &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSink(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "urdfc"})
	assert.Error(t, err)
}

func TestMeterIsNoop(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)
	assert.NotNil(t, p.Meter("urdfc"))
}
