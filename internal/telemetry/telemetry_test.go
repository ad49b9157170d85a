package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestParseLevel(t *testing.T) {
	t.Setenv(LevelEnv, "warn")
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "info", false)
	log.Debug().Msg("hidden")
	log.Info().Str("rule", "bind").Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"rule":"bind"`)

	buf.Reset()
	console := NewLogger(&buf, "debug", true)
	console.Debug().Msg("console")
	require.Contains(t, buf.String(), "console")
	require.NotContains(t, buf.String(), `"message"`)
}

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTracer(&buf, true, "test")
	require.NoError(t, err)
	_, span := tr.Start(context.Background(), "solve", attribute.String("file", "p.yaml"))
	RecordError(span, errors.New("boom"))
	span.End()
	require.NoError(t, tr.Shutdown(context.Background()))

	out := buf.String()
	require.Contains(t, out, `"Name": "solve"`)
	require.Contains(t, out, "p.yaml")
	require.Contains(t, out, "boom")
	require.Contains(t, out, ServiceName)
}

func TestDisabledTracer(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTracer(&buf, false, "test")
	require.NoError(t, err)
	_, span := tr.Start(context.Background(), "solve")
	span.End()
	require.NoError(t, tr.Shutdown(context.Background()))
	require.Empty(t, buf.String())
	require.NotNil(t, tr.Tracer())
}
