package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

func lastEntry(t *testing.T, tl *logging.TestLogger) map[string]any {
	t.Helper()
	lines := tl.Lines()
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	ctx = logging.WithSource(ctx, "acnc")
	ctx = logging.WithState(ctx, "NSW")
	ctx = logging.WithPostcode(ctx, "2000")
	ctx = logging.WithOperation(ctx, "extract")

	logging.FromContext(ctx).Info().Msg("querying")

	entry := lastEntry(t, tl)
	assert.Equal(t, "acnc", entry["source"])
	assert.Equal(t, "NSW", entry["state"])
	assert.Equal(t, "2000", entry["postcode"])
	assert.Equal(t, "extract", entry["operation"])
	assert.Equal(t, "querying", entry["message"])
}

func TestWithFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"records": 3,
		"cached":  true,
	})

	logging.Ctx(ctx).Info().Msg("done")

	entry := lastEntry(t, tl)
	assert.EqualValues(t, 3, entry["records"])
	assert.Equal(t, true, entry["cached"])
}

func TestWithRequestID(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRequestID(ctx, "req-1")

	assert.Equal(t, "req-1", logging.RequestID(ctx))
	logging.FromContext(ctx).Info().Msg("hello")
	assert.Equal(t, "req-1", lastEntry(t, tl)["request_id"])
}

func TestWithError(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	tl := logging.NewTestLogger(t)
	ctx = logging.WithLogger(ctx, tl.Logger)
	ctx = logging.WithError(ctx, errors.New("boom"))
	logging.FromContext(ctx).Warn().Msg("failed")
	assert.Equal(t, "boom", lastEntry(t, tl)["error"])
}

func TestFromContextDefaults(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
}

func TestNewLoggerFromConfig(t *testing.T) {
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: "discard",
		Fields: map[string]any{"service": "orgs-sveltekit-etl"},
	})
	assert.Equal(t, "warn", logger.GetLevel().String())
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)
	logging.Info().Str("state", "VIC").Msg("captured")
	assert.True(t, tl.Contains("captured"))
	assert.True(t, tl.Contains(`"state":"VIC"`))
}
