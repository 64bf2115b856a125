package zerolog_test

import (
	"bytes"
	"encoding/json"
	"testing"

	rszerolog "github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-fulfillment/logger/zerolog"
)

func TestLoggerWritesKeyValuePairs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.NewLogger(rszerolog.New(buf))

	logger.Info("customer provisioned", "tenant_id", "abc", "licenses", 5)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "customer provisioned", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc", entry["tenant_id"])
	assert.Equal(t, float64(5), entry["licenses"])
}

func TestLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.NewLogger(rszerolog.New(buf))

	logger.Error("boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
}

func TestLoggerOddTrailingArg(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.NewLogger(rszerolog.New(buf))

	logger.Debug("lookup", "kid")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kid", entry["extra"])
}
