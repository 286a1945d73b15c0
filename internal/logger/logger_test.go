package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSON(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	require.NoError(t, Configure(Options{Level: "debug", Format: "json", Output: &buf}))

	WithFields(logrus.Fields{"mask": "red/edges", "contours": 3}).Debug("mask scanned")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mask scanned", entry["msg"])
	assert.Equal(t, "red/edges", entry["mask"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigure_EnvOverridesLevel(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	var buf bytes.Buffer
	require.NoError(t, Configure(Options{Level: "debug", Output: &buf}))
	assert.Equal(t, logrus.ErrorLevel, Logger.GetLevel())

	WithField("k", "v").Warn("hidden")
	assert.Empty(t, buf.String())
}

func TestConfigure_Invalid(t *testing.T) {
	t.Setenv(EnvLevel, "")
	assert.Error(t, Configure(Options{Level: "loud"}))
	assert.Error(t, Configure(Options{Format: "xml"}))
}
