package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "iptvbrowser", "debug", "json")
	require.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())

	log.WithField("url", "http://x").Info("playlist loaded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "iptvbrowser", line["service"])
	require.Equal(t, "http://x", line["url"])
	require.Equal(t, "playlist loaded", line["msg"])
}

func TestNewLoggerDefaults(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "svc", "loud", "text")
	require.Equal(t, logrus.InfoLevel, log.Logger.GetLevel())

	log.Debug("hidden")
	require.Zero(t, buf.Len())
	log.Info("shown")
	require.Contains(t, buf.String(), "shown")
}
