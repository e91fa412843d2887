package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"dipcoater-service/internal/config"
	"dipcoater-service/internal/model"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(&config.LoggingConfig{Level: "loud", Output: "stdout"})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "service.log")
	logger, err := NewLogger(&config.LoggingConfig{Level: "debug", Format: "json", Output: path, MaxSize: 1})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, CloseLogger(logger))
	assert.FileExists(t, path)
}

func TestLinkLoggerMapsEventLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	linkLogger := NewLinkLogger(zap.New(core), "/dev/ttyUSB0")

	linkLogger.LogEvent(model.LinkEvent{Seq: 1, Type: model.EventInfo, Message: "Device ready"})
	linkLogger.LogEvent(model.LinkEvent{Seq: 2, Type: model.EventProgressPercent, Percent: 50})
	linkLogger.LogEvent(model.LinkEvent{Seq: 3, Type: model.EventError, Message: "invalid ACK byte"})
	linkLogger.LogEvent(model.LinkEvent{Seq: 4, Type: model.EventConnectionState, Connected: true})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "Device ready", entries[0].Message)
	assert.Equal(t, "/dev/ttyUSB0", entries[0].ContextMap()["port"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, int64(50), entries[1].ContextMap()["percent"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, true, entries[3].ContextMap()["connected"])
}
