package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dipcoater-service/internal/protocol"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8084", cfg.GetServerAddr())
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 50*time.Millisecond, cfg.Serial.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Serial.HandshakeTimeout)
	assert.Equal(t, 100, cfg.Device.StepsPerMM)
	assert.Equal(t, 8, cfg.Device.DriverStepsDivision)
	assert.InDelta(t, 7.0, cfg.Device.MaxSpeed, 1e-9)
	assert.Equal(t, 1, cfg.Device.InvertDirection)
	assert.Equal(t, 1, cfg.Device.InvertEnable)
	assert.Equal(t, "NO_LOG", cfg.Device.LogLevel)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, "./programs", cfg.Storage.ProgramsDir)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsDebugEnabled())
}

func TestLoadReadsFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "9000"
serial:
  handshake_timeout: 5s
device:
  log_level: debug
storage:
  backend: postgres
app:
  environment: production
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("DIPCOATER_DATABASE_DBNAME", "coater_test")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Serial.HandshakeTimeout)
	assert.Equal(t, "debug", cfg.Device.LogLevel)
	assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
	assert.True(t, cfg.IsProduction())
	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname=coater_test")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"DIPCOATER_APP_ENVIRONMENT":          "moon",
		"DIPCOATER_LOGGING_LEVEL":            "chatty",
		"DIPCOATER_STORAGE_BACKEND":          "s3",
		"DIPCOATER_SERIAL_HANDSHAKE_TIMEOUT": "-1s",
		"DIPCOATER_DEVICE_LOG_LEVEL":         "TRACE",
		"DIPCOATER_SERIAL_BAUD_RATE":         "9600",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadFrom(t.TempDir())
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o644))

	_, err := LoadFrom(dir)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoadRejectsOtherBaudRates(t *testing.T) {
	dir := t.TempDir()
	yaml := `
serial:
  baud_rate: 57600
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	_, err := LoadFrom(dir)
	assert.ErrorContains(t, err, "serial.baud_rate is fixed at 115200")

	t.Setenv("DIPCOATER_SERIAL_BAUD_RATE", "115200")
	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, ControllerBaudRate, cfg.Serial.BaudRate)
	assert.Equal(t, protocol.DefaultBaudRate, ControllerBaudRate)
}
