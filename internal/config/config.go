// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"dipcoater-service/internal/model"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Device   DeviceConfig   `mapstructure:"device"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            string        `mapstructure:"port" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ControllerBaudRate is the only rate the controller firmware listens on
const ControllerBaudRate = 115200

// SerialConfig represents the controller serial line. The line itself is
// fixed at 115200 8N1; baud_rate is accepted only to reject other values.
type SerialConfig struct {
	BaudRate         int           `mapstructure:"baud_rate"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// DeviceConfig holds the settings form defaults
type DeviceConfig struct {
	StepsPerMM          int     `mapstructure:"steps_per_mm"`
	DriverStepsDivision int     `mapstructure:"driver_steps_division"`
	MaxSpeed            float64 `mapstructure:"max_speed"`
	InvertDirection     int     `mapstructure:"invert_direction"`
	InvertEnable        int     `mapstructure:"invert_enable"`
	LogLevel            string  `mapstructure:"log_level"`
}

// StorageConfig selects the program repository
type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	ProgramsDir string `mapstructure:"programs_dir"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"dbname"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	MigrateOnStart bool          `mapstructure:"migrate_on_start"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Load loads configuration from .env, config.yaml and environment variables
func Load() (*Config, error) {
	paths := []string{"./config", "./internal/config", "../../internal/config"}
	if dir := os.Getenv("DIPCOATER_CONFIG_DIR"); dir != "" {
		paths = append([]string{dir}, paths...)
	}
	return LoadFrom(paths...)
}

// LoadFrom loads configuration searching config.yaml in the given directories.
// A missing config file is not an error; defaults and environment apply.
func LoadFrom(paths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	// Environment variable support
	v.SetEnvPrefix("DIPCOATER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Serial defaults
	v.SetDefault("serial.baud_rate", ControllerBaudRate)
	v.SetDefault("serial.poll_interval", "50ms")
	v.SetDefault("serial.handshake_timeout", "30s")

	// Settings form defaults
	v.SetDefault("device.steps_per_mm", 100)
	v.SetDefault("device.driver_steps_division", 8)
	v.SetDefault("device.max_speed", 7.0)
	v.SetDefault("device.invert_direction", 1)
	v.SetDefault("device.invert_enable", 1)
	v.SetDefault("device.log_level", "NO_LOG")

	// Storage defaults
	v.SetDefault("storage.backend", StorageFile)
	v.SetDefault("storage.programs_dir", "./programs")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "dipcoater")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.migrate_on_start", true)

	// App defaults
	v.SetDefault("app.name", "dipcoater-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	// Basic validation
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	if !contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	if config.Serial.BaudRate != ControllerBaudRate {
		return fmt.Errorf("serial.baud_rate is fixed at %d", ControllerBaudRate)
	}
	if config.Serial.PollInterval <= 0 {
		return fmt.Errorf("serial.poll_interval must be positive")
	}
	if config.Serial.HandshakeTimeout < 0 {
		return fmt.Errorf("serial.handshake_timeout must not be negative")
	}

	if _, err := model.ParseLogLevel(config.Device.LogLevel); err != nil {
		return fmt.Errorf("device.log_level: %w", err)
	}

	switch config.Storage.Backend {
	case StorageFile:
		if config.Storage.ProgramsDir == "" {
			return fmt.Errorf("storage.programs_dir is required for the file backend")
		}
	case StoragePostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database.host is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of: [%s %s]", StorageFile, StoragePostgres)
	}

	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
