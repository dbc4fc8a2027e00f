// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout bounds each upstream Canvas request.
	defaultRequestTimeout = 30 * time.Second
	// defaultDaysAhead is the look-ahead window used when a caller omits days_ahead.
	defaultDaysAhead = 7
	// defaultMaxConcurrency bounds per-course fan-out.
	defaultMaxConcurrency = 4
	// defaultListenAddress is used by the http transport when neither config nor PORT set one.
	defaultListenAddress = ":8000"
	// defaultTransport is the MCP transport used when none is configured.
	defaultTransport = "stdio"
)

// Transports lists the MCP transports the server can run.
var Transports = []string{"stdio", "http"}

// Config represents the top-level application configuration. It never holds
// Canvas credentials; those arrive with every tool call.
type Config struct {
	Debug          bool   `json:"debug" mapstructure:"debug"`
	Transport      string `json:"transport,omitempty" mapstructure:"transport"`
	ListenAddr     string `json:"listen,omitempty" mapstructure:"listen"`
	TimeoutSeconds int    `json:"timeout,omitempty" mapstructure:"timeout"`
	DaysAhead      int    `json:"daysAhead,omitempty" mapstructure:"daysAhead"`
	MaxConcurrent  int    `json:"maxConcurrency,omitempty" mapstructure:"maxConcurrency"`
	LogFile        string `json:"logFile,omitempty" mapstructure:"logFile"`
	UserAgent      string `json:"userAgent,omitempty" mapstructure:"userAgent"`
	ConfigPath     string `json:"-" mapstructure:"-"`
}

// RequestTimeout returns the timeout duration for Canvas requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultDaysAhead returns the look-ahead window applied when a tool call omits one.
func (c Config) DefaultDaysAhead() int {
	if c.DaysAhead <= 0 {
		return defaultDaysAhead
	}
	return c.DaysAhead
}

// MaxConcurrency returns the per-call fan-out limit.
func (c Config) MaxConcurrency() int {
	if c.MaxConcurrent <= 0 {
		return defaultMaxConcurrency
	}
	return c.MaxConcurrent
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "canvasmcp.log"
}

// ListenAddress returns the http transport address. The PORT environment
// variable wins over the default but not over an explicit setting.
func (c Config) ListenAddress() string {
	if addr := strings.TrimSpace(c.ListenAddr); addr != "" {
		return addr
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		return ":" + port
	}
	return defaultListenAddress
}

// TransportName returns the configured MCP transport.
func (c Config) TransportName() string {
	if t := strings.ToLower(strings.TrimSpace(c.Transport)); t != "" {
		return t
	}
	return defaultTransport
}

// UserAgentString returns the User-Agent sent to Canvas.
func (c Config) UserAgentString(version string) string {
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		return ua
	}
	if version == "" {
		version = "dev"
	}
	return "canvasmcp/" + version
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	name := c.TransportName()
	for _, t := range Transports {
		if t == name {
			return nil
		}
	}
	return fmt.Errorf("invalid transport %q (expected one of %s)", c.Transport, strings.Join(Transports, ", "))
}

// Load reads the application configuration from path. A missing file at the
// default path yields the defaults; a missing explicit path is an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		if err := config.Validate(); err != nil {
			return Config{}, err
		}
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}

	return config, nil
}
