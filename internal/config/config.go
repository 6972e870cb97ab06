package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Fixtures        FixturesConfig   `yaml:"fixtures"`
	Database        DatabaseConfig   `yaml:"database"`
	Standalone      StandaloneConfig `yaml:"standalone"`
	Log             LogConfig        `yaml:"log"`
	EventBus        EventBusConfig   `yaml:"eventbus"`
	ShutdownTimeout Duration         `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// FixturesConfig locates the fixtures config file and its backup rotation.
type FixturesConfig struct {
	Path         string   `yaml:"path"`
	BackupDir    string   `yaml:"backup_dir"`
	PollInterval Duration `yaml:"poll_interval"` // Polling fallback for external edits
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StandaloneConfig tunes the animation runtime's dispatch behavior.
type StandaloneConfig struct {
	HueTimeout       Duration `yaml:"hue_timeout"`        // Per-call bound on Hue bridge requests
	HueRateLimitRPS  float64  `yaml:"hue_rate_limit_rps"` // Bridge calls per second, 0 = unlimited
	RetryAttempts    int      `yaml:"retry_attempts"`     // Lifecycle broadcast attempts
	RetryDelay       Duration `yaml:"retry_delay"`        // Fixed delay between attempts
	WizResends       int      `yaml:"wiz_resends"`        // setPilot repeats per send
	WizResendSpacing Duration `yaml:"wiz_resend_spacing"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// EventBusConfig contains intent bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 4)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./raved.sqlite"
	}

	// Fixtures defaults
	if cfg.Fixtures.Path == "" {
		cfg.Fixtures.Path = "./fixtures.config.json"
	}
	if cfg.Fixtures.BackupDir == "" {
		cfg.Fixtures.BackupDir = "./data"
	}
	if cfg.Fixtures.PollInterval == 0 {
		cfg.Fixtures.PollInterval = Duration(600 * time.Millisecond)
	}

	// Standalone runtime defaults
	if cfg.Standalone.HueTimeout == 0 {
		cfg.Standalone.HueTimeout = Duration(1800 * time.Millisecond)
	}
	if cfg.Standalone.HueRateLimitRPS == 0 {
		cfg.Standalone.HueRateLimitRPS = 10.0
	}
	if cfg.Standalone.RetryAttempts == 0 {
		cfg.Standalone.RetryAttempts = 3
	}
	if cfg.Standalone.RetryDelay == 0 {
		cfg.Standalone.RetryDelay = Duration(250 * time.Millisecond)
	}
	if cfg.Standalone.WizResends == 0 {
		cfg.Standalone.WizResends = 3
	}
	if cfg.Standalone.WizResendSpacing == 0 {
		cfg.Standalone.WizResendSpacing = Duration(40 * time.Millisecond)
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

// ExpandEnvString expands a single string with environment variables
func ExpandEnvString(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return expandEnvVars(s)
	}
	return s
}
