package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultRCONTimeout  = 800 * time.Millisecond
	DefaultPaperAPIURL  = "https://api.papermc.io/v2/projects/paper"
	DefaultUserAgent    = "MCServerManager/1.0"
	DefaultListenAddr   = "127.0.0.1:8085"
)

// Default returns a config with every field populated.
func Default() *Config {
	dataDir := filepath.Join(dataHome(), "mcserver")
	cfg := &Config{
		DataDir:      dataDir,
		LogDir:       filepath.Join(stateHome(), "mcserver", "logs"),
		AuditDB:      filepath.Join(stateHome(), "mcserver", "audit.db"),
		LogLevel:     "info",
		PollInterval: DefaultPollInterval.String(),
		ListenAddr:   DefaultListenAddr,
		Bridge:       Bridge{ClientName: "mcserver"},
		RCON:         RCON{Host: "127.0.0.1", Timeout: DefaultRCONTimeout.String()},
		Paper:        Paper{APIURL: DefaultPaperAPIURL, UserAgent: DefaultUserAgent},
		Launch: Launch{
			Command: "java",
			Args:    []string{"-Xmx2G", "-jar", "server.jar", "nogui"},
			Stop:    Stop{Type: "stdin", Command: "stop\n", GracePeriod: "30s"},
		},
	}
	cfg.poll = DefaultPollInterval
	cfg.rconTimeout = DefaultRCONTimeout
	return cfg
}

// DefaultPath is $XDG_CONFIG_HOME/mcserver/mcserver.yaml.
func DefaultPath() string {
	return filepath.Join(configHome(), "mcserver", "mcserver.yaml")
}

// Load reads path on top of the defaults. A missing file is not an error.
// Values from .env and MCSERVER_* environment variables win over the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithField("component", "config").Warnf("ignoring .env: %v", err)
	}

	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse yaml %q: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := getenv("MCSERVER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := getenv("MCSERVER_BRIDGE_URL"); v != "" {
		cfg.Bridge.URL = v
	}
	if v := getenv("MCSERVER_BRIDGE_SECRET"); v != "" {
		cfg.Bridge.Secret = v
	}
	if v := getenv("MCSERVER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("MCSERVER_RCON_HOST"); v != "" {
		cfg.RCON.Host = v
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	d, err := parsePositive("poll_interval", c.PollInterval, DefaultPollInterval)
	if err != nil {
		return err
	}
	c.poll = d

	d, err = parsePositive("rcon.timeout", c.RCON.Timeout, DefaultRCONTimeout)
	if err != nil {
		return err
	}
	c.rconTimeout = d

	if strings.TrimSpace(c.Launch.Command) == "" {
		return fmt.Errorf("launch.command is required")
	}
	if _, err := ConvertStop("launch", c.Launch.Stop); err != nil {
		return err
	}
	return nil
}

func parsePositive(field, s string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, d)
	}
	return d, nil
}

// SetupLogging applies log_level to the standard logrus logger.
func (c *Config) SetupLogging() {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func getenv(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}
