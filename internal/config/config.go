// Package config loads service settings. Precedence, lowest first: defaults,
// YAML file, environment, command-line flags (applied by the caller).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/pacservice-go/internal/logging"
)

type Config struct {
	Listen  string        `yaml:"listen"`
	DBFile  string        `yaml:"db_file"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Persist PersistConfig `yaml:"persist"`
}

// AuthConfig enables HTTP Basic auth when both fields are set.
type AuthConfig struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

func (a AuthConfig) Enabled() bool { return a.User != "" && a.Pass != "" }

type LogConfig struct {
	Level   string `yaml:"level"`   // debug | info | warn | error
	File    string `yaml:"file"`    // optional JSON log file, appended
	Journal bool   `yaml:"journal"` // also send records to the systemd journal
}

type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type PersistConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
}

func Default() Config {
	return Config{
		Listen: ":3000",
		DBFile: "data/db.json",
		Log:    LogConfig{Level: "info"},
		HTTP: HTTPConfig{
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Persist: PersistConfig{
			MaxAttempts: 5,
			RetryDelay:  50 * time.Millisecond,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays the environment. DB_FILE, PORT and BASIC_AUTH_* keep the
// names earlier deployments of the service used.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
	if v := getenv("PACSERVICE_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv("DB_FILE"); v != "" {
		c.DBFile = v
	}
	if v := getenv("BASIC_AUTH_USER"); v != "" {
		c.Auth.User = v
	}
	if v := getenv("BASIC_AUTH_PASS"); v != "" {
		c.Auth.Pass = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen must not be empty"))
	}
	if strings.TrimSpace(c.DBFile) == "" {
		errs = append(errs, errors.New("db_file must not be empty"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.HTTP.ReadHeaderTimeout <= 0 {
		errs = append(errs, errors.New("http.read_header_timeout must be positive"))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("http.shutdown_timeout must be positive"))
	}
	if c.Persist.MaxAttempts < 1 {
		errs = append(errs, errors.New("persist.max_attempts must be at least 1"))
	}
	if c.Persist.RetryDelay < 0 {
		errs = append(errs, errors.New("persist.retry_delay must not be negative"))
	}
	return errors.Join(errs...)
}
