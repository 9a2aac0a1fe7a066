// Package config resolves runtime settings from defaults, an optional JSONC
// file and KANBAN_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tailscale/hujson"

	"kanban/internal/storage"
	"kanban/internal/util"
)

// Config holds every setting the server and CLI need.
type Config struct {
	Addr            string   `json:"addr"`
	DBDriver        string   `json:"dbDriver"`
	DBDSN           string   `json:"dbDsn"`
	StaticDir       string   `json:"staticDir"`
	JWTSecret       string   `json:"jwtSecret"`
	TokenTTL        Duration `json:"tokenTTL"`
	CompactOnDelete bool     `json:"compactOnDelete"`
	CORSOrigins     []string `json:"corsOrigins"`
	LogLevel        string   `json:"logLevel"`
	LogFormat       string   `json:"logFormat"`
}

// Duration reads Go duration strings such as "24h" from JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DBDriver:        storage.DriverSQLite,
		DBDSN:           "data/kanban.db",
		TokenTTL:        Duration{24 * time.Hour},
		CompactOnDelete: true,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load layers defaults, the JSONC file at path (skipped when path is empty)
// and the environment, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := parse(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parse decodes JSONC over cfg. Keys absent from the file keep their value.
func parse(data []byte, cfg *Config) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}
	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Addr = util.EnvOrDefault("KANBAN_ADDR", c.Addr)
	c.DBDriver = util.EnvOrDefault("KANBAN_DB_DRIVER", c.DBDriver)
	c.DBDSN = util.EnvOrDefault("KANBAN_DB_DSN", c.DBDSN)
	c.StaticDir = util.EnvOrDefault("KANBAN_STATIC_DIR", c.StaticDir)
	c.JWTSecret = util.EnvOrDefault("KANBAN_JWT_SECRET", c.JWTSecret)
	c.LogLevel = util.EnvOrDefault("KANBAN_LOG_LEVEL", c.LogLevel)
	c.LogFormat = util.EnvOrDefault("KANBAN_LOG_FORMAT", c.LogFormat)

	if v := util.EnvOrDefault("KANBAN_TOKEN_TTL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KANBAN_TOKEN_TTL: %w", err)
		}
		c.TokenTTL = Duration{d}
	}
	if v := util.EnvOrDefault("KANBAN_COMPACT_ON_DELETE", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("KANBAN_COMPACT_ON_DELETE: %w", err)
		}
		c.CompactOnDelete = b
	}
	if v := util.EnvOrDefault("KANBAN_CORS_ORIGINS", ""); v != "" {
		c.CORSOrigins = SplitList(v)
	}
	return nil
}

// SplitList splits a comma separated list and drops empty entries.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks settings that would otherwise fail later at startup.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("dbDriver must be %q or %q, got %q", storage.DriverSQLite, storage.DriverPostgres, c.DBDriver))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("dbDsn is required"))
	}
	if c.TokenTTL.Duration < 0 {
		errs = append(errs, errors.New("tokenTTL must not be negative"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("logFormat must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Logger builds the process logger described by the config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logLevel: %w", err)
	}
	return level, nil
}
