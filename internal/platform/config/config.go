// Package config handles configuration via environment variables and optional YAML search profiles
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Conf is a namespaced view over environment variables (e.g., "DS_", "SERVER_")
// Use New() for global access, or Prefix("SERVER_") for module scopes.
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("SERVER_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// key composes the fully-qualified env var name
func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(key string) string {
	return strings.TrimSpace(os.Getenv(c.key(key)))
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing, empty or not an int
func (c Conf) MayInt(key string, def int) int {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// MayUint64 returns the value or def if missing, empty or not an unsigned int
func (c Conf) MayUint64(key string, def uint64) uint64 {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v
	}
	return def
}

// MayBool parses a bool-like env ("1|true|yes") with default fallback
func (c Conf) MayBool(key string, def bool) bool {
	s := strings.ToLower(c.lookup(key))
	if s == "" {
		return def
	}
	return s == "1" || s == "true" || s == "yes"
}

// MayDuration returns the parsed duration or def if missing or invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// Port returns a Go net/http addr like ":8080" after validation 1..65535
func (c Conf) Port(key string, def int) (string, error) {
	p := c.MayInt(key, def)
	if p < 1 || p > 65535 {
		return "", fmt.Errorf("invalid TCP port %d for %s; expected 1..65535", p, c.key(key))
	}
	return ":" + strconv.Itoa(p), nil
}

// Profile holds defaults for a search run. Zero values mean "not set".
type Profile struct {
	Output    string `yaml:"output"`
	DBPath    string `yaml:"db"`
	Workers   int    `yaml:"workers"`
	Metrics   bool   `yaml:"metrics"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Primality string `yaml:"primality"`
}

// LoadProfile reads a YAML search profile from path
func LoadProfile(path string) (Profile, error) {
	var p Profile

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if p.Workers < 0 {
		return p, fmt.Errorf("profile %s: workers must not be negative", path)
	}

	return p, nil
}
