// Package config loads twill configuration files.
//
// A configuration file is TOML or YAML, chosen by extension. Every section is
// optional:
//
//	[api]
//	url = "https://cms.example.com"
//	prefix = "/jsonapi"
//	token = "..."
//
//	[pipeline]
//	max_resources = 50000
//	relationship_links = true
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[rules.pages]
//	locale = "fr"
//	fallback = "en"
//	translate = ["title", "body"]
//
//	[rules.people.expressions]
//	displayName = 'resource.first + " " + resource.last'
//
// Environment variables override the file: TWILL_URL and TWILL_TOKEN set the
// API origin and bearer token.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/twill/pkg/cache"
	"github.com/matzehuels/twill/pkg/errors"
	"github.com/matzehuels/twill/pkg/extract"
	"github.com/matzehuels/twill/pkg/pipeline"
	"github.com/matzehuels/twill/pkg/sink"
)

// Environment variables read by ApplyEnv.
const (
	EnvURL   = "TWILL_URL"
	EnvToken = "TWILL_TOKEN"
)

// DefaultAddr is the listen address of the serve command.
const DefaultAddr = ":8080"

// Config is the root of a configuration file.
type Config struct {
	API      APIConfig                   `toml:"api" yaml:"api"`
	Pipeline pipeline.Options            `toml:"pipeline" yaml:"pipeline"`
	Cache    cache.Config                `toml:"cache" yaml:"cache"`
	Rules    map[string]extract.RuleSpec `toml:"rules" yaml:"rules"`
	Server   ServerConfig                `toml:"server" yaml:"server"`
	Mongo    sink.MongoOptions           `toml:"mongo" yaml:"mongo"`
}

// APIConfig locates the JSON:API server.
type APIConfig struct {
	URL      string        `toml:"url" yaml:"url"`
	Token    string        `toml:"token" yaml:"token"`
	Prefix   string        `toml:"prefix" yaml:"prefix"`
	Version  string        `toml:"version" yaml:"version"`
	Timeout  time.Duration `toml:"timeout" yaml:"timeout"`
	Attempts int           `toml:"attempts" yaml:"attempts"`
}

// ServerConfig configures the HTTP transform endpoint.
type ServerConfig struct {
	Addr         string        `toml:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes" yaml:"max_body_bytes"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	c.Pipeline.SetDefaults()
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 32 << 20
	}
	c.Mongo.SetDefaults()
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if c.API.URL != "" {
		if err := errors.ValidateURL(c.API.URL); err != nil {
			return err
		}
	}
	if c.API.Attempts < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "api.attempts must not be negative")
	}
	switch c.Cache.Backend {
	case "", cache.BackendNone, cache.BackendFile:
	case cache.BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend: %q", c.Cache.Backend)
	}
	for typ, spec := range c.Rules {
		if err := errors.ValidateMemberName(typ); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "rules.%s", typ)
		}
		for _, l := range []string{spec.Locale, spec.Fallback} {
			if l == "" {
				continue
			}
			if err := errors.ValidateLocale(l); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "rules.%s", typ)
			}
		}
	}
	return nil
}

// Extractor compiles the configured rules.
func (c *Config) Extractor() (*extract.Registry, error) {
	x, err := extract.Build(c.Rules)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "compile rules")
	}
	return x, nil
}

// ApplyEnv overrides file settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvURL); v != "" {
		c.API.URL = v
	}
	if v := getenv(EnvToken); v != "" {
		c.API.Token = v
	}
}

// Load reads a TOML or YAML file, applies the environment and defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	c, err := Parse(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes the file at path without applying defaults.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	var c Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &c)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	return &c, nil
}

// SearchPaths returns the locations Find checks, in order.
func SearchPaths() []string {
	paths := []string{"twill.toml", "twill.yaml", "twill.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		base := filepath.Join(dir, "twill")
		paths = append(paths,
			filepath.Join(base, "config.toml"),
			filepath.Join(base, "config.yaml"),
		)
	}
	return paths
}

// Find returns the first existing file from SearchPaths, or "".
func Find() string {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Resolve loads path, or the first file found by Find, or the defaults when
// neither exists. The environment is applied in every case.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = Find()
	}
	if path != "" {
		return Load(path)
	}
	c := &Config{}
	c.ApplyEnv(os.Getenv)
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
