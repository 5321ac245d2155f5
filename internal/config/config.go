// Package config loads espalier settings from an optional TOML file and
// ESPALIER_* environment variables. Environment wins over the file; CLI
// flags win over both and are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/espalier/internal/logging"
)

// DefaultFile is read when no path is given and it exists in the working
// directory.
const DefaultFile = "espalier.toml"

type Config struct {
	LogLevel   string   `toml:"log_level"`  // ESPALIER_LOG_LEVEL (default "info")
	Graph      string   `toml:"graph"`      // ESPALIER_GRAPH
	Fields     string   `toml:"fields"`     // ESPALIER_FIELDS
	Parameters string   `toml:"parameters"` // ESPALIER_PARAMETERS (default: building catalogue)
	Direct     []string `toml:"direct"`     // ESPALIER_DIRECT (comma separated)
	Workers    int      `toml:"workers"`    // ESPALIER_WORKERS (default 4)
	HTTPAddr   string   `toml:"http_addr"`  // ESPALIER_HTTP_ADDR (default ":8080")

	Results ResultsConfig `toml:"results"`
	Redis   RedisConfig   `toml:"redis"`
	NATS    NATSConfig    `toml:"nats"`
	S3      S3Config      `toml:"s3"`
}

// ResultsConfig selects where sweep outcomes are stored.
type ResultsConfig struct {
	Backend string `toml:"backend"` // ESPALIER_RESULTS_BACKEND: "", "file", "redis" or "memory"
	Dir     string `toml:"dir"`     // ESPALIER_RESULTS_DIR (default ".espalier/results")
	Key     string `toml:"key"`     // ESPALIER_RESULTS_KEY (base64 AES-256 key, enables encryption)
}

type RedisConfig struct {
	Addr   string        `toml:"addr"`   // ESPALIER_REDIS_ADDR (default "localhost:6379")
	Prefix string        `toml:"prefix"` // ESPALIER_REDIS_PREFIX
	TTL    time.Duration `toml:"ttl"`    // ESPALIER_REDIS_TTL (0 = no expiry)
}

type NATSConfig struct {
	URL           string `toml:"url"`            // ESPALIER_NATS_URL (optional, empty = no events)
	SubjectPrefix string `toml:"subject_prefix"` // ESPALIER_NATS_SUBJECT_PREFIX (default "espalier")
}

type S3Config struct {
	Bucket   string `toml:"bucket"`   // ESPALIER_S3_BUCKET (enables report upload when set)
	Region   string `toml:"region"`   // ESPALIER_S3_REGION (default "us-east-1")
	Endpoint string `toml:"endpoint"` // ESPALIER_S3_ENDPOINT (custom endpoint for MinIO)
	Prefix   string `toml:"prefix"`   // ESPALIER_S3_PREFIX (default "espalier/reports")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Workers:  4,
		HTTPAddr: ":8080",
		Results:  ResultsConfig{Dir: ".espalier/results"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		NATS:     NATSConfig{SubjectPrefix: "espalier"},
		S3:       S3Config{Region: "us-east-1", Prefix: "espalier/reports"},
	}
}

// Load reads path (or DefaultFile when path is empty and the file exists),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	c := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		md, err := toml.DecodeFile(path, c)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	c.LogLevel = envOrDefault("ESPALIER_LOG_LEVEL", c.LogLevel)
	c.Graph = envOrDefault("ESPALIER_GRAPH", c.Graph)
	c.Fields = envOrDefault("ESPALIER_FIELDS", c.Fields)
	c.Parameters = envOrDefault("ESPALIER_PARAMETERS", c.Parameters)
	c.HTTPAddr = envOrDefault("ESPALIER_HTTP_ADDR", c.HTTPAddr)
	c.Results.Backend = envOrDefault("ESPALIER_RESULTS_BACKEND", c.Results.Backend)
	c.Results.Dir = envOrDefault("ESPALIER_RESULTS_DIR", c.Results.Dir)
	c.Results.Key = envOrDefault("ESPALIER_RESULTS_KEY", c.Results.Key)
	c.Redis.Addr = envOrDefault("ESPALIER_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Prefix = envOrDefault("ESPALIER_REDIS_PREFIX", c.Redis.Prefix)
	c.NATS.URL = envOrDefault("ESPALIER_NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = envOrDefault("ESPALIER_NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	c.S3.Bucket = envOrDefault("ESPALIER_S3_BUCKET", c.S3.Bucket)
	c.S3.Region = envOrDefault("ESPALIER_S3_REGION", c.S3.Region)
	c.S3.Endpoint = envOrDefault("ESPALIER_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.Prefix = envOrDefault("ESPALIER_S3_PREFIX", c.S3.Prefix)

	if v := os.Getenv("ESPALIER_DIRECT"); v != "" {
		c.Direct = splitList(v)
	}
	if v := os.Getenv("ESPALIER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ESPALIER_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("ESPALIER_REDIS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ESPALIER_REDIS_TTL: %w", err)
		}
		c.Redis.TTL = d
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	switch c.Results.Backend {
	case "", "file", "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("results.backend: unknown backend %q", c.Results.Backend))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl must not be negative"))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
