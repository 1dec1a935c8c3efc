package qdrant

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/barista-backend/internal/platform/envutil"
)

type Config struct {
	URL             string        `yaml:"url"`
	APIKey          string        `yaml:"api_key"`
	Collection      string        `yaml:"collection"`
	NamespacePrefix string        `yaml:"namespace_prefix"`
	VectorDim       int           `yaml:"vector_dim"`
	Timeout         time.Duration `yaml:"timeout"`
	// CreateCollection creates a missing collection with cosine distance on startup.
	CreateCollection bool `yaml:"create_collection"`
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid QDRANT_URL=%q; expected absolute URL like http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	case ConfigErrorInvalidVectorDim:
		return fmt.Sprintf("invalid QDRANT_VECTOR_DIM=%q; expected positive integer", e.Value)
	default:
		return "invalid qdrant config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ConfigFromEnv overlays QDRANT_* variables onto base.
func ConfigFromEnv(base Config) Config {
	cfg := base
	cfg.URL = envutil.String("QDRANT_URL", cfg.URL)
	cfg.APIKey = envutil.String("QDRANT_API_KEY", cfg.APIKey)
	cfg.Collection = envutil.String("QDRANT_COLLECTION", cfg.Collection)
	cfg.NamespacePrefix = envutil.String("QDRANT_NAMESPACE_PREFIX", cfg.NamespacePrefix)
	cfg.VectorDim = envutil.Int("QDRANT_VECTOR_DIM", cfg.VectorDim)
	cfg.Timeout = envutil.Duration("QDRANT_TIMEOUT", cfg.Timeout)
	cfg.CreateCollection = envutil.Bool("QDRANT_CREATE_COLLECTION", cfg.CreateCollection)
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Collection) == "" {
		c.Collection = "barista"
	}
	if strings.TrimSpace(c.NamespacePrefix) == "" {
		c.NamespacePrefix = "barista"
	}
	if c.VectorDim == 0 {
		c.VectorDim = 1536
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: err}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	if cfg.VectorDim <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: fmt.Sprint(cfg.VectorDim)}
	}
	return nil
}
