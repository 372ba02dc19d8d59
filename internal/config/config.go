package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dyluth/quire/internal/logger"
	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/identifier"
	"github.com/dyluth/quire/pkg/schema"
)

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = "quire.yml"

const (
	defaultNamespace       = "default"
	defaultRedisURL        = "redis://localhost:6379/0"
	defaultLanguage        = "en"
	defaultBlobRoot        = ".quire/blobs"
	defaultMaxMergeRetries = 3
)

var namespacePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// QuireConfig represents the top-level quire.yml configuration
type QuireConfig struct {
	Version     string            `yaml:"version"`
	Namespace   string            `yaml:"namespace"`
	Redis       RedisConfig       `yaml:"redis"`
	Identifiers IdentifiersConfig `yaml:"identifiers"`
	Languages   LanguagesConfig   `yaml:"languages"`
	Attributes  map[string]string `yaml:"attributes,omitempty"` // Extra attribute name -> value kind mappings
	Blob        BlobConfig        `yaml:"blob"`
	Store       StoreConfig       `yaml:"store"`
	Log         LogConfig         `yaml:"log"`
}

// RedisConfig locates the document store
type RedisConfig struct {
	URL string `yaml:"url"`
}

// IdentifiersConfig bounds identifier allocation
type IdentifiersConfig struct {
	Shards      identifier.ShardRange `yaml:"shards"`
	EntityTypes identifier.TypeRange  `yaml:"entity_types"`
}

// LanguagesConfig holds language defaults
type LanguagesConfig struct {
	Default string `yaml:"default"`
}

// BlobConfig locates the blob store
type BlobConfig struct {
	Root    string `yaml:"root"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// StoreConfig tunes document writes
type StoreConfig struct {
	MaxMergeRetries *int `yaml:"max_merge_retries,omitempty"` // Conflict merge attempts before giving up (default 3)
}

// LogConfig selects log encoding and level
type LogConfig struct {
	JSON  bool   `yaml:"json"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when no quire.yml exists.
func Default() *QuireConfig {
	c := &QuireConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return c
}

// Validate performs strict validation and fills in defaults
func (c *QuireConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Namespace == "" {
		c.Namespace = defaultNamespace
	}
	if !namespacePattern.MatchString(c.Namespace) {
		return fmt.Errorf("invalid namespace '%s': use lower-case letters, digits, '-' and '_'", c.Namespace)
	}

	if c.Redis.URL == "" {
		c.Redis.URL = defaultRedisURL
	}
	if _, err := redis.ParseURL(c.Redis.URL); err != nil {
		return fmt.Errorf("invalid redis.url: %w", err)
	}

	if c.Identifiers.Shards == (identifier.ShardRange{}) {
		c.Identifiers.Shards = identifier.ShardRange{Min: 1, Max: 16}
	}
	if c.Identifiers.Shards.Min > c.Identifiers.Shards.Max {
		return fmt.Errorf("identifiers.shards: min %d exceeds max %d", c.Identifiers.Shards.Min, c.Identifiers.Shards.Max)
	}
	if c.Identifiers.EntityTypes == (identifier.TypeRange{}) {
		c.Identifiers.EntityTypes = identifier.TypeRange{Min: 1, Max: 9999}
	}
	if c.Identifiers.EntityTypes.Min < 0 || c.Identifiers.EntityTypes.Min > c.Identifiers.EntityTypes.Max {
		return fmt.Errorf("identifiers.entity_types: [%d, %d] is not a valid range", c.Identifiers.EntityTypes.Min, c.Identifiers.EntityTypes.Max)
	}

	if c.Languages.Default == "" {
		c.Languages.Default = defaultLanguage
	}
	lang, err := datatype.ParseLang(c.Languages.Default)
	if err != nil || lang.IsWildcard() {
		return fmt.Errorf("languages.default: '%s' is not a concrete language code", c.Languages.Default)
	}
	c.Languages.Default = string(lang)

	registry := datatype.NewDefaultRegistry()
	for name, kind := range c.Attributes {
		if err := schema.New(registry).Define(name, datatype.Kind(kind)); err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
	}

	if c.Blob.Root == "" {
		c.Blob.Root = defaultBlobRoot
	}

	if c.Store.MaxMergeRetries == nil {
		retries := defaultMaxMergeRetries
		c.Store.MaxMergeRetries = &retries
	}
	if *c.Store.MaxMergeRetries < 0 {
		return fmt.Errorf("store.max_merge_retries must be >= 0, got %d", *c.Store.MaxMergeRetries)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// Schema returns the core attribute schema extended with the configured attributes.
func (c *QuireConfig) Schema() (*schema.Schema, error) {
	s := schema.Core(datatype.NewDefaultRegistry())
	for name, kind := range c.Attributes {
		if err := s.Define(name, datatype.Kind(kind)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load reads quire.yml from path, applies QUIRE_* environment overrides and validates it
func Load(path string) (*QuireConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes quire.yml content, applies QUIRE_* environment overrides and validates it
func Parse(data []byte) (*QuireConfig, error) {
	var config QuireConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyEnv(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault is Load, except that a missing file yields the default
// configuration with environment overrides applied.
func LoadOrDefault(path string) (*QuireConfig, error) {
	config, err := Load(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return config, err
	}

	config = &QuireConfig{Version: "1.0"}
	applyEnv(config)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// applyEnv overlays QUIRE_NAMESPACE, QUIRE_REDIS_URL, QUIRE_BLOB_ROOT,
// QUIRE_LOG_JSON and QUIRE_LOG_LEVEL.
func applyEnv(c *QuireConfig) {
	v := viper.New()
	v.SetEnvPrefix("QUIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{"namespace", "redis.url", "blob.root", "log.json", "log.level"} {
		_ = v.BindEnv(key)
	}

	if v.IsSet("namespace") {
		c.Namespace = v.GetString("namespace")
	}
	if v.IsSet("redis.url") {
		c.Redis.URL = v.GetString("redis.url")
	}
	if v.IsSet("blob.root") {
		c.Blob.Root = v.GetString("blob.root")
	}
	if v.IsSet("log.json") {
		c.Log.JSON = v.GetBool("log.json")
	}
	if v.IsSet("log.level") {
		c.Log.Level = v.GetString("log.level")
	}
}
