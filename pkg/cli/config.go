package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the configuration directory under the user's home.
	DefaultBaseDir = ".twino"
	// DefaultConfigFile is the configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Extractor providers.
const (
	ExtractorOpenAI = "openai"
	ExtractorGemini = "gemini"
	// ExtractorChain tries OpenAI first, then Gemini.
	ExtractorChain = "chain"
)

// Archive backends.
const (
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// Config is the twino configuration file. It holds named contexts, like
// kubectl, so one install can switch between accounts.
type Config struct {
	CurrentContext string              `yaml:"current_context,omitempty"`
	Contexts       map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one named set of credentials and defaults.
type Context struct {
	Name string `yaml:"name"`

	OpenAI *OpenAICredentials `yaml:"openai,omitempty"`
	Gemini *GeminiCredentials `yaml:"gemini,omitempty"`

	// Model is the realtime model used for interviews.
	Model string `yaml:"model,omitempty"`
	Voice string `yaml:"voice,omitempty"`

	// Extractor selects the fallback profile extractor: openai, gemini or
	// chain. Empty picks whatever credentials are present.
	Extractor    string `yaml:"extractor,omitempty"`
	ExtractModel string `yaml:"extract_model,omitempty"`

	// DataDir holds the twin store. Defaults to ~/.twino/data.
	DataDir string `yaml:"data_dir,omitempty"`

	Archive *ArchiveConfig `yaml:"archive,omitempty"`

	// Questions is an optional question set file.
	Questions string `yaml:"questions,omitempty"`

	// Listen is the serve address.
	Listen string `yaml:"listen,omitempty"`

	// RateLimit is the token requests allowed per client per minute.
	RateLimit int `yaml:"rate_limit,omitempty"`
}

// OpenAICredentials authenticate against the OpenAI API.
type OpenAICredentials struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Organization string `yaml:"organization,omitempty"`
	Project      string `yaml:"project,omitempty"`
}

// GeminiCredentials authenticate against the Gemini API.
type GeminiCredentials struct {
	APIKey string `yaml:"api_key"`
}

// ArchiveConfig selects where session records are written.
type ArchiveConfig struct {
	// Backend is local or s3.
	Backend string `yaml:"backend"`
	// Dir is the local directory. Defaults to ~/.twino/archive.
	Dir    string `yaml:"dir,omitempty"`
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`
	// Endpoint targets an S3 compatible service.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// DefaultConfigPath returns ~/.twino/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// LoadConfig reads the configuration at path, or at DefaultConfigPath when
// path is empty. A missing file yields an empty configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg := &Config{
		Contexts:   make(map[string]*Context),
		configPath: path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		ctx.Name = name
	}
	cfg.configPath = path
	return cfg, nil
}

// Save writes the configuration, creating its directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.configPath
}

// AddContext stores ctx under name and saves. The first context becomes
// current.
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = name
	}
	return c.Save()
}

// DeleteContext removes a context and saves.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext makes name current and saves.
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// ResolveContext returns the named context, or the current one when name is
// empty. Without any configured context it returns an empty one so the
// environment alone can drive the CLI.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	if name == "" {
		return &Context{}, nil
	}
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ListContexts returns the context names in order.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// WithEnv returns a copy of ctx whose missing API keys are filled from
// OPENAI_API_KEY and GEMINI_API_KEY. The receiver is not modified, so the
// result must not be saved.
func (ctx *Context) WithEnv() *Context {
	out := *ctx
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && ctx.OpenAIKey() == "" {
		o := OpenAICredentials{}
		if ctx.OpenAI != nil {
			o = *ctx.OpenAI
		}
		o.APIKey = key
		out.OpenAI = &o
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && ctx.GeminiKey() == "" {
		out.Gemini = &GeminiCredentials{APIKey: key}
	}
	return &out
}

// OpenAIKey returns the OpenAI API key or "".
func (ctx *Context) OpenAIKey() string {
	if ctx.OpenAI == nil {
		return ""
	}
	return ctx.OpenAI.APIKey
}

// GeminiKey returns the Gemini API key or "".
func (ctx *Context) GeminiKey() string {
	if ctx.Gemini == nil {
		return ""
	}
	return ctx.Gemini.APIKey
}

// ContextKeys lists the keys accepted by Set.
var ContextKeys = []string{
	"openai.api_key", "openai.base_url", "openai.organization", "openai.project",
	"gemini.api_key",
	"model", "voice", "extractor", "extract_model", "data_dir", "questions", "listen", "rate_limit",
	"archive.backend", "archive.dir", "archive.bucket", "archive.prefix", "archive.region", "archive.endpoint",
}

// Set assigns one dotted key, such as openai.api_key.
func (ctx *Context) Set(key, value string) error {
	openai := func() *OpenAICredentials {
		if ctx.OpenAI == nil {
			ctx.OpenAI = &OpenAICredentials{}
		}
		return ctx.OpenAI
	}
	archive := func() *ArchiveConfig {
		if ctx.Archive == nil {
			ctx.Archive = &ArchiveConfig{Backend: ArchiveLocal}
		}
		return ctx.Archive
	}
	switch key {
	case "openai.api_key":
		openai().APIKey = value
	case "openai.base_url":
		openai().BaseURL = value
	case "openai.organization":
		openai().Organization = value
	case "openai.project":
		openai().Project = value
	case "gemini.api_key":
		ctx.Gemini = &GeminiCredentials{APIKey: value}
	case "model":
		ctx.Model = value
	case "voice":
		ctx.Voice = value
	case "extractor":
		switch value {
		case "", ExtractorOpenAI, ExtractorGemini, ExtractorChain:
		default:
			return fmt.Errorf("unknown extractor %q", value)
		}
		ctx.Extractor = value
	case "extract_model":
		ctx.ExtractModel = value
	case "data_dir":
		ctx.DataDir = value
	case "questions":
		ctx.Questions = value
	case "listen":
		ctx.Listen = value
	case "rate_limit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("rate_limit must be a non-negative integer, got %q", value)
		}
		ctx.RateLimit = n
	case "archive.backend":
		if value != ArchiveLocal && value != ArchiveS3 {
			return fmt.Errorf("unknown archive backend %q", value)
		}
		archive().Backend = value
	case "archive.dir":
		archive().Dir = value
	case "archive.bucket":
		archive().Bucket = value
	case "archive.prefix":
		archive().Prefix = value
	case "archive.region":
		archive().Region = value
	case "archive.endpoint":
		archive().Endpoint = value
	default:
		return fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(ContextKeys, ", "))
	}
	return nil
}

// Masked returns a copy of ctx with API keys masked for display.
func (ctx *Context) Masked() *Context {
	out := *ctx
	if ctx.OpenAI != nil {
		o := *ctx.OpenAI
		o.APIKey = MaskAPIKey(o.APIKey)
		out.OpenAI = &o
	}
	if ctx.Gemini != nil {
		out.Gemini = &GeminiCredentials{APIKey: MaskAPIKey(ctx.Gemini.APIKey)}
	}
	return &out
}

// MaskAPIKey masks the API key for display.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
