// Package config loads run configuration with precedence
// flags > env > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github2file/internal/artifact"
	llmclient "github2file/internal/llmClient"
)

const (
	EnvPrefix    = "G2F"
	maxWalkDepth = 25
)

var configNames = []string{"github2file.yaml", "github2file.yml"}

type Config struct {
	Verbosity int    `mapstructure:"verbosity"`
	DryRun    bool   `mapstructure:"dry_run"`
	Format    string `mapstructure:"format"`
	// RateLimit is the execution budget in requests per minute.
	RateLimit int `mapstructure:"rate_limit"`

	Provider       string `mapstructure:"provider"`
	PlanningModel  string `mapstructure:"planning_model"`
	ExecutionModel string `mapstructure:"execution_model"`
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`

	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RunTimeout     time.Duration `mapstructure:"run_timeout"`

	CycleCap         int      `mapstructure:"cycle_cap"`
	MaxCriticalPaths int      `mapstructure:"max_critical_paths"`
	MaxContentBytes  int      `mapstructure:"max_content_bytes"`
	SourceRoots      []string `mapstructure:"source_roots"`

	Language     string `mapstructure:"language"`
	Branch       string `mapstructure:"branch"`
	Token        string `mapstructure:"token"`
	KeepComments bool   `mapstructure:"keep_comments"`
	Claude       bool   `mapstructure:"claude"`

	Output       string         `mapstructure:"output"`
	Sink         string         `mapstructure:"sink"`
	S3           S3Config       `mapstructure:"s3"`
	Postgres     PostgresConfig `mapstructure:"postgres"`
	Log          LogConfig      `mapstructure:"log"`
	ProgressAddr string         `mapstructure:"progress_addr"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LogConfig struct {
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// defaultModels holds (planning, execution) per provider.
var defaultModels = map[string][2]string{
	"gemini": {"gemini-2.5-pro", "gemini-2.5-flash"},
	"groq":   {"llama-3.3-70b-versatile", "llama-3.1-8b-instant"},
	"openai": {"gpt-4o", "gpt-4o-mini"},
	"ollama": {"llama3.1", "llama3.1"},
	"fake":   {"fake-planner", "fake-executor"},
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"verbose":            "verbosity",
	"dry-run":            "dry_run",
	"format":             "format",
	"rate-limit":         "rate_limit",
	"provider":           "provider",
	"planning-model":     "planning_model",
	"execution-model":    "execution_model",
	"base-url":           "base_url",
	"concurrency":        "concurrency",
	"max-retries":        "max_retries",
	"request-timeout":    "request_timeout",
	"timeout":            "run_timeout",
	"cycle-cap":          "cycle_cap",
	"max-critical-paths": "max_critical_paths",
	"lang":               "language",
	"branch":             "branch",
	"token":              "token",
	"keep-comments":      "keep_comments",
	"claude":             "claude",
	"output":             "output",
	"sink":               "sink",
	"progress-addr":      "progress_addr",
	"log-format":         "log.format",
}

// Load reads .env, the config file (explicit or discovered), G2F_* env vars and
// any changed flags. It returns the config and the config file used, if any.
func Load(explicitPath string, flags *pflag.FlagSet) (*Config, string, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("rate_limit", EnvPrefix+"_RATE_LIMIT", "RATE_LIMIT"); err != nil {
		return nil, "", err
	}

	path, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, path, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, path, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, path, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.applyProviderDefaults()
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbosity", 1)
	v.SetDefault("dry_run", false)
	v.SetDefault("format", "xml")
	v.SetDefault("rate_limit", 20)

	v.SetDefault("provider", "gemini")
	v.SetDefault("planning_model", "")
	v.SetDefault("execution_model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")

	v.SetDefault("concurrency", 4)
	v.SetDefault("max_retries", 8)
	v.SetDefault("retry_base_delay", time.Second)
	v.SetDefault("request_timeout", 2*time.Minute)
	v.SetDefault("run_timeout", time.Duration(0))

	v.SetDefault("cycle_cap", 1000)
	v.SetDefault("max_critical_paths", 5)
	v.SetDefault("max_content_bytes", 64<<10)
	v.SetDefault("source_roots", []string{"src", "lib", "pkg", "internal", "app"})

	v.SetDefault("language", "")
	v.SetDefault("branch", "main")
	v.SetDefault("token", "")
	v.SetDefault("keep_comments", true)
	v.SetDefault("claude", false)

	v.SetDefault("output", "")
	v.SetDefault("sink", "file")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "github2file-artifacts")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("progress_addr", "")
}

func (c *Config) applyProviderDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	models, ok := defaultModels[c.Provider]
	if !ok {
		return
	}
	if strings.TrimSpace(c.PlanningModel) == "" {
		c.PlanningModel = models[0]
	}
	if strings.TrimSpace(c.ExecutionModel) == "" {
		c.ExecutionModel = models[1]
	}
}

// Validate rejects values no stage could run with.
func (c *Config) Validate() error {
	if c.Verbosity < 0 || c.Verbosity > 3 {
		return fmt.Errorf("verbosity must be between 0 and 3, got %d", c.Verbosity)
	}
	if _, err := artifact.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be a positive number of requests per minute, got %d", c.RateLimit)
	}
	if c.Provider != "fake" && !knownProvider(c.Provider) {
		return fmt.Errorf("unknown provider %q (want one of %s, fake)", c.Provider, strings.Join(llmclient.Providers(), ", "))
	}
	if strings.TrimSpace(c.PlanningModel) == "" || strings.TrimSpace(c.ExecutionModel) == "" {
		return fmt.Errorf("planning_model and execution_model are required")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive, got %d", c.MaxRetries)
	}
	if c.RetryBaseDelay < 0 || c.RequestTimeout < 0 || c.RunTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.CycleCap <= 0 {
		return fmt.Errorf("cycle_cap must be positive, got %d", c.CycleCap)
	}
	if c.MaxCriticalPaths <= 0 {
		return fmt.Errorf("max_critical_paths must be positive, got %d", c.MaxCriticalPaths)
	}
	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("max_content_bytes must be positive, got %d", c.MaxContentBytes)
	}
	switch c.Sink {
	case "file":
	case "s3":
		if c.S3.Endpoint == "" {
			return fmt.Errorf("s3.endpoint is required when sink is s3")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required when sink is postgres")
		}
	default:
		return fmt.Errorf("unknown sink %q (want file, s3 or postgres)", c.Sink)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q (want text or json)", c.Log.Format)
	}
	return nil
}

func knownProvider(name string) bool {
	for _, p := range llmclient.Providers() {
		if p == name {
			return true
		}
	}
	return false
}

// ArtifactFormat returns the validated output format.
func (c *Config) ArtifactFormat() artifact.Format {
	f, err := artifact.ParseFormat(c.Format)
	if err != nil {
		return artifact.FormatXML
	}
	return f
}

// findConfigFile validates an explicit path, or walks up from the working
// directory looking for github2file.yaml, stopping at a .git boundary.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range configNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}
