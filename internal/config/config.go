// Package config loads process configuration.
//
// Sources are applied in order: defaults, an optional .env file, an optional
// TOML file named by SERCHA_COMPONENTS_CONFIG, then environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ConfigFileEnv names the TOML file to load
const ConfigFileEnv = "SERCHA_COMPONENTS_CONFIG"

// Run modes
const (
	ModeAPI   = "api"
	ModeIndex = "index"
	ModeWatch = "watch"
	ModeToken = "token"
)

// Config is the full process configuration
type Config struct {
	Mode         string   `toml:"mode"`
	ProjectPath  string   `toml:"project_path"`
	ProjectRoots []string `toml:"project_roots"`
	RedisURL     string   `toml:"redis_url"`
	DatabaseURL  string   `toml:"database_url"`
	APISecret    string   `toml:"api_secret"`

	Server ServerConfig `toml:"server"`
	Index  IndexConfig  `toml:"index"`
	CDP    CDPConfig    `toml:"cdp"`
	Watch  WatchConfig  `toml:"watch"`
	Token  TokenConfig  `toml:"token"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// IndexConfig configures file discovery and the loaded-index cache
type IndexConfig struct {
	SourceDir    string   `toml:"source_dir"`
	PagesDirs    []string `toml:"pages_dirs"`
	Extensions   []string `toml:"extensions"`
	SkipDirs     []string `toml:"skip_dirs"`
	ArtifactPath string   `toml:"artifact_path"`
	Concurrency  int      `toml:"concurrency"`
	CacheSize    int      `toml:"cache_size"`
	CacheTTLSec  int      `toml:"cache_ttl_sec"`
}

// CDPConfig configures the page automation endpoint
type CDPConfig struct {
	Endpoint   string `toml:"endpoint"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// TokenConfig configures the token run mode
type TokenConfig struct {
	Subject  string `toml:"subject"`
	Role     string `toml:"role"`
	TTLHours int    `toml:"ttl_hours"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Mode: ModeAPI,
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Index: IndexConfig{
			SourceDir:    "src",
			PagesDirs:    []string{"src/pages", "pages"},
			Extensions:   []string{".js", ".jsx", ".ts", ".tsx", ".vue"},
			SkipDirs:     []string{"node_modules"},
			ArtifactPath: ".sercha/component-index.json",
			Concurrency:  4,
			CacheSize:    16,
			CacheTTLSec:  900,
		},
		CDP: CDPConfig{
			TimeoutSec: 30,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Token: TokenConfig{
			Subject:  "cli",
			Role:     "admin",
			TTLHours: 24,
		},
	}
}

// Load reads .env from the working directory, then the TOML file and environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep their value.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnvOverrides applies environment variables on top of cfg
func (c *Config) ApplyEnvOverrides() {
	c.Mode = getEnv("RUN_MODE", c.Mode)
	c.ProjectPath = getEnv("PROJECT_PATH", c.ProjectPath)
	c.ProjectRoots = getEnvList("PROJECT_ROOTS", c.ProjectRoots)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.APISecret = getEnv("API_SECRET", c.APISecret)

	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Index.Concurrency = getEnvInt("INDEX_CONCURRENCY", c.Index.Concurrency)
	c.Index.CacheSize = getEnvInt("INDEX_CACHE_SIZE", c.Index.CacheSize)
	c.Index.CacheTTLSec = getEnvInt("INDEX_CACHE_TTL_SEC", c.Index.CacheTTLSec)

	c.CDP.Endpoint = getEnv("CDP_ENDPOINT", c.CDP.Endpoint)
	c.CDP.TimeoutSec = getEnvInt("AUTOMATION_TIMEOUT_SEC", c.CDP.TimeoutSec)

	c.Watch.DebounceMS = getEnvInt("WATCH_DEBOUNCE_MS", c.Watch.DebounceMS)

	c.Token.Subject = getEnv("TOKEN_SUBJECT", c.Token.Subject)
	c.Token.Role = getEnv("TOKEN_ROLE", c.Token.Role)
	c.Token.TTLHours = getEnvInt("TOKEN_TTL_HOURS", c.Token.TTLHours)
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeAPI, ModeIndex, ModeWatch, ModeToken:
	default:
		return fmt.Errorf("unknown run mode %q", c.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	if c.Index.SourceDir == "" {
		return errors.New("index source_dir is required")
	}
	if len(c.Index.Extensions) == 0 {
		return errors.New("index extensions must not be empty")
	}
	for _, ext := range c.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	if c.Index.ArtifactPath == "" {
		return errors.New("index artifact_path is required")
	}
	if c.Index.Concurrency < 1 {
		return errors.New("index concurrency must be at least 1")
	}
	if c.Index.CacheSize < 1 {
		return errors.New("index cache_size must be at least 1")
	}
	if c.Index.CacheTTLSec < 1 {
		return errors.New("index cache_ttl_sec must be at least 1")
	}
	if c.CDP.TimeoutSec < 1 {
		return errors.New("cdp timeout_sec must be at least 1")
	}
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch debounce_ms must not be negative")
	}
	if (c.Mode == ModeIndex || c.Mode == ModeWatch) && c.ProjectPath == "" {
		return fmt.Errorf("%s mode needs PROJECT_PATH", c.Mode)
	}
	if c.Mode == ModeToken && c.APISecret == "" {
		return errors.New("token mode needs API_SECRET")
	}
	return nil
}

// AllowedProjectRoots bounds the project paths API callers may name.
// PROJECT_ROOTS wins; otherwise PROJECT_PATH alone is allowed. nil allows any path.
func (c *Config) AllowedProjectRoots() []string {
	if len(c.ProjectRoots) > 0 {
		return c.ProjectRoots
	}
	if c.ProjectPath != "" {
		return []string{c.ProjectPath}
	}
	return nil
}

// CacheTTL is the loaded-index cache lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Index.CacheTTLSec) * time.Second
}

// AutomationTimeout bounds each page automation step
func (c *Config) AutomationTimeout() time.Duration {
	return time.Duration(c.CDP.TimeoutSec) * time.Second
}

// TokenTTL is the lifetime of tokens minted in token mode
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Token.TTLHours) * time.Hour
}

// Debounce is the watch mode quiet period
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
