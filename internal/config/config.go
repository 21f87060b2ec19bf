// Package config holds the configuration for the memoryd agent memory
// and retrieval engine.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agentmemory/memoryd/pkg/version"
)

// Config holds the configuration for the memoryd server.
type Config struct {
	// MCPStreamableHTTP enables MCP over Streamable HTTP transport; the
	// default is stdio, matching an embedded-assistant deployment.
	MCPStreamableHTTP         bool   `mapstructure:"mcp-http"`
	MCPStreamableHTTPAddr     string `mapstructure:"mcp-http-addr"`
	MCPStreamableHTTPEndpoint string `mapstructure:"mcp-http-endpoint"`

	// DbPath is the single embedded SQLite database file per project host.
	DbPath string `mapstructure:"db-path"`

	// Ollama configuration.
	OllamaURL string `mapstructure:"ollama-url"`

	// OpenAI configuration, used when Ollama is unavailable.
	OpenAIKey string `mapstructure:"openai-key"`
	OpenAIURL string `mapstructure:"openai-url"`

	// ProbeTimeoutSeconds is passed to the embedding service config; the
	// Ollama probe itself uses a fixed 2s timeout and does not read it.
	ProbeTimeoutSeconds int `mapstructure:"probe-timeout-seconds"`

	// Chunking settings. They are parsed here and defaulted by their
	// getters, but the chunker does not read them: its prose chunks are
	// fixed 100-line windows.
	ChunkSize    int `mapstructure:"chunk-size"`
	ChunkOverlap int `mapstructure:"chunk-overlap"`

	// IndexerConcurrency is passed to the indexer config; the cold-start
	// walker indexes files one at a time and does not read it.
	IndexerConcurrency int `mapstructure:"indexer-concurrency"`

	LogFile          string `mapstructure:"log"`
	DisableOutputLog bool   `mapstructure:"disable-output-log"`

	// DisableCodeWatch disables the fsnotify-backed per-project file
	// watcher.
	DisableCodeWatch bool `mapstructure:"disable-code-watch"`
}

// Load loads the configuration from CLI flags, environment variables
// (MEMORYD_* prefix) and an optional YAML file.
func Load() (*Config, error) {
	pflag.String("config", "", "Path to YAML configuration file")

	pflag.Bool("mcp-http", false, "Enable MCP Streamable HTTP transport")
	pflag.String("mcp-http-addr", "3000", "Port or address to bind MCP Streamable HTTP transport")
	pflag.String("mcp-http-endpoint", "/mcp", "HTTP path for the MCP Streamable HTTP endpoint")

	pflag.String("db-path", "./memoryd.db", "Path to the embedded SQLite database")
	pflag.String("ollama-url", "http://localhost:11434", "URL for the Ollama embedding server")
	pflag.String("openai-key", "", "OpenAI API key, used when Ollama is unreachable")
	pflag.String("openai-url", "https://api.openai.com/v1", "OpenAI base URL")
	pflag.Int("probe-timeout-seconds", 2, "Provider probe timeout in seconds")

	pflag.Int("chunk-size", 800, "Maximum chunk size in characters for prose chunking")
	pflag.Int("chunk-overlap", 100, "Overlap between prose chunks in characters")
	pflag.Int("indexer-concurrency", 4, "Cold-start indexer worker concurrency")

	pflag.String("log", "", "Path to the log file (logs are written to both stdout/stderr and the file)")
	pflag.Bool("disable-output-log", false, "Disable logging to stdout/stderr; only write to log file if configured")
	pflag.Bool("disable-code-watch", false, "Disable automatic file watching for code projects")

	flag.Bool("version", false, "Print version and exit")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()

	if ver := pflag.Lookup("version"); ver != nil && ver.Value.String() == "true" {
		fmt.Println(version.Describe())
		os.Exit(0)
	}

	v := viper.New()

	configPath := pflag.Lookup("config").Value.String()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if homeDir, err := os.UserHomeDir(); err == nil {
		var standardConfigPath string
		if runtime.GOOS == "darwin" {
			standardConfigPath = filepath.Join(homeDir, "Library", "Application Support", "memoryd", "config.yaml")
		} else {
			standardConfigPath = filepath.Join(homeDir, ".config", "memoryd", "config.yaml")
		}
		if _, err := os.Stat(standardConfigPath); err == nil {
			v.SetConfigFile(standardConfigPath)
			if err := v.ReadInConfig(); err == nil {
				slog.Info("using configuration file from standard location", "path", standardConfigPath)
			}
		}
	}

	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, fmt.Errorf("failed to bind pflags: %w", err)
	}

	v.SetEnvPrefix("MEMORYD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration's invariants.
func (c *Config) Validate() error {
	if c.DbPath == "" {
		return errors.New("a database path must be provided")
	}
	return nil
}

// GetChunkSize returns the chunk size for prose chunking, applying the
// default when unset.
func (c *Config) GetChunkSize() int {
	if c.ChunkSize <= 0 {
		return 800
	}
	return c.ChunkSize
}

// GetChunkOverlap returns the prose chunk overlap, applying the default
// of 100 when negative; zero is a valid overlap and is kept.
func (c *Config) GetChunkOverlap() int {
	if c.ChunkOverlap < 0 {
		return 100
	}
	return c.ChunkOverlap
}

// GetIndexerConcurrency returns the configured indexer concurrency,
// applying a default of 4 when unset.
func (c *Config) GetIndexerConcurrency() int {
	if c.IndexerConcurrency <= 0 {
		return 4
	}
	return c.IndexerConcurrency
}

// GetProbeTimeoutSeconds returns the provider probe timeout, applying
// the default when unset.
func (c *Config) GetProbeTimeoutSeconds() int {
	if c.ProbeTimeoutSeconds <= 0 {
		return 2
	}
	return c.ProbeTimeoutSeconds
}

// Getenv reads an environment variable or returns a default value.
func Getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SetupLogging configures slog output.
//
// Important: when running MCP over stdio, stdout must be reserved for
// protocol messages, so console logs default to stderr in stdio mode.
func (c *Config) SetupLogging() error {
	var writers []io.Writer

	if !c.DisableOutputLog {
		stdioMode := !c.MCPStreamableHTTP
		if stdioMode {
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	if c.LogFile != "" {
		logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", c.LogFile, err)
		}
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}
