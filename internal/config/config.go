package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-injection-checker/internal/detect/pdf"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Output formats
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultWorkers     = 4
	DefaultFormat      = FormatText

	// EnvPrefix is prepended to every environment variable, e.g.
	// INJECTION_CHECKER_WORKERS.
	EnvPrefix = "INJECTION_CHECKER"
)

// Configuration keys shared by flags, environment and viper.
const (
	KeyMode             = "mode"
	KeyHost             = "host"
	KeyPort             = "port"
	KeyDir              = "dir"
	KeyLogLevel         = "loglevel"
	KeyMaxFileSize      = "maxfilesize"
	KeyWorkers          = "workers"
	KeyFormat           = "format"
	KeyPDFDecodeStreams = "pdf-decode-streams"
	KeyPDFTextLayer     = "pdf-text-layer"
)

// Config holds all configuration for the injection checker
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Directory is the root for directory scans and the MCP path sandbox
	Directory string

	// Scan configuration
	Workers          int
	Format           string
	MaxFileSize      int64 // Maximum scanned file size in bytes
	PDFDecodeStreams bool
	PDFTextLayer     bool

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio, // stdio is what MCP clients launch
		Host:             DefaultHost,
		Port:             DefaultPort,
		Directory:        currentDir,
		Workers:          DefaultWorkers,
		Format:           DefaultFormat,
		MaxFileSize:      DefaultMaxFileSize,
		PDFDecodeStreams: true,
		PDFTextLayer:     true,
		Version:          "1.0.0",
		ServerName:       "mcp-injection-checker",
		LogLevel:         DefaultLogLevel,
	}
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	cfg := DefaultConfig()
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyMode, cfg.Mode)
	v.SetDefault(KeyHost, cfg.Host)
	v.SetDefault(KeyPort, cfg.Port)
	v.SetDefault(KeyDir, cfg.Directory)
	v.SetDefault(KeyLogLevel, cfg.LogLevel)
	v.SetDefault(KeyMaxFileSize, cfg.MaxFileSize)
	v.SetDefault(KeyWorkers, cfg.Workers)
	v.SetDefault(KeyFormat, cfg.Format)
	v.SetDefault(KeyPDFDecodeStreams, cfg.PDFDecodeStreams)
	v.SetDefault(KeyPDFTextLayer, cfg.PDFTextLayer)
	return v
}

// DefineFlags registers every configuration flag on fs.
func DefineFlags(fs *pflag.FlagSet) {
	cfg := DefaultConfig()

	fs.String(KeyMode, cfg.Mode, "MCP transport: 'stdio' for standard I/O, 'server' for HTTP/SSE")
	fs.String(KeyHost, cfg.Host, "Server host address (server mode only)")
	fs.Int(KeyPort, cfg.Port, "Server port (server mode only)")
	fs.String(KeyDir, cfg.Directory, "Root directory for directory scans and MCP file access")
	fs.String(KeyLogLevel, cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64(KeyMaxFileSize, cfg.MaxFileSize, "Maximum scanned file size in bytes")
	fs.Int(KeyWorkers, cfg.Workers, "Number of files scanned in parallel")
	fs.String(KeyFormat, cfg.Format, "Report format (text, json, yaml)")
	fs.Bool(KeyPDFDecodeStreams, cfg.PDFDecodeStreams, "Re-check decoded PDF streams")
	fs.Bool(KeyPDFTextLayer, cfg.PDFTextLayer, "Inspect the extracted PDF text layer")
}

// BindFlags binds every flag defined on fs that has a configuration key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range []string{
		KeyMode, KeyHost, KeyPort, KeyDir, KeyLogLevel, KeyMaxFileSize,
		KeyWorkers, KeyFormat, KeyPDFDecodeStreams, KeyPDFTextLayer,
	} {
		flag := fs.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}
	return nil
}

// Load builds a validated configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	populateConfigFromViper(v, cfg)

	if cfg.Directory != "" {
		if expanded, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString(KeyMode)
	cfg.Host = v.GetString(KeyHost)
	cfg.Port = v.GetInt(KeyPort)
	cfg.Directory = v.GetString(KeyDir)
	cfg.LogLevel = strings.ToLower(v.GetString(KeyLogLevel))
	cfg.MaxFileSize = v.GetInt64(KeyMaxFileSize)
	cfg.Workers = v.GetInt(KeyWorkers)
	cfg.Format = strings.ToLower(v.GetString(KeyFormat))
	cfg.PDFDecodeStreams = v.GetBool(KeyPDFDecodeStreams)
	cfg.PDFTextLayer = v.GetBool(KeyPDFTextLayer)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters when listening
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Directory == "" {
		return errors.New("directory cannot be empty")
	}
	if info, err := os.Stat(c.Directory); err == nil && !info.IsDir() {
		return fmt.Errorf("directory %s is not a directory", c.Directory)
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot access directory %s: %w", c.Directory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid format: %s (must be one of: text, json, yaml)", c.Format)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// PDFOptions translates the PDF switches into scanner options.
func (c *Config) PDFOptions() pdf.Options {
	return pdf.Options{
		DecodeStreams: c.PDFDecodeStreams,
		TextLayer:     c.PDFTextLayer,
	}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Directory: %s, Workers: %d, Format: %s, "+
		"LogLevel: %s, MaxFileSize: %d, PDFDecodeStreams: %t, PDFTextLayer: %t}",
		c.Mode, c.Host, c.Port, c.Directory, c.Workers, c.Format,
		c.LogLevel, c.MaxFileSize, c.PDFDecodeStreams, c.PDFTextLayer)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
