package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.ServerName != "mcp-injection-checker" {
		t.Errorf("Expected default server name to be 'mcp-injection-checker', got '%s'", cfg.ServerName)
	}

	if cfg.Workers != 4 {
		t.Errorf("Expected default workers to be 4, got %d", cfg.Workers)
	}

	if cfg.Format != "text" {
		t.Errorf("Expected default format to be 'text', got '%s'", cfg.Format)
	}

	if !cfg.PDFDecodeStreams || !cfg.PDFTextLayer {
		t.Error("Expected supplementary PDF passes to be enabled by default")
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.Directory != currentDir {
		t.Errorf("Expected default directory to be '%s', got '%s'", currentDir, cfg.Directory)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	with := func(mutate func(*Config)) *Config {
		cfg := DefaultConfig()
		cfg.Directory = dir
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{"valid stdio", with(func(*Config) {}), ""},
		{"valid server", with(func(c *Config) { c.Mode = ModeServer; c.Port = 9000 }), ""},
		{"missing directory is allowed", with(func(c *Config) { c.Directory = filepath.Join(dir, "later") }), ""},
		{"json format", with(func(c *Config) { c.Format = FormatJSON }), ""},
		{"yaml format", with(func(c *Config) { c.Format = FormatYAML }), ""},
		{"invalid mode", with(func(c *Config) { c.Mode = "grpc" }), "mode must be"},
		{"server port too low", with(func(c *Config) { c.Mode = ModeServer; c.Port = 0 }), "port must be"},
		{"server port too high", with(func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }), "port must be"},
		{"stdio ignores port", with(func(c *Config) { c.Port = 0 }), ""},
		{"empty directory", with(func(c *Config) { c.Directory = "" }), "directory cannot be empty"},
		{"directory is a file", with(func(c *Config) { c.Directory = file }), "is not a directory"},
		{"zero max file size", with(func(c *Config) { c.MaxFileSize = 0 }), "maximum file size"},
		{"zero workers", with(func(c *Config) { c.Workers = 0 }), "workers must be"},
		{"unknown format", with(func(c *Config) { c.Format = "xml" }), "invalid format"},
		{"unknown log level", with(func(c *Config) { c.LogLevel = "trace" }), "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "0.0.0.0"
	cfg.Port = 9090

	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("Address() = %s, want 0.0.0.0:9090", got)
	}

	if cfg.IsDebug() {
		t.Error("IsDebug() should be false for info level")
	}
	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("IsDebug() should be true for debug level")
	}

	if !cfg.IsStdioMode() || cfg.IsServerMode() {
		t.Error("default mode should be stdio")
	}
	cfg.Mode = ModeServer
	if !cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Error("mode should be server")
	}

	if s := cfg.String(); !strings.Contains(s, "Workers: 4") || !strings.Contains(s, "Port: 9090") {
		t.Errorf("String() = %s", s)
	}
}

func TestPDFOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PDFTextLayer = false

	opts := cfg.PDFOptions()
	if !opts.DecodeStreams {
		t.Error("DecodeStreams should follow the config")
	}
	if opts.TextLayer {
		t.Error("TextLayer should follow the config")
	}
}
