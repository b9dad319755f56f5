package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-injection-checker/internal/config"
	"github.com/a3tai/mcp-injection-checker/internal/dispatch"
	"github.com/a3tai/mcp-injection-checker/internal/service"
)

const (
	hiddenPDF = "%PDF-1.4\nBT 3 Tr (payload) Tj ET\n"
	cleanPDF  = "%PDF-1.4\nBT (Hello) Tj ET\n"
)

// newTestServer builds a server confined to a fresh directory holding a
// small mix of documents.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	tempDir := t.TempDir()
	files := map[string]string{
		"hidden.pdf":   hiddenPDF,
		"clean.pdf":    cleanPDF,
		"notes.txt":    "plain text",
		"broken.docx":  "not a zip archive",
		"sub/deep.pdf": hiddenPDF,
	}
	for name, content := range files {
		path := filepath.Join(tempDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create test file %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(tempDir, "empty"), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Directory = tempDir
	cfg.Workers = 2
	cfg.PDFDecodeStreams = false
	cfg.PDFTextLayer = false
	cfg.ServerName = "test-server"

	svc, err := service.New(dispatch.Default(cfg.PDFOptions()), service.Options{
		Workers:     cfg.Workers,
		MaxFileSize: cfg.MaxFileSize,
		Root:        cfg.Directory,
	})
	if err != nil {
		t.Fatalf("failed to create scan service: %v", err)
	}

	server, err := NewServer(cfg, svc)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server, tempDir
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	svc, err := service.New(dispatch.Default(config.DefaultConfig().PDFOptions()), service.Options{})
	if err != nil {
		t.Fatalf("failed to create scan service: %v", err)
	}

	if _, err := NewServer(nil, svc); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewServer(config.DefaultConfig(), nil); err == nil {
		t.Error("expected error for nil service")
	}

	cfg := config.DefaultConfig()
	server, err := NewServer(cfg, svc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.config != cfg {
		t.Error("server config not set correctly")
	}
	if server.service != svc {
		t.Error("server service not set correctly")
	}
	if server.mcpServer == nil {
		t.Error("mcpServer should be initialized")
	}
}

func TestServer_HandleScanFile(t *testing.T) {
	server, tempDir := newTestServer(t)
	outside := filepath.Join(t.TempDir(), "outside.pdf")
	if err := os.WriteFile(outside, []byte(hiddenPDF), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantError bool
		contains  []string
	}{
		{
			name:     "hidden text",
			args:     map[string]interface{}{"path": filepath.Join(tempDir, "hidden.pdf")},
			contains: []string{"[!] hidden text found — hidden.pdf", "offset 12: text rendering mode 3"},
		},
		{
			name:     "relative path resolves against root",
			args:     map[string]interface{}{"path": "clean.pdf"},
			contains: []string{"[OK] clean — clean.pdf"},
		},
		{
			name:     "unsupported extension",
			args:     map[string]interface{}{"path": "notes.txt"},
			contains: []string{"[SKIP] unsupported extension — notes.txt", "Supported extensions: .docx, .pdf, .pptx"},
		},
		{
			name:      "malformed document",
			args:      map[string]interface{}{"path": "broken.docx"},
			wantError: true,
			contains:  []string{"scan failed for", "malformed input"},
		},
		{
			name:      "outside the root",
			args:      map[string]interface{}{"path": outside},
			wantError: true,
			contains:  []string{"security validation failed"},
		},
		{
			name:      "missing path",
			args:      map[string]interface{}{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleScanFile(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			if result.IsError != tt.wantError {
				t.Errorf("IsError = %t, want %t (%s)", result.IsError, tt.wantError, extractTextFromResult(result))
			}
			text := extractTextFromResult(result)
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("result should contain %q, got: %s", want, text)
				}
			}
		})
	}
}

func TestServer_HandleScanDirectory(t *testing.T) {
	server, tempDir := newTestServer(t)

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantError bool
		contains  []string
	}{
		{
			name: "default directory is recursive",
			args: map[string]interface{}{},
			contains: []string{
				"Scanned directory: " + tempDir,
				"[!] hidden text found — deep.pdf",
				"[ERR] broken.docx:",
				"5 file(s) scanned: 2 with hidden text, 1 clean, 1 unsupported, 1 failed (2 finding(s))",
			},
		},
		{
			name:     "top level only",
			args:     map[string]interface{}{"recursive": false},
			contains: []string{"4 file(s) scanned: 1 with hidden text"},
		},
		{
			name:     "relative subdirectory",
			args:     map[string]interface{}{"directory": "sub"},
			contains: []string{"Scanned directory: " + filepath.Join(tempDir, "sub"), "1 file(s) scanned"},
		},
		{
			name:     "empty directory",
			args:     map[string]interface{}{"directory": "empty"},
			contains: []string{"No files found."},
		},
		{
			name:      "outside the root",
			args:      map[string]interface{}{"directory": t.TempDir()},
			wantError: true,
			contains:  []string{"security validation failed"},
		},
		{
			name:      "missing directory",
			args:      map[string]interface{}{"directory": "nope"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleScanDirectory(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			text := extractTextFromResult(result)
			if result.IsError != tt.wantError {
				t.Errorf("IsError = %t, want %t (%s)", result.IsError, tt.wantError, text)
			}
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("result should contain %q, got: %s", want, text)
				}
			}
		})
	}
}

func TestServer_HandleScannerInfo(t *testing.T) {
	server, tempDir := newTestServer(t)

	result, err := server.handleScannerInfo(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	text := extractTextFromResult(result)
	for _, want := range []string{
		"test-server v1.0.0",
		"Default Directory: " + tempDir,
		"Max File Size: 100 MB",
		"Workers: 2",
		".docx",
		"slides hidden from playback",
		"invisible text render mode (3 Tr)",
		"scan_directory",
		"scanner_info",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("scanner info should contain %q, got: %s", want, text)
		}
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
