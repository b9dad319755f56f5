package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-injection-checker/internal/config"
	"github.com/a3tai/mcp-injection-checker/internal/descriptions"
	"github.com/a3tai/mcp-injection-checker/internal/report"
	"github.com/a3tai/mcp-injection-checker/internal/service"
)

const shutdownTimeout = 5 * time.Second

// signals lists the heuristics applied per format, for scanner_info.
var signals = map[string][]string{
	"docx": {
		"hidden or vanished runs (w:vanish, w:specVanish)",
		"font size of 4pt or less",
		"text color with contrast ratio below 1.3 against white",
		"text fill alpha below 0.15",
		"invisible Unicode characters (Cf, Zl, Zp)",
		"non-empty customXml parts",
	},
	"pptx": {
		"slides hidden from playback (show=\"0\")",
		"font size of 4pt or less",
		"text color with contrast ratio below 1.3 against white",
		"invisible Unicode characters (Cf, Zl, Zp)",
	},
	"pdf": {
		"stroke or fill opacity of 0.07 or less (/CA, /ca)",
		"invisible text render mode (3 Tr)",
		"document JavaScript actions",
		"invisible Unicode characters in literal strings",
		"the same markers inside compressed content streams",
		"tiny glyphs and invisible characters in the text layer",
	},
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *service.Service
	mcpServer *server.MCPServer

	stdin  io.Reader
	stdout io.Writer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if svc == nil {
		return nil, errors.New("scan service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list is fixed
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		mcpServer: mcpServer,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	scanFileTool := mcp.NewTool(
		"scan_file",
		mcp.WithDescription(descriptions.GetToolDescription("scan_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a .docx, .pptx or .pdf file; relative paths resolve against the default directory"),
		),
	)
	s.mcpServer.AddTool(scanFileTool, s.handleScanFile)

	scanDirectoryTool := mcp.NewTool(
		"scan_directory",
		mcp.WithDescription(descriptions.GetToolDescription("scan_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory to scan (uses default if empty)"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Descend into subdirectories (default true)"),
		),
	)
	s.mcpServer.AddTool(scanDirectoryTool, s.handleScanDirectory)

	scannerInfoTool := mcp.NewTool(
		"scanner_info",
		mcp.WithDescription(descriptions.GetToolDescription("scanner_info")),
	)
	s.mcpServer.AddTool(scannerInfoTool, s.handleScannerInfo)
}

func (s *Server) handleScanFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.service.ScanFile(path)
	if result.Status == service.StatusError {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed for %s: %s", result.Path, result.Error)), nil
	}

	text := report.FileText(result)
	if result.Status == service.StatusUnsupported {
		text += fmt.Sprintf("Supported extensions: %s\n", strings.Join(s.service.Dispatcher().Extensions(), ", "))
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleScanDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	directory := "" // service root
	if dir, ok := args["directory"].(string); ok {
		directory = dir
	}
	recursive := true
	if r, ok := args["recursive"].(bool); ok {
		recursive = r
	}

	result, err := s.service.ScanDirectory(ctx, directory, recursive)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scanned directory: %s\n\n", result.Root)
	if len(result.Files) == 0 {
		b.WriteString("No files found.\n")
		return mcp.NewToolResultText(b.String()), nil
	}
	if err := report.Text(&b, result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleScannerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatScannerInfo()), nil
}

func (s *Server) formatScannerInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Default Directory: %s\n", s.service.Root())
	fmt.Fprintf(&b, "Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	fmt.Fprintf(&b, "Workers: %d\n", s.service.Workers())

	b.WriteString("\nSupported Formats:\n")
	d := s.service.Dispatcher()
	for _, ext := range d.Extensions() {
		format := d.Format("file" + ext)
		fmt.Fprintf(&b, "  %s\n", ext)
		for _, signal := range signals[format] {
			fmt.Fprintf(&b, "    • %s\n", signal)
		}
	}

	b.WriteString("\nAvailable Tools:\n")
	for _, name := range descriptions.GetAllToolNames() {
		fmt.Fprintf(&b, "  • %s\n", name)
	}
	return b.String()
}

// Run starts the MCP server in the configured mode and blocks until ctx is
// canceled or the transport fails.
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves JSON-RPC over the process's standard streams
func (s *Server) runStdioMode(ctx context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting injection checker MCP server in stdio mode")
		log.Printf("Default directory: %s", s.service.Root())
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(log.Writer(), "[stdio] ", log.Flags()))

	if err := stdio.Listen(ctx, s.stdin, s.stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the SSE transport on the configured address
func (s *Server) runServerMode(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}

	httpServer := &http.Server{ReadHeaderTimeout: 10 * time.Second}
	sse := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL("http://"+ln.Addr().String()),
		server.WithHTTPServer(httpServer),
	)
	httpServer.Handler = sse

	log.Printf("Starting injection checker MCP server on %s (SSE)", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve SSE: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down SSE server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve SSE: %w", err)
	}
	return nil
}
