package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-injection-checker/internal/config"
	"github.com/a3tai/mcp-injection-checker/internal/dispatch"
	"github.com/a3tai/mcp-injection-checker/internal/mcp"
	"github.com/a3tai/mcp-injection-checker/internal/report"
	"github.com/a3tai/mcp-injection-checker/internal/service"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// exitFindings is the exit status of scan --fail-on-findings when hidden
// text was found.
const exitFindings = 2

var errFindings = errors.New("hidden text found")

type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errFindings):
		stop()
		os.Exit(exitFindings)
	default:
		fmt.Fprintf(os.Stderr, "injection-checker: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:               "injection-checker",
		Short:             "Detect hidden text in DOCX, PPTX and PDF documents",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	config.DefineFlags(root.PersistentFlags())

	root.AddCommand(a.scanCmd(), a.mcpCmd(), versionCmd())
	return root
}

// load reads flags and environment into the configuration and sets up logging
func (a *app) load(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(a.v, cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if version != "dev" {
		cfg.Version = version
	}
	a.cfg = cfg

	setupLogging(cfg, cmd.Name() == "mcp")
	return nil
}

// setupLogging configures logging based on the command being run
func setupLogging(cfg *config.Config, serving bool) {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags)

	if serving && cfg.IsStdioMode() && !cfg.IsDebug() {
		// stdout carries the protocol and clients rarely show stderr
		log.SetOutput(io.Discard)
		return
	}
	if cfg.IsDebug() || (serving && cfg.IsServerMode()) {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// newService builds a batch service confined to root, or unconfined when
// root is empty.
func (a *app) newService(root string) (*service.Service, error) {
	var logger *log.Logger
	if a.cfg.IsDebug() {
		logger = log.Default()
	}

	opts := a.cfg.PDFOptions()
	opts.Logger = logger

	return service.New(dispatch.Default(opts), service.Options{
		Workers:     a.cfg.Workers,
		MaxFileSize: a.cfg.MaxFileSize,
		Root:        root,
		Logger:      logger,
	})
}

func (a *app) scanCmd() *cobra.Command {
	var recursive, failOnFindings bool

	cmd := &cobra.Command{
		Use:   "scan [PATH...]",
		Short: "Scan files and directories for hidden text",
		Long: "Scan every given file, and every supported file below every given directory, " +
			"for hidden text. Without arguments the configured directory is scanned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{a.cfg.Directory}
			}

			svc, err := a.newService("")
			if err != nil {
				return err
			}

			rep, err := svc.ScanPaths(cmd.Context(), args, recursive)
			if err != nil {
				return err
			}
			if err := report.Write(cmd.OutOrStdout(), rep, a.cfg.Format); err != nil {
				return err
			}

			if failOnFindings && rep.HasFindings() {
				return errFindings
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "Descend into subdirectories")
	cmd.Flags().BoolVar(&failOnFindings, "fail-on-findings", false,
		fmt.Sprintf("Exit with status %d when hidden text is found", exitFindings))
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scanners as MCP tools over stdio or SSE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.IsDebug() {
				log.Printf("Starting with configuration: %s", a.cfg.String())
			}

			svc, err := a.newService(a.cfg.Directory)
			if err != nil {
				return err
			}
			server, err := mcp.NewServer(a.cfg, svc)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			if err := server.Run(cmd.Context()); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			log.Println("Server stopped successfully")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version works without a valid configuration
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP Injection Checker\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
