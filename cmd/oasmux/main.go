package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalvas/oasmux/apidoc"
	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/openapi"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	configPath  string
	basePath    string
	routePrefix string
	logLevel    string
	logFormat   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "oasmux",
		Short:         "Serve, generate and check OpenAPI documents built from a live route tree",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to an oasmux YAML config")
	flags.StringVarP(&opts.basePath, "base", "b", "", "Path to a base OpenAPI document (JSON or YAML)")
	flags.StringVar(&opts.routePrefix, "route-prefix", "", "Path of the documentation endpoints (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newValidateCmd(opts))

	return root
}

// load reads the config file, applies flag overrides and builds the app.
func (o *rootOptions) load(cmd *cobra.Command) (*app, error) {
	var cfg apidoc.Config
	if o.configPath != "" {
		loaded, err := apidoc.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("route-prefix") {
		cfg.RoutePrefix = o.routePrefix
	}

	var base *openapi.Document
	if o.basePath != "" {
		doc, err := openapi.LoadDocument(o.basePath)
		if err != nil {
			return nil, err
		}
		base = doc
	}

	logger := setupLogger(cmd.ErrOrStderr(), o.logLevel, o.logFormat)
	return newApp(cfg, base, logger)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo API with its documentation endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	return cmd
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the OpenAPI document of the demo API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}

			doc, err := a.docs.Generate(a.router)
			if err != nil {
				return err
			}

			var data []byte
			switch strings.ToLower(format) {
			case "json":
				if data, err = json.MarshalIndent(doc, "", "  "); err == nil {
					data = append(data, '\n')
				}
			case "yaml", "yml":
				data, err = mux.MarshalYAML(doc)
			default:
				return fmt.Errorf("unknown format %q, expected json or yaml", format)
			}
			if err != nil {
				return fmt.Errorf("encode document: %w", err)
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

var errInvalidDocument = errors.New("document does not conform to OpenAPI 3.0")

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the generated document and every request validator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}

			if err := a.docs.Compile(a.router); err != nil {
				return fmt.Errorf("compile request validators: %w", err)
			}

			doc, err := a.docs.Generate(a.router)
			if err != nil {
				return err
			}

			report := apidoc.CheckConformance(cmd.Context(), doc)
			return printReport(cmd.OutOrStdout(), report)
		},
	}
}

func printReport(w io.Writer, report apidoc.Report) error {
	if report.Valid {
		fmt.Fprintf(w, "%s %s: valid, %d paths\n", report.Document.Info.Title, report.Document.Info.Version, len(report.Document.Paths))
		return nil
	}

	for _, detail := range report.Details {
		fmt.Fprintf(w, "- %s\n", detail)
	}
	return errInvalidDocument
}

func (a *app) serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening",
			"addr", addr,
			"docs", a.docs.RoutePrefix()+".json",
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", "oasmux", "version", Version)
}
