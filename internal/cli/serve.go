package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chronoglass/chronod/internal/api"
	"github.com/chronoglass/chronod/internal/config"
	"github.com/chronoglass/chronod/internal/logger"
	"github.com/chronoglass/chronod/internal/notify"
	"github.com/chronoglass/chronod/internal/schema"
	"github.com/chronoglass/chronod/internal/store"
	"github.com/chronoglass/chronod/internal/tracker"
	"github.com/chronoglass/chronod/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve [import-file]",
	Short: "Run the time-tracking API server",
	Long: `Run the loopback HTTP API server until interrupted.

When an import-file argument is given, its content overwrites the backing
data file before the server starts. The import is verbatim and unguarded:
the caller owns the document's consistency.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer lg.Close()
	zl := lg.Zerolog()

	hub := notify.NewHub(zl)
	st := store.New(cfg.DataFile, zl)
	tr := tracker.New(st, hub, zl)

	// Startup side channel: a file-path argument unconditionally replaces
	// the backing store before serving.
	if len(args) == 1 {
		importPath := args[0]
		if content, err := os.ReadFile(importPath); err == nil {
			if problems, cerr := schema.NewValidator().Check(string(content)); cerr != nil {
				zl.Warn().Err(cerr).Str("path", importPath).Msg("Import file is not valid JSON, importing anyway")
			} else {
				for _, p := range problems {
					zl.Warn().Str("path", importPath).Str("problem", p).Msg("Import file does not match the document shape")
				}
			}
		}
		if err := tr.ImportFile(importPath); err != nil {
			return fmt.Errorf("startup import failed: %w", err)
		}
	}

	w, err := watcher.New(cfg.DataFile, hub, zl)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	server, err := api.NewServer(api.ServerOptions{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, tr, hub, zl)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zl.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		return server.Stop()
	case err := <-errCh:
		return err
	}
}
