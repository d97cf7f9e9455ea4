package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"sheets/internal/config"
	"sheets/internal/sheet"
	"sheets/internal/storage"
)

const ExitCodeMainError = 1

// options holds the flags shared by every command; set flags win over the
// environment.
type options struct {
	logLevel     string
	databasePath string
}

func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sheets",
		Short: "Spreadsheet with a formula engine",
		Long: `Edit spreadsheets in the terminal or serve them over HTTP.

Formulas start with "=" and call one function over cell references:
  =SUM(A1:A5)  =AVERAGE(B1:B3)  =MID(A1,2,3)  =FIND_AND_REPLACE(A1,"old","new")

Environment:
  SHEETS_LISTEN_ADDR    HTTP listen address (default :5000)
  DATABASE_FILEPATH     bbolt file; empty keeps sheets in memory
  SHEETS_LOG_LEVEL      debug, info, warn or error (default info)
  SHEETS_ALLOW_ORIGINS  comma separated CORS origins (default *)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides "+config.EnvLogLevel+")")
	root.PersistentFlags().StringVar(&opts.databasePath, "db", "", "bbolt database file (overrides "+config.EnvDatabasePath+")")

	root.AddCommand(newServeCmd(opts), newEditCmd(opts))
	return root
}

// loadConfig reads the environment and applies the flags that were set.
func (o *options) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("log-level") {
		if cfg.LogLevel, err = config.ParseLevel(o.logLevel); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath = o.databasePath
	}
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore returns the bbolt store when path is set, the memory store
// otherwise, and the function releasing it.
func openStore(path string, log *slog.Logger) (storage.Store, func() error, error) {
	if path == "" {
		log.Info("using in-memory store")
		return storage.NewMemoryStore(), func() error { return nil }, nil
	}
	store, err := storage.OpenBolt(path)
	if err != nil {
		return nil, nil, err
	}
	log.Info("opened store", "path", store.Path())
	return store, store.Close, nil
}

// openSheet loads id from store, or starts an empty sheet when it is unknown.
func openSheet(ctx context.Context, id string, store storage.Store) (*sheet.Sheet, error) {
	sh, err := sheet.Open(ctx, id, store)
	if errors.Is(err, storage.ErrSheetNotFound) {
		return sheet.New(id, store), nil
	}
	return sh, err
}

// Execute runs the root command with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return HandleExitError(stderr, root.ExecuteContext(ctx))
}

func HandleExitError(errStream io.Writer, err error) int {
	if err != nil {
		_, _ = fmt.Fprintln(errStream, err)
		return ExitCodeMainError
	}
	return 0
}
