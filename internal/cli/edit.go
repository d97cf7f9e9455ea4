package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sheets/internal/app"
)

// newScreen is replaced in tests.
var newScreen = tcell.NewScreen

func newEditCmd(opts *options) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a sheet in the terminal",
		Long: `Edit a sheet in the terminal. The sheet is loaded from the store when
the id is known; without an id a new sheet gets a generated one.
Save with ":w", open another sheet with ":o ID", press "?" for help.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			// stderr belongs to the screen while the editor runs
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
				if err != nil {
					return err
				}
				defer f.Close()
				logOut = f
			}
			log := newLogger(logOut, cfg.LogLevel)

			store, closeStore, err := openStore(cfg.DatabasePath, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					log.Error("close store", "error", err)
				}
			}()

			id := uuid.NewString()
			if len(args) > 0 {
				id = args[0]
			}
			sh, err := openSheet(cmd.Context(), id, store)
			if err != nil {
				return err
			}
			sh.SetLogger(log)

			s, err := newScreen()
			if err != nil {
				return fmt.Errorf("cannot create screen: %w", err)
			}
			if err := s.Init(); err != nil {
				return fmt.Errorf("cannot init screen: %w", err)
			}
			defer s.Fini()

			return app.NewApp(sh, store, log).Run(cmd.Context(), s)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}
