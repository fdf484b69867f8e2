package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nconklindev/tabula/internal/config"
	"github.com/nconklindev/tabula/internal/logging"
	"github.com/nconklindev/tabula/internal/storage"
	"github.com/nconklindev/tabula/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tabula",
		Short: "Convert tables between CSV, JSON and Excel",
		Long: `tabula converts tabular files between CSV, JSON and Excel (xlsx),
recovers malformed JSON where it can, and charts numeric columns.

Run without a command to start the interactive converter.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment is used as-is.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		RunE: a.runTUI,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("tabula %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	rootCmd.AddCommand(
		a.newConvertCmd(),
		a.newChartCmd(),
		a.newServeCmd(),
		a.newFilesCmd(),
	)

	return rootCmd
}

// setupLogging points the default logger at w, or at LOG_FILE when set.
func (a *app) setupLogging(w io.Writer) (func() error, error) {
	closeLog := func() error { return nil }
	if a.cfg.Logging.File != "" {
		f, closeFile, err := logging.OpenFile(a.cfg.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeLog = f, closeFile
	}

	logging.Setup(a.cfg.Logging.Level, a.cfg.Logging.Format, w)
	return closeLog, nil
}

// openStore opens the configured object store.
func (a *app) openStore() (*storage.Store, error) {
	return storage.New(storage.Config{Dir: a.cfg.Storage.Dir, Bucket: a.cfg.Storage.Bucket})
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	// The UI owns the terminal, so logs only go to LOG_FILE.
	closeLog, err := a.setupLogging(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := ui.Options{
		UserID:      a.cfg.Session.UserID,
		PreviewRows: a.cfg.Convert.PreviewRows,
	}
	if opts.UserID != "" {
		store, err := a.openStore()
		if err != nil {
			slog.Warn("storage unavailable, saving disabled", "error", err)
		} else {
			opts.Saver = store
		}
	}

	p := tea.NewProgram(ui.InitialModel(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
