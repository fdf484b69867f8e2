package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/nconklindev/tabula/internal/chart"
	"github.com/nconklindev/tabula/internal/converter"
	"github.com/nconklindev/tabula/internal/server"
	"github.com/nconklindev/tabula/internal/types"
	"github.com/nconklindev/tabula/internal/ui"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func (a *app) newConvertCmd() *cobra.Command {
	var (
		to   string
		out  string
		save bool
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a file to another format",
		Example: `  tabula convert sales.csv --to json
  tabula convert report.xlsx --to csv --out ./exports --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := a.setupLogging(os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()

			inputPath := args[0]
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}

			result, err := converter.Convert(converter.Request{
				Name:   inputPath,
				Data:   data,
				Target: types.Format(to),
			}, nil)
			if err != nil {
				return err
			}

			outputPath := converter.OutputPath(inputPath, result.TargetFormat)
			if out != "" {
				outputPath = filepath.Join(out, filepath.Base(outputPath))
			}
			d := &converter.DirDeliverer{Dir: filepath.Dir(outputPath)}
			if err := d.Deliver(result.Data, filepath.Base(outputPath), result.MimeType); err != nil {
				return err
			}

			slog.Info("conversion complete",
				"input", inputPath,
				"output", d.LastPath,
				"type", converter.ConversionType(result.SourceFormat, result.TargetFormat),
				"rows", result.RowsProcessed,
			)

			w := cmd.OutOrStdout()
			for _, warning := range result.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.WarningStyle.Render("warning: "+warning))
			}
			fmt.Fprintf(w, "Converted %s to %s: %d row(s), %d column(s)\n",
				result.SourceFormat, result.TargetFormat, result.RowsProcessed, len(result.ColumnsFound))
			fmt.Fprintf(w, "Output: %s\n", d.LastPath)

			if !save {
				return nil
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			id, err := converter.Save(cmd.Context(), store, a.cfg.Session.UserID, result, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Saved: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", "", "Target format: csv, json, xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory (default: next to the input)")
	cmd.Flags().BoolVar(&save, "save", false, "Also save the output to storage (requires TABULA_USER)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func (a *app) newChartCmd() *cobra.Command {
	var (
		mode  string
		width int
	)

	cmd := &cobra.Command{
		Use:   "chart <file>",
		Short: "Chart a file's numeric columns in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := a.setupLogging(os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()

			chartMode, err := chart.ParseMode(mode)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}

			decoded, err := converter.Decode(args[0], data)
			if err != nil {
				return err
			}
			for _, warning := range decoded.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.WarningStyle.Render("warning: "+string(warning)))
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderChart(chart.Project(decoded.Table, chartMode), width))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(chart.ModeBar), "Chart mode: bar or pie")
	cmd.Flags().IntVar(&width, "width", 80, "Chart width in columns")

	return cmd
}

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := a.setupLogging(os.Stdout)
			if err != nil {
				return err
			}
			defer closeLog()

			slog.Info("configuration loaded",
				"addr", a.cfg.Server.Addr(),
				"storage_dir", a.cfg.Storage.Dir,
				"max_file_size", a.cfg.Convert.MaxFileSize,
			)

			store, err := a.openStore()
			if err != nil {
				return err
			}

			srv := server.New(a.cfg, store)

			// Graceful shutdown
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh

				slog.Info("shutting down...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Error("shutdown error", "error", err)
				}
			}()

			if err := srv.Start(); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}
			slog.Info("server stopped")
			return nil
		},
	}
}

func (a *app) newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage conversions saved to storage",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your saved files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.requireUser()
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}

			files, err := store.List(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved files.")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))).
				Headers("ID", "NAME", "ORIGINAL", "CONVERSION", "SIZE", "SAVED")
			for _, f := range files {
				t.Row(
					f.ID,
					f.Name,
					f.Metadata.OriginalName,
					f.Metadata.ConversionType,
					strconv.FormatInt(f.Size, 10),
					f.CreatedAt.Local().Format(time.DateTime),
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your saved files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.requireUser()
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}

			if err := store.Delete(cmd.Context(), userID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func (a *app) requireUser() (string, error) {
	if a.cfg.Session.UserID == "" {
		return "", fmt.Errorf("%w: set TABULA_USER to manage saved files", converter.ErrNoUser)
	}
	return a.cfg.Session.UserID, nil
}
