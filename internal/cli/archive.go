package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/campman/internal/sqlite"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the campaign to a directory of JSONL files",
		Long: "Export writes one <table>.jsonl file per table plus manifest.json.\n" +
			"The directory is created if needed and existing archive files are replaced.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
				m, err := s.Export(ctx, dir)
				if err != nil {
					return err
				}
				total := 0
				for _, n := range m.Rows {
					total += n
				}
				a.log.Info("campaign exported",
					zap.String("campaign", s.Path()),
					zap.String("dir", dir),
					zap.String("export_id", m.ExportID),
					zap.Int("rows", total))
				return a.emit(cmd, m, func(w io.Writer) {
					fmt.Fprintf(w, "Exported %d rows to %s (export %s)\n", total, dir, m.ExportID)
				})
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir> <path>",
		Short: "Create a campaign file from an exported directory",
		Long:  "Import creates a new campaign at path, which must not exist, and loads the archive in dir into it.",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, path := args[0], args[1]
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			s, report, err := sqlite.Import(ctx, dir, path)
			if err != nil {
				return err
			}
			if err := s.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", path, err)
			}

			total := 0
			for _, n := range report.Loaded {
				total += n
			}
			if report.Skipped > 0 {
				a.log.Warn("import skipped malformed rows", zap.Int("skipped", report.Skipped))
			}
			a.log.Info("campaign imported",
				zap.String("campaign", path),
				zap.String("export_id", report.Manifest.ExportID),
				zap.Int("rows", total))
			return a.emit(cmd, report, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %d rows into %s (%d skipped)\n", total, path, report.Skipped)
			})
		},
	}
}
