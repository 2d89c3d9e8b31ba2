package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/campman/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create a new campaign file",
		Long: "Init creates an empty campaign file. With a path argument the file is\n" +
			"created there and recorded as the default campaign in config.yaml;\n" +
			"otherwise the configured or default location is used. An existing\n" +
			"file is never overwritten.",
		Args: rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				path = abs
			} else {
				p, err := a.campaignPath()
				if err != nil {
					return err
				}
				path = p
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create campaign directory: %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := sqlite.CreateNew(ctx, path)
			if err != nil {
				return err
			}
			if err := s.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", path, err)
			}

			if len(args) == 1 {
				if err := saveCampaign(a.configDir, path); err != nil {
					return err
				}
			}
			a.log.Info("campaign created", zap.String("campaign", path))
			return a.emit(cmd, map[string]string{"campaign": path}, func(w io.Writer) {
				fmt.Fprintf(w, "Campaign created at %s\n", path)
			})
		},
	}
}
