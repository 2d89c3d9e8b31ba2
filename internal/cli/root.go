// Package cli implements the campman command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/campman/internal/paths"
	"github.com/mesh-intelligence/campman/internal/sqlite"
	"github.com/mesh-intelligence/campman/pkg/campman"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	campaign  string
	jsonMode  bool
	verbose   bool
}

// app carries the state one invocation shares between its commands.
type app struct {
	flags     rootFlags
	configDir string
	cfg       *viper.Viper
	log       *zap.Logger

	// started is set once flag and argument parsing succeeded.
	started bool
}

// newRootCmd creates the top-level "campman" command with global flags
// and all subcommands registered.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "campman",
		Short: "Keep track of a tabletop campaign",
		Long: "campman stores the subjects, places, events, groups and tags of a\n" +
			"campaign in a single SQLite file and links them together.",
		Version:           campman.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/campman)")
	pf.StringVar(&a.flags.campaign, "campaign", "", "campaign file (default: $XDG_DATA_HOME/campman/campaign.db)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")
	pf.BoolVar(&a.flags.verbose, "verbose", false, "log debug output to stderr")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newGetCmd(a),
		newShowCmd(a),
		newSearchCmd(a),
		newDeleteCmd(a),
		newLinkCmd(a),
		newUnlinkCmd(a),
		newLinksCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes one command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	a := &app{log: zap.NewNop()}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "campman:", err)
		if !a.started {
			return exitUserError
		}
		return exitCode(err)
	}
	return exitSuccess
}

// setup loads configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.started = true
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.configDir = configDir
	a.cfg = cfg

	level := cfg.GetString(cfgKeyLogLevel)
	if a.flags.verbose {
		level = "debug"
	}
	log, err := newLogger(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}
	a.log = log.With(zap.String("command", cmd.Name()))
	a.log.Debug("configuration loaded", zap.String("config_dir", configDir))
	return nil
}

// campaignPath resolves the campaign file: --campaign flag, then the
// configured value, then the default file in the data directory.
func (a *app) campaignPath() (string, error) {
	var configured string
	if a.cfg != nil {
		configured = a.cfg.GetString(cfgKeyCampaign)
	}
	path, err := paths.ResolveCampaign(a.flags.campaign, configured)
	if err != nil {
		return "", fmt.Errorf("resolve campaign: %w", err)
	}
	return path, nil
}

// withStore opens the campaign, runs fn and closes the store again.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *sqlite.Store) error) error {
	path, err := a.campaignPath()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := sqlite.Open(ctx, path)
	if err != nil {
		return err
	}
	a.log.Debug("campaign opened", zap.String("campaign", path))
	defer func() {
		if err := s.Close(); err != nil {
			a.log.Warn("closing campaign", zap.String("campaign", path), zap.Error(err))
		}
	}()
	return fn(ctx, s)
}
