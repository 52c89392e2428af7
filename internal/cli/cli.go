package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/DennisG8153/apkfeat/internal/banner"
	"github.com/DennisG8153/apkfeat/internal/config"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	initialized bool
	cfg         *config.Config
	cfgErr      error
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string. Flag
// defaults come from the environment and an optional .env file.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.cfg, c.cfgErr = config.Load()
	if c.cfgErr != nil {
		c.cfg, _ = config.FromEnvSet(nil)
	}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "apkfeat",
		Short:         "Feature vocabulary, cardinality reduction and vector encoding for APK feature files",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.initApp()
			return c.cfgErr
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newBuildCommand())
	c.rootCmd.AddCommand(c.newReduceCommand())
	c.rootCmd.AddCommand(c.newFreezeCommand())
	c.rootCmd.AddCommand(c.newEncodeCommand())
	c.rootCmd.AddCommand(c.newVectorsCommand())
	c.rootCmd.AddCommand(c.newStatsCommand())
	c.rootCmd.AddCommand(c.newMigrateCommand())
	c.rootCmd.AddCommand(c.newPublishCommand())
	c.rootCmd.AddCommand(c.newFetchCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run executes the CLI and returns any error. An interrupt cancels the
// running command between sample files.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := c.rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Error("Command failed", "error", err)
	}
	return err
}

// initApp initializes logging and prints the banner.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	if !c.silent {
		fmt.Fprint(os.Stderr, banner.Banner(c.version))
	}
}
