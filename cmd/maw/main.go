package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/artifact"
	"github.com/cuemby/maw/pkg/config"
	"github.com/cuemby/maw/pkg/mlog"
	"github.com/cuemby/maw/pkg/objectstore/gitbackend"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "maw",
	Short: "maw - multi-agent workspace coordination over a content-addressed object store",
	Long: `maw lets several agents work against the same tree concurrently: each
gets its own workspace checked out at a shared epoch, accumulates changes
as a patch-set, and a merge pipeline joins them back with structured,
rename-aware conflict reporting.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"maw version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("root", ".", "Repository root (holds the .maw artifact tree and the object store)")
	rootCmd.PersistentFlags().String("config", "", "Config file (defaults to <root>/.maw/config.yaml)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(wsCmd)
	rootCmd.AddCommand(epochCmd)
	rootCmd.AddCommand(recoverCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	mlog.Init(mlog.Config{
		Level:      mlog.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// storePath returns where the shared object store lives under root:
// <root>/.maw/store, a non-bare repository whose own worktree directory
// is the one gitbackend.Repo.CheckoutTree currently materializes into
// regardless of the workdir argument passed to it (see DESIGN.md's
// pkg/workspace entry) — every workspace directory this CLI opens is
// therefore routed through openStore's repo, not an independent checkout,
// until that gap is closed.
func storePath(root string) string {
	return filepath.Join(root, "."+artifact.ReservedDir, "store")
}

// openStore opens (or, if absent, initializes) the shared object store
// rooted at root, mirroring cmd/warren's client.NewClient "connect or
// bootstrap" convenience for a local, single-binary tool with no server
// to dial.
func openStore(root string) (*gitbackend.Repo, error) {
	path := storePath(root)
	if _, err := os.Stat(path); err == nil {
		return gitbackend.Open(path)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, apperr.BackendIo(err, "create store directory %s", path)
	}
	return gitbackend.Init(path, false)
}

// configPath returns the config file the `--config` flag selects, or
// <root>/.maw/config.yaml by default.
func configPath(cmd *cobra.Command, root string) string {
	if p, _ := cmd.Root().PersistentFlags().GetString("config"); p != "" {
		return p
	}
	return filepath.Join(root, "."+artifact.ReservedDir, "config.yaml")
}

// loadConfig reads the engine's tunables for this invocation (spec.md
// §6's checkpoint interval, compaction policy, validation, and merge
// drivers), following the `--config`/`--root` flags.
func loadConfig(cmd *cobra.Command, root string) (config.Config, error) {
	return config.Load(configPath(cmd, root))
}

// userMessage prints an *apperr.Error's full "summary\n  To fix: hint"
// form (spec.md §7); any other error prints as-is.
func userMessage(err error) string {
	var appErr *apperr.Error
	if e, ok := err.(*apperr.Error); ok {
		appErr = e
	}
	if appErr != nil {
		return appErr.UserMessage()
	}
	return err.Error()
}
