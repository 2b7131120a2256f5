// Package main provides the entry point for the litpost CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	_ "github.com/jwtly10/litpost/kernel/python"
	_ "github.com/jwtly10/litpost/kernel/shell"
)

// Build info set via ldflags at build time.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(buildVersion())); err != nil {
		return 1
	}
	return 0
}

// newRootCmd creates the root command for the litpost CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "litpost",
		Short: "Render literate blog posts to HTML",
		Long: `litpost renders Markdown posts and notebooks to HTML, running the code blocks
marked with a directive such as python:run and inlining their output.

Settings are read from ./litpost.yaml when present; flags override them.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		setupLogging(cmd)
		return nil
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to the config file (default ./"+configFileName+")")
	cmd.PersistentFlags().Bool("no-exec", false, "Render code blocks without running them")

	// Configure lipgloss for TTY detection
	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})))
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "render", Title: "Render Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "inspect", Title: "Inspect Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	addGroupedCommand(cmd, newRenderCmd(), "render")
	addGroupedCommand(cmd, newBuildCmd(), "render")
	addGroupedCommand(cmd, newWatchCmd(), "render")

	addGroupedCommand(cmd, newListCmd(), "inspect")
	addGroupedCommand(cmd, newTagCmd(), "inspect")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
