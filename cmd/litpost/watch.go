package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwtly10/litpost/internal/cli"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Rebuild posts as they change",
		Long: `Build every post once, then rebuild each post whenever it is written.

Deleting a post leaves its output in place. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	addBuildFlags(cmd)
	cmd.Flags().Duration("debounce", cli.DefaultDebounce, "How long a post must be quiet before it is rebuilt")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	p, _, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	results, err := p.ProcessPath(cmd.Context(), cfg.Posts)
	printResults(out, results)
	if err != nil && !errors.Is(err, cli.ErrNoPosts) {
		// a broken post should not stop the watch, it is rebuilt once fixed
		fmt.Fprintf(out, "%s %v\n", errorStyle.Render("✗"), err)
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	events := make(chan cli.WatchEvent)
	done := make(chan error, 1)
	go func() {
		done <- cli.NewWatcher(p, debounce).Watch(cmd.Context(), cfg.Posts, events)
	}()

	fmt.Fprintf(out, "%s %s\n", dimStyle.Render("watching"), cfg.Posts)
	for ev := range events {
		if ev.Err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", errorStyle.Render("✗"), ev.Path, ev.Err)
			continue
		}
		printResults(out, ev.Results)
	}

	return <-done
}
