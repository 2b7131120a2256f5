package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwtly10/litpost"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render one post to stdout or a file",
		Long: `Render a Markdown post or notebook, running its code blocks.

The HTML is written to stdout unless --out names a file. Files written with
--out carry a generated header; a hand-written file in the way is backed up
first unless --no-backup is set.`,
		Args: cobra.ExactArgs(1),
		RunE: runRender,
	}

	cmd.Flags().StringP("out", "o", "", "Write the rendered post to this file")
	cmd.Flags().String("mode", "", "Output mode: fragment or page")
	cmd.Flags().Bool("no-backup", false, "Overwrite hand-written output without a backup")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	absSource, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	post, err := litpost.LoadPost(os.DirFS(filepath.Dir(absSource)), filepath.Base(absSource))
	if err != nil {
		return err
	}

	r, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	body, err := post.Render(cmd.Context(), r)
	if err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	slog.Debug("post rendered", "path", absSource, "duration", time.Since(start))

	writer := litpost.NewWriter(cfg.WriteMode())

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		return writer.WriteContent(cmd.OutOrStdout(), post, body)
	}

	if err := writeFile(writer, outPath, absSource, cfg.NoBackup, post, body); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s %s %s\n",
		successStyle.Render("✓"), post.Slug, dimStyle.Render("→"), outPath)
	return nil
}

// writeFile writes a generated file at path, backing up a hand-written one
// unless noBackup is set.
func writeFile(writer *litpost.Writer, path, absSource string, noBackup bool, post *litpost.Post, body string) error {
	if !noBackup {
		if _, err := litpost.NewBackupManager().CreateBackupOf(path); err != nil {
			return fmt.Errorf("backup error: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := writer.WriteHeader(out, litpost.WriterMetadata{
		Version:   litpost.Version,
		AbsSource: absSource,
		Generated: time.Now().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("write header error: %w", err)
	}

	if err := writer.WriteContent(out, post, body); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}
