package transformer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jwtly10/litpost"
)

type TransformOptions struct {
	// The mode for the writer instance
	WriterMode litpost.WriteMode
	// If true, no backup will be created
	NoBackup bool
	// Directory posts are written to by slug. Empty writes next to the source.
	OutputDir string
}

func (t *TransformOptions) Pretty() string {
	output := t.OutputDir
	if output == "" {
		output = "<next to source>"
	}
	return fmt.Sprintf("mode=%s backup=%s output=%s",
		t.WriterMode,
		boolToText(!t.NoBackup),
		output)
}

func boolToText(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

type Transformer struct {
	renderer *litpost.Renderer
	writer   *litpost.Writer
	backup   *litpost.BackupManager

	opts TransformOptions
}

// NewTransformer creates a new Transformer rendering with r and the specified options [TransformOptions]
func NewTransformer(r *litpost.Renderer, opts TransformOptions) *Transformer {
	return &Transformer{
		renderer: r,
		writer:   litpost.NewWriter(opts.WriterMode),
		backup:   litpost.NewBackupManager(),
		opts:     opts,
	}
}

type PostSource struct {
	Post *litpost.Post
	// Absolute path of the post source, recorded in the output header
	AbsSource string
}

// Transform renders the post and writes it to its output path, returning the absolute path written.
//
// Nothing is written when rendering fails.
func (t *Transformer) Transform(ctx context.Context, input PostSource) (string, error) {
	slog.Debug("transforming post", "path", input.AbsSource, "slug", input.Post.Slug)
	if input.AbsSource == "" {
		return "", fmt.Errorf("abs source is required for transformation")
	}

	body, err := input.Post.Render(ctx, t.renderer)
	if err != nil {
		return "", fmt.Errorf("render error: %w", err)
	}

	outDir := t.opts.OutputDir
	if outDir != "" {
		if outDir, err = filepath.Abs(outDir); err != nil {
			return "", fmt.Errorf("resolve output dir error: %w", err)
		}
	}
	absOutPath, err := litpost.ResolveOutputPath(input.AbsSource, outDir, input.Post.Slug)
	if err != nil {
		return "", fmt.Errorf("resolve output path error: %w", err)
	}

	if !t.opts.NoBackup {
		if _, err := t.backup.CreateBackupOf(absOutPath); err != nil {
			return "", fmt.Errorf("backup error: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absOutPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(absOutPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	metadata := litpost.WriterMetadata{
		Version:   litpost.Version,
		AbsSource: input.AbsSource,
		Generated: time.Now().Format(time.RFC3339),
	}
	if err := t.writer.WriteHeader(out, metadata); err != nil {
		return "", fmt.Errorf("write header error: %w", err)
	}

	if err := t.writer.WriteContent(out, input.Post, body); err != nil {
		return "", fmt.Errorf("write error: %w", err)
	}

	return absOutPath, nil
}
