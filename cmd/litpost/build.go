package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwtly10/litpost/internal/cli"
	"github.com/jwtly10/litpost/internal/config"
	"github.com/jwtly10/litpost/internal/transformer"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [dir]",
		Short: "Render every post to <output>/<slug>.html",
		Long: `Render every post in the posts directory, several at a time.

Each post is written to <output>/<slug>.html with a generated header. A
hand-written file at an output path is backed up before it is replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBuild,
	}

	addBuildFlags(cmd)
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers, "Number of posts rendered at once")

	return cmd
}

// addBuildFlags adds the flags shared by build and watch.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out-dir", "o", "", "Directory posts are written to")
	cmd.Flags().String("mode", "", "Output mode: fragment or page")
	cmd.Flags().BoolP("recursive", "r", false, "Include posts in subdirectories")
	cmd.Flags().Bool("drafts", false, "Include posts marked as drafts")
	cmd.Flags().Bool("no-backup", false, "Overwrite hand-written output without a backup")
}

func newProcessor(cfg config.Config) (*cli.Processor, *transformer.TransformOptions, error) {
	r, err := newRenderer(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := transformer.TransformOptions{
		WriterMode: cfg.WriteMode(),
		NoBackup:   cfg.NoBackup,
		OutputDir:  cfg.Output,
	}
	p := cli.NewProcessor(transformer.NewTransformer(r, opts), cli.ProcessorOptions{
		Load:    cfg.LoadOptions(),
		Workers: cfg.Workers,
	})
	return p, &opts, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	p, opts, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "%s %s %s\n", dimStyle.Render("building"), cfg.Posts, dimStyle.Render(opts.Pretty()))

	start := time.Now()
	results, err := p.ProcessPath(cmd.Context(), cfg.Posts)
	printResults(out, results)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", errorStyle.Render("✗"), err)
		return err
	}

	fmt.Fprintf(out, "%s built %d posts in %s\n",
		successStyle.Render("✓"), len(results), time.Since(start).Round(time.Millisecond))
	return nil
}

func printResults(w io.Writer, results []cli.BuildResult) {
	for _, res := range results {
		fmt.Fprintf(w, "  %s %s %s %s %s\n",
			successStyle.Render("✓"),
			res.Path,
			dimStyle.Render("→"),
			res.OutPath,
			dimStyle.Render(res.Duration.Round(time.Millisecond).String()))
	}
}
