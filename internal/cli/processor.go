package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jwtly10/litpost"
	"github.com/jwtly10/litpost/internal/transformer"
)

const defaultWorkers = 4

// ErrNoPosts is returned when a directory holds no posts to build.
var ErrNoPosts = errors.New("no posts found")

type BuildResult struct {
	Path     string
	OutPath  string
	Slug     string
	Duration time.Duration
}

type ProcessResult struct {
	Path     string
	OutPath  string
	Slug     string
	Duration time.Duration
	Error    error
}

type ProcessorOptions struct {
	// Load selects the posts of a directory
	Load litpost.LoadOptions
	// Number of posts rendered at once, defaults to 4
	Workers int
}

type Processor struct {
	transformer *transformer.Transformer
	opts        ProcessorOptions
}

func NewProcessor(t *transformer.Transformer, opts ProcessorOptions) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Processor{
		transformer: t,
		opts:        opts,
	}
}

// ProcessPath builds a single post, or every post of a directory.
func (p *Processor) ProcessPath(ctx context.Context, path string) ([]BuildResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path: %w", err)
	}

	if info.IsDir() {
		return p.processDirectory(ctx, path)
	}

	result := p.processFile(ctx, path)
	if result.Error != nil {
		return nil, result.Error
	}

	return []BuildResult{{
		Path:     result.Path,
		OutPath:  result.OutPath,
		Slug:     result.Slug,
		Duration: result.Duration,
	}}, nil
}

func (p *Processor) processDirectory(ctx context.Context, root string) ([]BuildResult, error) {
	startTime := time.Now()
	slog.Debug("starting directory processing", "path", root)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	posts, err := litpost.LoadPosts(os.DirFS(absRoot), p.opts.Load)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPosts, root)
	}

	slog.Debug("found posts to process", "count", len(posts), "duration", time.Since(startTime))

	jobs := make(chan *litpost.Post, len(posts))
	results := make(chan ProcessResult, len(posts))

	var wg sync.WaitGroup
	for i := 0; i < min(p.opts.Workers, len(posts)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range jobs {
				results <- p.processPost(ctx, post, filepath.Join(absRoot, filepath.FromSlash(post.Path)))
			}
		}()
	}

	for _, post := range posts {
		jobs <- post
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []error
	var buildResults []BuildResult

	for result := range results {
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("failed to process %s: %w", result.Path, result.Error))
			slog.Error("failed to process post", "path", result.Path, "error", result.Error)
			continue
		}

		relSource, _ := filepath.Rel(absRoot, result.Path)
		relOut, _ := filepath.Rel(absRoot, result.OutPath)

		buildResults = append(buildResults, BuildResult{
			Path:     relSource,
			OutPath:  relOut,
			Slug:     result.Slug,
			Duration: result.Duration,
		})

		slog.Debug("post rendered",
			"source", relSource,
			"output", relOut,
		)
	}

	sort.Slice(buildResults, func(i, j int) bool { return buildResults[i].Path < buildResults[j].Path })

	if len(errs) > 0 {
		return buildResults, fmt.Errorf("encountered %d errors during build: %w", len(errs), errors.Join(errs...))
	}

	slog.Debug("build completed", "duration", time.Since(startTime), "processed", len(buildResults))
	return buildResults, nil
}

func (p *Processor) processFile(ctx context.Context, path string) ProcessResult {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ProcessResult{Path: path, Error: fmt.Errorf("failed to resolve absolute path: %w", err)}
	}

	post, err := litpost.LoadPost(os.DirFS(filepath.Dir(absPath)), filepath.Base(absPath))
	if err != nil {
		return ProcessResult{Path: absPath, Error: err}
	}

	return p.processPost(ctx, post, absPath)
}

func (p *Processor) processPost(ctx context.Context, post *litpost.Post, absPath string) ProcessResult {
	startTime := time.Now()
	result := ProcessResult{Path: absPath, Slug: post.Slug}

	slog.Debug("processing post", "path", absPath)

	outPath, err := p.transformer.Transform(ctx, transformer.PostSource{
		Post:      post,
		AbsSource: absPath,
	})
	if err != nil {
		result.Error = err
		return result
	}

	result.OutPath = outPath
	result.Duration = time.Since(startTime)
	slog.Debug("post processed",
		"path", absPath,
		"duration", result.Duration)

	return result
}
