package litpost

import (
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"
)

// DefaultInclude finds posts at the top level of the posts directory.
var DefaultInclude = []string{"*.md", "*.ipynb"}

// RecursiveInclude finds posts anywhere below the posts directory.
var RecursiveInclude = []string{"**/*.md", "**/*.ipynb"}

type LoadOptions struct {
	// Include are doublestar patterns selecting post files. Defaults to DefaultInclude.
	Include []string
	// Exclude are glob patterns matched against the post path and its slug.
	Exclude []string
	// DateLayout parses frontmatter dates for sorting. Defaults to DefaultDateLayout.
	DateLayout string
	// Drafts keeps posts marked draft.
	Drafts bool
	// IgnoreGitignore stops patterns in a top level .gitignore from excluding posts.
	IgnoreGitignore bool
}

// LoadPosts discovers posts in fsys and returns them newest first. Posts
// without a parseable date sort last. A post that cannot be loaded is logged
// and skipped; only invalid patterns are returned as errors.
func LoadPosts(fsys fs.FS, opts LoadOptions) ([]*Post, error) {
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}

	excludes := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		excludes = append(excludes, g)
	}

	var ignore gitignore.Matcher
	if !opts.IgnoreGitignore {
		ignore = loadGitignore(fsys)
	}

	var paths []string
	seen := map[string]struct{}{}
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			if ignore != nil && ignore.Match(strings.Split(m, "/"), false) {
				slog.Debug("post ignored by .gitignore", "path", m)
				continue
			}
			paths = append(paths, m)
		}
	}

	var posts []*Post
	slugs := map[string]string{}
	for _, p := range paths {
		post, err := LoadPost(fsys, p)
		if err != nil {
			slog.Error("error processing post", "path", p, "error", err)
			continue
		}
		if matchesAny(excludes, post.Path) || matchesAny(excludes, post.Slug) {
			slog.Debug("post excluded", "path", p)
			continue
		}
		if post.Metadata.Draft && !opts.Drafts {
			slog.Debug("skipping draft", "path", p)
			continue
		}
		if other, dup := slugs[post.Slug]; dup {
			slog.Warn("duplicate slug", "slug", post.Slug, "path", p, "other", other)
		}
		slugs[post.Slug] = p
		posts = append(posts, post)
	}

	SortPosts(posts, opts.DateLayout)
	return posts, nil
}

// SortPosts orders posts newest first, keeping the order of posts with
// equal or missing dates.
func SortPosts(posts []*Post, layout string) {
	dates := make(map[*Post]time.Time, len(posts))
	for _, p := range posts {
		d, _ := p.Date(layout)
		dates[p] = d
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return dates[posts[i]].After(dates[posts[j]])
	})
}

func matchesAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// loadGitignore reads the patterns of a .gitignore at the root of fsys.
func loadGitignore(fsys fs.FS) gitignore.Matcher {
	data, err := fs.ReadFile(fsys, ".gitignore")
	if err != nil {
		return nil
	}

	var patterns []gitignore.Pattern
	for _, p := range strings.Split(string(data), "\n") {
		if p = strings.TrimSpace(p); p != "" && !strings.HasPrefix(p, "#") {
			patterns = append(patterns, gitignore.ParsePattern(p, nil))
		}
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}
