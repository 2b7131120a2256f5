package litpost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
)

// ErrUnsupportedFormat is returned when rendering a post whose extension is
// neither markdown nor a notebook.
var ErrUnsupportedFormat = errors.New("unsupported post format")

// Post is a post source discovered on disk. Its metadata is read once, when
// the post is loaded; the body is only read when rendering.
type Post struct {
	// Path of the source within its file system, slash separated
	Path     string
	Slug     string
	Format   Format
	Metadata Metadata

	fsys fs.FS
}

// FormatOf returns the format for a source path's extension.
func FormatOf(p string) (Format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".ipynb":
		return FormatNotebook, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path.Ext(p))
	}
}

// NewPost creates a post from already known metadata. The slug defaults to
// the file name without its extension.
func NewPost(fsys fs.FS, p string, meta Metadata, slugValue string) *Post {
	format, _ := FormatOf(p)
	if slugValue == "" {
		slugValue = strings.TrimSuffix(path.Base(p), path.Ext(p))
	}
	return &Post{
		Path:     p,
		Slug:     slugValue,
		Format:   format,
		Metadata: meta,
		fsys:     fsys,
	}
}

// LoadPost reads the metadata of the post at p. A slug set in the
// frontmatter replaces the file name based one once normalised.
func LoadPost(fsys fs.FS, p string) (*Post, error) {
	format, err := FormatOf(p)
	if err != nil {
		return nil, err
	}

	content, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("reading post: %w", err)
	}

	var meta Metadata
	switch format {
	case FormatMarkdown:
		meta, _ = ExtractFrontmatter(content)
	case FormatNotebook:
		// language does not matter for metadata
		doc, err := NewParser("", "#").ParseNotebookDoc(bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		meta = doc.Metadata
	}

	var slugValue string
	if meta.Slug != "" {
		normalized, err := slug.Normalize(meta.Slug)
		if err != nil {
			return nil, fmt.Errorf("invalid slug %q: %w", meta.Slug, err)
		}
		if normalized == "" {
			return nil, fmt.Errorf("invalid slug %q", meta.Slug)
		}
		slugValue = normalized
	}

	return NewPost(fsys, p, meta, slugValue), nil
}

// Source reads the raw post source.
func (p *Post) Source() ([]byte, error) {
	if p.fsys == nil {
		return nil, fmt.Errorf("post %s has no file system", p.Path)
	}
	return fs.ReadFile(p.fsys, p.Path)
}

// Render renders the post body with r, running its code blocks in a fresh namespace.
func (p *Post) Render(ctx context.Context, r *Renderer) (string, error) {
	if p.Format == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path.Ext(p.Path))
	}

	source, err := p.Source()
	if err != nil {
		return "", fmt.Errorf("reading post: %w", err)
	}

	switch p.Format {
	case FormatMarkdown:
		return r.RenderMarkdown(ctx, source)
	case FormatNotebook:
		return r.RenderNotebook(ctx, source)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.Format)
	}
}

// Title returns the frontmatter title or "Untitled".
func (p *Post) Title() string {
	if p.Metadata.Title == "" {
		return "Untitled"
	}
	return p.Metadata.Title
}

// Date parses the post date, see Metadata.ParsedDate.
func (p *Post) Date(layout string) (time.Time, bool) {
	return p.Metadata.ParsedDate(layout)
}

func (p *Post) String() string {
	return fmt.Sprintf("Post(slug=%q, title=%q, path=%q)", p.Slug, p.Title(), p.Path)
}
