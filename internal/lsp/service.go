package lsp

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jwtly10/litpost"
	"github.com/jwtly10/litpost/internal/transformer"
	"github.com/liamg/memoryfs"
	"github.com/sourcegraph/go-lsp"
)

// diagnosticSource is shown by editors next to every diagnostic we publish.
const diagnosticSource = "litpost"

type DocumentServiceOptions struct {
	// Renderer parses open documents and renders saved ones
	Renderer *litpost.Renderer
	// Layout the frontmatter date is checked against, defaults to litpost.DefaultDateLayout
	DateLayout string

	// RenderOnSave writes the rendered post whenever a document is saved
	RenderOnSave         bool
	FinalTransformerOpts transformer.TransformOptions
}

func (o DocumentServiceOptions) Validate() error {
	if o.Renderer == nil {
		return fmt.Errorf("renderer is required")
	}

	return nil
}

// DocumentService keeps the text of the documents open in the editor and
// answers questions about their directives.
type DocumentService struct {
	mu   sync.RWMutex
	docs map[lsp.DocumentURI]string

	parser     *litpost.Parser
	language   string
	dateLayout string

	renderOnSave bool
	// The transformer used for 'final' rendering on save
	finalTransformer *transformer.Transformer
}

func NewDocumentService(opts DocumentServiceOptions) (*DocumentService, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document service options: %w", err)
	}

	if opts.DateLayout == "" {
		opts.DateLayout = litpost.DefaultDateLayout
	}

	return &DocumentService{
		docs:             make(map[lsp.DocumentURI]string),
		parser:           opts.Renderer.Parser(),
		language:         opts.Renderer.Language(),
		dateLayout:       opts.DateLayout,
		renderOnSave:     opts.RenderOnSave,
		finalTransformer: transformer.NewTransformer(opts.Renderer, opts.FinalTransformerOpts),
	}, nil
}

// Open stores the text of a document, replacing what was known about it.
func (s *DocumentService) Open(uri lsp.DocumentURI, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

func (s *DocumentService) Close(uri lsp.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Text returns the last known text of an open document.
func (s *DocumentService) Text(uri lsp.DocumentURI) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[uri]
	return text, ok
}

// RenderOnSave reports whether saved documents should be rendered.
func (s *DocumentService) RenderOnSave() bool {
	return s.renderOnSave
}

// Diagnostics checks the directives and frontmatter of an open markdown
// document. Notebooks and unknown formats yield no diagnostics, their
// positions cannot be mapped back onto the JSON source.
func (s *DocumentService) Diagnostics(uri lsp.DocumentURI) ([]lsp.Diagnostic, error) {
	text, ok := s.Text(uri)
	if !ok {
		return nil, fmt.Errorf("document not open: %s", uri)
	}
	if format, err := litpost.FormatOf(string(uri)); err != nil || format != litpost.FormatMarkdown {
		return []lsp.Diagnostic{}, nil
	}

	doc, err := s.parser.ParseMarkdownDoc(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	diagnostics := []lsp.Diagnostic{}
	for _, seg := range doc.Segments {
		if seg.Kind == litpost.SegmentProse || seg.Directive == "" {
			continue
		}
		for _, p := range litpost.CheckDirective(s.language, seg.Directive) {
			diagnostics = append(diagnostics, lsp.Diagnostic{
				Range: lsp.Range{
					Start: lsp.Position{Line: seg.Line - 1, Character: seg.Column + p.Start},
					End:   lsp.Position{Line: seg.Line - 1, Character: seg.Column + p.End},
				},
				Severity: severity(p.Severity),
				Source:   diagnosticSource,
				Message:  p.Message,
			})
		}
	}

	if d, ok := s.checkDate(doc.Metadata, text); ok {
		diagnostics = append(diagnostics, d)
	}

	slog.Debug("computed diagnostics", "uri", uri, "count", len(diagnostics))
	return diagnostics, nil
}

// checkDate warns about a frontmatter date that no known layout parses.
// Such posts are listed and sorted as undated.
func (s *DocumentService) checkDate(meta litpost.Metadata, text string) (lsp.Diagnostic, bool) {
	if meta.Date == "" {
		return lsp.Diagnostic{}, false
	}
	if _, ok := meta.ParsedDate(s.dateLayout); ok {
		return lsp.Diagnostic{}, false
	}

	line := frontmatterLine(text, "date")
	return lsp.Diagnostic{
		Range: lsp.Range{
			Start: lsp.Position{Line: line, Character: 0},
			End:   lsp.Position{Line: line, Character: len("date")},
		},
		Severity: lsp.Warning,
		Source:   diagnosticSource,
		Message:  fmt.Sprintf("date %q does not match %q, the post is treated as undated", meta.Date, s.dateLayout),
	}, true
}

// frontmatterLine returns the 0-based line of a top level key in the
// leading frontmatter block, or 0 when it cannot be found.
func frontmatterLine(text, key string) int {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for i := 0; scanner.Scan(); i++ {
		line := scanner.Text()
		if i == 0 {
			if strings.TrimSpace(line) != "---" {
				return 0
			}
			continue
		}
		if strings.TrimSpace(line) == "---" {
			return 0
		}
		if strings.HasPrefix(line, key+":") {
			return i
		}
	}
	return 0
}

func severity(s litpost.Severity) lsp.DiagnosticSeverity {
	switch s {
	case litpost.SeverityError:
		return lsp.Error
	case litpost.SeverityWarning:
		return lsp.Warning
	default:
		return lsp.Hint
	}
}

// Hover describes the directive under pos, if any.
func (s *DocumentService) Hover(uri lsp.DocumentURI, pos lsp.Position) (*lsp.Hover, error) {
	text, ok := s.Text(uri)
	if !ok {
		return nil, fmt.Errorf("document not open: %s", uri)
	}
	if format, err := litpost.FormatOf(string(uri)); err != nil || format != litpost.FormatMarkdown {
		return nil, nil
	}

	doc, err := s.parser.ParseMarkdownDoc(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	for _, seg := range doc.Segments {
		if seg.Kind == litpost.SegmentProse || seg.Directive == "" {
			continue
		}
		if seg.Line-1 != pos.Line || pos.Character < seg.Column || pos.Character > seg.Column+len(seg.Directive) {
			continue
		}

		return &lsp.Hover{
			Contents: []lsp.MarkedString{lsp.RawMarkedString(s.describe(seg))},
			Range: &lsp.Range{
				Start: lsp.Position{Line: pos.Line, Character: seg.Column},
				End:   lsp.Position{Line: pos.Line, Character: seg.Column + len(seg.Directive)},
			},
		}, nil
	}

	return nil, nil
}

// describe explains in markdown what the renderer does with a block.
func (s *DocumentService) describe(seg litpost.Segment) string {
	if seg.Kind == litpost.SegmentLiteral {
		return fmt.Sprintf("**%s** block, shown as written and never run", seg.Directive)
	}

	tag := litpost.ParseTag(s.language, seg.Directive)
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** block `%s`\n\n", s.language, tag.Directive(s.language))
	fmt.Fprintf(&b, "- runs: %s\n", yesNo(tag.Run))
	fmt.Fprintf(&b, "- code: %s\n", shownHidden(!tag.HideInput))
	if tag.Run {
		fmt.Fprintf(&b, "- output: %s\n", shownHidden(!tag.HideOutput))
	}
	if tag.HideCall {
		b.WriteString("- trailing call line dropped from the code\n")
	}
	return b.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func shownHidden(b bool) string {
	if b {
		return "shown"
	}
	return "hidden"
}

// TransformFinalDoc renders a document for final output, returning the
// absolute path of the output file.
func (s *DocumentService) TransformFinalDoc(ctx context.Context, text string, sourcePath string) (string, error) {
	mfs := memoryfs.New()
	name := filepath.Base(sourcePath)
	if err := mfs.WriteFile(name, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("buffering document: %w", err)
	}

	post, err := litpost.LoadPost(mfs, name)
	if err != nil {
		return "", err
	}

	transformedPath, err := s.finalTransformer.Transform(ctx, transformer.PostSource{
		Post:      post,
		AbsSource: sourcePath,
	})
	if err != nil {
		return "", fmt.Errorf("transform error: %w", err)
	}

	return transformedPath, nil
}

// URIToPath converts an LSP URI to a filesystem path
func (s *DocumentService) URIToPath(uri lsp.DocumentURI) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	return u.Path, nil
}

// PathToURI converts a filesystem path to an LSP URI
func (s *DocumentService) PathToURI(path string) lsp.DocumentURI {
	return lsp.DocumentURI("file://" + path)
}
