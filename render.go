package litpost

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwtly10/litpost/kernel"
	"github.com/yuin/goldmark"
)

const (
	outputSpacer = `<div class="mb-4"></div>`
	blockSpacer  = `<div class="mb-8"></div>`
	liveLabel    = `<div class="text-gray-400 text-sm mt-2 italic">↑ Live rendered output</div>`
)

type Options struct {
	// OpenLinksInNewTab rewrites external links to open in a new tab.
	OpenLinksInNewTab bool
	// HideLiveLabel drops the caption under block output.
	HideLiveLabel bool
	// RenderLiterals renders fences for other languages as markdown code
	// blocks instead of emitting their source.
	RenderLiterals bool
	// Serializer turns block values into markup. Defaults to KernelMarkup.
	Serializer Serializer
	// MarkdownExtensions names the goldmark extensions for prose.
	MarkdownExtensions []string
}

// Renderer turns post sources into HTML, running code blocks with a kernel.
//
// A Renderer may be shared between goroutines. Each document rendered gets
// its own namespace, opened on the first block that runs and closed when the
// document is done.
type Renderer struct {
	kernel kernel.Kernel
	parser *Parser
	md     goldmark.Markdown
	opts   Options
}

func NewRenderer(k kernel.Kernel, opts Options) *Renderer {
	if opts.Serializer == nil {
		opts.Serializer = KernelMarkup
	}
	return &Renderer{
		kernel: k,
		parser: NewParser(k.Language(), k.Syntax().Comment),
		md:     newMarkdown(opts.MarkdownExtensions),
		opts:   opts,
	}
}

// Parser returns the parser the renderer splits sources with.
func (r *Renderer) Parser() *Parser {
	return r.parser
}

// Language is the directive sentinel of the renderer's kernel.
func (r *Renderer) Language() string {
	return r.kernel.Language()
}

// RenderMarkdown renders a markdown source, frontmatter included.
func (r *Renderer) RenderMarkdown(ctx context.Context, source []byte) (string, error) {
	doc, err := r.parser.ParseMarkdownDoc(bytes.NewReader(source))
	if err != nil {
		return "", err
	}
	return r.RenderDocument(ctx, doc)
}

// RenderNotebook renders an ipynb notebook source.
func (r *Renderer) RenderNotebook(ctx context.Context, source []byte) (string, error) {
	doc, err := r.parser.ParseNotebookDoc(bytes.NewReader(source))
	if err != nil {
		return "", err
	}
	return r.RenderDocument(ctx, doc)
}

// RenderDocument renders the segments of doc in order.
func (r *Renderer) RenderDocument(ctx context.Context, doc *Document) (string, error) {
	var out strings.Builder
	var ns kernel.Namespace
	defer func() {
		if ns == nil {
			return
		}
		if err := ns.Close(); err != nil {
			slog.Debug("closing namespace", "error", err)
		}
	}()

	for _, seg := range doc.Segments {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		switch seg.Kind {
		case SegmentProse:
			if err := r.md.Convert([]byte(seg.Text), &out); err != nil {
				return "", fmt.Errorf("rendering markdown at line %d: %w", seg.Line, err)
			}
		case SegmentLiteral:
			if !r.opts.RenderLiterals {
				out.WriteString(seg.Text)
				continue
			}
			if err := r.md.Convert([]byte(seg.Text), &out); err != nil {
				return "", fmt.Errorf("rendering fence at line %d: %w", seg.Line, err)
			}
		case SegmentCode:
			tag := ParseTag(r.kernel.Language(), seg.Directive)
			res := processBlock(ctx, r.kernel, tag, seg.Text, ns, r.opts.Serializer)
			ns = res.Namespace
			r.writeBlock(&out, tag, res)
			slog.Debug("rendered block", "line", seg.Line, "tag", tag.String())
		}
	}

	markup := out.String()
	if r.opts.OpenLinksInNewTab {
		return RewriteLinks(markup)
	}
	return markup, nil
}

func (r *Renderer) writeBlock(out *strings.Builder, tag Tag, res BlockResult) {
	if res.ShowCode {
		out.WriteString(res.CodeHTML)
	}
	if tag.Run && res.ShowOutput && res.OutputHTML != "" {
		out.WriteString(outputSpacer)
		out.WriteString(res.OutputHTML)
		if !r.opts.HideLiveLabel {
			out.WriteString(liveLabel)
		}
	}
	out.WriteString(blockSpacer)
}
