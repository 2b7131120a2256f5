package litpost

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultMarkdownExtensions are enabled when no extensions are configured.
var DefaultMarkdownExtensions = []string{"gfm", "footnote"}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":            extension.GFM,
	"table":          extension.Table,
	"tables":         extension.Table,
	"strikethrough":  extension.Strikethrough,
	"linkify":        extension.Linkify,
	"autolink":       extension.Linkify,
	"tasklist":       extension.TaskList,
	"definition":     extension.DefinitionList,
	"footnote":       extension.Footnote,
	"typographer":    extension.Typographer,
	"cjk":            extension.CJK,
	"definitionlist": extension.DefinitionList,
}

// KnownMarkdownExtension reports whether name is a supported extension.
func KnownMarkdownExtension(name string) bool {
	_, ok := extensionRegistry[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// newMarkdown builds the goldmark engine prose is rendered with. Raw HTML
// in prose is passed through.
func newMarkdown(names []string) goldmark.Markdown {
	if len(names) == 0 {
		names = DefaultMarkdownExtensions
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		extenders = append(extenders, ext)
	}

	return goldmark.New(
		goldmark.WithExtensions(extenders...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}
