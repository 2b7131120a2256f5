package litpost

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parser splits post sources into documents for one kernel language.
type Parser struct {
	gm goldmark.Markdown
	// directive sentinel, e.g. python
	language string
	// line comment prefix introducing notebook cell directives
	comment string
}

func NewParser(language, comment string) *Parser {
	return &Parser{
		gm:       goldmark.New(),
		language: language,
		comment:  comment,
	}
}

// ParseMarkdownDoc parses a markdown post.
//
// The leading frontmatter block is removed and decoded. Every top level
// fenced code block becomes its own segment; the fence's info string is the
// directive. Fences whose directive does not start with the language
// sentinel become literal segments holding the fence exactly as written.
// Tilde fences are left in the prose whatever their info string.
// Fences nested in lists or quotes stay part of the surrounding prose.
func (p *Parser) ParseMarkdownDoc(r io.Reader) (*Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	meta, body := ExtractFrontmatter(content)
	doc := &Document{
		Format:   FormatMarkdown,
		Metadata: meta,
	}
	lineOffset := bytes.Count(content[:bodyOffset(content, body)], []byte("\n"))

	root := p.gm.Parser().Parse(text.NewReader(body))

	prev := 0
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		cb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			continue
		}

		start, end, ok := fenceBounds(cb, body)
		if !ok {
			slog.Debug("could not locate empty fence, leaving it in prose")
			continue
		}
		if bytes.HasPrefix(bytes.TrimLeft(body[start:end], " \t"), []byte("~")) {
			// only backtick fences carry directives
			continue
		}

		p.appendProse(doc, body[prev:start], lineOffset+getLineNumber(body, prev))
		prev = end

		seg := Segment{
			Line: lineOffset + getLineNumber(body, start),
		}
		if cb.Info != nil {
			raw := string(cb.Info.Segment.Value(body))
			seg.Directive = strings.TrimSpace(raw)
			seg.Column = cb.Info.Segment.Start - start + len(raw) - len(strings.TrimLeft(raw, " \t"))
		}

		if p.isLanguage(seg.Directive) {
			seg.Kind = SegmentCode
			seg.Text = codeBlockText(cb, body)
		} else {
			seg.Kind = SegmentLiteral
			seg.Text = string(body[start:end])
		}

		slog.Debug("parsed fenced block", "kind", seg.Kind, "directive", seg.Directive, "line", seg.Line)
		doc.Segments = append(doc.Segments, seg)
	}
	p.appendProse(doc, body[prev:], lineOffset+getLineNumber(body, prev))

	return doc, nil
}

func (p *Parser) appendProse(doc *Document, prose []byte, line int) {
	if len(bytes.TrimSpace(prose)) == 0 {
		return
	}
	doc.Segments = append(doc.Segments, Segment{
		Kind: SegmentProse,
		Text: string(prose),
		Line: line,
	})
}

// isLanguage reports whether the first directive token is the sentinel.
func (p *Parser) isLanguage(directive string) bool {
	first, _, _ := strings.Cut(directive, ":")
	return first == p.language
}

func codeBlockText(cb *ast.FencedCodeBlock, content []byte) string {
	var buf bytes.Buffer
	l := cb.Lines().Len()
	for i := 0; i < l; i++ {
		line := cb.Lines().At(i)
		buf.Write(line.Value(content))
	}
	return buf.String()
}

// fenceBounds finds the byte range of a fenced block including its opening
// and closing fence lines. An unclosed fence runs to the end of content.
func fenceBounds(cb *ast.FencedCodeBlock, content []byte) (start, end int, ok bool) {
	lines := cb.Lines()

	// the opening fence is the line holding the info string, or the line
	// before the first line of code
	var openEnd int
	switch {
	case cb.Info != nil:
		start = lineStart(content, cb.Info.Segment.Start)
		openEnd = lineEnd(content, cb.Info.Segment.Start)
	case lines.Len() > 0:
		first := lineStart(content, lines.At(0).Start)
		if first == 0 {
			return 0, 0, false
		}
		start = lineStart(content, first-1)
		openEnd = first
	default:
		return 0, 0, false
	}

	after := openEnd
	if lines.Len() > 0 {
		after = lineEnd(content, lines.At(lines.Len()-1).Stop-1)
	}
	if after >= len(content) {
		return start, len(content), true
	}
	return start, lineEnd(content, after), true
}

// lineStart returns the offset of the start of the line containing pos.
func lineStart(content []byte, pos int) int {
	if pos > len(content) {
		pos = len(content)
	}
	return bytes.LastIndexByte(content[:pos], '\n') + 1
}

// lineEnd returns the offset just past the newline ending the line containing pos.
func lineEnd(content []byte, pos int) int {
	if pos < 0 {
		pos = 0
	}
	if pos >= len(content) {
		return len(content)
	}
	if i := bytes.IndexByte(content[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(content)
}

func getLineNumber(content []byte, byteOffset int) int {
	if byteOffset > len(content) {
		byteOffset = len(content)
	}
	return bytes.Count(content[:byteOffset], []byte("\n")) + 1
}

func (d *Document) String() string {
	return fmt.Sprintf("%s document with %d segments", d.Format, len(d.Segments))
}
