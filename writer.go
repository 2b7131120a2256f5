package litpost

import (
	"bufio"
	"fmt"
	"html/template"
	"io"
	"strings"
)

const Version = "v0.1.0"

// generatedMarker starts the header of every file litpost writes.
const generatedMarker = "<!-- Generated by litpost"

type WriteMode int

const (
	// ModeFragment writes the rendered body only.
	ModeFragment WriteMode = iota
	// ModePage wraps the body in a minimal standalone HTML page.
	ModePage
)

func (m WriteMode) String() string {
	switch m {
	case ModeFragment:
		return "fragment"
	case ModePage:
		return "page"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

// ParseWriteMode parses "fragment" or "page".
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(s) {
	case "", "fragment":
		return ModeFragment, nil
	case "page":
		return ModePage, nil
	}
	return 0, fmt.Errorf("unknown write mode %q", s)
}

type WriterMetadata struct {
	Version   string
	AbsSource string
	Generated string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- with .Description}}
<meta name="description" content="{{.}}">
{{- end}}
{{- with .Author}}
<meta name="author" content="{{.}}">
{{- end}}
</head>
<body>
<article>
<header>
<h1>{{.Title}}</h1>
{{- with .Date}}
<time>{{.}}</time>
{{- end}}
</header>
{{.Body}}
</article>
</body>
</html>
`))

// Writer writes rendered posts to files.
type Writer struct {
	mode WriteMode
}

func NewWriter(mode WriteMode) *Writer {
	return &Writer{mode: mode}
}

// WriteHeader writes the comment that marks a file as generated.
func (w *Writer) WriteHeader(out io.Writer, md WriterMetadata) error {
	_, err := fmt.Fprintf(out, "%s %s. DO NOT EDIT.\n  source: %s\n  generated: %s\n-->\n",
		generatedMarker, md.Version, md.AbsSource, md.Generated)
	return err
}

// WriteContent writes the rendered body of post.
func (w *Writer) WriteContent(out io.Writer, post *Post, body string) error {
	if w.mode == ModeFragment {
		_, err := io.WriteString(out, body)
		return err
	}

	return pageTemplate.Execute(out, struct {
		Title       string
		Description string
		Author      string
		Date        string
		Body        template.HTML
	}{
		Title:       post.Title(),
		Description: post.Metadata.Description,
		Author:      post.Metadata.Author,
		Date:        post.Metadata.Date,
		Body:        template.HTML(body),
	})
}

// IsGenerated reports whether r starts with a litpost header.
func IsGenerated(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.HasPrefix(line, generatedMarker)
}
