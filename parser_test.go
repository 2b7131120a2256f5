package litpost

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarkdownDoc(t *testing.T) {
	f, err := os.Open("testdata/parser/segments.md")
	require.NoError(t, err)
	defer f.Close()

	doc, err := NewParser("python", "#").ParseMarkdownDoc(f)
	require.NoError(t, err)

	assert.Equal(t, FormatMarkdown, doc.Format)
	assert.Equal(t, Metadata{Title: "Segments", Date: "March 5, 2024"}, doc.Metadata)

	want := []Segment{
		{Kind: SegmentProse, Text: "# Heading\n\nIntro text.\n\n", Line: 5},
		{Kind: SegmentCode, Text: "x = 1\nx + 1\n", Directive: "python:run", Line: 9, Column: 3},
		{Kind: SegmentLiteral, Text: "```go\nfmt.Println(\"hi\")\n```\n", Directive: "go", Line: 14, Column: 3},
		{Kind: SegmentProse, Text: "\n- item\n\n  ```python:run\n  nested = True\n  ```\n\n", Line: 17},
		{Kind: SegmentCode, Text: "y = 2\n", Directive: "python:hide-in", Line: 24, Column: 3},
		{Kind: SegmentProse, Text: "Tail.\n\n", Line: 27},
		{Kind: SegmentCode, Text: "unclosed = 1\n", Directive: "python", Line: 29, Column: 3},
	}
	assert.Equal(t, want, doc.Segments)
	assert.Len(t, doc.Codes(), 3)
}

func TestParseMarkdownDocCases(t *testing.T) {
	tests := []struct {
		name     string
		language string
		content  string
		want     []Segment
	}{
		{
			name:     "prose only",
			language: "python",
			content:  "# Title\n\nJust words.\n",
			want: []Segment{
				{Kind: SegmentProse, Text: "# Title\n\nJust words.\n", Line: 1},
			},
		},
		{
			name:     "empty document",
			language: "python",
			content:  "",
			want:     nil,
		},
		{
			name:     "fence without info string is literal",
			language: "python",
			content:  "```\nplain\n```\n",
			want: []Segment{
				{Kind: SegmentLiteral, Text: "```\nplain\n```\n", Line: 1},
			},
		},
		{
			name:     "sentinel must be the whole first token",
			language: "python",
			content:  "```python3\nprint(1)\n```\n",
			want: []Segment{
				{Kind: SegmentLiteral, Text: "```python3\nprint(1)\n```\n", Directive: "python3", Line: 1, Column: 3},
			},
		},
		{
			name:     "other kernel language",
			language: "sh",
			content:  "Intro\n\n```sh:run\necho hi\n```\n",
			want: []Segment{
				{Kind: SegmentProse, Text: "Intro\n\n", Line: 1},
				{Kind: SegmentCode, Text: "echo hi\n", Directive: "sh:run", Line: 3, Column: 3},
			},
		},
		{
			name:     "tilde fence stays in prose",
			language: "sh",
			content:  "Example:\n\n~~~sh:run\nrm -rf build\n~~~\n```sh:run\necho ok\n```\n",
			want: []Segment{
				{Kind: SegmentProse, Text: "Example:\n\n~~~sh:run\nrm -rf build\n~~~\n", Line: 1},
				{Kind: SegmentCode, Text: "echo ok\n", Directive: "sh:run", Line: 6, Column: 3},
			},
		},
		{
			name:     "indented tilde fence",
			language: "sh",
			content:  "  ~~~sh:run\n  echo no\n  ~~~\n",
			want: []Segment{
				{Kind: SegmentProse, Text: "  ~~~sh:run\n  echo no\n  ~~~\n", Line: 1},
			},
		},
		{
			name:     "adjacent fences",
			language: "python",
			content:  "```python:run\na = 1\n```\n```python:run\na\n```\n",
			want: []Segment{
				{Kind: SegmentCode, Text: "a = 1\n", Directive: "python:run", Line: 1, Column: 3},
				{Kind: SegmentCode, Text: "a\n", Directive: "python:run", Line: 4, Column: 3},
			},
		},
		{
			name:     "frontmatter shifts lines",
			language: "python",
			content:  "---\ntitle: T\n---\n```python\nx\n```\n",
			want: []Segment{
				{Kind: SegmentCode, Text: "x\n", Directive: "python", Line: 4, Column: 3},
			},
		},
		{
			name:     "malformed frontmatter is still removed",
			language: "python",
			content:  "---\ntitle: [unclosed\n---\nBody\n",
			want: []Segment{
				{Kind: SegmentProse, Text: "Body\n", Line: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewParser(tt.language, "#").ParseMarkdownDoc(strings.NewReader(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Segments)
		})
	}
}

func TestParseNotebookDoc(t *testing.T) {
	f, err := os.Open("testdata/parser/post.ipynb")
	require.NoError(t, err)
	defer f.Close()

	doc, err := NewParser("python", "#").ParseNotebookDoc(f)
	require.NoError(t, err)

	assert.Equal(t, FormatNotebook, doc.Format)
	assert.Equal(t, "Notebook Post", doc.Metadata.Title)
	assert.Equal(t, "April 1, 2024", doc.Metadata.Date)
	assert.Equal(t, StringList{"python", "notebooks"}, doc.Metadata.Tags)

	want := []Segment{
		{Kind: SegmentProse, Text: "# Intro\n\nSome *prose*.", Line: 2},
		{Kind: SegmentCode, Text: "x = 21", Directive: "python:run:hide-out", Line: 3},
		{Kind: SegmentCode, Text: "x * 2", Directive: "python:run:hide-in", Line: 4},
		{Kind: SegmentCode, Text: "setup = True", Directive: "python:run:hide", Line: 5},
	}
	assert.Equal(t, want, doc.Segments)
}

func TestParseNotebookDocInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "# just markdown"},
		{name: "bad source", content: `{"cells": [{"cell_type": "code", "source": 42}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser("python", "#").ParseNotebookDoc(strings.NewReader(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestParseNotebookDocWithoutFrontmatter(t *testing.T) {
	content := `{"cells": [{"cell_type": "code", "source": "#|python:run\n1 + 1"}]}`

	doc, err := NewParser("python", "#").ParseNotebookDoc(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, Metadata{}, doc.Metadata)
	assert.Equal(t, []Segment{
		{Kind: SegmentCode, Text: "1 + 1", Directive: "python:run", Line: 1},
	}, doc.Segments)
}
