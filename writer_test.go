package litpost

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterHeader(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(ModeFragment).WriteHeader(&buf, WriterMetadata{
		Version:   Version,
		AbsSource: "/blog/posts/hello.md",
		Generated: "2024-03-05T10:00:00Z",
	})
	require.NoError(t, err)

	want := "<!-- Generated by litpost " + Version + ". DO NOT EDIT.\n" +
		"  source: /blog/posts/hello.md\n" +
		"  generated: 2024-03-05T10:00:00Z\n" +
		"-->\n"
	assert.Equal(t, want, buf.String())
	assert.True(t, IsGenerated(&buf))
}

func TestIsGenerated(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "header", content: "<!-- Generated by litpost v0.1.0. DO NOT EDIT.\n-->\n<p>x</p>", want: true},
		{name: "hand written", content: "<p>x</p>\n"},
		{name: "marker later in file", content: "<p>x</p>\n<!-- Generated by litpost\n"},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGenerated(strings.NewReader(tt.content)))
		})
	}
}

func TestWriteContent(t *testing.T) {
	post := NewPost(nil, "posts/hello.md", Metadata{Title: "Hello & Bye", Date: "March 5, 2024", Description: "A \"post\""}, "")

	t.Run("fragment", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(ModeFragment).WriteContent(&buf, post, "<p>body</p>"))
		assert.Equal(t, "<p>body</p>", buf.String())
	})

	t.Run("page", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(ModePage).WriteContent(&buf, post, "<p>body</p>"))

		page := buf.String()
		assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
		assert.Contains(t, page, "<title>Hello &amp; Bye</title>")
		assert.Contains(t, page, `<meta name="description" content="A &#34;post&#34;">`)
		assert.Contains(t, page, "<time>March 5, 2024</time>")
		assert.Contains(t, page, "<p>body</p>")
		assert.NotContains(t, page, `name="author"`)
	})
}

func TestParseWriteMode(t *testing.T) {
	tests := []struct {
		in      string
		want    WriteMode
		wantErr bool
	}{
		{in: "", want: ModeFragment},
		{in: "fragment", want: ModeFragment},
		{in: "Page", want: ModePage},
		{in: "book", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWriteMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
