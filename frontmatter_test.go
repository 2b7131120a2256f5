package litpost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantMeta Metadata
		wantBody string
	}{
		{
			name:     "full",
			content:  "---\ntitle: Hello\ndate: March 5, 2024\ntags: [go, blog]\ncategories: notes\nslug: hello-world\ndraft: true\n---\nBody\n",
			wantMeta: Metadata{Title: "Hello", Date: "March 5, 2024", Tags: StringList{"go", "blog"}, Categories: StringList{"notes"}, Slug: "hello-world", Draft: true},
			wantBody: "Body\n",
		},
		{
			name:     "extra keys",
			content:  "---\ntitle: Hello\nseries: intro\n---\nBody\n",
			wantMeta: Metadata{Title: "Hello", Extra: map[string]any{"series": "intro"}},
			wantBody: "Body\n",
		},
		{
			name:     "no frontmatter",
			content:  "# Just a heading\n",
			wantBody: "# Just a heading\n",
		},
		{
			name:     "malformed yaml",
			content:  "---\ntitle: [unclosed\n---\nBody\n",
			wantBody: "Body\n",
		},
		{
			name:     "empty block",
			content:  "---\n---\nBody\n",
			wantBody: "Body\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body := ExtractFrontmatter([]byte(tt.content))
			assert.Equal(t, tt.wantMeta, meta)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestMetadataGet(t *testing.T) {
	meta, _ := ExtractFrontmatter([]byte("---\ntitle: Hello\ntags: go\nseries: intro\n---\n"))

	v, ok := meta.Get("title")
	assert.True(t, ok)
	assert.Equal(t, "Hello", v)

	v, ok = meta.Get("tags")
	assert.True(t, ok)
	assert.Equal(t, []string{"go"}, v)

	v, ok = meta.Get("series")
	assert.True(t, ok)
	assert.Equal(t, "intro", v)

	_, ok = meta.Get("description")
	assert.False(t, ok)
	_, ok = meta.Get("missing")
	assert.False(t, ok)
}

func TestMetadataParsedDate(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		layout string
		want   time.Time
		wantOK bool
	}{
		{name: "default layout", date: "March 5, 2024", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "iso date", date: "2024-03-05", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "custom layout", date: "05/03/2024", layout: "02/01/2006", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "unparseable", date: "someday"},
		{name: "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Metadata{Date: tt.date}.ParsedDate(tt.layout)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}
