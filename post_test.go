package litpost

import (
	"context"
	"testing"

	"github.com/jwtly10/litpost/kernel"
	"github.com/jwtly10/litpost/kernel/shell"
	"github.com/liamg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPost(t *testing.T) {
	fsys := memoryfs.New()
	require.NoError(t, fsys.WriteFile("hello.md", []byte("---\ntitle: Hello\nslug: greetings\n---\nHi\n"), 0o644))
	require.NoError(t, fsys.WriteFile("plain.markdown", []byte("Hi\n"), 0o644))
	require.NoError(t, fsys.WriteFile("nb.ipynb", []byte(`{"cells": [{"cell_type": "raw", "source": "---\ntitle: Notebook\n---\n"}]}`), 0o644))
	require.NoError(t, fsys.WriteFile("notes.txt", []byte("Hi\n"), 0o644))

	tests := []struct {
		name      string
		path      string
		wantSlug  string
		wantTitle string
		format    Format
		wantErr   error
	}{
		{name: "slug from frontmatter", path: "hello.md", wantSlug: "greetings", wantTitle: "Hello", format: FormatMarkdown},
		{name: "slug from file name", path: "plain.markdown", wantSlug: "plain", wantTitle: "Untitled", format: FormatMarkdown},
		{name: "notebook", path: "nb.ipynb", wantSlug: "nb", wantTitle: "Notebook", format: FormatNotebook},
		{name: "unsupported", path: "notes.txt", wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := LoadPost(fsys, tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, post.Slug)
			assert.Equal(t, tt.wantTitle, post.Title())
			assert.Equal(t, tt.format, post.Format)
		})
	}

	_, err := LoadPost(fsys, "missing.md")
	assert.Error(t, err)
}

func TestPostRender(t *testing.T) {
	fsys := memoryfs.New()
	require.NoError(t, fsys.WriteFile("hello.md", []byte("---\ntitle: Hello\n---\n```sh:run:hide-in\n\"$((6 * 7))\"\n```\n"), 0o644))
	require.NoError(t, fsys.WriteFile("nb.ipynb", []byte(`{"cells": [{"cell_type": "code", "source": "#|sh:run:hide-in\n\"$((6 * 7))\""}]}`), 0o644))

	r := NewRenderer(shell.New(kernel.Options{}), Options{HideLiveLabel: true})
	want := outputSpacer + "42" + blockSpacer

	for _, p := range []string{"hello.md", "nb.ipynb"} {
		t.Run(p, func(t *testing.T) {
			post, err := LoadPost(fsys, p)
			require.NoError(t, err)

			got, err := post.Render(context.Background(), r)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		post := NewPost(fsys, "notes.txt", Metadata{}, "")
		_, err := post.Render(context.Background(), r)
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}
