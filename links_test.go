package litpost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteLinks(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "external link",
			markup: `<p><a href="https://example.com">x</a></p>`,
			want:   `<p><a href="https://example.com" target="_blank" rel="noopener noreferrer">x</a></p>`,
		},
		{
			name:   "site link untouched",
			markup: `<p><a href="/posts/hello">x</a></p>`,
			want:   `<p><a href="/posts/hello">x</a></p>`,
		},
		{
			name:   "relative link opens in new tab",
			markup: `<a href="other.html">x</a>`,
			want:   `<a href="other.html" target="_blank" rel="noopener noreferrer">x</a>`,
		},
		{
			name:   "anchor without href",
			markup: `<a name="top">x</a>`,
			want:   `<a name="top" target="_blank" rel="noopener noreferrer">x</a>`,
		},
		{
			name:   "existing target replaced",
			markup: `<a href="https://example.com" target="_self">x</a>`,
			want:   `<a href="https://example.com" target="_blank" rel="noopener noreferrer">x</a>`,
		},
		{
			name:   "nested in output",
			markup: `<div class="card"><ul><li><a href="mailto:me@example.com">mail</a></li></ul></div>`,
			want:   `<div class="card"><ul><li><a href="mailto:me@example.com" target="_blank" rel="noopener noreferrer">mail</a></li></ul></div>`,
		},
		{
			name:   "no links",
			markup: "<p>plain</p>\n",
			want:   "<p>plain</p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteLinks(tt.markup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := RewriteLinks(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "rewriting twice changes nothing")
		})
	}
}
