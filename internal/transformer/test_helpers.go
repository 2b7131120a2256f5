package transformer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jwtly10/litpost"
	"github.com/stretchr/testify/require"
)

// blog is a scratch posts directory seeded from a testdata fixture.
type blog struct {
	root string
	t    *testing.T
}

// newBlog copies the posts of testdata/<fixture> into a temp dir. The
// expected render is left behind.
func newBlog(t *testing.T, fixture string) *blog {
	t.Helper()

	b := &blog{root: t.TempDir(), t: t}

	srcDir := filepath.Join("testdata", fixture)
	entries, err := os.ReadDir(srcDir)
	require.NoError(t, err)
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == "expected.html" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(srcDir, entry.Name()))
		require.NoError(t, err)
		b.write(entry.Name(), string(content))
	}

	return b
}

func (b *blog) path(name string) string {
	return filepath.Join(b.root, name)
}

func (b *blog) write(name, content string) string {
	b.t.Helper()

	path := b.path(name)
	require.NoError(b.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(b.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (b *blog) read(name string) string {
	b.t.Helper()

	content, err := os.ReadFile(b.path(name))
	require.NoError(b.t, err)
	return string(content)
}

// source loads a post of the blog the way the processor does.
func (b *blog) source(name string) PostSource {
	b.t.Helper()

	post, err := litpost.LoadPost(os.DirFS(b.root), name)
	require.NoError(b.t, err)
	return PostSource{Post: post, AbsSource: b.path(name)}
}
