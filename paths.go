package litpost

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputExt is the extension of rendered posts.
const OutputExt = ".html"

// ResolveOutputPath determines where the rendered form of a post is written.
//
// Posts are written flat into outDir by slug. An empty outDir writes next
// to the source, replacing its extension.
func ResolveOutputPath(srcPath, outDir, slug string) (string, error) {
	if outDir == "" {
		return strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + OutputExt, nil
	}
	if slug == "" || strings.ContainsAny(slug, `/\`) || slug == "." || slug == ".." {
		return "", fmt.Errorf("invalid slug %q for output", slug)
	}
	return filepath.Join(outDir, slug+OutputExt), nil
}
