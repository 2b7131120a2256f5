package litpost

import (
	"path/filepath"
	"testing"
)

func TestResolveOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		srcPath string
		outDir  string
		slug    string
		want    string
		wantErr bool
	}{
		{
			name:    "next_to_source",
			srcPath: "posts/hello.md",
			slug:    "hello",
			want:    "posts/hello.html",
		},
		{
			name:    "notebook_next_to_source",
			srcPath: "/home/user/blog/posts/intro.ipynb",
			slug:    "intro",
			want:    "/home/user/blog/posts/intro.html",
		},
		{
			name:    "output_dir_uses_slug",
			srcPath: "posts/2024/hello.md",
			outDir:  "public",
			slug:    "hello-world",
			want:    "public/hello-world.html",
		},
		{
			name:    "slug_with_separator",
			srcPath: "posts/hello.md",
			outDir:  "public",
			slug:    "../escape",
			wantErr: true,
		},
		{
			name:    "empty_slug",
			srcPath: "posts/hello.md",
			outDir:  "public",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOutputPath(tt.srcPath, tt.outDir, tt.slug)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResolveOutputPath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			// Use filepath.Clean to normalize paths for comparison
			if !tt.wantErr && filepath.Clean(got) != filepath.Clean(tt.want) {
				t.Errorf("ResolveOutputPath() = %v, want %v", got, tt.want)
			}
		})
	}
}
