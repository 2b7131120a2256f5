package litpost

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generatedHTML(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, NewWriter(ModeFragment).WriteHeader(&buf, WriterMetadata{Version: Version, AbsSource: "/posts/hello.md"}))
	buf.WriteString(body)
	return buf.Bytes()
}

func TestCreateBackupOf(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		existing   []byte
		wantBackup string
	}{
		{
			name: "missing output",
		},
		{
			name:       "hand written output",
			existing:   []byte("<p>hand written</p>"),
			wantBackup: "hello.html.20240301_093000.bak",
		},
		{
			name:     "generated output",
			existing: generatedHTML(t, "<p>rendered</p>"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "hello.html")
			if tt.existing != nil {
				require.NoError(t, os.WriteFile(path, tt.existing, 0644))
			}

			bm := &BackupManager{now: func() time.Time { return stamp }}
			got, err := bm.CreateBackupOf(path)
			require.NoError(t, err)

			if tt.wantBackup == "" {
				assert.Empty(t, got)
				entries, err := os.ReadDir(dir)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(entries), 1, "no backup file is written")
				return
			}

			assert.Equal(t, filepath.Join(dir, tt.wantBackup), got)
			backup, err := os.ReadFile(got)
			require.NoError(t, err)
			assert.Equal(t, tt.existing, backup)
		})
	}
}

func TestCreateBackupOfReadOnlyDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "hello.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>mine</p>"), 0644))
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	_, err := NewBackupManager().CreateBackupOf(path)
	assert.ErrorContains(t, err, "creating backup")
}
