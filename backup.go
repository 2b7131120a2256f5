package litpost

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// BackupManager keeps copies of output files before they are overwritten.
//
// Files that litpost generated itself are replaced without a backup, so only
// hand written files at an output path are preserved.
type BackupManager struct {
	now func() time.Time
}

func NewBackupManager() *BackupManager {
	return &BackupManager{now: time.Now}
}

// CreateBackupOf creates a backup of path if it exists and was not generated
//
// Returns the path to the backup file, or an empty string if no backup was created
func (bm *BackupManager) CreateBackupOf(path string) (backupPath string, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("checking file existence: %w", err)
	}
	generated := IsGenerated(f)
	f.Close()

	if generated {
		slog.Debug("output was generated, overwriting without backup", "output", path)
		return "", nil
	}

	backupPath = fmt.Sprintf("%s.%s.bak", path, bm.now().Format("20060102_150405"))

	if err := bm.copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}

	slog.Info("output file already existed. Created a backup.", "backup", backupPath, "output", path)
	return backupPath, nil
}

func (bm *BackupManager) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}

	return nil
}
