// Package assets moves generated files into the asset library. Output files
// are often still locked by the external tool that produced them, so copying
// waits for the lock to be released rather than failing.
package assets

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockPollInterval = 250 * time.Millisecond

// CopyWhenUnlocked copies src to dst, first waiting until no other process
// holds a lock on src. The wait is cancellable through ctx; callers normally
// run this as a background task so a superseding generation aborts the wait.
func CopyWhenUnlocked(ctx context.Context, src, dst string) error {
	lock := flock.New(src)
	locked, err := lock.TryRLockContext(ctx, lockPollInterval)
	if err != nil {
		return err
	}
	if locked {
		defer lock.Unlock()
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
