package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCopyWhenUnlocked(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.png")
	dst := filepath.Join(dir, "library", "sub", "out.png")
	if err := os.WriteFile(src, []byte("image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyWhenUnlocked(context.Background(), src, dst); err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if string(data) != "image bytes" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestCopyWhenUnlockedMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyWhenUnlocked(context.Background(), filepath.Join(dir, "gone.png"), filepath.Join(dir, "out.png"))
	if err == nil {
		t.Fatal("expected an error for a missing source file")
	}
}

func TestCopyWhenUnlockedCancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.png")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := CopyWhenUnlocked(ctx, src, filepath.Join(dir, "dst.png"))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation should return promptly")
	}
}
