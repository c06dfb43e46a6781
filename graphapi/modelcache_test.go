package graphapi

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModelFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestModelCacheListsAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeModelFiles(t, dir, "b.safetensors", "a.ckpt", "notes.txt")

	cache := NewModelFileCache(map[string][]string{CategoryCheckpoint: {dir}})
	files := cache.Files(CategoryCheckpoint)
	if len(files) != 2 {
		t.Fatalf("expected 2 model files, got %v", files)
	}
	if files[0] != "a.ckpt" || files[1] != "b.safetensors" {
		t.Errorf("expected sorted listing, got %v", files)
	}
}

func TestModelCacheResolveChain(t *testing.T) {
	dir := t.TempDir()
	writeModelFiles(t, dir, "sdxl-base.safetensors", "anime-style.ckpt")
	cache := NewModelFileCache(map[string][]string{CategoryCheckpoint: {dir}})

	// exact
	name, exact := cache.Resolve(CategoryCheckpoint, "sdxl-base.safetensors")
	if !exact || name != "sdxl-base.safetensors" {
		t.Errorf("exact match failed: %s %v", name, exact)
	}

	// case-insensitive substring
	name, exact = cache.Resolve(CategoryCheckpoint, "SDXL-Base")
	if exact || name != "sdxl-base.safetensors" {
		t.Errorf("substring match failed: %s %v", name, exact)
	}

	// first available
	name, exact = cache.Resolve(CategoryCheckpoint, "does-not-exist.safetensors")
	if exact || name != "anime-style.ckpt" {
		t.Errorf("first-available fallback failed: %s %v", name, exact)
	}
}

func TestModelCacheEmptyCategory(t *testing.T) {
	cache := NewModelFileCache(map[string][]string{})
	name, exact := cache.Resolve(CategoryLora, "whatever.safetensors")
	if exact || name != "whatever.safetensors" {
		t.Errorf("empty category should pass the request through, got %s", name)
	}
}

func TestModelCacheMemoizesUntilClear(t *testing.T) {
	dir := t.TempDir()
	writeModelFiles(t, dir, "first.safetensors")
	cache := NewModelFileCache(map[string][]string{CategoryLora: {dir}})

	if got := len(cache.Files(CategoryLora)); got != 1 {
		t.Fatalf("expected 1 file, got %d", got)
	}

	// a file added mid-session is invisible until an explicit clear
	writeModelFiles(t, dir, "second.safetensors")
	if got := len(cache.Files(CategoryLora)); got != 1 {
		t.Errorf("cache must not silently rescan, got %d files", got)
	}

	cache.Clear()
	if got := len(cache.Files(CategoryLora)); got != 2 {
		t.Errorf("expected rescan after Clear, got %d files", got)
	}
}

func TestModelCacheMissingDirectory(t *testing.T) {
	cache := NewModelFileCache(map[string][]string{CategoryVAE: {"/no/such/dir"}})
	if got := cache.Files(CategoryVAE); len(got) != 0 {
		t.Errorf("missing directory should contribute no files, got %v", got)
	}
}
