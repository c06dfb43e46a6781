package graphapi

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Model file categories understood by the cache. These mirror the folder
// names the backend serves model listings under.
const (
	CategoryLora       = "loras"
	CategoryCheckpoint = "checkpoints"
	CategoryVAE        = "vae"
	CategoryControlNet = "controlnet"
	CategoryCLIP       = "clip"
	CategoryEmbedding  = "embeddings"
)

var modelExtensions = map[string]bool{
	".safetensors": true,
	".ckpt":        true,
	".pt":          true,
	".pth":         true,
	".bin":         true,
	".sft":         true,
	".gguf":        true,
}

// ModelFileCache is a per-category listing of model files available on disk.
// Each category is scanned once per session and memoized; the cache is only
// invalidated by an explicit Clear, never by a staleness check. A model file
// added to disk mid-session will not appear until the cache is cleared - a
// documented limitation.
type ModelFileCache struct {
	dirs map[string][]string

	mu    sync.Mutex
	files map[string][]string
}

// NewModelFileCache builds a cache over the given category -> directories
// mapping. Directories that do not exist are tolerated and simply contribute
// no files.
func NewModelFileCache(dirs map[string][]string) *ModelFileCache {
	return &ModelFileCache{
		dirs:  dirs,
		files: make(map[string][]string),
	}
}

// Files returns the sorted file names available for a category, scanning the
// configured directories on first use.
func (c *ModelFileCache) Files(category string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.files[category]; ok {
		return cached
	}

	found := make([]string, 0)
	for _, dir := range c.dirs[category] {
		entries, err := os.ReadDir(dir)
		if err != nil {
			slog.Debug("model directory not readable", "category", category, "dir", dir, "error", err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if modelExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				found = append(found, e.Name())
			}
		}
	}
	sort.Strings(found)
	c.files[category] = found
	return found
}

// Resolve maps a requested model file name onto one that actually exists.
// The fallback chain: exact match, then case-insensitive substring match,
// then the first available file of the category. The second return reports
// whether the exact name was found; a substitution is logged either way.
func (c *ModelFileCache) Resolve(category, requested string) (string, bool) {
	available := c.Files(category)
	if len(available) == 0 {
		return requested, false
	}

	for _, f := range available {
		if f == requested {
			return f, true
		}
	}

	lreq := strings.ToLower(requested)
	if lreq != "" {
		for _, f := range available {
			if strings.Contains(strings.ToLower(f), lreq) || strings.Contains(lreq, strings.ToLower(f)) {
				slog.Warn("model file not found, substituting near match",
					"category", category, "requested", requested, "using", f)
				return f, false
			}
		}
	}

	slog.Warn("model file not found, substituting first available",
		"category", category, "requested", requested, "using", available[0])
	return available[0], false
}

// Clear drops every memoized listing so the next lookup rescans the disk.
func (c *ModelFileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = make(map[string][]string)
}
