package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zjrosen/treenode/internal/cachemanager"
	"github.com/zjrosen/treenode/internal/log"
)

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// cacheKey identifies one version of a script file.
type cacheKey string

// Loader loads scripts through a cache keyed by path, modification time and
// size, so an unchanged file is parsed once. A cache hit extends the entry's
// lifetime.
type Loader struct {
	cache *cachemanager.ReadThroughCache[cacheKey, *Script, string]
	ttl   time.Duration

	mu   sync.Mutex
	last map[string]cacheKey
}

// NewLoader creates a loader whose entries live for ttl. A zero ttl disables
// caching.
func NewLoader(ttl time.Duration) *Loader {
	manager := cachemanager.NewInMemoryCacheManager[cacheKey, *Script]("scripts", ttl, 2*ttl+time.Minute)
	return &Loader{
		cache: cachemanager.NewReadThroughCache[cacheKey, *Script, string](
			manager,
			func(_ context.Context, path string) (*Script, error) {
				log.Debug(log.CatScript, "parsing script", "path", path)
				return Load(path)
			},
			ttl <= 0,
		),
		ttl:  ttl,
		last: make(map[string]cacheKey),
	}
}

// Load returns the parsed script at path. Callers must treat the result as
// read-only: it may be shared with other callers.
func (l *Loader) Load(ctx context.Context, path string) (*Script, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving script path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	key := cacheKey(fmt.Sprintf("%s@%d:%d", abs, info.ModTime().UnixNano(), info.Size()))
	l.mu.Lock()
	l.last[abs] = key
	l.mu.Unlock()
	return l.cache.GetWithRefresh(ctx, key, path, l.ttl)
}

// Invalidate drops the most recently loaded version of path, so the next Load
// parses the file again.
func (l *Loader) Invalidate(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving script path: %w", err)
	}
	l.mu.Lock()
	key, ok := l.last[abs]
	delete(l.last, abs)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	log.Debug(log.CatScript, "dropping cached script", "path", abs)
	return l.cache.Invalidate(ctx, key)
}
