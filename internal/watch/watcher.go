// Package watch invalidates the enhancement cache when files that shape project context
// change on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/wtthornton/LocalMCP/internal/patterns"
	"github.com/wtthornton/LocalMCP/internal/project"
)

// FileCategory says how a change affects cached enhancements.
type FileCategory string

const (
	CategoryManifest FileCategory = "manifest" // package.json, go.mod, ...
	CategoryDocs     FileCategory = "docs"     // project documentation
	CategoryConfig   FileCategory = "config"   // .localmcp.yaml and policies
	CategoryIgnore   FileCategory = "ignore"
)

// Default debounce delays. Manifests wait longer because package managers rewrite them
// several times during one install.
const (
	DefaultDelay  = 500 * time.Millisecond
	ManifestDelay = 2 * time.Second
)

// Change is one filesystem change relative to the watched root.
type Change struct {
	Path      string
	Operation string
	Category  FileCategory
	Timestamp time.Time
}

// DriftMarker is told when the project changed. cache.Invalidator satisfies it.
type DriftMarker interface {
	MarkDrift(reason string)
}

// Config configures a Watcher.
type Config struct {
	Root   string
	Marker DriftMarker
	// Delay overrides DefaultDelay; manifests always wait at least ManifestDelay unless
	// Delay is set.
	Delay time.Duration
	// OnBatch, when set, is called after each batch is handled.
	OnBatch func([]Change)
}

// Watcher marks cache drift for debounced batches of relevant changes.
type Watcher struct {
	root      string
	marker    DriftMarker
	onBatch   func([]Change)
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	hashes    *ContentHashTracker

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	if cfg.Marker == nil {
		return nil, fmt.Errorf("watch: drift marker is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:    root,
		marker:  cfg.Marker,
		onBatch: cfg.OnBatch,
		watcher: fw,
		hashes:  NewContentHashTracker(),
	}
	w.debouncer = NewDebouncer(w.handleBatch)
	if cfg.Delay > 0 {
		w.debouncer.SetDelay(cfg.Delay, cfg.Delay)
	}
	return w, nil
}

// Start watches the root and its subdirectories until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("add watch paths: %w", err)
	}
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.loop(ctx)
	slog.Info("watching project for drift", "root", w.root)
	return nil
}

// Stop ends watching and drops pending changes.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	_ = w.watcher.Close()
	w.debouncer.Stop()
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}

	op := "modify"
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = "create"
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !patterns.ShouldIgnoreDir(info.Name()) {
				_ = w.addRecursive(ev.Name)
			}
			return
		}
	case ev.Op&fsnotify.Remove != 0:
		op = "delete"
		w.hashes.Remove(ev.Name)
	case ev.Op&fsnotify.Rename != 0:
		op = "rename"
		w.hashes.Remove(ev.Name)
	case ev.Op&fsnotify.Chmod != 0:
		return
	}

	category := Categorize(rel)
	if category == CategoryIgnore {
		return
	}
	if op == "modify" && !w.hashes.HasChanged(ev.Name) {
		return
	}

	slog.Debug("project file changed", "path", rel, "op", op, "category", category)
	w.debouncer.Add(Change{Path: rel, Operation: op, Category: category, Timestamp: time.Now()})
}

func (w *Watcher) handleBatch(changes []Change) {
	if len(changes) == 0 {
		return
	}
	w.marker.MarkDrift(Reason(changes))
	if w.onBatch != nil {
		w.onBatch(changes)
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		// .localmcp holds config and policies, which affect enhancements.
		if path != dir && d.Name() != ".localmcp" && patterns.ShouldIgnoreDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Categorize classifies a path relative to the project root.
func Categorize(rel string) FileCategory {
	rel = filepath.ToSlash(rel)
	name := filepath.Base(rel)
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		if dir == ".localmcp" {
			if strings.HasSuffix(name, ".rego") || strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
				return CategoryConfig
			}
			return CategoryIgnore
		}
		if patterns.ShouldIgnoreDir(dir) {
			return CategoryIgnore
		}
	}

	switch {
	case project.IsManifestFile(name):
		return CategoryManifest
	case name == ".localmcp.yaml":
		return CategoryConfig
	case strings.HasPrefix(name, "."):
		return CategoryIgnore
	case patterns.IsDocFile(rel):
		return CategoryDocs
	}
	return CategoryIgnore
}

// Reason summarizes a batch for the invalidation log, e.g. "manifest changed: go.mod, package.json".
func Reason(changes []Change) string {
	byCategory := map[FileCategory][]string{}
	for _, c := range changes {
		if !containsString(byCategory[c.Category], c.Path) {
			byCategory[c.Category] = append(byCategory[c.Category], c.Path)
		}
	}
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		paths := byCategory[FileCategory(c)]
		sort.Strings(paths)
		if len(paths) > 3 {
			paths = append(paths[:3], fmt.Sprintf("+%d more", len(paths)-3))
		}
		parts = append(parts, fmt.Sprintf("%s changed: %s", c, strings.Join(paths, ", ")))
	}
	return strings.Join(parts, "; ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ContentHashTracker remembers file content hashes so that saves without edits are
// not treated as changes.
type ContentHashTracker struct {
	mu     sync.Mutex
	hashes map[string]uint64
}

// NewContentHashTracker creates an empty tracker.
func NewContentHashTracker() *ContentHashTracker {
	return &ContentHashTracker{hashes: make(map[string]uint64)}
}

// HasChanged reports whether path is new or its content differs from the last call.
// Unreadable files count as changed.
func (t *ContentHashTracker) HasChanged(path string) bool {
	sum, err := hashFile(path)
	if err != nil {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	old, seen := t.hashes[path]
	t.hashes[path] = sum
	return !seen || old != sum
}

// Remove forgets path.
func (t *ContentHashTracker) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hashes, path)
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
