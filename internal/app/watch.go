package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wtthornton/LocalMCP/internal/watch"
)

// ErrCacheDisabled is returned by operations that need the cache when it is off.
var ErrCacheDisabled = errors.New("cache is disabled")

// StartWatcher watches the project and invalidates cached enhancements when manifests,
// docs or LocalMCP configuration change. Stop the returned watcher when done.
func (s *Services) StartWatcher(ctx context.Context) (*watch.Watcher, error) {
	if s.Cache == nil {
		return nil, ErrCacheDisabled
	}
	w, err := watch.New(watch.Config{
		Root:   s.ProjectRoot,
		Marker: s.Cache.Invalidator(),
		OnBatch: func(changes []watch.Change) {
			slog.Info("project changed, cached enhancements invalidated", "reason", watch.Reason(changes))
		},
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}
