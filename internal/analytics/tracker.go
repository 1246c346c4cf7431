// Package analytics keeps lightweight page view counters for the marketing
// site. Views are accumulated in memory and flushed to the settings table on
// an interval, so a restart loses at most one window of counts.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/atelierhq/atelier/internal/config"
)

// SettingsStore is the slice of the store the tracker needs.
type SettingsStore interface {
	GetSetting(ctx context.Context, name string) (string, error)
	SetSetting(ctx context.Context, name, value string) error
}

const (
	settingKey    = "analytics.page_views"
	flushInterval = 30 * time.Second
)

// Summary is the analytics snapshot served to the back office.
type Summary struct {
	TotalViews    int64            `json:"total_views"`
	PageViews     map[string]int64 `json:"page_views"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Tracker accumulates page views and periodically persists them.
type Tracker struct {
	store   SettingsStore
	log     *slog.Logger
	started time.Time

	mu      sync.Mutex
	pending map[string]int64

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewTracker(store SettingsStore, log *slog.Logger) *Tracker {
	return &Tracker{
		store:   store,
		log:     log,
		started: time.Now(),
		pending: make(map[string]int64),
		done:    make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (t *Tracker) Start() {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := t.Flush(context.Background()); err != nil {
					t.log.Warn("analytics flush failed", "error", err)
				}
			case <-t.done:
				return
			}
		}
	}()
}

// Shutdown stops the loop and writes out whatever is pending.
func (t *Tracker) Shutdown(ctx context.Context) {
	t.stopOnce.Do(func() { close(t.done) })
	t.wg.Wait()
	if err := t.Flush(ctx); err != nil {
		t.log.Warn("final analytics flush failed", "error", err)
	}
}

// Record counts one view of a page.
func (t *Tracker) Record(page string) {
	t.mu.Lock()
	t.pending[page]++
	t.mu.Unlock()
}

// Middleware counts successful GETs on the public routes it wraps.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if r.Method == http.MethodGet {
			t.Record(r.URL.Path)
		}
	})
}

func (t *Tracker) takePending() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return nil
	}
	out := t.pending
	t.pending = make(map[string]int64)
	return out
}

func (t *Tracker) loadPersisted(ctx context.Context) (map[string]int64, error) {
	raw, err := t.store.GetSetting(ctx, settingKey)
	if errors.Is(err, config.ErrNotFound) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	views := map[string]int64{}
	if err := json.Unmarshal([]byte(raw), &views); err != nil {
		// Corrupt counter blob; start over rather than fail every flush.
		return map[string]int64{}, nil
	}
	return views, nil
}

// Flush merges pending counts into the persisted blob. On write failure the
// pending counts are restored so no views are dropped.
func (t *Tracker) Flush(ctx context.Context) error {
	pending := t.takePending()
	if pending == nil {
		return nil
	}
	restore := func() {
		t.mu.Lock()
		for page, n := range pending {
			t.pending[page] += n
		}
		t.mu.Unlock()
	}

	views, err := t.loadPersisted(ctx)
	if err != nil {
		restore()
		return err
	}
	for page, n := range pending {
		views[page] += n
	}
	raw, err := json.Marshal(views)
	if err != nil {
		restore()
		return err
	}
	if err := t.store.SetSetting(ctx, settingKey, string(raw)); err != nil {
		restore()
		return err
	}
	return nil
}

// Snapshot returns persisted plus pending counts without clearing anything.
func (t *Tracker) Snapshot(ctx context.Context) (*Summary, error) {
	views, err := t.loadPersisted(ctx)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	for page, n := range t.pending {
		views[page] += n
	}
	t.mu.Unlock()

	var total int64
	for _, n := range views {
		total += n
	}
	return &Summary{
		TotalViews:    total,
		PageViews:     views,
		UptimeSeconds: int64(time.Since(t.started).Seconds()),
	}, nil
}
