// Package imagecache remembers card image lookups by name so art is not
// refetched on every view, and so failed lookups are not retried too often.
package imagecache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ramonehamilton/MTG-Buylist/internal/logger"
	"github.com/ramonehamilton/MTG-Buylist/internal/storage"
)

const (
	DefaultFreshness     = 7 * 24 * time.Hour
	DefaultRetryCooldown = time.Hour
)

// Status classifies a cache lookup.
type Status int

const (
	// NeedsFetch means the caller should look the card up.
	NeedsFetch Status = iota
	// Fresh means a successful entry younger than the freshness window exists.
	Fresh
	// RetryCooldown means a recent lookup failed and should not be retried yet.
	RetryCooldown
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case RetryCooldown:
		return "retry_cooldown"
	default:
		return "needs_fetch"
	}
}

// Entry is the persisted record for one card name.
type Entry struct {
	URL         string     `json:"url,omitempty"`
	Faces       []string   `json:"faces,omitempty"`
	FetchedAt   time.Time  `json:"fetchedAt"`
	Failed      bool       `json:"failed"`
	LastRetryAt *time.Time `json:"lastRetryAt,omitempty"`
}

// Result is returned by Get.
type Result struct {
	Status Status
	URL    string
	Faces  []string
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries  int `json:"entries"`
	Fresh    int `json:"fresh"`
	Stale    int `json:"stale"`
	Failed   int `json:"failed"`
	Cooldown int `json:"cooldown"`
}

// Options configures a Cache. Zero durations select the defaults.
type Options struct {
	Freshness     time.Duration
	RetryCooldown time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Cache maps card names to image lookup outcomes, persisted under
// storage.KeyImageCache.
type Cache struct {
	store    storage.Store
	log      logger.Logger
	fresh    time.Duration
	cooldown time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry
}

// New loads the cache from store.
func New(ctx context.Context, store storage.Store, log logger.Logger, opts Options) (*Cache, error) {
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.RetryCooldown <= 0 {
		opts.RetryCooldown = DefaultRetryCooldown
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}

	entries := make(map[string]Entry)
	if _, err := store.Get(ctx, storage.KeyImageCache, &entries); err != nil {
		return nil, fmt.Errorf("failed to load image cache: %w", err)
	}

	return &Cache{
		store:    store,
		log:      log,
		fresh:    opts.Freshness,
		cooldown: opts.RetryCooldown,
		now:      opts.Now,
		entries:  entries,
	}, nil
}

// Get classifies the entry for name.
func (c *Cache) Get(name string) Result {
	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()

	if !ok {
		return Result{Status: NeedsFetch}
	}
	return Result{Status: c.classify(entry, c.now()), URL: entry.URL, Faces: entry.Faces}
}

func (c *Cache) classify(e Entry, now time.Time) Status {
	if e.Failed {
		last := e.FetchedAt
		if e.LastRetryAt != nil {
			last = *e.LastRetryAt
		}
		if now.Sub(last) < c.cooldown {
			return RetryCooldown
		}
		return NeedsFetch
	}
	if now.Sub(e.FetchedAt) < c.fresh {
		return Fresh
	}
	return NeedsFetch
}

// PutSuccess records a successful lookup and persists the cache.
func (c *Cache) PutSuccess(ctx context.Context, name, url string, faces []string) {
	c.put(ctx, name, Entry{
		URL:       url,
		Faces:     faces,
		FetchedAt: c.now(),
	})
}

// PutFailure records a failed lookup and persists the cache.
func (c *Cache) PutFailure(ctx context.Context, name string) {
	now := c.now()
	c.put(ctx, name, Entry{
		FetchedAt:   now,
		Failed:      true,
		LastRetryAt: &now,
	})
}

func (c *Cache) put(ctx context.Context, name string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[name] = entry
	if err := c.store.Set(ctx, storage.KeyImageCache, c.entries); err != nil {
		// Keep memory consistent with what was persisted.
		delete(c.entries, name)
		c.log.Warn("Failed to persist image cache",
			logger.String("card", name),
			logger.Error(err))
	}
}

// Prune removes successful entries older than the freshness window and
// failed entries whose cooldown has elapsed. Returns the number removed.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for name, e := range c.entries {
		if c.classify(e, now) == NeedsFetch {
			delete(c.entries, name)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := c.store.Set(ctx, storage.KeyImageCache, c.entries); err != nil {
		return removed, fmt.Errorf("failed to persist pruned image cache: %w", err)
	}
	return removed, nil
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
	if err := c.store.Delete(ctx, storage.KeyImageCache); err != nil {
		return fmt.Errorf("failed to clear image cache: %w", err)
	}
	return nil
}

// Stats reports entry counts by status.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	stats := Stats{Entries: len(c.entries)}
	for _, e := range c.entries {
		switch {
		case e.Failed:
			stats.Failed++
			if c.classify(e, now) == RetryCooldown {
				stats.Cooldown++
			}
		case c.classify(e, now) == Fresh:
			stats.Fresh++
		default:
			stats.Stale++
		}
	}
	return stats
}

// Names returns the cached card names in lexical order.
func (c *Cache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
