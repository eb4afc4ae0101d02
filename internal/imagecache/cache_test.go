package imagecache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ramonehamilton/MTG-Buylist/internal/logger"
	"github.com/ramonehamilton/MTG-Buylist/internal/scryfall"
	"github.com/ramonehamilton/MTG-Buylist/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, store storage.Store, clock *fakeClock) *Cache {
	t.Helper()
	cache, err := New(context.Background(), store, logger.NewNop(), Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return cache
}

// failingStore accepts reads and rejects writes.
type failingStore struct {
	*storage.MemoryStore
}

func (f failingStore) Set(context.Context, string, interface{}) error {
	return errors.New("quota exceeded")
}

type fakeLookuper struct {
	calls  int
	result *scryfall.CardLookup
	err    error
}

func (f *fakeLookuper) LookupCard(_ context.Context, name string) (*scryfall.CardLookup, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestCache_Freshness(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(t, storage.NewMemoryStore(), clock)

	if got := cache.Get("Opt").Status; got != NeedsFetch {
		t.Fatalf("empty cache status = %v, want NeedsFetch", got)
	}

	cache.PutSuccess(ctx, "Opt", "https://img/opt.jpg", []string{"https://img/opt.jpg"})

	res := cache.Get("Opt")
	if res.Status != Fresh || res.URL != "https://img/opt.jpg" {
		t.Errorf("Get() = %+v, want fresh", res)
	}

	clock.Advance(7*24*time.Hour - time.Minute)
	if got := cache.Get("Opt").Status; got != Fresh {
		t.Errorf("status just under 7 days = %v, want Fresh", got)
	}

	clock.Advance(2 * time.Minute)
	if got := cache.Get("Opt").Status; got != NeedsFetch {
		t.Errorf("status after 7 days = %v, want NeedsFetch", got)
	}
}

func TestCache_FailureCooldown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(t, storage.NewMemoryStore(), clock)

	cache.PutFailure(ctx, "Nope")

	clock.Advance(30 * time.Minute)
	if got := cache.Get("Nope").Status; got != RetryCooldown {
		t.Errorf("status at +30m = %v, want RetryCooldown", got)
	}

	clock.Advance(60 * time.Minute)
	if got := cache.Get("Nope").Status; got != NeedsFetch {
		t.Errorf("status at +90m = %v, want NeedsFetch", got)
	}
}

func TestCache_PersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := storage.NewMemoryStore()

	cache := newTestCache(t, store, clock)
	cache.PutSuccess(ctx, "Opt", "u", []string{"u"})
	cache.PutFailure(ctx, "Nope")

	reloaded := newTestCache(t, store, clock)
	if got := reloaded.Get("Opt").Status; got != Fresh {
		t.Errorf("reloaded Opt = %v, want Fresh", got)
	}
	if got := reloaded.Get("Nope").Status; got != RetryCooldown {
		t.Errorf("reloaded Nope = %v, want RetryCooldown", got)
	}
}

func TestCache_PersistFailureDropsEntry(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(t, failingStore{storage.NewMemoryStore()}, clock)

	cache.PutSuccess(context.Background(), "Opt", "u", nil)

	if got := cache.Get("Opt").Status; got != NeedsFetch {
		t.Errorf("status after failed persist = %v, want NeedsFetch", got)
	}
}

func TestCache_PruneStatsClear(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := storage.NewMemoryStore()
	cache := newTestCache(t, store, clock)

	cache.PutSuccess(ctx, "Old", "u1", nil)
	clock.Advance(8 * 24 * time.Hour)
	cache.PutSuccess(ctx, "New", "u2", nil)
	cache.PutFailure(ctx, "Broken")

	stats := cache.Stats()
	if stats.Entries != 3 || stats.Fresh != 1 || stats.Stale != 1 || stats.Failed != 1 || stats.Cooldown != 1 {
		t.Errorf("Stats() = %+v", stats)
	}

	removed, err := cache.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune() removed %d, want 1", removed)
	}
	if names := cache.Names(); len(names) != 2 || names[0] != "Broken" || names[1] != "New" {
		t.Errorf("Names() = %v", names)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if cache.Stats().Entries != 0 {
		t.Error("Clear() left entries behind")
	}
	if found, _ := store.Get(ctx, storage.KeyImageCache, &map[string]Entry{}); found {
		t.Error("Clear() left the persisted key")
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(t, storage.NewMemoryStore(), clock)

	lookup := &fakeLookuper{result: &scryfall.CardLookup{
		Name: "Delver of Secrets",
		Faces: []scryfall.Face{
			{Name: "Delver of Secrets", ImageURL: "https://img/front.jpg"},
			{Name: "Insectile Aberration", ImageURL: "https://img/back.jpg"},
		},
	}}
	resolver := NewResolver(cache, lookup, nil)

	img, err := resolver.Resolve(ctx, "Delver of Secrets")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if img.URL != "https://img/front.jpg" || len(img.Faces) != 2 || img.Cached {
		t.Errorf("Resolve() = %+v", img)
	}

	img, err = resolver.Resolve(ctx, "Delver of Secrets")
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if !img.Cached {
		t.Error("second Resolve() should be served from cache")
	}
	if lookup.calls != 1 {
		t.Errorf("lookup calls = %d, want 1", lookup.calls)
	}
}

func TestResolver_FailureIsNotRetriedWithinCooldown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(t, storage.NewMemoryStore(), clock)
	lookup := &fakeLookuper{err: &scryfall.NotFoundError{Name: "Nope"}}
	resolver := NewResolver(cache, lookup, nil)

	if _, err := resolver.Resolve(ctx, "Nope"); !scryfall.IsNotFound(err) {
		t.Fatalf("Resolve() error = %v, want not found", err)
	}

	clock.Advance(30 * time.Minute)
	if _, err := resolver.Resolve(ctx, "Nope"); !errors.Is(err, ErrRetryCooldown) {
		t.Errorf("Resolve() at +30m error = %v, want ErrRetryCooldown", err)
	}
	if lookup.calls != 1 {
		t.Errorf("lookup calls at +30m = %d, want 1", lookup.calls)
	}

	clock.Advance(60 * time.Minute)
	_, _ = resolver.Resolve(ctx, "Nope")
	if lookup.calls != 2 {
		t.Errorf("lookup calls at +90m = %d, want 2", lookup.calls)
	}
}

func TestResolver_NoImage(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(t, storage.NewMemoryStore(), clock)
	lookup := &fakeLookuper{result: &scryfall.CardLookup{Name: "Blank"}}

	_, err := NewResolver(cache, lookup, nil).Resolve(context.Background(), "Blank")
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("Resolve() error = %v, want ErrNoImage", err)
	}
	if got := cache.Get("Blank").Status; got != RetryCooldown {
		t.Errorf("status after no image = %v, want RetryCooldown", got)
	}
}
