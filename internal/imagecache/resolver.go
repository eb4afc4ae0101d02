package imagecache

import (
	"context"
	"errors"

	"github.com/ramonehamilton/MTG-Buylist/internal/metrics"
	"github.com/ramonehamilton/MTG-Buylist/internal/scryfall"
)

var (
	// ErrNoImage is returned when the card exists but has no image.
	ErrNoImage = errors.New("no image available")
	// ErrRetryCooldown is returned while a recent failure is cooling down.
	ErrRetryCooldown = errors.New("image lookup failed recently, retry later")
)

// CardLookuper looks a card up by exact name.
type CardLookuper interface {
	LookupCard(ctx context.Context, name string) (*scryfall.CardLookup, error)
}

// Image is a resolved card image.
type Image struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Faces  []string `json:"faces"`
	Cached bool     `json:"cached"`
}

// Resolver answers image requests from the cache, looking cards up on a miss.
type Resolver struct {
	cache   *Cache
	lookup  CardLookuper
	metrics *metrics.LookupMetrics
}

// NewResolver creates a resolver. m may be nil.
func NewResolver(cache *Cache, lookup CardLookuper, m *metrics.LookupMetrics) *Resolver {
	return &Resolver{cache: cache, lookup: lookup, metrics: m}
}

// Cache returns the underlying cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the image for name. Lookup failures are recorded in the
// cache and returned; within the retry cooldown ErrRetryCooldown is
// returned without a lookup.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Image, error) {
	res := r.cache.Get(name)
	switch res.Status {
	case Fresh:
		if r.metrics != nil {
			r.metrics.ObserveCacheHit()
		}
		return &Image{Name: name, URL: res.URL, Faces: res.Faces, Cached: true}, nil
	case RetryCooldown:
		return nil, ErrRetryCooldown
	}

	card, err := r.lookup.LookupCard(ctx, name)
	if err != nil {
		if ctx.Err() == nil {
			r.cache.PutFailure(ctx, name)
		}
		return nil, err
	}
	if !card.HasImage() {
		r.cache.PutFailure(ctx, name)
		return nil, ErrNoImage
	}

	faces := make([]string, 0, len(card.Faces))
	for _, f := range card.Faces {
		if f.ImageURL != "" {
			faces = append(faces, f.ImageURL)
		}
	}
	url := card.ImageURL()
	r.cache.PutSuccess(ctx, name, url, faces)

	return &Image{Name: name, URL: url, Faces: faces}, nil
}
