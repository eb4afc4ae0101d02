package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
	"github.com/ramonehamilton/MTG-Buylist/internal/events"
	"github.com/ramonehamilton/MTG-Buylist/internal/imagecache"
	"github.com/ramonehamilton/MTG-Buylist/internal/logger"
	"github.com/ramonehamilton/MTG-Buylist/internal/metrics"
	"github.com/ramonehamilton/MTG-Buylist/internal/scryfall"
	"github.com/ramonehamilton/MTG-Buylist/internal/storage"
)

// stack is the wired service stack for one command invocation.
type stack struct {
	store      storage.Store
	svc        *buylist.Service
	imageCache *imagecache.Cache
	metrics    *metrics.LookupMetrics
}

// openStack opens the configured store and builds the service with its
// Scryfall client and image cache, then selects the working list.
func (a *app) openStack(ctx context.Context) (*stack, error) {
	store, err := storage.OpenFromConfig(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	st, err := a.buildStack(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return st, nil
}

func (a *app) buildStack(ctx context.Context, store storage.Store) (*stack, error) {
	rateLimit, err := a.cfg.GetRateLimit()
	if err != nil {
		return nil, err
	}
	freshness, err := a.cfg.GetFreshness()
	if err != nil {
		return nil, err
	}
	cooldown, err := a.cfg.GetRetryCooldown()
	if err != nil {
		return nil, err
	}

	m := metrics.NewLookupMetrics()
	client := scryfall.NewClient(scryfall.ClientOptions{
		BaseURL:   a.cfg.Scryfall.BaseURL,
		UserAgent: a.cfg.Scryfall.UserAgent,
		RateLimit: rateLimit,
		Retries:   a.cfg.Scryfall.Retries,
		Metrics:   m,
	})

	cache, err := imagecache.New(ctx, store, a.log.Named("imagecache"), imagecache.Options{
		Freshness:     freshness,
		RetryCooldown: cooldown,
	})
	if err != nil {
		return nil, err
	}

	dispatcher := events.NewEventDispatcher(a.log)
	dispatcher.Register(events.NewLoggingObserver(a.log, false))

	svc, err := buylist.New(ctx, buylist.Options{
		Store:      store,
		Lookup:     client,
		Images:     imagecache.NewResolver(cache, client, m),
		ImageCache: cache,
		Dispatcher: dispatcher,
		Logger:     a.log,
		PageSize:   a.cfg.View.PageSize,
	})
	if err != nil {
		return nil, err
	}

	list := a.listName
	if list == "" {
		list = a.cfg.View.List
	}
	if list != "" {
		if err := svc.SelectList(ctx, list); err != nil {
			if a.listName != "" {
				return nil, err
			}
			a.log.Warn("Configured list not found, using default",
				logger.String("list", list))
		}
	}

	return &stack{store: store, svc: svc, imageCache: cache, metrics: m}, nil
}

// Close waits for outstanding lookups and closes the store.
func (st *stack) Close() error {
	st.svc.Wait()
	if err := st.store.Close(); err != nil && !errors.Is(err, storage.ErrClosed) {
		return err
	}
	return nil
}

func (a *app) closeStack(st *stack) {
	if err := st.Close(); err != nil {
		a.log.Warn("Error closing storage", logger.Error(err))
	}
}
