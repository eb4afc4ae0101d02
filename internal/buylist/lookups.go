package buylist

import (
	"context"

	"github.com/ramonehamilton/MTG-Buylist/internal/events"
	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
	"github.com/ramonehamilton/MTG-Buylist/internal/logger"
	"github.com/ramonehamilton/MTG-Buylist/internal/scryfall"
)

// lookupOutcome is sent from a lookup goroutine to the reducer.
type lookupOutcome struct {
	entryID string
	name    string
	card    *scryfall.CardLookup
	err     error
}

// Start runs the goroutine that applies lookup results. Lookups started
// before Start are not launched. Cancelling ctx abandons outstanding lookups.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.runCtx = ctx
	s.mu.Unlock()

	go s.reduce(ctx)
}

// Wait blocks until every launched lookup has been applied or abandoned.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Done is closed when the reducer exits.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// launchLookupsLocked starts one lookup per entry not already in flight.
// Callers hold s.mu.
func (s *Service) launchLookupsLocked(entries []lists.CardEntry) int {
	if s.lookup == nil || len(entries) == 0 {
		return 0
	}
	if !s.started {
		s.log.Debug("Lookup pipeline not started, skipping lookups", logger.Int("entries", len(entries)))
		return 0
	}
	if s.runCtx.Err() != nil {
		return 0
	}

	launched := 0
	for _, e := range entries {
		if s.inFlight[e.ID] {
			continue
		}
		s.inFlight[e.ID] = true
		s.pending.Add(1)
		launched++
		go s.runLookup(s.runCtx, e.ID, e.Name)
	}
	return launched
}

func (s *Service) runLookup(ctx context.Context, id, name string) {
	card, err := s.lookup.LookupCard(ctx, name)
	outcome := lookupOutcome{entryID: id, name: name, card: card, err: err}

	select {
	case s.results <- outcome:
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
		s.pending.Done()
	}
}

// reduce applies lookup outcomes one at a time.
func (s *Service) reduce(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case outcome := <-s.results:
			s.apply(ctx, outcome)
			s.pending.Done()
		}
	}
}

func (s *Service) apply(ctx context.Context, outcome lookupOutcome) {
	completed := events.LookupCompletedEvent{
		EntryID: outcome.entryID,
		Name:    outcome.name,
	}

	if outcome.err != nil {
		completed.Error = outcome.err.Error()
		if scryfall.IsNotFound(outcome.err) {
			s.log.Debug("Card not found", logger.String("card", outcome.name))
		} else {
			s.log.Warn("Card lookup failed",
				logger.String("card", outcome.name),
				logger.Error(outcome.err))
		}

		s.mu.Lock()
		delete(s.inFlight, outcome.entryID)
		s.mu.Unlock()

		s.dispatch(ctx, events.NewTypedEvent(ctx, events.TypeLookupCompleted, completed))
		return
	}

	card := outcome.card
	completed.Found = true

	s.mu.Lock()
	delete(s.inFlight, outcome.entryID)
	list, applied := s.lists.ApplyLookup(outcome.entryID, lists.LookupResult{
		Price:             card.Price,
		ManaCost:          card.ManaCost,
		ConvertedManaCost: card.ConvertedManaCost,
	})
	completed.Applied = applied
	var evts []events.Event
	if applied {
		// Persistence errors are already logged; the in-memory update stands.
		_ = s.persistLists(ctx)
		evts = append(evts, s.listUpdated(ctx, list, "lookup"))
	}
	s.mu.Unlock()

	if s.imageCache != nil && card.HasImage() {
		faces := make([]string, 0, len(card.Faces))
		for _, f := range card.Faces {
			if f.ImageURL != "" {
				faces = append(faces, f.ImageURL)
			}
		}
		s.imageCache.PutSuccess(ctx, outcome.name, card.ImageURL(), faces)
	}

	evts = append(evts, events.NewTypedEvent(ctx, events.TypeLookupCompleted, completed))
	s.dispatch(ctx, evts...)
}
