// Package buylist owns the buylist state: the lists, the view parameters
// and column visibility. It persists after every change and applies card
// lookups as they complete.
package buylist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ramonehamilton/MTG-Buylist/internal/events"
	"github.com/ramonehamilton/MTG-Buylist/internal/export"
	"github.com/ramonehamilton/MTG-Buylist/internal/imagecache"
	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
	"github.com/ramonehamilton/MTG-Buylist/internal/logger"
	"github.com/ramonehamilton/MTG-Buylist/internal/scryfall"
	"github.com/ramonehamilton/MTG-Buylist/internal/storage"
	"github.com/ramonehamilton/MTG-Buylist/internal/view"
)

// DefaultPageSize is used when Options.PageSize is not set.
const DefaultPageSize = 25

// ErrNoImages is returned by CardImage when no image resolver is configured.
var ErrNoImages = errors.New("card images are not available")

// CardLookuper looks a card up by exact name.
type CardLookuper interface {
	LookupCard(ctx context.Context, name string) (*scryfall.CardLookup, error)
}

// ImageResolver resolves card images through the image cache.
type ImageResolver interface {
	Resolve(ctx context.Context, name string) (*imagecache.Image, error)
}

// Options configures a Service. Only Store is required.
type Options struct {
	Store      storage.Store
	Lookup     CardLookuper
	Images     ImageResolver
	ImageCache *imagecache.Cache
	Dispatcher *events.EventDispatcher
	Logger     logger.Logger
	PageSize   int
}

// ViewState is the current filter, sort and page.
type ViewState struct {
	Filter   string    `json:"filter"`
	Sort     view.Sort `json:"sort"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// ListsInfo names the lists and the current one.
type ListsInfo struct {
	Current string   `json:"current"`
	Lists   []string `json:"lists"`
}

// ImportResult reports what an import changed.
type ImportResult struct {
	Parsed  int `json:"parsed"`
	Entries int `json:"entries"`
	Lookups int `json:"lookups"`
}

// Service is the single owner of buylist state. All methods are safe for
// concurrent use.
type Service struct {
	store      storage.Store
	lookup     CardLookuper
	images     ImageResolver
	imageCache *imagecache.Cache
	dispatcher *events.EventDispatcher
	log        logger.Logger

	mu       sync.Mutex
	lists    *lists.Store
	seq      lists.Sequencer
	columns  map[string]bool
	state    ViewState
	inFlight map[string]bool

	// lookup pipeline
	runCtx   context.Context
	results  chan lookupOutcome
	pending  sync.WaitGroup
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// New loads persisted state from opts.Store, migrating legacy records.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("buylist: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = events.NewEventDispatcher(opts.Logger)
	}
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}

	s := &Service{
		store:      opts.Store,
		lookup:     opts.Lookup,
		images:     opts.Images,
		imageCache: opts.ImageCache,
		dispatcher: opts.Dispatcher,
		log:        opts.Logger.Named("buylist"),
		state: ViewState{
			Sort:     view.DefaultSort(),
			PageSize: opts.PageSize,
		},
		inFlight: make(map[string]bool),
		results:  make(chan lookupOutcome),
		done:     make(chan struct{}),
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) load(ctx context.Context) error {
	var raw json.RawMessage
	listsFound, err := s.store.Get(ctx, storage.KeyLists, &raw)
	if err != nil {
		return fmt.Errorf("failed to load lists: %w", err)
	}

	version := 0
	versionFound, err := s.store.Get(ctx, storage.KeySchemaVersion, &version)
	if err != nil {
		return fmt.Errorf("failed to load schema version: %w", err)
	}
	if !versionFound && !listsFound {
		version = lists.CurrentSchemaVersion
	}

	data, err := lists.Migrate(raw, version)
	if err != nil {
		return err
	}
	s.lists = lists.NewStore(data)
	s.seq.InitFrom(s.lists.Data())

	if version != lists.CurrentSchemaVersion {
		s.log.Info("Migrating lists",
			logger.Int("from", version),
			logger.Int("to", lists.CurrentSchemaVersion))
		if err := s.persistLists(ctx); err != nil {
			return err
		}
	}
	if !versionFound || version != lists.CurrentSchemaVersion {
		if err := s.store.Set(ctx, storage.KeySchemaVersion, lists.CurrentSchemaVersion); err != nil {
			return fmt.Errorf("failed to save schema version: %w", err)
		}
	}

	var cols map[string]bool
	if _, err := s.store.Get(ctx, storage.KeyColumnVisibility, &cols); err != nil {
		return fmt.Errorf("failed to load column visibility: %w", err)
	}
	s.columns = mergeColumns(cols)

	return nil
}

// persistLists writes the full list store. Callers hold s.mu.
func (s *Service) persistLists(ctx context.Context) error {
	if err := s.store.Set(ctx, storage.KeyLists, s.lists.Data()); err != nil {
		s.log.Error("Failed to persist lists", logger.Error(err))
		return fmt.Errorf("failed to persist lists: %w", err)
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, evts ...events.Event) {
	for _, e := range evts {
		if e.Context == nil {
			e.Context = ctx
		}
		s.dispatcher.Dispatch(e)
	}
}

// Dispatcher returns the event dispatcher that receives state changes.
func (s *Service) Dispatcher() *events.EventDispatcher {
	return s.dispatcher
}

func (s *Service) listsInfoLocked() ListsInfo {
	return ListsInfo{Current: s.lists.Current(), Lists: s.lists.Names()}
}

func (s *Service) listsChanged(ctx context.Context) events.Event {
	info := s.listsInfoLocked()
	return events.NewTypedEvent(ctx, events.TypeListsChanged, events.ListsChangedEvent{
		Current: info.Current,
		Lists:   info.Lists,
	})
}

func (s *Service) listUpdated(ctx context.Context, list, reason string) events.Event {
	return events.NewTypedEvent(ctx, events.TypeListUpdated, events.ListUpdatedEvent{
		List:    list,
		Reason:  reason,
		Entries: len(s.lists.EntriesOf(list)),
	})
}

// Lists returns the list names and the current list.
func (s *Service) Lists() ListsInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listsInfoLocked()
}

// CreateList adds a list and makes it current. Empty and duplicate names
// are ignored and report false.
func (s *Service) CreateList(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	created := s.lists.CreateList(name)
	if !created {
		s.mu.Unlock()
		return false, nil
	}
	s.state.Page = 0
	err := s.persistLists(ctx)
	evt := s.listsChanged(ctx)
	s.mu.Unlock()

	s.dispatch(ctx, evt)
	return true, err
}

// SelectList makes name current and resets the page.
func (s *Service) SelectList(ctx context.Context, name string) error {
	s.mu.Lock()
	if err := s.lists.SelectList(name); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.Page = 0
	evt := s.listsChanged(ctx)
	s.mu.Unlock()

	s.dispatch(ctx, evt)
	return nil
}

// DeleteList removes a list. Confirmation is the caller's job.
func (s *Service) DeleteList(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	wasCurrent := s.lists.Current() == name
	if !s.lists.DeleteList(name) {
		s.mu.Unlock()
		return false, nil
	}
	if wasCurrent {
		s.state.Page = 0
	}
	err := s.persistLists(ctx)
	evt := s.listsChanged(ctx)
	s.mu.Unlock()

	s.dispatch(ctx, evt)
	return true, err
}

// ImportDeckList merges a pasted deck list into the current list and looks
// up every entry still missing both price and mana cost.
func (s *Service) ImportDeckList(ctx context.Context, text string) (ImportResult, error) {
	parsed := lists.ParseDeckList(text)

	s.mu.Lock()
	pending := s.lists.ImportDeckList(text)
	err := s.persistLists(ctx)
	result := ImportResult{
		Parsed:  len(parsed),
		Entries: len(s.lists.Entries()),
	}
	result.Lookups = s.launchLookupsLocked(pending)
	evt := s.listUpdated(ctx, s.lists.Current(), "import")
	s.mu.Unlock()

	s.dispatch(ctx, evt)
	return result, err
}

// RetryLookups looks up entries of the current list that still have no
// price and no mana cost. Returns the number of lookups started.
func (s *Service) RetryLookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []lists.CardEntry
	for _, e := range s.lists.Entries() {
		if e.NeedsLookup() {
			pending = append(pending, e)
		}
	}
	return s.launchLookupsLocked(pending)
}

// mutateEntry applies fn under the lock and persists if it changed anything.
func (s *Service) mutateEntry(ctx context.Context, reason string, fn func() bool) (bool, error) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return false, nil
	}
	err := s.persistLists(ctx)
	evt := s.listUpdated(ctx, s.lists.Current(), reason)
	s.mu.Unlock()

	s.dispatch(ctx, evt)
	return true, err
}

// DeleteEntry removes an entry by id.
func (s *Service) DeleteEntry(ctx context.Context, id string) (bool, error) {
	return s.mutateEntry(ctx, "delete_entry", func() bool { return s.lists.DeleteEntry(id) })
}

// SetSelected sets an entry's selected flag.
func (s *Service) SetSelected(ctx context.Context, id string, selected bool) (bool, error) {
	return s.mutateEntry(ctx, "set_selected", func() bool { return s.lists.SetSelected(id, selected) })
}

// SetQuantity sets an entry's quantity. Negative quantities are ignored.
func (s *Service) SetQuantity(ctx context.Context, id string, quantity int) (bool, error) {
	return s.mutateEntry(ctx, "set_quantity", func() bool { return s.lists.SetQuantity(id, quantity) })
}

// SetOrderDetails sets an entry's order details.
func (s *Service) SetOrderDetails(ctx context.Context, id, details string) (bool, error) {
	return s.mutateEntry(ctx, "set_order_details", func() bool { return s.lists.SetOrderDetails(id, details) })
}

// ToggleBought flips an entry's bought flag.
func (s *Service) ToggleBought(ctx context.Context, id string) (bool, error) {
	return s.mutateEntry(ctx, "toggle_bought", func() bool { return s.lists.ToggleBought(id, &s.seq) })
}

// BulkDeleteSelected removes the selected entries of the current list.
func (s *Service) BulkDeleteSelected(ctx context.Context) (int, error) {
	var removed int
	_, err := s.mutateEntry(ctx, "bulk_delete", func() bool {
		removed = s.lists.BulkDeleteSelected()
		return removed > 0
	})
	return removed, err
}

// SetAllSelected sets the selected flag on every entry of the current list.
func (s *Service) SetAllSelected(ctx context.Context, selected bool) (int, error) {
	var n int
	_, err := s.mutateEntry(ctx, "set_all_selected", func() bool {
		n = s.lists.SetAllSelected(selected)
		return n > 0
	})
	return n, err
}

// Entry returns a copy of the entry with id.
func (s *Service) Entry(id string) (lists.CardEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists.Find(id)
}

// Entries returns copies of the current list's entries in list order.
func (s *Service) Entries() []lists.CardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists.Entries()
}

// SetFilter sets the name filter and resets the page.
func (s *Service) SetFilter(text string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filter = text
	s.state.Page = 0
	return s.state
}

// SortBy selects a sort column, toggling direction when it is already active.
func (s *Service) SortBy(key view.SortKey) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Sort = s.state.Sort.Select(key)
	return s.state
}

// SetPage sets the zero-based page index. Negative values select page 0.
func (s *Service) SetPage(page int) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 0 {
		page = 0
	}
	s.state.Page = page
	return s.state
}

// SetPageSize sets the page size and resets the page. 0 or less disables paging.
func (s *Service) SetPageSize(size int) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PageSize = size
	s.state.Page = 0
	return s.state
}

// ViewState returns the current view parameters.
func (s *Service) ViewState() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View computes the visible page of the current list.
func (s *Service) View() view.Page {
	s.mu.Lock()
	entries := s.lists.Entries()
	st := s.state
	s.mu.Unlock()

	return view.ComputeView(entries, view.Query{
		Filter:   st.Filter,
		Sort:     st.Sort,
		Page:     st.Page,
		PageSize: st.PageSize,
	})
}

// Totals returns the outstanding spend of the current list.
func (s *Service) Totals() view.Totals {
	return view.ComputeTotals(s.Entries())
}

// Progress returns the purchase progress of the current list.
func (s *Service) Progress() view.Progress {
	return view.ComputeProgress(s.Entries())
}

// ListSummary is the totals and progress of one list.
type ListSummary struct {
	Name     string        `json:"name"`
	Current  bool          `json:"current"`
	Entries  int           `json:"entries"`
	Totals   view.Totals   `json:"totals"`
	Progress view.Progress `json:"progress"`
}

// Summaries returns a summary of every list in name order.
func (s *Service) Summaries() []ListSummary {
	s.mu.Lock()
	current := s.lists.Current()
	names := s.lists.Names()
	byName := make(map[string][]lists.CardEntry, len(names))
	for _, name := range names {
		byName[name] = s.lists.EntriesOf(name)
	}
	s.mu.Unlock()

	out := make([]ListSummary, 0, len(names))
	for _, name := range names {
		entries := byName[name]
		out = append(out, ListSummary{
			Name:     name,
			Current:  name == current,
			Entries:  len(entries),
			Totals:   view.ComputeTotals(entries),
			Progress: view.ComputeProgress(entries),
		})
	}
	return out
}

// Columns returns a copy of the column visibility map.
func (s *Service) Columns() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols := make(map[string]bool, len(s.columns))
	for k, v := range s.columns {
		cols[k] = v
	}
	return cols
}

// SetColumnVisible shows or hides a column and persists the choice.
func (s *Service) SetColumnVisible(ctx context.Context, key string, visible bool) error {
	if err := validColumn(key); err != nil {
		return err
	}

	s.mu.Lock()
	s.columns[key] = visible
	cols := make(map[string]bool, len(s.columns))
	for k, v := range s.columns {
		cols[k] = v
	}
	err := s.store.Set(ctx, storage.KeyColumnVisibility, cols)
	s.mu.Unlock()

	if err != nil {
		s.log.Error("Failed to persist column visibility", logger.Error(err))
		err = fmt.Errorf("failed to persist column visibility: %w", err)
	}
	s.dispatch(ctx, events.NewTypedEvent(ctx, events.TypeColumnsChanged, events.ColumnsChangedEvent{Columns: cols}))
	return err
}

// ExportRows returns the current list's name and export rows.
func (s *Service) ExportRows(includeBought bool) (string, []export.Row) {
	s.mu.Lock()
	name := s.lists.Current()
	entries := s.lists.Entries()
	s.mu.Unlock()

	return name, export.BuildRows(entries, includeBought)
}

// Export writes the current list to w and returns the suggested file name.
func (s *Service) Export(w io.Writer, format export.Format, includeBought bool) (string, error) {
	name, rows := s.ExportRows(includeBought)
	if err := export.Write(w, format, rows, true); err != nil {
		return "", fmt.Errorf("failed to export %s: %w", name, err)
	}
	return export.Filename(name, includeBought, format), nil
}

// ExportCSV writes the current list as CSV to w.
func (s *Service) ExportCSV(w io.Writer, includeBought bool) (string, error) {
	return s.Export(w, export.FormatCSV, includeBought)
}

// CardImage resolves the image for a card name through the image cache.
func (s *Service) CardImage(ctx context.Context, name string) (*imagecache.Image, error) {
	if s.images == nil {
		return nil, ErrNoImages
	}
	return s.images.Resolve(ctx, name)
}
