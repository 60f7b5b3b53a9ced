package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dcode-github/property_listing_search/favorites"
	"github.com/dcode-github/property_listing_search/models"
	"github.com/dcode-github/property_listing_search/search"
	"github.com/google/uuid"
)

// MemoryListingRepository keeps listings in process. It evaluates the same
// predicates the Mongo repository translates, which makes it the reference
// for planner behaviour in tests.
type MemoryListingRepository struct {
	mu         sync.RWMutex
	listings   []models.Listing
	maxResults int64
}

func NewMemoryListingRepository(listings ...models.Listing) *MemoryListingRepository {
	r := &MemoryListingRepository{}
	for _, l := range listings {
		if err := r.Add(l); err != nil {
			panic(err)
		}
	}
	return r
}

// WithMaxResults caps a single search the way the Mongo repository does.
// Zero means no cap.
func (r *MemoryListingRepository) WithMaxResults(n int64) *MemoryListingRepository {
	r.mu.Lock()
	r.maxResults = n
	r.mu.Unlock()
	return r
}

// Add stores a listing, rejecting a duplicate slug or id.
func (r *MemoryListingRepository) Add(l models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.Price < 0 {
		return fmt.Errorf("listing %q: negative price", l.ID)
	}
	for _, existing := range r.listings {
		if existing.ID == l.ID || existing.Slug == l.Slug {
			return fmt.Errorf("listing %q: %w", l.Slug, models.ErrAlreadyExists)
		}
	}
	r.listings = append(r.listings, l)
	return nil
}

func (r *MemoryListingRepository) FindListings(ctx context.Context, preds []search.Predicate, dir search.SortDirective) ([]models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewRepositoryError("find listings", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Listing
	for _, l := range r.listings {
		if matchAll(l, preds) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j], dir) })
	if r.maxResults > 0 && int64(len(out)) > r.maxResults {
		out = out[:r.maxResults]
	}
	return out, nil
}

func (r *MemoryListingRepository) FindBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.listings {
		if l.Slug == slug {
			found := l
			return &found, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryListingRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Listing, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Listing
	for _, l := range r.listings {
		if want[l.ID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *MemoryListingRepository) SuggestLocations(ctx context.Context, prefix string, limit int) ([]string, error) {
	needle := strings.ToLower(prefix)
	seen := make(map[string]bool)
	out := []string{}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.listings {
		if len(out) == limit {
			break
		}
		if l.City == "" || seen[l.City] || !strings.Contains(strings.ToLower(l.City), needle) {
			continue
		}
		seen[l.City] = true
		out = append(out, l.City)
	}
	return out, nil
}

func matchAll(l models.Listing, preds []search.Predicate) bool {
	for _, p := range preds {
		if !match(l, p) {
			return false
		}
	}
	return true
}

func match(l models.Listing, p search.Predicate) bool {
	switch p := p.(type) {
	case search.SetMembership:
		v := stringField(l, p.Field)
		for _, want := range p.Values {
			if v == want {
				return true
			}
		}
		return false
	case search.Equals:
		v := stringField(l, p.Field)
		if p.FoldCase {
			return strings.EqualFold(v, p.Value)
		}
		return v == p.Value
	case search.NotEquals:
		return stringField(l, p.Field) != p.Value
	case search.Flag:
		v, ok := boolField(l, p.Field)
		return ok && v == p.Value
	case search.TextMatch:
		for _, term := range p.Terms {
			if !anyFieldContains(l, p.Fields, term) {
				return false
			}
		}
		return true
	case search.Range:
		v, ok := intField(l, p.Field)
		if !ok {
			return false
		}
		if p.Bound == search.AtLeast {
			return v >= p.Value
		}
		return v <= p.Value
	}
	return false
}

func anyFieldContains(l models.Listing, fields []search.Field, term string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(stringField(l, f)), term) {
			return true
		}
	}
	return false
}

func stringField(l models.Listing, f search.Field) string {
	switch f {
	case search.FieldID:
		return l.ID
	case search.FieldStatus:
		return string(l.Status)
	case search.FieldPropertyType:
		return string(l.PropertyType)
	case search.FieldDistrict:
		return l.District
	case search.FieldCity:
		return l.City
	case search.FieldTitle:
		return l.Title
	}
	return ""
}

func boolField(l models.Listing, f search.Field) (bool, bool) {
	if f == search.FieldFeatured {
		return l.IsFeatured, true
	}
	return false, false
}

func intField(l models.Listing, f search.Field) (int64, bool) {
	deref := func(p *int) (int64, bool) {
		if p == nil {
			return 0, false
		}
		return int64(*p), true
	}
	switch f {
	case search.FieldPrice:
		return l.Price, true
	case search.FieldBedrooms:
		return deref(l.Bedrooms)
	case search.FieldBathrooms:
		return deref(l.Bathrooms)
	case search.FieldSize:
		return deref(l.SizeSqft)
	case search.FieldCreatedAt:
		return l.CreatedAt.UnixNano(), true
	}
	return 0, false
}

func less(a, b models.Listing, dir search.SortDirective) bool {
	if c := compareField(a, b, dir.Key); c != 0 {
		if dir.Descending {
			return c > 0
		}
		return c < 0
	}
	c := compareField(a, b, dir.TieBreak)
	if dir.TieBreakDescending {
		return c > 0
	}
	return c < 0
}

func compareField(a, b models.Listing, f search.Field) int {
	if av, ok := intField(a, f); ok {
		bv, _ := intField(b, f)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	return strings.Compare(stringField(a, f), stringField(b, f))
}

// MemorySavedStore is a SavedListingStore guarded by a mutex. The mutex
// plays the part of the unique index a real store would have.
type MemorySavedStore struct {
	mu   sync.Mutex
	rows map[string]models.SavedListing
	now  func() time.Time
}

func NewMemorySavedStore() *MemorySavedStore {
	return &MemorySavedStore{rows: make(map[string]models.SavedListing), now: time.Now}
}

func pairKey(userID, listingID string) string {
	return userID + "\x00" + listingID
}

func (s *MemorySavedStore) GetSavedListing(ctx context.Context, userID, listingID string) (*models.SavedListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[pairKey(userID, listingID)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *MemorySavedStore) InsertSavedListing(ctx context.Context, userID, listingID string) (*models.SavedListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey(userID, listingID)
	if _, ok := s.rows[k]; ok {
		return nil, models.ErrAlreadyExists
	}
	row := models.SavedListing{ID: uuid.NewString(), UserID: userID, ListingID: listingID, SavedAt: s.now().UTC()}
	s.rows[k] = row
	return &row, nil
}

func (s *MemorySavedStore) DeleteSavedListing(ctx context.Context, row models.SavedListing) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey(row.UserID, row.ListingID)
	if cur, ok := s.rows[k]; !ok || cur.ID != row.ID {
		return 0, nil
	}
	delete(s.rows, k)
	return 1, nil
}

func (s *MemorySavedStore) ListSavedListings(ctx context.Context, userID string) ([]models.SavedListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SavedListing
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

// Count reports how many rows exist for the pair.
func (s *MemorySavedStore) Count(userID, listingID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[pairKey(userID, listingID)]; ok {
		return 1
	}
	return 0
}

type ledgerEntry struct {
	state    favorites.State
	recorded bool
	expires  time.Time
}

// MemoryLedger is an in-process favorites.Ledger with per-key expiry.
type MemoryLedger struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]ledgerEntry
	now     func() time.Time
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{ttl: ttl, entries: make(map[string]ledgerEntry), now: time.Now}
}

func (m *MemoryLedger) live(key string) (ledgerEntry, bool) {
	e, ok := m.entries[key]
	if ok && m.now().After(e.expires) {
		delete(m.entries, key)
		return ledgerEntry{}, false
	}
	return e, ok
}

func (m *MemoryLedger) Claim(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(key); ok {
		return false, nil
	}
	m.entries[key] = ledgerEntry{expires: m.now().Add(m.ttl)}
	return true, nil
}

func (m *MemoryLedger) Record(ctx context.Context, key string, state favorites.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = ledgerEntry{state: state, recorded: true, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryLedger) Lookup(ctx context.Context, key string) (favorites.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok || !e.recorded {
		return favorites.Unsaved, false, nil
	}
	return e.state, true, nil
}

func (m *MemoryLedger) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
