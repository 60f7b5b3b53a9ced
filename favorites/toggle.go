package favorites

import (
	"context"
	"errors"
	"time"

	"github.com/dcode-github/property_listing_search/logger"
	"github.com/dcode-github/property_listing_search/metrics"
	"github.com/dcode-github/property_listing_search/models"
	"go.uber.org/zap"
)

type State int

const (
	Unsaved State = iota
	Saved
)

func (s State) Saved() bool { return s == Saved }

func (s State) String() string {
	if s == Saved {
		return "saved"
	}
	return "unsaved"
}

func StateOf(saved bool) State {
	if saved {
		return Saved
	}
	return Unsaved
}

const (
	defaultClaimWait    = 2 * time.Second
	defaultPollInterval = 50 * time.Millisecond
)

type Options struct {
	Ledger    Ledger
	Publisher Publisher
	// ClaimWait bounds how long a duplicate request waits for the outcome
	// of the request that holds its key.
	ClaimWait time.Duration
}

type Service struct {
	store     SavedListingStore
	listings  ListingLookup
	ledger    Ledger
	publisher Publisher
	claimWait time.Duration
	log       *logger.Logger
	metrics   *metrics.Manager
}

func NewService(store SavedListingStore, listings ListingLookup, log *logger.Logger, m *metrics.Manager, opts Options) *Service {
	wait := opts.ClaimWait
	if wait <= 0 {
		wait = defaultClaimWait
	}
	return &Service{
		store:     store,
		listings:  listings,
		ledger:    opts.Ledger,
		publisher: opts.Publisher,
		claimWait: wait,
		log:       log.Named("favorites"),
		metrics:   m,
	}
}

// Toggle flips the saved state of (userID, listingID) relative to what the
// store holds right now. A concurrent caller that reaches the same end state
// first is not an error: the insert or delete it beat us to is treated as
// done.
func (s *Service) Toggle(ctx context.Context, userID, listingID string) (State, error) {
	row, err := s.store.GetSavedListing(ctx, userID, listingID)
	if err != nil {
		return Unsaved, s.fail("read saved listing", userID, listingID, err)
	}

	if row == nil {
		return s.insert(ctx, userID, listingID)
	}
	return s.delete(ctx, *row)
}

// Ensure drives (userID, listingID) to want, doing nothing when it is
// already there.
func (s *Service) Ensure(ctx context.Context, userID, listingID string, want State) (State, error) {
	row, err := s.store.GetSavedListing(ctx, userID, listingID)
	if err != nil {
		return Unsaved, s.fail("read saved listing", userID, listingID, err)
	}
	switch {
	case want == Saved && row == nil:
		return s.insert(ctx, userID, listingID)
	case want == Unsaved && row != nil:
		return s.delete(ctx, *row)
	}
	s.count("noop")
	return want, nil
}

// ToggleOnce is Toggle for requests that may be retried. Calls sharing a
// non-empty requestKey flip the state at most once; later calls get the
// first call's outcome.
func (s *Service) ToggleOnce(ctx context.Context, userID, listingID, requestKey string) (State, error) {
	if requestKey == "" || s.ledger == nil {
		return s.Toggle(ctx, userID, listingID)
	}
	key := ledgerKey(userID, listingID, requestKey)

	if state, found, err := s.ledger.Lookup(ctx, key); err != nil {
		return Unsaved, s.fail("lookup toggle request", userID, listingID, err)
	} else if found {
		s.count("replayed")
		return state, nil
	}

	claimed, err := s.ledger.Claim(ctx, key)
	if err != nil {
		return Unsaved, s.fail("claim toggle request", userID, listingID, err)
	}
	if !claimed {
		return s.awaitOutcome(ctx, key, userID, listingID)
	}

	state, err := s.Toggle(ctx, userID, listingID)
	if err != nil {
		if relErr := s.ledger.Release(context.WithoutCancel(ctx), key); relErr != nil {
			s.log.Warn("releasing toggle request failed", zap.String("user_id", userID), zap.String("listing_id", listingID), zap.Error(relErr))
		}
		return Unsaved, err
	}
	if err := s.ledger.Record(context.WithoutCancel(ctx), key, state); err != nil {
		s.log.Warn("recording toggle outcome failed", zap.String("user_id", userID), zap.String("listing_id", listingID), zap.Error(err))
	}
	return state, nil
}

// awaitOutcome serves a duplicate of an in-flight request. If the original
// has not recorded an outcome within claimWait, the current stored state is
// reported without writing anything.
func (s *Service) awaitOutcome(ctx context.Context, key, userID, listingID string) (State, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.claimWait)
	defer cancel()

	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return Unsaved, ctx.Err()
			}
			s.count("replayed")
			return s.IsSaved(ctx, userID, listingID)
		case <-ticker.C:
			state, found, err := s.ledger.Lookup(waitCtx, key)
			if err != nil && waitCtx.Err() == nil {
				return Unsaved, s.fail("lookup toggle request", userID, listingID, err)
			}
			if found {
				s.count("replayed")
				return state, nil
			}
		}
	}
}

func (s *Service) IsSaved(ctx context.Context, userID, listingID string) (State, error) {
	row, err := s.store.GetSavedListing(ctx, userID, listingID)
	if err != nil {
		return Unsaved, s.fail("read saved listing", userID, listingID, err)
	}
	return StateOf(row != nil), nil
}

// ListSaved returns the user's saved listings, most recently saved first.
// Rows pointing at listings that no longer exist are skipped.
func (s *Service) ListSaved(ctx context.Context, userID string) ([]models.Listing, error) {
	rows, err := s.store.ListSavedListings(ctx, userID)
	if err != nil {
		return nil, s.fail("list saved listings", userID, "", err)
	}
	if len(rows) == 0 {
		return []models.Listing{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ListingID
	}
	found, err := s.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, s.fail("resolve saved listings", userID, "", err)
	}

	byID := make(map[string]models.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	out := make([]models.Listing, 0, len(rows))
	for _, r := range rows {
		if l, ok := byID[r.ListingID]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Service) insert(ctx context.Context, userID, listingID string) (State, error) {
	_, err := s.store.InsertSavedListing(ctx, userID, listingID)
	if errors.Is(err, models.ErrAlreadyExists) {
		s.log.Debug("saved listing created concurrently", zap.String("user_id", userID), zap.String("listing_id", listingID))
		s.count("race_saved")
		return Saved, nil
	}
	if err != nil {
		return Unsaved, s.fail("insert saved listing", userID, listingID, err)
	}
	s.count("saved")
	s.publish(ctx, SubjectSaved, userID, listingID, true)
	return Saved, nil
}

func (s *Service) delete(ctx context.Context, row models.SavedListing) (State, error) {
	n, err := s.store.DeleteSavedListing(ctx, row)
	if err != nil {
		return Saved, s.fail("delete saved listing", row.UserID, row.ListingID, err)
	}
	if n == 0 {
		s.log.Debug("saved listing removed concurrently", zap.String("user_id", row.UserID), zap.String("listing_id", row.ListingID))
		s.count("race_unsaved")
		return Unsaved, nil
	}
	s.count("unsaved")
	s.publish(ctx, SubjectUnsaved, row.UserID, row.ListingID, false)
	return Unsaved, nil
}

func (s *Service) publish(ctx context.Context, subject, userID, listingID string, saved bool) {
	if s.publisher == nil {
		return
	}
	ev := Event{UserID: userID, ListingID: listingID, Saved: saved}
	if err := s.publisher.Publish(ctx, subject, ev); err != nil {
		s.log.Warn("publishing saved-listing event failed", zap.String("subject", subject), zap.Error(err))
	}
}

func (s *Service) fail(op, userID, listingID string, err error) error {
	s.count("error")
	s.log.Error(op+" failed", zap.String("user_id", userID), zap.String("listing_id", listingID), zap.Error(err))
	if models.IsRepositoryError(err) {
		return err
	}
	return models.NewRepositoryError(op, err)
}

func (s *Service) count(result string) {
	if s.metrics != nil {
		s.metrics.ToggleTotal.WithLabelValues(result).Inc()
	}
}

// ledgerKey joins with NUL, which cannot appear in ids or header values, so
// distinct (user, listing, key) triples never share a ledger entry.
func ledgerKey(userID, listingID, requestKey string) string {
	return userID + "\x00" + listingID + "\x00" + requestKey
}
