package favorites

import (
	"context"

	"github.com/dcode-github/property_listing_search/models"
)

// SavedListingStore is the saved-listings relation. Implementations must
// enforce uniqueness of (userID, listingID) themselves: InsertSavedListing
// returns models.ErrAlreadyExists when the pair is already present, and
// DeleteSavedListing removes only the row with row.ID, reporting how many
// rows it removed.
type SavedListingStore interface {
	GetSavedListing(ctx context.Context, userID, listingID string) (*models.SavedListing, error)
	InsertSavedListing(ctx context.Context, userID, listingID string) (*models.SavedListing, error)
	DeleteSavedListing(ctx context.Context, row models.SavedListing) (int64, error)
	ListSavedListings(ctx context.Context, userID string) ([]models.SavedListing, error)
}

// ListingLookup resolves saved rows to listings.
type ListingLookup interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Listing, error)
}

// Ledger remembers the outcome of toggle requests that carry a client
// request key, so a retried request is answered instead of re-applied.
type Ledger interface {
	// Claim reserves key for the caller. It returns false when the key was
	// already claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Record stores the outcome for a claimed key.
	Record(ctx context.Context, key string, state State) error
	// Lookup returns the recorded outcome. found is false while the key is
	// unknown or its claim has no outcome yet.
	Lookup(ctx context.Context, key string) (state State, found bool, err error)
	// Release drops a claim whose request failed so that a retry can run.
	Release(ctx context.Context, key string) error
}

// Publisher announces effective saved/unsaved transitions.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

const (
	SubjectSaved   = "listing.saved"
	SubjectUnsaved = "listing.unsaved"
)

// Event is the payload published on SubjectSaved and SubjectUnsaved.
type Event struct {
	UserID    string `json:"user_id"`
	ListingID string `json:"listing_id"`
	Saved     bool   `json:"saved"`
}
