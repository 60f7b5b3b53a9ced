package controllers

import (
	"context"
	"net/http"

	"github.com/dcode-github/property_listing_search/favorites"
	"github.com/dcode-github/property_listing_search/logger"
	"github.com/dcode-github/property_listing_search/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type SavedListings interface {
	ToggleOnce(ctx context.Context, userID, listingID, requestKey string) (favorites.State, error)
	Ensure(ctx context.Context, userID, listingID string, want favorites.State) (favorites.State, error)
	IsSaved(ctx context.Context, userID, listingID string) (favorites.State, error)
	ListSaved(ctx context.Context, userID string) ([]models.Listing, error)
}

// IdempotencyKeyHeader carries the client's request key for toggles. A
// retried toggle with the same key does not flip the state again.
const IdempotencyKeyHeader = "Idempotency-Key"

const savedUnavailable = "saved listings unavailable"

type SavedStatus struct {
	ListingID string `json:"listingId"`
	Saved     bool   `json:"saved"`
}

func ToggleSaved(saved SavedListings, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userFrom(r)
		if !ok {
			log.Warn("user ID missing in context")
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}
		listingID := mux.Vars(r)["listingId"]

		state, err := saved.ToggleOnce(r.Context(), userID, listingID, r.Header.Get(IdempotencyKeyHeader))
		if err != nil {
			writeError(w, log, err, savedUnavailable)
			return
		}

		msg := "Listing removed from saved"
		if state.Saved() {
			msg = "Listing saved"
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Success: true,
			Message: msg,
			Data:    SavedStatus{ListingID: listingID, Saved: state.Saved()},
		})
	}
}

// SetSaved serves PUT (want Saved) and DELETE (want Unsaved). Both are
// idempotent.
func SetSaved(saved SavedListings, log *logger.Logger, want favorites.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userFrom(r)
		if !ok {
			log.Warn("user ID missing in context")
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}
		listingID := mux.Vars(r)["listingId"]

		state, err := saved.Ensure(r.Context(), userID, listingID, want)
		if err != nil {
			writeError(w, log, err, savedUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Success: true,
			Message: "Listing " + state.String(),
			Data:    SavedStatus{ListingID: listingID, Saved: state.Saved()},
		})
	}
}

func GetSavedStatus(saved SavedListings, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userFrom(r)
		if !ok {
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}
		listingID := mux.Vars(r)["listingId"]

		state, err := saved.IsSaved(r.Context(), userID, listingID)
		if err != nil {
			writeError(w, log, err, savedUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Success: true,
			Message: "Fetched saved status",
			Data:    SavedStatus{ListingID: listingID, Saved: state.Saved()},
		})
	}
}

func ListSaved(saved SavedListings, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userFrom(r)
		if !ok {
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}

		listings, err := saved.ListSaved(r.Context(), userID)
		if err != nil {
			log.Warn("listing saved listings failed", zap.String("user_id", userID), zap.Error(err))
			writeError(w, log, err, savedUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Success: true,
			Message: "Fetched saved listings",
			Data:    listings,
		})
	}
}
