package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dcode-github/property_listing_search/logger"
	"github.com/dcode-github/property_listing_search/models"
	"go.uber.org/zap"
)

type ContextKey string

const UserIDKey = ContextKey("userID")

func userFrom(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

func writeJSON(w http.ResponseWriter, status int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// writeError maps service errors to status codes. A store failure is a 503
// so clients can tell it apart from an empty result.
func writeError(w http.ResponseWriter, log *logger.Logger, err error, unavailable string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "Listing not found", http.StatusNotFound)
	case models.IsRepositoryError(err):
		http.Error(w, unavailable, http.StatusServiceUnavailable)
	default:
		log.Error("unexpected handler error", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
