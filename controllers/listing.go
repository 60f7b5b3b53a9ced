package controllers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dcode-github/property_listing_search/logger"
	"github.com/dcode-github/property_listing_search/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ListingSearcher interface {
	Search(ctx context.Context, params url.Values) ([]models.Listing, error)
	Listing(ctx context.Context, slug string) (*models.Listing, error)
	Related(ctx context.Context, slug string) ([]models.Listing, error)
	Locations(ctx context.Context, query string) ([]string, error)
}

const searchUnavailable = "search unavailable"

// SearchListings serves GET /listings. Unknown or malformed parameters are
// ignored rather than rejected.
func SearchListings(searcher ListingSearcher, log *logger.Logger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		listings, err := searcher.Search(ctx, r.URL.Query())
		if err != nil {
			log.Warn("search request failed", zap.String("query", r.URL.RawQuery), zap.Error(err))
			writeError(w, log, err, searchUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Success: true,
			Message: "Fetched listings",
			Data:    listings,
		})
	}
}

func GetListing(searcher ListingSearcher, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]
		if slug == "" {
			http.Error(w, "Listing slug is required", http.StatusBadRequest)
			return
		}

		listing, err := searcher.Listing(r.Context(), slug)
		if err != nil {
			writeError(w, log, err, searchUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Success: true,
			Message: "Fetched listing",
			Data:    listing,
		})
	}
}

// RelatedListings serves GET /listings/{slug}/related.
func RelatedListings(searcher ListingSearcher, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]
		if slug == "" {
			http.Error(w, "Listing slug is required", http.StatusBadRequest)
			return
		}

		listings, err := searcher.Related(r.Context(), slug)
		if err != nil {
			writeError(w, log, err, searchUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Success: true,
			Message: "Fetched related listings",
			Data:    listings,
		})
	}
}

func Locations(searcher ListingSearcher, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cities, err := searcher.Locations(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, log, err, searchUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Success: true,
			Message: "Fetched locations",
			Data:    cities,
		})
	}
}
