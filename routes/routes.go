package routes

import (
	"net/http"
	"time"

	"github.com/dcode-github/property_listing_search/controllers"
	"github.com/dcode-github/property_listing_search/favorites"
	"github.com/dcode-github/property_listing_search/logger"
	"github.com/dcode-github/property_listing_search/metrics"
	"github.com/dcode-github/property_listing_search/middleware"
	"github.com/dcode-github/property_listing_search/utils"
	"github.com/gorilla/mux"
)

type Deps struct {
	Search        controllers.ListingSearcher
	Saved         controllers.SavedListings
	Validator     *utils.TokenValidator
	Log           *logger.Logger
	Metrics       *metrics.Manager
	SearchTimeout time.Duration
}

func Routes(router *mux.Router, d Deps) {
	log := d.Log.Named("controllers")

	router.Use(middleware.Recoverer(d.Log), middleware.RequestLogger(d.Log, d.Metrics))

	// Public routes
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	router.Handle("/metrics", d.Metrics.Handler()).Methods("GET")
	router.HandleFunc("/listings", controllers.SearchListings(d.Search, log, d.SearchTimeout)).Methods("GET")
	router.HandleFunc("/listings/{slug}", controllers.GetListing(d.Search, log)).Methods("GET")
	router.HandleFunc("/listings/{slug}/related", controllers.RelatedListings(d.Search, log)).Methods("GET")
	router.HandleFunc("/locations", controllers.Locations(d.Search, log)).Methods("GET")

	// Routes that require authentication
	authenticated := router.PathPrefix("/api").Subrouter()
	authenticated.Use(middleware.AuthMiddleware(d.Validator, d.Log))

	// Saved listing routes
	authenticated.HandleFunc("/saved", controllers.ListSaved(d.Saved, log)).Methods("GET")
	authenticated.HandleFunc("/saved/{listingId}", controllers.GetSavedStatus(d.Saved, log)).Methods("GET")
	authenticated.HandleFunc("/saved/{listingId}", controllers.SetSaved(d.Saved, log, favorites.Saved)).Methods("PUT")
	authenticated.HandleFunc("/saved/{listingId}", controllers.SetSaved(d.Saved, log, favorites.Unsaved)).Methods("DELETE")
	authenticated.HandleFunc("/saved/{listingId}/toggle", controllers.ToggleSaved(d.Saved, log)).Methods("POST")
}
