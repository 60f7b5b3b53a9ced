package search

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/dcode-github/property_listing_search/logger"
	"github.com/dcode-github/property_listing_search/metrics"
	"github.com/dcode-github/property_listing_search/models"
	"go.uber.org/zap"
)

// ListingRepository is the part of the listing store that search reads from.
// FindListings applies predicates conjunctively and returns results in sort
// order. Store failures are returned as *models.RepositoryError.
type ListingRepository interface {
	FindListings(ctx context.Context, preds []Predicate, sort SortDirective) ([]models.Listing, error)
	FindBySlug(ctx context.Context, slug string) (*models.Listing, error)
	SuggestLocations(ctx context.Context, prefix string, limit int) ([]string, error)
}

const (
	minLocationQuery   = 2
	maxLocationResults = 10
)

type Service struct {
	repo    ListingRepository
	log     *logger.Logger
	metrics *metrics.Manager
}

func NewService(repo ListingRepository, log *logger.Logger, m *metrics.Manager) *Service {
	return &Service{repo: repo, log: log.Named("search"), metrics: m}
}

// Search runs a query built from raw URL parameters.
func (s *Service) Search(ctx context.Context, params url.Values) ([]models.Listing, error) {
	return s.SearchSpec(ctx, FromQuery(params))
}

func (s *Service) SearchSpec(ctx context.Context, spec FilterSpec) ([]models.Listing, error) {
	plan := Plan(spec)

	start := time.Now()
	listings, err := s.repo.FindListings(ctx, plan.Predicates, plan.Sort)
	elapsed := time.Since(start)

	if err != nil {
		s.observe("error", elapsed, 0)
		s.log.Error("listing search failed",
			zap.Int("predicates", len(plan.Predicates)),
			zap.String("sort", spec.Sort.String()),
			zap.Error(err))
		if !models.IsRepositoryError(err) {
			err = models.NewRepositoryError("find listings", err)
		}
		return nil, err
	}

	outcome := "hit"
	if len(listings) == 0 {
		outcome = "empty"
	}
	s.observe(outcome, elapsed, len(listings))
	s.log.Debug("listing search",
		zap.Int("predicates", len(plan.Predicates)),
		zap.String("sort", spec.Sort.String()),
		zap.Int("results", len(listings)),
		zap.Duration("elapsed", elapsed))

	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}

// Listing returns one publicly visible listing by slug. Sold and off-market
// listings are reported as models.ErrNotFound.
func (s *Service) Listing(ctx context.Context, slug string) (*models.Listing, error) {
	l, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.log.Error("listing lookup failed", zap.String("slug", slug), zap.Error(err))
		}
		return nil, err
	}
	if !l.Status.Public() {
		return nil, models.ErrNotFound
	}
	return l, nil
}

// Related returns up to three other public listings of the same property
// type as the listing at slug, newest first.
func (s *Service) Related(ctx context.Context, slug string) ([]models.Listing, error) {
	l, err := s.Listing(ctx, slug)
	if err != nil {
		return nil, err
	}
	if l.PropertyType == "" {
		return []models.Listing{}, nil
	}

	plan := PlanRelated(*l)
	listings, err := s.repo.FindListings(ctx, plan.Predicates, plan.Sort)
	if err != nil {
		s.log.Error("related listings failed", zap.String("slug", slug), zap.Error(err))
		if !models.IsRepositoryError(err) {
			err = models.NewRepositoryError("find related listings", err)
		}
		return nil, err
	}
	if len(listings) > maxRelated {
		listings = listings[:maxRelated]
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}

// Locations suggests distinct city names containing query. Queries shorter
// than two characters return nothing.
func (s *Service) Locations(ctx context.Context, query string) ([]string, error) {
	query = collapseSpaces(query)
	if len([]rune(query)) < minLocationQuery {
		return []string{}, nil
	}
	cities, err := s.repo.SuggestLocations(ctx, query, maxLocationResults)
	if err != nil {
		s.log.Error("location suggestions failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	if cities == nil {
		cities = []string{}
	}
	return cities, nil
}

func (s *Service) observe(outcome string, elapsed time.Duration, n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchRequests.WithLabelValues(outcome).Inc()
	s.metrics.SearchLatency.Observe(elapsed.Seconds())
	if outcome != "error" {
		s.metrics.SearchResults.Observe(float64(n))
	}
}
