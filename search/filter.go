package search

import "github.com/dcode-github/property_listing_search/models"

// Int is an optional non-negative integer bound.
type Int struct {
	v  int64
	ok bool
}

func Some(v int64) Int { return Int{v: v, ok: true} }

func (i Int) Get() (int64, bool) { return i.v, i.ok }

func (i Int) IsSet() bool { return i.ok }

// StatusSet is the set of public statuses a search asks for.
type StatusSet uint8

const (
	ForSale StatusSet = 1 << iota
	ForRent

	DefaultStatuses = ForSale | ForRent
)

func (s StatusSet) Has(x StatusSet) bool { return s&x == x }

// Stored returns the persisted statuses matched by the set, in a fixed order.
// A listing marked "both" is available for sale and for rent.
func (s StatusSet) Stored() []models.ListingStatus {
	out := make([]models.ListingStatus, 0, 3)
	if s.Has(ForSale) {
		out = append(out, models.StatusForSale)
	}
	if s.Has(ForRent) {
		out = append(out, models.StatusForRent)
	}
	if len(out) > 0 {
		out = append(out, models.StatusBoth)
	}
	return out
}

type Sort int

const (
	NewestFirst Sort = iota
	PriceAscending
	PriceDescending
)

func (s Sort) String() string {
	switch s {
	case PriceAscending:
		return "priceAscending"
	case PriceDescending:
		return "priceDescending"
	default:
		return "newestFirst"
	}
}

// FilterSpec is the normalized form of one search request. It is a comparable
// value: two requests with the same intent produce equal specs.
type FilterSpec struct {
	Text         string
	PropertyType models.PropertyType
	District     string
	Statuses     StatusSet
	// FeaturedOnly keeps only listings marked featured. False means no
	// constraint, not "not featured".
	FeaturedOnly bool

	PriceMin, PriceMax         Int
	BedroomsMin, BedroomsMax   Int
	BathroomsMin, BathroomsMax Int
	SizeMin, SizeMax           Int

	Sort Sort
}

// DefaultFilter is what an empty query normalizes to.
func DefaultFilter() FilterSpec {
	return FilterSpec{Statuses: DefaultStatuses, Sort: NewestFirst}
}
