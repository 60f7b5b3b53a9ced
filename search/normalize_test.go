package search

import (
	"net/url"
	"testing"

	"github.com/dcode-github/property_listing_search/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_EmptyInputIsDefault(t *testing.T) {
	spec := Normalize(nil)

	assert.Equal(t, DefaultFilter(), spec)
	assert.Equal(t, DefaultStatuses, spec.Statuses)
	assert.Equal(t, NewestFirst, spec.Sort)
}

func TestNormalize_PriceSwap(t *testing.T) {
	spec := Normalize(map[string]string{"minPrice": "50", "maxPrice": "25"})

	assert.Equal(t, Some(25), spec.PriceMin)
	assert.Equal(t, Some(50), spec.PriceMax)
}

func TestNormalize_SizeSwap(t *testing.T) {
	spec := Normalize(map[string]string{"minSize": "900", "maxSize": "100"})

	assert.Equal(t, Some(100), spec.SizeMin)
	assert.Equal(t, Some(900), spec.SizeMax)
}

func TestNormalize_RoomCounts(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]string
		min, max Int
	}{
		{"open lower bound", map[string]string{"beds": "4+"}, Some(4), Int{}},
		{"exact", map[string]string{"beds": "3"}, Some(3), Some(3)},
		{"any", map[string]string{"beds": "any"}, Int{}, Int{}},
		{"all", map[string]string{"beds": "All"}, Int{}, Int{}},
		{"garbage", map[string]string{"beds": "lots"}, Int{}, Int{}},
		{"negative", map[string]string{"beds": "-2"}, Int{}, Int{}},
		{"alias", map[string]string{"bedrooms": "2+"}, Some(2), Int{}},
		{"short key wins", map[string]string{"beds": "5", "bedrooms": "1"}, Some(5), Some(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Normalize(tt.raw)
			assert.Equal(t, tt.min, spec.BedroomsMin)
			assert.Equal(t, tt.max, spec.BedroomsMax)
		})
	}
}

func TestNormalize_Bathrooms(t *testing.T) {
	spec := Normalize(map[string]string{"baths": "2+"})
	assert.Equal(t, Some(2), spec.BathroomsMin)
	assert.False(t, spec.BathroomsMax.IsSet())

	spec = Normalize(map[string]string{"bathrooms": "1"})
	assert.Equal(t, Some(1), spec.BathroomsMin)
	assert.Equal(t, Some(1), spec.BathroomsMax)
}

func TestNormalize_PriceBucket(t *testing.T) {
	tests := []struct {
		bucket   string
		min, max Int
	}{
		{"0-25m", Some(0), Some(25_000_000)},
		{"25m-50m", Some(25_000_000), Some(50_000_000)},
		{"25–50 million", Some(25_000_000), Some(50_000_000)},
		{"100m+", Some(100_000_000), Int{}},
		{"500k-1.5m", Some(500_000), Some(1_500_000)},
		{"all", Int{}, Int{}},
		{"", Int{}, Int{}},
		{"cheap", Int{}, Int{}},
		{"nan+", Int{}, Int{}},
		{"inf+", Int{}, Int{}},
		{"1e30m+", Int{}, Int{}},
		{"100-1e30", Int{}, Int{}},
		{"0x1p80+", Int{}, Int{}},
		{"9223372036854775807+", Int{}, Int{}},
	}
	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			spec := Normalize(map[string]string{"price": tt.bucket})
			assert.Equal(t, tt.min, spec.PriceMin)
			assert.Equal(t, tt.max, spec.PriceMax)
		})
	}
}

func TestNormalize_PriceBoundsNeverNegative(t *testing.T) {
	for _, bucket := range []string{"nan+", "inf+", "-inf+", "1e30m+", "100-1e30", "0x1p80+", "1e19-2e19", "NaN-5"} {
		spec := Normalize(map[string]string{"price": bucket})
		for _, bound := range []Int{spec.PriceMin, spec.PriceMax} {
			if v, ok := bound.Get(); ok {
				assert.GreaterOrEqual(t, v, int64(0), "bucket %q", bucket)
			}
		}
		if lo, ok := spec.PriceMin.Get(); ok {
			hi, hok := spec.PriceMax.Get()
			assert.True(t, !hok || lo <= hi, "bucket %q", bucket)
		}
	}
}

func TestNormalize_ExplicitPriceBeatsBucket(t *testing.T) {
	spec := Normalize(map[string]string{"minPrice": "10", "price": "25m-50m"})

	assert.Equal(t, Some(10), spec.PriceMin)
	assert.False(t, spec.PriceMax.IsSet())
}

func TestNormalize_UnparseableExplicitPriceFallsBackToBucket(t *testing.T) {
	spec := Normalize(map[string]string{"minPrice": "abc", "maxPrice": "-1", "price": "100m+"})

	assert.Equal(t, Some(100_000_000), spec.PriceMin)
	assert.False(t, spec.PriceMax.IsSet())
}

func TestNormalize_Status(t *testing.T) {
	tests := []struct {
		raw  string
		want StatusSet
	}{
		{"", DefaultStatuses},
		{"all", DefaultStatuses},
		{"both", DefaultStatuses},
		{"sale", ForSale},
		{"forSale", ForSale},
		{"for_sale", ForSale},
		{"rent", ForRent},
		{"For-Rent", ForRent},
		{"sold", DefaultStatuses},
		{"off_market", DefaultStatuses},
		{"nonsense", DefaultStatuses},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(map[string]string{"status": tt.raw}).Statuses)
		})
	}
}

func TestNormalize_PropertyType(t *testing.T) {
	tests := []struct {
		raw  string
		want models.PropertyType
	}{
		{"house", models.TypeHouse},
		{"Houses", models.TypeHouse},
		{"APARTMENT", models.TypeApartment},
		{"land", models.TypeLand},
		{"Commercial", models.TypeCommercial},
		{"all", ""},
		{"castle", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(map[string]string{"type": tt.raw}).PropertyType)
		})
	}
}

func TestNormalize_Sort(t *testing.T) {
	tests := []struct {
		raw  string
		want Sort
	}{
		{"", NewestFirst},
		{"newest", NewestFirst},
		{"price_asc", PriceAscending},
		{"priceAscending", PriceAscending},
		{"price-desc", PriceDescending},
		{"PriceDescending", PriceDescending},
		{"random", NewestFirst},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(map[string]string{"sort": tt.raw}).Sort)
		})
	}
}

func TestNormalize_TextAndDistrict(t *testing.T) {
	spec := Normalize(map[string]string{"q": "  modern \t villa  ", "district": " Kilimani "})

	assert.Equal(t, "modern villa", spec.Text)
	assert.Equal(t, "Kilimani", spec.District)
}

func TestNormalize_Featured(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"1", true},
		{" YES ", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"featured", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(map[string]string{"featured": tt.raw}).FeaturedOnly)
		})
	}
}

func TestNormalize_SameIntentIsEqual(t *testing.T) {
	a := Normalize(map[string]string{"beds": "4+", "status": "for_sale", "maxPrice": "50000000"})
	b := Normalize(map[string]string{"bedrooms": "4+", "status": "forSale", "maxPrice": " 50000000 "})

	assert.True(t, a == b)
}

func TestFromQuery_UsesFirstValue(t *testing.T) {
	q := url.Values{"minPrice": {"5", "100"}, "type": {"land"}}

	spec := FromQuery(q)

	assert.Equal(t, Some(5), spec.PriceMin)
	assert.Equal(t, models.TypeLand, spec.PropertyType)
}
