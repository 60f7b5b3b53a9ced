package search

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/dcode-github/property_listing_search/models"
)

// Normalize turns raw query parameters into a FilterSpec. It never fails:
// anything it cannot understand is dropped to its default.
func Normalize(raw map[string]string) FilterSpec {
	spec := DefaultFilter()

	spec.Text = collapseSpaces(raw["q"])
	spec.PropertyType = parsePropertyType(raw["type"])
	spec.District = collapseSpaces(raw["district"])
	spec.Statuses = parseStatus(raw["status"])
	spec.FeaturedOnly = parseTruthy(raw["featured"])

	spec.PriceMin = parseInt(raw["minPrice"])
	spec.PriceMax = parseInt(raw["maxPrice"])
	if !spec.PriceMin.IsSet() && !spec.PriceMax.IsSet() {
		spec.PriceMin, spec.PriceMax = parsePriceBucket(raw["price"])
	}
	spec.PriceMin, spec.PriceMax = ordered(spec.PriceMin, spec.PriceMax)

	spec.BedroomsMin, spec.BedroomsMax = parseRoomCount(firstOf(raw, "beds", "bedrooms"))
	spec.BathroomsMin, spec.BathroomsMax = parseRoomCount(firstOf(raw, "baths", "bathrooms"))

	spec.SizeMin = parseInt(raw["minSize"])
	spec.SizeMax = parseInt(raw["maxSize"])
	spec.SizeMin, spec.SizeMax = ordered(spec.SizeMin, spec.SizeMax)

	spec.Sort = parseSort(raw["sort"])
	return spec
}

// FromQuery normalizes URL query values, using the first value of each key.
func FromQuery(q url.Values) FilterSpec {
	raw := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			raw[k] = vs[0]
		}
	}
	return Normalize(raw)
}

func firstOf(raw map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(raw[k]); v != "" {
			return v
		}
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isAny(s string) bool {
	switch s {
	case "", "all", "any":
		return true
	}
	return false
}

// token lowercases s and drops separators so "for_sale", "For-Sale" and
// "forSale" compare equal.
func token(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func parseInt(s string) Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return Int{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return Int{}
	}
	return Some(n)
}

func ordered(lo, hi Int) (Int, Int) {
	l, lok := lo.Get()
	h, hok := hi.Get()
	if lok && hok && l > h {
		return hi, lo
	}
	return lo, hi
}

func parsePropertyType(s string) models.PropertyType {
	t := token(s)
	if isAny(t) {
		return ""
	}
	switch t {
	case "house", "houses":
		return models.TypeHouse
	case "apartment", "apartments", "flat", "flats":
		return models.TypeApartment
	case "land", "lands":
		return models.TypeLand
	case "commercial":
		return models.TypeCommercial
	}
	return ""
}

func parseTruthy(s string) bool {
	switch token(s) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseStatus narrows to a single public status. Anything else, including
// sold and off-market, falls back to the default set.
func parseStatus(s string) StatusSet {
	switch token(s) {
	case "sale", "forsale", "buy":
		return ForSale
	case "rent", "forrent":
		return ForRent
	}
	return DefaultStatuses
}

// parseRoomCount maps "N+" to an open lower bound and "N" to an exact match.
func parseRoomCount(s string) (min, max Int) {
	s = strings.ToLower(strings.TrimSpace(s))
	if isAny(s) {
		return Int{}, Int{}
	}
	if strings.HasSuffix(s, "+") {
		return parseInt(strings.TrimSuffix(s, "+")), Int{}
	}
	n := parseInt(s)
	return n, n
}

func parseSort(s string) Sort {
	switch token(s) {
	case "priceasc", "priceascending", "pricelowtohigh":
		return PriceAscending
	case "pricedesc", "pricedescending", "pricehightolow":
		return PriceDescending
	}
	return NewestFirst
}

// parsePriceBucket reads the range strings offered by the price dropdown:
// "0-25m", "25m-50m", "25–50 million", "100m+". A unit written only on the
// upper end applies to both ends.
func parsePriceBucket(s string) (min, max Int) {
	s = strings.ToLower(strings.TrimSpace(s))
	if isAny(s) {
		return Int{}, Int{}
	}
	if strings.HasSuffix(s, "+") {
		lo, ok := parseAmount(strings.TrimSuffix(s, "+"), 1)
		if !ok {
			return Int{}, Int{}
		}
		return Some(lo), Int{}
	}

	s = strings.NewReplacer("–", "-", "—", "-", " to ", "-").Replace(s)
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Int{}, Int{}
	}
	_, unit := splitUnit(parts[1])
	lo, lok := parseAmount(parts[0], unit)
	hi, hok := parseAmount(parts[1], unit)
	if !lok || !hok {
		return Int{}, Int{}
	}
	return Some(lo), Some(hi)
}

// parseAmount parses "25", "25m" or "1.5 million". fallbackUnit is used when
// the amount carries no unit of its own.
func parseAmount(s string, fallbackUnit int64) (int64, bool) {
	num, unit := splitUnit(s)
	if unit == 0 {
		unit = fallbackUnit
	}
	if unit == 0 {
		unit = 1
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || f >= float64(math.MaxInt64)/float64(unit) {
		return 0, false
	}
	return int64(f * float64(unit)), true
}

// splitUnit separates a trailing magnitude suffix. The returned unit is 0
// when none is present.
func splitUnit(s string) (string, int64) {
	s = strings.TrimSpace(s)
	units := []struct {
		suffix string
		mult   int64
	}{
		{"million", 1_000_000},
		{"mn", 1_000_000},
		{"m", 1_000_000},
		{"thousand", 1_000},
		{"k", 1_000},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			return strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.mult
		}
	}
	return s, 0
}
