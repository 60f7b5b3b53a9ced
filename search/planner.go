package search

import (
	"strings"
	"unicode/utf8"

	"github.com/dcode-github/property_listing_search/models"
)

// minTextSignal is the shortest free-text query, ignoring spaces, that is
// worth sending to the store's text search.
const minTextSignal = 2

// Plan translates a FilterSpec into predicates and a sort directive. The
// predicate order is fixed: status, type, district, featured, text, price,
// bedrooms, bathrooms, size.
func Plan(spec FilterSpec) QueryPlan {
	var preds []Predicate

	preds = append(preds, statusPredicate(spec.Statuses))

	if spec.PropertyType != "" {
		preds = append(preds, Equals{Field: FieldPropertyType, Value: string(spec.PropertyType), FoldCase: true})
	}
	if spec.District != "" {
		preds = append(preds, Equals{Field: FieldDistrict, Value: spec.District, FoldCase: true})
	}

	if spec.FeaturedOnly {
		preds = append(preds, Flag{Field: FieldFeatured, Value: true})
	}

	if terms := textTerms(spec.Text); terms != nil {
		preds = append(preds, TextMatch{Fields: []Field{FieldTitle, FieldCity}, Terms: terms})
	}

	preds = appendRange(preds, FieldPrice, spec.PriceMin, spec.PriceMax)
	preds = appendRange(preds, FieldBedrooms, spec.BedroomsMin, spec.BedroomsMax)
	preds = appendRange(preds, FieldBathrooms, spec.BathroomsMin, spec.BathroomsMax)
	preds = appendRange(preds, FieldSize, spec.SizeMin, spec.SizeMax)

	return QueryPlan{Predicates: preds, Sort: sortDirective(spec.Sort)}
}

func statusPredicate(statuses StatusSet) Predicate {
	if statuses == 0 {
		statuses = DefaultStatuses
	}
	stored := statuses.Stored()
	values := make([]string, len(stored))
	for i, s := range stored {
		values[i] = string(s)
	}
	return SetMembership{Field: FieldStatus, Values: values}
}

// maxRelated caps the "similar listings" strip.
const maxRelated = 3

// PlanRelated finds public listings of the same property type as l,
// excluding l itself, newest first.
func PlanRelated(l models.Listing) QueryPlan {
	preds := []Predicate{
		statusPredicate(DefaultStatuses),
		Equals{Field: FieldPropertyType, Value: string(l.PropertyType), FoldCase: true},
		NotEquals{Field: FieldID, Value: l.ID},
	}
	return QueryPlan{Predicates: preds, Sort: sortDirective(NewestFirst)}
}

func appendRange(preds []Predicate, field Field, min, max Int) []Predicate {
	if v, ok := min.Get(); ok {
		preds = append(preds, Range{Field: field, Bound: AtLeast, Value: v})
	}
	if v, ok := max.Get(); ok {
		preds = append(preds, Range{Field: field, Bound: AtMost, Value: v})
	}
	return preds
}

func textTerms(text string) []string {
	terms := strings.Fields(text)
	signal := 0
	for _, t := range terms {
		signal += utf8.RuneCountInString(t)
	}
	if signal < minTextSignal {
		return nil
	}
	return terms
}

func sortDirective(s Sort) SortDirective {
	d := SortDirective{TieBreak: FieldID, TieBreakDescending: true}
	switch s {
	case PriceAscending:
		d.Key = FieldPrice
	case PriceDescending:
		d.Key, d.Descending = FieldPrice, true
	default:
		d.Key, d.Descending = FieldCreatedAt, true
	}
	return d
}
