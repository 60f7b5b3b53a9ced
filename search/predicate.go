package search

// Field names a searchable listing attribute. Repositories map fields to
// their own column or document keys.
type Field string

const (
	FieldID           Field = "id"
	FieldStatus       Field = "status"
	FieldPropertyType Field = "property_type"
	FieldDistrict     Field = "location_district"
	FieldCity         Field = "location_city"
	FieldTitle        Field = "title"
	FieldPrice        Field = "price"
	FieldBedrooms     Field = "bedrooms"
	FieldBathrooms    Field = "bathrooms"
	FieldSize         Field = "size_sqft"
	FieldCreatedAt    Field = "created_at"
	FieldFeatured     Field = "is_featured"
)

// Predicate is one filter condition. The concrete types are SetMembership,
// Equals, NotEquals, Flag, TextMatch and Range; repositories switch on them.
type Predicate interface {
	predicate()
}

// SetMembership matches when the field equals any of Values.
type SetMembership struct {
	Field  Field
	Values []string
}

// Equals matches a single value, optionally ignoring case.
type Equals struct {
	Field    Field
	Value    string
	FoldCase bool
}

// NotEquals excludes a single value.
type NotEquals struct {
	Field Field
	Value string
}

// Flag matches a boolean field.
type Flag struct {
	Field Field
	Value bool
}

// TextMatch delegates to the store's text search over Fields. Every term
// must match.
type TextMatch struct {
	Fields []Field
	Terms  []string
}

type Bound int

const (
	AtLeast Bound = iota
	AtMost
)

// Range is a single inclusive bound on a numeric field. A listing whose
// field is unset never satisfies it.
type Range struct {
	Field Field
	Bound Bound
	Value int64
}

func (SetMembership) predicate() {}
func (Equals) predicate()        {}
func (NotEquals) predicate()     {}
func (Flag) predicate()          {}
func (TextMatch) predicate()     {}
func (Range) predicate()         {}

// SortDirective orders results by Key, then by TieBreak so that listings
// with equal keys always come back in the same order.
type SortDirective struct {
	Key                Field
	Descending         bool
	TieBreak           Field
	TieBreakDescending bool
}

// QueryPlan is what the planner hands to a ListingRepository.
type QueryPlan struct {
	Predicates []Predicate
	Sort       SortDirective
}
