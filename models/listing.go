package models

import "time"

type PropertyType string

const (
	TypeHouse      PropertyType = "house"
	TypeApartment  PropertyType = "apartment"
	TypeLand       PropertyType = "land"
	TypeCommercial PropertyType = "commercial"
)

// ListingStatus values are the ones persisted in the listings collection.
type ListingStatus string

const (
	StatusForSale   ListingStatus = "sale"
	StatusForRent   ListingStatus = "rent"
	StatusBoth      ListingStatus = "both"
	StatusSold      ListingStatus = "sold"
	StatusOffMarket ListingStatus = "off_market"
)

// Public reports whether a listing with this status may appear in public search.
func (s ListingStatus) Public() bool {
	return s == StatusForSale || s == StatusForRent || s == StatusBoth
}

type Listing struct {
	ID           string        `bson:"_id" json:"id"`
	Slug         string        `bson:"slug" json:"slug"`
	Title        string        `bson:"title" json:"title"`
	PropertyType PropertyType  `bson:"property_type" json:"propertyType"`
	Status       ListingStatus `bson:"status" json:"status"`
	Price        int64         `bson:"price" json:"price"`
	Bedrooms     *int          `bson:"bedrooms,omitempty" json:"bedrooms,omitempty"`
	Bathrooms    *int          `bson:"bathrooms,omitempty" json:"bathrooms,omitempty"`
	SizeSqft     *int          `bson:"size_sqft,omitempty" json:"sizeSqft,omitempty"`
	City         string        `bson:"location_city" json:"city"`
	District     string        `bson:"location_district" json:"district"`
	Photos       []string      `bson:"photos,omitempty" json:"photos,omitempty"`
	IsFeatured   bool          `bson:"is_featured" json:"isFeatured"`
	CreatedAt    time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updatedAt"`
}
