package models

import "time"

// SavedListing is one user's bookmark of one listing. The store keeps at most
// one row per (UserID, ListingID).
type SavedListing struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	ListingID string    `bson:"listing_id" json:"listingId"`
	SavedAt   time.Time `bson:"saved_at" json:"savedAt"`
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
