package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dcode-github/property_listing_search/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSavedStore relies on the user_listing_unique index created by
// EnsureIndexes for its uniqueness guarantee.
type MongoSavedStore struct {
	collection *mongo.Collection
}

func NewMongoSavedStore(db *mongo.Database) *MongoSavedStore {
	return &MongoSavedStore{collection: db.Collection(SavedCollection)}
}

func (s *MongoSavedStore) GetSavedListing(ctx context.Context, userID, listingID string) (*models.SavedListing, error) {
	var row models.SavedListing
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID, "listing_id": listingID}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewRepositoryError("get saved listing", err)
	}
	return &row, nil
}

func (s *MongoSavedStore) InsertSavedListing(ctx context.Context, userID, listingID string) (*models.SavedListing, error) {
	row := models.SavedListing{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    userID,
		ListingID: listingID,
		SavedAt:   time.Now().UTC(),
	}
	if _, err := s.collection.InsertOne(ctx, row); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrAlreadyExists
		}
		return nil, models.NewRepositoryError("insert saved listing", err)
	}
	return &row, nil
}

// DeleteSavedListing removes the row by its own id, so a row re-created by a
// concurrent insert after the caller's read is left alone.
func (s *MongoSavedStore) DeleteSavedListing(ctx context.Context, row models.SavedListing) (int64, error) {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": row.ID})
	if err != nil {
		return 0, models.NewRepositoryError("delete saved listing", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoSavedStore) ListSavedListings(ctx context.Context, userID string) ([]models.SavedListing, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "saved_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, models.NewRepositoryError("list saved listings", err)
	}
	defer cursor.Close(ctx)

	var rows []models.SavedListing
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, models.NewRepositoryError("decode saved listings", err)
	}
	return rows, nil
}
