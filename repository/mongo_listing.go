package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/dcode-github/property_listing_search/models"
	"github.com/dcode-github/property_listing_search/search"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ListingsCollection = "listings"
	SavedCollection    = "saved_listings"
)

type MongoListingRepository struct {
	collection *mongo.Collection
	maxResults int64
}

// NewMongoListingRepository returns a repository over the listings
// collection. maxResults caps a single search; zero means no cap.
func NewMongoListingRepository(db *mongo.Database, maxResults int64) *MongoListingRepository {
	return &MongoListingRepository{collection: db.Collection(ListingsCollection), maxResults: maxResults}
}

func (r *MongoListingRepository) FindListings(ctx context.Context, preds []search.Predicate, dir search.SortDirective) ([]models.Listing, error) {
	findOptions := options.Find().SetSort(buildSort(dir))
	if r.maxResults > 0 {
		findOptions.SetLimit(r.maxResults)
	}

	cursor, err := r.collection.Find(ctx, buildFilter(preds), findOptions)
	if err != nil {
		return nil, models.NewRepositoryError("find listings", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, models.NewRepositoryError("decode listings", err)
	}
	return listings, nil
}

func (r *MongoListingRepository) FindBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	var listing models.Listing
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewRepositoryError("find listing by slug", err)
	}
	return &listing, nil
}

func (r *MongoListingRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, models.NewRepositoryError("find listings by id", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, models.NewRepositoryError("decode listings", err)
	}
	return listings, nil
}

// SuggestLocations returns distinct cities containing prefix, ignoring case.
func (r *MongoListingRepository) SuggestLocations(ctx context.Context, prefix string, limit int) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"location_city": primitive.Regex{Pattern: regexp.QuoteMeta(prefix), Options: "i"},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$location_city"}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.NewRepositoryError("suggest locations", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		City string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, models.NewRepositoryError("decode locations", err)
	}
	cities := make([]string, 0, len(rows))
	for _, row := range rows {
		cities = append(cities, row.City)
	}
	return cities, nil
}

// EnsureIndexes creates the indexes search and the saved-listing toggle rely
// on: unique slugs, the text index used by TextMatch, and the unique
// (user_id, listing_id) pair.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	listingIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("slug_unique")},
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "location_city", Value: "text"}}, Options: options.Index().SetName("title_city_text")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("status_created_at")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "price", Value: 1}}, Options: options.Index().SetName("status_price")},
	}
	if _, err := db.Collection(ListingsCollection).Indexes().CreateMany(ctx, listingIndexes); err != nil {
		return models.NewRepositoryError("create listing indexes", err)
	}

	savedIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("user_listing_unique")},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "saved_at", Value: -1}}, Options: options.Index().SetName("user_saved_at")},
	}
	if _, err := db.Collection(SavedCollection).Indexes().CreateMany(ctx, savedIndexes); err != nil {
		return models.NewRepositoryError("create saved listing indexes", err)
	}
	return nil
}

func bsonKey(f search.Field) string {
	if f == search.FieldID {
		return "_id"
	}
	return string(f)
}

// buildFilter ANDs the predicates in order.
func buildFilter(preds []search.Predicate) bson.M {
	conds := make(bson.A, 0, len(preds))
	for _, p := range preds {
		if c := condition(p); c != nil {
			conds = append(conds, c)
		}
	}
	if len(conds) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": conds}
}

func condition(p search.Predicate) bson.M {
	switch p := p.(type) {
	case search.SetMembership:
		return bson.M{bsonKey(p.Field): bson.M{"$in": p.Values}}
	case search.Equals:
		if p.FoldCase {
			return bson.M{bsonKey(p.Field): primitive.Regex{Pattern: "^" + regexp.QuoteMeta(p.Value) + "$", Options: "i"}}
		}
		return bson.M{bsonKey(p.Field): p.Value}
	case search.NotEquals:
		return bson.M{bsonKey(p.Field): bson.M{"$ne": p.Value}}
	case search.Flag:
		return bson.M{bsonKey(p.Field): p.Value}
	case search.TextMatch:
		// Fields are fixed by the text index; quoting every term makes
		// them all required.
		phrases := make([]string, 0, len(p.Terms))
		for _, t := range p.Terms {
			t = strings.ReplaceAll(t, `"`, "")
			if t != "" {
				phrases = append(phrases, `"`+t+`"`)
			}
		}
		if len(phrases) == 0 {
			return nil
		}
		return bson.M{"$text": bson.M{"$search": strings.Join(phrases, " ")}}
	case search.Range:
		op := "$gte"
		if p.Bound == search.AtMost {
			op = "$lte"
		}
		return bson.M{bsonKey(p.Field): bson.M{op: p.Value}}
	}
	return nil
}

func buildSort(dir search.SortDirective) bson.D {
	order := func(desc bool) int {
		if desc {
			return -1
		}
		return 1
	}
	d := bson.D{{Key: bsonKey(dir.Key), Value: order(dir.Descending)}}
	if dir.TieBreak != "" && dir.TieBreak != dir.Key {
		d = append(d, bson.E{Key: bsonKey(dir.TieBreak), Value: order(dir.TieBreakDescending)})
	}
	return d
}
