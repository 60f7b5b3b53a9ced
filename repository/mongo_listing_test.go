package repository

import (
	"testing"

	"github.com/dcode-github/property_listing_search/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(nil))
}

func TestBuildFilter_TranslatesEveryPredicate(t *testing.T) {
	plan := search.Plan(search.Normalize(map[string]string{
		"status":   "sale",
		"type":     "house",
		"district": "St. John's",
		"q":        `sea "view"`,
		"minPrice": "100",
		"beds":     "3",
	}))

	filter := buildFilter(plan.Predicates)

	conds, ok := filter["$and"].(bson.A)
	require.True(t, ok)
	assert.Equal(t, bson.A{
		bson.M{"status": bson.M{"$in": []string{"sale", "both"}}},
		bson.M{"property_type": primitive.Regex{Pattern: "^house$", Options: "i"}},
		bson.M{"location_district": primitive.Regex{Pattern: `^St\. John's$`, Options: "i"}},
		bson.M{"$text": bson.M{"$search": `"sea" "view"`}},
		bson.M{"price": bson.M{"$gte": int64(100)}},
		bson.M{"bedrooms": bson.M{"$gte": int64(3)}},
		bson.M{"bedrooms": bson.M{"$lte": int64(3)}},
	}, conds)
}

func TestBuildFilter_EqualsWithoutFold(t *testing.T) {
	filter := buildFilter([]search.Predicate{search.Equals{Field: search.FieldID, Value: "abc"}})

	assert.Equal(t, bson.M{"$and": bson.A{bson.M{"_id": "abc"}}}, filter)
}

func TestBuildFilter_FlagAndNotEquals(t *testing.T) {
	filter := buildFilter([]search.Predicate{
		search.Flag{Field: search.FieldFeatured, Value: true},
		search.NotEquals{Field: search.FieldID, Value: "abc"},
	})

	assert.Equal(t, bson.M{"$and": bson.A{
		bson.M{"is_featured": true},
		bson.M{"_id": bson.M{"$ne": "abc"}},
	}}, filter)
}

func TestBuildFilter_DropsTextWithOnlyQuotes(t *testing.T) {
	filter := buildFilter([]search.Predicate{search.TextMatch{Fields: []search.Field{search.FieldTitle}, Terms: []string{`""`}}})

	assert.Equal(t, bson.M{}, filter)
}

func TestBuildSort(t *testing.T) {
	tests := []struct {
		sort string
		want bson.D
	}{
		{"newest", bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{"price_asc", bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: -1}}},
		{"price_desc", bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			plan := search.Plan(search.Normalize(map[string]string{"sort": tt.sort}))
			assert.Equal(t, tt.want, buildSort(plan.Sort))
		})
	}
}
