package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/dcode-github/property_listing_search/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSavedStore keeps one hash per user, keyed by listing id, with the
// JSON-encoded row as the value. HSETNX gives the pair its uniqueness.
type RedisSavedStore struct {
	client *redis.Client
	prefix string
}

// deleteIfSame removes the field only while it still holds the row the
// caller read, so a row re-created in between survives.
var deleteIfSame = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], ARGV[1])
if not v then
	return 0
end
if cjson.decode(v)['id'] ~= ARGV[2] then
	return 0
end
return redis.call('HDEL', KEYS[1], ARGV[1])
`)

func NewRedisSavedStore(client *redis.Client, prefix string) *RedisSavedStore {
	if prefix == "" {
		prefix = "saved:"
	}
	return &RedisSavedStore{client: client, prefix: prefix}
}

func (s *RedisSavedStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisSavedStore) GetSavedListing(ctx context.Context, userID, listingID string) (*models.SavedListing, error) {
	raw, err := s.client.HGet(ctx, s.key(userID), listingID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewRepositoryError("get saved listing", err)
	}
	var row models.SavedListing
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, models.NewRepositoryError("decode saved listing", err)
	}
	return &row, nil
}

func (s *RedisSavedStore) InsertSavedListing(ctx context.Context, userID, listingID string) (*models.SavedListing, error) {
	row := models.SavedListing{
		ID:        uuid.NewString(),
		UserID:    userID,
		ListingID: listingID,
		SavedAt:   time.Now().UTC(),
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, models.NewRepositoryError("encode saved listing", err)
	}
	created, err := s.client.HSetNX(ctx, s.key(userID), listingID, raw).Result()
	if err != nil {
		return nil, models.NewRepositoryError("insert saved listing", err)
	}
	if !created {
		return nil, models.ErrAlreadyExists
	}
	return &row, nil
}

func (s *RedisSavedStore) DeleteSavedListing(ctx context.Context, row models.SavedListing) (int64, error) {
	n, err := deleteIfSame.Run(ctx, s.client, []string{s.key(row.UserID)}, row.ListingID, row.ID).Int64()
	if err != nil {
		return 0, models.NewRepositoryError("delete saved listing", err)
	}
	return n, nil
}

func (s *RedisSavedStore) ListSavedListings(ctx context.Context, userID string) ([]models.SavedListing, error) {
	fields, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, models.NewRepositoryError("list saved listings", err)
	}
	rows := make([]models.SavedListing, 0, len(fields))
	for _, raw := range fields {
		var row models.SavedListing
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, models.NewRepositoryError("decode saved listing", err)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SavedAt.Equal(rows[j].SavedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].SavedAt.After(rows[j].SavedAt)
	})
	return rows, nil
}
