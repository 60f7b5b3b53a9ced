//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dcode-github/property_listing_search/favorites"
	"github.com/dcode-github/property_listing_search/models"
	"github.com/dcode-github/property_listing_search/search"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func dockerPool(t *testing.T) *dockertest.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = 90 * time.Second
	return pool
}

func run(t *testing.T, pool *dockertest.Pool, repo, tag string) *dockertest.Resource {
	t.Helper()
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: repo, Tag: tag}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	return resource
}

func startMongo(t *testing.T) *mongo.Database {
	pool := dockerPool(t)
	resource := run(t, pool, "mongo", "7.0")
	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))

	var client *mongo.Client
	require.NoError(t, pool.Retry(func() error {
		var err error
		client, err = mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		return client.Ping(context.Background(), nil)
	}))
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("listings_test")
	require.NoError(t, EnsureIndexes(context.Background(), db))
	return db
}

func startRedis(t *testing.T) *redis.Client {
	pool := dockerPool(t)
	resource := run(t, pool, "redis", "7-alpine")

	client := redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
	require.NoError(t, pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMongoListingRepository_Integration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()

	docs := make([]interface{}, 0)
	for _, l := range sampleListings() {
		docs = append(docs, l)
	}
	_, err := db.Collection(ListingsCollection).InsertMany(ctx, docs)
	require.NoError(t, err)

	repo := NewMongoListingRepository(db, 0)
	find := func(raw map[string]string) []string {
		plan := search.Plan(search.Normalize(raw))
		got, err := repo.FindListings(ctx, plan.Predicates, plan.Sort)
		require.NoError(t, err)
		ids := make([]string, len(got))
		for i, l := range got {
			ids[i] = l.ID
		}
		return ids
	}

	assert.Equal(t, []string{"c", "b", "d", "a"}, find(nil))
	assert.Equal(t, []string{"c"}, find(map[string]string{"maxPrice": "50000000", "beds": "4+"}))
	assert.ElementsMatch(t, []string{"b", "d"}, find(map[string]string{"status": "rent"}))
	assert.Equal(t, []string{"c"}, find(map[string]string{"q": "villa"}))
	assert.Equal(t, []string{"c"}, find(map[string]string{"district": "NYALI"}))
	assert.Equal(t, []string{"d", "a", "c", "b"}, find(map[string]string{"sort": "price_asc"}))

	l, err := repo.FindBySlug(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "Garden villa", l.Title)
	_, err = repo.FindBySlug(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	cities, err := repo.SuggestLocations(ctx, "na", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nairobi", "Nakuru"}, cities)

	_, err = db.Collection(ListingsCollection).InsertOne(ctx, models.Listing{ID: "dup", Slug: "a"})
	assert.True(t, mongo.IsDuplicateKeyError(err), "slug index is unique")
}

func testSavedStore(t *testing.T, store favorites.SavedListingStore) {
	ctx := context.Background()

	row, err := store.GetSavedListing(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Nil(t, row)

	row, err = store.InsertSavedListing(ctx, "u1", "l1")
	require.NoError(t, err)

	_, err = store.InsertSavedListing(ctx, "u1", "l1")
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	got, err := store.GetSavedListing(ctx, "u1", "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, row.ID, got.ID)

	rows, err := store.ListSavedListings(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	stale := *row
	stale.ID = "not-the-row"
	n, err := store.DeleteSavedListing(ctx, stale)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.DeleteSavedListing(ctx, *row)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.DeleteSavedListing(ctx, *row)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Concurrent inserts for one pair leave exactly one row.
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.InsertSavedListing(ctx, "u2", "l2"); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestMongoSavedStore_Integration(t *testing.T) {
	testSavedStore(t, NewMongoSavedStore(startMongo(t)))
}

func TestRedisSavedStore_Integration(t *testing.T) {
	testSavedStore(t, NewRedisSavedStore(startRedis(t), "saved:"))
}

func TestRedisLedger_Integration(t *testing.T) {
	ledger := NewRedisLedger(startRedis(t), time.Minute)
	ctx := context.Background()

	ok, err := ledger.Claim(ctx, "u:l:k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Claim(ctx, "u:l:k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := ledger.Lookup(ctx, "u:l:k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, ledger.Record(ctx, "u:l:k", favorites.Saved))
	state, found, err := ledger.Lookup(ctx, "u:l:k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, favorites.Saved, state)

	require.NoError(t, ledger.Release(ctx, "u:l:k"))
	ok, err = ledger.Claim(ctx, "u:l:k")
	require.NoError(t, err)
	assert.True(t, ok)
}
