//go:build integration

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dcode-github/property_listing_search/favorites"
	"github.com/dcode-github/property_listing_search/logger"
	"github.com/nats-io/nats.go"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil || pool.Client.Ping() != nil {
		t.Skip("docker unavailable")
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "nats", Tag: "2.10"}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	url := fmt.Sprintf("nats://%s", resource.GetHostPort("4222/tcp"))

	var sub *nats.Conn
	require.NoError(t, pool.Retry(func() error {
		var err error
		sub, err = nats.Connect(url)
		return err
	}))
	defer sub.Close()
	msgs := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe(favorites.SubjectSaved, msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	pub, err := NewNATSPublisher(url, 5*time.Second, logger.NewNop())
	require.NoError(t, err)
	defer pub.Close()

	want := favorites.Event{UserID: "u1", ListingID: "l1", Saved: true}
	require.NoError(t, pub.Publish(context.Background(), favorites.SubjectSaved, want))

	select {
	case msg := <-msgs:
		var got favorites.Event
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}
