package introspection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/plotstream/pkg/cache"
)

// newCachedClient builds a client whose catalog reads are served entirely
// from a pre-seeded cache, so no NATS connection is needed.
func newCachedClient(managerID string, items []string) *Client {
	c := &Client{catalogs: cache.NewTTL[[]string](catalogTTL)}
	c.catalogs.Set(managerID, items)
	return c
}

func TestClient_ItemsDoesNotAliasCachedCatalog(t *testing.T) {
	c := newCachedClient("sim1", []string{"data://a?p=x", "data://b?p=y"})

	first, err := c.Items(context.Background(), "sim1")
	require.NoError(t, err)
	first[0] = "clobbered"

	// The cached catalog is shared across callers within the TTL; a caller
	// mutating its copy must not poison later reads.
	second, err := c.Items(context.Background(), "sim1")
	require.NoError(t, err)
	assert.Equal(t, []string{"data://a?p=x", "data://b?p=y"}, second)

	ok, err := c.IsRegistered(context.Background(), "sim1", "data://a?p=x")
	require.NoError(t, err)
	assert.True(t, ok)
}
