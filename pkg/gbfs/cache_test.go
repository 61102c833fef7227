package gbfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedCache(t *testing.T) {
	t.Parallel()

	t.Run("disabled cache stores nothing", func(t *testing.T) {
		t.Parallel()

		c := newFeedCache(0)
		assert.Nil(t, c)

		c.set("https://x/ss", []byte("{}"), 10)
		_, hit := c.get("https://x/ss")
		assert.False(t, hit)
	})

	t.Run("returns stored body", func(t *testing.T) {
		t.Parallel()

		c := newFeedCache(time.Minute)
		require.NotNil(t, c)

		c.set("https://x/ss", []byte(`{"data":{}}`), 0)
		body, hit := c.get("https://x/ss")
		assert.True(t, hit)
		assert.Equal(t, `{"data":{}}`, string(body))
	})

	t.Run("payload ttl overrides default", func(t *testing.T) {
		t.Parallel()

		c := newFeedCache(time.Hour)
		c.set("https://x/ss", []byte(`{}`), 1)

		_, expiry, found := c.store.GetWithExpiration("https://x/ss")
		require.True(t, found)
		assert.WithinDuration(t, time.Now().Add(time.Second), expiry, 500*time.Millisecond)
	})
}
