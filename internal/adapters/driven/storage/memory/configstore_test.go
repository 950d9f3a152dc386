package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("qdrant.url", "http://qdrant:6333"))
	require.NoError(t, store.Set("qdrant.url", "http://localhost:6333"))

	val, ok := store.Get("qdrant.url")
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:6333", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("paperless.url", "http://paperless:8000"))
	require.NoError(t, store.Set("sync.batch_size", 16))
	require.NoError(t, store.Set("paperless.requests_per_second", 2.5))
	require.NoError(t, store.Set("sync.auto_sync", true))
	require.NoError(t, store.Set("sync.interval", "10m"))

	assert.Equal(t, "http://paperless:8000", store.GetString("paperless.url"))
	assert.Equal(t, 16, store.GetInt("sync.batch_size"))
	assert.InDelta(t, 2.5, store.GetFloat("paperless.requests_per_second"), 1e-9)
	assert.True(t, store.GetBool("sync.auto_sync"))
	assert.Equal(t, 10*time.Minute, store.GetDuration("sync.interval"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("sync.batch_size", i)
			_ = store.GetInt("sync.batch_size")
		}()
	}
	wg.Wait()

	_, ok := store.Get("sync.batch_size")
	assert.True(t, ok)
}
