package common

import "testing"

func setupTestEnvironment(t *testing.T) (*Cache, func()) {
	t.Helper()

	cache := NewCache(0, 0)

	cleanup := func() {
		cache.Flush()
	}

	return cache, cleanup
}

func TestCache_SetGet(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyCategoryBySlug("travel"), "value")

	if _, ok := cache.Get(CacheKeyCategoryBySlug("travel")); !ok {
		t.Error("expected key to be set")
	}
}

func TestCache_Delete(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyPost(1), "value")
	cache.Delete(CacheKeyPost(1))

	if _, ok := cache.Get(CacheKeyPost(1)); ok {
		t.Error("expected key to be deleted")
	}
}

func TestCache_Flush(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")
	cache.Flush()

	if _, ok := cache.Get("key"); ok {
		t.Error("expected cache to be flushed")
	}
}
