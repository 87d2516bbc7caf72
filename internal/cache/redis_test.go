package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/apibind/apibind/internal/cache"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisStoreWithTTL(client, ttl), mr
}

func TestRedisStore_PutAndGet(t *testing.T) {
	s, _ := newRedisStore(t, time.Minute)
	ctx := context.Background()

	type item struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	s.Put(ctx, "listTags", "https://example.com", []item{{ID: 1, Name: "urgent"}})

	var got []item
	if !s.Get(ctx, "listTags", "https://example.com", &got) {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].Name != "urgent" {
		t.Fatalf("unexpected items: %+v", got)
	}
}

func TestRedisStore_ScopedByBaseURL(t *testing.T) {
	s, _ := newRedisStore(t, time.Minute)
	ctx := context.Background()

	s.Put(ctx, "listTags", "https://a.example.com", []string{"a"})

	var got []string
	if s.Get(ctx, "listTags", "https://b.example.com", &got) {
		t.Fatal("different base URL should miss")
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr := newRedisStore(t, time.Second)
	ctx := context.Background()

	s.Put(ctx, "listTags", "https://example.com", []string{"a"})
	mr.FastForward(2 * time.Second)

	var got []string
	if s.Get(ctx, "listTags", "https://example.com", &got) {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestRedisStore_Clear(t *testing.T) {
	s, _ := newRedisStore(t, time.Minute)
	ctx := context.Background()

	s.Put(ctx, "listTags", "https://example.com", []string{"a"})
	s.Clear(ctx, "listTags", "https://example.com")

	var got []string
	if s.Get(ctx, "listTags", "https://example.com", &got) {
		t.Fatal("expected cache miss after clear")
	}
}
