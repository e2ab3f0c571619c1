package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

func newMiniredisCache(t *testing.T, ttl time.Duration) (ResponseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTestCache(client, ttl), mr
}

func TestKeyNormalization(t *testing.T) {
	tests := []struct {
		name     string
		question string
		other    string
	}{
		{"case folding", "Combien de bâtiments ?", "combien de BÂTIMENTS ?"},
		{"whitespace collapse", "surface  moyenne", " surface moyenne "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if Key(tc.question, "93") != Key(tc.other, "93") {
				t.Errorf("expected %q and %q to share a cache key", tc.question, tc.other)
			}
		})
	}

	if Key("combien de bâtiments", "93") == Key("combien de bâtiments", "75") {
		t.Error("expected department to separate cache keys")
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	responseCache, _ := newMiniredisCache(t, time.Hour)
	ctx := context.Background()
	key := Key("combien de bâtiments dans le département 93", "93")

	got, err := responseCache.Get(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error on miss: %v", err)
	}
	if got != nil {
		t.Fatal("expected a miss on empty cache")
	}

	answer := &buildingModel.Answer{
		Text:       "Le département 93 compte 2500 bâtiments.",
		Route:      buildingModel.RouteQuantitative,
		Department: "93",
	}
	if err := responseCache.Set(ctx, key, answer); err != nil {
		t.Fatalf("unexpected error on set: %v", err)
	}

	got, err = responseCache.Get(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error on hit: %v", err)
	}
	if got == nil {
		t.Fatal("expected a hit after set")
	}
	if got.Text != answer.Text || got.Route != answer.Route {
		t.Errorf("got %+v, want stored answer back", got)
	}
	if !got.Cached {
		t.Error("expected replayed answer to be marked cached")
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	responseCache, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()
	key := Key("quel est le bâtiment le plus ancien", "75")

	if err := responseCache.Set(ctx, key, &buildingModel.Answer{Text: "réponse"}); err != nil {
		t.Fatalf("unexpected error on set: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	got, err := responseCache.Get(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error after expiry: %v", err)
	}
	if got != nil {
		t.Error("expected entry to expire after TTL")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	responseCache := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()
	key := Key("surface moyenne", "93")

	if err := responseCache.Set(ctx, key, &buildingModel.Answer{Text: "810 m²"}); err != nil {
		t.Fatalf("unexpected error on set: %v", err)
	}

	got, err := responseCache.Get(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("expected an immediate hit, got %v (err %v)", got, err)
	}

	time.Sleep(20 * time.Millisecond)

	got, err = responseCache.Get(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error after expiry: %v", err)
	}
	if got != nil {
		t.Error("expected memory entry to expire")
	}
}
