package data

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/yixianOu/moviestore/internal/biz"
)

func newTestCache(t *testing.T) (*movieCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	d := &Data{rdb: rdb, ttl: time.Hour}
	return NewMovieCache(d, log.NewStdLogger(io.Discard)).(*movieCache), mr
}

func TestMovieCacheSetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	movie := &biz.Movie{ID: "tt0111161", Title: "The Shawshank Redemption", Year: 1994, Genre: []biz.Genre{biz.GenreDrama}}

	if err := c.Set(ctx, "movie:tt0111161", movie, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("movie:tt0111161"); ttl != time.Hour {
		t.Errorf("expected default TTL, got %v", ttl)
	}

	var got biz.Movie
	hit, err := c.Get(ctx, "movie:tt0111161", &got)
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if got.Title != movie.Title || got.Year != movie.Year {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := c.Set(ctx, "search:x", []string{"a"}, 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("search:x"); ttl != 5*time.Minute {
		t.Errorf("expected explicit TTL, got %v", ttl)
	}
}

func TestMovieCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got biz.Movie
	hit, err := c.Get(context.Background(), "movie:missing", &got)
	if err != nil || hit {
		t.Fatalf("expected clean miss, got hit=%v err=%v", hit, err)
	}
}

func TestMovieCacheCorrupt(t *testing.T) {
	c, mr := newTestCache(t)
	if err := mr.Set("movie:bad", "{not json"); err != nil {
		t.Fatal(err)
	}

	var got biz.Movie
	hit, err := c.Get(context.Background(), "movie:bad", &got)
	if hit || !errors.Is(err, biz.ErrCacheCorrupt) {
		t.Fatalf("expected ErrCacheCorrupt, got hit=%v err=%v", hit, err)
	}
}

func TestMovieCacheDelete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	if err := mr.Set("movie:1", "{}"); err != nil {
		t.Fatal(err)
	}

	deleted, err := c.Delete(ctx, "movie:1")
	if err != nil || !deleted {
		t.Fatalf("Delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = c.Delete(ctx, "movie:1")
	if err != nil || deleted {
		t.Fatalf("second Delete: deleted=%v err=%v", deleted, err)
	}
}

func TestMovieCacheInvalidatePattern(t *testing.T) {
	c, mr := newTestCache(t)
	for _, k := range []string{"search:a", "search:b", "search:c", "movie:1"} {
		if err := mr.Set(k, "{}"); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.InvalidatePattern(context.Background(), biz.SearchKeyPattern)
	if err != nil {
		t.Fatalf("InvalidatePattern: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 keys deleted, got %d", n)
	}
	if !mr.Exists("movie:1") {
		t.Error("record key was swept with search keys")
	}
	if mr.Exists("search:a") {
		t.Error("search key survived")
	}
}

func TestMovieCacheUnavailable(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	var got biz.Movie
	if _, err := c.Get(ctx, "movie:1", &got); !errors.Is(err, biz.ErrCacheUnavailable) {
		t.Errorf("Get: expected ErrCacheUnavailable, got %v", err)
	}
	if err := c.Set(ctx, "movie:1", &got, 0); !errors.Is(err, biz.ErrCacheUnavailable) {
		t.Errorf("Set: expected ErrCacheUnavailable, got %v", err)
	}
	if _, err := c.InvalidatePattern(ctx, "search:*"); !errors.Is(err, biz.ErrCacheUnavailable) {
		t.Errorf("InvalidatePattern: expected ErrCacheUnavailable, got %v", err)
	}
	if err := c.Ping(ctx); !errors.Is(err, biz.ErrCacheUnavailable) {
		t.Errorf("Ping: expected ErrCacheUnavailable, got %v", err)
	}
}

func TestMovieCacheBreakerOpens(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	var got biz.Movie
	for i := 0; i < breakerFailureThreshold; i++ {
		_, _ = c.Get(ctx, "movie:1", &got)
	}
	if state := c.cb.State().String(); state != "open" {
		t.Fatalf("expected open breaker, got %s", state)
	}
	if _, err := c.Get(ctx, "movie:1", &got); !errors.Is(err, biz.ErrCacheUnavailable) {
		t.Errorf("expected fail-fast ErrCacheUnavailable, got %v", err)
	}
}

func TestMovieCacheMissesDoNotTripBreaker(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var got biz.Movie
	for i := 0; i < breakerFailureThreshold*2; i++ {
		if _, err := c.Get(ctx, "movie:missing", &got); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if state := c.cb.State().String(); state != "closed" {
		t.Errorf("misses tripped the breaker: %s", state)
	}
}

func TestMovieCacheNotConfigured(t *testing.T) {
	c := NewMovieCache(&Data{ttl: time.Hour}, log.NewStdLogger(io.Discard))
	ctx := context.Background()

	var got biz.Movie
	if _, err := c.Get(ctx, "movie:1", &got); !errors.Is(err, biz.ErrCacheUnavailable) {
		t.Errorf("expected ErrCacheUnavailable, got %v", err)
	}
	if err := c.Ping(ctx); !errors.Is(err, biz.ErrCacheUnavailable) {
		t.Errorf("expected ErrCacheUnavailable, got %v", err)
	}
}
