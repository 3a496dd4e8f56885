package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	medium, err := NewRedis("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis medium: %v", err)
	}
	return medium, s
}

func TestNewRedis(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	medium, err := NewRedis("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	defer medium.Close()

	if err := medium.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisInvalidURL(t *testing.T) {
	if _, err := NewRedis("not a url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestRedisSetAndGet(t *testing.T) {
	medium, s := setupTestRedis(t)
	defer medium.Close()
	defer s.Close()

	ctx := context.Background()
	if err := medium.Set(ctx, "coloringBookPdfs", `[{"id":"a"}]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := medium.Get(ctx, "coloringBookPdfs")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected value to exist")
	}
	if value != `[{"id":"a"}]` {
		t.Errorf("unexpected value %q", value)
	}

	raw, err := s.Get("aaz:coloringBookPdfs")
	if err != nil {
		t.Fatalf("raw key missing: %v", err)
	}
	if raw != value {
		t.Errorf("raw value %q does not match %q", raw, value)
	}
	if ttl := s.TTL("aaz:coloringBookPdfs"); ttl != 0 {
		t.Errorf("expected no expiry, got %v", ttl)
	}
}

func TestRedisGetMissing(t *testing.T) {
	medium, s := setupTestRedis(t)
	defer medium.Close()
	defer s.Close()

	value, ok, err := medium.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok || value != "" {
		t.Errorf("expected absent value, got %q (ok=%v)", value, ok)
	}
}

func TestRedisSetOverwrites(t *testing.T) {
	medium, s := setupTestRedis(t)
	defer medium.Close()
	defer s.Close()

	ctx := context.Background()
	if err := medium.Set(ctx, "k", "first"); err != nil {
		t.Fatalf("Set first failed: %v", err)
	}
	if err := medium.Set(ctx, "k", "second"); err != nil {
		t.Fatalf("Set second failed: %v", err)
	}
	value, _, err := medium.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "second" {
		t.Errorf("expected second, got %q", value)
	}
}

func TestRedisGetFailsWhenServerDown(t *testing.T) {
	medium, s := setupTestRedis(t)
	defer medium.Close()

	s.Close()

	if _, _, err := medium.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
	if err := medium.Set(context.Background(), "k", "v"); err == nil {
		t.Fatal("expected write error when redis is unreachable")
	}
}
