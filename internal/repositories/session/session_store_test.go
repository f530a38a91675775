package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/campus-hq/academics-service/internal/repositories"
)

func newTestStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisSessionStore(client, time.Hour), mr
}

func TestRedisSessionStore_CreateAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected a non-empty token")
	}

	got, err := store.Get(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Token != sess.Token {
		t.Errorf("expected token %s, got %s", sess.Token, got.Token)
	}
}

func TestRedisSessionStore_UnknownToken(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "not-a-token")
	if !errors.Is(err, repositories.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRedisSessionStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Simulate the TTL elapsing
	mr.FastForward(2 * time.Hour)

	if _, err := store.Get(ctx, sess.Token); !errors.Is(err, repositories.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after expiry, got %v", err)
	}

	if err := store.Touch(ctx, sess.Token); !errors.Is(err, repositories.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound touching expired session, got %v", err)
	}
}

func TestRedisSessionStore_TouchExtendsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mr.FastForward(30 * time.Minute)
	if err := store.Touch(ctx, sess.Token); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	// Original TTL would have expired here; the touched session survives
	mr.FastForward(45 * time.Minute)
	if _, err := store.Get(ctx, sess.Token); err != nil {
		t.Errorf("expected session to survive after touch, got %v", err)
	}
}

func TestRedisSessionStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get(ctx, sess.Token); !errors.Is(err, repositories.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}
