package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	data map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{data: make(map[string]string)}
}

func (f *fakeRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedisStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedisStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "mariouomo:cron:lock", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}

	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected to acquire, got ok=%v err=%v", ok, err)
	}

	other, err := NewRedisLock(store, "mariouomo:cron:lock", time.Minute)
	if err != nil {
		t.Fatalf("construct second lock: %v", err)
	}
	ok, err = other.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire errored: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to fail while held")
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = other.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, got ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyWhenOwned(t *testing.T) {
	store := newFakeRedisStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "mariouomo:cron:lock", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}

	// Never acquired; release must be a no-op even while another owner holds it.
	store.data["mariouomo:cron:lock"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, held := store.data["mariouomo:cron:lock"]; !held {
		t.Fatal("release removed a lock it did not own")
	}
}
