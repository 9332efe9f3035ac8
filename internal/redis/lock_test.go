package redisclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestWithLock_MutualExclusion(t *testing.T) {
	_, client := newTestRedis(t)
	locker := NewRedisLocker(client, 5*time.Second, 5*time.Second)

	var (
		inside  int32
		overlap int32
		done    int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "booking:2026-03-11:general", func(ctx context.Context) error {
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.StoreInt32(&overlap, 1)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				atomic.AddInt32(&done, 1)
				return nil
			})
			if err != nil {
				t.Errorf("WithLock: %v", err)
			}
		}()
	}
	wg.Wait()

	if overlap != 0 {
		t.Fatal("two holders ran the critical section at once")
	}
	if done != 8 {
		t.Fatalf("expected 8 completed sections, got %d", done)
	}
}

func TestWithLock_SetsTTLAndReleases(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewRedisLocker(client, 5*time.Second, time.Second)

	err := locker.WithLock(context.Background(), "day", func(ctx context.Context) error {
		if !mr.Exists("lock:day") {
			t.Fatal("lock key should exist while held")
		}
		if ttl := mr.TTL("lock:day"); ttl <= 0 || ttl > 5*time.Second {
			t.Fatalf("unexpected lock ttl %s", ttl)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock: %v", err)
	}
	if mr.Exists("lock:day") {
		t.Fatal("lock key should be removed after release")
	}
}

func TestWithLock_NotAcquiredAfterWait(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewRedisLocker(client, 5*time.Second, 60*time.Millisecond)

	if err := mr.Set("lock:day", "someone-else"); err != nil {
		t.Fatalf("seed lock: %v", err)
	}

	called := false
	start := time.Now()
	err := locker.WithLock(context.Background(), "day", func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired, got %v", err)
	}
	if called {
		t.Fatal("callback must not run without the lock")
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("gave up after %s, before the wait elapsed", elapsed)
	}
	if got, _ := mr.Get("lock:day"); got != "someone-else" {
		t.Fatalf("foreign lock was modified: %q", got)
	}
}

func TestWithLock_ReleaseKeepsForeignLock(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewRedisLocker(client, time.Second, time.Second)

	err := locker.WithLock(context.Background(), "day", func(ctx context.Context) error {
		// Our lock expires and another process takes it over.
		mr.FastForward(2 * time.Second)
		if mr.Exists("lock:day") {
			t.Fatal("lock should have expired")
		}
		return mr.Set("lock:day", "other-token")
	})
	if err != nil {
		t.Fatalf("WithLock: %v", err)
	}

	got, err := mr.Get("lock:day")
	if err != nil {
		t.Fatalf("lock of the new holder was deleted: %v", err)
	}
	if got != "other-token" {
		t.Fatalf("expected other-token, got %q", got)
	}
}

func TestWithLock_PropagatesCallbackError(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewRedisLocker(client, time.Second, time.Second)
	boom := errors.New("insert failed")

	err := locker.WithLock(context.Background(), "day", func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if mr.Exists("lock:day") {
		t.Fatal("lock should be released after a failed callback")
	}
}
