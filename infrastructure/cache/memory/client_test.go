package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"linkparse-api/core/interfaces"
)

var _ interfaces.LeaseCache = (*MemoryCache)(nil)

func TestNewMemoryCache(t *testing.T) {
	cache := NewMemoryCache()

	if cache == nil {
		t.Error("NewMemoryCache returned nil")
	}
}

func TestMemoryCache_Get_ExistingKey(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	key := "parse:abc"
	value := []byte(`{"result":{}}`)
	if err := cache.Set(ctx, key, value, time.Hour); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Errorf("Get returned error: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Get returned %s, want %s", string(got), string(value))
	}
}

func TestMemoryCache_Get_NonExistentKey(t *testing.T) {
	cache := NewMemoryCache()

	got, err := cache.Get(context.Background(), "non-existent")

	if !errors.Is(err, interfaces.ErrCacheMiss) {
		t.Errorf("Get error = %v, want ErrCacheMiss", err)
	}
	if got != nil {
		t.Error("Get should return nil value for non-existent key")
	}
}

func TestMemoryCache_Get_ExpiredKey(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := cache.Get(ctx, "k"); !errors.Is(err, interfaces.ErrCacheMiss) {
		t.Errorf("Get error = %v, want ErrCacheMiss for expired key", err)
	}
}

func TestMemoryCache_Set_WithZeroTTL(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := cache.Get(ctx, "forever"); err != nil {
		t.Errorf("zero TTL value expired: %v", err)
	}
}

func TestMemoryCache_Set_CopiesValue(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	value := []byte("original")
	_ = cache.Set(ctx, "k", value, time.Hour)
	value[0] = 'X'

	got, _ := cache.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("cache shares caller's slice: got %s", got)
	}
}

func TestMemoryCache_Delete_RemovesKey(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("v"), time.Hour)
	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := cache.Get(ctx, "k"); err == nil {
		t.Error("key still present after Delete")
	}
	if err := cache.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}
}

func TestMemoryCache_CancelledContext(t *testing.T) {
	cache := NewMemoryCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cache.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get error = %v, want context.Canceled", err)
	}
	if err := cache.Set(ctx, "k", []byte("v"), time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Set error = %v, want context.Canceled", err)
	}
}

func TestMemoryCache_Lease(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	ok, err := cache.AcquireLease(ctx, "lease:abc", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first AcquireLease = %v, %v; want true", ok, err)
	}
	ok, _ = cache.AcquireLease(ctx, "lease:abc", time.Minute)
	if ok {
		t.Error("second AcquireLease succeeded while lease held")
	}

	if err := cache.ReleaseLease(ctx, "lease:abc"); err != nil {
		t.Fatalf("ReleaseLease returned error: %v", err)
	}
	ok, _ = cache.AcquireLease(ctx, "lease:abc", time.Minute)
	if !ok {
		t.Error("AcquireLease failed after release")
	}
}

func TestMemoryCache_LeaseExpires(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, _ = cache.AcquireLease(ctx, "lease:x", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if ok, _ := cache.AcquireLease(ctx, "lease:x", time.Minute); !ok {
		t.Error("expired lease was not reclaimable")
	}
}

func TestMemoryCache_LeaseIsExclusiveUnderContention(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := cache.AcquireLease(ctx, "lease:hot", time.Minute); ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("%d goroutines acquired the lease, want 1", winners)
	}
}
