package memory

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"
)

var entryPayload = bytes.Repeat([]byte("x"), 16<<10)

func BenchmarkMemoryCache_GetEntry(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("parse:%040d", i), entryPayload, time.Hour)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Get(ctx, fmt.Sprintf("parse:%040d", i%1000))
	}
}

func BenchmarkMemoryCache_SetEntryParallel(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = cache.Set(ctx, fmt.Sprintf("parse:%040d", i%4096), entryPayload, time.Hour)
			i++
		}
	})
}

func BenchmarkMemoryCache_LeaseCycle(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("lease:%d", i%64)
		if ok, _ := cache.AcquireLease(ctx, key, time.Minute); ok {
			_ = cache.ReleaseLease(ctx, key)
		}
	}
}
