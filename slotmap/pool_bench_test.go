package slotmap_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/slotpool/memutils/handle"
	"github.com/vkngwrapper/slotpool/slotmap"
	"golang.org/x/exp/slog"
)

func benchmarkPool(b *testing.B) *slotmap.Pool[object] {
	var logs bytes.Buffer
	pool, err := slotmap.New[object](testLogger(&logs), slotmap.CreateOptions[object]{})
	require.NoError(b, err)
	return pool
}

func BenchmarkCreateDestroy(b *testing.B) {
	pool := benchmarkPool(b)
	handles := make([]handle.Handle, 0, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 1000; j++ {
			h, err := pool.Create(recordID)
			if err != nil {
				b.Fatal(err)
			}
			handles = append(handles, h)
		}

		for _, h := range handles {
			if err := pool.Destroy(h); err != nil {
				b.Fatal(err)
			}
		}
		handles = handles[:0]
	}
}

func BenchmarkGet(b *testing.B) {
	pool := benchmarkPool(b)
	handles := make([]handle.Handle, 4096)
	for i := range handles {
		h, err := pool.Create(recordID)
		require.NoError(b, err)
		handles[i] = h
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		payload, err := pool.Get(handles[i&4095])
		if err != nil || payload.id != handles[i&4095] {
			b.Fatal("lookup failed")
		}
	}
}

func BenchmarkGetSynchronized(b *testing.B) {
	pool, err := slotmap.New[object](slog.Default(), slotmap.CreateOptions[object]{Flags: slotmap.CreateSynchronized})
	require.NoError(b, err)

	h, err := pool.Create(recordID)
	require.NoError(b, err)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if !pool.Contains(h) {
				b.Error("lookup failed")
			}
		}
	})
}
