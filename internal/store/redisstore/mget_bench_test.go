package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// prep stores n blobs of size bytes, roughly one encoded column chunk each.
func prep(b *testing.B, n, size int) (*Client, []string, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)

	rc, err := New(ctx, mr.Addr())
	if err != nil {
		b.Fatalf("New: %v", err)
	}

	blob := make([]byte, size)
	keys := make([]string, n)
	for i := range n {
		keys[i] = fmt.Sprintf("h3col:cell:c%05d", i)
		if err := rc.Set(ctx, keys[i], blob, time.Hour); err != nil {
			b.Fatalf("Set: %v", err)
		}
	}

	cleanup := func() {
		cancel()
		_ = rc.Close()
		mr.Close()
	}
	return rc, keys, cleanup
}

func BenchmarkLoadColumns(b *testing.B) {
	for _, n := range []int{16, 128} {
		b.Run(fmt.Sprintf("MGET_%d", n), func(b *testing.B) {
			rc, keys, cleanup := prep(b, n, 8<<10)
			defer cleanup()
			ctx := context.Background()
			b.ReportAllocs()
			for b.Loop() {
				if _, err := rc.MGet(ctx, keys); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("GETx%d", n), func(b *testing.B) {
			rc, keys, cleanup := prep(b, n, 8<<10)
			defer cleanup()
			ctx := context.Background()
			b.ReportAllocs()
			for b.Loop() {
				for _, k := range keys {
					if _, _, err := rc.Get(ctx, k); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}
