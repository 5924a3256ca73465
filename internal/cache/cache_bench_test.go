package cache

import (
	"testing"

	"tradecore/internal/identifier"
)

func BenchmarkGet(b *testing.B) {
	b.Run("hit", func(b *testing.B) {
		cache := newSymbolCache()
		_, _ = cache.Get("AUD/USD.SIM")
		for b.Loop() {
			_, _ = cache.Get("AUD/USD.SIM")
		}
	})

	b.Run("parse without cache", func(b *testing.B) {
		for b.Loop() {
			_, _ = identifier.ParseSymbol("AUD/USD.SIM")
		}
	})

	b.Run("hit parallel", func(b *testing.B) {
		cache := newSymbolCache()
		_, _ = cache.Get("AUD/USD.SIM")
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				_, _ = cache.Get("AUD/USD.SIM")
			}
		})
	})
}
