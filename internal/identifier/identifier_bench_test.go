package identifier

import "testing"

func BenchmarkParseSymbol(b *testing.B) {
	for b.Loop() {
		_, _ = ParseSymbol("AUD/USD.SIM")
	}
}

func BenchmarkParseTraderID(b *testing.B) {
	for b.Loop() {
		_, _ = ParseTraderID("TESTER-001")
	}
}

func BenchmarkCompare(b *testing.B) {
	a := Must(NewVenue("BINANCE"))
	e := Must(NewExchange("BINANCE"))
	for b.Loop() {
		_ = a.Compare(e.Identifier)
	}
}

func BenchmarkHash(b *testing.B) {
	s := Must(ParseSymbol("ETH/USDT.BINANCE"))
	for b.Loop() {
		_ = s.Hash()
	}
}
