package identifier

import (
	"strconv"
	"time"
)

const (
	clientOrderIDPrefix = "O"
	positionIDPrefix    = "P"

	generatorTimeLayout = "20060102-150405"
)

// Clock is the time source a generator stamps ids with.
type Clock interface {
	UTCNow() time.Time
}

// idGenerator builds PREFIX-YYYYMMDD-HHMMSS-TRADERTAG-STRATEGYTAG-COUNT values.
// Not safe for concurrent use; each strategy owns its generators.
type idGenerator struct {
	clock  Clock
	prefix string
	tags   string
	count  int
	buf    []byte
}

func newIDGenerator(prefix string, trader TraderID, strategy StrategyID, clock Clock) idGenerator {
	return idGenerator{
		clock:  clock,
		prefix: prefix,
		tags:   trader.Tag() + compositeSep + strategy.Tag(),
		buf:    make([]byte, 0, 64),
	}
}

func (g *idGenerator) next() string {
	g.count++
	buf := g.buf[:0]
	buf = append(buf, g.prefix...)
	buf = append(buf, compositeSep...)
	buf = g.clock.UTCNow().UTC().AppendFormat(buf, generatorTimeLayout)
	buf = append(buf, compositeSep...)
	buf = append(buf, g.tags...)
	buf = append(buf, compositeSep...)
	buf = strconv.AppendInt(buf, int64(g.count), 10)
	g.buf = buf
	return string(buf)
}

// ClientOrderIDGenerator creates unique client order ids for one strategy,
// e.g. O-20210410-022422-001-001-1.
type ClientOrderIDGenerator struct {
	gen idGenerator
}

func NewClientOrderIDGenerator(trader TraderID, strategy StrategyID, clock Clock) *ClientOrderIDGenerator {
	return &ClientOrderIDGenerator{gen: newIDGenerator(clientOrderIDPrefix, trader, strategy, clock)}
}

func (g *ClientOrderIDGenerator) Generate() ClientOrderID {
	return ClientOrderID{Identifier{kind: KindClientOrderID, value: g.gen.next()}}
}

// Count returns how many ids have been generated since the last reset.
func (g *ClientOrderIDGenerator) Count() int { return g.gen.count }

// SetCount restores the counter, e.g. after reloading state.
func (g *ClientOrderIDGenerator) SetCount(count int) { g.gen.count = count }

func (g *ClientOrderIDGenerator) Reset() { g.gen.count = 0 }

// PositionIDGenerator creates unique position ids for one strategy,
// e.g. P-20210410-022422-001-001-1.
type PositionIDGenerator struct {
	gen idGenerator
}

func NewPositionIDGenerator(trader TraderID, strategy StrategyID, clock Clock) *PositionIDGenerator {
	return &PositionIDGenerator{gen: newIDGenerator(positionIDPrefix, trader, strategy, clock)}
}

func (g *PositionIDGenerator) Generate() PositionID {
	return PositionID{Identifier{kind: KindPositionID, value: g.gen.next()}}
}

func (g *PositionIDGenerator) Count() int { return g.gen.count }

func (g *PositionIDGenerator) SetCount(count int) { g.gen.count = count }

func (g *PositionIDGenerator) Reset() { g.gen.count = 0 }
