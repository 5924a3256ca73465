// Package journal persists timer events fired by a clock.
//
// # Backends
//
//   - Memory: in-process, for replay runs and tests.
//   - Postgres: gorm over pkg/conn, one row per event.
package journal

import (
	"context"
	"sync"

	"tradecore/internal/clock"
	"tradecore/internal/errors"
	"tradecore/pkg/conn"
	"tradecore/pkg/exception"
)

// Journal appends fired timer events.
type Journal interface {
	Append(ctx context.Context, events ...clock.TimeEvent) error
	Close() error
}

var (
	_ Journal = (*Memory)(nil)
	_ Journal = (*Postgres)(nil)
)

// Memory keeps events in insertion order.
type Memory struct {
	mu     sync.RWMutex
	events []clock.TimeEvent
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(ctx context.Context, events ...clock.TimeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.events = append(m.events, events...)
	m.mu.Unlock()
	return nil
}

// Events returns a copy of the journaled events.
func (m *Memory) Events() []clock.TimeEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append(make([]clock.TimeEvent, 0, len(m.events)), m.events...)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.events)
}

func (m *Memory) Close() error {
	return nil
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Open builds the journal of the named driver. The Postgres journal connects and
// migrates immediately.
func Open(driver string, option conn.Option, pg ...PostgresOption) (Journal, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverPostgres:
		client, err := conn.New(option)
		if err != nil {
			return nil, err
		}
		j, err := NewPostgres(client, pg...)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return j, nil
	default:
		return nil, errors.Wrapf(exception.ErrValueFormat, "journal driver %q", driver)
	}
}
