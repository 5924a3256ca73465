package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradecore/internal/clock"
	"tradecore/internal/errors"
	"tradecore/pkg/conn"
	"tradecore/pkg/exception"
)

const defaultBatchSize = 256

// TimeEventRecord is the table row of a journaled event.
type TimeEventRecord struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;type:varchar(128);not null;index:idx_time_event_name_scheduled"`
	ScheduledAt time.Time `gorm:"column:scheduled_at;not null;index:idx_time_event_name_scheduled"`
	ActualAt    time.Time `gorm:"column:actual_at;not null"`
	DriftNanos  int64     `gorm:"column:drift_ns;not null"`
}

func (TimeEventRecord) TableName() string {
	return "time_events"
}

// NewTimeEventRecord converts an event into its row.
func NewTimeEventRecord(e clock.TimeEvent) TimeEventRecord {
	return TimeEventRecord{
		ID:          e.ID,
		Name:        e.Name,
		ScheduledAt: e.Scheduled.UTC(),
		ActualAt:    e.Actual.UTC(),
		DriftNanos:  int64(e.Drift()),
	}
}

// TimeEvent converts the row back into an event.
func (r TimeEventRecord) TimeEvent() clock.TimeEvent {
	return clock.TimeEvent{
		ID:        r.ID,
		Name:      r.Name,
		Scheduled: r.ScheduledAt.UTC(),
		Actual:    r.ActualAt.UTC(),
	}
}

// PostgresOption configures the Postgres journal.
type PostgresOption struct {
	// BatchSize bounds the rows of one insert statement. Zero uses 256.
	BatchSize int
	// SkipMigrate disables AutoMigrate on open.
	SkipMigrate bool
}

// Postgres journals events into the time_events table.
type Postgres struct {
	client    *conn.Client
	batchSize int
}

// NewPostgres wraps a connected client and migrates the table unless disabled.
func NewPostgres(client *conn.Client, opt ...PostgresOption) (*Postgres, error) {
	if client == nil || client.DB() == nil {
		return nil, exception.ErrJournalNilClient
	}

	var o PostgresOption
	if len(opt) != 0 {
		o = opt[0]
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}

	if !o.SkipMigrate {
		if err := client.DB().AutoMigrate(&TimeEventRecord{}); err != nil {
			return nil, errors.Wrap(err, "migrate time_events")
		}
	}

	return &Postgres{client: client, batchSize: o.BatchSize}, nil
}

func (p *Postgres) Append(ctx context.Context, events ...clock.TimeEvent) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]TimeEventRecord, len(events))
	for i := range events {
		records[i] = NewTimeEventRecord(events[i])
	}

	if err := p.client.DB().WithContext(ctx).CreateInBatches(records, p.batchSize).Error; err != nil {
		return errors.Wrapf(err, "insert %d time events", len(records))
	}
	return nil
}

// Load returns the events of one timer ordered by scheduled time.
func (p *Postgres) Load(ctx context.Context, name string) ([]clock.TimeEvent, error) {
	var records []TimeEventRecord
	err := p.client.DB().WithContext(ctx).
		Where("name = ?", name).
		Order("scheduled_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load time events of %s", name)
	}

	events := make([]clock.TimeEvent, len(records))
	for i := range records {
		events[i] = records[i].TimeEvent()
	}
	return events, nil
}

func (p *Postgres) Close() error {
	return p.client.Close()
}
