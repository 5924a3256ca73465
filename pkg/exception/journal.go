package exception

import "github.com/yanun0323/errors"

var (
	ErrJournalNilClient = errors.New("journal: nil database client")
	ErrQueueFull        = errors.New("bus: event queue full")
	ErrQueueClosed      = errors.New("bus: event queue closed")
)
