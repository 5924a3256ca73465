package exception

import "github.com/yanun0323/errors"

var (
	ErrDuplicateTimer   = errors.New("clock: timer name already registered")
	ErrTimerNotFound    = errors.New("clock: timer not found")
	ErrTemporalOrder    = errors.New("clock: cannot move time backwards")
	ErrReentrantAdvance = errors.New("clock: advance time called from a timer handler")
	ErrClockClosed      = errors.New("clock: closed")
)
