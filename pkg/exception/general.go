package exception

import "github.com/yanun0323/errors"

// General errors
var (
	ErrTypeConstraint = errors.New("value is not of the expected type")
	ErrValueFormat    = errors.New("value format invalid")
	ErrValueRange     = errors.New("value out of range")
	ErrNilInstance    = errors.New("nil instance")
)
