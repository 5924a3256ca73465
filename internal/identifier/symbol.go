package identifier

import (
	"strings"

	"tradecore/internal/errors"
	"tradecore/pkg/exception"
)

const symbolSep = "."

// Symbol is an instrument code listed on a venue, rendered as CODE.VENUE.
type Symbol struct {
	Identifier
	code  string
	venue Venue
}

// NewSymbol creates a symbol. The venue name must not contain the separator so the
// rendered value parses back to the same symbol.
func NewSymbol(code string, venue Venue) (Symbol, error) {
	if IsBlank(code) {
		return Symbol{}, errors.Wrapf(exception.ErrValueFormat, "symbol code %q is empty", code)
	}

	if venue.IsZero() {
		return Symbol{}, errors.Wrapf(exception.ErrValueFormat, "symbol %q has no venue", code)
	}

	if strings.Contains(venue.value, symbolSep) {
		return Symbol{}, errors.Wrapf(exception.ErrValueFormat, "venue %q contains %q", venue.value, symbolSep)
	}

	return Symbol{
		Identifier: Identifier{kind: KindSymbol, value: code + symbolSep + venue.value},
		code:       code,
		venue:      venue,
	}, nil
}

// ParseSymbol parses CODE.VENUE. The venue is taken after the last separator, so
// codes may contain dots.
func ParseSymbol(s string) (Symbol, error) {
	idx := strings.LastIndex(s, symbolSep)
	if idx < 0 {
		return Symbol{}, errors.Wrapf(exception.ErrValueFormat, "symbol %q missing separator %q", s, symbolSep)
	}

	code, venueName := s[:idx], s[idx+len(symbolSep):]
	if IsBlank(code) || IsBlank(venueName) {
		return Symbol{}, errors.Wrapf(exception.ErrValueFormat, "symbol %q has an empty component", s)
	}

	venue, err := NewVenue(venueName)
	if err != nil {
		return Symbol{}, err
	}

	return NewSymbol(code, venue)
}

func (s Symbol) Code() string {
	return s.code
}

func (s Symbol) Venue() Venue {
	return s.venue
}
