package identifier

import (
	"strings"

	"tradecore/internal/errors"
	"tradecore/pkg/exception"
)

const compositeSep = "-"

// TraderID identifies a trader instance as NAME-TAG, e.g. TESTER-001.
type TraderID struct {
	Identifier
	name string
	tag  string
}

// StrategyID identifies a strategy instance as NAME-TAG, e.g. SCALPER-01.
type StrategyID struct {
	Identifier
	name string
	tag  string
}

// AccountID identifies an account as ISSUER-NUMBER, e.g. SIM-02851908.
type AccountID struct {
	Identifier
	issuer Issuer
	number string
}

func NewTraderID(name, tag string) (TraderID, error) {
	id, err := newComposite(KindTraderID, name, tag)
	if err != nil {
		return TraderID{}, err
	}

	return TraderID{Identifier: id, name: name, tag: tag}, nil
}

func NewStrategyID(name, tag string) (StrategyID, error) {
	id, err := newComposite(KindStrategyID, name, tag)
	if err != nil {
		return StrategyID{}, err
	}

	return StrategyID{Identifier: id, name: name, tag: tag}, nil
}

func NewAccountID(issuer, number string) (AccountID, error) {
	id, err := newComposite(KindAccountID, issuer, number)
	if err != nil {
		return AccountID{}, err
	}

	return AccountID{
		Identifier: id,
		issuer:     Issuer{Identifier{kind: KindIssuer, value: issuer}},
		number:     number,
	}, nil
}

func ParseTraderID(s string) (TraderID, error) {
	name, tag, err := splitComposite(KindTraderID, s)
	if err != nil {
		return TraderID{}, err
	}

	return NewTraderID(name, tag)
}

func ParseStrategyID(s string) (StrategyID, error) {
	name, tag, err := splitComposite(KindStrategyID, s)
	if err != nil {
		return StrategyID{}, err
	}

	return NewStrategyID(name, tag)
}

func ParseAccountID(s string) (AccountID, error) {
	issuer, number, err := splitComposite(KindAccountID, s)
	if err != nil {
		return AccountID{}, err
	}

	return NewAccountID(issuer, number)
}

func NullTraderID() TraderID {
	return TraderID{
		Identifier: Identifier{kind: KindTraderID, value: NullCompositeValue},
		name:       NullValue,
		tag:        NullValue,
	}
}

func NullStrategyID() StrategyID {
	return StrategyID{
		Identifier: Identifier{kind: KindStrategyID, value: NullCompositeValue},
		name:       NullValue,
		tag:        NullValue,
	}
}

func NullAccountID() AccountID {
	return AccountID{
		Identifier: Identifier{kind: KindAccountID, value: NullCompositeValue},
		issuer:     Issuer{Identifier{kind: KindIssuer, value: NullValue}},
		number:     NullValue,
	}
}

// Name is the trader name, e.g. TESTER.
func (id TraderID) Name() string { return id.name }

// Tag is the order id tag of the trader, e.g. 001.
func (id TraderID) Tag() string { return id.tag }

func (id StrategyID) Name() string { return id.name }

func (id StrategyID) Tag() string { return id.tag }

func (id AccountID) Issuer() Issuer { return id.issuer }

func (id AccountID) Number() string { return id.number }

// newComposite validates both parts. The first part must not contain the separator,
// otherwise the rendered value would not parse back.
func newComposite(kind Kind, first, second string) (Identifier, error) {
	if IsBlank(first) || IsBlank(second) {
		return Identifier{}, errors.Wrapf(exception.ErrValueFormat, "%s parts %q, %q must not be empty", kind, first, second)
	}

	if strings.Contains(first, compositeSep) {
		return Identifier{}, errors.Wrapf(exception.ErrValueFormat, "%s first part %q contains %q", kind, first, compositeSep)
	}

	return Identifier{kind: kind, value: first + compositeSep + second}, nil
}

func splitComposite(kind Kind, s string) (string, string, error) {
	first, second, found := strings.Cut(s, compositeSep)
	if !found {
		return "", "", errors.Wrapf(exception.ErrValueFormat, "%s %q missing separator %q", kind, s, compositeSep)
	}

	if len(first) == 0 || len(second) == 0 {
		return "", "", errors.Wrapf(exception.ErrValueFormat, "%s %q has an empty component", kind, s)
	}

	return first, second, nil
}
