package identifier

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"tradecore/internal/errors"
	"tradecore/pkg/exception"
)

const (
	// NullValue marks a simple identifier that has not been assigned yet.
	NullValue = "NULL"
	// NullCompositeValue marks a composite identifier that has not been assigned yet.
	NullCompositeValue = NullValue + compositeSep + NullValue
)

// Identifier is an immutable, validated string tagged with its kind.
//
// The zero value is not a valid identifier; use New or one of the typed constructors.
type Identifier struct {
	kind  Kind
	value string
}

// New creates a base identifier.
func New(value string) (Identifier, error) {
	return newIdentifier(KindIdentifier, value)
}

// FromAny creates a base identifier from a loosely typed value, such as a field of a
// decoded payload.
func FromAny(v any) (Identifier, error) {
	s, err := AsString(v)
	if err != nil {
		return Identifier{}, err
	}

	return New(s)
}

// AsString extracts a string from v. Anything other than a string or a non-nil *string
// fails with exception.ErrTypeConstraint.
func AsString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case *string:
		if s == nil {
			return "", errors.Wrap(exception.ErrTypeConstraint, "nil string pointer")
		}
		return *s, nil
	case nil:
		return "", errors.Wrap(exception.ErrTypeConstraint, "missing value")
	default:
		return "", errors.Wrapf(exception.ErrTypeConstraint, "unexpected type %T", v)
	}
}

// IsBlank reports whether s is empty or only whitespace.
func IsBlank(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

func newIdentifier(kind Kind, value string) (Identifier, error) {
	if IsBlank(value) {
		return Identifier{}, errors.Wrapf(exception.ErrValueFormat, "%s value %q is empty", kind, value)
	}

	return Identifier{kind: kind, value: value}, nil
}

func (id Identifier) Kind() Kind {
	return id.kind
}

func (id Identifier) Value() string {
	return id.value
}

func (id Identifier) String() string {
	return id.value
}

// GoString renders the identifier as Kind('value').
func (id Identifier) GoString() string {
	return id.kind.String() + "('" + id.value + "')"
}

func (id Identifier) IsZero() bool {
	return id.kind == 0 && len(id.value) == 0
}

// IsNull reports whether id is a null sentinel.
func (id Identifier) IsNull() bool {
	return id.value == NullValue || id.value == NullCompositeValue
}

// Equal compares kind and value. Aliased kinds compare equal.
func (id Identifier) Equal(other Identifier) bool {
	return id.value == other.value && id.kind.Canonical() == other.kind.Canonical()
}

// Compare orders identifiers by value, then by canonical kind.
// It returns -1, 0 or +1.
func (id Identifier) Compare(other Identifier) int {
	if c := strings.Compare(id.value, other.value); c != 0 {
		return c
	}

	a, b := id.kind.Canonical(), other.kind.Canonical()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (id Identifier) Less(other Identifier) bool {
	return id.Compare(other) < 0
}

// Hash is consistent with Equal.
func (id Identifier) Hash() uint64 {
	return xxhash.Sum64String(id.value) ^ (uint64(id.kind.Canonical()) * 0x9e3779b97f4a7c15)
}

// Must panics if err is not nil. Intended for identifiers known at compile time.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}

	return v
}
