package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/pkg/exception"
)

func TestTraderID(t *testing.T) {
	trader1 := Must(NewTraderID("TESTER", "000"))
	trader2 := Must(NewTraderID("TESTER", "001"))

	assert.True(t, trader1.Equal(trader1.Identifier))
	assert.False(t, trader1.Equal(trader2.Identifier))
	assert.Equal(t, "TESTER-000", trader1.Value())
	assert.Equal(t, "TESTER", trader1.Name())
	assert.Equal(t, "000", trader1.Tag())

	parsed, err := ParseTraderID("TESTER-000")
	require.NoError(t, err)
	assert.True(t, trader1.Equal(parsed.Identifier))
	assert.Equal(t, trader1, parsed)
}

func TestStrategyID(t *testing.T) {
	null := NullStrategyID()
	scalper := Must(NewStrategyID("SCALPER", "01"))

	assert.Equal(t, "NULL-NULL", null.Value())
	assert.True(t, null.IsNull())
	assert.Equal(t, "NULL", null.Name())
	assert.False(t, null.Equal(scalper.Identifier))

	parsed, err := ParseStrategyID("SCALPER-01")
	require.NoError(t, err)
	assert.True(t, scalper.Equal(parsed.Identifier))
}

func TestAccountID(t *testing.T) {
	account1 := Must(NewAccountID("SIM", "02851908"))
	account2 := Must(NewAccountID("SIM", "09999999"))

	assert.False(t, account1.Equal(account2.Identifier))
	assert.Equal(t, "SIM-02851908", account1.Value())
	assert.Equal(t, "02851908", account1.Number())
	assert.True(t, Must(NewIssuer("SIM")).Equal(account1.Issuer().Identifier))
	assert.True(t, account1.Equal(Must(NewAccountID("SIM", "02851908")).Identifier))
	assert.Equal(t, "NULL-NULL", NullAccountID().Value())
}

func TestNullTraderIDParses(t *testing.T) {
	parsed, err := ParseTraderID(NullTraderID().Value())
	require.NoError(t, err)
	assert.True(t, parsed.IsNull())
	assert.Equal(t, NullTraderID(), parsed)
}

func TestParseCompositeMalformed(t *testing.T) {
	testCases := []struct {
		desc  string
		input string
	}{
		{"no separator", "BAD_STRING"},
		{"empty", ""},
		{"leading separator", "-001"},
		{"trailing separator", "TESTER-"},
		{"only separator", "-"},
		{"blank name", " -001"},
	}

	parsers := map[string]func(string) error{
		"trader": func(s string) error {
			_, err := ParseTraderID(s)
			return err
		},
		"strategy": func(s string) error {
			_, err := ParseStrategyID(s)
			return err
		},
		"account": func(s string) error {
			_, err := ParseAccountID(s)
			return err
		},
	}

	for name, parse := range parsers {
		for _, tc := range testCases {
			t.Run(name+" "+tc.desc, func(t *testing.T) {
				assert.ErrorIs(t, parse(tc.input), exception.ErrValueFormat)
			})
		}
	}
}

func TestNewCompositeInvalid(t *testing.T) {
	_, err := NewTraderID("TEST-ER", "001")
	assert.ErrorIs(t, err, exception.ErrValueFormat)

	_, err = NewStrategyID("SCALPER", " ")
	assert.ErrorIs(t, err, exception.ErrValueFormat)

	_, err = NewAccountID("", "123")
	assert.ErrorIs(t, err, exception.ErrValueFormat)
}

func TestCompositeTagMayContainSeparator(t *testing.T) {
	id := Must(NewStrategyID("EMACross", "003-A"))
	parsed := Must(ParseStrategyID(id.String()))

	assert.Equal(t, "EMACross", parsed.Name())
	assert.Equal(t, "003-A", parsed.Tag())
	assert.True(t, id.Equal(parsed.Identifier))
}
