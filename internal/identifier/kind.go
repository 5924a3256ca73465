package identifier

// Kind tags which identifier family a value belongs to.
type Kind uint8

const (
	_kind_beg Kind = iota
	KindIdentifier
	KindVenue
	KindExchange
	KindBrokerage
	KindIssuer
	KindSymbol
	KindTraderID
	KindStrategyID
	KindAccountID
	KindOrderID
	KindClientOrderID
	KindPositionID
	_kind_end
)

var kindNames = [...]string{
	KindIdentifier:    "Identifier",
	KindVenue:         "Venue",
	KindExchange:      "Exchange",
	KindBrokerage:     "Brokerage",
	KindIssuer:        "Issuer",
	KindSymbol:        "Symbol",
	KindTraderID:      "TraderID",
	KindStrategyID:    "StrategyID",
	KindAccountID:     "AccountID",
	KindOrderID:       "OrderID",
	KindClientOrderID: "ClientOrderID",
	KindPositionID:    "PositionID",
}

var (
	// kindAlias maps a kind onto the kind it compares equal to.
	kindAlias = map[Kind]Kind{
		KindExchange: KindVenue,
	}
	canonicalKind = initCanonicalKind()
)

func (k Kind) IsAvailable() bool {
	return k > _kind_beg && k < _kind_end
}

func (k Kind) String() string {
	if !k.IsAvailable() {
		return "Unknown"
	}

	return kindNames[k]
}

// Canonical returns the kind used for equality, ordering and hashing.
func (k Kind) Canonical() Kind {
	if k >= _kind_end {
		return k
	}

	return canonicalKind[k]
}

func initCanonicalKind() [_kind_end]Kind {
	var table [_kind_end]Kind
	for k := range table {
		table[k] = Kind(k)
	}

	for from, to := range kindAlias {
		table[from] = to
	}

	return table
}
