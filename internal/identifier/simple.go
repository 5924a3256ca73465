package identifier

// Venue is a trading venue.
type Venue struct{ Identifier }

// Exchange is an alias of Venue: both compare equal for the same name.
type Exchange struct{ Identifier }

// Brokerage is a broker that is not itself an exchange.
type Brokerage struct{ Identifier }

// Issuer is the issuing party of an account.
type Issuer struct{ Identifier }

// OrderID is the venue assigned order id.
type OrderID struct{ Identifier }

// ClientOrderID is the order id assigned by the platform.
type ClientOrderID struct{ Identifier }

// PositionID identifies a position.
type PositionID struct{ Identifier }

func NewVenue(name string) (Venue, error) {
	id, err := newIdentifier(KindVenue, name)
	return Venue{id}, err
}

func NewExchange(name string) (Exchange, error) {
	id, err := newIdentifier(KindExchange, name)
	return Exchange{id}, err
}

func NewBrokerage(name string) (Brokerage, error) {
	id, err := newIdentifier(KindBrokerage, name)
	return Brokerage{id}, err
}

func NewIssuer(name string) (Issuer, error) {
	id, err := newIdentifier(KindIssuer, name)
	return Issuer{id}, err
}

func NewOrderID(value string) (OrderID, error) {
	id, err := newIdentifier(KindOrderID, value)
	return OrderID{id}, err
}

func NewClientOrderID(value string) (ClientOrderID, error) {
	id, err := newIdentifier(KindClientOrderID, value)
	return ClientOrderID{id}, err
}

func NewPositionID(value string) (PositionID, error) {
	id, err := newIdentifier(KindPositionID, value)
	return PositionID{id}, err
}

func NullOrderID() OrderID {
	return OrderID{Identifier{kind: KindOrderID, value: NullValue}}
}

func NullClientOrderID() ClientOrderID {
	return ClientOrderID{Identifier{kind: KindClientOrderID, value: NullValue}}
}

func NullPositionID() PositionID {
	return PositionID{Identifier{kind: KindPositionID, value: NullValue}}
}
