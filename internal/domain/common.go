package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Direction is the side of a position. It is NONE while no position
// lifecycle is in progress and fixed from ENTERING until the position
// returns to FLAT.
type Direction string

const (
	Long        Direction = "LONG"
	Short       Direction = "SHORT"
	NoDirection Direction = "NONE"
)

// Valid reports whether d is one of the three known directions.
func (d Direction) Valid() bool {
	switch d {
	case Long, Short, NoDirection:
		return true
	}
	return false
}

// EntrySide returns the order side that opens a position in this direction.
func (d Direction) EntrySide() OrderSide {
	if d == Short {
		return Sell
	}
	return Buy
}

// CloseSide returns the order side that reduces or closes a position in
// this direction.
func (d Direction) CloseSide() OrderSide {
	if d == Short {
		return Buy
	}
	return Sell
}
