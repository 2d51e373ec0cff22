package domain

// Event is any inbound notification from the market-data or execution side.
type Event interface {
	isEvent()
}

// TradePrint is an executed trade seen on the tape. Informational only.
type TradePrint struct {
	Instrument Instrument
	Side       Side
	Quantity   float64
	Price      float64
}

// BookDelta patches one level. Quantity <= 0 removes it.
type BookDelta struct {
	Instrument Instrument
	Side       Side
	Quantity   float64
	Price      float64
}

// BookSnapshot replaces the whole book.
type BookSnapshot struct {
	Instrument Instrument
	Bids       []BookEntry
	Asks       []BookEntry
}

// AccountUpdate reports a fill on one of our orders and the capital left.
type AccountUpdate struct {
	Instrument       Instrument
	Side             Side
	Price            float64
	Quantity         float64
	CapitalRemaining float64
}

// SignedQuantity is +|q| for buys and -|q| for sells, whatever sign the
// venue put on the quantity.
func (u AccountUpdate) SignedQuantity() float64 {
	q := u.Quantity
	if q < 0 {
		q = -q
	}
	if u.Side == Sell {
		return -q
	}
	return q
}

// Game event types recognized by the tracker and the impact classifier.
const (
	EventScore    = "SCORE"
	EventEndGame  = "END_GAME"
	EventTurnover = "TURNOVER"
	EventSteal    = "STEAL"
	EventFoul     = "FOUL"

	ShotThreePoint = "THREE_POINT"
)

// GameEvent is a play-by-play update. Optional fields are nil when the feed
// did not send them.
type GameEvent struct {
	Type          string
	HomeAway      string
	HomeScore     int
	AwayScore     int
	PlayerName    *string
	ShotType      *string
	TimeRemaining *float64 // seconds left in the game
}

// IsEndGame reports whether the event closes the game.
func (e GameEvent) IsEndGame() bool { return e.Type == EventEndGame }

func (TradePrint) isEvent()    {}
func (BookDelta) isEvent()     {}
func (BookSnapshot) isEvent()  {}
func (AccountUpdate) isEvent() {}
func (GameEvent) isEvent()     {}
