package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alejandrodnm/courtside/internal/domain"
)

var (
	// ErrUnknownEvent is returned for envelopes with an unrecognized type.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrMalformed is returned when a required field cannot be interpreted.
	ErrMalformed = errors.New("malformed event")
)

// Envelope types on the wire.
const (
	TypeTrade        = "trade"
	TypeBookDelta    = "book_delta"
	TypeBookSnapshot = "book_snapshot"
	TypeAccount      = "account"
	TypeGame         = "game"
)

// envelope is the JSON shape shared by every event. Book levels travel as
// [price, quantity] pairs.
type envelope struct {
	Type       string       `json:"type"`
	Instrument string       `json:"instrument,omitempty"`
	Side       string       `json:"side,omitempty"`
	Price      float64      `json:"price,omitempty"`
	Quantity   float64      `json:"quantity,omitempty"`
	Capital    float64      `json:"capital_remaining,omitempty"`
	Bids       [][2]float64 `json:"bids,omitempty"`
	Asks       [][2]float64 `json:"asks,omitempty"`

	EventType   string   `json:"event_type,omitempty"`
	HomeAway    string   `json:"home_away,omitempty"`
	HomeScore   int      `json:"home_score,omitempty"`
	AwayScore   int      `json:"away_score,omitempty"`
	PlayerName  *string  `json:"player_name,omitempty"`
	ShotType    *string  `json:"shot_type,omitempty"`
	TimeSeconds *float64 `json:"time_seconds,omitempty"`
}

// Decode parses one JSON envelope into a domain event.
func Decode(data []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("feed.Decode: %w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeTrade, TypeBookDelta, TypeAccount:
		side, ok := domain.ParseSide(env.Side)
		if !ok {
			return nil, fmt.Errorf("feed.Decode: %w: side %q", ErrMalformed, env.Side)
		}
		inst := domain.Instrument(env.Instrument)
		switch env.Type {
		case TypeTrade:
			return domain.TradePrint{Instrument: inst, Side: side, Quantity: env.Quantity, Price: env.Price}, nil
		case TypeBookDelta:
			return domain.BookDelta{Instrument: inst, Side: side, Quantity: env.Quantity, Price: env.Price}, nil
		default:
			return domain.AccountUpdate{
				Instrument:       inst,
				Side:             side,
				Price:            env.Price,
				Quantity:         env.Quantity,
				CapitalRemaining: env.Capital,
			}, nil
		}

	case TypeBookSnapshot:
		return domain.BookSnapshot{
			Instrument: domain.Instrument(env.Instrument),
			Bids:       toEntries(env.Bids),
			Asks:       toEntries(env.Asks),
		}, nil

	case TypeGame:
		if env.EventType == "" {
			return nil, fmt.Errorf("feed.Decode: %w: game event without event_type", ErrMalformed)
		}
		return domain.GameEvent{
			Type:          env.EventType,
			HomeAway:      env.HomeAway,
			HomeScore:     env.HomeScore,
			AwayScore:     env.AwayScore,
			PlayerName:    env.PlayerName,
			ShotType:      env.ShotType,
			TimeRemaining: env.TimeSeconds,
		}, nil
	}
	return nil, fmt.Errorf("feed.Decode: %w: %q", ErrUnknownEvent, env.Type)
}

// Encode serializes a domain event into its envelope.
func Encode(ev domain.Event) ([]byte, error) {
	var env envelope
	switch e := ev.(type) {
	case domain.TradePrint:
		env = envelope{Type: TypeTrade, Instrument: string(e.Instrument), Side: e.Side.String(), Price: e.Price, Quantity: e.Quantity}
	case domain.BookDelta:
		env = envelope{Type: TypeBookDelta, Instrument: string(e.Instrument), Side: e.Side.String(), Price: e.Price, Quantity: e.Quantity}
	case domain.BookSnapshot:
		env = envelope{Type: TypeBookSnapshot, Instrument: string(e.Instrument), Bids: fromEntries(e.Bids), Asks: fromEntries(e.Asks)}
	case domain.AccountUpdate:
		env = envelope{Type: TypeAccount, Instrument: string(e.Instrument), Side: e.Side.String(), Price: e.Price, Quantity: e.Quantity, Capital: e.CapitalRemaining}
	case domain.GameEvent:
		env = envelope{
			Type:        TypeGame,
			EventType:   e.Type,
			HomeAway:    e.HomeAway,
			HomeScore:   e.HomeScore,
			AwayScore:   e.AwayScore,
			PlayerName:  e.PlayerName,
			ShotType:    e.ShotType,
			TimeSeconds: e.TimeRemaining,
		}
	default:
		return nil, fmt.Errorf("feed.Encode: %w: %T", ErrUnknownEvent, ev)
	}
	return json.Marshal(env)
}

func toEntries(levels [][2]float64) []domain.BookEntry {
	out := make([]domain.BookEntry, 0, len(levels))
	for _, l := range levels {
		out = append(out, domain.BookEntry{Price: l[0], Size: l[1]})
	}
	return out
}

func fromEntries(entries []domain.BookEntry) [][2]float64 {
	out := make([][2]float64, 0, len(entries))
	for _, e := range entries {
		out = append(out, [2]float64{e.Price, e.Size})
	}
	return out
}
