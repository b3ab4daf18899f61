package model

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// json is the hot-path decoder: one snapshot decode per push message.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Errors returned by snapshot parsing.
var (
	ErrEmptyPayload = errors.New("empty snapshot payload")
	ErrNoData       = errors.New("snapshot has no data field")
)

// Tick is the latest known price for a single instrument.
type Tick struct {
	Price float64   // Last traded price
	AsOf  time.Time // Upstream timestamp for this price
}

// Snapshot is one full push update: the latest known price for every
// tracked instrument. It is a whole replace-style payload, never a delta.
type Snapshot struct {
	ReceivedAt time.Time       // Local timestamp when the payload arrived
	AsOf       time.Time       // Upstream envelope timestamp
	Prices     map[string]Tick // Ticker -> latest price
}

// wireSnapshot mirrors the upstream payload shape:
//
//	{"timestamp": ISO8601, "data": {"TICKER": {"last_price": n, "timestamp": ISO8601}}}
type wireSnapshot struct {
	Timestamp string              `json:"timestamp"`
	Data      map[string]wireTick `json:"data"`
}

type wireTick struct {
	LastPrice float64 `json:"last_price"`
	Timestamp string  `json:"timestamp"`
}

// ParseSnapshot decodes a single push payload. Malformed JSON or a missing
// data map is an error; callers drop such messages. Timestamps that fail
// to parse degrade to receivedAt — the envelope shape is the only
// load-bearing part, staleness keys off observation wall-clock anyway.
func ParseSnapshot(payload []byte, receivedAt time.Time) (Snapshot, error) {
	if len(payload) == 0 {
		return Snapshot{}, ErrEmptyPayload
	}

	var wire wireSnapshot
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Snapshot{}, err
	}
	if wire.Data == nil {
		return Snapshot{}, ErrNoData
	}

	snap := Snapshot{
		ReceivedAt: receivedAt,
		AsOf:       parseTime(wire.Timestamp, receivedAt),
		Prices:     make(map[string]Tick, len(wire.Data)),
	}
	for ticker, wt := range wire.Data {
		snap.Prices[ticker] = Tick{
			Price: wt.LastPrice,
			AsOf:  parseTime(wt.Timestamp, receivedAt),
		}
	}
	return snap, nil
}

// EncodeSnapshot serializes a snapshot back to the wire shape. The relay
// uses this for fanout and the caching endpoint.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	wire := wireSnapshot{
		Timestamp: snap.AsOf.UTC().Format(time.RFC3339Nano),
		Data:      make(map[string]wireTick, len(snap.Prices)),
	}
	for ticker, tick := range snap.Prices {
		wire.Data[ticker] = wireTick{
			LastPrice: tick.Price,
			Timestamp: tick.AsOf.UTC().Format(time.RFC3339Nano),
		}
	}
	return json.Marshal(wire)
}

func parseTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts
	}
	return fallback
}
