package channel

import (
	"bytes"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultLegacyMarker is the plain-text marker older backends push for a sale.
const DefaultLegacyMarker = "NUEVA_VENTA"

// Kind tags a decoded channel message.
type Kind string

const (
	KindSale      Kind = "sale_event"
	KindHeartbeat Kind = "heartbeat"
)

// SaleEvent reports that a sale was recorded.
type SaleEvent struct {
	ID        string
	Amount    float64
	HasAmount bool
	At        time.Time

	// Legacy is set when the event came from a plain-text marker payload.
	Legacy bool
}

// Message is a decoded inbound payload.
type Message struct {
	Kind Kind
	Sale *SaleEvent
}

// envelope is the wire format: {"type": "sale_event", "sale_id": ..., "total": ..., "at": ...}.
type envelope struct {
	Type   string     `json:"type"`
	SaleID string     `json:"sale_id"`
	Total  *float64   `json:"total"`
	At     *time.Time `json:"at"`
}

// Decode parses one inbound payload.
//
// JSON envelopes are decoded by their "type" field. A payload that is not a
// typed envelope but contains legacyMarker decodes as a legacy sale event.
// Everything else wraps ErrUnrecognizedMessage.
func Decode(data []byte, legacyMarker string) (Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Message{}, fmt.Errorf("%w: empty payload", ErrUnrecognizedMessage)
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Type != "" {
			return decodeEnvelope(env, legacyMarker)
		}
	}

	if legacyMarker != "" && bytes.Contains(trimmed, []byte(legacyMarker)) {
		return Message{Kind: KindSale, Sale: &SaleEvent{Legacy: true}}, nil
	}

	return Message{}, fmt.Errorf("%w: %s", ErrUnrecognizedMessage, preview(trimmed))
}

func decodeEnvelope(env envelope, legacyMarker string) (Message, error) {
	switch {
	case env.Type == string(KindSale), legacyMarker != "" && env.Type == legacyMarker:
		sale := &SaleEvent{ID: env.SaleID}
		if env.Total != nil {
			sale.Amount = *env.Total
			sale.HasAmount = true
		}
		if env.At != nil {
			sale.At = *env.At
		}
		return Message{Kind: KindSale, Sale: sale}, nil
	case env.Type == string(KindHeartbeat):
		return Message{Kind: KindHeartbeat}, nil
	default:
		return Message{}, fmt.Errorf("%w: type %q", ErrUnrecognizedMessage, env.Type)
	}
}

// preview truncates a payload for log output.
func preview(b []byte) string {
	const max = 64
	if len(b) <= max {
		return fmt.Sprintf("%q", b)
	}
	return fmt.Sprintf("%q...", b[:max])
}
