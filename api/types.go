package api

import (
	"errors"
	"fmt"

	"fenrir/domain/engine"
)

// Command is one decoded session frame.
type Command struct {
	Op     string `json:"op"` // buy | sell | cancel
	ID     uint64 `json:"id"`
	Symbol string `json:"symbol,omitempty"`
	Price  int64  `json:"price,omitempty"`
	Qty    int64  `json:"qty,omitempty"`
}

// Ack is the per-command session reply. Seq is the last event sequence
// staged when the command finished; the authoritative outcome is on
// the event stream.
type Ack struct {
	OK    bool   `json:"ok"`
	Seq   uint64 `json:"seq,omitempty"`
	Error string `json:"error,omitempty"`
}

// BookSnapshot is the aggregated ladder view of one instrument.
type BookSnapshot struct {
	Symbol    string         `json:"symbol"`
	Bids      []engine.Level `json:"bids"`
	Asks      []engine.Level `json:"asks"`
	Timestamp int64          `json:"timestamp"`
}

const (
	OpBuy    = "buy"
	OpSell   = "sell"
	OpCancel = "cancel"
)

var errUnknownOp = errors.New("unknown op")

// validate enforces the transport contract: degenerate input never
// reaches the matching core.
func validate(c Command, maxSymbolLen int) error {
	switch c.Op {
	case OpCancel:
		return nil
	case OpBuy, OpSell:
	default:
		return errUnknownOp
	}
	if c.Symbol == "" {
		return errors.New("empty symbol")
	}
	if len(c.Symbol) > maxSymbolLen {
		return fmt.Errorf("symbol longer than %d", maxSymbolLen)
	}
	if c.Price <= 0 {
		return errors.New("price must be positive")
	}
	if c.Qty <= 0 {
		return errors.New("qty must be positive")
	}
	return nil
}
