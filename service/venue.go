package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"fenrir/domain/engine"
	"fenrir/infra/kafka"
	"fenrir/infra/memory"
	"fenrir/infra/outbox"
	"fenrir/infra/sequence"
	"fenrir/metrics"
)

// Venue is the only write entry point into the system. It owns the
// matching engine and implements its event sink: every book mutation
// is sequenced, encoded, staged in the outbox for the broadcaster, and
// executions additionally feed the live tick stream.
type Venue struct {
	log   *zap.Logger
	eng   *engine.Engine
	seq   *sequence.Sequencer
	box   *outbox.Outbox
	ticks *kafka.Producer

	tickCh chan Tick
	bufs   *memory.Pool[bytes.Buffer]
}

// Tick is one public trade print. Consumers resolve the instrument by
// joining maker_id against the add stream; the execution event itself
// does not carry the symbol.
type Tick struct {
	MakerID uint64 `json:"maker_id"`
	TakerID uint64 `json:"taker_id"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
	Time    int64  `json:"time"`
}

// New wires a venue. box and ticks may be nil (tests, kafka-less dev
// runs); the corresponding stage is skipped.
func New(log *zap.Logger, box *outbox.Outbox, ticks *kafka.Producer) *Venue {
	v := &Venue{
		log:    log,
		seq:    sequence.New(0),
		box:    box,
		ticks:  ticks,
		tickCh: make(chan Tick, 1024),
		bufs: memory.NewPool(func() *bytes.Buffer {
			return &bytes.Buffer{}
		}),
	}
	v.eng = engine.New(v, func() int64 { return time.Now().UnixNano() })
	return v
}

// Run starts the tick publisher. Returns immediately when no producer
// is configured.
func (v *Venue) Run(ctx context.Context) {
	if v.ticks == nil {
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-v.tickCh:
				payload, err := json.Marshal(t)
				if err != nil {
					continue
				}
				key := []byte(strconv.FormatUint(t.MakerID, 10))
				if err := v.ticks.Send(ctx, key, payload); err != nil {
					v.log.Warn("tick publish failed", zap.Error(err))
				}
			}
		}
	}()
}

//
// Commands (called by the transport, one per decoded client command)
//

// Buy submits a limit buy. Returns the last event sequence staged for
// this venue, used by sessions as a progress ack.
func (v *Venue) Buy(id uint64, symbol string, price, qty int64) uint64 {
	v.eng.Buy(id, symbol, price, qty)
	return v.seq.Current()
}

// Sell submits a limit sell.
func (v *Venue) Sell(id uint64, symbol string, price, qty int64) uint64 {
	v.eng.Sell(id, symbol, price, qty)
	return v.seq.Current()
}

// Cancel withdraws a resting order. The outcome is reported on the
// event stream, not here.
func (v *Venue) Cancel(id uint64) uint64 {
	v.eng.Cancel(id)
	return v.seq.Current()
}

// Levels returns the aggregated ladders for one instrument.
func (v *Venue) Levels(symbol string) (bids, asks []engine.Level) {
	return v.eng.Levels(symbol)
}

//
// engine.Sink
//

func (v *Venue) OrderAdded(id uint64, symbol string, price, qty int64, sell bool, ts int64) {
	side := engine.Buy
	if sell {
		side = engine.Sell
	}
	metrics.OrdersAdded.WithLabelValues(side.String()).Inc()
	v.record(engine.Event{
		Type:    engine.EventAdd,
		OrderID: id,
		Symbol:  symbol,
		Price:   price,
		Qty:     qty,
		Sell:    sell,
		Time:    ts,
	})
}

func (v *Venue) OrderExecuted(restingID, takerID, execID uint64, price, qty int64, ts int64) {
	metrics.OrdersExecuted.Inc()
	v.record(engine.Event{
		Type:    engine.EventExec,
		OrderID: restingID,
		TakerID: takerID,
		ExecID:  execID,
		Price:   price,
		Qty:     qty,
		Time:    ts,
	})

	select {
	case v.tickCh <- Tick{MakerID: restingID, TakerID: takerID, Price: price, Qty: qty, Time: ts}:
	default:
		metrics.TicksDropped.Inc()
	}
}

func (v *Venue) OrderDeleted(id uint64, ok bool, ts int64) {
	outcome := "missed"
	if ok {
		outcome = "cancelled"
	}
	metrics.OrdersDeleted.WithLabelValues(outcome).Inc()
	v.record(engine.Event{
		Type:    engine.EventDel,
		OrderID: id,
		OK:      ok,
		Time:    ts,
	})
}

// record sequences and stages one event. Runs on the matching
// goroutine, sometimes under an order lock, so it does disk staging
// only; network delivery belongs to the broadcaster.
func (v *Venue) record(ev engine.Event) {
	ev.V = engine.EventVersion
	ev.Seq = v.seq.Next()

	buf := v.bufs.Get()
	buf.Reset()
	if err := json.NewEncoder(buf).Encode(&ev); err != nil {
		v.bufs.Put(buf)
		v.log.Error("event encode failed", zap.Uint64("seq", ev.Seq), zap.Error(err))
		return
	}
	payload := append([]byte(nil), bytes.TrimRight(buf.Bytes(), "\n")...)
	v.bufs.Put(buf)

	if v.box == nil {
		return
	}
	if err := v.box.Append(ev.Seq, payload); err != nil {
		v.log.Error("outbox append failed", zap.Uint64("seq", ev.Seq), zap.Error(err))
	}
}
