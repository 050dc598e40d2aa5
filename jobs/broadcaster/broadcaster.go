package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"fenrir/infra/outbox"
)

// Broadcaster drains the event outbox to Kafka. It scans pending
// records on a ticker, publishes each, and acks; a record that fails
// to publish stays pending and is retried on a later pass, so delivery
// is at-least-once and consumers dedupe by sequence number.
type Broadcaster struct {
	log      *zap.Logger
	box      *outbox.Outbox
	producer sarama.SyncProducer
	topic    string

	every     time.Duration
	redeliver time.Duration
}

func New(
	log *zap.Logger,
	box *outbox.Outbox,
	brokers []string,
	topic string,
	every, redeliver time.Duration,
) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		log:       log,
		box:       box,
		producer:  producer,
		topic:     topic,
		every:     every,
		redeliver: redeliver,
	}, nil
}

// Run blocks until ctx is done, draining the outbox every tick.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started",
		zap.String("topic", b.topic),
		zap.Duration("every", b.every),
	)

	ticker := time.NewTicker(b.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.drainOnce()
		}
	}
}

func (b *Broadcaster) drainOnce() {
	err := b.box.ScanPending(b.redeliver, func(rec outbox.Record) error {
		// Mark SENT before publishing: a crash in between redelivers
		// after the window instead of losing the record.
		if err := b.box.MarkSent(rec.Seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(rec.Seq, 10)),
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn("publish failed, will retry",
				zap.Uint64("seq", rec.Seq),
				zap.Error(err),
			)
			return nil
		}

		return b.box.MarkAcked(rec.Seq)
	})
	if err != nil {
		b.log.Error("outbox scan failed", zap.Error(err))
		return
	}

	if n, err := b.box.PruneAcked(); err != nil {
		b.log.Error("outbox prune failed", zap.Error(err))
	} else if n > 0 {
		b.log.Debug("pruned acked events", zap.Int("count", n))
	}
}
