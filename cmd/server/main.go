package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fenrir/api"
	"fenrir/config"
	"fenrir/infra/kafka"
	"fenrir/infra/outbox"
	"fenrir/jobs/broadcaster"
	"fenrir/service"
	"fenrir/util"
)

func main() {
	cfg := config.LoadFromEnv("")

	log, err := util.NewLogger(cfg.LogLevel)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	// ---------------- Outbox ----------------

	box, err := outbox.Open(cfg.OutboxDir)
	if err != nil {
		log.Fatal("outbox init failed", zap.Error(err))
	}
	defer box.Close()

	// ---------------- Kafka ----------------

	var ticks *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		ticks = kafka.NewProducer(cfg.KafkaBrokers, cfg.TicksTopic)
		defer ticks.Close()
	} else {
		log.Warn("no kafka brokers configured, tick stream disabled")
	}

	// ---------------- Venue ----------------

	venue := service.New(log, box, ticks)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	venue.Run(ctx)

	// ---------------- Broadcaster ----------------

	if len(cfg.KafkaBrokers) > 0 {
		bc, err := broadcaster.New(
			log,
			box,
			cfg.KafkaBrokers,
			cfg.EventsTopic,
			cfg.BroadcastEvery,
			cfg.RedeliverAfter,
		)
		if err != nil {
			log.Fatal("broadcaster init failed", zap.Error(err))
		}
		go bc.Run(ctx)
	} else {
		log.Warn("no kafka brokers configured, event broadcast disabled")
	}

	// ---------------- API ----------------

	srv := api.NewServer(log, venue, cfg.MaxSymbolLen)
	if err := srv.Start(cfg.ListenAddr); err != nil {
		log.Fatal("api server exited", zap.Error(err))
	}
}
