package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything outside the matching core: where to
// listen, where events go, where the outbox lives.
type Config struct {
	ListenAddr string

	KafkaBrokers []string
	EventsTopic  string
	TicksTopic   string

	OutboxDir      string
	BroadcastEvery time.Duration
	RedeliverAfter time.Duration

	LogLevel string

	// MaxSymbolLen bounds the instrument symbol accepted at the
	// transport edge; the core itself is agnostic.
	MaxSymbolLen int
}

func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		KafkaBrokers:   nil,
		EventsTopic:    "fenrir.events",
		TicksTopic:     "fenrir.ticks",
		OutboxDir:      "./data/outbox",
		BroadcastEvery: 250 * time.Millisecond,
		RedeliverAfter: 5 * time.Second,
		LogLevel:       "info",
		MaxSymbolLen:   16,
	}
}

// LoadFromEnv loads .env (if present) and overrides defaults with
// environment variables. Priority: ENV > .env > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("FENRIR_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("EVENTS_TOPIC"); v != "" {
		cfg.EventsTopic = v
	}
	if v := os.Getenv("TICKS_TOPIC"); v != "" {
		cfg.TicksTopic = v
	}
	if v := os.Getenv("OUTBOX_DIR"); v != "" {
		cfg.OutboxDir = v
	}
	if v := os.Getenv("BROADCAST_EVERY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.BroadcastEvery = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("REDELIVER_AFTER_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.RedeliverAfter = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MAX_SYMBOL_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSymbolLen = n
		}
	}

	return cfg
}
