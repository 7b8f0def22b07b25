package kafka

import (
	"testing"
	"time"
)

func TestProducerOptions(t *testing.T) {
	cfg := &ProducerConfig{}
	opts := []ProducerOption{
		WithBrokers([]string{"kafka-1:9092", "kafka-2:9092"}),
		WithCompression("snappy"),
		WithRequiredAcks(-1),
		WithMaxAttempts(5),
		WithBatching(100, 1<<20, 50*time.Millisecond),
		WithTimeouts(10*time.Second, 10*time.Second),
		WithAsync(true),
		WithHashByKey(true),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) != 2 || cfg.Compression != "snappy" || cfg.RequiredAcks != -1 {
		t.Fatalf("writer fields: %+v", cfg)
	}
	if cfg.BatchSize != 100 || cfg.BatchBytes != 1<<20 || cfg.BatchTimeout != 50*time.Millisecond {
		t.Fatalf("batching fields: %+v", cfg)
	}
	if !cfg.Async || !cfg.HashByKey || cfg.MaxAttempts != 5 {
		t.Fatalf("delivery fields: %+v", cfg)
	}
}
