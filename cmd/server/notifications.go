package main

import (
	"context"
	"log/slog"

	"confreg/internal/notification"
	"confreg/internal/notification/providers"
	"confreg/internal/notification/queue"
	"confreg/internal/platform/config"
	"confreg/internal/platform/kafka"
)

type notifications struct {
	queue    notification.Queue
	source   notification.Source
	producer *kafka.Producer
	consumer *kafka.Consumer
}

func (n *notifications) close() {
	if n.consumer != nil {
		n.consumer.Close()
	}
	if n.producer != nil {
		n.producer.Close()
	}
}

// openQueue uses Kafka when brokers are configured and an in-process buffer
// otherwise.
func openQueue(ctx context.Context, cfg config.Config, logger *slog.Logger) (*notifications, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		mem := queue.NewMemory(cfg.Registration.NotificationBuffer)
		logger.InfoContext(ctx, "using in-memory notification queue", "buffer", cfg.Registration.NotificationBuffer)
		return &notifications{queue: mem, source: mem}, nil
	}

	kc := cfg.Kafka
	if err := kafka.EnsureTopic(ctx, kc.Brokers, kc.NotificationTopic, kc.Partitions, kc.ReplicationFactor); err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(kc.Brokers)
	if err != nil {
		return nil, err
	}
	consumer, err := kafka.NewConsumer(kc.Brokers, kc.ConsumerGroup, []string{kc.NotificationTopic}, logger)
	if err != nil {
		producer.Close()
		return nil, err
	}
	q := queue.NewKafka(producer, consumer, kc.NotificationTopic)
	logger.InfoContext(ctx, "using kafka notification queue", "topic", kc.NotificationTopic)
	return &notifications{queue: q, source: q, producer: producer, consumer: consumer}, nil
}

func emailProvider(cfg config.EmailConfig, logger *slog.Logger) (providers.Provider, error) {
	if cfg.Provider != "smtp" {
		return providers.NewLog(providers.ChannelEmail, logger), nil
	}
	return providers.NewSMTP(cfg)
}

func whatsAppProvider(cfg config.WhatsAppConfig, logger *slog.Logger) providers.Provider {
	if cfg.Provider != "interakt" {
		return providers.NewLog(providers.ChannelWhatsApp, logger)
	}
	return providers.NewInterakt(cfg)
}
