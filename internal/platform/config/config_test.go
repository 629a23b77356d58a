package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults keep the service runnable without configuration", func(t *testing.T) {
		t.Setenv("DB_BACKEND", "")
		t.Setenv("KAFKA_BROKERS", "")
		cfg := FromEnv()

		assert.Equal(t, ":5000", cfg.Server.Addr)
		assert.Equal(t, "memory", cfg.Database.Backend)
		assert.Empty(t, cfg.Kafka.Brokers)
		assert.Equal(t, 24*time.Hour, cfg.Registration.ProvisionalRetention)
		assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
		assert.True(t, cfg.Gateway.VerifyClientSignature)
	})

	t.Run("overrides are parsed", func(t *testing.T) {
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
		t.Setenv("PROVISIONAL_RETENTION", "2h")
		t.Setenv("SMTP_PORT", "587")
		t.Setenv("RAZORPAY_VERIFY_CLIENT_SIGNATURE", "false")
		cfg := FromEnv()

		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 2*time.Hour, cfg.Registration.ProvisionalRetention)
		assert.Equal(t, 587, cfg.Email.Port)
		assert.False(t, cfg.Gateway.VerifyClientSignature)
	})

	t.Run("malformed values fall back to defaults", func(t *testing.T) {
		t.Setenv("SMTP_TIMEOUT", "soon")
		t.Setenv("NOTIFICATION_BUFFER", "lots")
		cfg := FromEnv()

		assert.Equal(t, 10*time.Second, cfg.Email.Timeout)
		assert.Equal(t, 256, cfg.Registration.NotificationBuffer)
	})
}
