package provisional

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
	"confreg/pkg/requestcontext"
)

const (
	recordKeyPrefix = "confreg:provisional:reg:"
	orderKeyPrefix  = "confreg:provisional:order:"
)

// RedisStore keeps provisional records as JSON values whose TTL is the
// remaining retention, so expiry needs no sweeping. An order index key points
// from gateway order id to registration id.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedis constructs a Redis-backed provisional store.
func NewRedis(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func (s *RedisStore) Save(ctx context.Context, rec *models.Registration) error {
	if rec == nil || rec.RegistrationID == "" {
		return fmt.Errorf("provisional record with registration id is required")
	}
	ttl := s.ttl(ctx, rec)
	if ttl < 0 {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode provisional: %w", err)
	}

	previous, err := s.load(ctx, rec.RegistrationID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil && previous.GatewayOrderID != "" && previous.GatewayOrderID != rec.GatewayOrderID {
			pipe.Del(ctx, orderKeyPrefix+previous.GatewayOrderID)
		}
		pipe.Set(ctx, recordKeyPrefix+rec.RegistrationID, payload, ttl)
		if rec.GatewayOrderID != "" {
			pipe.Set(ctx, orderKeyPrefix+rec.GatewayOrderID, rec.RegistrationID, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save provisional: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error) {
	if orderID == "" {
		return nil, sentinel.ErrNotFound
	}
	regID, err := s.client.Get(ctx, orderKeyPrefix+orderID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find provisional by order: %w", err)
	}
	rec, err := s.FindByRegistrationID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if rec.GatewayOrderID != orderID {
		return nil, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *RedisStore) FindByRegistrationID(ctx context.Context, regID string) (*models.Registration, error) {
	rec, err := s.load(ctx, regID)
	if err != nil {
		return nil, err
	}
	if rec.IsExpired(requestcontext.Now(ctx), s.retention) {
		return nil, sentinel.ErrNotFound
	}
	return rec, nil
}

// AttachOrder re-points the order index at regID. A record that previously
// held the order id keeps its value but the index no longer resolves to it,
// and FindByOrderID cross-checks the stored order id.
func (s *RedisStore) AttachOrder(ctx context.Context, regID, orderID string) (*models.Registration, error) {
	rec, err := s.FindByRegistrationID(ctx, regID)
	if err != nil {
		return nil, err
	}
	rec.GatewayOrderID = orderID
	rec.PaymentStatus = models.PaymentPending
	rec.UpdatedAt = requestcontext.Now(ctx)
	if err := s.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, regID string) error {
	rec, err := s.load(ctx, regID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	keys := []string{recordKeyPrefix + regID}
	if rec.GatewayOrderID != "" {
		owner, err := s.client.Get(ctx, orderKeyPrefix+rec.GatewayOrderID).Result()
		if err == nil && owner == regID {
			keys = append(keys, orderKeyPrefix+rec.GatewayOrderID)
		}
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete provisional: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: keys carry their own TTL.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) load(ctx context.Context, regID string) (*models.Registration, error) {
	raw, err := s.client.Get(ctx, recordKeyPrefix+regID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load provisional: %w", err)
	}
	var rec models.Registration
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode provisional: %w", err)
	}
	return &rec, nil
}

// ttl returns the remaining lifetime of rec; zero means no expiry and a
// negative value means the record is already past retention.
func (s *RedisStore) ttl(ctx context.Context, rec *models.Registration) time.Duration {
	if s.retention <= 0 {
		return 0
	}
	remaining := rec.CreatedAt.Add(s.retention).Sub(requestcontext.Now(ctx))
	if remaining <= 0 {
		return -1
	}
	return remaining
}
