package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisOTPNamespace   = "password_reset_otp"
	redisMaxTxAttempts  = 5
	defaultOTPRetention = 10 * time.Minute
)

type redisOTPLedger struct {
	client    redis.UniversalClient
	retention time.Duration
}

// NewRedisOTPLedger stores each record as JSON under its own key. Keys
// outlive ExpiresAt by retention so a late verify still reports expiry
// instead of a missing request; Redis drops them afterwards.
func NewRedisOTPLedger(client redis.UniversalClient, retention time.Duration) OTPLedger {
	if retention <= 0 {
		retention = defaultOTPRetention
	}
	return &redisOTPLedger{client: client, retention: retention}
}

func (r *redisOTPLedger) key(email string) string {
	return redisOTPNamespace + ":" + email
}

func (r *redisOTPLedger) Put(ctx context.Context, email string, code string, issuedAt time.Time, ttl time.Duration) error {
	record := newOTPRecord(email, utils.HashToken(code), issuedAt, ttl)
	record.ID = uuid.New()
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(email), data, ttl+r.retention).Err()
}

func (r *redisOTPLedger) Get(ctx context.Context, email string) (*entity.PasswordResetOTP, error) {
	data, err := r.client.Get(ctx, r.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOTPNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeOTPRecord(data)
}

func (r *redisOTPLedger) MarkVerified(ctx context.Context, email string, code string, now time.Time) error {
	key := r.key(email)
	codeHash := utils.HashToken(code)

	verify := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrOTPNotFound
		}
		if err != nil {
			return err
		}
		record, err := decodeOTPRecord(data)
		if err != nil {
			return err
		}

		if record.IsExpired(now) {
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			}); err != nil {
				return err
			}
			return ErrOTPExpired
		}
		if !record.MatchesHash(codeHash) {
			return ErrOTPMismatch
		}

		record.Verified = true
		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}
		ttl, err := tx.PTTL(ctx, key).Result()
		if err != nil {
			return err
		}
		if ttl <= 0 {
			ttl = r.retention
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}

	return r.watch(ctx, key, "mark verified "+email, verify)
}

func (r *redisOTPLedger) Consume(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}

func (r *redisOTPLedger) ConsumeIfCurrent(ctx context.Context, email string, id uuid.UUID) error {
	key := r.key(email)

	consume := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		record, err := decodeOTPRecord(data)
		if err != nil {
			return err
		}
		if record.ID != id {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}

	return r.watch(ctx, key, "consume "+email, consume)
}

// watch runs fn in an optimistic transaction on key, retrying when another
// client touched the key first.
func (r *redisOTPLedger) watch(ctx context.Context, key string, op string, fn func(tx *redis.Tx) error) error {
	for attempt := 0; attempt < redisMaxTxAttempts; attempt++ {
		err := r.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%s: %w", op, redis.TxFailedErr)
}

// DeleteExpired is a no-op: key TTLs already bound how long records live.
func (r *redisOTPLedger) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeOTPRecord(data []byte) (*entity.PasswordResetOTP, error) {
	var record entity.PasswordResetOTP
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode otp record: %w", err)
	}
	return &record, nil
}
