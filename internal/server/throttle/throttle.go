// Package throttle locks out login attempts for an email after repeated
// failures. State lives in Redis so every API replica sees the same counts.
package throttle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yapplr/yapplr/internal/common"
)

const (
	failPrefix = "login:fail:"
	lockPrefix = "login:lock:"
)

type Settings struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// LoginThrottle counts failures per key. A nil *LoginThrottle allows
// everything.
type LoginThrottle struct {
	client   redis.Cmdable
	settings Settings
}

func NewLoginThrottle(client redis.Cmdable, s Settings) *LoginThrottle {
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = 5
	}
	if s.Window <= 0 {
		s.Window = 15 * time.Minute
	}
	if s.Lockout <= 0 {
		s.Lockout = s.Window
	}
	return &LoginThrottle{client: client, settings: s}
}

// Check returns common.ErrTooManyAttempts while key is locked out.
func (t *LoginThrottle) Check(ctx context.Context, key string) error {
	if t == nil {
		return nil
	}
	n, err := t.client.Exists(ctx, lockPrefix+key).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return common.ErrTooManyAttempts
	}
	return nil
}

// Failure records a failed attempt and starts a lockout once the limit is
// reached within the window.
func (t *LoginThrottle) Failure(ctx context.Context, key string) error {
	if t == nil {
		return nil
	}
	failKey := failPrefix + key
	// The counter is created with its TTL in the same transaction as the
	// increment, so it can never outlive the window.
	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, failKey, 0, t.settings.Window)
		incr = p.Incr(ctx, failKey)
		return nil
	})
	if err != nil {
		return err
	}
	n := incr.Val()
	if n < int64(t.settings.MaxAttempts) {
		return nil
	}
	_, err = t.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, lockPrefix+key, n, t.settings.Lockout)
		p.Del(ctx, failKey)
		return nil
	})
	return err
}

// Reset clears the failure count after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	if t == nil {
		return nil
	}
	return t.client.Del(ctx, failPrefix+key, lockPrefix+key).Err()
}
