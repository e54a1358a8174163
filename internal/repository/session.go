package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/redis"
)

// SessionRepository stores session snapshots keyed by the token hash.
type SessionRepository interface {
	Get(ctx context.Context, tokenHash string) (*model.SessionSnapshot, error)
	Set(ctx context.Context, tokenHash string, snapshot *model.SessionSnapshot, ttl time.Duration) error
	// Replace overwrites an existing snapshot without touching its expiry.
	// It reports false when no live session exists for tokenHash.
	Replace(ctx context.Context, tokenHash string, snapshot *model.SessionSnapshot) (bool, error)
	Destroy(ctx context.Context, tokenHash string) error
}

type sessionRepo struct {
	rdb goredis.Cmdable
}

func NewSessionRepository(rdb goredis.Cmdable) SessionRepository {
	return &sessionRepo{rdb: rdb}
}

func (r *sessionRepo) Get(ctx context.Context, tokenHash string) (*model.SessionSnapshot, error) {
	raw, err := r.rdb.Get(ctx, redis.SessionKey(tokenHash)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot model.SessionSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &snapshot, nil
}

func (r *sessionRepo) Set(ctx context.Context, tokenHash string, snapshot *model.SessionSnapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.rdb.Set(ctx, redis.SessionKey(tokenHash), raw, ttl).Err()
}

func (r *sessionRepo) Replace(ctx context.Context, tokenHash string, snapshot *model.SessionSnapshot) (bool, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return false, fmt.Errorf("encode session: %w", err)
	}
	err = r.rdb.SetArgs(ctx, redis.SessionKey(tokenHash), raw, goredis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *sessionRepo) Destroy(ctx context.Context, tokenHash string) error {
	return r.rdb.Del(ctx, redis.SessionKey(tokenHash)).Err()
}
