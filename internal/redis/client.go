package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// SessionKey is keyed by the token hash so raw tokens never reach Redis.
func SessionKey(tokenHash string) string {
	return fmt.Sprintf("session:%s", tokenHash)
}

func LoginAttemptsKey(scope, ip string) string {
	return fmt.Sprintf("ratelimit:login:%s:%s", scope, ip)
}
