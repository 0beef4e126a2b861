package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/limaJavier/examscheduling/pkg/config"
)

const pingTimeout = 5 * time.Second

// NewRedis connects to the Redis instance holding recently generated schedules. The connection must answer a PING
// before ctx expires (or within five seconds), otherwise schedules would silently never be reused.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "examscheduling",
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping schedule cache at %v: %w", addr, err)
	}
	return client, nil
}
