package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Guard suppresses duplicate order submissions keyed by a client-supplied
// idempotency key. It is an optional convenience on top of the transactional
// order path, never a correctness mechanism. A key is recorded only after the
// placement committed, so a failed request can be retried verbatim.
type Guard struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewGuard(rdb *redis.Client) *Guard {
	return &Guard{RDB: rdb, TTL: 24 * time.Hour}
}

// Seen reports whether this key already produced a committed order.
func (g *Guard) Seen(ctx context.Context, key string) (bool, error) {
	n, err := g.RDB.Exists(ctx, "idem:order:"+key).Result()
	return n > 0, err
}

// Mark records a key after a successful placement.
func (g *Guard) Mark(ctx context.Context, key string) error {
	return g.RDB.SetNX(ctx, "idem:order:"+key, 1, g.TTL).Err()
}
