package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpupo63/portfolio-backend/config"
)

// hitScript counts a hit and gives the key a TTL whenever it has none, so a
// counter can never outlive its window
var hitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Limiter allows at most limit hits per key within each fixed window
type Limiter struct {
	rdb    redis.Scripter
	prefix string
	limit  int64
	window time.Duration
}

func New(rdb redis.Scripter, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// NewRedisClient parses REDIS_URL. It returns nil when the url is not set.
func NewRedisClient(c map[string]string) (*redis.Client, error) {
	url := config.GetString(c, "REDIS_URL", "")
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Window returns the length of one counting window
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow counts a hit for key and reports whether it is within the limit
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)

	count, err := hitScript.Run(ctx, l.rdb, []string{redisKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return count <= l.limit, nil
}
