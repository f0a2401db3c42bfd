package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/shelfwatch-backend/pkg/config"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
)

const keyNamespace = "shelfwatch"

// releaseScript deletes KEYS[1] only while it still holds ARGV[1].
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`

var ErrNotInitialized = errors.New("redis client not initialized")

// Nil is returned by Get on a missing key.
var Nil = redis.Nil

type commands interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Client backs the filter-options cache, the idempotency store and the
// scheduler lock. Every method on a nil *Client returns ErrNotInitialized.
type Client struct {
	cmd  commands
	conn *redis.Client
}

// New dials Redis and fails unless the first PING succeeds.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"addr": opts.Addr, "db": opts.DB}), "redis connection established")
	}
	return &Client{cmd: conn, conn: conn}, nil
}

// optionsFromConfig prefers SHELFWATCH_REDIS_URL; pool and timeout settings
// from the environment fill whatever the URL left unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis url or address is required")
	}
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
	}
	opts.PoolSize = orInt(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = orInt(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = orDuration(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = orDuration(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = orDuration(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orDuration(v, fallback time.Duration) time.Duration {
	if v != 0 {
		return v
	}
	return fallback
}

func (c *Client) ready() bool { return c != nil && c.cmd != nil }

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.ready() {
		return ErrNotInitialized
	}
	return c.cmd.Set(ctx, key, value, ttl).Err()
}

// Get returns Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if !c.ready() {
		return "", ErrNotInitialized
	}
	return c.cmd.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if !c.ready() {
		return false, ErrNotInitialized
	}
	return c.cmd.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if !c.ready() {
		return ErrNotInitialized
	}
	return c.cmd.Del(ctx, keys...).Err()
}

// DelIfValue atomically deletes key when it still holds value and reports
// whether a delete happened.
func (c *Client) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	if !c.ready() {
		return false, ErrNotInitialized
	}
	n, err := c.cmd.Eval(ctx, releaseScript, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if !c.ready() {
		return ErrNotInitialized
	}
	return c.cmd.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// CacheKey namespaces cached read models: shelfwatch:cache:<parts...>.
func (c *Client) CacheKey(parts ...string) string {
	return buildKey(append([]string{"cache"}, parts...)...)
}

// LockKey namespaces scheduler locks: shelfwatch:lock:<name>.
func (c *Client) LockKey(name string) string {
	return buildKey("lock", name)
}

// IdempotencyKey namespaces stored write responses: shelfwatch:idem:<scope>:<key>.
func (c *Client) IdempotencyKey(scope, key string) string {
	return buildKey("idem", scope, key)
}

func buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
