package cacheinv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	// KeyPrefix namespaces the cached entries deleted on invalidation.
	KeyPrefix string
}

type Message struct {
	Tag    string    `json:"tag"`
	Source string    `json:"source,omitempty"`
	At     time.Time `json:"at"`
}

// client is the subset of the redis client the invalidator needs.
type client interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *goredis.PubSub
	Close() error
}

type redisInvalidator struct {
	log       *logger.Logger
	rdb       client
	channel   string
	keyPrefix string
	source    string
}

func NewRedisInvalidator(log *logger.Logger, cfg Config) (Invalidator, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisInvalidator(log, rdb, cfg), nil
}

func newRedisInvalidator(log *logger.Logger, rdb client, cfg Config) *redisInvalidator {
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "cache-invalidation"
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "cache:"
	}
	return &redisInvalidator{
		log:       log.With("service", "RedisCacheInvalidator"),
		rdb:       rdb,
		channel:   ch,
		keyPrefix: prefix,
		source:    uuid.New().String(),
	}
}

func (r *redisInvalidator) Invalidate(ctx context.Context, tags ...string) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis invalidator not initialized")
	}
	var errs []error
	keys := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		raw, err := json.Marshal(Message{Tag: tag, Source: r.source, At: time.Now().UTC()})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.rdb.Publish(ctx, r.channel, raw).Err(); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", tag, err))
		}
		if !isWildcard(tag) {
			keys = append(keys, r.keyPrefix+tag)
		}
	}
	if len(keys) > 0 {
		if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
			errs = append(errs, fmt.Errorf("delete cached keys: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (r *redisInvalidator) Subscribe(ctx context.Context, onTag func(tag string)) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis invalidator not initialized")
	}
	if onTag == nil {
		return fmt.Errorf("onTag callback required")
	}

	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				if tag, ok := r.decode(m.Payload); ok {
					onTag(tag)
				}
			}
		}
	}()
	return nil
}

// decode drops malformed payloads and messages this process published itself.
func (r *redisInvalidator) decode(payload string) (string, bool) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.log.Warn("bad cache invalidation payload", "error", err)
		return "", false
	}
	if msg.Tag == "" || msg.Source == r.source {
		return "", false
	}
	return msg.Tag, true
}

func (r *redisInvalidator) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
