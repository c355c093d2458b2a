// Package notify publishes autosave outcomes on a Redis pub/sub channel so
// other processes (editors, dashboards) can follow background saves.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rpggio/photobook/internal/domain/autosave"
)

// DefaultChannel is used when Options.Channel is empty.
const DefaultChannel = "photobook:autosave"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type client interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *goredis.PubSub
	Close() error
}

// RedisPublisher implements autosave.Publisher.
type RedisPublisher struct {
	rdb     client
	channel string
	logger  *slog.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection with a ping.
func NewRedisPublisher(ctx context.Context, opts Options, logger *slog.Logger) (*RedisPublisher, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newPublisher(rdb, opts.Channel, logger), nil
}

func newPublisher(rdb client, channel string, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

// Channel returns the pub/sub channel events go to.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish sends evt as JSON.
func (p *RedisPublisher) Publish(ctx context.Context, evt autosave.Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("publishing %s: %w", evt.Type, err)
	}
	return nil
}

// Follow subscribes to the channel and calls onEvent for each event until
// ctx is cancelled. Undecodable payloads are logged and skipped.
func (p *RedisPublisher) Follow(ctx context.Context, onEvent func(autosave.Event)) error {
	if onEvent == nil {
		return errors.New("onEvent callback required")
	}

	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	// Receive confirms the subscription before we start reading.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok || m == nil {
				return nil
			}
			evt, err := decodeEvent(m.Payload)
			if err != nil {
				p.logger.Warn("bad autosave event payload", "error", err)
				continue
			}
			onEvent(evt)
		}
	}
}

// Close releases the connection.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

func decodeEvent(payload string) (autosave.Event, error) {
	var evt autosave.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return autosave.Event{}, err
	}
	if evt.Type == "" {
		return autosave.Event{}, errors.New("event has no type")
	}
	return evt, nil
}
