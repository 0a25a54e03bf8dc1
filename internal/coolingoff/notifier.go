package coolingoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Reminder is the last-chance notice for a scheduled deletion.
type Reminder struct {
	CoolingOffID  string    `json:"cooling_off_id"`
	VaultItemID   string    `json:"vault_item_id"`
	DeleteAfter   time.Time `json:"delete_after"`
	DaysRemaining int       `json:"days_remaining"`
}

type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the log. It is the default when no push
// channel is configured.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("component", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, r Reminder) error {
	n.log.Warn(ctx, "vault item will be deleted soon",
		"vault_item_id", r.VaultItemID, "delete_after", r.DeleteAfter, "days_remaining", r.DaysRemaining)
	return nil
}

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes reminders as JSON on a Redis channel for an
// external push service to pick up.
type RedisNotifier struct {
	client  publisher
	channel string
}

func NewRedisNotifier(client publisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, r Reminder) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	return nil
}

// NewRedisClient connects to addr, which is either host:port or a redis://
// URL, and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	var opt *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: addr}
	}
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
