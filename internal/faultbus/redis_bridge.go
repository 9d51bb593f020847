package faultbus

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ovestreet/storefront-backend/internal/platform/logger"
)

// RedisBridge mirrors permission-error events onto a redis channel so
// diagnostic consumers outside this process can observe them. Delivery to
// redis is best effort; a publish failure is logged and never reaches the
// producer.
type RedisBridge struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	dispose func()
}

func NewRedisBridge(log *logger.Logger, rdb *goredis.Client, bus *Bus, channel string) *RedisBridge {
	if channel == "" {
		channel = ChannelPermissionError
	}
	bridge := &RedisBridge{
		log:     log.With("component", "FaultBusRedisBridge"),
		rdb:     rdb,
		channel: channel,
	}
	bridge.dispose = bus.Subscribe(ChannelPermissionError, bridge.forward)
	return bridge
}

func (b *RedisBridge) forward(ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		b.log.Warn("Could not marshal fault event for redis", "error", err)
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, raw).Err(); err != nil {
		b.log.Warn("Could not forward fault event to redis", "error", err, "channel", b.channel)
	}
}

func (b *RedisBridge) Close() {
	if b.dispose != nil {
		b.dispose()
		b.dispose = nil
	}
}
