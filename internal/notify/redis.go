package notify

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis carries events over redis PUBLISH/SUBSCRIBE so every server instance
// sharing the redis sees them.
type Redis struct {
	client *redis.Client
	log    *zap.Logger
}

var _ Notifier = (*Redis)(nil)

func NewRedis(client *redis.Client, log *zap.Logger) *Redis {
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{client: client, log: log}
}

func (r *Redis) Publish(ctx context.Context, topic string, ev Event) error {
	return r.client.Publish(ctx, topic, string(ev)).Err()
}

func (r *Redis) Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error) {
	ps := r.client.Subscribe(ctx, topic)
	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, err
	}

	out := make(chan Event, localBuffer)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(stop) })
	}

	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev := Event(msg.Payload)
				if ev != Updated && ev != Cleared {
					r.log.Debug("ignoring cart notification", zap.String("payload", msg.Payload))
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, cancel, nil
}
