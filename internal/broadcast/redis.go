package broadcast

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "holdemroom:room:"

// Redis is the multi-node Fabric: Publish sends a room-scoped record to a
// pub/sub channel; every subscribing node's background loop fans it out to
// its own local handler.
type Redis struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	handler Handler
}

// NewRedis connects to brokerURL and subscribes to every room channel via a
// pattern subscription. Returns an error if the broker cannot be reached —
// the caller is expected to fall back to Local.
func NewRedis(ctx context.Context, brokerURL string) (*Redis, error) {
	opt, err := redis.ParseURL(brokerURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	pubsub := client.PSubscribe(ctx, channelPrefix+"*")
	runCtx, runCancel := context.WithCancel(context.Background())
	r := &Redis{client: client, pubsub: pubsub, cancel: runCancel}
	go r.loop(runCtx)
	return r, nil
}

func (r *Redis) loop(ctx context.Context) {
	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if r.handler != nil {
				roomID := msg.Channel[len(channelPrefix):]
				r.handler(roomID, []byte(msg.Payload))
			}
		}
	}
}

func (r *Redis) Publish(ctx context.Context, roomID string, payload []byte) error {
	return r.client.Publish(ctx, channelPrefix+roomID, payload).Err()
}

func (r *Redis) OnMessage(h Handler) { r.handler = h }

func (r *Redis) Close() error {
	r.cancel()
	r.pubsub.Close()
	return r.client.Close()
}
