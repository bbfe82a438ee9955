package slot

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v7"
)

// Redis is a Backend storing slots as Redis strings. Every write is
// announced on a pub/sub channel so that Watch is push based.
type Redis struct {
	client  *redis.Client
	prefix  string
	channel string
}

// NewRedis returns a Redis backend using client. Keys are stored under
// prefix, which also names the change channel.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "networth"
	}
	return &Redis{client: client, prefix: prefix + ":", channel: prefix + ":changes"}
}

// DialRedis connects to the Redis server at addr and checks it answers.
func DialRedis(addr, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping().Result(); err != nil {
		client.Close()
		return nil, err
	}
	return NewRedis(client, prefix), nil
}

func (r *Redis) Get(key string) ([]byte, bool, error) {
	value, err := r.client.Get(r.prefix + key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Set(key string, value []byte) error {
	if err := r.client.Set(r.prefix+key, value, 0).Err(); err != nil {
		return err
	}
	return r.client.Publish(r.channel, key).Err()
}

func (r *Redis) Watch(ctx context.Context, fn func(string, []byte)) error {
	sub := r.client.Subscribe(r.channel)
	// Receive waits for the subscription confirmation.
	if _, err := sub.Receive(); err != nil {
		sub.Close()
		return err
	}
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				value, found, err := r.Get(msg.Payload)
				if err != nil || !found {
					continue
				}
				fn(msg.Payload, value)
			}
		}
	}()
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
