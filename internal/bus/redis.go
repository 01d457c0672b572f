package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

// envelope is the redis wire form of a packet.
type envelope struct {
	Source  uint8  `cbor:"1,keyasint"`
	Kind    uint8  `cbor:"2,keyasint"`
	To      uint8  `cbor:"3,keyasint"`
	Payload []byte `cbor:"4,keyasint"`
}

func marshalEnvelope(p Packet) ([]byte, error) {
	return cbor.Marshal(envelope{
		Source:  uint8(p.Source),
		Kind:    uint8(p.Kind),
		To:      uint8(p.To),
		Payload: p.payload[:p.length],
	})
}

func unmarshalEnvelope(b []byte) (Packet, error) {
	var env envelope
	if err := cbor.Unmarshal(b, &env); err != nil {
		return Packet{}, err
	}
	p, err := NewPacket(service.Identity(env.Source), Kind(env.Kind), env.Payload)
	if err != nil {
		return Packet{}, err
	}
	p.To = service.Identity(env.To)
	return p, nil
}

// RedisTransport carries packets over redis pub/sub, one channel per identity:
// <prefix>:<identity>.
type RedisTransport struct {
	client redis.UniversalClient
	prefix string

	mu     sync.Mutex
	subs   []*redis.PubSub
	wg     sync.WaitGroup
	closed bool
}

func NewRedisTransport(client redis.UniversalClient, prefix string) *RedisTransport {
	if prefix == "" {
		prefix = "servicemgr:bus"
	}
	return &RedisTransport{client: client, prefix: prefix}
}

func (r *RedisTransport) Name() string { return "redis" }

func (r *RedisTransport) channel(id service.Identity) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *RedisTransport) Open(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client not configured")
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	// Close 之后可再次 Open，订阅需要重新 Attach
	r.mu.Lock()
	r.closed = false
	r.subs = nil
	r.mu.Unlock()
	return nil
}

func (r *RedisTransport) Attach(id service.Identity, deliver func(Packet)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrTransportClosed
	}
	ctx := context.Background()
	sub := r.client.Subscribe(ctx, r.channel(id))
	// wait for the subscription to be confirmed so early publishes are not lost
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel(id), err)
	}
	r.subs = append(r.subs, sub)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for msg := range sub.Channel() {
			pkt, err := unmarshalEnvelope([]byte(msg.Payload))
			if err != nil {
				logging.Warn(ctx, "bus: dropping malformed envelope",
					zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			deliver(pkt)
		}
	}()
	return nil
}

func (r *RedisTransport) Publish(ctx context.Context, to service.Identity, pkt Packet) error {
	b, err := marshalEnvelope(pkt)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return r.client.Publish(ctx, r.channel(to), b).Err()
}

// Close ends all subscriptions. The redis client itself belongs to the redis
// component and stays open.
func (r *RedisTransport) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	var firstErr error
	for _, s := range subs {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.wg.Wait()
	return firstErr
}
