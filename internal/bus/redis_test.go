package bus

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	in, err := Command(service.UI, service.Messaging, []byte{1, 2, 3})
	require.NoError(t, err)

	b, err := marshalEnvelope(in)
	require.NoError(t, err)
	out, err := unmarshalEnvelope(b)
	require.NoError(t, err)

	assert.Equal(t, in.Source, out.Source)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.To, out.To)
	assert.Equal(t, in.Payload(), out.Payload())
}

func TestEnvelopeRejectsGarbage(t *testing.T) {
	_, err := unmarshalEnvelope([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestRedisTransportChannelNames(t *testing.T) {
	tr := NewRedisTransport(nil, "")
	assert.Equal(t, "servicemgr:bus:ui", tr.channel(service.UI))
	assert.Equal(t, "redis", tr.Name())
}

func TestRedisTransportOpenFailsWithoutServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	b := New(NewRedisTransport(client, "test"))
	err := b.Init(context.Background())
	var ie *InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "redis", ie.Transport)
}

func TestRedisTransportOpenWithoutClient(t *testing.T) {
	err := NewRedisTransport(nil, "x").Open(context.Background())
	assert.Error(t, err)
}

// pongHook answers every command locally so Open succeeds without a server.
type pongHook struct{}

func (pongHook) DialHook(next redis.DialHook) redis.DialHook { return next }
func (pongHook) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(context.Context, redis.Cmder) error { return nil }
}
func (pongHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisTransportReopensAfterClose(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(pongHook{})
	defer client.Close()

	tr := NewRedisTransport(client, "test")
	require.NoError(t, tr.Open(context.Background()))
	require.NoError(t, tr.Close())
	assert.ErrorIs(t, tr.Attach(service.UI, func(Packet) {}), ErrTransportClosed)

	require.NoError(t, tr.Open(context.Background()))
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.False(t, tr.closed)
	assert.Empty(t, tr.subs)
}
