package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

// Transport moves packets to attached identities.
type Transport interface {
	Name() string
	Open(ctx context.Context) error
	// Attach routes packets published to id into deliver. deliver must not block.
	Attach(id service.Identity, deliver func(Packet)) error
	Publish(ctx context.Context, to service.Identity, pkt Packet) error
	Close() error
}

var ErrTransportClosed = errors.New("transport closed")

// MemoryTransport delivers in process, synchronously from Publish.
type MemoryTransport struct {
	mu      sync.RWMutex
	open    bool
	targets map[service.Identity]func(Packet)
	// OpenErr, when set, is returned by Open. Used to simulate a failed bring-up.
	OpenErr error
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{targets: make(map[service.Identity]func(Packet))}
}

func (m *MemoryTransport) Name() string { return "memory" }

func (m *MemoryTransport) Open(ctx context.Context) error {
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.mu.Lock()
	m.open = true
	m.mu.Unlock()
	return nil
}

func (m *MemoryTransport) Attach(id service.Identity, deliver func(Packet)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return ErrTransportClosed
	}
	m.targets[id] = deliver
	return nil
}

func (m *MemoryTransport) Publish(ctx context.Context, to service.Identity, pkt Packet) error {
	m.mu.RLock()
	deliver, ok := m.targets[to]
	open := m.open
	m.mu.RUnlock()
	if !open {
		return ErrTransportClosed
	}
	if ok {
		deliver(pkt)
	}
	return nil
}

func (m *MemoryTransport) Close() error {
	m.mu.Lock()
	m.open = false
	m.targets = make(map[service.Identity]func(Packet))
	m.mu.Unlock()
	return nil
}
