package bus

import (
	"context"
	"fmt"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

// Client is the bus surface the supervisor and services depend on.
// Delivery is best effort: Send never reports failure to the sender.
type Client interface {
	Init(ctx context.Context) error
	Register(id service.Identity)
	NotifyReady(source service.Identity)
	Send(pkt Packet)
	// Receive is a non-blocking poll; it fills out and returns true when a
	// packet addressed to id is pending.
	Receive(id service.Identity, out *Packet) bool
}

// InitError reports a failed transport bring-up.
type InitError struct {
	Transport string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("bus init (%s): %v", e.Transport, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Metrics receives bus observations.
type Metrics interface {
	PacketSent(kind string)
	PacketDropped(kind, reason string)
}

type noopMetrics struct{}

func (noopMetrics) PacketSent(string)            {}
func (noopMetrics) PacketDropped(string, string) {}

const (
	dropNotInitialized = "not_initialized"
	dropUnregistered   = "unregistered"
	dropMailboxFull    = "mailbox_full"
	dropTransport      = "transport"
)
