// Package apps holds the mailbox loop shared by the subsystem services.
package apps

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

const DefaultTick = 10 * time.Millisecond

// Handler processes one packet taken from the service's mailbox.
type Handler func(ctx context.Context, pkt bus.Packet)

// Loop drains the mailbox of id once per tick until ctx ends. id must be
// registered already; services do that in Start so broadcasts sent right
// after launch reach them.
func Loop(ctx context.Context, client bus.Client, id service.Identity, tick time.Duration, handle Handler) error {
	if tick <= 0 {
		tick = DefaultTick
	}
	logging.Info(ctx, "service loop running", zap.Stringer("identity", id))

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	var pkt bus.Packet
	for {
		for client.Receive(id, &pkt) {
			handle(ctx, pkt)
		}
		select {
		case <-ctx.Done():
			logging.Info(ctx, "service loop exiting", zap.Stringer("identity", id))
			return nil
		case <-ticker.C:
		}
	}
}

// Emit sends an event packet to the manager. Encoding failures are logged.
func Emit(ctx context.Context, client bus.Client, source service.Identity, ev bus.Event) {
	pkt, err := bus.EncodePacket(source, bus.KindEvent, ev)
	if err != nil {
		logging.Warn(ctx, "event dropped", zap.String("event", ev.Name), zap.Error(err))
		return
	}
	client.Send(pkt)
}
