package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

const (
	DefaultMailboxSize    = 32
	DefaultPublishTimeout = 500 * time.Millisecond
)

// Route says where packets of a kind go.
type Route uint8

const (
	RouteBroadcast Route = iota // every registered identity except the source
	RouteManager                // the service manager
	RouteDirect                 // Packet.To
)

// Routes is the routing table by kind. Unknown kinds go to the manager.
var Routes = map[Kind]Route{
	KindReady:      RouteBroadcast,
	KindLinkStatus: RouteBroadcast,
	KindRegistered: RouteManager,
	KindEvent:      RouteManager,
	KindCommand:    RouteDirect,
}

// Bus implements Client over a Transport with one bounded mailbox per
// registered identity. When a mailbox is full new packets are dropped.
type Bus struct {
	transport      Transport
	metrics        Metrics
	mailboxSize    int
	publishTimeout time.Duration

	initMu      sync.Mutex
	initialized atomic.Bool

	mu        sync.RWMutex
	mailboxes [service.IdentityCount]chan Packet
}

type Option func(*Bus)

func WithMailboxSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.mailboxSize = n
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(b *Bus) {
		if m != nil {
			b.metrics = m
		}
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.publishTimeout = d
		}
	}
}

func New(t Transport, opts ...Option) *Bus {
	b := &Bus{
		transport:      t,
		metrics:        noopMetrics{},
		mailboxSize:    DefaultMailboxSize,
		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init brings the transport up. It is idempotent once it has succeeded;
// a failed Init may be retried.
func (b *Bus) Init(ctx context.Context) error {
	if b.initialized.Load() {
		return nil
	}
	b.initMu.Lock()
	defer b.initMu.Unlock()
	if b.initialized.Load() {
		return nil
	}
	if err := b.transport.Open(ctx); err != nil {
		return &InitError{Transport: b.transport.Name(), Err: err}
	}
	b.initialized.Store(true)
	logging.Info(ctx, "bus initialized", zap.String("transport", b.transport.Name()))
	return nil
}

func (b *Bus) Initialized() bool { return b.initialized.Load() }

// Register makes id reachable. Registering before Init or twice is a no-op.
// Every identity other than the manager announces itself to the manager.
func (b *Bus) Register(id service.Identity) {
	ctx := context.Background()
	if !id.Valid() {
		logging.Warn(ctx, "bus: register of invalid identity ignored", zap.Stringer("identity", id))
		return
	}
	if !b.initialized.Load() {
		logging.Warn(ctx, "bus: register before init ignored", zap.Stringer("identity", id))
		return
	}

	b.mu.Lock()
	if b.mailboxes[id] != nil {
		b.mu.Unlock()
		return
	}
	box := make(chan Packet, b.mailboxSize)
	if err := b.transport.Attach(id, b.deliverer(id, box)); err != nil {
		b.mu.Unlock()
		logging.Error(ctx, "bus: attach failed", zap.Stringer("identity", id), zap.Error(err))
		return
	}
	b.mailboxes[id] = box
	b.mu.Unlock()

	logging.Debug(ctx, "bus: identity registered", zap.Stringer("identity", id))
	if id != service.ServiceManager {
		b.Send(Packet{Source: id, Kind: KindRegistered})
	}
}

// Registered reports whether id has a mailbox.
func (b *Bus) Registered(id service.Identity) bool {
	if !id.Valid() {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mailboxes[id] != nil
}

// NotifyReady broadcasts that source finished a startup phase.
func (b *Bus) NotifyReady(source service.Identity) {
	b.Send(Packet{Source: source, Kind: KindReady})
}

// Send routes pkt by kind. Failures are counted and logged at debug level,
// never returned.
func (b *Bus) Send(pkt Packet) {
	kind := pkt.Kind.String()
	if !b.initialized.Load() {
		b.metrics.PacketDropped(kind, dropNotInitialized)
		return
	}
	for _, to := range b.destinations(pkt) {
		if !b.Registered(to) {
			b.metrics.PacketDropped(kind, dropUnregistered)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), b.publishTimeout)
		err := b.transport.Publish(ctx, to, pkt)
		cancel()
		if err != nil {
			b.metrics.PacketDropped(kind, dropTransport)
			logging.Debug(ctx, "bus: publish failed",
				zap.String("kind", kind), zap.Stringer("to", to), zap.Error(err))
			continue
		}
		b.metrics.PacketSent(kind)
	}
}

func (b *Bus) destinations(pkt Packet) []service.Identity {
	route, ok := Routes[pkt.Kind]
	if !ok {
		route = RouteManager
	}
	switch route {
	case RouteBroadcast:
		out := make([]service.Identity, 0, service.IdentityCount)
		b.mu.RLock()
		for id := service.Identity(0); id < service.IdentityCount; id++ {
			if id != pkt.Source && b.mailboxes[id] != nil {
				out = append(out, id)
			}
		}
		b.mu.RUnlock()
		return out
	case RouteDirect:
		return []service.Identity{pkt.To}
	default:
		return []service.Identity{service.ServiceManager}
	}
}

func (b *Bus) deliverer(id service.Identity, box chan Packet) func(Packet) {
	return func(pkt Packet) {
		select {
		case box <- pkt:
		default:
			b.metrics.PacketDropped(pkt.Kind.String(), dropMailboxFull)
			logging.Debug(context.Background(), "bus: mailbox full, packet dropped",
				zap.Stringer("identity", id), zap.Stringer("kind", pkt.Kind))
		}
	}
}

// Receive polls the mailbox of id without blocking.
func (b *Bus) Receive(id service.Identity, out *Packet) bool {
	if !id.Valid() || out == nil {
		return false
	}
	b.mu.RLock()
	box := b.mailboxes[id]
	b.mu.RUnlock()
	if box == nil {
		return false
	}
	select {
	case pkt := <-box:
		*out = pkt
		return true
	default:
		return false
	}
}

// Pending is the number of packets waiting for id.
func (b *Bus) Pending(id service.Identity) int {
	if !id.Valid() {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.mailboxes[id])
}

// Close shuts the transport down; later sends are dropped.
func (b *Bus) Close() error {
	b.initMu.Lock()
	defer b.initMu.Unlock()
	if !b.initialized.Load() {
		return nil
	}
	b.initialized.Store(false)
	b.mu.Lock()
	b.mailboxes = [service.IdentityCount]chan Packet{}
	b.mu.Unlock()
	return b.transport.Close()
}

var _ Client = (*Bus)(nil)
