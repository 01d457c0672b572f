// Package bus is the inter-task message bus: a fixed-size packet envelope,
// per-identity mailboxes and pluggable transports.
package bus

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

// PayloadCapacity is the fixed payload buffer size of a packet.
const PayloadCapacity = 256

var ErrPayloadTooLarge = errors.New("payload exceeds packet capacity")

// Kind tags a packet; routing is decided by kind.
type Kind uint8

const (
	KindReady      Kind = iota + 1 // a startup phase has completed
	KindRegistered                 // an identity became reachable
	KindLinkStatus                 // network link came up or boot is degraded
	KindEvent                      // service event for the manager
	KindCommand                    // addressed by Packet.To
)

func (k Kind) String() string {
	switch k {
	case KindReady:
		return "ready"
	case KindRegistered:
		return "registered"
	case KindLinkStatus:
		return "link_status"
	case KindEvent:
		return "event"
	case KindCommand:
		return "command"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Packet is the bus envelope. It is a value type; copies are independent.
type Packet struct {
	Source service.Identity
	Kind   Kind
	// To is only read for KindCommand.
	To service.Identity

	length  uint16
	payload [PayloadCapacity]byte
}

// NewPacket copies payload into a new packet.
func NewPacket(source service.Identity, kind Kind, payload []byte) (Packet, error) {
	if len(payload) > PayloadCapacity {
		return Packet{}, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), PayloadCapacity)
	}
	p := Packet{Source: source, Kind: kind, length: uint16(len(payload))}
	copy(p.payload[:], payload)
	return p, nil
}

// MustPacket is NewPacket for payloads known to fit; it panics otherwise.
func MustPacket(source service.Identity, kind Kind, payload []byte) Packet {
	p, err := NewPacket(source, kind, payload)
	if err != nil {
		panic(err)
	}
	return p
}

// Command builds a KindCommand packet addressed to to.
func Command(source, to service.Identity, payload []byte) (Packet, error) {
	p, err := NewPacket(source, KindCommand, payload)
	p.To = to
	return p, err
}

// Payload returns a copy of the payload bytes.
func (p *Packet) Payload() []byte {
	out := make([]byte, p.length)
	copy(out, p.payload[:p.length])
	return out
}

func (p *Packet) Len() int { return int(p.length) }

// EncodePacket encodes v with CBOR into a new packet.
func EncodePacket(source service.Identity, kind Kind, v any) (Packet, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return Packet{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return NewPacket(source, kind, b)
}

// DecodePayload decodes a CBOR payload into v.
func (p *Packet) DecodePayload(v any) error {
	if err := cbor.Unmarshal(p.payload[:p.length], v); err != nil {
		return fmt.Errorf("decode %s payload: %w", p.Kind, err)
	}
	return nil
}

// LinkStatus is the payload of KindLinkStatus.
type LinkStatus struct {
	Up     bool   `cbor:"1,keyasint"`
	BootID string `cbor:"2,keyasint"`
	Reason string `cbor:"3,keyasint,omitempty"`
}

// Event is a free-form service event for the manager.
type Event struct {
	Name   string            `cbor:"1,keyasint"`
	Fields map[string]string `cbor:"2,keyasint,omitempty"`
}
