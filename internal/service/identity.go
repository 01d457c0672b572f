// Package service holds the service descriptor table, the launch runner and
// the task handles produced by a launch.
package service

import (
	"fmt"
	"strings"
)

// Identity names a subsystem. Values are dense so they index the descriptor
// table directly, and double as bus addresses.
type Identity uint8

const (
	ServiceManager Identity = iota
	UI
	ProtocolBridge
	Messaging

	// IdentityCount sizes every per-identity array.
	IdentityCount
)

// Broadcast is a bus-only address; it never indexes the table.
const Broadcast Identity = 0xFF

var identityNames = [IdentityCount]string{
	ServiceManager: "service_manager",
	UI:             "ui",
	ProtocolBridge: "protocol_bridge",
	Messaging:      "messaging",
}

func (id Identity) Valid() bool { return id < IdentityCount }

func (id Identity) String() string {
	if id == Broadcast {
		return "broadcast"
	}
	if !id.Valid() {
		return fmt.Sprintf("identity(%d)", uint8(id))
	}
	return identityNames[id]
}

// ParseIdentity accepts the String form, case-insensitively.
func ParseIdentity(s string) (Identity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range identityNames {
		if name == s {
			return Identity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown service identity %q", s)
}
