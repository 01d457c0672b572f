package supervisor

import (
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

type ServiceStatus struct {
	Name        string     `json:"name"`
	Identity    string     `json:"identity"`
	Running     bool       `json:"running"`
	TaskID      string     `json:"task_id,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	Priority    uint8      `json:"priority"`
	StackSize   uint32     `json:"stack_size"`
	MemoryClass string     `json:"memory_class"`
	LastError   string     `json:"last_error,omitempty"`
}

type Snapshot struct {
	State          string          `json:"state"`
	Degraded       bool            `json:"degraded"`
	DegradedReason string          `json:"degraded_reason,omitempty"`
	BootID         string          `json:"boot_id"`
	BootCount      int64           `json:"boot_count,omitempty"`
	Services       []ServiceStatus `json:"services"`
}

// Snapshot is safe to call from any goroutine.
func (s *Supervisor) Snapshot() Snapshot {
	snap := Snapshot{
		State:          s.State().String(),
		Degraded:       s.degraded,
		DegradedReason: s.degradedReason,
		BootID:         s.bootID,
		BootCount:      s.bootCount.Load(),
		Services:       make([]ServiceStatus, 0, s.manifest.Len()),
	}
	s.mu.Lock()
	lastErrs := s.lastErrs
	s.mu.Unlock()

	for _, slot := range s.manifest.Slots() {
		d := slot.Descriptor
		st := ServiceStatus{
			Name:        d.Name,
			Identity:    d.Identity.String(),
			Priority:    uint8(d.Priority),
			StackSize:   d.StackSize,
			MemoryClass: d.MemoryClass.String(),
		}
		if t := d.Handle(); t != nil {
			started := t.StartedAt()
			st.Running = t.Running()
			st.TaskID = t.ID()
			st.StartedAt = &started
		}
		if err := lastErrs[d.Identity]; err != nil {
			st.LastError = err.Error()
		}
		snap.Services = append(snap.Services, st)
	}
	return snap
}

// Service returns the status of one service by name.
func (s *Supervisor) Service(name string) (ServiceStatus, bool) {
	for _, st := range s.Snapshot().Services {
		if st.Name == name {
			return st, true
		}
	}
	return ServiceStatus{}, false
}

// Lookup resolves a service name or identity string.
func (s *Supervisor) Lookup(name string) (service.Identity, bool) {
	for _, slot := range s.manifest.Slots() {
		if slot.Descriptor.Name == name {
			return slot.Descriptor.Identity, true
		}
	}
	id, err := service.ParseIdentity(name)
	if err != nil {
		return 0, false
	}
	_, ok := s.manifest.Table().Lookup(id)
	return id, ok
}
