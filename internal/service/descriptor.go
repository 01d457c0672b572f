package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// MaxNameLen bounds descriptor names; they travel in log lines and bus lookups.
const MaxNameLen = 16

// Priority is a scheduler priority; 0 is the idle priority.
type Priority uint8

const (
	IdlePriority Priority = 0
	MaxPriority  Priority = 24
)

// MemoryClass selects the region a service's stack is accounted against.
type MemoryClass uint8

const (
	MemoryInternal MemoryClass = iota // small, fast on-chip RAM
	MemoryExternal                    // large external RAM

	memoryClassCount
)

func (m MemoryClass) String() string {
	switch m {
	case MemoryInternal:
		return "internal"
	case MemoryExternal:
		return "external"
	default:
		return fmt.Sprintf("memory_class(%d)", uint8(m))
	}
}

// ParseMemoryClass accepts "internal"/"internal-fast"/"sram" and
// "external"/"external-large"/"psram". Empty means internal.
func ParseMemoryClass(s string) (MemoryClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "internal", "internal-fast", "sram":
		return MemoryInternal, nil
	case "external", "external-large", "psram":
		return MemoryExternal, nil
	default:
		return 0, fmt.Errorf("unknown memory class %q", s)
	}
}

// LaunchParams is what a service receives when the runner starts it.
type LaunchParams struct {
	Identity    Identity
	Name        string
	Priority    Priority
	StackSize   uint32
	MemoryClass MemoryClass
}

// Service is the start/stop capability every launchable subsystem implements.
// Start must return promptly with a handle for the task it spawned; it must
// not wait for the service to finish its own initialization.
type Service interface {
	Start(ctx context.Context, params LaunchParams) (*Task, error)
	Stop(ctx context.Context, task *Task) error
}

var ErrInvalidDescriptor = errors.New("invalid service descriptor")

// Descriptor is the launch configuration of one service plus its handle slot.
// The slot is written by Runner.Run on success and cleared by Runner.Kill.
type Descriptor struct {
	Identity    Identity
	Name        string
	MemoryClass MemoryClass
	StackSize   uint32
	Priority    Priority
	Service     Service

	mu   sync.RWMutex
	task *Task
}

// Handle returns the running task, or nil when the slot is empty.
func (d *Descriptor) Handle() *Task {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.task
}

func (d *Descriptor) params() LaunchParams {
	return LaunchParams{
		Identity:    d.Identity,
		Name:        d.Name,
		Priority:    d.Priority,
		StackSize:   d.StackSize,
		MemoryClass: d.MemoryClass,
	}
}

// setHandle fills the slot only if it is empty.
func (d *Descriptor) setHandle(t *Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.task != nil {
		return false
	}
	d.task = t
	return true
}

func (d *Descriptor) takeHandle() *Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.task
	d.task = nil
	return t
}

// Validate checks the field constraints of a descriptor.
func (d *Descriptor) Validate() error {
	var problems []string
	if !d.Identity.Valid() {
		problems = append(problems, fmt.Sprintf("identity %s out of range", d.Identity))
	}
	if d.Identity == ServiceManager {
		problems = append(problems, "service_manager is not launchable")
	}
	if d.Name == "" {
		problems = append(problems, "name empty")
	} else if len(d.Name) > MaxNameLen {
		problems = append(problems, fmt.Sprintf("name %q longer than %d bytes", d.Name, MaxNameLen))
	}
	if d.MemoryClass >= memoryClassCount {
		problems = append(problems, fmt.Sprintf("unknown %s", d.MemoryClass))
	}
	if d.StackSize == 0 {
		problems = append(problems, "stack_size must be > 0")
	}
	if d.Priority > MaxPriority {
		problems = append(problems, fmt.Sprintf("priority %d above %d", d.Priority, MaxPriority))
	}
	if d.Service == nil {
		problems = append(problems, "service entry points missing")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidDescriptor, d.Name, strings.Join(problems, "; "))
	}
	return nil
}
