// Package manifest decides which services this build launches, in what order
// and with which parameters.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/singleton"
)

// ResolveFunc returns the service capability of an entry, building its app
// object through the registry so repeated resolves share one instance.
type ResolveFunc func(reg *singleton.Registry, client bus.Client) (service.Service, error)

// Entry is a service compiled into this binary with its default parameters.
type Entry struct {
	Identity    service.Identity
	Name        string
	StackSize   uint32
	MemoryClass service.MemoryClass
	Priority    service.Priority
	Resolve     ResolveFunc
}

// Catalog holds the compiled-in entries. Build-tagged files add to it from
// init().
type Catalog struct {
	entries [service.IdentityCount]*Entry
}

func NewCatalog() *Catalog { return &Catalog{} }

func (c *Catalog) Add(e Entry) error {
	if !e.Identity.Valid() || e.Identity == service.ServiceManager {
		return fmt.Errorf("catalog: %s cannot be a service entry", e.Identity)
	}
	if e.Resolve == nil {
		return fmt.Errorf("catalog: %s has no resolve function", e.Identity)
	}
	if c.entries[e.Identity] != nil {
		return fmt.Errorf("catalog: %w: %s", service.ErrDuplicateIdentity, e.Identity)
	}
	if e.Name == "" {
		e.Name = e.Identity.String()
	}
	c.entries[e.Identity] = &e
	return nil
}

func (c *Catalog) MustAdd(e Entry) {
	if err := c.Add(e); err != nil {
		panic(err)
	}
}

// Has reports whether id is compiled in.
func (c *Catalog) Has(id service.Identity) bool {
	return id.Valid() && c.entries[id] != nil
}

// ServiceConfig overrides the defaults of one entry. A missing section keeps
// the service enabled with its defaults.
type ServiceConfig struct {
	Enabled     *bool  `yaml:"enabled" json:"enabled"`
	StackSize   uint32 `yaml:"stack_size" json:"stack_size"`
	MemoryClass string `yaml:"memory_class" json:"memory_class"`
	Priority    *int   `yaml:"priority" json:"priority"`
}

// Config is keyed by identity name (ui, protocol_bridge, messaging).
type Config map[string]*ServiceConfig

// Validate checks keys and values without needing a catalog.
func (c Config) Validate() error {
	var problems []string
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		id, err := service.ParseIdentity(k)
		if err != nil || id == service.ServiceManager {
			problems = append(problems, fmt.Sprintf("services.%s: unknown service", k))
			continue
		}
		sc := c[k]
		if sc == nil {
			continue
		}
		if _, err := service.ParseMemoryClass(sc.MemoryClass); err != nil {
			problems = append(problems, fmt.Sprintf("services.%s: %v", k, err))
		}
		if sc.Priority != nil && (*sc.Priority < 0 || *sc.Priority > int(service.MaxPriority)) {
			problems = append(problems, fmt.Sprintf("services.%s: priority %d out of 0..%d", k, *sc.Priority, service.MaxPriority))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid services config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Slot pairs an entry with the descriptor built for it.
type Slot struct {
	Entry      *Entry
	Descriptor *service.Descriptor
}

// Manifest is the ordered set of services this boot launches.
type Manifest struct {
	slots    []Slot
	table    *service.Table
	skipped  []string
	disabled []string
}

// Build selects the enabled, compiled-in entries in identity order and
// builds their descriptors. Services enabled in config but not compiled in
// are reported by Skipped.
func Build(cat *Catalog, cfg Config) (*Manifest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manifest{}
	var descs []*service.Descriptor
	for id := service.ServiceManager + 1; id < service.IdentityCount; id++ {
		sc := cfg[id.String()]
		enabled := sc == nil || sc.Enabled == nil || *sc.Enabled
		e := cat.entries[id]
		switch {
		case e == nil && enabled && sc != nil:
			m.skipped = append(m.skipped, id.String())
			continue
		case e == nil:
			continue
		case !enabled:
			m.disabled = append(m.disabled, e.Name)
			continue
		}

		d := &service.Descriptor{
			Identity:    e.Identity,
			Name:        e.Name,
			MemoryClass: e.MemoryClass,
			StackSize:   e.StackSize,
			Priority:    e.Priority,
		}
		if sc != nil {
			if sc.StackSize > 0 {
				d.StackSize = sc.StackSize
			}
			if sc.MemoryClass != "" {
				d.MemoryClass, _ = service.ParseMemoryClass(sc.MemoryClass)
			}
			if sc.Priority != nil {
				d.Priority = service.Priority(*sc.Priority)
			}
		}
		descs = append(descs, d)
		m.slots = append(m.slots, Slot{Entry: e, Descriptor: d})
	}
	table, err := service.NewTable(descs...)
	if err != nil {
		return nil, err
	}
	m.table = table
	return m, nil
}

func (m *Manifest) Table() *service.Table { return m.table }

// Slots returns the launch order.
func (m *Manifest) Slots() []Slot {
	out := make([]Slot, len(m.slots))
	copy(out, m.slots)
	return out
}

func (m *Manifest) Len() int { return len(m.slots) }

// Skipped lists services configured on but absent from this build.
func (m *Manifest) Skipped() []string { return m.skipped }

// Disabled lists compiled-in services turned off by config.
func (m *Manifest) Disabled() []string { return m.disabled }

// Summary is the printable form of one slot.
type Summary struct {
	Name        string `json:"name"`
	Identity    string `json:"identity"`
	StackSize   uint32 `json:"stack_size"`
	MemoryClass string `json:"memory_class"`
	Priority    uint8  `json:"priority"`
}

func (m *Manifest) Describe() []Summary {
	out := make([]Summary, 0, len(m.slots))
	for _, s := range m.slots {
		d := s.Descriptor
		out = append(out, Summary{
			Name:        d.Name,
			Identity:    d.Identity.String(),
			StackSize:   d.StackSize,
			MemoryClass: d.MemoryClass.String(),
			Priority:    uint8(d.Priority),
		})
	}
	return out
}
