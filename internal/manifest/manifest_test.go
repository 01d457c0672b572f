package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/singleton"
)

type nopService struct{}

func (nopService) Start(ctx context.Context, p service.LaunchParams) (*service.Task, error) {
	return service.Spawn(ctx, p, func(ctx context.Context) error { <-ctx.Done(); return nil }), nil
}

func (nopService) Stop(ctx context.Context, t *service.Task) error { return t.Stop(ctx) }

func resolveNop(*singleton.Registry, bus.Client) (service.Service, error) { return nopService{}, nil }

func fullCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	// added out of order on purpose; launch order follows identity
	require.NoError(t, c.Add(Entry{Identity: service.Messaging, StackSize: 6144, MemoryClass: service.MemoryExternal, Priority: 4, Resolve: resolveNop}))
	require.NoError(t, c.Add(Entry{Identity: service.UI, StackSize: 8192, MemoryClass: service.MemoryExternal, Priority: 5, Resolve: resolveNop}))
	require.NoError(t, c.Add(Entry{Identity: service.ProtocolBridge, StackSize: 10240, Priority: 5, Resolve: resolveNop}))
	return c
}

func boolp(b bool) *bool { return &b }
func intp(i int) *int    { return &i }

func TestBuildOrderAndDefaults(t *testing.T) {
	m, err := Build(fullCatalog(t), nil)
	require.NoError(t, err)

	var names []string
	for _, s := range m.Slots() {
		names = append(names, s.Descriptor.Name)
	}
	assert.Equal(t, []string{"ui", "protocol_bridge", "messaging"}, names)
	assert.Equal(t, 3, m.Table().Len())

	d, ok := m.Table().Lookup(service.ProtocolBridge)
	require.True(t, ok)
	assert.Equal(t, uint32(10240), d.StackSize)
	assert.Equal(t, service.MemoryInternal, d.MemoryClass)
	assert.Nil(t, d.Handle())
}

func TestBuildDisabledServiceIsAbsent(t *testing.T) {
	m, err := Build(fullCatalog(t), Config{
		"protocol_bridge": {Enabled: boolp(false)},
		"ui":              {StackSize: 4096, MemoryClass: "internal-fast", Priority: intp(7)},
	})
	require.NoError(t, err)

	_, ok := m.Table().Lookup(service.ProtocolBridge)
	assert.False(t, ok)
	assert.Equal(t, []string{"protocol_bridge"}, m.Disabled())
	assert.Equal(t, 2, m.Len())

	ui := m.Table().MustLookup(service.UI)
	assert.Equal(t, uint32(4096), ui.StackSize)
	assert.Equal(t, service.MemoryInternal, ui.MemoryClass)
	assert.Equal(t, service.Priority(7), ui.Priority)
}

func TestBuildServiceNotCompiledIn(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(Entry{Identity: service.UI, StackSize: 1, Resolve: resolveNop}))

	m, err := Build(c, Config{"messaging": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"messaging"}, m.Skipped())
	_, ok := m.Table().Lookup(service.Messaging)
	assert.False(t, ok)
	assert.False(t, c.Has(service.Messaging))
	assert.True(t, c.Has(service.UI))
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{"display": {}}.Validate())
	assert.Error(t, Config{"service_manager": {}}.Validate())
	assert.Error(t, Config{"ui": {MemoryClass: "flash"}}.Validate())
	assert.Error(t, Config{"ui": {Priority: intp(99)}}.Validate())
	assert.NoError(t, Config{"ui": nil, "messaging": {MemoryClass: "psram"}}.Validate())
}

func TestCatalogAdd(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(Entry{Identity: service.UI, Resolve: resolveNop}))
	assert.ErrorIs(t, c.Add(Entry{Identity: service.UI, Resolve: resolveNop}), service.ErrDuplicateIdentity)
	assert.Error(t, c.Add(Entry{Identity: service.ServiceManager, Resolve: resolveNop}))
	assert.Error(t, c.Add(Entry{Identity: service.Messaging}))
	assert.Panics(t, func() { c.MustAdd(Entry{Identity: service.Broadcast, Resolve: resolveNop}) })
}

func TestDescribe(t *testing.T) {
	m, err := Build(fullCatalog(t), nil)
	require.NoError(t, err)
	s := m.Describe()
	require.Len(t, s, 3)
	assert.Equal(t, Summary{Name: "ui", Identity: "ui", StackSize: 8192, MemoryClass: "external", Priority: 5}, s[0])
}
