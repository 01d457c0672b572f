package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorValidate(t *testing.T) {
	ok := func() *Descriptor { return newDescriptor(&stubService{}) }

	require.NoError(t, ok().Validate())

	cases := map[string]func(d *Descriptor){
		"empty name":      func(d *Descriptor) { d.Name = "" },
		"long name":       func(d *Descriptor) { d.Name = strings.Repeat("x", MaxNameLen+1) },
		"zero stack":      func(d *Descriptor) { d.StackSize = 0 },
		"priority":        func(d *Descriptor) { d.Priority = MaxPriority + 1 },
		"no service":      func(d *Descriptor) { d.Service = nil },
		"bad identity":    func(d *Descriptor) { d.Identity = IdentityCount },
		"service manager": func(d *Descriptor) { d.Identity = ServiceManager },
		"memory class":    func(d *Descriptor) { d.MemoryClass = MemoryClass(7) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := ok()
			mutate(d)
			assert.ErrorIs(t, d.Validate(), ErrInvalidDescriptor)
		})
	}
}

func TestDescriptorNameAtLimit(t *testing.T) {
	d := newDescriptor(&stubService{})
	d.Name = strings.Repeat("n", MaxNameLen)
	assert.NoError(t, d.Validate())
}

func TestParseMemoryClass(t *testing.T) {
	for in, want := range map[string]MemoryClass{
		"":               MemoryInternal,
		"internal-fast":  MemoryInternal,
		"SRAM":           MemoryInternal,
		"external":       MemoryExternal,
		"external-large": MemoryExternal,
		"psram":          MemoryExternal,
	} {
		got, err := ParseMemoryClass(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMemoryClass("flash")
	assert.Error(t, err)
}

func TestIdentityStringAndParse(t *testing.T) {
	for id := ServiceManager; id < IdentityCount; id++ {
		got, err := ParseIdentity(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	assert.Equal(t, "broadcast", Broadcast.String())
	assert.False(t, Broadcast.Valid())
	_, err := ParseIdentity("display")
	assert.Error(t, err)
}

func TestTableLookup(t *testing.T) {
	ui := newDescriptor(&stubService{})
	msg := newDescriptor(&stubService{})
	msg.Identity, msg.Name = Messaging, "messaging"

	tbl, err := NewTable(msg, ui)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []Identity{Messaging, UI}, tbl.Order())

	got, ok := tbl.Lookup(UI)
	require.True(t, ok)
	assert.Same(t, ui, got)

	_, ok = tbl.Lookup(ProtocolBridge)
	assert.False(t, ok)
	_, ok = tbl.Lookup(Broadcast)
	assert.False(t, ok)
	assert.Panics(t, func() { tbl.MustLookup(ProtocolBridge) })

	var seen []string
	tbl.Each(func(d *Descriptor) bool {
		seen = append(seen, d.Name)
		return true
	})
	assert.Equal(t, []string{"messaging", "ui"}, seen)
}

func TestTableRejectsDuplicateIdentity(t *testing.T) {
	_, err := NewTable(newDescriptor(&stubService{}), newDescriptor(&stubService{}))
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestSpawnTaskLifecycle(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	task := Spawn(parent, LaunchParams{Identity: UI, Name: "ui"}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	// the launch context ending does not end the task
	cancelParent()
	assert.True(t, task.Running())
	assert.NoError(t, task.Err())

	require.NoError(t, task.Stop(context.Background()))
	<-task.Done()
	assert.False(t, task.Running())
}
