package ui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

func TestUIFollowsLinkStatus(t *testing.T) {
	b := bus.New(bus.NewMemoryTransport())
	require.NoError(t, b.Init(context.Background()))
	b.Register(service.ServiceManager)

	app := New(b, time.Millisecond)
	task, err := app.Start(context.Background(), service.LaunchParams{Identity: service.UI, Name: "ui"})
	require.NoError(t, err)
	defer app.Stop(context.Background(), task)

	// Start 返回时已登记，紧随其后的广播不会丢
	require.True(t, b.Registered(service.UI))
	assert.Equal(t, ScreenSplash, app.Status().Screen)

	b.NotifyReady(service.ServiceManager)
	pkt, err := bus.EncodePacket(service.ServiceManager, bus.KindLinkStatus, bus.LinkStatus{Up: false, Reason: "timeout"})
	require.NoError(t, err)
	b.Send(pkt)

	require.Eventually(t, func() bool { return app.Status().Screen == ScreenOffline }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"service_manager"}, app.Status().ReadyPeers)
	assert.False(t, app.Status().LinkUp)
}

func TestUIStartWithoutBus(t *testing.T) {
	_, err := New(nil, 0).Start(context.Background(), service.LaunchParams{Identity: service.UI})
	assert.Error(t, err)
}
