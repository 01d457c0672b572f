package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/registry"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

// 默认构建（无 no_* tag）包含全部服务
func TestDefaultBuildCompilesAllServices(t *testing.T) {
	for _, id := range []service.Identity{service.UI, service.ProtocolBridge, service.Messaging} {
		assert.True(t, registry.Catalog().Has(id), id.String())
	}
}

func TestSampleConfigBuildsManifest(t *testing.T) {
	cm := config.NewConfigManager(consts.ENV_TEST, "config.yaml")
	require.NoError(t, cm.LoadConfig())

	m, err := manifest.Build(registry.Catalog(), cm.GetConfig().Services)
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	got := map[string]manifest.Summary{}
	for _, s := range m.Describe() {
		got[s.Identity] = s
	}
	assert.EqualValues(t, 6, got["protocol_bridge"].Priority)
	assert.Equal(t, "external", got["ui"].MemoryClass)
	assert.Empty(t, m.Skipped())
	assert.Empty(t, m.Disabled())
}
