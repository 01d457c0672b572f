package registry

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
)

// catalog 汇总编译进当前二进制的服务；cmd 下按 build tag 划分的文件在 init() 中登记
var catalog = manifest.NewCatalog()

// RegisterService adds a compiled-in service. Duplicates panic at init time.
func RegisterService(e manifest.Entry) {
	catalog.MustAdd(e)
}

// Catalog returns the services registered so far.
func Catalog() *manifest.Catalog { return catalog }
