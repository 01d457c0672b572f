package service

import (
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryBudget accounts stack reservations per memory class. A zero capacity
// means the class is not limited.
type MemoryBudget struct {
	mu       sync.Mutex
	capacity [memoryClassCount]uint64
	used     [memoryClassCount]uint64
}

func NewMemoryBudget(internal, external uint64) *MemoryBudget {
	b := &MemoryBudget{}
	b.capacity[MemoryInternal] = internal
	b.capacity[MemoryExternal] = external
	return b
}

// HostAvailableMemory is used as the external class capacity when none is
// configured.
func HostAvailableMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("read host memory: %w", err)
	}
	return vm.Available, nil
}

func (b *MemoryBudget) Reserve(class MemoryClass, size uint32) error {
	if class >= memoryClassCount {
		return fmt.Errorf("reserve: unknown %s", class)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	capacity := b.capacity[class]
	if capacity > 0 && b.used[class]+uint64(size) > capacity {
		return fmt.Errorf("%w: %s needs %d, %d of %d in use",
			ErrBudgetExceeded, class, size, b.used[class], capacity)
	}
	b.used[class] += uint64(size)
	return nil
}

func (b *MemoryBudget) Release(class MemoryClass, size uint32) {
	if class >= memoryClassCount {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if uint64(size) > b.used[class] {
		b.used[class] = 0
		return
	}
	b.used[class] -= uint64(size)
}

// Usage returns bytes reserved and the capacity of class.
func (b *MemoryBudget) Usage(class MemoryClass) (used, capacity uint64) {
	if class >= memoryClassCount {
		return 0, 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used[class], b.capacity[class]
}
