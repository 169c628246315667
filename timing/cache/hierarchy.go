package cache

import (
	"fmt"
	"io"
)

// Hierarchy bundles the L1 instruction and data caches of one core. It
// implements the emulator's memory observer interface, so it can be
// attached with the emulator's observer option to model cache behavior
// of a running program.
type Hierarchy struct {
	icache *Cache
	dcache *Cache

	totalCycles uint64
}

// NewHierarchy creates a cache hierarchy from the given configurations.
func NewHierarchy(icacheConfig, dcacheConfig Config) *Hierarchy {
	return &Hierarchy{
		icache: New(icacheConfig),
		dcache: New(dcacheConfig),
	}
}

// NewDefaultHierarchy creates a hierarchy with the default L1
// configurations.
func NewDefaultHierarchy() *Hierarchy {
	return NewHierarchy(DefaultL1IConfig(), DefaultL1DConfig())
}

// ICache returns the instruction cache.
func (h *Hierarchy) ICache() *Cache {
	return h.icache
}

// DCache returns the data cache.
func (h *Hierarchy) DCache() *Cache {
	return h.dcache
}

// TotalCycles returns the accumulated access latency in cycles.
func (h *Hierarchy) TotalCycles() uint64 {
	return h.totalCycles
}

// OnFetch records an instruction fetch.
func (h *Hierarchy) OnFetch(addr uint64, size int) {
	h.accessBlocks(h.icache, addr, size, false)
}

// OnLoad records a data load.
func (h *Hierarchy) OnLoad(addr uint64, size int) {
	h.accessBlocks(h.dcache, addr, size, false)
}

// OnStore records a data store.
func (h *Hierarchy) OnStore(addr uint64, size int) {
	h.accessBlocks(h.dcache, addr, size, true)
}

// accessBlocks touches every cache block the access spans. Scalar
// accesses cover at most two blocks.
func (h *Hierarchy) accessBlocks(c *Cache, addr uint64, size int, isWrite bool) {
	blockSize := uint64(c.config.BlockSize)
	first := addr &^ (blockSize - 1)
	last := (addr + uint64(size) - 1) &^ (blockSize - 1)

	for blockAddr := first; ; blockAddr += blockSize {
		var result AccessResult
		if isWrite {
			result = c.Write(blockAddr)
		} else {
			result = c.Read(blockAddr)
		}
		h.totalCycles += result.Latency

		if blockAddr == last {
			break
		}
	}
}

// Reset clears both caches and the cycle counter.
func (h *Hierarchy) Reset() {
	h.icache.Reset()
	h.dcache.Reset()
	h.totalCycles = 0
}

// Report writes a human-readable statistics summary to w.
func (h *Hierarchy) Report(w io.Writer) {
	fmt.Fprintf(w, "Cache statistics:\n")
	reportCache(w, "L1I", h.icache)
	reportCache(w, "L1D", h.dcache)
	fmt.Fprintf(w, "  Modeled cycles: %d\n", h.totalCycles)
}

func reportCache(w io.Writer, name string, c *Cache) {
	stats := c.Stats()
	fmt.Fprintf(w, "  %s: %d accesses, %d hits, %d misses (%.2f%% hit rate)\n",
		name, stats.Accesses(), stats.Hits, stats.Misses, stats.HitRate()*100)
	fmt.Fprintf(w, "       %d evictions, %d writebacks\n",
		stats.Evictions, stats.Writebacks)
}
