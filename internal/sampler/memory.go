package sampler

import "runtime"

// MemoryReader reports current memory usage in megabytes. A nil reader means
// the environment cannot measure memory; sampling is then skipped silently.
type MemoryReader interface {
	UsedMB() float64
}

// RuntimeMemory reads the Go heap in use.
type RuntimeMemory struct{}

func (RuntimeMemory) UsedMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / 1024 / 1024
}

// MemoryFunc adapts a function to MemoryReader.
type MemoryFunc func() float64

func (f MemoryFunc) UsedMB() float64 { return f() }
