package core

import (
	"fmt"
	"strings"
	"sync"
)

type MemoryTag int

const (
	MEMORY_TAG_UNKNOWN MemoryTag = iota
	MEMORY_TAG_IMAGE
	MEMORY_TAG_STAGING
	MEMORY_TAG_TEXTURE
	MEMORY_TAG_FRAMEBUFFER

	MEMORY_TAG_MAX_TAGS
)

var memoryTagStrings = [MEMORY_TAG_MAX_TAGS]string{
	"UNKNOWN    ",
	"IMAGE      ",
	"STAGING    ",
	"TEXTURE    ",
	"FRAMEBUFFER",
}

func (t MemoryTag) String() string {
	if t < 0 || t >= MEMORY_TAG_MAX_TAGS {
		return "INVALID"
	}
	return strings.TrimSpace(memoryTagStrings[t])
}

// Allocator hands out zeroed byte slices. Implementations may refuse an
// allocation by returning an error wrapping ErrOutOfMemory.
type Allocator interface {
	Allocate(size uint64, tag MemoryTag) ([]byte, error)
	Free(size uint64, tag MemoryTag)
}

// MemorySystem is the default Allocator. It keeps per-tag usage counters and
// enforces an optional byte budget shared by every tag.
type MemorySystem struct {
	mu          sync.Mutex
	limit       uint64
	totalBytes  uint64
	taggedBytes [MEMORY_TAG_MAX_TAGS]uint64
	allocCount  uint64
}

// NewMemorySystem creates a memory system; a limit of 0 means unlimited.
func NewMemorySystem(limit uint64) *MemorySystem {
	return &MemorySystem{limit: limit}
}

func (ms *MemorySystem) Allocate(size uint64, tag MemoryTag) ([]byte, error) {
	if tag == MEMORY_TAG_UNKNOWN {
		LogWarn("allocate called using MEMORY_TAG_UNKNOWN. Re-class this allocation.")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.limit != 0 && ms.totalBytes+size > ms.limit {
		return nil, fmt.Errorf("allocating %d bytes for %s would exceed the %d byte budget (in use %d): %w",
			size, tag, ms.limit, ms.totalBytes, ErrOutOfMemory)
	}
	ms.totalBytes += size
	ms.taggedBytes[tag] += size
	ms.allocCount++
	return make([]byte, size), nil
}

func (ms *MemorySystem) Free(size uint64, tag MemoryTag) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if size > ms.taggedBytes[tag] {
		LogWarn("free of %d bytes for %s exceeds the tracked %d bytes", size, tag, ms.taggedBytes[tag])
		size = ms.taggedBytes[tag]
	}
	ms.taggedBytes[tag] -= size
	ms.totalBytes -= size
}

// Usage returns the number of bytes currently held for the given tag.
func (ms *MemorySystem) Usage(tag MemoryTag) uint64 {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.taggedBytes[tag]
}

func (ms *MemorySystem) TotalUsage() uint64 {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.totalBytes
}

func (ms *MemorySystem) AllocationCount() uint64 {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.allocCount
}

// UsageReport renders the per-tag usage the way it is printed on shutdown.
func (ms *MemorySystem) UsageReport() string {
	const (
		gib = 1024 * 1024 * 1024
		mib = 1024 * 1024
		kib = 1024
	)
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var b strings.Builder
	b.WriteString("System memory use (tagged):\n")
	for i := MemoryTag(0); i < MEMORY_TAG_MAX_TAGS; i++ {
		unit := "B"
		amount := float64(ms.taggedBytes[i])
		switch {
		case ms.taggedBytes[i] >= gib:
			unit, amount = "GiB", amount/gib
		case ms.taggedBytes[i] >= mib:
			unit, amount = "MiB", amount/mib
		case ms.taggedBytes[i] >= kib:
			unit, amount = "KiB", amount/kib
		}
		fmt.Fprintf(&b, "  %s: %.2f%s\n", memoryTagStrings[i], amount, unit)
	}
	return b.String()
}
