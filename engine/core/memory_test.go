package core

import (
	"errors"
	"strings"
	"testing"
)

func TestMemorySystemBudget(t *testing.T) {
	ms := NewMemorySystem(100)

	buf, err := ms.Allocate(64, MEMORY_TAG_IMAGE)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(buf) != 64 {
		t.Fatalf("len = %d, want 64", len(buf))
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}

	if _, err := ms.Allocate(37, MEMORY_TAG_STAGING); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
	if got := ms.Usage(MEMORY_TAG_STAGING); got != 0 {
		t.Errorf("failed allocation was accounted: %d", got)
	}

	if _, err := ms.Allocate(36, MEMORY_TAG_STAGING); err != nil {
		t.Fatalf("Allocate at the limit: %v", err)
	}
	ms.Free(36, MEMORY_TAG_STAGING)
	ms.Free(64, MEMORY_TAG_IMAGE)
	if got := ms.TotalUsage(); got != 0 {
		t.Errorf("TotalUsage = %d, want 0", got)
	}
	if got := ms.AllocationCount(); got != 2 {
		t.Errorf("AllocationCount = %d, want 2", got)
	}
}

func TestMemorySystemUnlimited(t *testing.T) {
	ms := NewMemorySystem(0)
	if _, err := ms.Allocate(1<<20, MEMORY_TAG_TEXTURE); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	report := ms.UsageReport()
	if !strings.Contains(report, "TEXTURE    : 1.00MiB") {
		t.Errorf("unexpected report:\n%s", report)
	}
}

func TestMemoryFreeClampsToTracked(t *testing.T) {
	ms := NewMemorySystem(0)
	if _, err := ms.Allocate(10, MEMORY_TAG_IMAGE); err != nil {
		t.Fatal(err)
	}
	ms.Free(20, MEMORY_TAG_IMAGE)
	if got := ms.TotalUsage(); got != 0 {
		t.Errorf("TotalUsage = %d, want 0", got)
	}
}
