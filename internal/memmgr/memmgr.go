// Static SRAM arena allocator and MPU sub-region mask generator
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package memmgr implements the kernel's static placement allocator over
// the fixed user SRAM arena, and derives the MPU sub-region disable masks
// that grant a task exclusive unprivileged access to its own allocation.
//
// The allocator style (a base+size record per live allocation, first-fit
// placement, collision-driven rescanning) is adapted from the
// container/list free-list allocator in the teacher's internal/dma
// package, generalized from one flat DMA heap to the kernel's two
// differently-sized sub-region pools.
package memmgr

import (
	"errors"
	"sync"
)

// SRAM arena layout. The first 4 KiB of SRAM is kernel-only; the
// remaining 28 KiB is the user arena, split into a small-block pool
// (one 4 KiB MPU region, 512-byte sub-regions) followed by a
// large-block pool (three 8 KiB MPU regions, 1024-byte sub-regions).
const (
	KernelBase = 0x20000000
	KernelSize = 0x1000

	SmallPoolBase      = 0x20001000
	SmallPoolSize      = 0x1000
	SmallSubregionSize = 512

	LargePoolBase      = 0x20002000
	LargeRegionSize    = 0x2000
	LargeRegionCount   = 3
	LargePoolSize      = LargeRegionSize * LargeRegionCount
	LargeSubregionSize = 1024

	ArenaEnd = LargePoolBase + LargePoolSize // 0x20008000

	// NumSRAMRegions is the number of MPU regions covering the user
	// arena (region 2, the small pool, plus regions 3-5, the large
	// pool); srd[i] corresponds to MPU region i+2.
	NumSRAMRegions = 1 + LargeRegionCount

	// MaxAllocation is the largest single allocation: the whole
	// large-block pool, since no single allocation is allowed to span
	// beyond one contiguous placement search.
	MaxAllocation = LargePoolSize
)

var (
	ErrZeroSize  = errors.New("memmgr: cannot allocate 0 bytes")
	ErrTooLarge  = errors.New("memmgr: allocation exceeds user arena")
	ErrNoSpace   = errors.New("memmgr: no non-overlapping placement available")
	ErrNotFound  = errors.New("memmgr: address was not allocated by this arena")
)

// allocation records one live placement, base is the bottom of the
// region (not the stack-oriented top address handed back to callers).
type allocation struct {
	base uint32
	size uint32
}

// Arena is the kernel's static SRAM allocator. The zero value is not
// ready for use; call Init.
type Arena struct {
	mu   sync.Mutex
	live []allocation
}

// Init resets the arena to empty.
func (a *Arena) Init() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.live = nil
}

// Alloc reserves a contiguous range sized per the rounding policy
// (requests <= 512B round to 512B in the small pool, otherwise round up
// to the next multiple of 1024B in the large pool) and returns the
// stack-oriented top-of-region address (ARM full-descending convention:
// base+size-1) along with the base address, for bookkeeping by the
// caller.
func (a *Arena) Alloc(sizeBytes uint32) (top uint32, base uint32, err error) {
	if sizeBytes == 0 {
		return 0, 0, ErrZeroSize
	}
	if sizeBytes > MaxAllocation {
		return 0, 0, ErrTooLarge
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if sizeBytes <= SmallSubregionSize {
		rounded := uint32(SmallSubregionSize)

		if b, ok := a.place(SmallPoolBase, LargePoolBase, rounded); ok {
			a.live = append(a.live, allocation{base: b, size: rounded})
			return b + rounded - 1, b, nil
		}

		// small pool exhausted: promote to a 1024-byte large-pool
		// placement instead of failing outright.
		rounded = LargeSubregionSize
		if b, ok := a.place(LargePoolBase, ArenaEnd, rounded); ok {
			a.live = append(a.live, allocation{base: b, size: rounded})
			return b + rounded - 1, b, nil
		}

		return 0, 0, ErrNoSpace
	}

	rounded := ((sizeBytes + LargeSubregionSize - 1) / LargeSubregionSize) * LargeSubregionSize

	if b, ok := a.place(LargePoolBase, ArenaEnd, rounded); ok {
		a.live = append(a.live, allocation{base: b, size: rounded})
		return b + rounded - 1, b, nil
	}

	return 0, 0, ErrNoSpace
}

// place performs a first-fit scan of [poolBase, poolEnd) for a run of
// size bytes that overlaps no live allocation. On collision with a live
// allocation, the candidate base advances to the end of that
// allocation and the scan restarts from the beginning of the live list,
// matching the source allocator's linear rescan-on-collision behavior.
func (a *Arena) place(poolBase, poolEnd, size uint32) (uint32, bool) {
	candidate := poolBase

restart:
	if candidate+size > poolEnd {
		return 0, false
	}

	for _, live := range a.live {
		if overlaps(candidate, size, live.base, live.size) {
			candidate = live.base + live.size
			goto restart
		}
	}

	return candidate, true
}

func overlaps(baseA, sizeA, baseB, sizeB uint32) bool {
	endA := baseA + sizeA
	endB := baseB + sizeB
	return baseA < endB && baseB < endA
}

// Free releases the allocation whose base address is base, making its
// space available for future placements. This is a supplement to the
// original source, which never released a task's stack; see DESIGN.md.
func (a *Arena) Free(base uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, live := range a.live {
		if live.base == base {
			a.live = append(a.live[:i], a.live[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}

// GenerateSRDMask computes the per-MPU-region sub-region disable bitmap
// that makes exactly [base, base+size) accessible to unprivileged code,
// mirroring the source's generateSramSrdMasks walk (including its
// small-to-large step-size shift when a small-pool allocation spills
// past 0x20001E00 into the large pool).
func GenerateSRDMask(base, size uint32) (srd [NumSRAMRegions]byte) {
	if base < SmallPoolBase || base >= ArenaEnd {
		return srd
	}

	ptr := base
	scale := uint32(SmallSubregionSize)

	if base >= LargePoolBase {
		scale = LargeSubregionSize
	}

	end := base + size

	for ptr < end {
		switch {
		case ptr >= SmallPoolBase && ptr < LargePoolBase:
			shift := (ptr - SmallPoolBase) / scale
			srd[0] |= 1 << shift

			if ptr >= LargePoolBase-SmallSubregionSize {
				scale = LargeSubregionSize
			}
		case ptr >= LargePoolBase && ptr < ArenaEnd:
			region := (ptr-KernelBase)/LargeRegionSize + 2
			shift := ((ptr - LargePoolBase) - LargeRegionSize*(region-3)) / scale
			srd[region-2] |= 1 << shift
		}

		ptr += scale
	}

	return srd
}
