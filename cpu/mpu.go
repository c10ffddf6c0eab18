// Cortex-M MPU region and sub-region configuration
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
// +build arm

package cpu

import (
	"math/bits"

	"github.com/cortexm-rtos/kernel/internal/memmgr"
	"github.com/cortexm-rtos/kernel/internal/reg"
)

// MPU register block (ARMv7-M Memory Protection Unit), see the ARMv7-M
// Architecture Reference Manual B3.5. The teacher's arm/mmu.go
// programs an ARMv7-A first-level translation table through the same
// "compute the field, reg.Write it" idiom this file follows for the
// ARMv7-M region-based MPU instead.
const (
	mpuType = 0xe000ed90
	mpuCtrl = 0xe000ed94
	mpuRNR  = 0xe000ed98
	mpuRBAR = 0xe000ed9c
	mpuRASR = 0xe000eda0

	ctrlEnable  = 0
	ctrlPrivDef = 2 // PRIVDEFENA: background region applies in privileged mode

	rasrEnable = 0
	rasrXN     = 28
	rasrAPPos  = 24
	rasrAPMask = 0b111
	rasrTEXPos = 19
	rasrTEXMask = 0b111
	rasrSPos   = 18
	rasrCPos   = 17
	rasrBPos   = 16
	rasrSRDPos = 8
	rasrSRDMask = 0xff
	rasrSizePos = 1
	rasrSizeMask = 0b11111
)

// MPU access permission encodings (RASR.AP field).
const (
	apNoAccess   = 0b000
	apPrivRW     = 0b001 // privileged RW, unprivileged none
	apFullRW     = 0b011 // privileged RW, unprivileged RW
	apFullRO     = 0b110 // privileged RO, unprivileged RO
)

// Region numbers. Regions 2-5 cover the user SRAM arena and are the
// only ones whose sub-region-disable field changes per task; 0, 1, 6
// and 7 are configured once at boot and never touched again.
const (
	RegionBackground = 0
	RegionFlash      = 1
	RegionSRAMSmall  = 2
	RegionSRAMLarge0 = 3
	RegionSRAMLarge1 = 4
	RegionSRAMLarge2 = 5
	RegionPeripheral = 6
	RegionKernelSRAM = 7
)

const (
	flashBase = 0x00000000
	flashSize = 256 * 1024

	peripheralBase = 0x40000000
	peripheralSize = 64 * 1024 * 1024
)

// regionSizeField encodes a power-of-two byte size into the MPU RASR
// SIZE field (actual region size = 2^(SIZE+1) bytes).
func regionSizeField(sizeBytes uint32) uint32 {
	return uint32(bits.Len32(sizeBytes-1)) - 1
}

// ConfigureStaticRegions programs the boot-time MPU layout described in
// spec.md §4.1: an RW background spanning the full address space
// (lowest priority, overridden by every higher-numbered region), a
// read-only executable flash window, the four user SRAM pools (access
// initially fully disabled; a task's sub-region mask is applied at its
// first dispatch), the peripheral window, and a privileged-only region
// over the kernel's first 4 KiB of SRAM.
//
// The original source reused region number 6 for both the kernel SRAM
// guard and the peripheral window (mm.c's setupSramAccess configures
// region 6, which allowPeripheralAccess then immediately overwrites) -
// an apparent bug that would leave the kernel's own data reachable from
// unprivileged mode. This implementation gives the kernel guard its own
// region number (7) instead; see DESIGN.md.
func ConfigureStaticRegions() {
	writeRegion(RegionBackground, 0, 0xffffffff, apFullRW, true /* xn */, 0)
	writeRegion(RegionFlash, flashBase, flashSize, apFullRO, false, 0x00)
	writeRegion(RegionSRAMSmall, memmgr.SmallPoolBase, memmgr.SmallPoolSize, apPrivRW, true, 0x00)
	writeRegion(RegionSRAMLarge0, memmgr.LargePoolBase, memmgr.LargeRegionSize, apPrivRW, true, 0x00)
	writeRegion(RegionSRAMLarge1, memmgr.LargePoolBase+memmgr.LargeRegionSize, memmgr.LargeRegionSize, apPrivRW, true, 0x00)
	writeRegion(RegionSRAMLarge2, memmgr.LargePoolBase+2*memmgr.LargeRegionSize, memmgr.LargeRegionSize, apPrivRW, true, 0x00)
	writeRegion(RegionPeripheral, peripheralBase, peripheralSize, apFullRW, true, 0)
	writeRegion(RegionKernelSRAM, memmgr.KernelBase, memmgr.KernelSize, apPrivRW, true, 0)

	reg.Set(mpuCtrl, ctrlPrivDef)
	reg.Set(mpuCtrl, ctrlEnable)
}

// writeRegion programs one MPU region. srd is the initial sub-region
// disable byte: each set bit takes that eighth of the region out of it,
// leaving the range to the lower-numbered background region, and 0x00
// keeps the whole region in force.
func writeRegion(number int, base, size uint32, ap uint32, xn bool, srd byte) {
	reg.Write(mpuRNR, uint32(number))
	reg.Write(mpuRBAR, base&^0x1f)

	rasr := uint32(1) << rasrEnable
	rasr |= regionSizeField(size) << rasrSizePos
	rasr |= (ap & rasrAPMask) << rasrAPPos

	if xn {
		rasr |= 1 << rasrXN
	}

	rasr |= uint32(srd) << rasrSRDPos

	reg.Write(mpuRASR, rasr)
}

// ApplySRD writes a task's sub-region disable mask into the four user
// SRAM regions' RASR.SRD fields. Called on every context switch.
//
// Regions 2-5 are programmed by ConfigureStaticRegions as apPrivRW with
// srd=0x00: every sub-region starts under the priv-only restriction.
// Region 0, the background region, is apFullRW and lowest priority, so
// it only governs a sub-region once the higher-priority region 2-5
// coverage there is disabled. srd's bits mean "accessible to this
// task" (set = accessible), and the hardware SRD field means "disable
// the priv-only region here" - the two line up directly, so a set bit
// in srd is written straight into the hardware field: the owning
// task's sub-region falls through to the permissive background
// region, and every other sub-region is left under region 2-5's
// priv-only access.
func ApplySRD(srd [memmgr.NumSRAMRegions]byte) {
	for i, mask := range srd {
		number := RegionSRAMSmall + i
		reg.Write(mpuRNR, uint32(number))
		reg.SetN(mpuRASR, rasrSRDPos, rasrSRDMask, uint32(mask))
	}
}
