// TM4C123 board support
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
// +build arm

// Package tm4c123 wires the cpu package's Cortex-M4 primitives into the
// kernel.HAL boundary for the TI TM4C123 launchpad target, the way the
// teacher's board packages wrap a SoC init sequence behind a single
// exported type (see board/raspberrypi/pi1, which defers to
// soc/bcm2835.Init from its own board-specific entry point).
package tm4c123

import (
	"github.com/cortexm-rtos/kernel/cpu"
	"github.com/cortexm-rtos/kernel/internal/memmgr"
)

// CPUFrequency is the TM4C123's PLL-derived system clock used by
// main/oscillator configuration not modeled in this module; SysTick
// reload is derived from it (spec.md §4.4).
const CPUFrequency = 40_000_000

// Board satisfies kernel.HAL. It composes cpu.CPU (stack/context/mode
// control) with the free-standing MPU functions in cpu/mpu.go, which
// operate on package-level register addresses rather than through a
// receiver; Board is the seam the kernel actually depends on.
type Board struct {
	cpu.CPU
}

// New configures the static MPU region layout and the SysTick timer,
// then returns a Board ready to hand to kernel.New.
func New() *Board {
	cpu.ConfigureStaticRegions()
	cpu.InitSysTick(CPUFrequency)
	return &Board{}
}

// ApplySRD satisfies kernel.HAL by delegating to the package-level MPU
// sub-region-disable write; it has no per-board variation, so Board adds
// nothing of its own here beyond the forwarding call.
func (*Board) ApplySRD(srd [memmgr.NumSRAMRegions]byte) {
	cpu.ApplySRD(srd)
}
