// Cortex-M SysTick timer
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
// +build arm

package cpu

import "github.com/cortexm-rtos/kernel/internal/reg"

// SysTick register block.
const (
	systickCtrl   = 0xe000e010
	systickReload = 0xe000e014

	ctrlEnableBit    = 0
	ctrlTickIntBit   = 1
	ctrlClkSourceBit = 2
)

// InitSysTick configures the SysTick timer for a 1 kHz tick, the
// resolution spec.md §5 fixes sleep and preemption granularity to.
// reload is cpuFreqHz/1000 - 1, per spec.md §4.4.
func InitSysTick(cpuFreqHz uint32) {
	reload := cpuFreqHz/1000 - 1

	reg.Write(systickReload, reload)
	reg.Set(systickCtrl, ctrlClkSourceBit)
	reg.Set(systickCtrl, ctrlTickIntBit)
	reg.Set(systickCtrl, ctrlEnableBit)
}
