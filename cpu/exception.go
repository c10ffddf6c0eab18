// Cortex-M exception vectors
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cpu

import "fmt"

// Cortex-M exception vector table offsets (ARMv7-M exception model), see
// the teacher's arm/exception.go for the equivalent ARMv7-A table.
const (
	Reset     = 0x04
	NMI       = 0x08
	HardFault = 0x0c
	MemManage = 0x10
	BusFault  = 0x14
	UsageFault = 0x18
	SVCall    = 0x2c
	PendSV    = 0x38
	SysTick   = 0x3c
)

var faultHandlerFn = defaultFaultHandler

// FaultHandler overrides the default hard/bus/usage fault handler. The
// MPU fault reporter, bus fault reporter and usage fault reporter
// themselves are external collaborators (spec §1): this hook only gives
// them somewhere to attach.
func FaultHandler(fn func(vector int)) {
	faultHandlerFn = fn
}

func defaultFaultHandler(vector int) {
	panic(fmt.Sprintf("unhandled fault, vector %#x (%s)", vector, VectorName(vector)))
}

// DispatchFault is called by the vector table glue with the offset of
// the fault that occurred.
func DispatchFault(vector int) {
	faultHandlerFn(vector)
}

// VectorName returns the exception vector offset's mnemonic name, for
// diagnostics.
func VectorName(off int) string {
	switch off {
	case Reset:
		return "Reset"
	case NMI:
		return "NMI"
	case HardFault:
		return "HardFault"
	case MemManage:
		return "MemManage"
	case BusFault:
		return "BusFault"
	case UsageFault:
		return "UsageFault"
	case SVCall:
		return "SVCall"
	case PendSV:
		return "PendSV"
	case SysTick:
		return "SysTick"
	}

	return "Unknown"
}
