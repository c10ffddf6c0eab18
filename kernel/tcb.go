// RTOS task control block and fixed-size task table
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package kernel implements the RTOS core: the task control block and
// scheduler, the service-call dispatcher, and the context-switch
// protocol tying the systick timer and the pendable-service handler to
// the task stacks. It is grounded throughout on the original source's
// kernel.c, translated from its flat C globals into Go types (a tagged
// TaskState, an index-linked Kernel struct) the way the teacher
// replaces inheritance and dynamic dispatch with fixed arrays and
// explicit state transitions (see arm's CPU struct for the same
// "receiver wraps fixed hardware state" idiom).
package kernel

import "github.com/cortexm-rtos/kernel/internal/memmgr"

// Fixed ceilings, chosen to match the original source's MAX_* defines.
// Dynamic task creation after Start, and any ceiling beyond these, is
// out of scope (spec.md §1 Non-goals).
const (
	MaxTasks           = 16
	NumPriorities      = 8
	MaxMutexes         = 4
	MaxSemaphores      = 4
	MaxMutexQueueSize  = MaxTasks
	MaxSemaphoreQueue  = MaxTasks
	MaxNameLen         = 15
)

// TaskState is the tagged variant covering a TCB slot's lifecycle.
type TaskState int

const (
	StateInvalid TaskState = iota
	StateStopped
	StateUnrun
	StateReady
	StateDelayed
	StateBlockedMutex
	StateBlockedSemaphore
)

func (s TaskState) String() string {
	switch s {
	case StateInvalid:
		return "INVALID"
	case StateStopped:
		return "STOPPED"
	case StateUnrun:
		return "UNRUN"
	case StateReady:
		return "READY"
	case StateDelayed:
		return "DELAYED"
	case StateBlockedMutex:
		return "BLOCKED_MUTEX"
	case StateBlockedSemaphore:
		return "BLOCKED_SEMAPHORE"
	}
	return "UNKNOWN"
}

// Runnable reports whether the scheduler may dispatch a task in this
// state (spec.md §8: "the scheduler never returns a task whose state is
// not READY or UNRUN").
func (s TaskState) Runnable() bool {
	return s == StateReady || s == StateUnrun
}

// TCB is one task control block. Cross-links to the mutex/semaphore a
// task is blocked on are indices into the Kernel's arrays, not
// pointers, per spec.md §9 ("implement as index pairs, not pointers").
type TCB struct {
	State TaskState

	// PID is the task's entry-point address, unique per task, and
	// doubles as its identity token for the service-call ABI.
	PID uint32

	SPInit uint32 // original top of this task's stack
	SP     uint32 // saved process stack pointer, valid when not running

	Priority        uint8
	CurrentPriority uint8 // effective priority; reserved for priority inheritance

	Ticks uint32 // remaining sleep ticks, valid when StateDelayed

	// SRD holds one sub-region disable byte per user SRAM region
	// (indices 0-3 correspond to MPU regions 2-5); a set bit means
	// this task may access that sub-region unprivileged.
	SRD [memmgr.NumSRAMRegions]byte

	Name string

	// Mutex/Semaphore are valid only while State is the matching
	// BLOCKED_* state.
	Mutex     int
	Semaphore int

	stackBase uint32 // base of the stack allocation, the address Arena.Free takes; StopThread does not free it
}
