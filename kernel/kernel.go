// RTOS kernel object: task table, scheduler, mutexes, semaphores
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

import (
	"fmt"

	"github.com/cortexm-rtos/kernel/internal/memmgr"
)

// HAL is the kernel's boundary onto the hardware it runs on: stack
// pointer control, the MPU mask write, launching a never-run task, and
// the two exception-triggering primitives (PendSV, system reset). The
// real implementation (board/tm4c123) wraps the cpu package's
// assembly-backed CPU type; tests substitute a software model, the way
// spec.md §8's testable properties are stated independent of any real
// silicon.
//
// spec.md §9: "Global kernel state: consolidate into a single kernel
// object with well-defined initialization and a single start entry.
// Mutation is confined to handler-mode service-call paths." Kernel is
// that object; every mutating method here is meant to run from handler
// mode (the SVCall/PendSV/SysTick exception handlers), never directly
// from a task.
type HAL interface {
	ApplySRD(srd [memmgr.NumSRAMRegions]byte)
	PSP() uint32
	SetPSP(sp uint32)
	SaveContext(sp uint32) uint32
	RestoreContext(sp uint32)
	LaunchTask(entry uint32, sp uint32)
	PendContextSwitch()
	RequestReset()
}

// Kernel is the single consolidated kernel object (spec.md §9).
type Kernel struct {
	hal   HAL
	arena *memmgr.Arena
	sched *scheduler

	tcb        [MaxTasks]TCB
	taskCount  int
	taskCurrent int

	mutexes     [MaxMutexes]Mutex
	semaphores  [MaxSemaphores]Semaphore

	preemption            bool
	priorityInheritance   bool // design hook only, spec.md §1 Non-goals
}

// New constructs a Kernel bound to hal for hardware access and arena
// for task-stack allocation. Both must already be initialized.
func New(hal HAL, arena *memmgr.Arena) *Kernel {
	k := &Kernel{
		hal:   hal,
		arena: arena,
		sched: newScheduler(),
	}

	for i := range k.tcb {
		k.tcb[i].State = StateInvalid
	}

	return k
}

// CreateThread registers a new task. It refuses if the task table is
// full or entry is already registered, preventing re-entrant creation
// (spec.md §4.2). Dynamic task creation after Start is out of scope
// (spec.md §1 Non-goals); CreateThread itself does not enforce that,
// the same way the original source leaves it to the caller's discipline
// to only call createThread during boot.
func (k *Kernel) CreateThread(entry uint32, name string, priority uint8, stackBytes uint32) bool {
	if k.taskCount >= MaxTasks {
		return false
	}

	for i := range k.tcb {
		if k.tcb[i].State != StateInvalid && k.tcb[i].PID == entry {
			return false
		}
	}

	slot := -1
	for i := range k.tcb {
		if k.tcb[i].State == StateInvalid {
			slot = i
			break
		}
	}
	if slot == -1 {
		return false
	}

	top, base, err := k.arena.Alloc(stackBytes)
	if err != nil {
		return false
	}

	t := &k.tcb[slot]
	t.State = StateUnrun
	t.PID = entry
	t.SPInit = top
	t.SP = top
	t.Priority = priority
	t.CurrentPriority = priority
	t.Name = truncateName(name)
	t.stackBase = base
	t.SRD = memmgr.GenerateSRDMask(base, top-base+1)
	t.Mutex = -1
	t.Semaphore = -1

	k.taskCount++

	return true
}

func truncateName(name string) string {
	if len(name) > MaxNameLen {
		return name[:MaxNameLen]
	}
	return name
}

// Start selects the first task via the scheduler, applies its MPU
// mask, loads PSP with its initial stack pointer, and launches it in
// unprivileged thread mode. Unlike every later switch (which goes
// through PendSVHandler), this cold-start path never executes a
// pendable-service instance, matching the original source's startRtos.
func (k *Kernel) Start() {
	k.taskCurrent = k.sched.Schedule(k.tcb[:])

	t := &k.tcb[k.taskCurrent]
	k.hal.ApplySRD(t.SRD)
	k.hal.SetPSP(t.SP)
	t.State = StateReady

	k.hal.LaunchTask(t.PID, t.SP)
}

// CurrentTask returns the index of the currently dispatched task.
func (k *Kernel) CurrentTask() int { return k.taskCurrent }

// TCB returns a copy of the task control block at index i, for
// diagnostics and tests; the kernel's own mutation paths use &k.tcb[i]
// directly so they observe in-place edits.
func (k *Kernel) TCB(i int) TCB { return k.tcb[i] }

func (k *Kernel) findByPID(pid uint32) (int, bool) {
	for i := range k.tcb {
		if k.tcb[i].State != StateInvalid && k.tcb[i].PID == pid {
			return i, true
		}
	}
	return 0, false
}

func (k *Kernel) findByName(name string) (int, bool) {
	for i := range k.tcb {
		if k.tcb[i].State != StateInvalid && k.tcb[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

func (k *Kernel) validMutex(m int) bool      { return m >= 0 && m < MaxMutexes }
func (k *Kernel) validSemaphore(s int) bool  { return s >= 0 && s < MaxSemaphores }

func (k *Kernel) mustValidTask(i int) {
	if i < 0 || i >= MaxTasks {
		panic(fmt.Sprintf("kernel: task index %d out of range", i))
	}
}
