// RTOS boot entry point and demo task set
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
// +build arm

// Command rtosdemo is the minimal boot entry point analogous to the
// teacher's example package: it wires a tm4c123.Board to a kernel.Kernel
// and registers a handful of tasks that walk through spec.md §8's
// end-to-end scenarios. It is not the shell described in spec.md §6 -
// that remains an external collaborator talking to the kernel over the
// sixteen-call ABI (kernel/svc.go), not something this module
// implements.
package main

import (
	"reflect"

	"github.com/cortexm-rtos/kernel/board/tm4c123"
	"github.com/cortexm-rtos/kernel/internal/memmgr"
	"github.com/cortexm-rtos/kernel/kernel"
)

var k *kernel.Kernel

// entryOf returns fn's code address, the uint32 CreateThread expects.
// There is no portable way to ask the Go compiler for this short of
// letting the linker tell us, so this resorts to the same
// reflect.Value.Pointer trick bare-metal Go callback shims use when a C
// ABI needs a raw function pointer; it is only ever used here, at boot,
// against a handful of known top-level functions.
func entryOf(fn func()) uint32 {
	return uint32(reflect.ValueOf(fn).Pointer())
}

// idleTask is the lowest-priority, always-runnable task every
// configuration in this demo carries (spec.md §8: the scheduler's
// termination argument depends on one READY task always existing).
func idleTask() {
	for {
		k.Yield()
	}
}

// producerTask and consumerTask walk through scenario 3 (mutex handoff)
// and scenario 4 (semaphore wait/post): producer posts a semaphore and
// releases a mutex the consumer is waiting on, repeatedly.
func producerTask() {
	mutex, semaphore := 0, 0

	for {
		self := k.CurrentTask()
		k.Lock(self, mutex)
		k.Unlock(self, mutex)
		k.PostSemaphore(semaphore)
		k.Sleep(self, 10)
	}
}

func consumerTask() {
	mutex, semaphore := 0, 0

	for {
		self := k.CurrentTask()
		k.WaitSemaphore(self, semaphore)
		k.Lock(self, mutex)
		k.Unlock(self, mutex)
	}
}

// roundRobinTaskA and roundRobinTaskB demonstrate scenario 5: two equal
// priority tasks alternating through the priority scheduler's
// per-priority rotor (main leaves the default priority policy selected).
func roundRobinTaskA() {
	for {
		k.Yield()
	}
}

func roundRobinTaskB() {
	for {
		k.Yield()
	}
}

func main() {
	b := tm4c123.New()

	var arena memmgr.Arena
	arena.Init()

	k = kernel.New(b, &arena)

	k.CreateThread(entryOf(idleTask), "idle", 7, 512)
	k.CreateThread(entryOf(producerTask), "producer", 2, 512)
	k.CreateThread(entryOf(consumerTask), "consumer", 2, 512)
	k.CreateThread(entryOf(roundRobinTaskA), "rr-a", 4, 512)
	k.CreateThread(entryOf(roundRobinTaskB), "rr-b", 4, 512)

	k.Preempt(true)
	k.Start()

	// Start never returns: LaunchTask branches into the first task in
	// unprivileged thread mode and every later switch happens in
	// PendSVHandler. tm4c123.New only configures the MPU and the SysTick
	// timer; nothing in this module installs the PendSV and SysTick
	// vectors that call PendSVHandler and SysTickHandler.
	for {
	}
}
