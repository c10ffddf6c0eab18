// RTOS context switch: systick tick and pendable-service handler
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

// SysTickHandler runs at 1 kHz (spec.md §4.4). It decrements every
// DELAYED task's remaining tick count, promotes any that hit zero to
// READY, and requests a context switch if preemption is enabled. It
// never switches tasks itself; PendSVHandler is the only place that
// happens, keeping the tick handler's own execution time bounded and
// independent of how many tasks are currently ready.
func (k *Kernel) SysTickHandler() {
	for i := 0; i < k.taskCount; i++ {
		t := &k.tcb[i]

		if t.State != StateDelayed {
			continue
		}

		t.Ticks--
		if t.Ticks == 0 {
			t.State = StateReady
		}
	}

	if k.preemption {
		k.hal.PendContextSwitch()
	}
}

// PendSVHandler performs the actual task switch (spec.md §4.4). It:
//
//  1. saves the callee-saved register block of the task being switched
//     away from (the caller-saved set is already on that task's stack,
//     pushed by the CPU on exception entry);
//  2. records the SP SaveContext returns - the stack pointer advanced
//     past that saved block - into the outgoing task's TCB;
//  3. asks the scheduler for the next task and applies its MPU mask;
//  4. if the new task has run before, restores its callee-saved block
//     from its saved SP (which also reloads PSP to the matching
//     address) and returns - exception return then resumes it exactly
//     where it yielded; if it has never run, marks it READY and
//     launches it fresh instead of attempting to restore a context it
//     never saved.
func (k *Kernel) PendSVHandler() {
	outgoing := &k.tcb[k.taskCurrent]

	sp := k.hal.PSP()
	outgoing.SP = k.hal.SaveContext(sp)

	k.taskCurrent = k.sched.Schedule(k.tcb[:])
	incoming := &k.tcb[k.taskCurrent]

	k.hal.ApplySRD(incoming.SRD)

	if incoming.State == StateReady {
		k.hal.RestoreContext(incoming.SP)
		return
	}

	incoming.State = StateReady
	k.hal.LaunchTask(incoming.PID, incoming.SP)
}
