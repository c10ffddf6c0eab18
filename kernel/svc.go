// RTOS supervisor trap glue
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// This file is the thin layer spec.md §4.3 describes as the entry
// condition for the dispatcher: a supervisor-call trap from thread
// mode, decoded by reading the call number out of the instruction
// stream at (stacked PC - 2) and the call's arguments out of the first
// slots of the caller's hardware-stacked frame (r0, r1, ...). The real
// SVCall exception vector saves nothing itself (the CPU already stacked
// r0-r3, r12, LR, PC, xPSR on entry) and simply calls into
// Kernel.HandleSVC with that frame; everything past call-number decode
// is ordinary Go.
package kernel

// TrapFrame is the hardware-stacked exception frame a Cortex-M pushes
// onto the active stack on exception entry. SVC arguments arrive in
// R0..R3 per the platform's standard register calling convention
// (spec.md §6); return values, where a call has one, are written back
// into R0.
type TrapFrame struct {
	R0, R1, R2, R3, R12, LR, PC, XPSR uint32
}

// DecodeSVCNumber extracts the SVC immediate from the 16-bit Thumb
// instruction at the trap site. The instruction's low byte is the
// immediate operand of "SVC #n" (spec.md §4.3: "the dispatcher reads
// the call number from the instruction stream at (stacked PC - 2)").
func DecodeSVCNumber(svcInstruction uint16) uint8 {
	return uint8(svcInstruction & 0xff)
}

// HandleSVC dispatches one supervisor call on behalf of task (the
// currently running task, i.e. Kernel.CurrentTask()), decoding its
// arguments from frame. No call it routes writes frame.R0: getPid (call
// 7), the one call whose result goes back in R0, is a no-op here because
// its argument is a pointer to a name string.
//
// Calls 13 (getMutexInfo), 14 (getSemaphoreInfo) and 16 (getTcb) copy a
// struct out to a buffer addressed by a register argument on real
// hardware; this module exposes their results as ordinary Go return
// values instead (GetMutexInfo, GetSemaphoreInfo, GetTCB) since there is
// no raw task memory to copy into in this model, and leaves marshaling
// those into a caller-supplied buffer to whatever glue sits between the
// kernel and the actual memory-mapped task (spec.md §9: the copy-out
// layout is implementer-defined). HandleSVC still decodes and routes
// those three call numbers for completeness of the call table.
func (k *Kernel) HandleSVC(task int, svc uint8, frame *TrapFrame) {
	switch svc {
	case 1: // yield
		k.Yield()
	case 2: // sleep
		k.Sleep(task, frame.R0)
	case 3: // lock
		k.Lock(task, int(int32(frame.R0)))
	case 4: // unlock
		k.Unlock(task, int(int32(frame.R0)))
	case 5: // wait
		k.WaitSemaphore(task, int(int32(frame.R0)))
	case 6: // post
		k.PostSemaphore(int(int32(frame.R0)))
	case 7: // getPid
		// frame.R0 would hold a pointer to the name string on real
		// hardware; callers of this Go API use GetPid(name) directly.
	case 8: // restartThread
		k.RestartThread(frame.R0)
	case 9: // preempt
		k.Preempt(frame.R0 != 0)
	case 10: // stopThread
		k.StopThread(frame.R0)
	case 11: // reboot
		k.Reboot()
	case 12: // setThreadPriority
		k.SetThreadPriority(frame.R0, uint8(frame.R1))
	case 13: // getMutexInfo
		_, _ = k.GetMutexInfo(int(int32(frame.R1)))
	case 14: // getSemaphoreInfo
		_, _ = k.GetSemaphoreInfo(int(int32(frame.R1)))
	case 15: // sched
		k.Sched(frame.R0 != 0)
	case 16: // getTcb
		_ = k.GetTCB()
	}
}
