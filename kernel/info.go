// RTOS diagnostic copy-out structures (ps/ipcs shell support)
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

// PSEntry is one row of the process-status table the ps shell command
// displays (spec.md §4.3 call 16, getTcb).
type PSEntry struct {
	PID   uint32
	Name  string
	State TaskState
}

// MutexInfo is the copy-out layout for getMutexInfo (spec.md §4.3 call
// 13). kernel.c leaves this call's body empty ("get mutex data" stub);
// spec.md §9 explicitly leaves its layout to the implementer to match
// the shell's ipcs display, so this module defines one.
type MutexInfo struct {
	Locked      bool
	OwnerName   string
	QueueNames  []string
}

// SemaphoreInfo is the copy-out layout for getSemaphoreInfo (spec.md
// §4.3 call 14), analogous to MutexInfo.
type SemaphoreInfo struct {
	Count      int
	QueueNames []string
}

// GetTCB copies out (pid, name, state) for every task slot, including
// INVALID ones, matching the original's getTcb loop bound
// (spec.md §4.3 call 16 copies every slot, not just populated ones).
func (k *Kernel) GetTCB() []PSEntry {
	out := make([]PSEntry, MaxTasks)
	for i := range k.tcb {
		out[i] = PSEntry{PID: k.tcb[i].PID, Name: k.tcb[i].Name, State: k.tcb[i].State}
	}
	return out
}

// GetMutexInfo copies out the lock state, owner name and queued task
// names for mutex index m.
func (k *Kernel) GetMutexInfo(m int) (MutexInfo, bool) {
	if !k.validMutex(m) {
		return MutexInfo{}, false
	}

	mu := &k.mutexes[m]
	info := MutexInfo{Locked: mu.Locked}

	if mu.Locked {
		info.OwnerName = k.tcb[mu.LockedBy].Name
	}

	for i := 0; i < mu.QueueLen; i++ {
		info.QueueNames = append(info.QueueNames, k.tcb[mu.Queue[i]].Name)
	}

	return info, true
}

// GetSemaphoreInfo copies out the count and queued task names for
// semaphore index s.
func (k *Kernel) GetSemaphoreInfo(s int) (SemaphoreInfo, bool) {
	if !k.validSemaphore(s) {
		return SemaphoreInfo{}, false
	}

	sem := &k.semaphores[s]
	info := SemaphoreInfo{Count: sem.Count}

	for i := 0; i < sem.QueueLen; i++ {
		info.QueueNames = append(info.QueueNames, k.tcb[sem.Queue[i]].Name)
	}

	return info, true
}
