// RTOS scheduler
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

// Policy selects between the two scheduling disciplines spec.md §4.2
// names.
type Policy int

const (
	// PolicyPriority selects among tasks at the highest populated
	// priority, round-robining within that priority via a per-priority
	// rotor, descending to lower priorities when the current one has
	// nothing runnable.
	PolicyPriority Policy = iota
	// PolicyRoundRobin ignores priority and advances a single rotor
	// linearly across every slot.
	PolicyRoundRobin
)

// scheduler holds the rotors the two policies need. It carries no
// reference to the task table itself: Schedule is given the table to
// scan, keeping it trivially unit-testable against synthetic TCB
// slices.
type scheduler struct {
	policy        Policy
	priorityRotor [NumPriorities]int // last dispatched slot index per priority
	rrRotor       int
}

func newScheduler() *scheduler {
	s := &scheduler{}
	for i := range s.priorityRotor {
		s.priorityRotor[i] = -1
	}
	s.rrRotor = -1
	return s
}

// Schedule returns the index of the next task to dispatch. It always
// returns a task in state READY or UNRUN (spec.md §8); this holds
// because an idle task at the lowest priority is always READY, so the
// descent in schedulePriority (and the linear scan in
// scheduleRoundRobin) is guaranteed to terminate before exhausting
// every slot.
func (s *scheduler) Schedule(tcb []TCB) int {
	if s.policy == PolicyRoundRobin {
		return s.scheduleRoundRobin(tcb)
	}
	return s.schedulePriority(tcb)
}

func (s *scheduler) schedulePriority(tcb []TCB) int {
	for level := 0; level < NumPriorities; level++ {
		start := (s.priorityRotor[level] + 1) % len(tcb)

		for i := 0; i < len(tcb); i++ {
			idx := (start + i) % len(tcb)

			if int(tcb[idx].Priority) == level && tcb[idx].State.Runnable() {
				s.priorityRotor[level] = idx
				return idx
			}
		}
	}

	panic("kernel: scheduler found no runnable task at any priority")
}

func (s *scheduler) scheduleRoundRobin(tcb []TCB) int {
	n := len(tcb)

	for i := 1; i <= n; i++ {
		idx := (s.rrRotor + i) % n
		if idx < 0 {
			idx += n
		}

		if tcb[idx].State.Runnable() {
			s.rrRotor = idx
			return idx
		}
	}

	panic("kernel: scheduler found no runnable task")
}
