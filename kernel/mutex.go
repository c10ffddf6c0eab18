// RTOS mutex
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

// Mutex is a binary lock with a bounded FIFO wait queue. Invariant:
// Locked iff some task holds it; a non-empty Queue implies Locked (see
// spec.md §3).
type Mutex struct {
	Locked   bool
	LockedBy int // task index, valid iff Locked
	Queue    [MaxMutexQueueSize]int
	QueueLen int
}

func (m *Mutex) enqueue(task int) bool {
	if m.QueueLen >= len(m.Queue) {
		return false
	}
	m.Queue[m.QueueLen] = task
	m.QueueLen++
	return true
}

// dequeueHead removes and returns the queue head, shifting the
// remaining entries one slot toward the head (spec.md §4.3: "Queue
// compaction shifts remaining entries one slot toward the head").
func (m *Mutex) dequeueHead() int {
	head := m.Queue[0]

	for i := 0; i < m.QueueLen-1; i++ {
		m.Queue[i] = m.Queue[i+1]
	}
	m.QueueLen--

	return head
}

// removeTask removes task from the queue wherever it sits, used by
// StopThread; it is not necessarily the head.
func (m *Mutex) removeTask(task int) bool {
	for i := 0; i < m.QueueLen; i++ {
		if m.Queue[i] == task {
			for j := i; j < m.QueueLen-1; j++ {
				m.Queue[j] = m.Queue[j+1]
			}
			m.QueueLen--
			return true
		}
	}
	return false
}
