// RTOS counting semaphore
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

// Semaphore is a counting semaphore with a bounded FIFO wait queue.
// Invariant: a non-empty Queue implies Count was 0 at the moment the
// waiter at the tail was enqueued (spec.md §3).
type Semaphore struct {
	Count    int
	Queue    [MaxSemaphoreQueue]int
	QueueLen int
}

func (s *Semaphore) enqueue(task int) bool {
	if s.QueueLen >= len(s.Queue) {
		return false
	}
	s.Queue[s.QueueLen] = task
	s.QueueLen++
	return true
}

func (s *Semaphore) dequeueHead() int {
	head := s.Queue[0]

	for i := 0; i < s.QueueLen-1; i++ {
		s.Queue[i] = s.Queue[i+1]
	}
	s.QueueLen--

	return head
}

func (s *Semaphore) removeTask(task int) bool {
	for i := 0; i < s.QueueLen; i++ {
		if s.Queue[i] == task {
			for j := i; j < s.QueueLen-1; j++ {
				s.Queue[j] = s.Queue[j+1]
			}
			s.QueueLen--
			return true
		}
	}
	return false
}
