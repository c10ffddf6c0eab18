package kernel

import (
	"testing"

	"github.com/cortexm-rtos/kernel/internal/memmgr"
)

// fakeHAL is a software model of the CPU/MPU boundary, standing in for
// the assembly-backed board/tm4c123 implementation so the kernel's
// scheduling, IPC and dispatcher logic can be exercised with ordinary
// `go test`, the same way KTStephano-GVM and
// IntuitionAmiga-IntuitionEngine test their CPU emulation core without
// any real silicon.
type fakeHAL struct {
	psp        uint32
	srd        [memmgr.NumSRAMRegions]byte
	pends      int
	resets     int
	launches   []uint32
	saves      []uint32
	restores   []uint32
}

func (f *fakeHAL) ApplySRD(srd [memmgr.NumSRAMRegions]byte) { f.srd = srd }
func (f *fakeHAL) PSP() uint32                              { return f.psp }
func (f *fakeHAL) SetPSP(sp uint32)                         { f.psp = sp }
func (f *fakeHAL) SaveContext(sp uint32) uint32 {
	f.saves = append(f.saves, sp)
	return sp - 32 // models STMDB pushing r4-r11 (8 words) below sp
}
func (f *fakeHAL) RestoreContext(sp uint32)                 { f.restores = append(f.restores, sp) }
func (f *fakeHAL) LaunchTask(entry uint32, sp uint32)       { f.launches = append(f.launches, entry); f.psp = sp }
func (f *fakeHAL) PendContextSwitch()                       { f.pends++ }
func (f *fakeHAL) RequestReset()                            { f.resets++ }

func newTestKernel(t *testing.T) (*Kernel, *fakeHAL, *memmgr.Arena) {
	t.Helper()

	var arena memmgr.Arena
	arena.Init()

	hal := &fakeHAL{}
	return New(hal, &arena), hal, &arena
}

func TestCreateThreadRefusesDuplicateEntry(t *testing.T) {
	k, _, _ := newTestKernel(t)

	if !k.CreateThread(0x1000, "a", 0, 512) {
		t.Fatal("first create should succeed")
	}
	if k.CreateThread(0x1000, "a-again", 0, 512) {
		t.Fatal("duplicate entry point must be refused")
	}
}

func TestCreateThreadRefusesWhenTableFull(t *testing.T) {
	k, _, _ := newTestKernel(t)

	for i := 0; i < MaxTasks; i++ {
		if !k.CreateThread(uint32(0x1000+i), "t", 7, 512) {
			t.Fatalf("create %d should have succeeded", i)
		}
	}

	if k.CreateThread(0xffff, "overflow", 7, 512) {
		t.Fatal("create on a full table should be refused")
	}
}

func TestSchedulerOnlyReturnsRunnableTasks(t *testing.T) {
	k, _, _ := newTestKernel(t)

	k.CreateThread(0x1000, "a", 0, 512)
	k.CreateThread(0x2000, "b", 7, 512)

	k.tcb[1].State = StateDelayed

	for i := 0; i < 10; i++ {
		idx := k.sched.Schedule(k.tcb[:])
		if !k.tcb[idx].State.Runnable() {
			t.Fatalf("scheduler returned non-runnable task %d in state %s", idx, k.tcb[idx].State)
		}
	}
}

// Scenario 1 (spec.md §8): A(prio 0) and B(prio 7) both ready; the
// scheduler picks A repeatedly since B is lower priority, and picking
// "repeatedly" reflects A never yielding the CPU in this test (a real
// yield is only observable once PendSVHandler runs).
func TestPriorityScenarioHighPriorityAlwaysWins(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 7, 512)
	k.tcb[0].State = StateReady
	k.tcb[1].State = StateReady

	for i := 0; i < 5; i++ {
		idx := k.sched.Schedule(k.tcb[:])
		if idx != 0 {
			t.Fatalf("expected task A (idx 0) to win priority scheduling, got %d", idx)
		}
	}
}

// Scenario 2 (spec.md §8): A(prio 0) sleeps 10 ticks while B(prio 7)
// runs; once the sleep elapses, A is READY again and, with preemption
// enabled, outranks B at the very next schedule decision.
func TestSleepThenPreemptScenario(t *testing.T) {
	k, hal, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 7, 512)
	k.tcb[0].State = StateReady
	k.tcb[1].State = StateReady
	k.Preempt(true)

	k.Sleep(0, 10)
	if idx := k.sched.Schedule(k.tcb[:]); idx != 1 {
		t.Fatalf("B should run while A sleeps, scheduler picked %d", idx)
	}

	for i := 0; i < 9; i++ {
		k.SysTickHandler()
	}
	if k.tcb[0].State != StateDelayed {
		t.Fatal("A should still be asleep after 9 ticks")
	}

	pendsBefore := hal.pends
	k.SysTickHandler() // 10th tick: A wakes
	if k.tcb[0].State != StateReady {
		t.Fatal("A should be READY after 10 ticks")
	}
	if hal.pends != pendsBefore+1 {
		t.Fatal("waking A with preemption on should pend a context switch")
	}
	if idx := k.sched.Schedule(k.tcb[:]); idx != 0 {
		t.Fatalf("A (higher priority) should win the next schedule, got %d", idx)
	}
}

func TestRoundRobinRotatesEqualPriorityTasks(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.Sched(false)

	k.CreateThread(0x1000, "a", 3, 512)
	k.CreateThread(0x2000, "b", 3, 512)
	k.CreateThread(0x3000, "c", 3, 512)
	k.tcb[0].State = StateReady
	k.tcb[1].State = StateReady
	k.tcb[2].State = StateReady

	var order []int
	for i := 0; i < 6; i++ {
		idx := k.sched.Schedule(k.tcb[:])
		order = append(order, idx)
	}

	want := []int{0, 1, 2, 0, 1, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("round robin order = %v, want repeating 0,1,2", order)
		}
	}
}

// Scenario 3 (spec.md §8): A locks M, B locks M and blocks, A unlocks M
// and B becomes the owner without an observable intermediate "free"
// state visible to a third party (single-threaded handler-mode
// execution makes this automatic here, but the assertion documents the
// guarantee).
func TestMutexOwnershipTransfersToQueueHead(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 0, 512)

	k.Lock(0, 0)
	if !k.mutexes[0].Locked || k.mutexes[0].LockedBy != 0 {
		t.Fatal("A should own the mutex")
	}

	k.Lock(1, 0)
	if k.tcb[1].State != StateBlockedMutex {
		t.Fatalf("B should be blocked, got %s", k.tcb[1].State)
	}

	k.Unlock(0, 0)

	if !k.mutexes[0].Locked {
		t.Fatal("mutex should remain locked, now held by B")
	}
	if k.mutexes[0].LockedBy != 1 {
		t.Fatalf("expected B (1) to own the mutex, got %d", k.mutexes[0].LockedBy)
	}
	if k.tcb[1].State != StateReady {
		t.Fatalf("B should be READY after acquiring the mutex, got %s", k.tcb[1].State)
	}
	if k.mutexes[0].QueueLen != 0 {
		t.Fatalf("queue should be empty after handoff, got %d", k.mutexes[0].QueueLen)
	}
}

func TestMutexQueueNeverContainsCurrentOwner(t *testing.T) {
	k, _, _ := newTestKernel(t)
	for i := 0; i < 4; i++ {
		k.CreateThread(uint32(0x1000+i), "t", 0, 512)
	}

	k.Lock(0, 0)
	k.Lock(1, 0)
	k.Lock(2, 0)
	k.Lock(3, 0)

	for i := 0; i < k.mutexes[0].QueueLen; i++ {
		if k.mutexes[0].Queue[i] == k.mutexes[0].LockedBy {
			t.Fatal("queue contains the current owner")
		}
	}
}

// Scenario 4 (spec.md §8): S=0; A waits and blocks; B posts, A becomes
// ready, and count is back at 0 (the permit was transferred, not
// accumulated).
func TestSemaphoreWaitPostTransfersPermitWithoutChangingCount(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 0, 512)

	k.WaitSemaphore(0, 0)
	if k.tcb[0].State != StateBlockedSemaphore {
		t.Fatalf("A should block on wait, got %s", k.tcb[0].State)
	}

	k.PostSemaphore(0)

	if k.tcb[0].State != StateReady {
		t.Fatalf("A should be READY after post, got %s", k.tcb[0].State)
	}
	if k.semaphores[0].Count != 0 {
		t.Fatalf("count should be back at 0, got %d", k.semaphores[0].Count)
	}
}

func TestSemaphorePostWithNoWaitersIncrementsCount(t *testing.T) {
	k, _, _ := newTestKernel(t)

	k.PostSemaphore(0)
	k.PostSemaphore(0)

	if k.semaphores[0].Count != 2 {
		t.Fatalf("expected count 2, got %d", k.semaphores[0].Count)
	}
}

// Scenario 6 (spec.md §8): stopThread on a task blocked in a semaphore
// queue removes it; a subsequent post wakes the next waiter, not the
// stopped task.
func TestStopThreadRemovesFromSemaphoreQueue(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 0, 512)

	k.WaitSemaphore(0, 0)
	k.WaitSemaphore(1, 0)

	k.StopThread(0x1000)

	if k.tcb[0].State != StateStopped {
		t.Fatalf("A should be STOPPED, got %s", k.tcb[0].State)
	}
	if k.semaphores[0].QueueLen != 1 || k.semaphores[0].Queue[0] != 1 {
		t.Fatalf("expected only B left in queue, got len=%d head=%d", k.semaphores[0].QueueLen, k.semaphores[0].Queue[0])
	}

	k.PostSemaphore(0)

	if k.tcb[1].State != StateReady {
		t.Fatalf("B should have woken, got %s", k.tcb[1].State)
	}
	if k.tcb[0].State != StateStopped {
		t.Fatal("A must remain stopped, not woken by the post")
	}
}

func TestStopThreadReleasesOwnedMutex(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 0, 512)

	k.Lock(0, 0)
	k.Lock(1, 0) // B blocks

	k.StopThread(0x1000)

	if k.tcb[0].State != StateStopped {
		t.Fatal("A should be stopped")
	}
	if !k.mutexes[0].Locked || k.mutexes[0].LockedBy != 1 {
		t.Fatal("B should now own the mutex after A is stopped")
	}
	if k.tcb[1].State != StateReady {
		t.Fatalf("B should be READY, got %s", k.tcb[1].State)
	}
}

func TestStopThreadNeverLeavesQueueEntryForStoppedTask(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 0, 512)
	k.CreateThread(0x3000, "C", 0, 512)

	k.Lock(0, 0)
	k.Lock(1, 0)
	k.Lock(2, 0)

	k.StopThread(0x2000) // B was queued, not owner

	for i := 0; i < k.mutexes[0].QueueLen; i++ {
		if k.tcb[k.mutexes[0].Queue[i]].State == StateStopped {
			t.Fatal("stopped task still present in mutex queue")
		}
	}
}

func TestSleepMonotonicityViaSysTick(t *testing.T) {
	k, hal, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)

	k.Sleep(0, 10)
	if k.tcb[0].State != StateDelayed {
		t.Fatal("task should be delayed after sleep")
	}
	if hal.pends != 1 {
		t.Fatalf("sleep should pend a context switch, pends=%d", hal.pends)
	}

	for i := 0; i < 9; i++ {
		k.SysTickHandler()
		if k.tcb[0].State != StateDelayed {
			t.Fatalf("task woke too early, after %d ticks", i+1)
		}
	}

	k.SysTickHandler()
	if k.tcb[0].State != StateReady {
		t.Fatal("task should be READY after 10 ticks")
	}
}

func TestStartLaunchesScheduledTask(t *testing.T) {
	k, hal, _ := newTestKernel(t)
	k.CreateThread(0x4000, "idle", 7, 512)

	k.Start()

	if len(hal.launches) != 1 || hal.launches[0] != 0x4000 {
		t.Fatalf("expected Start to launch pid 0x4000, got %v", hal.launches)
	}
	if k.tcb[0].State != StateReady {
		t.Fatalf("launched task should be READY, got %s", k.tcb[0].State)
	}
}

func TestPendSVHandlerResumesVsLaunches(t *testing.T) {
	k, hal, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 0, 512)

	k.Start() // launches A (UNRUN -> READY via cold start)

	k.Yield()
	k.PendSVHandler() // A -> B, B has never run: must launch, not restore

	if len(hal.launches) != 2 {
		t.Fatalf("expected B to be launched fresh, launches=%v", hal.launches)
	}

	k.Yield()
	k.PendSVHandler() // B -> A, A has run before: must restore

	if len(hal.restores) != 1 {
		t.Fatalf("expected A to be resumed via RestoreContext, restores=%d", len(hal.restores))
	}
}

func TestRestartThreadOnlyRevivesStoppedTasks(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)

	k.tcb[0].State = StateDelayed
	k.RestartThread(0x1000)
	if k.tcb[0].State != StateDelayed {
		t.Fatal("restart must not revive a task that isn't stopped")
	}

	k.tcb[0].State = StateStopped
	k.RestartThread(0x1000)
	if k.tcb[0].State != StateReady {
		t.Fatalf("restart should revive a stopped task, got %s", k.tcb[0].State)
	}
}

func TestGetPidAndSetPriority(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "worker", 5, 512)

	pid, ok := k.GetPid("worker")
	if !ok || pid != 0x1000 {
		t.Fatalf("GetPid: got (%#x, %v)", pid, ok)
	}

	if _, ok := k.GetPid("nonexistent"); ok {
		t.Fatal("GetPid should silently fail for an unknown name")
	}

	k.SetThreadPriority(pid, 1)
	if k.tcb[0].Priority != 1 {
		t.Fatalf("expected priority 1, got %d", k.tcb[0].Priority)
	}
}

func TestRebootRequestsReset(t *testing.T) {
	k, hal, _ := newTestKernel(t)
	k.Reboot()
	if hal.resets != 1 {
		t.Fatalf("expected exactly one reset request, got %d", hal.resets)
	}
}

func TestGetMutexInfoAndSemaphoreInfo(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 0, 512)

	k.Lock(0, 0)
	k.Lock(1, 0)

	info, ok := k.GetMutexInfo(0)
	if !ok || !info.Locked || info.OwnerName != "A" {
		t.Fatalf("unexpected mutex info: %+v", info)
	}
	if len(info.QueueNames) != 1 || info.QueueNames[0] != "B" {
		t.Fatalf("unexpected queue names: %v", info.QueueNames)
	}

	k.WaitSemaphore(1, 0)
	semInfo, ok := k.GetSemaphoreInfo(0)
	if !ok || semInfo.Count != 0 || len(semInfo.QueueNames) != 1 {
		t.Fatalf("unexpected semaphore info: %+v", semInfo)
	}
}
