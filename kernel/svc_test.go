package kernel

import "testing"

func TestDecodeSVCNumber(t *testing.T) {
	cases := []struct {
		instr uint16
		want  uint8
	}{
		{0xdf01, 1},  // SVC #1
		{0xdf10, 16}, // SVC #16
		{0xdf00, 0},
	}

	for _, c := range cases {
		if got := DecodeSVCNumber(c.instr); got != c.want {
			t.Errorf("DecodeSVCNumber(%#x) = %d, want %d", c.instr, got, c.want)
		}
	}
}

func TestHandleSVCDispatchesLockAndUnlock(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)
	k.CreateThread(0x2000, "B", 0, 512)

	k.HandleSVC(0, 3, &TrapFrame{R0: 0}) // lock(mutex 0)
	if !k.mutexes[0].Locked || k.mutexes[0].LockedBy != 0 {
		t.Fatal("SVC 3 should lock mutex 0 for task 0")
	}

	k.HandleSVC(1, 3, &TrapFrame{R0: 0}) // B blocks on the same mutex
	if k.tcb[1].State != StateBlockedMutex {
		t.Fatal("SVC 3 should block task 1")
	}

	k.HandleSVC(0, 4, &TrapFrame{R0: 0}) // unlock(mutex 0)
	if k.mutexes[0].LockedBy != 1 {
		t.Fatalf("SVC 4 should transfer ownership to task 1, got %d", k.mutexes[0].LockedBy)
	}
}

func TestHandleSVCDispatchesSleepAndYield(t *testing.T) {
	k, hal, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)

	k.HandleSVC(0, 2, &TrapFrame{R0: 5}) // sleep(5)
	if k.tcb[0].State != StateDelayed || k.tcb[0].Ticks != 5 {
		t.Fatalf("SVC 2 should delay task 0 for 5 ticks, got state=%s ticks=%d", k.tcb[0].State, k.tcb[0].Ticks)
	}

	pendsBefore := hal.pends
	k.HandleSVC(0, 1, &TrapFrame{}) // yield
	if hal.pends != pendsBefore+1 {
		t.Fatal("SVC 1 should pend a context switch")
	}
}

func TestHandleSVCDispatchesRebootAndStop(t *testing.T) {
	k, hal, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)

	k.HandleSVC(0, 10, &TrapFrame{R0: 0x1000}) // stopThread(pid)
	if k.tcb[0].State != StateStopped {
		t.Fatalf("SVC 10 should stop task 0, got %s", k.tcb[0].State)
	}

	k.HandleSVC(0, 11, &TrapFrame{}) // reboot
	if hal.resets != 1 {
		t.Fatal("SVC 11 should request a reset")
	}
}

func TestHandleSVCUnknownCallIsANoOp(t *testing.T) {
	k, _, _ := newTestKernel(t)
	k.CreateThread(0x1000, "A", 0, 512)

	before := k.tcb[0]
	k.HandleSVC(0, 99, &TrapFrame{})
	if k.tcb[0] != before {
		t.Fatal("an unrecognized SVC number must not mutate kernel state")
	}
}
