// +build arm

package reg

import (
	"testing"
	"unsafe"
)

func TestGetSetClear(t *testing.T) {
	var backing uint32
	addr := uint32(uintptr(unsafe.Pointer(&backing)))

	Set(addr, 3)
	if Get(addr, 3, 0b1) != 1 {
		t.Fatalf("expected bit 3 set")
	}

	Clear(addr, 3)
	if Get(addr, 3, 0b1) != 0 {
		t.Fatalf("expected bit 3 clear")
	}
}

func TestSetN(t *testing.T) {
	var backing uint32
	addr := uint32(uintptr(unsafe.Pointer(&backing)))

	SetN(addr, 8, 0xff, 0xab)
	if got := Get(addr, 8, 0xff); got != 0xab {
		t.Fatalf("SetN: got %#x, want %#x", got, 0xab)
	}

	// bits outside the field must be untouched
	Write(addr, 0xffffffff)
	SetN(addr, 8, 0xff, 0x00)
	if got := Read(addr); got != 0xffff00ff {
		t.Fatalf("SetN clobbered bits outside the field: %#x", got)
	}
}
