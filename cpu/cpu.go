// Cortex-M processor support
// https://github.com/cortexm-rtos/kernel
//
// Copyright (c) the cortexm-rtos authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
// +build arm

// Package cpu implements the kernel's low-level CPU control: switching
// the active stack pointer between the kernel's main stack and a task's
// process stack, saving and restoring the callee-saved register block on
// a context switch, and dropping to unprivileged thread mode to launch a
// task. The actual register and mode manipulation lives in asm_arm.s;
// this file only declares the calling convention, the way the teacher's
// arm package declares functions "defined in *.s" throughout (see
// arm/irq.go, arm/cache.go, arm/mmu.go).
package cpu

// defined in asm_arm.s
func setPSP(sp uint32)
func getPSP() uint32
func getMSP() uint32
func useProcessStack()
func useMainStack()
func dropPrivilege()
func saveContext(sp uint32) uint32
func restoreContext(sp uint32)
func launchTask(entry uint32, sp uint32)
func enableInterrupts()
func disableInterrupts()
func pendContextSwitch()
func requestReset()

// CPU wraps the low-level register and mode operations the kernel's
// context-switch path needs. It carries no state of its own; every
// method is a thin, panic-free call into the assembly stubs.
type CPU struct{}

// SetPSP loads the Process Stack Pointer with sp.
func (CPU) SetPSP(sp uint32) { setPSP(sp) }

// PSP returns the current Process Stack Pointer.
func (CPU) PSP() uint32 { return getPSP() }

// MSP returns the current Main Stack Pointer.
func (CPU) MSP() uint32 { return getMSP() }

// UseProcessStack switches SP to alias PSP (thread-mode tasks run on
// their own process stack, never the kernel's main stack).
func (CPU) UseProcessStack() { useProcessStack() }

// UseMainStack switches SP to alias MSP.
func (CPU) UseMainStack() { useMainStack() }

// DropPrivilege sets the CONTROL register's nPRIV bit, so that
// thread-mode code following this call runs unprivileged. There is no
// way back from unprivileged thread mode other than an exception entry,
// by design (spec: no nested privilege escalation).
func (CPU) DropPrivilege() { dropPrivilege() }

// SaveContext pushes the callee-saved register block (r4-r11) onto the
// stack pointed to by sp; the caller-saved set is already stacked by the
// CPU itself on exception entry. It returns the stack pointer after the
// push, which is the value that must be recorded as the task's saved SP
// so RestoreContext can unwind the same two frames in the same order.
func (CPU) SaveContext(sp uint32) uint32 { return saveContext(sp) }

// RestoreContext is the inverse of SaveContext: it pops the callee-saved
// block from sp and sets PSP to the address just past it, so exception
// return resumes the task with its caller-saved registers restored by
// hardware.
func (CPU) RestoreContext(sp uint32) { restoreContext(sp) }

// LaunchTask bypasses the normal exception-return frame to start a task
// that has never run: it sets PSP to sp and branches to entry in
// unprivileged thread mode, analogous to startRtos's setPcTmpl call in
// the original source.
func (CPU) LaunchTask(entry uint32, sp uint32) { launchTask(entry, sp) }

// EnableInterrupts unmasks IRQ and the SysTick/PendSV/SVCall exceptions.
func (CPU) EnableInterrupts() { enableInterrupts() }

// DisableInterrupts masks them.
func (CPU) DisableInterrupts() { disableInterrupts() }

// PendContextSwitch sets PendSV pending, deferring the actual switch to
// the lowest exception priority so it never preempts another handler.
func (CPU) PendContextSwitch() { pendContextSwitch() }

// RequestReset triggers a system reset via the AIRCR register.
func (CPU) RequestReset() { requestReset() }
