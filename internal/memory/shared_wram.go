// shared_wram.go - Bank-switched shared working RAM
//
// License: GPLv3 or later

package memory

import (
	"sync"
	"sync/atomic"
)

const wramBankSize = 16 * 1024
const wramBankMask = wramBankSize - 1

// SharedWRAM is the console's bank-switched 16KiB+16KiB shared
// working RAM. Primary owns the bank-control register and publishes
// it with release ordering; Companion observes it with acquire
// ordering, per spec §4.2 invariant 4 and
// original_source/spa/src/ds/memory/shared.rs.
type SharedWRAM struct {
	loBank *guardedBank
	hiBank *guardedBank

	bankControl uint8 // primary's authoritative local copy
	bankStatus  atomic.Uint32
}

// guardedBank is a 16KiB bank guarded by its own mutex, matching the
// teacher-adjacent pattern of per-unit locking used across this
// package (see bank in vram.go).
type guardedBank struct {
	mu   sync.Mutex
	data []byte
}

func newGuardedBank() *guardedBank {
	return &guardedBank{data: make([]byte, wramBankSize)}
}

func (b *guardedBank) readByte(addr uint32) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data[addr&wramBankMask]
}

func (b *guardedBank) writeByte(addr uint32, v uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[addr&wramBankMask] = v
}

// NewSharedWRAM constructs the shared WRAM unit. Bank-control starts
// at 3, mapping both banks into the Companion's combined view and
// nothing into Primary's (matching the real console's reset state,
// mirrored from ARM9SharedRAM::new's AtomicU8::new(3)).
func NewSharedWRAM() *SharedWRAM {
	w := &SharedWRAM{
		loBank:      newGuardedBank(),
		hiBank:      newGuardedBank(),
		bankControl: 3,
	}
	w.bankStatus.Store(3)
	return w
}

// SetBankControl is called from the Primary side: it updates both
// the local authoritative copy and the shared status word (release
// ordering, so Companion never observes a half-updated value).
func (w *SharedWRAM) SetBankControl(data uint8) {
	w.bankControl = data
	w.bankStatus.Store(uint32(data))
}

// BankControl returns Primary's local view of the control register.
func (w *SharedWRAM) BankControl() uint8 { return w.bankControl }

// BankStatus returns Companion's acquire-ordered view of the shared
// control word.
func (w *SharedWRAM) BankStatus() uint8 { return uint8(w.bankStatus.Load()) }

func (w *SharedWRAM) primaryBank(addr uint32) *guardedBank {
	switch w.bankControl {
	case 0:
		if addr&(1<<14) != 0 {
			return w.hiBank
		}
		return w.loBank
	case 1:
		return w.hiBank
	case 2:
		return w.loBank
	default:
		return nil // unmapped
	}
}

func (w *SharedWRAM) companionBank(addr uint32) *guardedBank {
	switch w.bankStatus.Load() {
	case 1:
		return w.loBank
	case 2:
		return w.hiBank
	case 3:
		if addr&(1<<14) != 0 {
			return w.hiBank
		}
		return w.loBank
	default:
		return nil // unmapped
	}
}

// PrimaryReadByte reads via Primary's routing. An unmapped access
// reads as 0 (spec §7).
func (w *SharedWRAM) PrimaryReadByte(addr uint32) uint8 {
	if b := w.primaryBank(addr); b != nil {
		return b.readByte(addr)
	}
	return 0
}

// PrimaryWriteByte writes via Primary's routing. An unmapped access
// is silently dropped.
func (w *SharedWRAM) PrimaryWriteByte(addr uint32, v uint8) {
	if b := w.primaryBank(addr); b != nil {
		b.writeByte(addr, v)
	}
}

// CompanionReadByte reads via Companion's routing.
func (w *SharedWRAM) CompanionReadByte(addr uint32) uint8 {
	if b := w.companionBank(addr); b != nil {
		return b.readByte(addr)
	}
	return 0
}

// CompanionWriteByte writes via Companion's routing.
func (w *SharedWRAM) CompanionWriteByte(addr uint32, v uint8) {
	if b := w.companionBank(addr); b != nil {
		b.writeByte(addr, v)
	}
}
