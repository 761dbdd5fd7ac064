// ipc.go - Cross-CPU sync register and FIFO pair
//
// License: GPLv3 or later

// Package ipc implements the two cross-CPU synchronization
// primitives of spec §4.3: the 4-bit sync-register nibble exchange
// and the bounded 16-slot FIFO pair, both with edge-triggered
// interrupt semantics. Grounded on the IPC struct of
// original_source/spa/src/ds/ipc.rs, translated from crossbeam
// channels + Arc<Atomic*> into Go channels + atomic.* values.
package ipc

import (
	"sync/atomic"

	"github.com/intuitionamiga/ds-core/internal/interrupt"
)

const fifoCapacity = 16

// Endpoint is one side's view of the IPC unit. Two Endpoints created
// by NewPair share the underlying channels and atomics and form one
// logical IPC unit, mirroring the teacher's paired-handle ownership
// model (spec §9, "A and B jointly own this").
type Endpoint struct {
	name string

	sendCh   chan uint32 // this side pushes here
	recvCh   chan uint32 // this side pops here (peer's sendCh)
	lastRead uint32

	// Sync register state.
	localNibble *atomic.Uint32 // this side's send nibble, published
	peerNibble  *atomic.Uint32 // peer's send nibble, observed as recv
	irqEnable   bool
	remoteLatch *atomic.Bool // set by peer, cleared by this side on observe
	peerLatch   *atomic.Bool // this side sets the peer's latch

	// FIFO control state.
	enable            bool
	errorFlag         bool
	irqOnSendEmpty    bool
	irqOnRecvNonEmpty bool
	wasSendEmpty      bool
	wasRecvEmpty      bool
}

// NewPair constructs the two mirrored endpoints of one IPC unit, one
// for the primary CPU and one for the companion.
func NewPair() (primary, companion *Endpoint) {
	aToB := make(chan uint32, fifoCapacity)
	bToA := make(chan uint32, fifoCapacity)
	nibbleA := &atomic.Uint32{}
	nibbleB := &atomic.Uint32{}
	latchA := &atomic.Bool{}
	latchB := &atomic.Bool{}

	primary = &Endpoint{
		name: "primary", sendCh: aToB, recvCh: bToA,
		localNibble: nibbleA, peerNibble: nibbleB,
		remoteLatch: latchA, peerLatch: latchB,
		wasSendEmpty: true, wasRecvEmpty: true,
	}
	companion = &Endpoint{
		name: "companion", sendCh: bToA, recvCh: aToB,
		localNibble: nibbleB, peerNibble: nibbleA,
		remoteLatch: latchB, peerLatch: latchA,
		wasSendEmpty: true, wasRecvEmpty: true,
	}
	return primary, companion
}

// ReadSync reads the sync register: low nibble = recv (peer's
// published send nibble), middle nibble = local send nibble, bit 14
// reflects local irq-enable (spec §4.3, §3).
func (e *Endpoint) ReadSync() uint32 {
	out := e.peerNibble.Load() & 0xF
	out |= (e.localNibble.Load() & 0xF) << 8
	if e.irqEnable {
		out |= 1 << 14
	}
	return out
}

// WriteSync writes the sync register: bits [11:8] replace the local
// send nibble; bit 13 requests a cross-CPU interrupt on the peer;
// bit 14 sets local irq-enable (spec §4.3).
func (e *Endpoint) WriteSync(data uint32) {
	e.localNibble.Store((data >> 8) & 0xF)
	if data&(1<<13) != 0 {
		e.peerLatch.Store(true)
	}
	e.irqEnable = data&(1<<14) != 0
}

// FIFO control register bits, matching the hardware layout used by
// original_source/spa/src/ds/ipc.rs (IPCFifoControl).
const (
	ctrlSendEmpty     = 1 << 0
	ctrlSendFull      = 1 << 1
	ctrlSendIRQ       = 1 << 2
	ctrlSendFlush     = 1 << 3
	ctrlRecvEmpty     = 1 << 8
	ctrlRecvFull      = 1 << 9
	ctrlRecvIRQ       = 1 << 10
	ctrlError     = 1 << 14
	ctrlEnable    = 1 << 15
	ctrlWriteMask = ctrlSendIRQ | ctrlRecvIRQ | ctrlEnable
)

// ReadControl reads the FIFO control/status register.
func (e *Endpoint) ReadControl() uint32 {
	var v uint32
	if len(e.sendCh) == 0 {
		v |= ctrlSendEmpty
	}
	if len(e.sendCh) == fifoCapacity {
		v |= ctrlSendFull
	}
	if len(e.recvCh) == 0 {
		v |= ctrlRecvEmpty
	}
	if len(e.recvCh) == fifoCapacity {
		v |= ctrlRecvFull
	}
	if e.irqOnSendEmpty {
		v |= ctrlSendIRQ
	}
	if e.irqOnRecvNonEmpty {
		v |= ctrlRecvIRQ
	}
	if e.errorFlag {
		v |= ctrlError
	}
	if e.enable {
		v |= ctrlEnable
	}
	return v
}

// WriteControl writes the FIFO control register: clears ERROR when
// requested, flushes the local send queue when requested, and
// updates the writable control bits (spec §4.3).
func (e *Endpoint) WriteControl(data uint32) {
	if data&ctrlError != 0 {
		e.errorFlag = false
	}
	if data&ctrlSendFlush != 0 {
		e.Flush()
	}
	e.enable = data&ctrlEnable != 0
	e.irqOnSendEmpty = data&ctrlSendIRQ != 0
	e.irqOnRecvNonEmpty = data&ctrlRecvIRQ != 0
}

// Push enqueues v on the local send queue. If FIFO-enable is clear
// the push is silently dropped; if the queue is full, ERROR is set
// and the value is dropped (spec §4.3).
func (e *Endpoint) Push(v uint32) {
	if !e.enable {
		return
	}
	select {
	case e.sendCh <- v:
	default:
		e.errorFlag = true
	}
}

// Pop dequeues the next word from the peer's send queue. If
// FIFO-enable is clear, returns the stale last-read latch. On
// underflow, sets ERROR and also returns the stale latch (spec §4.3).
func (e *Endpoint) Pop() uint32 {
	if !e.enable {
		return e.lastRead
	}
	select {
	case v := <-e.recvCh:
		e.lastRead = v
		return v
	default:
		e.errorFlag = true
		return e.lastRead
	}
}

// Flush clears the local send queue (a dedicated control bit, spec §4.3).
func (e *Endpoint) Flush() {
	for {
		select {
		case <-e.sendCh:
		default:
			return
		}
	}
}

// Error reports the sticky ERROR flag.
func (e *Endpoint) Error() bool { return e.errorFlag }

// ClearError clears ERROR explicitly (spec §4.3: "sticky until a
// write explicitly clears it").
func (e *Endpoint) ClearError() { e.errorFlag = false }

// PollInterrupts evaluates the edge-triggered interrupt rules of
// spec §4.3 and returns the sources that should be latched into this
// side's interrupt controller as a result of this poll. Must be
// called once per polling interval to track empty/non-empty edges
// correctly.
func (e *Endpoint) PollInterrupts() interrupt.Source {
	var raised interrupt.Source

	if e.irqOnSendEmpty {
		isEmpty := len(e.sendCh) == 0
		if isEmpty && !e.wasSendEmpty {
			raised |= interrupt.IPCSendEmpty
		}
		e.wasSendEmpty = isEmpty
	}
	if e.irqOnRecvNonEmpty {
		isEmpty := len(e.recvCh) == 0
		if !isEmpty && e.wasRecvEmpty {
			raised |= interrupt.IPCRecvNonEmpty
		}
		e.wasRecvEmpty = isEmpty
	}
	if e.irqEnable && e.remoteLatch.CompareAndSwap(true, false) {
		raised |= interrupt.IPCSync
	}
	return raised
}
