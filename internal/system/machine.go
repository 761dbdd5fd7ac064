// machine.go - Dual-CPU machine assembly and lifecycle
//
// License: GPLv3 or later

// Package system assembles the bus, memory fabric, IPC unit and
// interrupt controllers into a running two-CPU machine, launching one
// goroutine per CPU the way the teacher's coprocessor workers do
// (grounded on coproc_worker_m68k.go's construct-against-shared-bus,
// goroutine-plus-stop-closure pattern) and joining them with
// golang.org/x/sync/errgroup the way a multi-worker pipeline would.
package system

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/intuitionamiga/ds-core/internal/bus"
	"github.com/intuitionamiga/ds-core/internal/interrupt"
	"github.com/intuitionamiga/ds-core/internal/ipc"
	"github.com/intuitionamiga/ds-core/internal/memory"
)

// Config selects the memory sizes and polling cadence of a Machine.
type Config struct {
	MainRAMSize  int
	PollInterval time.Duration
}

// DefaultConfig returns the sizes used by the reference console: 4
// MiB of main RAM, polled every millisecond of wall-clock time.
func DefaultConfig() Config {
	return Config{
		MainRAMSize:  4 * 1024 * 1024,
		PollInterval: time.Millisecond,
	}
}

// DecodeBugKind tags the specific invariant a decode-time failure
// violated, so callers can branch on failure class without parsing
// error strings (spec §7 error-handling component).
type DecodeBugKind int

const (
	BugUnknown DecodeBugKind = iota
	BugMalformedHeader
	BugShortKeyTable
	BugBadConfig
)

// DecodeBug is the tagged error kind returned by Machine construction
// (New); the cartridge and firmware packages report their own errors
// with fmt.Errorf and do not return it.
type DecodeBug struct {
	Kind DecodeBugKind
	Msg  string
}

func (e *DecodeBug) Error() string { return fmt.Sprintf("system: %s", e.Msg) }

func newDecodeBug(kind DecodeBugKind, format string, args ...any) *DecodeBug {
	return &DecodeBug{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// CPU names one of the two processors sharing the machine.
type CPU int

const (
	Primary CPU = iota // the ARM9-equivalent CPU
	Companion
)

// Machine owns the shared fabric and both CPUs' private routers, and
// coordinates their goroutines.
type Machine struct {
	cfg Config

	MainRAM    *memory.MainRAM
	SharedWRAM *memory.SharedWRAM
	VRAM       *memory.VRAM

	PrimaryBus   *bus.Router
	CompanionBus *bus.Router
	PrimaryIPC   *ipc.Endpoint
	CompanionIPC *ipc.Endpoint
	PrimaryIRQ   *interrupt.Controller
	CompanionIRQ *interrupt.Controller
}

// New builds a Machine from cfg. A zero or negative PollInterval is a
// configuration bug, not a runtime condition, so it is rejected here
// rather than silently defaulted.
func New(cfg Config) (*Machine, error) {
	if cfg.PollInterval <= 0 {
		return nil, newDecodeBug(BugBadConfig, "poll interval must be positive, got %s", cfg.PollInterval)
	}
	if cfg.MainRAMSize <= 0 {
		return nil, newDecodeBug(BugBadConfig, "main RAM size must be positive, got %d", cfg.MainRAMSize)
	}

	primaryIPC, companionIPC := ipc.NewPair()

	m := &Machine{
		cfg:          cfg,
		MainRAM:      memory.NewMainRAM(cfg.MainRAMSize),
		SharedWRAM:   memory.NewSharedWRAM(),
		VRAM:         memory.NewVRAM(),
		PrimaryBus:   bus.NewRouter(),
		CompanionBus: bus.NewRouter(),
		PrimaryIPC:   primaryIPC,
		CompanionIPC: companionIPC,
		PrimaryIRQ:   interrupt.New(),
		CompanionIRQ: interrupt.New(),
	}
	m.PrimaryBus.Map(bus.Region{
		Lo: 0, Hi: uint32(cfg.MainRAMSize), Name: "main-ram",
		Endpoint: bus.Compose8(mainRAMDevice{m.MainRAM}),
	})
	m.CompanionBus.Map(bus.Region{
		Lo: 0, Hi: uint32(cfg.MainRAMSize), Name: "main-ram",
		Endpoint: bus.Compose8(mainRAMDevice{m.MainRAM}),
	})
	return m, nil
}

// mainRAMDevice adapts *memory.MainRAM to bus.ByteDevice.
type mainRAMDevice struct{ ram *memory.MainRAM }

func (d mainRAMDevice) ReadByte(addr uint32) uint8     { return d.ram.ReadByte(addr) }
func (d mainRAMDevice) WriteByte(addr uint32, v uint8) { d.ram.WriteByte(addr, v) }

// Run launches one goroutine per CPU, each polling its IPC endpoint
// for edge-triggered interrupts at cfg.PollInterval, plus a
// frame-coordinator goroutine that raises VBlank, until ctx is
// cancelled. It returns
// the first error (if any) reported by any goroutine, following the
// teacher's stop-closure/done-channel worker shape generalized onto
// errgroup.Group for joint lifecycle management.
func (m *Machine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return m.pollLoop(ctx, m.PrimaryIPC, m.PrimaryIRQ) })
	g.Go(func() error { return m.pollLoop(ctx, m.CompanionIPC, m.CompanionIRQ) })
	g.Go(func() error { return m.frameCoordinator(ctx) })

	return g.Wait()
}

func (m *Machine) pollLoop(ctx context.Context, ep *ipc.Endpoint, irq *interrupt.Controller) error {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if raised := ep.PollInterrupts(); raised != 0 {
				irq.Request(raised)
			}
		}
	}
}

// frameCoordinator raises VBlank on both CPUs once per simulated
// 1/60s video frame, the one piece of video-timing behavior this
// machine models without a full video pipeline (spec §9 non-goal:
// no rasterizer, but VBlank timing is part of the interrupt fabric).
func (m *Machine) frameCoordinator(ctx context.Context) error {
	const frameInterval = time.Second / 60
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.PrimaryIRQ.Request(interrupt.VBlank)
			m.CompanionIRQ.Request(interrupt.VBlank)
		}
	}
}
