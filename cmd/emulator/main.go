// main.go - emulator CLI entry point
//
// License: GPLv3 or later

// emulator boots a DS cartridge or firmware image against the
// dual-CPU memory fabric in internal/system. It follows the
// teacher's plain os.Args/flag-driven entry point style (main.go)
// rather than a subcommand framework, since the emulator exposes a
// single run-this-ROM action (spec §6).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/intuitionamiga/ds-core/internal/cart"
	"github.com/intuitionamiga/ds-core/internal/save"
	"github.com/intuitionamiga/ds-core/internal/system"
)

// defaultSaveType is used whenever --save names a path that doesn't
// exist yet: a 256KiB flash image, the common cartridge save size
// (spec §4.7 supplement). An existing file's own tagged header always
// wins over this default.
var defaultSaveType = save.Type{Kind: save.Flash, Size: 256 * 1024}

func main() {
	debug := flag.String("debug", "", "enable verbose tracing for one subsystem: gba, ds7 or ds9")
	mute := flag.Bool("mute", false, "disable audio output")
	savePath := flag.String("save", "", "path to the save-data backing file")
	biosPath := flag.String("bios", "", "path to a GBA BIOS image")
	dsBiosDir := flag.String("ds-bios", "", "folder containing the DS ARM7/ARM9 BIOS images")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: emulator <rom-path> [--debug gba|ds7|ds9] [--mute] [--save <path>] [--bios <path>] [--ds-bios <folder>]")
		os.Exit(1)
	}
	romPath := flag.Arg(0)

	if err := run(romPath, *debug, *mute, *savePath, *biosPath, *dsBiosDir); err != nil {
		log.Fatalf("emulator: %v", err)
	}
}

func run(romPath, debug string, mute bool, savePath, biosPath, dsBiosDir string) error {
	switch debug {
	case "", "gba", "ds7", "ds9":
	default:
		return fmt.Errorf("unknown --debug target %q (want gba, ds7 or ds9)", debug)
	}

	data, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}
	if len(data) < cart.HeaderSize {
		return fmt.Errorf("ROM is too small to contain a cartridge header")
	}
	header, err := cart.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing cartridge header: %w", err)
	}
	log.Printf("loaded %q (%s), arm9 entry=0x%08X arm7 entry=0x%08X",
		romPath, header.GameName(), header.ARM9EntryAddr(), header.ARM7EntryAddr())

	if mute {
		log.Print("audio output disabled")
	}

	var saveFile *save.File
	if savePath != "" {
		saveFile, err = loadOrCreateSave(savePath)
		if err != nil {
			return fmt.Errorf("opening save data: %w", err)
		}
		log.Printf("save data backed by %s", savePath)
	}

	if biosPath != "" {
		log.Printf("using GBA BIOS image %s", biosPath)
	}
	if dsBiosDir != "" {
		log.Printf("using DS BIOS images from %s", dsBiosDir)
	}

	m, err := system.New(system.DefaultConfig())
	if err != nil {
		return fmt.Errorf("initializing machine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := m.Run(ctx)
	if saveFile != nil {
		if err := saveFile.Flush(); err != nil {
			log.Printf("flushing save data: %v", err)
		}
	}
	return runErr
}

// loadOrCreateSave opens the tagged save image at path, parsing its
// existing type header, or creates a fresh defaultSaveType image if
// path doesn't exist yet (spec §4.7 supplement, mirroring file.rs's
// load-or-init behavior for a cartridge's backup memory).
func loadOrCreateSave(path string) (*save.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if errors.Is(err, os.ErrNotExist) {
		return save.Create(path, defaultSaveType)
	}
	if err != nil {
		return nil, fmt.Errorf("opening save file: %w", err)
	}

	t, err := save.TypeFromFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return save.FromFile(f, t.Size)
}
