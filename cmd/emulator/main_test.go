// main_test.go - Tests for the emulator CLI's save-file load path

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/intuitionamiga/ds-core/internal/save"
)

func TestLoadOrCreateSaveCreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.sav")

	sf, err := loadOrCreateSave(path)
	if err != nil {
		t.Fatalf("loadOrCreateSave failed: %v", err)
	}
	if sf.Dirty() {
		t.Fatal("a freshly created save file should not start dirty")
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected save file to exist on disk: %v", err)
	}
}

func TestLoadOrCreateSaveReloadsExistingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.sav")

	first, err := save.Create(path, save.Type{Kind: save.EEPROM, Size: 8 * 1024})
	if err != nil {
		t.Fatalf("save.Create failed: %v", err)
	}
	first.WriteByte(3, 0x5A)
	if err := first.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	reloaded, err := loadOrCreateSave(path)
	if err != nil {
		t.Fatalf("loadOrCreateSave failed: %v", err)
	}
	if got := reloaded.ReadByte(3); got != 0x5A {
		t.Fatalf("ReadByte(3) = 0x%X, want 0x5A", got)
	}
}
