// main.go - cryptotool CLI: inspect and (de)cipher DS firmware/ROM images
//
// License: GPLv3 or later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/intuitionamiga/ds-core/internal/cart"
	"github.com/intuitionamiga/ds-core/internal/firmware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cryptotool",
		Short: "Inspect and (de)cipher DS firmware and cartridge images",
	}

	var headerPath string
	var encryptPath string
	var decryptPath string
	var output string
	var verbose bool

	cmd := func(use, short string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
		}
	}

	romCmd := cmd("rom", "Operate on a cartridge ROM image")
	romCmd.RunE = func(c *cobra.Command, args []string) error {
		if headerPath != "" {
			return romHeaderInfo(headerPath)
		}
		return fmt.Errorf("rom: only --header is currently supported")
	}

	firmwareCmd := cmd("firmware", "Operate on a console firmware image")
	firmwareCmd.RunE = func(c *cobra.Command, args []string) error {
		switch {
		case headerPath != "":
			return fmt.Errorf("firmware: --header is not yet implemented")
		case encryptPath != "":
			if output == "" {
				return fmt.Errorf("specify --output")
			}
			return encryptFirmware(encryptPath, output, verbose)
		case decryptPath != "":
			if output == "" {
				return fmt.Errorf("specify --output")
			}
			return decryptFirmware(decryptPath, output, verbose)
		default:
			return fmt.Errorf("specify --header, --encrypt or --decrypt")
		}
	}

	for _, c := range []*cobra.Command{romCmd, firmwareCmd} {
		c.Flags().StringVar(&headerPath, "header", "", "print header info for this file")
		c.Flags().StringVar(&encryptPath, "encrypt", "", "encrypt this file")
		c.Flags().StringVar(&decryptPath, "decrypt", "", "decrypt this file")
		c.Flags().StringVar(&output, "output", "", "output file location for crypto operations")
		c.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	}

	rootCmd.AddCommand(romCmd, firmwareCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func romHeaderInfo(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("couldn't open ROM: %w", err)
	}
	if len(data) < 0x200 {
		return fmt.Errorf("ROM too short to contain a header")
	}
	h, err := cart.Parse(data[:0x200])
	if err != nil {
		return err
	}
	fmt.Printf("Name: %s\n", h.GameName())
	fmt.Printf("ARM9 Entry:        $%08X\n", h.ARM9EntryAddr())
	fmt.Printf("ARM9 ROM:          $%08X\n", h.ARM9RomOffset())
	fmt.Printf("ARM9 RAM:          $%08X\n", h.ARM9RAMAddr())
	fmt.Printf("ARM9 Program Size: $%08X\n", h.ARM9Size())
	fmt.Printf("ARM7 Entry:        $%08X\n", h.ARM7EntryAddr())
	fmt.Printf("ARM7 ROM:          $%08X\n", h.ARM7RomOffset())
	fmt.Printf("ARM7 RAM:          $%08X\n", h.ARM7RAMAddr())
	fmt.Printf("ARM7 Program Size: $%08X\n", h.ARM7Size())
	return nil
}

// rootKeyEnvVar names the environment variable that holds the path of
// the proprietary root key table; cryptotool never embeds the table (spec §4.5: the key table is
// console-specific data, never shipped in this repository).
const rootKeyEnvVar = "DS_CORE_ROOT_KEY"

func loadRootKey() ([]byte, error) {
	path := os.Getenv(rootKeyEnvVar)
	if path == "" {
		return nil, fmt.Errorf("set %s to the path of a root key table (0x412 little-endian words)", rootKeyEnvVar)
	}
	return os.ReadFile(path)
}

func encryptFirmware(path, outPath string, verbose bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("couldn't open firmware: %w", err)
	}
	if len(data) != firmware.Size {
		return fmt.Errorf("expected firmware to be %d bytes, was %d", firmware.Size, len(data))
	}
	rootKey, err := loadRootKey()
	if err != nil {
		return err
	}
	if verbose {
		idCode, _ := firmware.IDCode(data)
		fmt.Printf("ID Code: $%X\n", idCode)
	}

	out, err := firmware.Encrypt(data, rootKey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("couldn't write to output file: %w", err)
	}
	if verbose {
		fmt.Printf("Encrypted %d bytes to %s\n", len(out), outPath)
	}
	return nil
}

func decryptFirmware(path, outPath string, verbose bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("couldn't open firmware: %w", err)
	}
	if len(data) != firmware.Size {
		return fmt.Errorf("expected firmware to be %d bytes, was %d", firmware.Size, len(data))
	}
	rootKey, err := loadRootKey()
	if err != nil {
		return err
	}
	if verbose {
		idCode, _ := firmware.IDCode(data)
		fmt.Printf("ID Code: $%X\n", idCode)
	}

	out, err := firmware.Decrypt(data, rootKey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("couldn't write to output file: %w", err)
	}
	if verbose {
		fmt.Printf("Decrypted %d bytes to %s\n", len(out), outPath)
	}
	return nil
}
