// key1.go - KEY1 Blowfish-derived block cipher
//
// License: GPLv3 or later

// Package key1 implements the Blowfish-derived KEY1 block cipher
// used to scramble cartridge command/firmware traffic (spec §4.5),
// grounded on original_source/dscrypto/src/key1.rs (itself mirrored
// by original_source/spa/src/ds/card/crypto.rs).
//
// The key table is proprietary console data; it is never embedded
// here. Callers load it (typically from a BIOS image) and pass it in.
package key1

import "fmt"

// TableWords is the size, in 32-bit words, of a well-formed key
// table: 18 P-box entries followed by four 256-entry S-boxes.
const TableWords = 0x412

// decryptOffsets walks the P-box in reverse, entries 0x11 down to 0x2,
// mirroring the 16-round Feistel network run in reverse for decrypt.
var decryptOffsets = [16]int{
	0x11, 0x10, 0xF, 0xE, 0xD, 0xC, 0xB, 0xA,
	0x9, 0x8, 0x7, 0x6, 0x5, 0x4, 0x3, 0x2,
}

// checkTable reports an error if buf is not a well-formed key table.
func checkTable(buf []uint32) error {
	if len(buf) < TableWords {
		return fmt.Errorf("key1: table has %d words, want at least %d", len(buf), TableWords)
	}
	return nil
}

// round runs one Feistel round of the KEY1 network: four S-box
// lookups keyed by successive bytes of z, folded with add/xor, then
// mixed into y from the previous round.
func round(buf []uint32, pIndex int, x, y uint32) (newX, newZ uint32) {
	z := buf[pIndex] ^ x
	x = buf[0x12+int((z>>24)&0xFF)]
	x = buf[0x112+int((z>>16)&0xFF)] + x
	x = buf[0x212+int((z>>8)&0xFF)] ^ x
	x = buf[0x312+int(z&0xFF)] + x
	return y ^ x, z
}

// Decrypt reverses Encrypt over one 64-bit block, given a table
// produced by Init (or the raw table for level-0 traffic).
func Decrypt(block uint64, buf []uint32) uint64 {
	y := uint32(block)
	x := uint32(block >> 32)
	for _, i := range decryptOffsets {
		x, y = round(buf, i, x, y)
	}
	x ^= buf[1]
	y ^= buf[0]
	return uint64(y)<<32 | uint64(x)
}

// Encrypt scrambles one 64-bit block through the 16-round KEY1 network.
func Encrypt(block uint64, buf []uint32) uint64 {
	y := uint32(block)
	x := uint32(block >> 32)
	for i := 0; i < 0x10; i++ {
		x, y = round(buf, i, x, y)
	}
	x ^= buf[0x10]
	y ^= buf[0x11]
	return uint64(y)<<32 | uint64(x)
}

// Apply mixes keyCode into buf and runs the waterfall self-encryption
// pass, producing a fresh table of the same length as buf. keyCode is mutated
// in place so a caller can repeat the process for subsequent levels
// (spec §4.5). modulo must be 1, 2 or 3.
func Apply(keyCode *[3]uint32, buf []uint32, modulo int) ([]uint32, error) {
	if err := checkTable(buf); err != nil {
		return nil, err
	}
	if modulo < 1 || modulo > 3 {
		return nil, fmt.Errorf("key1: modulo must be 1-3, got %d", modulo)
	}

	codeHi := Encrypt(uint64(keyCode[2])<<32|uint64(keyCode[1]), buf)
	codeLo := Encrypt(uint64(uint32(codeHi))<<32|uint64(keyCode[0]), buf)
	keyCode[2] = uint32(codeHi >> 32)
	keyCode[1] = uint32(codeLo >> 32)
	keyCode[0] = uint32(codeLo)

	out := make([]uint32, len(buf))
	copy(out, buf)
	for i := 0; i < 0x12; i++ {
		out[i] ^= swapBytes(keyCode[i%modulo])
	}

	var scratch uint64
	for i := 0; i < 0x209; i++ {
		scratch = Encrypt(scratch, out)
		out[i*2] = uint32(scratch >> 32)
		out[i*2+1] = uint32(scratch)
	}
	return out, nil
}

func swapBytes(v uint32) uint32 {
	return v>>24 | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | v<<24
}

// Init derives a level-N key table from idCode, per spec §4.5: level
// 1 returns the first Apply pass; level 2 applies twice; level 3
// perturbs keyCode between the second and third pass (key_code[1]
// doubled, key_code[2] halved) before a third Apply. level must be
// 1, 2 or 3.
func Init(idCode uint32, buf []uint32, modulo, level int) ([]uint32, error) {
	if level < 1 || level > 3 {
		return nil, fmt.Errorf("key1: level must be 1-3, got %d", level)
	}
	keyCode := [3]uint32{idCode, idCode / 2, idCode * 2}

	level1, err := Apply(&keyCode, buf, modulo)
	if err != nil {
		return nil, err
	}
	if level == 1 {
		return level1, nil
	}

	level2, err := Apply(&keyCode, level1, modulo)
	if err != nil {
		return nil, err
	}
	if level == 2 {
		return level2, nil
	}

	keyCode[1] *= 2
	keyCode[2] /= 2
	return Apply(&keyCode, level2, modulo)
}
