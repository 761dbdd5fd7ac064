// key2.go - KEY2 LFSR stream cipher
//
// License: GPLv3 or later

// Package key2 implements the KEY2 stream cipher layered over KEY1
// cartridge transfers (spec §4.5 supplement), grounded on
// original_source/dscrypto/src/lib.rs's key_2_encrypt.
package key2

// mask39 keeps the 39-bit LFSR state within its defined width.
const mask39 = 0x7F_FFFF_FFFF

// State holds the two 39-bit LFSR registers that drive the stream.
type State struct {
	X, Y uint64
}

// NewState seeds a State from the two initial LFSR values.
func NewState(x, y uint64) State {
	return State{X: x & mask39, Y: y & mask39}
}

// Encrypt advances both LFSRs by one step and XORs their low output
// bytes into data, returning the transformed byte and the advanced
// state. Calling Encrypt again with the same state and the
// previously returned byte recovers the original data, since XOR is
// its own inverse (spec §4.5).
func (s State) Encrypt(data uint8) (uint8, State) {
	xLo := uint8(((s.X >> 5) ^ (s.X >> 17) ^ (s.X >> 18) ^ (s.X >> 31)) & 0xFF)
	xOut := ((s.X << 8) | uint64(xLo)) & mask39

	yLo := uint8(((s.Y >> 5) ^ (s.Y >> 23) ^ (s.Y >> 18) ^ (s.Y >> 31)) & 0xFF)
	yOut := ((s.Y << 8) | uint64(yLo)) & mask39

	out := data ^ xLo ^ yLo
	return out, State{X: xOut, Y: yOut}
}
