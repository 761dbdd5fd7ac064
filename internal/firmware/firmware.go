// firmware.go - Console firmware image codec
//
// License: GPLv3 or later

// Package firmware implements the 256KiB console firmware file
// codec: the first 0x200 bytes pass through untouched, and the
// remainder is KEY1-ciphered in 8-byte blocks under a level-2,
// modulo-3 key table (spec §4.5 supplement), grounded on
// original_source/cartalyse/src/main.rs's encrypt_firmware /
// decrypt_firmware.
package firmware

import (
	"encoding/binary"
	"fmt"

	"github.com/intuitionamiga/ds-core/internal/key1"
)

// Size is the fixed length of a firmware image.
const Size = 256 * 1024

// HeaderSize is the number of leading bytes that are never ciphered.
const HeaderSize = 0x200

// idCodeOffset is where the 4-byte console id code lives, used as
// the KEY1 seed for the firmware's secure-area cipher.
const idCodeOffset = 0x8

const (
	keyLevel  = 2
	keyModulo = 3
)

// IDCode reads the 4-byte id code embedded in a firmware image.
func IDCode(data []byte) (uint32, error) {
	if len(data) < idCodeOffset+4 {
		return 0, fmt.Errorf("firmware: image too short to contain an id code")
	}
	return binary.LittleEndian.Uint32(data[idCodeOffset : idCodeOffset+4]), nil
}

// deriveKey builds the level-2/modulo-3 KEY1 table for data's id code.
func deriveKey(data, rootKey []byte) ([]uint32, error) {
	idCode, err := IDCode(data)
	if err != nil {
		return nil, err
	}
	table, err := wordsFromBytes(rootKey)
	if err != nil {
		return nil, err
	}
	return key1.Init(idCode, table, keyModulo, keyLevel)
}

func wordsFromBytes(raw []byte) ([]uint32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("firmware: root key length %d is not a multiple of 4", len(raw))
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return words, nil
}

// Encrypt returns a new image built from a plaintext firmware image,
// copying the leading HeaderSize bytes unchanged and KEY1-encrypting
// the rest in 8-byte blocks; data itself is not modified.
func Encrypt(data, rootKey []byte) ([]byte, error) {
	return transform(data, rootKey, key1.Encrypt)
}

// Decrypt reverses Encrypt.
func Decrypt(data, rootKey []byte) ([]byte, error) {
	return transform(data, rootKey, key1.Decrypt)
}

func transform(data, rootKey []byte, op func(uint64, []uint32) uint64) ([]byte, error) {
	if len(data) != Size {
		return nil, fmt.Errorf("firmware: expected a %d byte image, got %d", Size, len(data))
	}
	key, err := deriveKey(data, rootKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, Size)
	out = append(out, data[:HeaderSize]...)

	body := data[HeaderSize:]
	for i := 0; i < len(body); i += 8 {
		block := binary.LittleEndian.Uint64(body[i : i+8])
		result := op(block, key)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], result)
		out = append(out, buf[:]...)
	}
	return out, nil
}
