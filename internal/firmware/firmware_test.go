package firmware

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func syntheticRootKey() []byte {
	raw := make([]byte, 0x412*4)
	var x uint32 = 0x9E3779B9
	for i := 0; i < len(raw)/4; i++ {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		binary.LittleEndian.PutUint32(raw[i*4:], x)
	}
	return raw
}

func syntheticFirmwareImage() []byte {
	data := make([]byte, Size)
	binary.LittleEndian.PutUint32(data[idCodeOffset:], 0x00424144) // "DAB\0"
	for i := HeaderSize; i < Size; i++ {
		data[i] = byte(i)
	}
	return data
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	rootKey := syntheticRootKey()
	plain := syntheticFirmwareImage()

	cipher, err := Encrypt(plain, rootKey)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(cipher) != Size {
		t.Fatalf("encrypted image is %d bytes, want %d", len(cipher), Size)
	}
	if !bytes.Equal(cipher[:HeaderSize], plain[:HeaderSize]) {
		t.Fatal("the leading header bytes must pass through untouched")
	}
	if bytes.Equal(cipher[HeaderSize:], plain[HeaderSize:]) {
		t.Fatal("the body should be scrambled")
	}

	decrypted, err := Decrypt(cipher, rootKey)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plain) {
		t.Fatal("decrypt(encrypt(image)) must reproduce the original image")
	}
}

func TestRejectsWrongSize(t *testing.T) {
	rootKey := syntheticRootKey()
	_, err := Encrypt(make([]byte, 100), rootKey)
	if err == nil {
		t.Fatal("expected an error for a non-256KiB image")
	}
}

func TestIDCodeExtraction(t *testing.T) {
	data := syntheticFirmwareImage()
	id, err := IDCode(data)
	if err != nil {
		t.Fatalf("IDCode failed: %v", err)
	}
	if id != 0x00424144 {
		t.Fatalf("IDCode = 0x%X, want 0x424144", id)
	}
}
