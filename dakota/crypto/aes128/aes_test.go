package aes128

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestEncryptBlockFIPS197(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	pt := mustHex(t, "00112233445566778899aabbccddeeff")
	want := mustHex(t, "69c4e0d86a7b0430d8cdb78070b4c55a")

	got, err := EncryptBlock(key, pt)
	if err != nil {
		t.Fatalf("EncryptBlock: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}

	// In place.
	c, _ := NewCipher(key)
	buf := append([]byte(nil), pt...)
	if err := c.Encrypt(buf, buf); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !bytes.Equal(buf, want) {
		t.Fatalf("in-place encrypt mismatch")
	}
}

func TestKeyScheduleLastRoundKey(t *testing.T) {
	// FIPS-197 Appendix A.1, w[40..43].
	c, err := NewCipher(mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c"))
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	want := mustHex(t, "d014f9a8c9ee2589e13f0cc8b6630ca6")
	if !bytes.Equal(c.roundKeys[rounds][:], want) {
		t.Fatalf("round key 10 = %x", c.roundKeys[rounds])
	}
}

func TestCTRSP80038A(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	iv := mustHex(t, "f0f1f2f3f4f5f6f7f8f9fafbfcfdfeff")
	pt := mustHex(t, "6bc1bee22e409f96e93d7e117393172a"+
		"ae2d8a571e03ac9c9eb76fac45af8e51"+
		"30c81c46a35ce411e5fbc1191a0a52ef"+
		"f69f2445df4f9b17ad2b417be66c3710")
	want := mustHex(t, "874d6191b620e3261bef6864990db6ce"+
		"9806f66b7970fdff8617187bb9fffdff"+
		"5ae4df3edbd5d35e5b4f09020db03eab"+
		"1e031dda2fbe03d1792170a0f3009cee")

	got, err := XORKeyStreamCTR(key, iv, pt)
	if err != nil {
		t.Fatalf("XORKeyStreamCTR: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x\nwant %x", got, want)
	}
}

func TestCTRMatchesStdlib(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{0, 1, 15, 16, 17, 32, 100, 1000} {
		key := make([]byte, 16)
		iv := make([]byte, 16)
		data := make([]byte, n)
		rng.Read(key)
		rng.Read(iv)
		rng.Read(data)

		block, _ := aes.NewCipher(key)
		want := make([]byte, n)
		cipher.NewCTR(block, iv).XORKeyStream(want, data)

		got, err := XORKeyStreamCTR(key, iv, data)
		if err != nil {
			t.Fatalf("XORKeyStreamCTR: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("length %d mismatch", n)
		}
	}
}

func TestCTRCounterWraps(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	iv := bytes.Repeat([]byte{0xff}, 16)
	data := make([]byte, 48)

	got, err := XORKeyStreamCTR(key, iv, data)
	if err != nil {
		t.Fatalf("XORKeyStreamCTR: %v", err)
	}
	zero, _ := EncryptBlock(key, make([]byte, 16))
	if !bytes.Equal(got[16:32], zero) {
		t.Fatalf("second block should use counter 0 after wrap")
	}

	block, _ := aes.NewCipher(key)
	want := make([]byte, len(data))
	cipher.NewCTR(block, iv).XORKeyStream(want, data)
	if !bytes.Equal(got, want) {
		t.Fatalf("wraparound differs from crypto/cipher")
	}
}

func TestCTRInvolutionAndStreaming(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 16)
	iv := bytes.Repeat([]byte{0x24}, 16)
	data := []byte("the quick brown fox jumps over the lazy dog, twice over the fence")

	ct, _ := XORKeyStreamCTR(key, iv, data)
	pt, _ := XORKeyStreamCTR(key, iv, ct)
	if !bytes.Equal(pt, data) {
		t.Fatalf("CTR is not self-inverse")
	}

	s, err := NewCTR(key, iv)
	if err != nil {
		t.Fatalf("NewCTR: %v", err)
	}
	pieces := make([]byte, len(data))
	for off, step := 0, 1; off < len(data); off, step = off+step, step+3 {
		end := off + step
		if end > len(data) {
			end = len(data)
		}
		s.XORKeyStream(pieces[off:end], data[off:end])
	}
	if !bytes.Equal(pieces, ct) {
		t.Fatalf("piecewise keystream differs from one-shot")
	}
}

func TestErrors(t *testing.T) {
	if _, err := NewCipher(make([]byte, 15)); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
	if _, err := NewCipher(make([]byte, 32)); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("AES-256 keys are not accepted, got %v", err)
	}
	if _, err := EncryptBlock(make([]byte, 16), make([]byte, 15)); !errors.Is(err, ErrInvalidBlockLength) {
		t.Fatalf("expected ErrInvalidBlockLength, got %v", err)
	}
	if _, err := XORKeyStreamCTR(make([]byte, 16), make([]byte, 12), []byte("x")); !errors.Is(err, ErrInvalidIVLength) {
		t.Fatalf("expected ErrInvalidIVLength, got %v", err)
	}
	if _, err := XORKeyStreamCTR(make([]byte, 8), make([]byte, 16), []byte("x")); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func BenchmarkCTR(b *testing.B) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	data := make([]byte, 4096)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = XORKeyStreamCTR(key, iv, data)
	}
}
