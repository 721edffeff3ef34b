package aes128

import (
	"crypto/cipher"
)

// CTR is AES-128 in counter mode. The IV is a big-endian 128-bit counter that
// wraps modulo 2^128. Encryption and decryption are the same operation.
type CTR struct {
	block   *Cipher
	counter [BlockSize]byte
	stream  [BlockSize]byte
	used    int // bytes of stream already consumed
}

var _ cipher.Stream = (*CTR)(nil)

// NewCTR returns a keystream starting at counter value iv.
func NewCTR(key, iv []byte) (*CTR, error) {
	if len(iv) != BlockSize {
		return nil, ErrInvalidIVLength
	}
	block, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	c := &CTR{block: block, used: BlockSize}
	copy(c.counter[:], iv)
	return c, nil
}

// XORKeyStream XORs src with the keystream into dst. Calls may split the
// input anywhere; the keystream continues where the previous call stopped.
func (c *CTR) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("aes128: output smaller than input")
	}
	for i := range src {
		if c.used == BlockSize {
			c.refill()
		}
		dst[i] = src[i] ^ c.stream[c.used]
		c.used++
	}
}

func (c *CTR) refill() {
	c.stream = c.counter
	c.block.encryptBlock(&c.stream)
	c.used = 0
	incrementCounter(&c.counter)
}

// incrementCounter adds one to the big-endian counter, wrapping at 2^128.
func incrementCounter(ctr *[BlockSize]byte) {
	for i := BlockSize - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			return
		}
	}
}

// XORKeyStreamCTR encrypts or decrypts data in one call. The result has len(data) bytes.
func XORKeyStreamCTR(key, iv, data []byte) ([]byte, error) {
	stream, err := NewCTR(key, iv)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	stream.XORKeyStream(out, data)
	return out, nil
}
