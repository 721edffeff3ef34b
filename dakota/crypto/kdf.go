package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Errors returned by the key derivation wrappers.
var (
	ErrInvalidKDFParams = errors.New("crypto: invalid key derivation parameters")
)

// DeriveKeyPBKDF2 derives keyLen bytes with PBKDF2-HMAC-SHA256.
func DeriveKeyPBKDF2(password, salt []byte, iterations, keyLen int) ([]byte, error) {
	if iterations <= 0 || keyLen <= 0 {
		return nil, ErrInvalidKDFParams
	}
	return pbkdf2.Key(password, salt, iterations, keyLen, sha256.New), nil
}

// DeriveKeyScrypt derives keyLen bytes with scrypt(N=n, r, p).
func DeriveKeyScrypt(password, salt []byte, n, r, p, keyLen int) ([]byte, error) {
	if keyLen <= 0 {
		return nil, ErrInvalidKDFParams
	}
	key, err := scrypt.Key(password, salt, n, r, p, keyLen)
	if err != nil {
		return nil, errors.Join(ErrInvalidKDFParams, err)
	}
	return key, nil
}

// RandomBytes reads n bytes from r, or from crypto/rand when r is nil.
func RandomBytes(r io.Reader, n int) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
