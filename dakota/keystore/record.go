package keystore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Format identifiers written into and accepted from records.
const (
	// Version is the only keystore version this package reads or writes.
	Version = 3

	CipherAES128CTR = "aes-128-ctr"
	KDFPBKDF2       = "pbkdf2"
	KDFScrypt       = "scrypt"
	PRFHMACSHA256   = "hmac-sha256"
)

// Record is a V3 keystore. Field names and order follow the format exactly.
type Record struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Crypto  Crypto `json:"crypto"`
}

// Crypto is the "crypto" object: cipher, kdf and the MAC over the ciphertext.
type Crypto struct {
	Cipher       string          `json:"cipher"`
	CipherParams CipherParams    `json:"cipherparams"`
	CipherText   string          `json:"ciphertext"`
	KDF          string          `json:"kdf"`
	KDFParams    json.RawMessage `json:"kdfparams"`
	MAC          string          `json:"mac"`
}

// CipherParams holds the hex CTR counter start.
type CipherParams struct {
	IV string `json:"iv"`
}

// PBKDF2Params are the kdfparams of a "pbkdf2" record.
type PBKDF2Params struct {
	DKLen int    `json:"dklen"`
	C     int    `json:"c"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

// ScryptParams are the kdfparams of a "scrypt" record (read only).
type ScryptParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

// Marshal renders rec as 2-space indented JSON followed by a newline.
func Marshal(rec *Record) ([]byte, error) {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Unmarshal parses a keystore file.
func Unmarshal(b []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.Version != Version {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, rec.Version)
	}
	return &rec, nil
}

// FileName returns the conventional keystore file name, e.g.
// UTC--2024-01-02T03-04-05Z--7e5f4552091a69125d5dfcb7b8c2659029395bdf.
func FileName(t time.Time, address string) string {
	return fmt.Sprintf("UTC--%s--%s", t.UTC().Format("2006-01-02T15-04-05Z"), address)
}
