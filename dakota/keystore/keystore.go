package keystore

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/cryft-labs/dakota/dakota/crypto"
	"github.com/cryft-labs/dakota/dakota/crypto/aes128"
	"github.com/cryft-labs/dakota/dakota/crypto/keccak"
	"github.com/cryft-labs/dakota/dakota/identity"
)

const (
	// DefaultIterations is the PBKDF2 round count written into new keystores.
	DefaultIterations = 262144

	derivedKeyLen = 32
	saltLen       = 16
)

// Errors returned by Encrypt and Decrypt.
var (
	ErrMACMismatch        = errors.New("keystore: mac mismatch (wrong password or corrupted file)")
	ErrAddressMismatch    = errors.New("keystore: decrypted key does not match record address")
	ErrUnsupportedCipher  = errors.New("keystore: unsupported cipher")
	ErrUnsupportedKDF     = errors.New("keystore: unsupported kdf")
	ErrUnsupportedVersion = errors.New("keystore: unsupported version")
	ErrMalformed          = errors.New("keystore: malformed record")
	ErrInvalidIterations  = errors.New("keystore: iterations must be positive")
)

type options struct {
	iterations int
	rand       io.Reader
}

// Option configures Encrypt.
type Option func(*options)

// WithIterations overrides the PBKDF2 round count.
func WithIterations(c int) Option {
	return func(o *options) { o.iterations = c }
}

// WithRand sets the entropy source for salt, IV and record id.
func WithRand(r io.Reader) Option {
	return func(o *options) { o.rand = r }
}

// Encrypt builds a V3 keystore record for priv, bound to addr.
//
//	dk         = PBKDF2-HMAC-SHA256(password, salt, c, 32)
//	ciphertext = AES-128-CTR(dk[0:16], iv, priv)
//	mac        = Keccak256(dk[16:32] ‖ ciphertext)
//
// priv must be in [1, N-1] (identity.ErrInvalidPrivateKey) and addr must be
// its address (ErrAddressMismatch); no record is built otherwise.
func Encrypt(priv identity.PrivateKey, addr identity.Address, password []byte, opts ...Option) (*Record, error) {
	kp, err := identity.NewKeyPair(priv)
	if err != nil {
		return nil, err
	}
	if kp.Address() != addr {
		return nil, fmt.Errorf("%w: key belongs to %s, not %s", ErrAddressMismatch, kp.Address().Hex(), addr.Hex())
	}

	o := options{iterations: DefaultIterations}
	for _, opt := range opts {
		opt(&o)
	}
	if o.iterations <= 0 {
		return nil, ErrInvalidIterations
	}

	salt, err := crypto.RandomBytes(o.rand, saltLen)
	if err != nil {
		return nil, err
	}
	iv, err := crypto.RandomBytes(o.rand, aes128.BlockSize)
	if err != nil {
		return nil, err
	}
	id, err := newID(o.rand)
	if err != nil {
		return nil, err
	}

	dk, err := crypto.DeriveKeyPBKDF2(password, salt, o.iterations, derivedKeyLen)
	if err != nil {
		return nil, err
	}
	ciphertext, err := aes128.XORKeyStreamCTR(dk[:16], iv, priv[:])
	if err != nil {
		return nil, err
	}
	mac := computeMAC(dk[16:32], ciphertext)

	params, err := json.Marshal(PBKDF2Params{
		DKLen: derivedKeyLen,
		C:     o.iterations,
		PRF:   PRFHMACSHA256,
		Salt:  hex.EncodeToString(salt),
	})
	if err != nil {
		return nil, err
	}

	return &Record{
		Version: Version,
		ID:      id.String(),
		Address: addr.NoPrefix(),
		Crypto: Crypto{
			Cipher:       CipherAES128CTR,
			CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
			CipherText:   hex.EncodeToString(ciphertext),
			KDF:          KDFPBKDF2,
			KDFParams:    params,
			MAC:          hex.EncodeToString(mac[:]),
		},
	}, nil
}

func newID(r io.Reader) (uuid.UUID, error) {
	if r == nil {
		return uuid.NewRandom()
	}
	return uuid.NewRandomFromReader(r)
}

// computeMAC hashes the MAC key before the ciphertext; other keystore readers depend on this order.
func computeMAC(macKey, ciphertext []byte) [keccak.Size]byte {
	buf := make([]byte, 0, len(macKey)+len(ciphertext))
	buf = append(buf, macKey...)
	buf = append(buf, ciphertext...)
	return keccak.Sum256(buf)
}

// Decrypt recovers the private key from rec. On any failure no key material is returned.
func Decrypt(rec *Record, password []byte) (identity.PrivateKey, error) {
	if rec.Version != Version {
		return identity.PrivateKey{}, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, rec.Version)
	}
	if rec.Crypto.Cipher != CipherAES128CTR {
		return identity.PrivateKey{}, fmt.Errorf("%w: %q", ErrUnsupportedCipher, rec.Crypto.Cipher)
	}

	ciphertext, err := decodeHex("ciphertext", rec.Crypto.CipherText)
	if err != nil {
		return identity.PrivateKey{}, err
	}
	iv, err := decodeHex("iv", rec.Crypto.CipherParams.IV)
	if err != nil {
		return identity.PrivateKey{}, err
	}
	mac, err := decodeHex("mac", rec.Crypto.MAC)
	if err != nil {
		return identity.PrivateKey{}, err
	}

	dk, err := deriveKey(rec.Crypto.KDF, rec.Crypto.KDFParams, password)
	if err != nil {
		return identity.PrivateKey{}, err
	}
	if len(dk) < derivedKeyLen {
		return identity.PrivateKey{}, fmt.Errorf("%w: dklen %d", ErrMalformed, len(dk))
	}

	want := computeMAC(dk[16:32], ciphertext)
	if subtle.ConstantTimeCompare(want[:], mac) != 1 {
		return identity.PrivateKey{}, ErrMACMismatch
	}

	plain, err := aes128.XORKeyStreamCTR(dk[:16], iv, ciphertext)
	if err != nil {
		return identity.PrivateKey{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	priv, err := identity.ParsePrivateKey(plain)
	if err != nil {
		return identity.PrivateKey{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if rec.Address != "" {
		kp, err := identity.NewKeyPair(priv)
		if err != nil {
			return identity.PrivateKey{}, err
		}
		if !strings.EqualFold(strings.TrimPrefix(rec.Address, "0x"), kp.Address().NoPrefix()) {
			return identity.PrivateKey{}, ErrAddressMismatch
		}
	}
	return priv, nil
}

func deriveKey(kdf string, raw json.RawMessage, password []byte) ([]byte, error) {
	switch kdf {
	case KDFPBKDF2:
		var p PBKDF2Params
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: kdfparams: %v", ErrMalformed, err)
		}
		if p.PRF != PRFHMACSHA256 {
			return nil, fmt.Errorf("%w: prf %q", ErrUnsupportedKDF, p.PRF)
		}
		salt, err := decodeHex("salt", p.Salt)
		if err != nil {
			return nil, err
		}
		return crypto.DeriveKeyPBKDF2(password, salt, p.C, p.DKLen)
	case KDFScrypt:
		var p ScryptParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: kdfparams: %v", ErrMalformed, err)
		}
		salt, err := decodeHex("salt", p.Salt)
		if err != nil {
			return nil, err
		}
		return crypto.DeriveKeyScrypt(password, salt, p.N, p.R, p.P, p.DKLen)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKDF, kdf)
	}
}

func decodeHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return b, nil
}
