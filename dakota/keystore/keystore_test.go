package keystore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	ethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cryft-labs/dakota/dakota/crypto/secp256k1"
	"github.com/cryft-labs/dakota/dakota/identity"
)

// fastIterations keeps tests quick; interop tests use the default count.
const fastIterations = 1024

func newAccount(t *testing.T) identity.Account {
	t.Helper()
	acct, err := identity.GenerateAccount(nil)
	require.NoError(t, err)
	return acct
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	acct := newAccount(t)
	for _, pw := range []string{"", "correct horse battery staple", "pässwörd ✓"} {
		rec, err := Encrypt(acct.PrivateKey, acct.Address, []byte(pw), WithIterations(fastIterations))
		require.NoError(t, err)

		got, err := Decrypt(rec, []byte(pw))
		require.NoError(t, err)
		require.Equal(t, acct.PrivateKey, got)
	}
}

func TestWrongPasswordAlwaysFailsMAC(t *testing.T) {
	acct := newAccount(t)
	rec, err := Encrypt(acct.PrivateKey, acct.Address, []byte("right"), WithIterations(fastIterations))
	require.NoError(t, err)

	for i := 0; i < 32; i++ {
		got, err := Decrypt(rec, []byte(fmt.Sprintf("wrong-%d", i)))
		require.ErrorIs(t, err, ErrMACMismatch)
		require.Equal(t, identity.PrivateKey{}, got, "no plaintext on failure")
	}
}

func TestTamperedRecordFailsMAC(t *testing.T) {
	acct := newAccount(t)
	rec, err := Encrypt(acct.PrivateKey, acct.Address, []byte("pw"), WithIterations(fastIterations))
	require.NoError(t, err)

	ct, _ := hex.DecodeString(rec.Crypto.CipherText)
	ct[0] ^= 0x01
	rec.Crypto.CipherText = hex.EncodeToString(ct)
	_, err = Decrypt(rec, []byte("pw"))
	require.ErrorIs(t, err, ErrMACMismatch)
}

func TestAddressMismatch(t *testing.T) {
	acct := newAccount(t)
	other := newAccount(t)

	rec, err := Encrypt(acct.PrivateKey, other.Address, []byte("pw"), WithIterations(fastIterations))
	require.ErrorIs(t, err, ErrAddressMismatch)
	require.Nil(t, rec)

	// A record whose address was swapped afterwards fails on Decrypt.
	rec, err = Encrypt(acct.PrivateKey, acct.Address, []byte("pw"), WithIterations(fastIterations))
	require.NoError(t, err)
	rec.Address = other.Address.NoPrefix()
	_, err = Decrypt(rec, []byte("pw"))
	require.ErrorIs(t, err, ErrAddressMismatch)
}

func TestEncryptRejectsOutOfRangeKey(t *testing.T) {
	n := secp256k1.N()
	cases := map[string]identity.PrivateKey{
		"zero":  {},
		"order": identity.PrivateKey(n.Bytes32()),
	}
	for name, priv := range cases {
		t.Run(name, func(t *testing.T) {
			rec, err := Encrypt(priv, identity.Address{}, []byte("pw"), WithIterations(fastIterations))
			require.ErrorIs(t, err, identity.ErrInvalidPrivateKey)
			require.Nil(t, rec)
		})
	}
}

func TestRecordLayout(t *testing.T) {
	acct := newAccount(t)
	rec, err := Encrypt(acct.PrivateKey, acct.Address, []byte("pw"), WithIterations(fastIterations))
	require.NoError(t, err)

	require.Equal(t, 3, rec.Version)
	require.Equal(t, acct.Address.NoPrefix(), rec.Address)
	require.Equal(t, "aes-128-ctr", rec.Crypto.Cipher)
	require.Equal(t, "pbkdf2", rec.Crypto.KDF)
	require.Len(t, rec.Crypto.CipherParams.IV, 32)
	require.Len(t, rec.Crypto.CipherText, 64)
	require.Len(t, rec.Crypto.MAC, 64)
	_, err = uuid.Parse(rec.ID)
	require.NoError(t, err)

	var params PBKDF2Params
	require.NoError(t, json.Unmarshal(rec.Crypto.KDFParams, &params))
	require.Equal(t, PBKDF2Params{DKLen: 32, C: fastIterations, PRF: "hmac-sha256", Salt: params.Salt}, params)
	require.Len(t, params.Salt, 32)

	out, err := Marshal(rec)
	require.NoError(t, err)
	s := string(out)
	require.True(t, strings.HasSuffix(s, "}\n"))
	require.Contains(t, s, `"kdfparams": {`+"\n"+`      "dklen": 32,`)
	for _, v := range []string{rec.Crypto.CipherText, rec.Crypto.MAC, params.Salt, rec.Address} {
		require.Equal(t, strings.ToLower(v), v)
		require.False(t, strings.HasPrefix(v, "0x"))
	}
	order := []string{`"version"`, `"id"`, `"address"`, `"crypto"`, `"cipher"`, `"cipherparams"`, `"ciphertext"`, `"kdf"`, `"kdfparams"`, `"mac"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(s, key)
		require.Greater(t, idx, last, "field %s out of order", key)
		last = idx
	}

	parsed, err := Unmarshal(out)
	require.NoError(t, err)
	got, err := Decrypt(parsed, []byte("pw"))
	require.NoError(t, err)
	require.Equal(t, acct.PrivateKey, got)
}

func TestDeterministicWithSeededRand(t *testing.T) {
	priv, err := identity.ParsePrivateKeyHex(strings.Repeat("11", 32))
	require.NoError(t, err)
	kp, err := identity.NewKeyPair(priv)
	require.NoError(t, err)

	r1, err := Encrypt(priv, kp.Address(), []byte("pw"), WithIterations(fastIterations), WithRand(rand.New(rand.NewSource(9))))
	require.NoError(t, err)
	r2, err := Encrypt(priv, kp.Address(), []byte("pw"), WithIterations(fastIterations), WithRand(rand.New(rand.NewSource(9))))
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}

func TestGoEthereumDecryptsOurKeystore(t *testing.T) {
	acct := newAccount(t)
	rec, err := Encrypt(acct.PrivateKey, acct.Address, []byte("interop"))
	require.NoError(t, err)
	out, err := Marshal(rec)
	require.NoError(t, err)

	key, err := ethkeystore.DecryptKey(out, "interop")
	require.NoError(t, err)
	require.Equal(t, acct.PrivateKey[:], ethcrypto.FromECDSA(key.PrivateKey))
	require.Equal(t, acct.Address.Hex(), strings.ToLower(key.Address.Hex()))

	_, err = ethkeystore.DecryptKey(out, "nope")
	require.Error(t, err)
}

func TestDecryptGoEthereumScryptKeystore(t *testing.T) {
	pk, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	key := &ethkeystore.Key{
		Id:         uuid.New(),
		Address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
		PrivateKey: pk,
	}
	out, err := ethkeystore.EncryptKey(key, "geth", ethkeystore.LightScryptN, ethkeystore.LightScryptP)
	require.NoError(t, err)

	rec, err := Unmarshal(out)
	require.NoError(t, err)
	require.Equal(t, KDFScrypt, rec.Crypto.KDF)

	got, err := Decrypt(rec, []byte("geth"))
	require.NoError(t, err)
	require.Equal(t, ethcrypto.FromECDSA(pk), got[:])

	_, err = Decrypt(rec, []byte("wrong"))
	require.ErrorIs(t, err, ErrMACMismatch)
}

func TestUnsupportedParameters(t *testing.T) {
	acct := newAccount(t)
	base, err := Encrypt(acct.PrivateKey, acct.Address, []byte("pw"), WithIterations(fastIterations))
	require.NoError(t, err)

	rec := *base
	rec.Crypto.Cipher = "aes-128-cbc"
	_, err = Decrypt(&rec, []byte("pw"))
	require.ErrorIs(t, err, ErrUnsupportedCipher)

	rec = *base
	rec.Crypto.KDF = "argon2"
	_, err = Decrypt(&rec, []byte("pw"))
	require.ErrorIs(t, err, ErrUnsupportedKDF)

	rec = *base
	rec.Crypto.KDFParams = json.RawMessage(`{"dklen":32,"c":1024,"prf":"hmac-sha512","salt":"00"}`)
	_, err = Decrypt(&rec, []byte("pw"))
	require.ErrorIs(t, err, ErrUnsupportedKDF)

	rec = *base
	rec.Crypto.MAC = "zz"
	_, err = Decrypt(&rec, []byte("pw"))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Unmarshal([]byte(`{"version":1}`))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
	_, err = Unmarshal([]byte(`{`))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Encrypt(acct.PrivateKey, acct.Address, []byte("pw"), WithIterations(0))
	require.ErrorIs(t, err, ErrInvalidIterations)
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	require.Equal(t,
		"UTC--2024-01-02T02-04-05Z--7e5f4552091a69125d5dfcb7b8c2659029395bdf",
		FileName(ts, "7e5f4552091a69125d5dfcb7b8c2659029395bdf"))
}
