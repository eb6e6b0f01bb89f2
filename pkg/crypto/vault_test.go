package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/campusware/gatepass/pkg/errors"
)

var (
	testKey = []byte("0123456789abcdef")
	testIV  = []byte("fedcba9876543210")
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := NewVault(testKey, testIV)
	require.NoError(t, err)
	return v
}

func TestNewVaultRejectsBadKeyMaterial(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
		iv   []byte
	}{
		{"short key", []byte("short"), testIV},
		{"long key", []byte("0123456789abcdef0"), testIV},
		{"short iv", testKey, []byte("short")},
		{"nil key", nil, testIV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVault(tt.key, tt.iv)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeInvalidKeyMaterial, apperrors.CodeOf(err))
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t)

	plaintexts := []string{
		"",
		"a",
		"张三",
		"110101199003078888",
		"13812345678",
		strings.Repeat("block-aligned-16", 4),
		"exactly16bytes!!",
	}

	for _, plain := range plaintexts {
		ct, err := v.Encrypt(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, ct)

		got, err := v.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestEncryptIsDeterministicUnderFixedIV(t *testing.T) {
	v := newTestVault(t)

	a, err := v.Encrypt("110101199003078888")
	require.NoError(t, err)
	b, err := v.Encrypt("110101199003078888")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecryptRejectsCorruptCiphertext(t *testing.T) {
	v := newTestVault(t)

	// 31 bytes of plaintext: two cipher blocks, one 0x01 padding byte.
	ct, err := v.Encrypt(strings.Repeat("x", 31))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"empty", ""},
		{"wrong block length", "YWJj"},
		{"tampered block", flipCiphertext(t, ct)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Decrypt(tt.input)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeDecryptionError, apperrors.CodeOf(err))
		})
	}
}

func TestDecryptOrFallbackShowsCiphertextOnFailure(t *testing.T) {
	v := newTestVault(t)

	ct, err := v.Encrypt("李四")
	require.NoError(t, err)
	assert.Equal(t, "李四", v.DecryptOrFallback(ct))

	// Not a multiple of the block size, so decryption always fails.
	assert.Equal(t, "YWJj", v.DecryptOrFallback("YWJj"))
}

func TestHashIsCaseInsensitiveHex(t *testing.T) {
	digest := Hash("Admin@12345")

	assert.Len(t, digest, 64)
	assert.Equal(t, digest, Hash("Admin@12345"))
	assert.True(t, HashEqual(strings.ToUpper(digest), digest))
	assert.False(t, HashEqual(digest, Hash("Admin@12346")))
}

func TestKeyedHashDeterministic(t *testing.T) {
	key := []byte("audit-hmac-key")

	a := KeyedHash("LogId:1,AdminId:2,Operation:login", key)
	b := KeyedHash("LogId:1,AdminId:2,Operation:login", key)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, KeyedHash("LogId:1,AdminId:2,Operation:logout", key))
	assert.NotEqual(t, a, KeyedHash("LogId:1,AdminId:2,Operation:login", []byte("other-key")))
}

// flipCiphertext inverts the last byte of the first cipher block. In
// CBC that byte XORs straight into the final plaintext byte, turning
// the 0x01 padding byte into 0xFE and guaranteeing an unpad failure.
func flipCiphertext(t *testing.T, ct string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(ct)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 2*KeySize)
	raw[KeySize-1] ^= 0xFF
	return base64.StdEncoding.EncodeToString(raw)
}
