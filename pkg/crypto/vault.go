package crypto

import (
	"bytes"
	"crypto/cipher"
	"crypto/hmac"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tjfoc/gmsm/sm3"
	"github.com/tjfoc/gmsm/sm4"

	"github.com/campusware/gatepass/pkg/errors"
)

// KeySize is the SM4 key and IV length in bytes.
const KeySize = 16

// Vault performs reversible SM4-CBC encryption of PII fields under a
// process-wide key and fixed IV injected at construction. The key
// material is immutable for the process lifetime.
type Vault struct {
	block cipher.Block
	iv    []byte
}

// NewVault validates the key material and builds the cipher once.
func NewVault(key, iv []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, errors.InvalidKeyMaterial(fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key)))
	}
	if len(iv) != KeySize {
		return nil, errors.InvalidKeyMaterial(fmt.Errorf("iv must be %d bytes, got %d", KeySize, len(iv)))
	}

	block, err := sm4.NewCipher(key)
	if err != nil {
		return nil, errors.InvalidKeyMaterial(err)
	}

	return &Vault{block: block, iv: append([]byte(nil), iv...)}, nil
}

// Encrypt returns the base64 SM4-CBC ciphertext of plaintext.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	padded := pkcs7Pad([]byte(plaintext), v.block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(v.block, v.iv).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Malformed or tampered input fails with a
// CryptoFailure; it never silently returns wrong data.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.DecryptionError(err)
	}
	if len(raw) == 0 || len(raw)%v.block.BlockSize() != 0 {
		return "", errors.DecryptionError(fmt.Errorf("ciphertext length %d not a multiple of block size", len(raw)))
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(v.block, v.iv).CryptBlocks(out, raw)

	plain, err := pkcs7Unpad(out, v.block.BlockSize())
	if err != nil {
		return "", errors.DecryptionError(err)
	}
	return string(plain), nil
}

// DecryptOrFallback degrades on failure: an undecryptable field is
// shown as its ciphertext, which is already unreadable, instead of
// failing the whole request.
func (v *Vault) DecryptOrFallback(ciphertext string) string {
	plain, err := v.Decrypt(ciphertext)
	if err != nil {
		return ciphertext
	}
	return plain
}

// Hash returns the SM3 digest of plaintext as lowercase hex. Used for
// password storage; never used for PII that must be recoverable.
func Hash(plaintext string) string {
	sum := sm3.Sm3Sum([]byte(plaintext))
	return hex.EncodeToString(sum)
}

// HashEqual compares two hex digests case-insensitively. Stored
// digests predate this system and vary in case.
func HashEqual(digest, other string) bool {
	return strings.EqualFold(digest, other)
}

// KeyedHash returns the HMAC-SM3 tag of content as lowercase hex.
// Deterministic: same content and key always produce the same tag.
func KeyedHash(content string, key []byte) string {
	mac := hmac.New(sm3.New, key)
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("corrupt padding")
		}
	}
	return data[:len(data)-n], nil
}
