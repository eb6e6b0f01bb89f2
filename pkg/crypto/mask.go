package crypto

import "strings"

// Masking is one-way display obfuscation, distinct from encryption.
// All functions are pure and deterministic over the plaintext, so
// re-masking after re-encryption yields an identical mask. They are
// rune-aware: production names and identifiers are CJK.

// MaskIdentifier keeps prefixLen leading and suffixLen trailing runes
// and replaces the middle with maskChar. When the configured prefix
// plus suffix meets or exceeds the value's length the value is
// returned unchanged (fail-safe rather than erroring).
func MaskIdentifier(value string, prefixLen, suffixLen int, maskChar string) string {
	runes := []rune(value)
	if prefixLen < 0 || suffixLen < 0 || prefixLen+suffixLen >= len(runes) {
		return value
	}
	masked := len(runes) - prefixLen - suffixLen
	return string(runes[:prefixLen]) +
		strings.Repeat(maskChar, masked) +
		string(runes[len(runes)-suffixLen:])
}

// MaskPhone applies the identifier rule to phone numbers.
func MaskPhone(value string, prefixLen, suffixLen int, maskChar string) string {
	return MaskIdentifier(value, prefixLen, suffixLen, maskChar)
}

// MaskName masks a personal name: a single rune is unchanged, two
// runes keep the first and mask the second, longer names keep the
// first and last runes and mask everything between.
func MaskName(value string, maskChar string) string {
	runes := []rune(value)
	switch {
	case len(runes) <= 1:
		return value
	case len(runes) == 2:
		return string(runes[0]) + maskChar
	default:
		return string(runes[0]) +
			strings.Repeat(maskChar, len(runes)-2) +
			string(runes[len(runes)-1])
	}
}

// MaskPolicy carries the per-field masking parameters loaded from
// configuration.
type MaskPolicy struct {
	IDPrefix    int
	IDSuffix    int
	PhonePrefix int
	PhoneSuffix int
	MaskChar    string
}

// DefaultMaskPolicy mirrors the deployed defaults.
func DefaultMaskPolicy() MaskPolicy {
	return MaskPolicy{
		IDPrefix:    3,
		IDSuffix:    4,
		PhonePrefix: 3,
		PhoneSuffix: 4,
		MaskChar:    "*",
	}
}

func (p MaskPolicy) ID(value string) string {
	return MaskIdentifier(value, p.IDPrefix, p.IDSuffix, p.MaskChar)
}

func (p MaskPolicy) Phone(value string) string {
	return MaskPhone(value, p.PhonePrefix, p.PhoneSuffix, p.MaskChar)
}

func (p MaskPolicy) Name(value string) string {
	return MaskName(value, p.MaskChar)
}
