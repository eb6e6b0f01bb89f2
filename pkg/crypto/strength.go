package crypto

import "strings"

// Password policy constants.
const MinPasswordLength = 8

var (
	specialChars = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

	// Denylisted passwords match as case-insensitive substrings.
	weakPasswords = []string{
		"password", "123456", "12345678", "qwerty", "abc123",
		"password123", "admin", "root", "user", "test",
		"123456789", "1234567890", "qwerty123", "admin123",
	}

	// Keyboard rows; the leading four characters of each are enough
	// to catch a walked sequence.
	keyboardSequences = []string{
		"qwertyuiop", "asdfghjkl", "zxcvbnm",
		"1234567890", "0987654321",
	}
)

// StrengthResult reports whether a password satisfies policy and the
// specific violations when it does not.
type StrengthResult struct {
	Valid      bool
	Violations []string
}

// ValidatePasswordStrength checks the composition policy: minimum
// length, all four character classes, no run of three identical
// characters, and no denylisted weak password or keyboard sequence.
func ValidatePasswordStrength(password string) StrengthResult {
	if password == "" {
		return StrengthResult{Violations: []string{"password must not be empty"}}
	}

	var violations []string

	if len(password) < MinPasswordLength {
		violations = append(violations, "password must be at least 8 characters")
	}
	if !containsClass(password, isDigit) {
		violations = append(violations, "password must contain at least one digit")
	}
	if !containsClass(password, isLower) {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if !containsClass(password, isUpper) {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if !containsClass(password, isSpecial) {
		violations = append(violations, "password must contain at least one special character")
	}
	if hasRepeatedRun(password) {
		violations = append(violations, "password must not repeat the same character three times in a row")
	}
	if isDenylisted(password) {
		violations = append(violations, "password is too common, choose a less predictable one")
	}

	return StrengthResult{Valid: len(violations) == 0, Violations: violations}
}

// PasswordStrength scores a password 0-5: a point each for length>=8,
// length>=12, every present character class, no repeated run, and not
// being denylisted, capped at 5.
func PasswordStrength(password string) int {
	if password == "" {
		return 0
	}

	score := 0
	if len(password) >= 8 {
		score++
	}
	if len(password) >= 12 {
		score++
	}
	if containsClass(password, isDigit) {
		score++
	}
	if containsClass(password, isLower) {
		score++
	}
	if containsClass(password, isUpper) {
		score++
	}
	if containsClass(password, isSpecial) {
		score++
	}
	if !hasRepeatedRun(password) {
		score++
	}
	if !isDenylisted(password) {
		score++
	}

	if score > 5 {
		score = 5
	}
	return score
}

// StrengthLabel maps a score to its display label.
func StrengthLabel(password string) string {
	switch PasswordStrength(password) {
	case 0, 1:
		return "very weak"
	case 2:
		return "weak"
	case 3:
		return "moderate"
	case 4:
		return "strong"
	default:
		return "very strong"
	}
}

func containsClass(s string, class func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if class(s[i]) {
			return true
		}
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

func isSpecial(b byte) bool {
	return strings.IndexByte(specialChars, b) >= 0
}

func hasRepeatedRun(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == s[i+1] && s[i+1] == s[i+2] {
			return true
		}
	}
	return false
}

func isDenylisted(password string) bool {
	lower := strings.ToLower(password)
	for _, weak := range weakPasswords {
		if strings.Contains(lower, weak) {
			return true
		}
	}
	for _, seq := range keyboardSequences {
		prefix := seq
		if len(prefix) > 4 {
			prefix = prefix[:4]
		}
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}
