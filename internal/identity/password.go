package identity

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

// Password policy, modeled on the common identity-provider defaults the
// original accounts were created under.
const minPasswordLength = 8

const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()"
)

// PolicyError lists every policy violation found in a registration request.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// CheckPassword validates a candidate password against the account policy,
// collecting all violations rather than stopping at the first.
func CheckPassword(password string) error {
	var violations []string
	if len(password) < minPasswordLength {
		violations = append(violations, "password must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}
	if !hasSpecial {
		violations = append(violations, "password must contain a non-alphanumeric character")
	}

	if len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}

// randomPassword generates a policy-compliant password for guest accounts.
// One character from each required class is placed first, the remainder is
// drawn from the full set, then the whole slice is shuffled.
func randomPassword() string {
	const length = 24
	all := upperChars + lowerChars + digitChars + specialChars

	buf := make([]byte, length)
	buf[0] = upperChars[randIndex(len(upperChars))]
	buf[1] = lowerChars[randIndex(len(lowerChars))]
	buf[2] = digitChars[randIndex(len(digitChars))]
	buf[3] = specialChars[randIndex(len(specialChars))]
	for i := 4; i < length; i++ {
		buf[i] = all[randIndex(len(all))]
	}

	for i := length - 1; i > 0; i-- {
		j := randIndex(i + 1)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// nothing sensible to do but stop.
		panic(err)
	}
	return int(v.Int64())
}
