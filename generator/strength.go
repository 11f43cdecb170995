package generator

import (
	"math"
	"strings"
)

// Strength is a quick entropy readout for a candidate password.
type Strength struct {
	EntropyBits float64
	Label       string
	Length      int
	PoolSize    int
	HasLower    bool
	HasUpper    bool
	HasDigit    bool
	HasSymbol   bool
}

// Estimate computes length times log2 of the effective pool size from
// the character classes present. This is a deliberate approximation: it
// ignores dictionary words and keyboard patterns, which is adequate for
// reading out generator output but is no substitute for real strength
// analysis of a user-chosen password.
func Estimate(password string) Strength {
	s := Strength{Length: len([]rune(password))}

	for _, r := range password {
		switch {
		case strings.ContainsRune(lowercase, r):
			s.HasLower = true
		case strings.ContainsRune(uppercase, r):
			s.HasUpper = true
		case strings.ContainsRune(digits, r):
			s.HasDigit = true
		default:
			s.HasSymbol = true
		}
	}

	if s.HasLower {
		s.PoolSize += len(lowercase)
	}
	if s.HasUpper {
		s.PoolSize += len(uppercase)
	}
	if s.HasDigit {
		s.PoolSize += len(digits)
	}
	if s.HasSymbol {
		s.PoolSize += len(symbols)
	}

	if s.PoolSize > 0 && s.Length > 0 {
		s.EntropyBits = float64(s.Length) * math.Log2(float64(s.PoolSize))
	}
	s.Label = strengthLabel(s.EntropyBits)
	return s
}

func strengthLabel(bits float64) string {
	switch {
	case bits < 28:
		return "Very Weak"
	case bits < 36:
		return "Weak"
	case bits < 60:
		return "Moderate"
	case bits < 80:
		return "Strong"
	default:
		return "Very Strong"
	}
}
