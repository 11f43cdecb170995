// Package auth vets master password candidates before they reach key
// derivation: a static character policy, a zxcvbn strength score, and
// an optional breached-password lookup.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go"
)

// MinLength is the minimum master password length.
const MinLength = 12

const specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_{|}~`"

// ErrWeakPassword reports a master password candidate that fails the
// policy. The wrapped message names the first failed rule.
var ErrWeakPassword = errors.New("auth: weak master password")

// ValidateMasterPassword applies the static policy rules: length and
// required character classes.
func ValidateMasterPassword(pw string) error {
	if len(pw) < MinLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, MinLength)
	}
	if !hasUpper(pw) {
		return fmt.Errorf("%w: must include an uppercase letter", ErrWeakPassword)
	}
	if !hasDigit(pw) {
		return fmt.Errorf("%w: must include a digit", ErrWeakPassword)
	}
	if !hasSpecial(pw) {
		return fmt.Errorf("%w: must include a special character", ErrWeakPassword)
	}
	return nil
}

// ValidateOptions tunes ValidateMasterPasswordAdvanced.
type ValidateOptions struct {
	// MinZXCVBNScore rejects passwords scoring below it (0 to 4).
	// Zero disables the scoring gate.
	MinZXCVBNScore int
	// EnableHIBP turns on the k-anonymity breach lookup. An
	// unreachable HIBP service never fails validation.
	EnableHIBP bool
}

// DefaultValidateOptions returns the options applied to new vaults.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{MinZXCVBNScore: 3}
}

// ValidateMasterPasswordAdvanced runs the static policy, then the
// zxcvbn estimator, then (when enabled) the HIBP breach check.
func ValidateMasterPasswordAdvanced(ctx context.Context, pw string, opts ValidateOptions) error {
	if err := ValidateMasterPassword(pw); err != nil {
		return err
	}

	if opts.MinZXCVBNScore > 0 {
		strength := zxcvbn.PasswordStrength(pw, nil)
		if strength.Score < opts.MinZXCVBNScore {
			return fmt.Errorf("%w: too guessable (score %d of %d needed)",
				ErrWeakPassword, strength.Score, opts.MinZXCVBNScore)
		}
	}

	if opts.EnableHIBP {
		res, err := CheckHIBP(ctx, pw)
		if err == nil && res.Found {
			return fmt.Errorf("%w: found in %d known breaches", ErrWeakPassword, res.Count)
		}
	}

	return nil
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasSpecial(s string) bool {
	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}
