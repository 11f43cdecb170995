// Package generator produces candidate passwords and passphrases from
// the system's cryptographic random source, plus a quick entropy
// readout for either.
package generator

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = "!@#$%^&*()-_=+[]{}|;:',.<>?/"

	// ambiguous holds characters that read alike in many fonts, for
	// passwords that may need to be typed by hand.
	ambiguous = "Il1O0oS5Z2"
)

// ErrInvalidConfig reports a generation request that cannot be
// satisfied, such as no character classes or a length below the number
// of selected classes.
var ErrInvalidConfig = errors.New("generator: invalid configuration")

// Config controls random password generation. Each enabled class is
// guaranteed at least one character in the output.
type Config struct {
	Length           int
	Lowercase        bool
	Uppercase        bool
	Digits           bool
	Symbols          bool
	ExcludeAmbiguous bool
}

// DefaultConfig returns the 16-character, all-classes configuration.
func DefaultConfig() Config {
	return Config{
		Length:    16,
		Lowercase: true,
		Uppercase: true,
		Digits:    true,
		Symbols:   true,
	}
}

// Generate returns a random password per cfg: one guaranteed character
// from each enabled class, the rest drawn from the combined pool, the
// whole shuffled so the guaranteed characters sit nowhere predictable.
func Generate(cfg Config) (string, error) {
	var pool, required []byte

	include := func(set string) error {
		pool = append(pool, set...)
		c, err := randomChar(set)
		if err != nil {
			return err
		}
		required = append(required, c)
		return nil
	}

	if cfg.Lowercase {
		if err := include(stripAmbiguous(lowercase, cfg.ExcludeAmbiguous)); err != nil {
			return "", err
		}
	}
	if cfg.Uppercase {
		if err := include(stripAmbiguous(uppercase, cfg.ExcludeAmbiguous)); err != nil {
			return "", err
		}
	}
	if cfg.Digits {
		if err := include(stripAmbiguous(digits, cfg.ExcludeAmbiguous)); err != nil {
			return "", err
		}
	}
	if cfg.Symbols {
		if err := include(symbols); err != nil {
			return "", err
		}
	}

	if len(pool) == 0 {
		return "", fmt.Errorf("%w: at least one character class must be selected", ErrInvalidConfig)
	}
	if cfg.Length < len(required) {
		return "", fmt.Errorf("%w: length must be at least %d for the selected classes", ErrInvalidConfig, len(required))
	}

	out := append([]byte{}, required...)
	for len(out) < cfg.Length {
		c, err := randomChar(string(pool))
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	if err := shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

// PassphraseConfig controls passphrase generation.
type PassphraseConfig struct {
	Words         int
	Separator     string
	Capitalize    bool
	IncludeNumber bool
}

// DefaultPassphraseConfig returns four hyphenated capitalized words
// with a trailing two-digit number.
func DefaultPassphraseConfig() PassphraseConfig {
	return PassphraseConfig{
		Words:         4,
		Separator:     "-",
		Capitalize:    true,
		IncludeNumber: true,
	}
}

// GeneratePassphrase joins randomly chosen dictionary words. Easier to
// remember than random characters at comparable entropy.
func GeneratePassphrase(cfg PassphraseConfig) (string, error) {
	if cfg.Words < 3 {
		return "", fmt.Errorf("%w: a passphrase needs at least 3 words", ErrInvalidConfig)
	}

	words := make([]string, cfg.Words)
	for i := range words {
		j, err := randomInt(len(wordlist))
		if err != nil {
			return "", err
		}
		w := wordlist[j]
		if cfg.Capitalize {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		words[i] = w
	}

	phrase := strings.Join(words, cfg.Separator)
	if cfg.IncludeNumber {
		n, err := randomInt(90)
		if err != nil {
			return "", err
		}
		phrase = fmt.Sprintf("%s%s%d", phrase, cfg.Separator, n+10)
	}
	return phrase, nil
}

func stripAmbiguous(set string, strip bool) string {
	if !strip {
		return set
	}
	var b strings.Builder
	for _, r := range set {
		if !strings.ContainsRune(ambiguous, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

// shuffle is a Fisher-Yates pass over b.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return err
		}
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
