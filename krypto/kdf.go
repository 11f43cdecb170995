package krypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 work factor applied to new vaults.
	DefaultIterations = 600_000
	// SaltLength is the enforced master salt length in bytes.
	SaltLength = 16
	// KeyLength is the length of derived keys and verifiers in bytes.
	KeyLength = 32
)

// Distinct expansion contexts keep the stored verifier unrelated to the
// encryption key even though both descend from one PBKDF2 pass.
var (
	infoEncryptionKey = []byte("credvault/v1/encryption-key")
	infoLoginVerifier = []byte("credvault/v1/login-verifier")
)

// Params captures tunable parameters for master key derivation.
type Params struct {
	Iterations int
	SaltLen    int
	KeyLen     int
}

// DefaultParams returns the derivation parameters for newly created vaults.
func DefaultParams() Params {
	return Params{
		Iterations: DefaultIterations,
		SaltLen:    SaltLength,
		KeyLen:     KeyLength,
	}
}

// DeriveKeys stretches the master password with PBKDF2-HMAC-SHA256 and
// expands the result into the encryption key and the login verifier.
// The verifier is safe to persist; it cannot be turned back into the key.
func DeriveKeys(password, salt []byte, p Params) (key, verifier []byte, err error) {
	if len(password) == 0 {
		return nil, nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if p.SaltLen <= 0 || p.KeyLen <= 0 || p.Iterations <= 0 {
		return nil, nil, fmt.Errorf("%w: non-positive derivation parameter", ErrInvalidInput)
	}
	if len(salt) != p.SaltLen {
		return nil, nil, fmt.Errorf("%w: salt must be %d bytes", ErrInvalidInput, p.SaltLen)
	}

	root := pbkdf2.Key(password, salt, p.Iterations, p.KeyLen, sha256.New)
	defer Wipe(root)

	key = make([]byte, p.KeyLen)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, root, infoEncryptionKey), key); err != nil {
		return nil, nil, fmt.Errorf("expand encryption key: %w", err)
	}

	verifier = make([]byte, p.KeyLen)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, root, infoLoginVerifier), verifier); err != nil {
		Wipe(key)
		return nil, nil, fmt.Errorf("expand login verifier: %w", err)
	}

	return key, verifier, nil
}

// NewRandomSalt returns a cryptographically secure random salt of n bytes.
func NewRandomSalt(n int) ([]byte, error) {
	if n <= 0 {
		n = SaltLength
	}
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}
