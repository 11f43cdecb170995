package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateMasterPassword(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		ok   bool
	}{
		{"too short", "Ab1!", false},
		{"no uppercase", "abcdefgh1234!", false},
		{"no digit", "Abcdefghijkl!", false},
		{"no special", "Abcdefghijkl1", false},
		{"meets policy", "Abcdefghijk1!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMasterPassword(tt.pw)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrWeakPassword)
			}
		})
	}
}

func TestValidateMasterPasswordAdvanced_ScoreGate(t *testing.T) {
	ctx := context.Background()

	// Policy-compliant but trivially guessable.
	err := ValidateMasterPasswordAdvanced(ctx, "Password123!", ValidateOptions{MinZXCVBNScore: 4})
	require.ErrorIs(t, err, ErrWeakPassword)

	// Long random material clears the strictest gate.
	err = ValidateMasterPasswordAdvanced(ctx, "fXk9#Qz2vM$7Lp&wR3!u", ValidateOptions{MinZXCVBNScore: 4})
	require.NoError(t, err)

	// Zero disables the gate entirely.
	err = ValidateMasterPasswordAdvanced(ctx, "Password123!", ValidateOptions{})
	require.NoError(t, err)
}

func TestValidateMasterPasswordAdvanced_StaticPolicyFirst(t *testing.T) {
	err := ValidateMasterPasswordAdvanced(context.Background(), "short", ValidateOptions{MinZXCVBNScore: 4})
	require.ErrorIs(t, err, ErrWeakPassword)
}
