package krypto

import "crypto/subtle"

// Wipe overwrites b with zeroes. Best effort only; the runtime may have
// made copies the caller cannot reach.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare reports whether a and b are equal without leaking
// how far the match got.
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
