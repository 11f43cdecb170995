package krypto

import "errors"

var (
	// ErrInvalidInput reports a malformed argument, such as an empty
	// password, a salt of the wrong size, or a key that is not 32 bytes.
	ErrInvalidInput = errors.New("krypto: invalid input")

	// ErrAuthFailed reports that a blob could not be authenticated,
	// either because the key is wrong or because the data was altered.
	ErrAuthFailed = errors.New("krypto: authentication failed")
)
