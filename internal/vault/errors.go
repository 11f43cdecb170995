package vault

import "errors"

var (
	// ErrInvalidInput reports malformed arguments, such as an empty
	// master password or a record without a site name.
	ErrInvalidInput = errors.New("vault: invalid input")

	// ErrInvalidCredentials reports a wrong master password on unlock
	// or change. It carries no detail about the cause.
	ErrInvalidCredentials = errors.New("vault: invalid credentials")

	// ErrAlreadyInitialized reports an Initialize call on a vault that
	// already holds a master configuration.
	ErrAlreadyInitialized = errors.New("vault: already initialized")

	// ErrNotInitialized reports an operation that needs a master
	// configuration before one was created.
	ErrNotInitialized = errors.New("vault: not initialized")

	// ErrSessionLocked reports an operation on a session whose key is
	// gone, either through Lock or a master password change.
	ErrSessionLocked = errors.New("vault: session locked")

	// ErrRecordNotFound reports an id that matches no stored record.
	ErrRecordNotFound = errors.New("vault: record not found")
)
