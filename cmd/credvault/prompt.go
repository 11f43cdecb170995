package main

import (
	"bytes"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/credvault/credvault/krypto"
)

// passwordEnv supplies the master password non-interactively. Prompts
// that set a new password never read it; see promptNewPassword.
const passwordEnv = "CREDVAULT_PASSWORD"

func passwordFromEnv() []byte {
	pw := os.Getenv(passwordEnv)
	if pw == "" {
		return nil
	}
	return []byte(pw)
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// promptPassword returns the master password from CREDVAULT_PASSWORD
// when set, otherwise reads it from the terminal without echo.
func promptPassword(prompt string) ([]byte, error) {
	if pw := passwordFromEnv(); pw != nil {
		return pw, nil
	}
	return readPassword(prompt)
}

// promptNewPassword reads a password twice and requires both entries to
// match. It always prompts; a password being set must not come from the
// environment variable that holds the current one.
func promptNewPassword(prompt, confirmPrompt string) ([]byte, error) {
	pw, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}

	confirm, err := readPassword(confirmPrompt)
	if err != nil {
		krypto.Wipe(pw)
		return nil, err
	}
	defer krypto.Wipe(confirm)

	if !bytes.Equal(pw, confirm) {
		krypto.Wipe(pw)
		return nil, userError{msg: "passwords do not match"}
	}
	return pw, nil
}
