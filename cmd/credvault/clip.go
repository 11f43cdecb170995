package main

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
)

// clipboardClearAfter bounds how long a copied password stays on the
// system clipboard.
const clipboardClearAfter = 15 * time.Second

// copyToClipboard places secret on the clipboard and schedules a clear.
// The clear is skipped when the user has copied something else in the
// meantime.
func copyToClipboard(secret string) error {
	if err := clipboard.WriteAll(secret); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	time.AfterFunc(clipboardClearAfter, func() {
		current, err := clipboard.ReadAll()
		if err == nil && current == secret {
			_ = clipboard.WriteAll("")
		}
	})
	return nil
}
