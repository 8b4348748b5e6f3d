package oauth

import (
	"fmt"
	"io"

	"github.com/pkg/browser"
)

func init() {
	// xdg-open and friends are chatty; keep the terminal clean.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// OpenBrowser opens url in the default web browser.
func OpenBrowser(url string) error {
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
