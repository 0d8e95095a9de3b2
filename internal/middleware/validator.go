package middleware

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxDropSize caps how many paths one HTTP drop may carry.
const MaxDropSize = 500

// ValidateDropPath checks a single dropped path. Paths must be absolute, as
// a drag-and-drop host would deliver them.
func ValidateDropPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsAny(p, "\x00\n\r") {
		return fmt.Errorf("path contains control characters: %q", p)
	}
	if !filepath.IsAbs(p) {
		return fmt.Errorf("path must be absolute: %s", p)
	}
	return nil
}

// ValidateDrop checks the whole list from a drop request.
func ValidateDrop(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("paths is required")
	}
	if len(paths) > MaxDropSize {
		return fmt.Errorf("too many paths: %d (max %d)", len(paths), MaxDropSize)
	}
	for _, p := range paths {
		if err := ValidateDropPath(p); err != nil {
			return err
		}
	}
	return nil
}
