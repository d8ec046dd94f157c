package repository

import (
	"fmt"
	"os"
)

// SeedBytes returns the contents of path when set, falling back to the
// embedded seed otherwise.
func SeedBytes(path string, embedded []byte) ([]byte, error) {
	if path == "" {
		return embedded, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return raw, nil
}
