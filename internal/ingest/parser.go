package ingest

import (
	"fmt"
	"strings"
)

// Historical record tables are small and curated, so every malformed row is
// an error rather than a skip: a silently dropped year would bias every fit
// downstream.

func validateHeader(header, expected []string) error {
	if len(header) < len(expected) {
		return fmt.Errorf("expected at least %d columns, got %d", len(expected), len(header))
	}

	for i, col := range expected {
		if strings.TrimSpace(header[i]) != col {
			return fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}

	return nil
}
