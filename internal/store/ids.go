package store

import (
	"strings"

	"github.com/google/uuid"
)

// newID returns a short prefixed identifier, e.g. "pt-9f1c03a2".
// Prefixes keep the ids self-describing in exported JSON.
func newID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
