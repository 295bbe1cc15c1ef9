package id

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a prefixed opaque id, e.g. "cus-4f9a...". The prefix keeps
// logs and backup files readable; nothing parses it back.
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
