// Package idgen generates names for documents uploaded without one.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// DocumentName returns a random name such as "doc-1b4e28ba".
func DocumentName() string {
	return "doc-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// Unique returns a DocumentName for which taken reports false.
// It falls back to a full UUID after a few collisions.
func Unique(taken func(string) bool) string {
	for range 3 {
		if name := DocumentName(); !taken(name) {
			return name
		}
	}
	return "doc-" + uuid.NewString()
}
