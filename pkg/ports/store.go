package ports

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// DocumentStore persists encoded documents keyed by name.
// Stores hold opaque bytes; decoding is left to the caller.
type DocumentStore interface {
	// Save writes data under name, replacing any previous content.
	Save(ctx context.Context, name string, data []byte) error

	// Load returns the bytes stored under name.
	// Returns domain.ErrDocumentNotFound if nothing is stored there.
	Load(ctx context.Context, name string) ([]byte, error)

	// Delete removes name. Deleting an unknown name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the stored names, sorted.
	List(ctx context.Context) ([]string, error)
}

// CheckDocumentName rejects names that cannot be used as store keys:
// empty names, path separators and dot segments.
func CheckDocumentName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: document name", domain.ErrEmptyName)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: document name %q", domain.ErrInvalidFormat, name)
	}
	return nil
}
