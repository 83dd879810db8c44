package ports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/ports"
)

func TestCheckDocumentName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{"sandwich", nil},
		{"my app.v2", nil},
		{"", domain.ErrEmptyName},
		{".", domain.ErrInvalidFormat},
		{"..", domain.ErrInvalidFormat},
		{"a/b", domain.ErrInvalidFormat},
		{`a\b`, domain.ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ports.CheckDocumentName(tt.name)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
