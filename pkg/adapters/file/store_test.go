package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmusatyalab/OpenWorkflow/pkg/adapters/file"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/ports/tests"
)

func TestFileStore_Contract(t *testing.T) {
	store, err := file.New(t.TempDir())
	require.NoError(t, err)
	tests.RunDocumentStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "docs")
	store, err := file.New(dir)
	require.NoError(t, err, "missing directories are created")

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "sandwich", []byte("data")))

	onDisk, err := os.ReadFile(filepath.Join(dir, "sandwich.pbfsm"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), onDisk)

	// Foreign files are not documents.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pbfsm"), 0o755))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sandwich"}, names)
}

func TestFileStore_RejectsUnsafeNames(t *testing.T) {
	store, err := file.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, "../escape", []byte("x")), domain.ErrInvalidFormat)
	_, err = store.Load(ctx, "")
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}
