package file

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/ports"
)

// DefaultDir is used when no directory is configured.
var DefaultDir = filepath.Join(".openworkflow", "documents")

// Store implements ports.DocumentStore on top of an afs file system.
// Each document is kept as <dir>/<name>.pbfsm, so the directory can be
// browsed and the files opened with any other .pbfsm tool.
type Store struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

var _ ports.DocumentStore = (*Store)(nil)

// New creates a store rooted at dir, creating the directory if needed.
// dir is a local path or any URL afs understands (mem://, s3://, ...).
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	fs := afs.New()
	ctx := context.Background()

	baseURL := url.Normalize(dir, file.Scheme)
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create document directory: %w", err)
		}
	}

	return &Store{
		baseURL: baseURL,
		fs:      fs,
	}, nil
}

// Save writes data to the document file.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	if err := ports.CheckDocumentName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.documentURL(name)
	if err := s.fs.Upload(ctx, target, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save document to %s: %w", target, err)
	}
	return nil
}

// Load reads the document file.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ports.CheckDocumentName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	target := s.documentURL(name)
	exists, err := s.fs.Exists(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to check document %s: %w", target, err)
	}
	if !exists {
		return nil, domain.ErrDocumentNotFound
	}

	data, err := s.fs.DownloadWithURL(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", target, err)
	}
	return data, nil
}

// Delete removes the document file.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ports.CheckDocumentName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.documentURL(name)
	exists, err := s.fs.Exists(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to check document %s: %w", target, err)
	}
	if !exists {
		return nil
	}
	if err := s.fs.Delete(ctx, target); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", target, err)
	}
	return nil
}

// List returns the names of the .pbfsm files of the directory, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	names := []string{}
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(object.Name(), codec.FileExtension); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) documentURL(name string) string {
	return url.Join(s.baseURL, name+codec.FileExtension)
}
