// Package compiler reads and writes document files in either of the two
// on-disk formats: binary .pbfsm and the YAML authoring format.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// Format is an on-disk document format.
type Format int

const (
	// FormatUnknown is reported for unrecognized extensions. Parse sniffs
	// the content instead.
	FormatUnknown Format = iota
	FormatBinary
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "pbfsm"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// DetectFormat picks the format from the file extension.
func DetectFormat(location string) Format {
	switch strings.ToLower(path.Ext(location)) {
	case codec.FileExtension:
		return FormatBinary
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatUnknown
}

// Parser loads documents through afs, so locations can be local paths or
// any URL afs supports.
type Parser struct {
	fs afs.Service
}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{fs: afs.New()}
}

// Parse decodes data according to format. Unknown formats are tried as
// binary first, then as YAML.
func (p *Parser) Parse(format Format, data []byte) (*domain.StateMachine, error) {
	switch format {
	case FormatBinary:
		return codec.Unmarshal(data)
	case FormatYAML:
		return codec.UnmarshalYAML(data)
	}
	sm, err := codec.Unmarshal(data)
	if err == nil {
		return sm, nil
	}
	if yamlDoc, yamlErr := codec.UnmarshalYAML(data); yamlErr == nil {
		return yamlDoc, nil
	}
	return nil, err
}

// ReadFile loads and decodes the document at location.
func (p *Parser) ReadFile(ctx context.Context, location string) (*domain.StateMachine, error) {
	data, err := p.fs.DownloadWithURL(ctx, url.Normalize(location, file.Scheme))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	sm, err := p.Parse(DetectFormat(location), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return sm, nil
}

// Encode encodes sm in format. Unknown formats encode as binary.
func Encode(format Format, sm *domain.StateMachine) ([]byte, error) {
	if format == FormatYAML {
		return codec.MarshalYAML(sm)
	}
	return codec.Marshal(sm)
}

// WriteFile writes data to location, creating parent directories.
func (p *Parser) WriteFile(ctx context.Context, location string, data []byte) error {
	if err := p.fs.Upload(ctx, url.Normalize(location, file.Scheme), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}
