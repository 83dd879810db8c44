package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/dsl"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		location string
		want     Format
	}{
		{"app.pbfsm", FormatBinary},
		{"dir/APP.PBFSM", FormatBinary},
		{"flow.yaml", FormatYAML},
		{"flow.yml", FormatYAML},
		{"file:///tmp/flow.yaml", FormatYAML},
		{"flow.bin", FormatUnknown},
		{"flow", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.location))
		})
	}
}

func sample(t *testing.T) *domain.StateMachine {
	t.Helper()
	sm, err := dsl.FromInstructionList([]string{"take bread", "add ham"}, dsl.WithName("sandwich"))
	require.NoError(t, err)
	return sm
}

func TestParse_Sniffs(t *testing.T) {
	p := NewParser()
	sm := sample(t)

	bin, err := codec.Marshal(sm)
	require.NoError(t, err)
	yml, err := codec.MarshalYAML(sm)
	require.NoError(t, err)

	for name, data := range map[string][]byte{"binary": bin, "yaml": yml} {
		t.Run(name, func(t *testing.T) {
			got, err := p.Parse(FormatUnknown, data)
			require.NoError(t, err)
			assert.Equal(t, "sandwich", got.Name)
			assert.Len(t, got.States, 3)
		})
	}

	_, err = p.Parse(FormatBinary, []byte{0x0a, 0xff})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestReadWriteFile(t *testing.T) {
	ctx := context.Background()
	p := NewParser()
	dir := t.TempDir()
	sm := sample(t)

	for _, name := range []string{"out.pbfsm", "nested/out.yaml"} {
		t.Run(name, func(t *testing.T) {
			location := filepath.Join(dir, name)
			data, err := Encode(DetectFormat(location), sm)
			require.NoError(t, err)
			require.NoError(t, p.WriteFile(ctx, location, data))

			got, err := p.ReadFile(ctx, location)
			require.NoError(t, err)
			assert.Equal(t, sm.StartState, got.StartState)
			assert.Equal(t, sm.Names(), got.Names())
		})
	}

	raw, err := os.ReadFile(filepath.Join(dir, "nested/out.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name: sandwich")

	_, err = p.ReadFile(ctx, filepath.Join(dir, "missing.pbfsm"))
	assert.Error(t, err)
}
