package zoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/schema"
)

func TestRegistry_Names(t *testing.T) {
	assert.Equal(t, []string{
		"DummyCallable",
		"FasterRCNNContainerCallable",
		"FasterRCNNOpenCVCallable",
		"TwoStageProcessor",
	}, Processors.Names())
	assert.Equal(t, []string{"Always", "HasObjectClass"}, Predicates.Names())
	assert.Equal(t, RolePredicate, ForRole(RolePredicate).Role())
}

func TestRegistry_Defaults(t *testing.T) {
	d, err := Processors.Defaults("FasterRCNNOpenCVCallable")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"proto_path":     "",
		"model_path":     "",
		"labels":         "",
		"conf_threshold": "0.8",
	}, d)

	// Callers get their own copy.
	d["conf_threshold"] = "0.1"
	again, _ := Processors.Defaults("FasterRCNNOpenCVCallable")
	assert.Equal(t, "0.8", again["conf_threshold"])

	none, err := Predicates.Defaults("Always")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = Predicates.Defaults("Sometimes")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		in       domain.Callable
		want     map[string]string
		wantErr  error
	}{
		{
			name:     "fills missing keys",
			registry: Predicates,
			in:       domain.Callable{Name: "p", CallableName: "HasObjectClass"},
			want:     map[string]string{"class_name": ""},
		},
		{
			name:     "drops stale keys",
			registry: Processors,
			in: domain.Callable{Name: "p", CallableName: "FasterRCNNContainerCallable", Args: map[string]string{
				"container_image_url": "registry/sandwich",
				"proto_path":          "left over from a type change",
			}},
			want: map[string]string{"container_image_url": "registry/sandwich", "conf_threshold": "0.5"},
		},
		{
			name:     "argument-less kind",
			registry: Predicates,
			in:       domain.Callable{Name: "p", CallableName: "Always", Args: map[string]string{"x": "y"}},
			want:     nil,
		},
		{
			name:     "unknown kind",
			registry: Processors,
			in:       domain.Callable{Name: "p", CallableName: "YOLO"},
			wantErr:  domain.ErrNotFound,
		},
		{
			name:     "wrong role",
			registry: Processors,
			in:       domain.Callable{Name: "p", CallableName: "Always"},
			wantErr:  domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.registry.Normalize(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in.Name, got.Name)
			assert.Equal(t, tt.want, got.Args)
		})
	}
}

func TestRegistry_NormalizeAll(t *testing.T) {
	out, err := Predicates.NormalizeAll(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = Predicates.NormalizeAll([]domain.Callable{{Name: "ok", CallableName: "Always"}, {Name: "bad", CallableName: "Never"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestRegistry_Decode(t *testing.T) {
	t.Run("weakly typed values", func(t *testing.T) {
		args, err := Processors.Decode(domain.Callable{
			Name:         "detector",
			CallableName: "FasterRCNNOpenCVCallable",
			Args: map[string]string{
				"proto_path":     "faster_rcnn_test.pt",
				"model_path":     "model.caffemodel",
				"labels":         "bread, ham,lettuce",
				"conf_threshold": "0.75",
			},
		})
		require.NoError(t, err)
		rcnn, ok := args.(FasterRCNNOpenCVCallable)
		require.True(t, ok, "got %T", args)
		assert.Equal(t, []string{"bread", "ham", "lettuce"}, rcnn.Labels)
		assert.InDelta(t, 0.75, rcnn.ConfThreshold, 1e-9)
	})

	t.Run("predicate", func(t *testing.T) {
		args, err := Predicates.Decode(domain.Callable{CallableName: "HasObjectClass", Args: map[string]string{"class_name": "bread"}})
		require.NoError(t, err)
		assert.Equal(t, HasObjectClass{ClassName: "bread"}, args)

		args, err = Predicates.Decode(domain.Callable{CallableName: "Always"})
		require.NoError(t, err)
		assert.Equal(t, Always{}, args)
	})

	t.Run("schema violations", func(t *testing.T) {
		_, err := Processors.Decode(domain.Callable{
			Name:         "c",
			CallableName: "FasterRCNNContainerCallable",
			Args:         map[string]string{"container_image_url": "x", "conf_threshold": "high"},
		})
		require.Error(t, err)
		assert.Len(t, schema.ValidationErrors(err), 1)

		_, err = Predicates.Decode(domain.Callable{CallableName: "HasObjectClass", Args: map[string]string{"class_name": "a", "extra": "b"}})
		assert.Error(t, err)
	})
}

func TestRegistry_Encode(t *testing.T) {
	c, err := Processors.Encode("detector", FasterRCNNOpenCVCallable{
		ProtoPath:     "p",
		ModelPath:     "m",
		Labels:        []string{"bread", "ham"},
		ConfThreshold: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Callable{
		Name:         "detector",
		CallableName: "FasterRCNNOpenCVCallable",
		Args: map[string]string{
			"proto_path":     "p",
			"model_path":     "m",
			"labels":         "bread,ham",
			"conf_threshold": "0.8",
		},
	}, c)

	back, err := Processors.Decode(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"bread", "ham"}, back.(FasterRCNNOpenCVCallable).Labels)

	always, err := Predicates.Encode("go", Always{})
	require.NoError(t, err)
	assert.Nil(t, always.Args)

	_, err = Predicates.Encode("x", TwoStageProcessor{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = Predicates.Encode("x", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedElementType)
}

func TestRegistry_Template(t *testing.T) {
	c, err := Processors.Template("default", "TwoStageProcessor")
	require.NoError(t, err)
	assert.Equal(t, "default", c.Name)
	assert.Len(t, c.Args, 3)
	assert.NoError(t, Processors.Check(c))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Processors")
	require.NoError(t, err)
	assert.Equal(t, RoleProcessor, r)
	assert.Equal(t, "predicate", RolePredicate.String())

	_, err = ParseRole("sensor")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_SetDefaults(t *testing.T) {
	r := Processors.Clone()

	require.NoError(t, r.SetDefaults("FasterRCNNOpenCVCallable", map[string]string{"labels": "bread, ham"}))
	d, err := r.Defaults("FasterRCNNOpenCVCallable")
	require.NoError(t, err)
	assert.Equal(t, "bread, ham", d["labels"])
	assert.Equal(t, "0.8", d["conf_threshold"], "existing defaults are kept")

	orig, err := Processors.Defaults("FasterRCNNOpenCVCallable")
	require.NoError(t, err)
	assert.Empty(t, orig["labels"], "the clone is independent")

	tests := []struct {
		name     string
		kind     string
		defaults map[string]string
		wantErr  error
	}{
		{"unknown kind", "Nope", map[string]string{"a": "b"}, domain.ErrNotFound},
		{"unknown key", "DummyCallable", map[string]string{"other": "x"}, nil},
		{"bad value", "FasterRCNNContainerCallable", map[string]string{"conf_threshold": "high"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.SetDefaults(tt.kind, tt.defaults)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var ve *schema.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}
