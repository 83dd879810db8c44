package openworkflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

func loadedEditor(t *testing.T, opts ...openworkflow.Option) *openworkflow.Editor {
	t.Helper()
	ed := openworkflow.New(opts...)
	require.NoError(t, ed.LoadInstructions([]string{"take bread", "add ham", "add lettuce"}))
	return ed
}

func TestEditor_Lifecycle(t *testing.T) {
	ed := openworkflow.New()
	assert.Equal(t, openworkflow.StatusEmpty, ed.Status())

	require.NoError(t, ed.LoadInstructions([]string{"one"}))
	assert.Equal(t, openworkflow.StatusLoaded, ed.Status())

	require.NoError(t, ed.AddState(openworkflow.StateForm{Name: "extra"}))
	assert.Equal(t, openworkflow.StatusModified, ed.Status())

	data, filename, err := ed.Export()
	require.NoError(t, err)
	assert.Equal(t, "app.pbfsm", filename)
	assert.NotEmpty(t, data)
	assert.Equal(t, openworkflow.StatusExported, ed.Status())

	ed.Reset()
	assert.Equal(t, openworkflow.StatusEmpty, ed.Status())
	assert.Empty(t, ed.Document().States)
	assert.Equal(t, "exported", openworkflow.StatusExported.String())
}

func TestEditor_Import(t *testing.T) {
	src := loadedEditor(t)
	data, _, err := src.Export()
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		ed := openworkflow.New()
		require.NoError(t, ed.Import(data))
		assert.Equal(t, src.Document(), ed.Document())
		assert.Equal(t, openworkflow.StatusLoaded, ed.Status())
	})

	t.Run("malformed keeps the previous document", func(t *testing.T) {
		ed := loadedEditor(t)
		before := ed.Document()

		err := ed.Import([]byte{0x0a, 0xff})
		assert.ErrorIs(t, err, domain.ErrInvalidFormat)
		assert.Equal(t, before, ed.Document())
	})

	t.Run("duplicate names are refused", func(t *testing.T) {
		dup := domain.New("dup")
		dup.AddState(domain.NewState("a"))
		dup.AddState(domain.NewState("a"))
		raw, err := codec.Marshal(dup)
		require.NoError(t, err)

		ed := loadedEditor(t)
		before := ed.Document()
		err = ed.Import(raw)
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
		assert.Contains(t, err.Error(), "a")
		assert.Equal(t, before, ed.Document())
	})
}

func TestEditor_Export_StartStateQuirk(t *testing.T) {
	ed := openworkflow.New()
	require.NoError(t, ed.AddState(openworkflow.StateForm{Name: "first"}))
	require.NoError(t, ed.AddState(openworkflow.StateForm{Name: "second"}))
	assert.Empty(t, ed.Document().StartState)

	data, _, err := ed.Export()
	require.NoError(t, err)
	assert.Equal(t, "first", ed.Document().StartState)

	sm, err := codec.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "first", sm.StartState)
}

func TestEditor_Export_NormalizesCallables(t *testing.T) {
	sm := domain.New("raw")
	sm.StartState = "a"
	sm.AddState(domain.NewState("a", domain.Callable{
		Name:         "det",
		CallableName: "FasterRCNNContainerCallable",
		Args:         map[string]string{"container_image_url": "img", "stale": "x"},
	}, domain.Callable{Name: "custom", CallableName: "SomethingElse", Args: map[string]string{"k": "v"}}))

	ed := openworkflow.New(openworkflow.WithDocument(sm))
	data, _, err := ed.Export()
	require.NoError(t, err)

	got, err := codec.Unmarshal(data)
	require.NoError(t, err)
	procs := got.States[0].Processors
	assert.Equal(t, map[string]string{"container_image_url": "img", "conf_threshold": "0.5"}, procs[0].Args)
	assert.Equal(t, map[string]string{"k": "v"}, procs[1].Args, "unknown kinds are kept")
}

func TestEditor_AddState(t *testing.T) {
	ed := loadedEditor(t)

	tests := []struct {
		name    string
		form    openworkflow.StateForm
		wantErr error
	}{
		{"empty name", openworkflow.StateForm{}, domain.ErrEmptyName},
		{"clashes with a state", openworkflow.StateForm{Name: "step1"}, domain.ErrDuplicateName},
		{"clashes with a transition", openworkflow.StateForm{Name: "step1-to-step2"}, domain.ErrDuplicateName},
		{"unknown processor", openworkflow.StateForm{Name: "x", Processors: []domain.Callable{{Name: "p", CallableName: "Nope"}}}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ed.Document()
			assert.ErrorIs(t, ed.AddState(tt.form), tt.wantErr)
			assert.Equal(t, before, ed.Document())
		})
	}

	t.Run("normalizes processors", func(t *testing.T) {
		require.NoError(t, ed.AddState(openworkflow.StateForm{
			Name:       "done",
			Processors: []domain.Callable{{Name: "d", CallableName: "DummyCallable"}},
			Start:      true,
		}))
		doc := ed.Document()
		s, ok := doc.State("done")
		require.True(t, ok)
		assert.Equal(t, map[string]string{"dummy_input": "dummy_input_value"}, s.Processors[0].Args)
		assert.Equal(t, "done", doc.StartState)
	})
}

func TestEditor_UpdateState_RenameCascades(t *testing.T) {
	ed := loadedEditor(t)

	require.NoError(t, ed.UpdateState("step2", openworkflow.StateForm{Name: "ham"}))

	doc := ed.Document()
	_, ok := doc.State("step2")
	assert.False(t, ok)
	tr, _ := doc.Transition("step1-to-step2")
	assert.Equal(t, "ham", tr.NextState)
	assert.NoError(t, doc.Validate())

	assert.ErrorIs(t, ed.UpdateState("missing", openworkflow.StateForm{Name: "x"}), domain.ErrNotFound)
	assert.ErrorIs(t, ed.UpdateState("ham", openworkflow.StateForm{Name: "step1"}), domain.ErrDuplicateName)

	require.NoError(t, ed.UpdateState("start", openworkflow.StateForm{Name: "begin"}))
	assert.Equal(t, "begin", ed.Document().StartState)
}

func TestEditor_Transitions(t *testing.T) {
	ed := loadedEditor(t)

	form := openworkflow.TransitionForm{
		Name:        "step3-to-step1",
		From:        "step3",
		To:          "step1",
		Instruction: domain.Instruction{Audio: "again"},
		Predicates:  []domain.Callable{{Name: "has", CallableName: "HasObjectClass"}},
	}
	require.NoError(t, ed.AddTransition(form))

	doc := ed.Document()
	tr, ok := doc.Transition("step3-to-step1")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"class_name": ""}, tr.Predicates[0].Args)
	assert.Equal(t, 4, doc.TransitionCount())

	t.Run("dangling target", func(t *testing.T) {
		bad := form
		bad.Name, bad.To = "other", "nowhere"
		assert.ErrorIs(t, ed.AddTransition(bad), domain.ErrNotFound)
	})

	t.Run("unknown source", func(t *testing.T) {
		bad := form
		bad.Name, bad.From = "other", "nowhere"
		assert.ErrorIs(t, ed.AddTransition(bad), domain.ErrNotFound)
	})

	t.Run("move and rename", func(t *testing.T) {
		moved := form
		moved.Name = "loop"
		moved.From = "step2"
		require.NoError(t, ed.UpdateTransition("step3-to-step1", moved))

		doc := ed.Document()
		tr, ok := doc.Transition("loop")
		require.True(t, ok)
		owner, _ := doc.Owner(tr)
		assert.Equal(t, "step2", owner.Name)
		assert.Equal(t, 4, doc.TransitionCount())
	})

	t.Run("retarget", func(t *testing.T) {
		f := openworkflow.TransitionForm{Name: "loop", From: "step2", To: "start"}
		require.NoError(t, ed.UpdateTransition("loop", f))
		tr, _ := ed.Document().Transition("loop")
		assert.Equal(t, "start", tr.NextState)
		assert.Nil(t, tr.Predicates)

		f.To = "nowhere"
		assert.ErrorIs(t, ed.UpdateTransition("loop", f), domain.ErrNotFound)
	})
}

func TestEditor_Delete(t *testing.T) {
	ed := loadedEditor(t)

	assert.ErrorIs(t, ed.Delete("step2"), domain.ErrUnsafeDelete)
	assert.ErrorIs(t, ed.Delete("ghost"), domain.ErrNotFound)

	require.NoError(t, ed.Delete("step2-to-step3"))
	require.NoError(t, ed.Delete("step3"))

	doc := ed.Document()
	assert.Len(t, doc.States, 3)
	assert.NoError(t, doc.Validate())
}

func TestEditor_Select(t *testing.T) {
	ed := loadedEditor(t)

	el, err := ed.Select("step1-to-step2")
	require.NoError(t, err)
	tr, ok := el.(*domain.Transition)
	require.True(t, ok)
	assert.Equal(t, "step2", tr.NextState)
	assert.Equal(t, "step1-to-step2", ed.Selected())

	// The selection is a copy.
	tr.NextState = "elsewhere"
	live, _ := ed.Document().Transition("step1-to-step2")
	assert.Equal(t, "step2", live.NextState)

	require.NoError(t, ed.Delete("step1-to-step2"))
	assert.Empty(t, ed.Selected())

	_, err = ed.Select("nothing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditor_UndoRedo(t *testing.T) {
	ed := loadedEditor(t)
	assert.ErrorIs(t, ed.Undo(), openworkflow.ErrNothingToUndo)
	original := ed.Document()

	require.NoError(t, ed.AddState(openworkflow.StateForm{Name: "a"}))
	require.NoError(t, ed.AddState(openworkflow.StateForm{Name: "b"}))
	afterB := ed.Document()

	require.NoError(t, ed.Undo())
	require.NoError(t, ed.Undo())
	assert.Equal(t, original, ed.Document())
	assert.False(t, ed.CanUndo())

	require.NoError(t, ed.Redo())
	require.NoError(t, ed.Redo())
	assert.Equal(t, afterB, ed.Document())
	assert.ErrorIs(t, ed.Redo(), openworkflow.ErrNothingToRedo)

	// A failed edit does not create a snapshot.
	require.Error(t, ed.AddState(openworkflow.StateForm{Name: "a"}))
	require.NoError(t, ed.Undo())
	_, ok := ed.Document().State("b")
	assert.False(t, ok)

	// A new edit drops the redo stack.
	require.NoError(t, ed.AddState(openworkflow.StateForm{Name: "c"}))
	assert.False(t, ed.CanRedo())
}

func TestEditor_HistoryLimit(t *testing.T) {
	ed := loadedEditor(t, openworkflow.WithHistoryLimit(2))
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, ed.AddState(openworkflow.StateForm{Name: name}))
	}
	require.NoError(t, ed.Undo())
	require.NoError(t, ed.Undo())
	assert.ErrorIs(t, ed.Undo(), openworkflow.ErrNothingToUndo)

	_, ok := ed.Document().State("a")
	assert.True(t, ok, "the oldest snapshot fell off")
}

func TestEditor_DefaultProcessors(t *testing.T) {
	ed := openworkflow.New()
	assert.Equal(t, "TwoStageProcessor", ed.DefaultProcessors()[0].CallableName)

	require.NoError(t, ed.SetDefaultProcessors(domain.Callable{Name: "dummy", CallableName: "DummyCallable"}))
	require.NoError(t, ed.LoadInstructions([]string{"one", "two"}))

	s, _ := ed.Document().State("step1")
	require.Len(t, s.Processors, 1)
	assert.Equal(t, "dummy_input_value", s.Processors[0].Args["dummy_input"])

	assert.ErrorIs(t, ed.SetDefaultProcessors(domain.Callable{CallableName: "Nope"}), domain.ErrNotFound)
}

func TestEditor_Hooks(t *testing.T) {
	var edits, imports, exports []*domain.EditEvent
	ed := openworkflow.New(openworkflow.WithHooks(domain.Hooks{
		OnEdit:   func(e *domain.EditEvent) { edits = append(edits, e) },
		OnImport: func(e *domain.EditEvent) { imports = append(imports, e) },
		OnExport: func(e *domain.EditEvent) { exports = append(exports, e) },
	}))

	require.NoError(t, ed.AddState(openworkflow.StateForm{Name: "a"}))
	_ = ed.AddState(openworkflow.StateForm{Name: "a"})
	data, _, err := ed.Export()
	require.NoError(t, err)
	require.NoError(t, ed.Import(data))
	_ = ed.Import([]byte{0xff})

	require.Len(t, edits, 2)
	assert.Equal(t, domain.EventStateAdded, edits[0].Type)
	assert.NoError(t, edits[0].Err)
	assert.ErrorIs(t, edits[1].Err, domain.ErrDuplicateName)

	require.Len(t, exports, 1)
	assert.Equal(t, len(data), exports[0].Bytes)

	require.Len(t, imports, 2)
	assert.NoError(t, imports[0].Err)
	assert.ErrorIs(t, imports[1].Err, domain.ErrInvalidFormat)
}

func TestEditor_SetName(t *testing.T) {
	ed := openworkflow.New()
	assert.Equal(t, "app", ed.Name())
	require.NoError(t, ed.SetName("sandwich"))
	assert.Equal(t, "sandwich", ed.Name())
	assert.ErrorIs(t, ed.SetName(""), domain.ErrEmptyName)
}

func TestEditor_WithDefaultProcessors(t *testing.T) {
	ed := openworkflow.New(openworkflow.WithDefaultProcessors(
		domain.Callable{Name: "det", CallableName: "FasterRCNNContainerCallable"},
	))
	got := ed.DefaultProcessors()
	require.Len(t, got, 1)
	assert.Equal(t, "0.5", got[0].Args["conf_threshold"])

	fallback := openworkflow.New(openworkflow.WithDefaultProcessors(domain.Callable{CallableName: "Nope"}))
	assert.Equal(t, "TwoStageProcessor", fallback.DefaultProcessors()[0].CallableName)
}
