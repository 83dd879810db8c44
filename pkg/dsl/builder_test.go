package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	detector := domain.Callable{
		Name:         "detector",
		CallableName: "FasterRCNNContainerCallable",
		Args:         map[string]string{"container_image_url": "registry/sandwich", "conf_threshold": "0.5"},
	}

	b := New("sandwich")

	b.State("start").Start().
		Go("start-to-bread", "bread").
		When(Always()).
		Say("Put a piece of bread on the table.")

	b.State("bread").
		Process(detector).
		Go("bread-to-ham", "ham").
		When(HasObjectClass("bread")).
		Say("Now put ham on the bread.").
		Video("https://example.com/ham.mp4")

	b.State("ham").Terminal()

	sm, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "sandwich", sm.Name)
	assert.Equal(t, "start", sm.StartState)
	require.Len(t, sm.States, 3)
	assert.Equal(t, []string{"start", "start-to-bread", "bread", "bread-to-ham", "ham"}, sm.Names())

	tr, ok := sm.Transition("bread-to-ham")
	require.True(t, ok)
	assert.Equal(t, "ham", tr.NextState)
	assert.Equal(t, "Now put ham on the bread.", tr.Instruction.Audio)
	assert.Equal(t, "https://example.com/ham.mp4", tr.Instruction.VideoRef())
	assert.Equal(t, map[string]string{"class_name": "bread"}, tr.Predicates[0].Args)

	bread, _ := sm.State("bread")
	assert.Equal(t, []domain.Callable{detector}, bread.Processors)

	// Documents are independent of the builder and of each other.
	bread.Processors[0].Args["conf_threshold"] = "0.9"
	again, err := b.Build()
	require.NoError(t, err)
	againBread, _ := again.State("bread")
	assert.Equal(t, "0.5", againBread.Processors[0].Args["conf_threshold"])
}

func TestBuilder_StateIsIdempotent(t *testing.T) {
	b := New("x")
	first := b.State("a")
	assert.Same(t, first, b.State("a"))

	tb := first.Go("a-to-a", "a")
	assert.Same(t, first, tb.From())
}

func TestBuilder_Invalid(t *testing.T) {
	t.Run("dangling target", func(t *testing.T) {
		b := New("x")
		b.State("a").Go("a-to-b", "b")
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("transition named like a state", func(t *testing.T) {
		b := New("x")
		b.State("a").Go("b", "b")
		b.State("b")
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
	})
}
