package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmusatyalab/OpenWorkflow/pkg/adapters/memory"
	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/persistence/middleware"
)

func TestRedactionMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewRedactionMiddleware([]string{"_url$", "token"})
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	sm := domain.New("secrets")
	sm.AddState(domain.NewState("detect", domain.Callable{
		Name:         "detector",
		CallableName: "FasterRCNNContainerCallable",
		Args: map[string]string{
			"container_image_url": "user:pass@registry/model",
			"conf_threshold":      "0.5",
		},
	}))
	data, err := codec.Marshal(sm)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "secrets", data))

	stored, err := store.Load(ctx, "secrets")
	require.NoError(t, err)
	got, err := codec.Unmarshal(stored)
	require.NoError(t, err)
	args := got.States[0].Processors[0].Args
	assert.Equal(t, middleware.Mask, args["container_image_url"])
	assert.Equal(t, "0.5", args["conf_threshold"])
}

func TestRedactionMiddleware_UnchangedBytes(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewRedactionMiddleware([]string{"password"})
	require.NoError(t, err)
	ctx := context.Background()

	sm := domain.New("plain")
	sm.AddState(domain.NewState("only"))
	data, err := codec.Marshal(sm)
	require.NoError(t, err)

	require.NoError(t, mw(underlying).Save(ctx, "plain", data))
	stored, err := underlying.Load(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestRedactionMiddleware_RejectsInvalid(t *testing.T) {
	_, err := middleware.NewRedactionMiddleware([]string{"("})
	assert.Error(t, err)

	mw, err := middleware.NewRedactionMiddleware(nil)
	require.NoError(t, err)
	err = mw(memory.NewStore()).Save(context.Background(), "bad", []byte{0x0a, 0xff})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestChain(t *testing.T) {
	underlying := memory.NewStore()
	redact, err := middleware.NewRedactionMiddleware([]string{"token"})
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	store := middleware.Chain(underlying, redact, encrypt)
	ctx := context.Background()

	sm := domain.New("chained")
	sm.AddState(domain.NewState("s", domain.Callable{Name: "p", CallableName: "DummyCallable", Args: map[string]string{"api_token": "xyz"}}))
	data, err := codec.Marshal(sm)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "chained", data))

	raw, err := underlying.Load(ctx, "chained")
	require.NoError(t, err)
	_, err = codec.Unmarshal(raw)
	assert.Error(t, err, "backend holds the encrypted envelope")

	loaded, err := store.Load(ctx, "chained")
	require.NoError(t, err)
	got, err := codec.Unmarshal(loaded)
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, got.States[0].Processors[0].Args["api_token"])
}
