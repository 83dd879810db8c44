package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

func sandwich() *domain.StateMachine {
	sm := domain.New("sandwich")
	sm.StartState = "start"
	sm.AddState(domain.NewState("start"))
	sm.AddState(domain.NewState("bread", domain.Callable{
		Name:         "detector",
		CallableName: "FasterRCNNOpenCVCallable",
		Args: map[string]string{
			"proto_path":     "faster_rcnn_test.pt",
			"model_path":     "model.caffemodel",
			"labels":         "bread,ham,lettuce",
			"conf_threshold": "0.8",
		},
	}))
	sm.AddState(domain.NewState("ham"))
	_ = sm.AddTransition("start", domain.NewTransition("start-to-bread", "bread",
		domain.Instruction{Audio: "Put a piece of bread on the table."},
		domain.Callable{Name: "always", CallableName: "Always"}))
	_ = sm.AddTransition("bread", domain.NewTransition("bread-to-ham", "ham",
		domain.Instruction{Name: "ham", Audio: "Now put ham on it.", Image: []byte{0x89, 'P', 'N', 'G'}, Video: []byte("https://example.com/ham.mp4")},
		domain.Callable{Name: "has-bread", CallableName: "HasObjectClass", Args: map[string]string{"class_name": "bread"}}))
	sm.Assets = map[string][]byte{"logo": {0, 1, 2}}
	return sm
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  func() *domain.StateMachine
	}{
		{"sandwich", sandwich},
		{"empty", func() *domain.StateMachine { return domain.New("") }},
		{"single state", func() *domain.StateMachine {
			sm := domain.New("one")
			sm.StartState = "only"
			sm.AddState(domain.NewState("only"))
			return sm
		}},
		{"self loop", func() *domain.StateMachine {
			sm := domain.New("loop")
			sm.StartState = "s"
			sm.AddState(domain.NewState("s"))
			_ = sm.AddTransition("s", domain.NewTransition("again", "s", domain.Instruction{}))
			return sm
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := tt.doc()
			data, err := Marshal(sm)
			require.NoError(t, err)

			got, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, sm, got)
		})
	}
}

func TestMarshal_DefaultsStartState(t *testing.T) {
	sm := sandwich()
	sm.StartState = ""

	data, err := Marshal(sm)
	require.NoError(t, err)
	assert.Equal(t, "start", sm.StartState, "the encoder fills in the first state")

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "start", got.StartState)

	empty := domain.New("x")
	_, err = Marshal(empty)
	require.NoError(t, err)
	assert.Empty(t, empty.StartState)
}

func TestMarshal_Deterministic(t *testing.T) {
	a, err := Marshal(sandwich())
	require.NoError(t, err)
	for range 5 {
		b, err := Marshal(sandwich())
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestMarshal_EmptyArgsWrittenAsObject(t *testing.T) {
	msg, err := appendCallable(nil, domain.Callable{Name: "go", CallableName: "Always"})
	require.NoError(t, err)

	var args string
	require.NoError(t, walk(msg, 3, func(num protowire.Number, v []byte) error {
		if num == fieldCallableArgs {
			args = string(v)
		}
		return nil
	}))
	assert.Equal(t, "{}", args)
}

func TestUnmarshal_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"truncated length", []byte{0x0a, 0x05, 'a'}},
		{"bad tag", []byte{0xff}},
		{"known field with varint type", []byte{0x08, 0x01}},
		{"field number zero", []byte{0x02, 0x00}},
		{"state with bad nested field", protowire.AppendBytes(protowire.AppendTag(nil, 2, protowire.BytesType), []byte{0x0a, 0x09})},
		{"invalid utf-8 name", protowire.AppendBytes(protowire.AppendTag(nil, 1, protowire.BytesType), []byte{0xc3, 0x28})},
		{"callable args not json", machineWithArgs("not json")},
		{"callable args array", machineWithArgs(`["a"]`)},
		{"callable args trailing data", machineWithArgs(`{"a":"b"} {}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := Unmarshal(tt.data)
			assert.ErrorIs(t, err, domain.ErrInvalidFormat)
			assert.Nil(t, sm)
		})
	}
}

// machineWithArgs builds StateMachine{states: [State{name: "s", processors: [{callable_args: args}]}]}.
func machineWithArgs(args string) []byte {
	var callable []byte
	callable = protowire.AppendTag(callable, fieldCallableName, protowire.BytesType)
	callable = protowire.AppendString(callable, "p")
	callable = protowire.AppendTag(callable, fieldCallableArgs, protowire.BytesType)
	callable = protowire.AppendString(callable, args)

	var state []byte
	state = protowire.AppendTag(state, fieldStateName, protowire.BytesType)
	state = protowire.AppendString(state, "s")
	state = protowire.AppendTag(state, fieldStateProcessors, protowire.BytesType)
	state = protowire.AppendBytes(state, callable)

	var machine []byte
	machine = protowire.AppendTag(machine, fieldMachineStates, protowire.BytesType)
	return protowire.AppendBytes(machine, state)
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	data, err := Marshal(sandwich())
	require.NoError(t, err)

	data = protowire.AppendTag(data, 15, protowire.VarintType)
	data = protowire.AppendVarint(data, 42)
	data = protowire.AppendTag(data, 16, protowire.BytesType)
	data = protowire.AppendString(data, "future field")
	data = protowire.AppendTag(data, 17, protowire.Fixed32Type)
	data = protowire.AppendFixed32(data, 7)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, sandwich(), got)
}

func TestUnmarshal_Empty(t *testing.T) {
	sm, err := Unmarshal(nil)
	require.NoError(t, err)
	assert.Empty(t, sm.States)
	assert.True(t, sm.ValidateNames())
}

func TestUnmarshal_DoesNotValidateNames(t *testing.T) {
	sm := domain.New("dups")
	sm.AddState(domain.NewState("same"))
	sm.AddState(domain.NewState("same"))
	data, err := Marshal(sm)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.False(t, got.ValidateNames())
}

func TestDecodeArgs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"strings", `{"class_name":"bread"}`, map[string]string{"class_name": "bread"}},
		{"numbers keep their text", `{"conf_threshold": 0.8, "n": 10}`, map[string]string{"conf_threshold": "0.8", "n": "10"}},
		{"bool and null", `{"a": true, "b": null}`, map[string]string{"a": "true", "b": ""}},
		{"lists", `{"labels": ["bread", "ham", 3]}`, map[string]string{"labels": "bread,ham,3"}},
		{"nested object", `{"opts": {"k": 1}}`, map[string]string{"opts": `{"k":1}`}},
		{"empty object", `{}`, nil},
		{"empty string", ``, nil},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeArgs([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeArgs([]byte(`42`))
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}
