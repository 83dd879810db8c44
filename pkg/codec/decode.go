package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// Unmarshal parses a binary document.
//
// Malformed input fails with domain.ErrInvalidFormat. Unknown fields are
// skipped. Name uniqueness is not checked here; callers that edit the result
// should call ValidateNames.
func Unmarshal(data []byte) (*domain.StateMachine, error) {
	sm := &domain.StateMachine{}
	err := walk(data, 4, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldMachineName:
			return readString(v, &sm.Name)
		case fieldMachineStates:
			s, err := readState(v)
			if err != nil {
				return err
			}
			sm.States = append(sm.States, s)
		case fieldMachineAssets:
			return readAsset(v, sm)
		case fieldMachineStart:
			return readString(v, &sm.StartState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sm, nil
}

func readState(msg []byte) (*domain.State, error) {
	s := &domain.State{}
	err := walk(msg, 3, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldStateName:
			return readString(v, &s.Name)
		case fieldStateProcessors:
			c, err := readCallable(v)
			if err != nil {
				return err
			}
			s.Processors = append(s.Processors, c)
		case fieldStateTransitions:
			t, err := readTransition(v)
			if err != nil {
				return err
			}
			s.Transitions = append(s.Transitions, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	return s, nil
}

func readTransition(msg []byte) (*domain.Transition, error) {
	t := &domain.Transition{}
	err := walk(msg, 4, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldTransitionName:
			return readString(v, &t.Name)
		case fieldTransitionPredicates:
			c, err := readCallable(v)
			if err != nil {
				return err
			}
			t.Predicates = append(t.Predicates, c)
		case fieldTransitionInstruction:
			// A repeated occurrence of an embedded message merges into the previous one.
			return readInstruction(v, &t.Instruction)
		case fieldTransitionNext:
			return readString(v, &t.NextState)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}
	return t, nil
}

func readInstruction(msg []byte, in *domain.Instruction) error {
	return walk(msg, 4, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldInstructionName:
			return readString(v, &in.Name)
		case fieldInstructionAudio:
			return readString(v, &in.Audio)
		case fieldInstructionImage:
			in.Image = readBytes(v)
		case fieldInstructionVideo:
			in.Video = readBytes(v)
		}
		return nil
	})
}

func readCallable(msg []byte) (domain.Callable, error) {
	var c domain.Callable
	err := walk(msg, 3, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldCallableName:
			return readString(v, &c.Name)
		case fieldCallableType:
			return readString(v, &c.CallableName)
		case fieldCallableArgs:
			args, err := DecodeArgs(v)
			if err != nil {
				return err
			}
			c.Args = args
		}
		return nil
	})
	if err != nil {
		return c, fmt.Errorf("callable: %w", err)
	}
	return c, nil
}

func readAsset(msg []byte, sm *domain.StateMachine) error {
	var key string
	var value []byte
	err := walk(msg, 2, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldMapKey:
			return readString(v, &key)
		case fieldMapValue:
			value = readBytes(v)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("asset: %w", err)
	}
	if sm.Assets == nil {
		sm.Assets = make(map[string][]byte)
	}
	sm.Assets[key] = value
	return nil
}

// walk calls fn with the payload of every length-delimited field numbered
// 1..maxField. Fields above maxField are skipped; a known field number with a
// different wire type is malformed.
func walk(msg []byte, maxField protowire.Number, fn func(protowire.Number, []byte) error) error {
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return malformed(n)
		}
		msg = msg[n:]

		if num > maxField || typ != protowire.BytesType {
			if num <= maxField {
				return fmt.Errorf("%w: field %d has wire type %d", domain.ErrInvalidFormat, num, typ)
			}
			n = protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return malformed(n)
			}
			msg = msg[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(msg)
		if n < 0 {
			return malformed(n)
		}
		msg = msg[n:]
		if err := fn(num, v); err != nil {
			return err
		}
	}
	return nil
}

func malformed(n int) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidFormat, protowire.ParseError(n))
}

func readString(v []byte, dst *string) error {
	if !utf8.Valid(v) {
		return fmt.Errorf("%w: string field is not valid UTF-8", domain.ErrInvalidFormat)
	}
	*dst = string(v)
	return nil
}

func readBytes(v []byte) []byte {
	if len(v) == 0 {
		return nil
	}
	return bytes.Clone(v)
}

// DecodeArgs parses a callable_args JSON object. Values that are not strings,
// as written by runtimes that keep numbers and lists native, are converted to
// their textual form; lists become comma separated.
func DecodeArgs(raw []byte) (map[string]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: callable_args: %v", domain.ErrInvalidFormat, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: callable_args: trailing data", domain.ErrInvalidFormat)
	}
	if obj == nil && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: callable_args is not an object", domain.ErrInvalidFormat)
	}
	if len(obj) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, err := argString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: callable_args[%q]: %v", domain.ErrInvalidFormat, k, err)
		}
		out[k] = s
	}
	return out, nil
}

func argString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		if x {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, elem := range x {
			s, err := argString(elem)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		b, err := json.Marshal(x)
		return string(b), err
	}
}
