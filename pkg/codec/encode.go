package codec

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// Marshal encodes sm into the binary wire format.
//
// When sm has states but no start state, the first state becomes the start
// state and sm is updated accordingly. The output is deterministic.
func Marshal(sm *domain.StateMachine) ([]byte, error) {
	if sm == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidFormat)
	}
	if sm.StartState == "" && len(sm.States) > 0 {
		sm.StartState = sm.States[0].Name
	}

	var b []byte
	b = appendString(b, fieldMachineName, sm.Name)
	for _, s := range sm.States {
		msg, err := appendState(nil, s)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, fieldMachineStates, msg)
	}
	for _, key := range slices.Sorted(maps.Keys(sm.Assets)) {
		var entry []byte
		entry = appendString(entry, fieldMapKey, key)
		entry = appendBytes(entry, fieldMapValue, sm.Assets[key])
		b = appendMessage(b, fieldMachineAssets, entry)
	}
	b = appendString(b, fieldMachineStart, sm.StartState)
	return b, nil
}

func appendState(b []byte, s *domain.State) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil state", domain.ErrInvalidFormat)
	}
	b = appendString(b, fieldStateName, s.Name)
	for _, p := range s.Processors {
		msg, err := appendCallable(nil, p)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", s.Name, err)
		}
		b = appendMessage(b, fieldStateProcessors, msg)
	}
	for _, t := range s.Transitions {
		msg, err := appendTransition(nil, t)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", s.Name, err)
		}
		b = appendMessage(b, fieldStateTransitions, msg)
	}
	return b, nil
}

func appendTransition(b []byte, t *domain.Transition) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transition", domain.ErrInvalidFormat)
	}
	b = appendString(b, fieldTransitionName, t.Name)
	for _, p := range t.Predicates {
		msg, err := appendCallable(nil, p)
		if err != nil {
			return nil, fmt.Errorf("transition %q: %w", t.Name, err)
		}
		b = appendMessage(b, fieldTransitionPredicates, msg)
	}
	if !t.Instruction.IsZero() {
		b = appendMessage(b, fieldTransitionInstruction, appendInstruction(nil, t.Instruction))
	}
	b = appendString(b, fieldTransitionNext, t.NextState)
	return b, nil
}

func appendInstruction(b []byte, in domain.Instruction) []byte {
	b = appendString(b, fieldInstructionName, in.Name)
	b = appendString(b, fieldInstructionAudio, in.Audio)
	b = appendBytes(b, fieldInstructionImage, in.Image)
	b = appendBytes(b, fieldInstructionVideo, in.Video)
	return b
}

// appendCallable always writes callable_args, as "{}" when there are none,
// since the runtime parses it unconditionally.
func appendCallable(b []byte, c domain.Callable) ([]byte, error) {
	args := c.Args
	if args == nil {
		args = map[string]string{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("callable %q: %w", c.Name, err)
	}
	b = appendString(b, fieldCallableName, c.Name)
	b = appendString(b, fieldCallableType, c.CallableName)
	b = protowire.AppendTag(b, fieldCallableArgs, protowire.BytesType)
	b = protowire.AppendBytes(b, raw)
	return b, nil
}

// appendString skips empty values, as proto3 does for scalar fields.
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendMessage writes an embedded message, even when it is empty.
func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
