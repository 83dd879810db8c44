package codec

import (
	"encoding/base64"
	"fmt"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// yamlDocument is the textual layout of a document. Binary payloads are
// base64 encoded; a video that is a plain reference is kept as text.
type yamlDocument struct {
	Name       string            `yaml:"name,omitempty"`
	StartState string            `yaml:"start_state,omitempty"`
	States     []yamlState       `yaml:"states"`
	Assets     map[string]string `yaml:"assets,omitempty"`
}

type yamlState struct {
	Name        string            `yaml:"name"`
	Processors  []domain.Callable `yaml:"processors,omitempty"`
	Transitions []yamlTransition  `yaml:"transitions,omitempty"`
}

type yamlTransition struct {
	Name        string            `yaml:"name"`
	NextState   string            `yaml:"next_state"`
	Predicates  []domain.Callable `yaml:"predicates,omitempty"`
	Instruction *yamlInstruction  `yaml:"instruction,omitempty"`
}

type yamlInstruction struct {
	Name        string `yaml:"name,omitempty"`
	Audio       string `yaml:"audio,omitempty"`
	Image       string `yaml:"image,omitempty"`
	Video       string `yaml:"video,omitempty"`
	VideoBase64 string `yaml:"video_base64,omitempty"`
}

// MarshalYAML renders sm as YAML. Unlike Marshal it never modifies sm.
func MarshalYAML(sm *domain.StateMachine) ([]byte, error) {
	if sm == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidFormat)
	}
	doc := yamlDocument{
		Name:       sm.Name,
		StartState: sm.StartState,
		States:     make([]yamlState, 0, len(sm.States)),
	}
	for _, s := range sm.States {
		ys := yamlState{Name: s.Name, Processors: s.Processors}
		for _, t := range s.Transitions {
			yt := yamlTransition{Name: t.Name, NextState: t.NextState, Predicates: t.Predicates}
			if !t.Instruction.IsZero() {
				yt.Instruction = toYAMLInstruction(t.Instruction)
			}
			ys.Transitions = append(ys.Transitions, yt)
		}
		doc.States = append(doc.States, ys)
	}
	if len(sm.Assets) > 0 {
		doc.Assets = make(map[string]string, len(sm.Assets))
		for k, v := range sm.Assets {
			doc.Assets[k] = base64.StdEncoding.EncodeToString(v)
		}
	}
	return yaml.Marshal(doc)
}

// UnmarshalYAML parses a YAML document. Syntax errors and bad base64 payloads
// fail with domain.ErrInvalidFormat.
func UnmarshalYAML(data []byte) (*domain.StateMachine, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}

	sm := &domain.StateMachine{Name: doc.Name, StartState: doc.StartState}
	for _, ys := range doc.States {
		s := domain.NewState(ys.Name, ys.Processors...)
		for _, yt := range ys.Transitions {
			var in domain.Instruction
			if yt.Instruction != nil {
				var err error
				if in, err = fromYAMLInstruction(yt.Instruction); err != nil {
					return nil, fmt.Errorf("transition %q: %w", yt.Name, err)
				}
			}
			s.Transitions = append(s.Transitions, domain.NewTransition(yt.Name, yt.NextState, in, yt.Predicates...))
		}
		sm.AddState(s)
	}
	for k, v := range doc.Assets {
		raw, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: asset %q: %v", domain.ErrInvalidFormat, k, err)
		}
		if sm.Assets == nil {
			sm.Assets = make(map[string][]byte, len(doc.Assets))
		}
		sm.Assets[k] = raw
	}
	return sm, nil
}

func toYAMLInstruction(in domain.Instruction) *yamlInstruction {
	out := &yamlInstruction{Name: in.Name, Audio: in.Audio}
	if len(in.Image) > 0 {
		out.Image = base64.StdEncoding.EncodeToString(in.Image)
	}
	if isPrintable(in.Video) {
		out.Video = in.VideoRef()
	} else {
		out.VideoBase64 = base64.StdEncoding.EncodeToString(in.Video)
	}
	return out
}

func fromYAMLInstruction(y *yamlInstruction) (domain.Instruction, error) {
	in := domain.Instruction{Name: y.Name, Audio: y.Audio}
	if y.Image != "" {
		img, err := base64.StdEncoding.DecodeString(y.Image)
		if err != nil {
			return in, fmt.Errorf("%w: image: %v", domain.ErrInvalidFormat, err)
		}
		in.Image = img
	}
	switch {
	case y.VideoBase64 != "":
		video, err := base64.StdEncoding.DecodeString(y.VideoBase64)
		if err != nil {
			return in, fmt.Errorf("%w: video: %v", domain.ErrInvalidFormat, err)
		}
		in.Video = video
	default:
		in.SetVideoRef(y.Video)
	}
	return in, nil
}

func isPrintable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
