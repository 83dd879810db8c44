package domain

import "bytes"

// Instruction is what the assistant tells the user when a transition fires.
// Video holds either the clip itself or a textual reference to it (see VideoRef).
type Instruction struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Audio string `json:"audio,omitempty" yaml:"audio,omitempty"`
	Image []byte `json:"image,omitempty" yaml:"image,omitempty"`
	Video []byte `json:"video,omitempty" yaml:"video,omitempty"`
}

// VideoRef returns the video field interpreted as a textual reference (URL or path).
func (i Instruction) VideoRef() string {
	return string(i.Video)
}

// SetVideoRef stores a textual video reference.
func (i *Instruction) SetVideoRef(ref string) {
	if ref == "" {
		i.Video = nil
		return
	}
	i.Video = []byte(ref)
}

// IsZero reports whether the instruction carries nothing.
func (i Instruction) IsZero() bool {
	return i.Name == "" && i.Audio == "" && len(i.Image) == 0 && len(i.Video) == 0
}

func (i Instruction) clone() Instruction {
	i.Image = bytes.Clone(i.Image)
	i.Video = bytes.Clone(i.Video)
	return i
}
