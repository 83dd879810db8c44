package dsl

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// MaxInstructionSize bounds a single instruction line in bytes.
const MaxInstructionSize = 4096

var (
	ErrInstructionTooLarge = errors.New("instruction exceeds maximum allowed size")
	ErrInvalidUTF8         = errors.New("instruction contains invalid UTF-8 sequences")
)

// SanitizeInstruction enforces the size limit, validates UTF-8 and strips
// control characters other than tab. Errors wrap domain.ErrInvalidFormat.
func SanitizeInstruction(line string) (string, error) {
	if len(line) > MaxInstructionSize {
		return "", fmt.Errorf("%w: %w: size=%d limit=%d", domain.ErrInvalidFormat, ErrInstructionTooLarge, len(line), MaxInstructionSize)
	}
	if !utf8.ValidString(line) {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidFormat, ErrInvalidUTF8)
	}

	// Fast path: if no control chars, return as is.
	if strings.IndexFunc(line, isUnsafeControl) < 0 {
		return line, nil
	}
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// SanitizeInstructions sanitizes every line, reporting the first bad one
// by its 1-based position.
func SanitizeInstructions(lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		clean, err := SanitizeInstruction(line)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i+1, err)
		}
		out = append(out, clean)
	}
	return out, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\t'
}
