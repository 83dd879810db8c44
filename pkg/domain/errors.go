package domain

import "errors"

// ErrInvalidFormat is returned when a binary or textual document cannot be parsed.
var ErrInvalidFormat = errors.New("invalid format")

// ErrDuplicateName is returned when a name is already used by a state or transition.
var ErrDuplicateName = errors.New("duplicate name")

// ErrEmptyName is returned when a state or transition is given an empty name.
var ErrEmptyName = errors.New("empty name")

// ErrNotFound is returned when a state or transition reference does not resolve.
var ErrNotFound = errors.New("not found")

// ErrUnsafeDelete is returned when deleting an element would orphan a reference.
var ErrUnsafeDelete = errors.New("unsafe delete")

// ErrUnsupportedElementType is returned when an operation receives something
// other than a *State or a *Transition.
var ErrUnsupportedElementType = errors.New("unsupported element type")

// ErrDocumentNotFound is returned by document stores when a name is unknown.
var ErrDocumentNotFound = errors.New("document not found")
