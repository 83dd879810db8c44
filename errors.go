package openworkflow

import "errors"

// ErrNothingToUndo is returned by Undo when there is no earlier snapshot.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned by Redo when no undone edit is pending.
var ErrNothingToRedo = errors.New("nothing to redo")
