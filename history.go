package openworkflow

import "github.com/cmusatyalab/OpenWorkflow/pkg/domain"

func (e *Editor) pushUndo(sm *domain.StateMachine) {
	if e.historyLimit == 0 {
		return
	}
	e.undo = append(e.undo, sm)
	if over := len(e.undo) - e.historyLimit; over > 0 {
		e.undo = e.undo[over:]
	}
}

// CanUndo reports whether Undo would succeed.
func (e *Editor) CanUndo() bool { return len(e.undo) > 0 }

// CanRedo reports whether Redo would succeed.
func (e *Editor) CanRedo() bool { return len(e.redo) > 0 }

// Undo restores the document as it was before the last edit.
// Import, LoadInstructions and Reset clear the history.
func (e *Editor) Undo() error {
	if len(e.undo) == 0 {
		return ErrNothingToUndo
	}
	prev := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, e.doc)
	e.doc = prev
	e.status = StatusModified
	e.emit(e.hooks.OnEdit, e.event(domain.EventUndo, ""))
	return nil
}

// Redo re-applies the last undone edit.
func (e *Editor) Redo() error {
	if len(e.redo) == 0 {
		return ErrNothingToRedo
	}
	next := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.pushUndo(e.doc)
	e.doc = next
	e.status = StatusModified
	e.emit(e.hooks.OnEdit, e.event(domain.EventRedo, ""))
	return nil
}
