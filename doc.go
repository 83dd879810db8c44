/*
Package openworkflow edits workflow documents for video-guided assistance.

A workflow is a finite state machine. While a state is active its processors
(object detectors, classifiers) run on every frame; its transitions are then
checked in order, and the first one whose predicates all hold moves the
workflow on and plays its instruction to the user. Documents are exchanged as
.pbfsm files, the binary format read by the assistance runtime.

# Editing

An Editor owns one document and applies form-level edits to it. Every edit
either succeeds completely or leaves the document as it was:

	ed := openworkflow.New()
	if err := ed.Import(data); err != nil {
		log.Fatal(err) // previous document is kept
	}

	err := ed.AddState(openworkflow.StateForm{
		Name:       "lettuce",
		Processors: []domain.Callable{detector},
	})
	if errors.Is(err, domain.ErrDuplicateName) {
		// ask for another name
	}

	out, filename, err := ed.Export()

Names are unique across states and transitions. Renaming a state rewrites
every transition pointing at it, and a state can only be deleted once nothing
leads into or out of it.

# Building

Linear workflows can be generated from a list of instructions, one per step:

	ed.LoadInstructions([]string{
		"Put a piece of bread on the table.",
		"Add a slice of ham.",
	})

See package dsl for the underlying builders and package codec for the wire
format.
*/
package openworkflow
