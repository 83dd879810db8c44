package domain

const (
	// StartStateName is the name of the synthetic entry state created by builders.
	StartStateName = "start"

	// DefaultDocumentName is used when a document has no name of its own.
	DefaultDocumentName = "app"
)
