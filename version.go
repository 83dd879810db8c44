package openworkflow

// Version is the release of the toolkit, reported by the CLI and the API.
const Version = "0.3.0"
