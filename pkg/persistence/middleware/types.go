// Package middleware wraps document stores with extra behavior on the way
// in and out of the backend.
package middleware

import "github.com/cmusatyalab/OpenWorkflow/pkg/ports"

// Middleware allows wrapping a DocumentStore to add behavior.
type Middleware func(ports.DocumentStore) ports.DocumentStore

// Chain wraps store with mws. The first middleware is the outermost: it
// sees saved data first and loaded data last.
func Chain(store ports.DocumentStore, mws ...Middleware) ports.DocumentStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
