/*
Package session coordinates concurrent access to stored workflow documents.

A Manager loads a document into an editor, applies a change and saves the
encoded result while holding a per-document lock. Locks are local mutexes,
optionally backed by a distributed lock so several replicas can share one
store.
*/
package session
