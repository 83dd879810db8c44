/*
Package ports defines the driven ports (interfaces) of the workflow toolkit.

These interfaces decouple document handling from external implementations, so
the same session manager and servers work with memory, file and Redis backends.

# Key Interfaces

  - DocumentStore: persists encoded .pbfsm documents by name.
  - DistributedLocker: provides distributed locking for concurrent edits of one document.
*/
package ports
