/*
Package domain contains the FSM document model edited by OpenWorkflow.

A document is a StateMachine that owns an ordered list of States. Each State owns
its outgoing Transitions, and every Transition names its target through NextState.
Processors (on states) and predicates (on transitions) share the Callable shape.

The package is pure: no I/O, no encoding. Binary (de)serialization lives in
pkg/codec and the callable registries live in pkg/zoo.

# Invariants

  - State and Transition names share one namespace and must be unique.
  - Every Transition.NextState and the StartState (when set) name an existing State.
  - A State can only be deleted when nothing points at it and it has no outgoing
    transitions. Transitions can always be deleted.

Mutating operations either fully succeed or return an error before touching the
document. Naming checks are the caller's job (see CheckName); the raw mutators do
not repeat them.
*/
package domain
