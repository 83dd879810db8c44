// Package codec reads and writes workflow documents.
//
// The binary form is the protobuf StateMachine message consumed by the
// assistance runtime and stored in .pbfsm files:
//
//	StateMachine { 1 name; 2 states (repeated State); 3 assets (map<string, bytes>); 4 start_state }
//	State        { 1 name; 2 processors (repeated Callable); 3 transitions (repeated Transition) }
//	Transition   { 1 name; 2 predicates (repeated Callable); 3 instruction (Instruction); 4 next_state }
//	Instruction  { 1 name; 2 audio; 3 image (bytes); 4 video (bytes) }
//	Callable     { 1 name; 2 callable_name; 3 callable_args (JSON object as string) }
//
// The YAML form is a human-readable view of the same document.
package codec
