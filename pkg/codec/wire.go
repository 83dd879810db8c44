package codec

import "google.golang.org/protobuf/encoding/protowire"

const (
	// DefaultFilename is the name suggested for exported documents.
	DefaultFilename = "app.pbfsm"
	// FileExtension is the extension of binary documents.
	FileExtension = ".pbfsm"
)

// Field numbers of the StateMachine message and its children.
const (
	fieldMachineName   protowire.Number = 1
	fieldMachineStates protowire.Number = 2
	fieldMachineAssets protowire.Number = 3
	fieldMachineStart  protowire.Number = 4

	fieldStateName        protowire.Number = 1
	fieldStateProcessors  protowire.Number = 2
	fieldStateTransitions protowire.Number = 3

	fieldTransitionName        protowire.Number = 1
	fieldTransitionPredicates  protowire.Number = 2
	fieldTransitionInstruction protowire.Number = 3
	fieldTransitionNext        protowire.Number = 4

	fieldInstructionName  protowire.Number = 1
	fieldInstructionAudio protowire.Number = 2
	fieldInstructionImage protowire.Number = 3
	fieldInstructionVideo protowire.Number = 4

	fieldCallableName protowire.Number = 1
	fieldCallableType protowire.Number = 2
	fieldCallableArgs protowire.Number = 3

	fieldMapKey   protowire.Number = 1
	fieldMapValue protowire.Number = 2
)
