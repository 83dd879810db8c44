// Package zoo is the catalog of callables a workflow document may reference.
//
// Every Callable in a document names a zoo entry through CallableName and
// carries that entry's arguments as strings. A Registry holds the entries for
// one role (processors on states, predicates on transitions) and converts
// between the string form stored in documents and typed argument structs:
//
//	args, err := zoo.Processors.Decode(callable)
//	if rcnn, ok := args.(zoo.FasterRCNNOpenCVCallable); ok {
//	    fmt.Println(rcnn.ConfThreshold)
//	}
//
// Normalize shapes a callable's arguments to exactly the keys of its entry and
// is applied before a document is persisted.
package zoo
