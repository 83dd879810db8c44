package dsl

import (
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/zoo"
)

// Always is the unconditional predicate.
func Always() domain.Callable {
	return domain.Callable{Name: "always", CallableName: zoo.Always{}.CallableName()}
}

// HasObjectClass is the predicate that holds once className was detected.
func HasObjectClass(className string) domain.Callable {
	return domain.Callable{
		Name:         "has-" + className,
		CallableName: zoo.HasObjectClass{}.CallableName(),
		Args:         map[string]string{"class_name": className},
	}
}

// DefaultProcessor is the processor template given to generated states: a
// TwoStageProcessor with empty paths, to be filled in by the author.
func DefaultProcessor() domain.Callable {
	c, err := zoo.Processors.Template("default", zoo.TwoStageProcessor{}.CallableName())
	if err != nil {
		// The built-in registry always carries TwoStageProcessor.
		panic(err)
	}
	return c
}
