package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/zoo"
)

// ZooOverrides customizes the callable zoo for a deployment.
//
//	default_processors:
//	  - name: detector
//	    callable_name: FasterRCNNContainerCallable
//	    callable_args:
//	      container_image_url: registry.example.com/sandwich:latest
//	processor_defaults:
//	  FasterRCNNOpenCVCallable:
//	    conf_threshold: "0.6"
type ZooOverrides struct {
	// DefaultProcessors replaces the template given to the states built
	// from an instruction list.
	DefaultProcessors []domain.Callable `yaml:"default_processors"`
	// ProcessorDefaults and PredicateDefaults change the default arguments
	// of zoo kinds.
	ProcessorDefaults map[string]map[string]string `yaml:"processor_defaults"`
	PredicateDefaults map[string]map[string]string `yaml:"predicate_defaults"`
}

// Zoo is a resolved set of registries.
type Zoo struct {
	Processors        *zoo.Registry
	Predicates        *zoo.Registry
	DefaultProcessors []domain.Callable
}

// LoadZooOverrides reads overrides from a YAML file. An empty path yields
// no overrides.
func LoadZooOverrides(path string) (*ZooOverrides, error) {
	if path == "" {
		return &ZooOverrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zoo overrides: %w", err)
	}
	var o ZooOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse zoo overrides %s: %w", path, err)
	}
	return &o, nil
}

// Resolve applies the overrides to copies of the built-in registries.
func (o *ZooOverrides) Resolve() (*Zoo, error) {
	z := &Zoo{
		Processors: zoo.Processors.Clone(),
		Predicates: zoo.Predicates.Clone(),
	}
	for name, defaults := range o.ProcessorDefaults {
		if err := z.Processors.SetDefaults(name, defaults); err != nil {
			return nil, err
		}
	}
	for name, defaults := range o.PredicateDefaults {
		if err := z.Predicates.SetDefaults(name, defaults); err != nil {
			return nil, err
		}
	}
	if len(o.DefaultProcessors) > 0 {
		normalized, err := z.Processors.NormalizeAll(o.DefaultProcessors)
		if err != nil {
			return nil, fmt.Errorf("default processors: %w", err)
		}
		z.DefaultProcessors = normalized
	}
	return z, nil
}

// EditorOptions wires the registries and the default processors into an editor.
func (z *Zoo) EditorOptions() []openworkflow.Option {
	opts := []openworkflow.Option{
		openworkflow.WithProcessorRegistry(z.Processors),
		openworkflow.WithPredicateRegistry(z.Predicates),
	}
	if len(z.DefaultProcessors) > 0 {
		opts = append(opts, openworkflow.WithDefaultProcessors(z.DefaultProcessors...))
	}
	return opts
}
