package zoo

import "github.com/cmusatyalab/OpenWorkflow/pkg/schema"

// Built-in kinds.
var (
	DummyKind = NewKind[DummyCallable](
		"No-op processor",
		schema.Schema{"dummy_input": schema.String()},
		map[string]string{"dummy_input": "dummy_input_value"},
	)
	FasterRCNNOpenCVKind = NewKind[FasterRCNNOpenCVCallable](
		"Faster R-CNN object detector (OpenCV DNN)",
		schema.Schema{
			"proto_path":     schema.String(),
			"model_path":     schema.String(),
			"labels":         schema.Slice(schema.String()),
			"conf_threshold": schema.Float(),
		},
		map[string]string{"conf_threshold": "0.8"},
	)
	FasterRCNNContainerKind = NewKind[FasterRCNNContainerCallable](
		"Containerized Faster R-CNN object detector",
		schema.Schema{
			"container_image_url": schema.String(),
			"conf_threshold":      schema.Float(),
		},
		map[string]string{"conf_threshold": "0.5"},
	)
	TwoStageKind = NewKind[TwoStageProcessor](
		"Object detector followed by a classifier",
		schema.Schema{
			"classifier_path":     schema.String(),
			"detector_path":       schema.String(),
			"detector_class_name": schema.String(),
		},
		nil,
	)
	AlwaysKind = NewKind[Always](
		"Always take the transition",
		nil,
		nil,
	)
	HasObjectClassKind = NewKind[HasObjectClass](
		"Take the transition when an object class was detected",
		schema.Schema{"class_name": schema.String()},
		nil,
	)
)

// Processors and Predicates are the default registries.
var (
	Processors = NewRegistry(RoleProcessor, DummyKind, FasterRCNNOpenCVKind, FasterRCNNContainerKind, TwoStageKind)
	Predicates = NewRegistry(RolePredicate, AlwaysKind, HasObjectClassKind)
)

// ForRole returns the default registry of role.
func ForRole(role Role) *Registry {
	if role == RolePredicate {
		return Predicates
	}
	return Processors
}
