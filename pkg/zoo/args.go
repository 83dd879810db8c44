package zoo

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/cmusatyalab/OpenWorkflow/pkg/schema"
)

// Args is the typed argument set of one zoo entry.
// The set of implementations is closed: the kinds declared in this package.
type Args interface {
	CallableName() string
	args()
}

// DummyCallable does nothing. Useful for wiring tests.
type DummyCallable struct {
	DummyInput string `mapstructure:"dummy_input" json:"dummy_input"`
}

// FasterRCNNOpenCVCallable runs a Caffe Faster R-CNN model through OpenCV DNN.
type FasterRCNNOpenCVCallable struct {
	ProtoPath     string   `mapstructure:"proto_path" json:"proto_path"`
	ModelPath     string   `mapstructure:"model_path" json:"model_path"`
	Labels        []string `mapstructure:"labels" json:"labels"`
	ConfThreshold float64  `mapstructure:"conf_threshold" json:"conf_threshold"`
}

// FasterRCNNContainerCallable runs a detector packaged as a container image.
type FasterRCNNContainerCallable struct {
	ContainerImageURL string  `mapstructure:"container_image_url" json:"container_image_url"`
	ConfThreshold     float64 `mapstructure:"conf_threshold" json:"conf_threshold"`
}

// TwoStageProcessor detects objects, then classifies the detections.
type TwoStageProcessor struct {
	ClassifierPath    string `mapstructure:"classifier_path" json:"classifier_path"`
	DetectorPath      string `mapstructure:"detector_path" json:"detector_path"`
	DetectorClassName string `mapstructure:"detector_class_name" json:"detector_class_name"`
}

// Always holds unconditionally.
type Always struct{}

// HasObjectClass holds when the processors reported ClassName.
type HasObjectClass struct {
	ClassName string `mapstructure:"class_name" json:"class_name"`
}

func (DummyCallable) CallableName() string               { return "DummyCallable" }
func (FasterRCNNOpenCVCallable) CallableName() string    { return "FasterRCNNOpenCVCallable" }
func (FasterRCNNContainerCallable) CallableName() string { return "FasterRCNNContainerCallable" }
func (TwoStageProcessor) CallableName() string           { return "TwoStageProcessor" }
func (Always) CallableName() string                      { return "Always" }
func (HasObjectClass) CallableName() string              { return "HasObjectClass" }

func (DummyCallable) args()               {}
func (FasterRCNNOpenCVCallable) args()    {}
func (FasterRCNNContainerCallable) args() {}
func (TwoStageProcessor) args()           {}
func (Always) args()                      {}
func (HasObjectClass) args()              {}

// splitListHook turns comma-separated strings into slices.
func splitListHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	parts := schema.SplitList(data.(string))
	if parts == nil {
		parts = []string{}
	}
	return parts, nil
}

func decodeArgs(in map[string]string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       splitListHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// encodeArgs flattens a typed argument struct back into its string form.
func encodeArgs(a Args) (map[string]string, error) {
	var raw map[string]any
	if err := mapstructure.Decode(a, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = formatValue(v)
	}
	return out, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []string:
		return strings.Join(x, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
