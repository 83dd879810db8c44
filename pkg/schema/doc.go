// Package schema describes and validates the string-valued arguments of zoo
// callables.
//
// Callable arguments travel as map[string]string (on the wire they are a JSON
// object, in forms they are text inputs). A Schema assigns each key a Type that
// knows how to check the textual form of its value:
//
//	s := schema.Schema{
//	    "proto_path":     schema.String(),
//	    "conf_threshold": schema.Float(),
//	    "labels":         schema.Slice(schema.String()),
//	}
//
//	err := schema.Validate(s, map[string]string{
//	    "proto_path":     "model.prototxt",
//	    "conf_threshold": "0.8",
//	    "labels":         "person, car",
//	})
//
// Slices are comma separated. Schemas can also be parsed from type strings,
// which is how they are exposed over JSON:
//
//	s, err := schema.ParseTypeMap(map[string]string{"conf_threshold": "float"})
//
// Custom validators can be registered for domain-specific rules:
//
//	url := schema.Custom("url", func(v string) error {
//	    if !strings.Contains(v, "://") {
//	        return fmt.Errorf("missing scheme")
//	    }
//	    return nil
//	})
package schema
