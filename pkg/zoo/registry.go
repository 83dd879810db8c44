package zoo

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/schema"
)

// Kind describes one zoo entry.
type Kind struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Schema      schema.Schema     `json:"schema"`
	Defaults    map[string]string `json:"defaults,omitempty"`

	decode func(map[string]string) (Args, error)
}

// NewKind declares the entry for the argument type T.
func NewKind[T Args](description string, s schema.Schema, defaults map[string]string) Kind {
	var zero T
	return Kind{
		Name:        zero.CallableName(),
		Description: description,
		Schema:      s,
		Defaults:    defaults,
		decode: func(in map[string]string) (Args, error) {
			var out T
			if err := decodeArgs(in, &out); err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

// Registry manages the callables available for one role.
type Registry struct {
	role  Role
	mu    sync.RWMutex
	kinds map[string]Kind
}

// NewRegistry creates a registry holding kinds.
func NewRegistry(role Role, kinds ...Kind) *Registry {
	r := &Registry{
		role:  role,
		kinds: make(map[string]Kind, len(kinds)),
	}
	for _, k := range kinds {
		r.Register(k)
	}
	return r
}

// Clone returns an independent registry holding the same kinds.
func (r *Registry) Clone() *Registry {
	return NewRegistry(r.role, r.Kinds()...)
}

// Role returns the role served by the registry.
func (r *Registry) Role() Role { return r.role }

// Register adds a kind to the registry.
// If a kind with the same name exists, it is overwritten.
func (r *Registry) Register(k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[k.Name] = k
}

// Lookup returns the kind called name.
func (r *Registry) Lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

func (r *Registry) mustLookup(name string) (Kind, error) {
	k, ok := r.Lookup(name)
	if !ok {
		return Kind{}, fmt.Errorf("%w: %s %q", domain.ErrNotFound, r.role, name)
	}
	return k, nil
}

// Names lists the registered kinds, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.kinds))
}

// Kinds lists the registered kinds sorted by name.
func (r *Registry) Kinds() []Kind {
	names := r.Names()
	out := make([]Kind, 0, len(names))
	for _, name := range names {
		k, _ := r.Lookup(name)
		out = append(out, k)
	}
	return out
}

// Defaults returns a fresh copy of the default arguments of name.
// Every schema key is present.
func (r *Registry) Defaults(name string) (map[string]string, error) {
	k, err := r.mustLookup(name)
	if err != nil {
		return nil, err
	}
	if len(k.Schema) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(k.Schema))
	for key := range k.Schema {
		out[key] = k.Defaults[key]
	}
	return out, nil
}

// SetDefaults merges defaults into the default arguments of name. Keys must
// belong to the schema and values must validate against it.
func (r *Registry) SetDefaults(name string, defaults map[string]string) error {
	k, err := r.mustLookup(name)
	if err != nil {
		return err
	}
	sub := make(schema.Schema, len(defaults))
	for key := range defaults {
		typ, ok := k.Schema[key]
		if !ok {
			return fmt.Errorf("%s %q: %w", r.role, name, &schema.ValidationError{Key: key, Reason: "not defined in schema"})
		}
		sub[key] = typ
	}
	if err := schema.Validate(sub, defaults); err != nil {
		return fmt.Errorf("%s %q: %w", r.role, name, err)
	}

	merged := maps.Clone(k.Defaults)
	if merged == nil {
		merged = make(map[string]string, len(defaults))
	}
	maps.Copy(merged, defaults)
	k.Defaults = merged
	r.Register(k)
	return nil
}

// Schema returns the argument schema of name.
func (r *Registry) Schema(name string) (schema.Schema, error) {
	k, err := r.mustLookup(name)
	if err != nil {
		return nil, err
	}
	return k.Schema, nil
}

// Template returns a callable of kind callableName with default arguments.
func (r *Registry) Template(name, callableName string) (domain.Callable, error) {
	args, err := r.Defaults(callableName)
	if err != nil {
		return domain.Callable{}, err
	}
	return domain.Callable{Name: name, CallableName: callableName, Args: args}, nil
}

// Normalize returns c with exactly the argument keys of its kind: stale keys
// are dropped and missing ones take their default.
func (r *Registry) Normalize(c domain.Callable) (domain.Callable, error) {
	k, err := r.mustLookup(c.CallableName)
	if err != nil {
		return c, err
	}
	var args map[string]string
	if len(k.Schema) > 0 {
		args = make(map[string]string, len(k.Schema))
		for key := range k.Schema {
			if v, ok := c.Args[key]; ok {
				args[key] = v
			} else {
				args[key] = k.Defaults[key]
			}
		}
	}
	c.Args = args
	return c, nil
}

// NormalizeAll normalizes every callable of the list.
func (r *Registry) NormalizeAll(in []domain.Callable) ([]domain.Callable, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.Callable, len(in))
	for i, c := range in {
		n, err := r.Normalize(c)
		if err != nil {
			return nil, fmt.Errorf("callable %q: %w", c.Name, err)
		}
		out[i] = n
	}
	return out, nil
}

// Check validates c against the schema of its kind. Unknown and missing keys
// are both reported.
func (r *Registry) Check(c domain.Callable) error {
	k, err := r.mustLookup(c.CallableName)
	if err != nil {
		return err
	}
	return schema.ValidateStrict(k.Schema, c.Args)
}

// Decode validates c and converts its arguments into the typed struct of its kind.
func (r *Registry) Decode(c domain.Callable) (Args, error) {
	k, err := r.mustLookup(c.CallableName)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateStrict(k.Schema, c.Args); err != nil {
		return nil, fmt.Errorf("%s %q: %w", r.role, c.Name, err)
	}
	return k.decode(c.Args)
}

// Encode converts typed arguments into a callable called name.
func (r *Registry) Encode(name string, a Args) (domain.Callable, error) {
	if a == nil {
		return domain.Callable{}, fmt.Errorf("%w: nil arguments", domain.ErrUnsupportedElementType)
	}
	if _, err := r.mustLookup(a.CallableName()); err != nil {
		return domain.Callable{}, err
	}
	args, err := encodeArgs(a)
	if err != nil {
		return domain.Callable{}, err
	}
	return domain.Callable{Name: name, CallableName: a.CallableName(), Args: args}, nil
}
