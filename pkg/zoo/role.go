package zoo

import (
	"fmt"
	"strings"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// Role says where a callable is attached.
type Role int

const (
	RoleProcessor Role = iota + 1 // runs on every frame while a state is active
	RolePredicate                 // gates a transition
)

func (r Role) String() string {
	switch r {
	case RoleProcessor:
		return "processor"
	case RolePredicate:
		return "predicate"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole accepts the singular and plural role names.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "processor", "processors":
		return RoleProcessor, nil
	case "predicate", "predicates":
		return RolePredicate, nil
	}
	return 0, fmt.Errorf("%w: callable role %q", domain.ErrNotFound, s)
}
