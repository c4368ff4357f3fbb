package expand

import (
	"github.com/mohae/deepcopy"
)

// Vars is the variable context accumulated from ancestor nodes down to a
// leaf. Merging is shallow: a child key replaces the ancestor's value
// wholesale, nested mappings are not combined. Contexts are snapshotted on
// every descent, never mutated in place across branches.
type Vars map[string]any

// Clone returns a deep copy of the context.
func (v Vars) Clone() Vars {
	if v == nil {
		return Vars{}
	}
	copied, ok := deepcopy.Copy(map[string]any(v)).(map[string]any)
	if !ok {
		// deepcopy of a map[string]any always yields the same shape
		return Vars{}
	}
	return Vars(copied)
}
