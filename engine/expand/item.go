package expand

import (
	"github.com/unfurl-sh/unfurl/engine/chain"
)

// TaskItem is a fully expanded leaf: its resolved name, the variable
// context visible at its tree position, and the provenance trail back to
// the root source.
type TaskItem struct {
	Name   string         `yaml:"name"   json:"name"`
	Vars   Vars           `yaml:"vars"   json:"vars"`
	Origin []string       `yaml:"origin" json:"origin"`
}

// Warning is a non-fatal finding recorded while expanding.
type Warning = chain.Warning

// Result is the outcome of one expansion run: the flat, ordered item list
// plus the warnings side-channel. In non-strict mode the items may be
// partial, with the skipped subtrees recorded as warnings.
type Result struct {
	Items    []TaskItem `yaml:"items"              json:"items"`
	Warnings []Warning  `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}
