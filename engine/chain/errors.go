package chain

import (
	"fmt"

	"github.com/unfurl-sh/unfurl/engine/node"
)

// UnknownLinkError reports a chain spec referencing an identifier that was
// never registered.
type UnknownLinkError struct {
	ID string
}

func (e *UnknownLinkError) Error() string {
	return fmt.Sprintf("unknown chain link %q", e.ID)
}

// ExecutionError reports a link failing on a node, naming the offending
// link and the node path. It wraps the underlying cause.
type ExecutionError struct {
	LinkID string
	Path   node.Path
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("chain link %q failed at %s: %v", e.LinkID, e.Path, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
