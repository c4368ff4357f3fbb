package expand

import (
	"fmt"

	"github.com/unfurl-sh/unfurl/engine/node"
)

// MalformedNodeError reports a node whose shape the expander does not
// recognize: neither scalar, list, nor a mapping of a known form.
type MalformedNodeError struct {
	Path   node.Path
	Reason string
}

func (e *MalformedNodeError) Error() string {
	return fmt.Sprintf("malformed node at %s: %s", e.Path, e.Reason)
}
