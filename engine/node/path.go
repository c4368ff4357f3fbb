package node

import (
	"fmt"
	"strings"
)

// Path is the position of a node inside its source tree, used for
// provenance trails and error reporting. The first segment names the root
// source; the rest are mapping keys and list indices.
type Path []string

// Root starts a path at the named source.
func Root(source string) Path {
	return Path{source}
}

// Key extends the path with a mapping key.
func (p Path) Key(key string) Path {
	return p.append(key)
}

// Index extends the path with a list index.
func (p Path) Index(i int) Path {
	return p.append(fmt.Sprintf("[%d]", i))
}

// append copies before extending so sibling paths never alias.
func (p Path) append(segment string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, segment)
}

func (p Path) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	var b strings.Builder
	for i, seg := range p {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteString(".")
		}
		b.WriteString(seg)
	}
	return b.String()
}
