package resolver

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Content is the raw result of resolving a reference: the bytes plus a
// content-type hint.
type Content struct {
	Data []byte
	Type string
}

// Resolver turns a reference (local path, URL, inline document) into raw
// content. Retries, timeouts and caching of remote fetches are the
// resolver's responsibility; the expansion core only sees success or
// failure.
type Resolver interface {
	Resolve(ctx context.Context, reference string) (*Content, error)
}

// UnresolvedReferenceError reports a reference that could not be resolved
// to content. The core surfaces it unchanged.
type UnresolvedReferenceError struct {
	Reference string
	Err       error
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not resolve reference %q", e.Reference)
	}
	return fmt.Sprintf("could not resolve reference %q: %v", e.Reference, e.Err)
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return e.Err
}

// -----------------------------------------------------------------------------
// Inline
// -----------------------------------------------------------------------------

// Inline treats every reference as a literal YAML/JSON document.
type Inline struct{}

func (Inline) Resolve(_ context.Context, reference string) (*Content, error) {
	return &Content{Data: []byte(reference), Type: "application/yaml"}, nil
}

// -----------------------------------------------------------------------------
// Auto
// -----------------------------------------------------------------------------

// Auto dispatches on the reference shape: an existing filesystem path goes
// to the local resolver, an http(s) URL to the HTTP resolver, and anything
// that looks like an inline document passes through verbatim.
type Auto struct {
	Local Resolver
	HTTP  Resolver
}

// NewAuto creates an Auto resolver with default local and HTTP backends.
func NewAuto() *Auto {
	return &Auto{Local: &Local{}, HTTP: NewHTTP()}
}

func (a *Auto) Resolve(ctx context.Context, reference string) (*Content, error) {
	if reference == "" {
		return nil, &UnresolvedReferenceError{Reference: reference}
	}
	if strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		return a.HTTP.Resolve(ctx, reference)
	}
	if _, err := os.Stat(reference); err == nil {
		return a.Local.Resolve(ctx, reference)
	}
	if looksInline(reference) {
		return Inline{}.Resolve(ctx, reference)
	}
	return nil, &UnresolvedReferenceError{
		Reference: reference,
		Err:       fmt.Errorf("not an existing file, URL, or inline document"),
	}
}

// looksInline reports whether the reference is plausibly a document rather
// than a mistyped path: document syntax, or whitespace a path would not
// contain.
func looksInline(reference string) bool {
	return strings.ContainsAny(reference, ":{[\n ") ||
		strings.HasPrefix(reference, "- ")
}
