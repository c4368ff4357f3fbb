package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// MaxFileSize caps the size of a resolvable local file.
const MaxFileSize = 10 * 1024 * 1024

// Local resolves references against the filesystem. Relative paths are
// resolved under Root when set, otherwise against the process working
// directory.
type Local struct {
	Root string
}

func (l *Local) Resolve(_ context.Context, reference string) (*Content, error) {
	path := reference
	if !filepath.IsAbs(path) && l.Root != "" {
		path = filepath.Clean(filepath.Join(l.Root, path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, &UnresolvedReferenceError{Reference: reference, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &UnresolvedReferenceError{
			Reference: reference,
			Err:       errors.Errorf("path %s is not a regular file", path),
		}
	}
	if info.Size() > MaxFileSize {
		return nil, &UnresolvedReferenceError{
			Reference: reference,
			Err:       errors.Errorf("file %s is too large (%d bytes, max: %d bytes)", path, info.Size(), MaxFileSize),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &UnresolvedReferenceError{
			Reference: reference,
			Err:       errors.Wrapf(err, "failed to read file %s", path),
		}
	}
	return &Content{Data: data, Type: hintFor(path, data)}, nil
}

// hintFor derives a content-type hint from the file extension, falling
// back to content sniffing.
func hintFor(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "application/yaml"
	case ".json":
		return "application/json"
	}
	return mimetype.Detect(data).String()
}
