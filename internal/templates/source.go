// Package templates renders notification bodies from a keyed template source.
package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
)

// ErrTemplateNotFound is returned by a Source when no template exists for the identifier.
var ErrTemplateNotFound = errors.New("template not found")

// validID restricts identifiers to a single safe path or key segment.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Source looks up raw template text by identifier.
type Source interface {
	Load(ctx context.Context, id string) (string, error)
}

// FSSource reads "<id>.html" files from a filesystem.
type FSSource struct {
	fsys fs.FS
}

// Ensure FSSource implements the interface
var _ Source = (*FSSource)(nil)

// NewFSSource creates a source backed by fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Load reads the template file for id.
func (s *FSSource) Load(_ context.Context, id string) (string, error) {
	if !validID.MatchString(id) {
		return "", fmt.Errorf("%w: invalid identifier %q", ErrTemplateNotFound, id)
	}
	raw, err := fs.ReadFile(s.fsys, id+".html")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return "", fmt.Errorf("read template %s: %w", id, err)
	}
	return string(raw), nil
}
