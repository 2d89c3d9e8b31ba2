// Package campman is the public entry point to a campaign file.
//
// A campaign is a single SQLite file holding subjects, places, events,
// groups and tags plus the links between them. Open an existing file or
// create a new one, then use the typed tables:
//
//	s, err := campman.CreateNew(ctx, "war.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	aria, err := s.Subjects().Insert(ctx, types.Subject{Name: "Aria"})
package campman

import (
	"context"

	"github.com/mesh-intelligence/campman/internal/sqlite"
)

// Version is the campman release.
const Version = "0.1.0"

// Store is an open campaign file.
type Store = sqlite.Store

// Table gives typed access to one entity kind of a Store.
type Table[T any] = sqlite.Table[T]

// Manifest describes an exported archive.
type Manifest = sqlite.Manifest

// ImportReport summarises an Import.
type ImportReport = sqlite.ImportReport

// ErrNoManifest is returned by Import when the archive has no manifest.
var ErrNoManifest = sqlite.ErrNoManifest

// Open opens an existing campaign file. See sqlite.Open.
func Open(ctx context.Context, path string) (*Store, error) {
	return sqlite.Open(ctx, path)
}

// CreateNew creates a campaign file at path, which must not exist.
func CreateNew(ctx context.Context, path string) (*Store, error) {
	return sqlite.CreateNew(ctx, path)
}

// Import creates a campaign file at path from the archive in dir.
func Import(ctx context.Context, dir, path string) (*Store, ImportReport, error) {
	return sqlite.Import(ctx, dir, path)
}

// IsConstraint reports whether err came from a violated SQLite constraint.
func IsConstraint(err error) bool { return sqlite.IsConstraint(err) }
