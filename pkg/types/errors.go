package types

import (
	"errors"
	"fmt"
)

// Store lifecycle errors.
var (
	ErrFileExists     = errors.New("file already exists")
	ErrStoreNotFound  = errors.New("campaign store not found")
	ErrSchemaMismatch = errors.New("file is not a campaign store")
	ErrStoreClosed    = errors.New("store is closed")
)

// Record operation errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidKey     = errors.New("invalid key")
	ErrOutOfRange     = errors.New("value out of range")
	ErrInvalidKind    = errors.New("invalid entity kind")
	ErrParentNotFound = errors.New("parent record not found")
	ErrCycle          = errors.New("parent chain would form a cycle")
	ErrHasChildren    = errors.New("record still has children")
	ErrNotSearchable  = errors.New("kind has no such column")
	ErrNoLinkTable    = errors.New("kinds cannot be linked")
)

// FileExistsError is returned when a new store would overwrite a file.
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("the file can't be created, it already exists: %s", e.Path)
}

// Is makes errors.Is(err, ErrFileExists) match.
func (e *FileExistsError) Is(target error) bool { return target == ErrFileExists }
