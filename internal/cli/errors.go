package cli

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/campman/internal/sqlite"
	"github.com/mesh-intelligence/campman/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// usageError marks a bad command line.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// userErrors are failures caused by what the user asked for rather than by
// the system.
var userErrors = []error{
	types.ErrFileExists,
	types.ErrStoreNotFound,
	types.ErrSchemaMismatch,
	types.ErrNotFound,
	types.ErrInvalidKey,
	types.ErrOutOfRange,
	types.ErrInvalidKind,
	types.ErrParentNotFound,
	types.ErrCycle,
	types.ErrHasChildren,
	types.ErrNotSearchable,
	types.ErrNoLinkTable,
	sqlite.ErrNoManifest,
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
