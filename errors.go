package httpdconf

import (
	"errors"
	"strings"

	"github.com/dmitrymomot/httpdconf/augtree"
)

var (
	// ErrNoInstallation indicates that no Apache installation was found at the
	// configured server root.
	ErrNoInstallation = errors.New("apache installation not found")

	// ErrNotSupported indicates that the installed Augeas library is too old to
	// parse Apache configuration reliably.
	ErrNotSupported = errors.New("augeas version is not supported")

	// ErrMisconfiguration indicates that the Apache runtime rejected the current
	// configuration when queried through the control command.
	ErrMisconfiguration = errors.New("apache runtime configuration check failed")

	// ErrInvalidConfig is the generic failure for parse and mutation operations
	// on the configuration tree.
	ErrInvalidConfig = errors.New("invalid apache configuration")
)

// SaveError reports a failed save together with the per-file parse errors that
// caused it. Pending in-memory changes are preserved so the caller can inspect
// or amend them before retrying.
type SaveError struct {
	// Files lists the configuration files that could not be written.
	Files []string
	// Causes holds the underlying error records, one or more per file.
	Causes []augtree.FileError
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	return "unable to save files: " + strings.Join(e.Files, ", ")
}

// Unwrap allows errors.Is checks against ErrInvalidConfig.
func (e *SaveError) Unwrap() error {
	return ErrInvalidConfig
}
