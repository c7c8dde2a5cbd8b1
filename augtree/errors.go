package augtree

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousPath indicates a value lookup matched more than one node
	// where exactly one was expected.
	ErrAmbiguousPath = errors.New("path matches multiple nodes")

	// ErrNoVersion indicates the engine did not report its version, which
	// points at a broken installation.
	ErrNoVersion = errors.New("engine version not reported")
)

// FileError is one per-file failure recorded by the engine, either from
// parsing a file on load or from writing it back on save.
type FileError struct {
	Addr    string // error record address in the engine's metadata tree
	File    string // filesystem path of the affected file
	Kind    string // engine failure class, e.g. "parse_failed"
	Lens    string // lens position that raised the failure
	Line    string // line in the source file, when reported
	Message string
}

// Error implements the error interface.
func (e FileError) Error() string {
	switch {
	case e.Line != "" && e.Message != "":
		return fmt.Sprintf("%s line %s: %s", e.File, e.Line, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.File, e.Kind)
	}
}
