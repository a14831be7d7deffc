package importer

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrConfiguration = errors.New("import misconfigured")
	ErrIO            = errors.New("map unreadable")
	ErrFormat        = errors.New("map malformed")
)

// Configuration problems detected before any I/O.
var (
	errNoMapPath   = errors.New("map path not set")
	errNoMeshTable = errors.New("mesh table is not set")
	errNoSink      = errors.New("placement sink is not set")
	errNoLoader    = errors.New("map loader is not set")
)

// ImportError reports why an import stopped before the reset step.
type ImportError struct {
	Kind error  // ErrConfiguration, ErrIO or ErrFormat
	Path string // Map path, empty for configuration errors
	Err  error
}

func (e *ImportError) Error() string {
	switch e.Kind {
	case ErrIO:
		return fmt.Sprintf("couldn't read %s: %v", e.Path, e.Err)
	case ErrFormat:
		return fmt.Sprintf("couldn't deserialize %s: %v", e.Path, e.Err)
	default:
		return e.Err.Error()
	}
}

// Unwrap exposes both the kind and the underlying cause.
func (e *ImportError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func configError(err error) error {
	return &ImportError{Kind: ErrConfiguration, Err: err}
}
