package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRunNotFound is returned when a run record cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// Validation sentinels.
var (
	ErrPhaseOrder          = errors.New("measure out of phase order")
	ErrMeasureNotFound     = errors.New("could not find measure directory")
	ErrManifestMissing     = errors.New("measure manifest not found")
	ErrManifestField       = errors.New("manifest missing required field")
	ErrUnrecognizedMeasure = errors.New("unrecognized measure class")
	ErrWeatherFileMissing  = errors.New("could not locate the weather file")
	ErrSeedModelMissing    = errors.New("could not locate the seed model")
	ErrConflictingModes    = errors.New("measures-only and post-process-only cannot be combined")
	ErrRunDirMissing       = errors.New("run directory does not exist")
)

// Execution sentinels.
var (
	ErrUnknownArgument  = errors.New("unknown measure argument")
	ErrMissingArgument  = errors.New("required argument has no value")
	ErrMeasureReported  = errors.New("measure reported an error")
	ErrMeasureInterface = errors.New("measure does not implement its declared kind")
)

// Engine sentinels.
var (
	ErrEngineInstall = errors.New("invalid EnergyPlus installation")
	ErrNoEndFile     = errors.New("EnergyPlus failed and did not create an eplusout.end file")
	ErrFatalSolver   = errors.New("EnergyPlus terminated with a fatal error")
	ErrNoEngine      = errors.New("no EnergyPlus installation configured")
)

// ErrorKind classifies failures so callers can branch without matching messages.
type ErrorKind string

const (
	ValidationError ErrorKind = "validation"
	ExecutionError  ErrorKind = "execution"
	EngineError     ErrorKind = "engine"
	IOError         ErrorKind = "io"
)

// Error is a tagged failure carrying the context needed to locate its origin.
// Step is the zero-based step index, or -1 when the failure is not tied to a step.
type Error struct {
	Kind    ErrorKind
	Step    int
	Measure string
	Path    string
	Err     error
}

// NewError builds a tagged error not tied to a step.
func NewError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Step: -1, Path: path, Err: err}
}

// NewStepError builds a tagged error for the given step.
func NewStepError(kind ErrorKind, step int, measure string, err error) *Error {
	return &Error{Kind: kind, Step: step, Measure: measure, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Step >= 0 {
		fmt.Fprintf(&b, " in step %d", e.Step)
	}
	if e.Measure != "" {
		fmt.Fprintf(&b, " (%s)", e.Measure)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first tagged error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind, true
	}
	return "", false
}
