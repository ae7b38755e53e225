package installer

import (
	"fmt"
	"log/slog"

	"github.com/itchio/setup/installer/bfs"
	"github.com/itchio/wharf/werrors"
)

// Code classifies everything that can go wrong during an install
type Code int64

const (
	// The install was cancelled by the user
	CodeOperationCancelled Code = 499

	// A source is missing, or a path isn't absolute
	CodePathNotFound Code = 404

	// Start was called on an executor that is running
	CodeAlreadyRunning Code = 409

	// Start was called on an executor that already ran
	CodeAlreadyFinished Code = 410

	// A dependency's program could not be started
	CodeDependencyLaunch Code = 3001

	// A dependency exited with a code it doesn't accept
	CodeDependencyFailed Code = 3002

	// Copying a file or writing the manifest failed
	CodeIO Code = 5000

	// Something we installed could not be removed during rollback
	CodeRollbackItem Code = 5001
)

var codeMessages = map[Code]string{
	CodeOperationCancelled: "The installation was cancelled.",
	CodePathNotFound:       "A file could not be found.",
	CodeAlreadyRunning:     "The installation is already running.",
	CodeAlreadyFinished:    "The installation already ran and cannot be restarted.",
	CodeDependencyLaunch:   "A dependency could not be started.",
	CodeDependencyFailed:   "A dependency failed to install.",
	CodeIO:                 "A file could not be written.",
	CodeRollbackItem:       "A file could not be removed.",
}

func (code Code) Error() string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("installer error %d", int64(code))
}

func (code Code) String() string {
	return fmt.Sprintf("installer error: %s", code.Error())
}

// LogValue lets codes show up as structured fields in logs
func (code Code) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("code", int64(code)),
		slog.String("message", code.Error()),
	)
}

var (
	ErrCancelled       error = CodeOperationCancelled
	ErrAlreadyRunning  error = CodeAlreadyRunning
	ErrAlreadyFinished error = CodeAlreadyFinished
)

// DependencyLaunchError is returned when a dependency's program
// could not be started at all (missing binary, exec format error...)
type DependencyLaunchError struct {
	Name string
	Err  error
}

func (e *DependencyLaunchError) Error() string {
	return fmt.Sprintf("could not launch dependency (%s): %v", e.Name, e.Err)
}

func (e *DependencyLaunchError) Unwrap() error { return e.Err }
func (e *DependencyLaunchError) Code() Code    { return CodeDependencyLaunch }

// DependencyFailedError is returned when a dependency exits with
// a code that isn't in its accepted set
type DependencyFailedError struct {
	Name     string
	ExitCode int
	// Known meaning of the exit code, if any
	Message string
}

func (e *DependencyFailedError) Error() string {
	msg := fmt.Sprintf("dependency (%s) failed with exit code %d (%x)", e.Name, e.ExitCode, uint32(e.ExitCode))
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

func (e *DependencyFailedError) Code() Code { return CodeDependencyFailed }

// IOError is returned when copying a file, creating a directory
// or writing the manifest fails
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
func (e *IOError) Code() Code    { return CodeIO }

// RollbackItemError describes a path that could not be removed while
// undoing an install. It's only ever logged.
type RollbackItemError struct {
	Path string
	Err  error
}

func (e *RollbackItemError) Error() string {
	return fmt.Sprintf("could not remove %s: %v", e.Path, e.Err)
}

func (e *RollbackItemError) Unwrap() error { return e.Err }
func (e *RollbackItemError) Code() Code    { return CodeRollbackItem }

type causer interface {
	Cause() error
}

type coder interface {
	Code() Code
}

// AsCode classifies err, looking through pkg/errors wrapping.
func AsCode(err error) (Code, bool) {
	for err != nil {
		switch e := err.(type) {
		case Code:
			return e, true
		case coder:
			return e.Code(), true
		case *bfs.PathNotFoundError:
			return CodePathNotFound, true
		}

		if err == werrors.ErrCancelled {
			return CodeOperationCancelled, true
		}

		if ca, ok := err.(causer); ok {
			err = ca.Cause()
			continue
		}
		return 0, false
	}
	return 0, false
}

// IsCancelled returns true if err means the user cancelled
func IsCancelled(err error) bool {
	code, ok := AsCode(err)
	return ok && code == CodeOperationCancelled
}

// ErrorAttr describes err for structured logging: its message and,
// for errors the installer knows about, its code.
func ErrorAttr(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}

	code, ok := AsCode(err)
	if !ok {
		return slog.String("error", err.Error())
	}
	return slog.Group("error",
		slog.Int64("code", int64(code)),
		slog.String("message", err.Error()),
	)
}
