package bfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// A CopySpec is a declared (source, destination) pair. Source may be a
// single file or a directory tree, in which case every file under it is
// mapped to the same relative path under Destination.
type CopySpec struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// A CopyOperation is a single-file copy instruction, as produced
// by expanding a CopySpec.
type CopyOperation struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// PathNotFoundError is returned when a configured source is missing,
// or when either side of a CopySpec isn't an absolute path.
type PathNotFoundError struct {
	Path string
}

var _ error = (*PathNotFoundError)(nil)

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

// IsPathNotFound returns true if err is, or was caused by, a *PathNotFoundError
func IsPathNotFound(err error) bool {
	_, ok := errors.Cause(err).(*PathNotFoundError)
	return ok
}

// Expansion lazily walks a CopySpec and yields one CopyOperation
// per regular file. Directories are only read once the walk reaches them.
type Expansion struct {
	// stack of pending (source, destination) pairs, innermost directory last
	frames [][]CopyOperation
	err    error
}

// Expand returns a lazy sequence of the copy operations needed to
// satisfy spec. Nothing on disk is modified.
func Expand(spec CopySpec) *Expansion {
	return &Expansion{
		frames: [][]CopyOperation{
			{{Source: spec.Source, Destination: spec.Destination}},
		},
	}
}

// Next returns the next copy operation. When it returns false, the
// expansion is over: either it's exhausted, or Err() is non-nil.
func (ex *Expansion) Next() (CopyOperation, bool) {
	for ex.err == nil && len(ex.frames) > 0 {
		top := len(ex.frames) - 1
		if len(ex.frames[top]) == 0 {
			ex.frames = ex.frames[:top]
			continue
		}

		op := ex.frames[top][0]
		ex.frames[top] = ex.frames[top][1:]

		if !filepath.IsAbs(op.Source) {
			ex.err = &PathNotFoundError{Path: op.Source}
			break
		}
		if !filepath.IsAbs(op.Destination) {
			ex.err = &PathNotFoundError{Path: op.Destination}
			break
		}

		stats, err := os.Stat(op.Source)
		if err != nil {
			ex.err = &PathNotFoundError{Path: op.Source}
			break
		}

		switch {
		case stats.Mode().IsRegular():
			return op, true
		case stats.IsDir():
			entries, err := os.ReadDir(op.Source)
			if err != nil {
				ex.err = &PathNotFoundError{Path: op.Source}
				break
			}

			var children []CopyOperation
			for _, entry := range entries {
				children = append(children, CopyOperation{
					Source:      filepath.Join(op.Source, entry.Name()),
					Destination: filepath.Join(op.Destination, entry.Name()),
				})
			}
			ex.frames = append(ex.frames, children)
		default:
			ex.err = &PathNotFoundError{Path: op.Source}
		}
	}

	return CopyOperation{}, false
}

// Err returns the error that stopped the expansion, if any
func (ex *Expansion) Err() error {
	return ex.err
}

// ExpandAll collects the expansion of every spec, in order.
func ExpandAll(specs ...CopySpec) ([]CopyOperation, error) {
	var res []CopyOperation
	for _, spec := range specs {
		ex := Expand(spec)
		for {
			op, ok := ex.Next()
			if !ok {
				break
			}
			res = append(res, op)
		}
		if ex.Err() != nil {
			return nil, ex.Err()
		}
	}
	return res, nil
}
