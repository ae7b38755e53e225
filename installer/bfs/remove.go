package bfs

import (
	"os"

	"github.com/itchio/wharf/state"
	"github.com/pkg/errors"
)

// ErrDirectoryNotEmpty is returned by RemoveEntry for directories
// that still have children.
var ErrDirectoryNotEmpty = errors.New("directory not empty")

// RemoveEntry removes a single file, or a directory if and only if
// it's empty. It never removes anything recursively.
func RemoveEntry(path string) error {
	stats, err := os.Lstat(path)
	if err != nil {
		return errors.WithStack(err)
	}

	if stats.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return errors.WithStack(err)
		}
		if len(entries) > 0 {
			return errors.Wrap(ErrDirectoryNotEmpty, path)
		}
	}

	return errors.WithStack(os.Remove(path))
}

type RemoveListedParams struct {
	Consumer *state.Consumer
	Paths    []string
}

type RemoveListedStats struct {
	Found   int
	Removed int
	Failed  []string
}

// RemoveListed removes every path in the order given, as read from a
// manifest. It's best-effort: failures are logged and collected, and
// never stop the removal of the remaining paths. Directories that
// weren't empty yet are tried again once everything else is gone,
// since the manifest itself may live in one of them.
func RemoveListed(params RemoveListedParams) RemoveListedStats {
	consumer := params.Consumer
	var stats RemoveListedStats
	var notEmpty []string

	for i, path := range params.Paths {
		consumer.Progress(float64(i) / float64(len(params.Paths)))

		if !Exists(path) {
			consumer.Debugf("Already gone: %s", path)
			continue
		}
		stats.Found++

		err := RemoveEntry(path)
		if err != nil {
			if errors.Cause(err) == ErrDirectoryNotEmpty {
				notEmpty = append(notEmpty, path)
				continue
			}
			consumer.Warnf("Leaving %s behind: %s", path, err.Error())
			stats.Failed = append(stats.Failed, path)
			continue
		}

		stats.Removed++
		consumer.Debugf("Removed: %s", path)
	}

	for _, path := range notEmpty {
		err := RemoveEntry(path)
		if err != nil {
			consumer.Warnf("Leaving %s behind: %s", path, err.Error())
			stats.Failed = append(stats.Failed, path)
			continue
		}

		stats.Removed++
		consumer.Debugf("Removed: %s", path)
	}
	consumer.Progress(1.0)

	return stats
}
