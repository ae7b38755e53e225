package bfs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type dirnode map[string]dirnode

// DirTree remembers which directories are known to exist, so that
// installing many files into the same folder only hits the disk once.
// It also reports which directories it had to create.
type DirTree struct {
	root dirnode
}

func NewDirTree() *DirTree {
	return &DirTree{
		root: make(dirnode),
	}
}

// EnsureParents makes sure that all the parent directories of a given
// absolute file path exist. It returns the directories it created,
// outermost first.
func (dt *DirTree) EnsureParents(filePath string) ([]string, error) {
	dirPath := filepath.Dir(filePath)

	if dt.hasPath(dirPath) {
		// cool, we have it!
		return nil, nil
	}

	var missing []string
	for current := dirPath; ; {
		stats, err := os.Stat(current)
		if err == nil {
			if !stats.IsDir() {
				return nil, errors.Errorf("dirtree: %s exists and is not a directory", current)
			}
			break
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "dirtree checking parent")
		}
		missing = append(missing, current)

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	var created []string
	for i := len(missing) - 1; i >= 0; i-- {
		err := os.Mkdir(missing[i], 0o755)
		if err != nil {
			// mkdir will return `ENOTDIR` if one of the elements is not a directory
			return created, errors.Wrap(err, "dirtree ensuring parents for file")
		}
		created = append(created, missing[i])
	}

	dt.commitPath(dirPath)

	return created, nil
}

func (dt *DirTree) split(dirPath string) []string {
	return strings.Split(filepath.ToSlash(filepath.Clean(dirPath)), "/")
}

func (dt *DirTree) hasPath(dirPath string) bool {
	tokens := dt.split(dirPath)
	node := dt.root
	for _, token := range tokens {
		if nextNode, ok := node[token]; ok {
			node = nextNode
		} else {
			return false
		}
	}
	return true
}

func (dt *DirTree) commitPath(dirPath string) {
	tokens := dt.split(dirPath)
	node := dt.root
	for _, token := range tokens {
		if nextNode, ok := node[token]; ok {
			node = nextNode
		} else {
			newNode := make(dirnode)
			node[token] = newNode
			node = newNode
		}
	}
}
