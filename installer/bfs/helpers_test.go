package bfs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type folderSpec struct {
	entries []*entrySpec
}

type entrySpec struct {
	name string
	data []byte
}

func makeFolder(fs *folderSpec, dest string) error {
	err := os.MkdirAll(dest, 0o755)
	if err != nil {
		return errors.Wrap(err, "creating test folder")
	}

	for _, e := range fs.entries {
		entryPath := filepath.Join(dest, filepath.FromSlash(e.name))
		entryDir := filepath.Dir(entryPath)

		err = os.MkdirAll(entryDir, 0o755)
		if err != nil {
			return errors.Wrap(err, "creating test folder directory entry")
		}

		err = ioutil.WriteFile(entryPath, e.data, os.FileMode(0o644))
		if err != nil {
			return errors.Wrap(err, "writing test folder file entry")
		}
	}

	return nil
}

// listFiles returns the slash-separated relative paths of all
// regular files under dir, sorted
func listFiles(t *testing.T, dir string) []string {
	var res []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			res = append(res, filepath.ToSlash(rel))
		}
		return nil
	})
	must(t, err)
	sort.Strings(res)
	return res
}

func tempDir(t *testing.T, name string) string {
	dir, err := ioutil.TempDir("", name)
	must(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

func must(t *testing.T, err error) {
	if err != nil {
		assert.NoError(t, err)
		t.FailNow()
	}
}
