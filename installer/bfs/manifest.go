package bfs

import (
	"bufio"
	"os"
	"strings"

	"github.com/dchest/safefile"
	"github.com/pkg/errors"
)

// A manifest lists everything an install wrote to disk, one path per line:
// installed files first, then created directories (deepest first), then
// the manifest's own path. Uninstalling means removing the lines in order.

// ManifestLines returns the lines of a manifest, given the installed files
// in installation order and the created directories in creation order.
func ManifestLines(installedFiles []string, createdDirs []string, manifestPath string) []string {
	var lines []string
	lines = append(lines, installedFiles...)
	for i := len(createdDirs) - 1; i >= 0; i-- {
		lines = append(lines, createdDirs[i])
	}
	lines = append(lines, manifestPath)
	return lines
}

// ManifestWriter writes a manifest atomically: nothing shows up at
// the manifest's path until Commit is called.
type ManifestWriter struct {
	file *safefile.File
	w    *bufio.Writer
}

func CreateManifest(manifestPath string) (*ManifestWriter, error) {
	f, err := safefile.Create(manifestPath, 0o644)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &ManifestWriter{
		file: f,
		w:    bufio.NewWriter(f),
	}, nil
}

func (mw *ManifestWriter) WriteLine(line string) error {
	_, err := mw.w.WriteString(line + "\n")
	return errors.WithStack(err)
}

// Commit flushes the manifest and moves it into place
func (mw *ManifestWriter) Commit() error {
	err := mw.w.Flush()
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(mw.file.Commit())
}

// Close discards the manifest if it wasn't committed yet.
func (mw *ManifestWriter) Close() error {
	return mw.file.Close()
}

// ReadManifest returns the non-empty lines of a manifest file.
func ReadManifest(manifestPath string) ([]string, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	var res []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimRight(s.Text(), "\r")
		if line == "" {
			continue
		}
		res = append(res, line)
	}

	err = s.Err()
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}

	return res, nil
}
