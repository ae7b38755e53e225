package bfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/itchio/wharf/state"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_RemoveEntry(t *testing.T) {
	dir := tempDir(t, "bfs-remove-entry")
	must(t, makeFolder(&folderSpec{
		entries: []*entrySpec{
			{name: "full/file.txt", data: []byte("x")},
		},
	}, dir))
	must(t, os.Mkdir(filepath.Join(dir, "empty"), 0o755))

	err := RemoveEntry(filepath.Join(dir, "full"))
	assert.Error(t, err)
	assert.True(t, errors.Cause(err) == ErrDirectoryNotEmpty)
	assert.True(t, Exists(filepath.Join(dir, "full", "file.txt")))

	must(t, RemoveEntry(filepath.Join(dir, "empty")))
	assert.False(t, Exists(filepath.Join(dir, "empty")))

	must(t, RemoveEntry(filepath.Join(dir, "full", "file.txt")))
	must(t, RemoveEntry(filepath.Join(dir, "full")))
	assert.False(t, Exists(filepath.Join(dir, "full")))

	assert.Error(t, RemoveEntry(filepath.Join(dir, "never-was")))
}

func Test_RemoveListed(t *testing.T) {
	dir := tempDir(t, "bfs-remove-listed")
	must(t, makeFolder(&folderSpec{
		entries: []*entrySpec{
			{name: "app/bin/tool", data: []byte("#!")},
			{name: "app/readme.txt", data: []byte("hi")},
			{name: "app/user-data/save.dat", data: []byte("keep me")},
		},
	}, dir))

	var messages []string
	var progress []float64
	consumer := &state.Consumer{
		OnMessage: func(lvl string, msg string) {
			t.Logf("[%s] %s", lvl, msg)
			messages = append(messages, msg)
		},
		OnProgress: func(alpha float64) {
			progress = append(progress, alpha)
		},
	}

	stats := RemoveListed(RemoveListedParams{
		Consumer: consumer,
		Paths: []string{
			filepath.Join(dir, "app", "bin", "tool"),
			filepath.Join(dir, "app", "readme.txt"),
			filepath.Join(dir, "app", "already-gone.txt"),
			filepath.Join(dir, "app", "bin"),
			filepath.Join(dir, "app"),
		},
	})

	assert.EqualValues(t, 4, stats.Found)
	assert.EqualValues(t, 3, stats.Removed)
	// app still has user data, so it stays
	assert.EqualValues(t, []string{filepath.Join(dir, "app")}, stats.Failed)
	assert.EqualValues(t, []string{"app/user-data/save.dat"}, listFiles(t, dir))
	assert.False(t, Exists(filepath.Join(dir, "app", "bin")))

	assert.EqualValues(t, 0.0, progress[0])
	assert.EqualValues(t, 1.0, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.True(t, progress[i] >= progress[i-1])
	}
}

func Test_RemoveListedManifestInsideDir(t *testing.T) {
	dir := tempDir(t, "bfs-remove-listed-manifest")
	must(t, makeFolder(&folderSpec{
		entries: []*entrySpec{
			{name: "app/game.exe", data: []byte("MZ")},
			{name: "app/uninstall/app.data", data: []byte("...")},
		},
	}, dir))

	stats := RemoveListed(RemoveListedParams{
		Consumer: &state.Consumer{},
		Paths: []string{
			filepath.Join(dir, "app", "game.exe"),
			filepath.Join(dir, "app", "uninstall"),
			filepath.Join(dir, "app"),
			filepath.Join(dir, "app", "uninstall", "app.data"),
		},
	})

	assert.EqualValues(t, 4, stats.Found)
	assert.EqualValues(t, 4, stats.Removed)
	assert.Empty(t, stats.Failed)
	assert.False(t, Exists(filepath.Join(dir, "app")))
}
