package uninstall

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itchio/setup/comm"
	"github.com/itchio/setup/wizard"
	"github.com/stretchr/testify/assert"
)

func must(t *testing.T, err error) {
	if err != nil {
		assert.NoError(t, err)
		t.FailNow()
	}
}

func Test_Uninstall(t *testing.T) {
	comm.Configure(true, true, false, false, false, true)

	target := t.TempDir()
	appDir := filepath.Join(target, "app")
	must(t, os.MkdirAll(filepath.Join(appDir, "sub"), 0o755))

	files := []string{
		filepath.Join(appDir, "a.txt"),
		filepath.Join(appDir, "sub", "b.txt"),
		filepath.Join(appDir, "uninstall-app.exe"),
	}
	for _, f := range files {
		must(t, ioutil.WriteFile(f, []byte("hi"), 0o644))
	}

	manifestPath := filepath.Join(appDir, "uninstall-app.exe.data")
	lines := append([]string{}, files...)
	lines = append(lines,
		filepath.Join(appDir, "sub"),
		filepath.Join(appDir, "gone-already.txt"),
		appDir,
		manifestPath,
	)
	must(t, ioutil.WriteFile(manifestPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	res, err := Do(Params{ManifestPath: manifestPath})
	must(t, err)

	assert.Equal(t, "uninstall-app", res.Name)
	assert.Equal(t, string(wizard.OutcomeSuccess), res.Outcome)
	assert.Equal(t, 6, res.Found)
	assert.Equal(t, 6, res.Removed)
	assert.Empty(t, res.Failed)

	_, err = os.Stat(appDir)
	assert.True(t, os.IsNotExist(err))
}

func Test_UninstallLeavesForeignFiles(t *testing.T) {
	comm.Configure(true, true, false, false, false, true)

	appDir := filepath.Join(t.TempDir(), "app")
	must(t, os.MkdirAll(appDir, 0o755))
	must(t, ioutil.WriteFile(filepath.Join(appDir, "mine.txt"), []byte("hi"), 0o644))
	must(t, ioutil.WriteFile(filepath.Join(appDir, "user-notes.txt"), []byte("keep me"), 0o644))

	manifestPath := filepath.Join(t.TempDir(), "uninstall.data")
	contents := filepath.Join(appDir, "mine.txt") + "\n" + appDir + "\n"
	must(t, ioutil.WriteFile(manifestPath, []byte(contents), 0o644))

	res, err := Do(Params{ManifestPath: manifestPath, Name: "My App"})
	must(t, err)

	assert.Equal(t, "My App", res.Name)
	assert.Equal(t, string(wizard.OutcomeFailure), res.Outcome)
	assert.Equal(t, []string{appDir}, res.Failed)
	assert.FileExists(t, filepath.Join(appDir, "user-notes.txt"))
	assert.Contains(t, res.Message, "could not be completely uninstalled")
}

func Test_UninstallMissingManifest(t *testing.T) {
	_, err := Do(Params{ManifestPath: filepath.Join(t.TempDir(), "nope.data")})
	assert.Error(t, err)
}
