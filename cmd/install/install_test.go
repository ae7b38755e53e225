package install

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/itchio/ox"
	"github.com/itchio/setup/comm"
	"github.com/itchio/setup/installer"
	"github.com/itchio/setup/installer/bfs"
	"github.com/itchio/setup/wizard"
	"github.com/itchio/wharf/state"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const setupTOML = `
name = "Sample"
license = "eula.txt"

[[features]]
id = "core"
name = "Core"
required = true
files = [
  { source = "${src}/core", destination = "${target}/sample" },
]

[[features]]
id = "extras"
name = "Extras"
default = false
files = [
  { source = "${src}/extras", destination = "${target}/sample/extras" },
]

[[dependencies]]
name = "Registrar"
command = "register ${target}/sample"
stage = "after-copy"

[uninstaller]
enabled = true
name = "uninstall-sample"
target_directory = "${target}/sample"
`

func must(t *testing.T, err error) {
	if err != nil {
		assert.NoError(t, err)
		t.FailNow()
	}
}

func writeFile(t *testing.T, path string, contents string) {
	must(t, os.MkdirAll(filepath.Dir(path), 0o755))
	must(t, ioutil.WriteFile(path, []byte(contents), 0o644))
}

type fixture struct {
	setupDir string
	target   string
}

func newFixture(t *testing.T) *fixture {
	comm.Configure(true, true, false, false, false, true)

	f := &fixture{
		setupDir: t.TempDir(),
		target:   t.TempDir(),
	}
	writeFile(t, filepath.Join(f.setupDir, "setup.toml"), setupTOML)
	writeFile(t, filepath.Join(f.setupDir, "eula.txt"), "Be nice.")
	writeFile(t, filepath.Join(f.setupDir, "install", "core", "main.txt"), "main")
	writeFile(t, filepath.Join(f.setupDir, "install", "extras", "extra.txt"), "extra")
	writeFile(t, filepath.Join(f.setupDir, "uninstaller", "uninstall-sample"), "uninstaller")
	return f
}

func (f *fixture) params(runner installer.DependencyRunner) Params {
	return Params{
		SetupPath:     f.setupDir,
		Target:        f.target,
		Runtime:       &ox.Runtime{Platform: ox.PlatformLinux, Is64: true},
		RunDependency: runner,
	}
}

func Test_InstallDefaults(t *testing.T) {
	f := newFixture(t)

	var ran []string
	res, err := Do(f.params(func(consumer *state.Consumer, dep *installer.Dependency) error {
		ran = append(ran, dep.Name)
		return nil
	}))
	must(t, err)

	assert.Equal(t, string(wizard.OutcomeSuccess), res.Outcome)
	assert.Equal(t, "Sample was installed successfully.", res.Message)
	assert.Equal(t, string(installer.ModeComplete), res.Mode)
	assert.Equal(t, []string{"Registrar"}, ran)
	assert.NotEmpty(t, res.ID)

	assert.FileExists(t, filepath.Join(f.target, "sample", "main.txt"))
	_, err = os.Stat(filepath.Join(f.target, "sample", "extras"))
	assert.True(t, os.IsNotExist(err), "extras aren't selected by default")

	manifestPath := filepath.Join(f.target, "sample", "uninstall-sample.data")
	assert.Equal(t, manifestPath, res.ManifestPath)
	lines, err := bfs.ReadManifest(manifestPath)
	must(t, err)
	assert.Contains(t, lines, filepath.Join(f.target, "sample", "main.txt"))
	assert.Equal(t, manifestPath, lines[len(lines)-1])
}

func Test_InstallPickedFeatures(t *testing.T) {
	f := newFixture(t)

	params := f.params(func(consumer *state.Consumer, dep *installer.Dependency) error {
		return nil
	})
	params.Features = []string{"extras"}

	res, err := Do(params)
	must(t, err)
	assert.Equal(t, string(wizard.OutcomeSuccess), res.Outcome)
	assert.FileExists(t, filepath.Join(f.target, "sample", "main.txt"))
	assert.FileExists(t, filepath.Join(f.target, "sample", "extras", "extra.txt"))
}

func Test_InstallFailureRollsBack(t *testing.T) {
	f := newFixture(t)

	res, err := Do(f.params(func(consumer *state.Consumer, dep *installer.Dependency) error {
		return &installer.DependencyFailedError{Name: dep.Name, ExitCode: 4}
	}))
	must(t, err)

	assert.Equal(t, string(wizard.OutcomeFailure), res.Outcome)
	assert.Equal(t, string(installer.ModeError), res.Mode)
	assert.EqualValues(t, installer.CodeDependencyFailed, res.ErrorCode)
	assert.Empty(t, res.InstalledFiles)
	assert.Empty(t, res.ManifestPath)

	entries, err := ioutil.ReadDir(f.target)
	must(t, err)
	assert.Empty(t, entries, "rollback leaves the target as it was")
}

func Test_InstallErrors(t *testing.T) {
	f := newFixture(t)

	params := f.params(nil)
	params.Features = []string{"nope"}
	_, err := Do(params)
	assert.Error(t, err)

	params = f.params(nil)
	params.Target = filepath.Join(f.target, "does-not-exist")
	_, err = Do(params)
	assert.Error(t, err)

	params = f.params(nil)
	params.SetupPath = t.TempDir()
	_, err = Do(params)
	assert.Error(t, err)
}

func Test_InstallSetupFile(t *testing.T) {
	f := newFixture(t)

	params := f.params(func(consumer *state.Consumer, dep *installer.Dependency) error {
		return errors.New("should not matter")
	})
	params.SetupPath = filepath.Join(f.setupDir, "setup.toml")
	params.Runtime = &ox.Runtime{Platform: ox.PlatformWindows, Is64: true}

	// the uninstaller for windows isn't there
	res, err := Do(params)
	must(t, err)
	assert.Equal(t, string(wizard.OutcomeFailure), res.Outcome)
	assert.EqualValues(t, installer.CodePathNotFound, res.ErrorCode)
}
