package version

import (
	"testing"

	"github.com/itchio/ox"
	"github.com/itchio/setup/buildinfo"
	"github.com/stretchr/testify/assert"
)

func Test_Info(t *testing.T) {
	info := Do(&ox.Runtime{Platform: ox.PlatformWindows, Is64: true})
	assert.Equal(t, buildinfo.VersionString, info.VersionString)
	assert.Equal(t, ".exe", info.UninstallerSuffix)
	assert.Equal(t, []string{"setup.toml", "setup.json"}, info.SetupFiles)
	assert.Equal(t, "64-bit Windows", info.Runtime.String())

	info = Do(&ox.Runtime{Platform: ox.PlatformLinux})
	assert.Equal(t, "", info.UninstallerSuffix)

	assert.NotNil(t, Do(nil).Runtime)
}
