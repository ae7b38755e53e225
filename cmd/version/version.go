package version

import (
	"strings"
	"time"

	"github.com/itchio/ox"
	"github.com/itchio/setup/buildinfo"
	"github.com/itchio/setup/comm"
	"github.com/itchio/setup/mansion"
	"github.com/itchio/setup/plan"
)

func Register(ctx *mansion.Context) {
	cmd := ctx.App.Command("version", "Show the version of setup and the platform it installs for")
	ctx.Register(cmd, do)
}

// Info is what `setup version` reports
type Info struct {
	Version       string     `json:"version"`
	BuiltAt       *time.Time `json:"builtAt"`
	Commit        string     `json:"commit"`
	VersionString string     `json:"versionString"`

	// Runtime is the platform dependencies are filtered for
	Runtime *ox.Runtime `json:"runtime"`

	// SetupFiles are the names looked up in a setup directory, in order
	SetupFiles []string `json:"setupFiles"`

	// UninstallerSuffix is appended to the uninstaller's name on this platform
	UninstallerSuffix string `json:"uninstallerSuffix"`
}

func do(ctx *mansion.Context) {
	info := Do(ctx.Runtime)
	comm.ResultOrPrint(info, func() {
		comm.Logf("setup %s", info.VersionString)
		comm.Logf("Installing for %s (%s/%s)", info.Runtime, info.Runtime.OS(), info.Runtime.Arch())
		comm.Debugf("Setup descriptions: %s", strings.Join(info.SetupFiles, ", "))
		if info.UninstallerSuffix != "" {
			comm.Debugf("Uninstallers are named <name>%s", info.UninstallerSuffix)
		}
	})
}

func Do(runtime *ox.Runtime) *Info {
	if runtime == nil {
		runtime = ox.CurrentRuntime()
	}

	return &Info{
		Version:           buildinfo.Version,
		BuiltAt:           buildinfo.BuildTime(),
		Commit:            buildinfo.Commit,
		VersionString:     buildinfo.VersionString,
		Runtime:           runtime,
		SetupFiles:        append([]string{}, plan.DefaultConfigNames...),
		UninstallerSuffix: plan.AppSuffix(runtime.Platform),
	}
}
