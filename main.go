package main

import (
	"log/slog"
	"os"

	"github.com/itchio/setup/buildinfo"
	"github.com/itchio/setup/cmd/install"
	"github.com/itchio/setup/cmd/plancmd"
	"github.com/itchio/setup/cmd/uninstall"
	"github.com/itchio/setup/cmd/version"
	"github.com/itchio/setup/comm"
	"github.com/itchio/setup/mansion"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("setup", "Install applications from a setup description, and uninstall them")
)

var appArgs = struct {
	json       *bool
	quiet      *bool
	verbose    *bool
	timestamps *bool
	noProgress *bool
	assumeYes  *bool
}{
	app.Flag("json", "Enable machine-readable JSON-lines output").Short('j').Bool(),
	app.Flag("quiet", "Hide progress indicators & other extra info").Short('q').Bool(),
	app.Flag("verbose", "Display as much extra info as possible").Short('v').Bool(),
	app.Flag("timestamps", "Prefix all output by timestamps (for logging purposes)").Bool(),
	app.Flag("no-progress", "Doesn't show progress bars").Bool(),
	app.Flag("assume-yes", "Don't ask questions, just proceed with the defaults").Short('y').Bool(),
}

func main() {
	ctx := mansion.NewContext(app)
	ctx.Version = buildinfo.Version
	ctx.VersionString = buildinfo.VersionString
	ctx.Commit = buildinfo.Commit

	install.Register(ctx)
	uninstall.Register(ctx)
	plancmd.Register(ctx)
	version.Register(ctx)

	app.UsageTemplate(kingpin.CompactUsageTemplate)
	app.HelpFlag.Short('h')
	app.Version(ctx.VersionString)
	app.VersionFlag.Short('V')

	cmd, err := app.Parse(os.Args[1:])

	if *appArgs.quiet {
		*appArgs.noProgress = true
	}

	ctx.JSON = *appArgs.json
	ctx.Quiet = *appArgs.quiet
	ctx.Verbose = *appArgs.verbose
	ctx.AssumeYes = *appArgs.assumeYes
	comm.Configure(*appArgs.noProgress, *appArgs.quiet, *appArgs.verbose, *appArgs.json, *appArgs.timestamps, *appArgs.assumeYes)

	level := slog.LevelInfo
	if *appArgs.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(comm.NewSlogHandler(nil, level)))

	fullCmd := kingpin.MustParse(cmd, err)
	do, ok := ctx.Commands[fullCmd]
	if !ok {
		comm.Dief("Unknown command: %s", fullCmd)
	}

	slog.Debug("Starting", "userAgent", ctx.UserAgent())
	do(ctx)
}
