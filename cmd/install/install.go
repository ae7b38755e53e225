package install

import (
	"github.com/itchio/ox"
	"github.com/itchio/setup/comm"
	"github.com/itchio/setup/installer"
	"github.com/itchio/setup/mansion"
	"github.com/itchio/setup/plan"
	"github.com/itchio/setup/wizard"
	"github.com/pkg/errors"
	"github.com/skratchdot/open-golang/open"
)

var args = struct {
	setup    *string
	target   *string
	features *[]string
	open     *bool
}{}

func Register(ctx *mansion.Context) {
	cmd := ctx.App.Command("install", "Walk through the setup wizard and install an application")
	args.setup = cmd.Arg("setup", "Setup description (setup.toml, setup.json) or the directory containing it").Default(".").String()
	args.target = cmd.Flag("target", "Directory to install into").Short('t').String()
	args.features = cmd.Flag("feature", "Feature to install, may be repeated. Defaults to the setup's default selection").Short('f').Strings()
	args.open = cmd.Flag("open", "Open the target directory once the install is complete").Bool()
	ctx.Register(cmd, do)
}

func do(ctx *mansion.Context) {
	res, err := Do(Params{
		SetupPath:        *args.setup,
		Target:           *args.target,
		Features:         *args.features,
		Runtime:          ctx.Runtime,
		Interactive:      ctx.Interactive(),
		HandleInterrupts: true,
	})
	ctx.Must(err)

	comm.Notice(wizard.Title(res.Name, wizard.PageEnd), []string{res.Message})
	comm.ResultOrPrint(res, func() {
		if res.Outcome == string(wizard.OutcomeSuccess) {
			comm.Statf("Installed %d files into %s", len(res.InstalledFiles), res.Target)
		}
	})

	switch wizard.Outcome(res.Outcome) {
	case wizard.OutcomeFailure:
		comm.Dief("%s", res.Error)
	case wizard.OutcomeSuccess:
		if *args.open {
			err := open.Start(res.Target)
			if err != nil {
				comm.Warnf("Could not open %s: %s", res.Target, err.Error())
			}
		}
	}
}

type Params struct {
	// Path to a setup description, or to the directory containing one
	SetupPath string

	// @optional directory to install into. Asked for when interactive.
	Target string

	// @optional feature IDs to install. Asked for when interactive,
	// otherwise the default selection is used.
	Features []string

	Runtime *ox.Runtime

	// Interactive is true if questions can be asked on stdin
	Interactive bool

	// HandleInterrupts cancels the install on SIGINT
	HandleInterrupts bool

	// @optional, defaults to installer.RunDependency
	RunDependency installer.DependencyRunner
}

// Do walks through every page of the install wizard and returns
// how it ended. Errors are only returned for problems that happen
// before anything is installed (bad setup description, bad target...),
// a failed install is reported through the result.
func Do(params Params) (*mansion.InstallResult, error) {
	if params.Runtime == nil {
		params.Runtime = ox.CurrentRuntime()
	}

	setupPath, err := plan.Resolve(params.SetupPath)
	if err != nil {
		return nil, err
	}

	cfg, err := plan.Load(setupPath)
	if err != nil {
		return nil, err
	}

	about, err := cfg.ReadText(cfg.About)
	if err != nil {
		return nil, errors.Wrap(err, "reading about text")
	}

	license, err := cfg.ReadText(cfg.License)
	if err != nil {
		return nil, errors.Wrap(err, "reading license")
	}

	s := &session{
		params:  params,
		cfg:     cfg,
		about:   about,
		license: license,
		w: wizard.New(wizard.Params{
			Kind:        wizard.KindInstall,
			HasLicense:  license != "",
			HasFeatures: len(cfg.Features) > 0,
			CheckTarget: plan.CheckTarget,
		}),
	}
	return s.run()
}
