package plancmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/itchio/ox"
	"github.com/itchio/setup/comm"
	"github.com/itchio/setup/installer"
	"github.com/itchio/setup/installer/bfs"
	"github.com/itchio/setup/mansion"
	"github.com/itchio/setup/plan"
	shellquote "github.com/kballard/go-shellquote"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

var args = struct {
	setup    *string
	target   *string
	features *[]string
	platform *string
}{}

func Register(ctx *mansion.Context) {
	cmd := ctx.App.Command("plan", "Show what an install would do, without touching the disk")
	args.setup = cmd.Arg("setup", "Setup description (setup.toml, setup.json) or the directory containing it").Default(".").String()
	args.target = cmd.Flag("target", "Directory that would be installed into").Short('t').Required().String()
	args.features = cmd.Flag("feature", "Feature to install, may be repeated. Defaults to the setup's default selection").Short('f').Strings()
	args.platform = cmd.Flag("platform", "Plan for another platform (windows, linux, osx)").Enum(
		string(ox.PlatformWindows),
		string(ox.PlatformLinux),
		string(ox.PlatformOSX),
	)
	ctx.Register(cmd, do)
}

func do(ctx *mansion.Context) {
	runtime := ctx.Runtime
	if *args.platform != "" {
		runtime = &ox.Runtime{
			Platform: ox.Platform(*args.platform),
			Is64:     ctx.Runtime.Is64,
		}
	}

	target, err := filepath.Abs(*args.target)
	ctx.Must(errors.WithStack(err))

	res, err := Do(Params{
		SetupPath: *args.setup,
		Target:    target,
		Features:  *args.features,
		Runtime:   runtime,
	})
	ctx.Must(err)

	comm.ResultOrPrint(res, func() {
		Print(res)
	})
}

type Params struct {
	SetupPath string
	Target    string
	Features  []string
	Runtime   *ox.Runtime
}

// Do builds the install plan for a setup description and expands it,
// so every file that would be copied is listed.
func Do(params Params) (*mansion.PlanResult, error) {
	setupPath, err := plan.Resolve(params.SetupPath)
	if err != nil {
		return nil, err
	}

	cfg, err := plan.Load(setupPath)
	if err != nil {
		return nil, err
	}

	features := params.Features
	if len(features) == 0 {
		features = cfg.DefaultSelection()
	}

	p, err := plan.Build(cfg, plan.BuildParams{
		Target:   params.Target,
		Features: features,
		Runtime:  params.Runtime,
		Consumer: comm.NewStateConsumer(),
	})
	if err != nil {
		return nil, err
	}

	ops, err := bfs.ExpandAll(p.CopySpecs...)
	if err != nil {
		return nil, err
	}

	res := &mansion.PlanResult{
		Platform:     string(params.Runtime.Platform),
		Target:       params.Target,
		Features:     features,
		ManifestPath: p.ManifestPath,
	}

	for _, op := range ops {
		stats, err := os.Stat(op.Source)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		res.Files = append(res.Files, mansion.PlannedFile{
			Source:      op.Source,
			Destination: op.Destination,
			Size:        stats.Size(),
		})
		res.TotalSize += stats.Size()
	}

	for _, stage := range []installer.Stage{installer.StageBeforeCopy, installer.StageAfterCopy} {
		for _, dep := range p.DependenciesFor(stage) {
			res.Dependencies = append(res.Dependencies, mansion.PlannedCommand{
				Name:      dep.Name,
				Stage:     string(stage),
				Command:   append([]string{dep.Command}, dep.Args...),
				ExitCodes: dep.ExitCodes,
			})
		}
	}

	return res, nil
}

// Print shows a plan as tables on stdout
func Print(res *mansion.PlanResult) {
	comm.Opf("Installing %s into %s (%s)", strings.Join(res.Features, ", "), res.Target, res.Platform)

	files := tablewriter.NewWriter(os.Stdout)
	files.SetHeader([]string{"Source", "Destination", "Size"})
	files.SetAutoWrapText(false)
	for _, f := range res.Files {
		files.Append([]string{f.Source, f.Destination, humanize.IBytes(uint64(f.Size))})
	}
	files.SetFooter([]string{"", fmt.Sprintf("%d files", len(res.Files)), humanize.IBytes(uint64(res.TotalSize))})
	files.Render()

	if len(res.Dependencies) > 0 {
		deps := tablewriter.NewWriter(os.Stdout)
		deps.SetHeader([]string{"Dependency", "Stage", "Command", "Exit codes"})
		deps.SetAutoWrapText(false)
		for _, d := range res.Dependencies {
			codes := "0"
			if len(d.ExitCodes) > 0 {
				var s []string
				for _, c := range d.ExitCodes {
					s = append(s, fmt.Sprintf("%d", c))
				}
				codes = strings.Join(s, ", ")
			}
			deps.Append([]string{d.Name, d.Stage, shellquote.Join(d.Command...), codes})
		}
		deps.Render()
	}

	if res.ManifestPath != "" {
		comm.Statf("Install manifest: %s", res.ManifestPath)
	} else {
		comm.Statf("No uninstaller, no install manifest")
	}
}
