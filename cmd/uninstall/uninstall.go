package uninstall

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/itchio/setup/comm"
	"github.com/itchio/setup/installer"
	"github.com/itchio/setup/installer/bfs"
	"github.com/itchio/setup/mansion"
	"github.com/itchio/setup/plan"
	"github.com/itchio/setup/wizard"
	"github.com/itchio/wharf/state"
	"github.com/pkg/errors"
)

var args = struct {
	manifest *string
	name     *string
}{}

func Register(ctx *mansion.Context) {
	cmd := ctx.App.Command("uninstall", "Remove everything listed in an install manifest")
	args.manifest = cmd.Arg("manifest", "Install manifest, defaults to the one next to this executable").String()
	args.name = cmd.Flag("name", "Name of the application, as shown in the wizard").String()
	ctx.Register(cmd, do)
}

func do(ctx *mansion.Context) {
	manifestPath := *args.manifest
	if manifestPath == "" {
		exe, err := os.Executable()
		ctx.Must(errors.WithStack(err))
		manifestPath = plan.ManifestPathFor(exe)
	}

	res, err := Do(Params{
		ManifestPath: manifestPath,
		Name:         *args.name,
		Consumer:     comm.NewStateConsumer(),
	})
	ctx.Must(err)

	comm.Notice(wizard.Title(res.Name, wizard.PageEnd), []string{res.Message})
	comm.ResultOrPrint(res, func() {
		comm.Statf("Removed %d of %d entries", res.Removed, res.Found)
	})
	if res.Outcome == string(wizard.OutcomeFailure) {
		comm.Dief("Could not remove %d entries", len(res.Failed))
	}
}

type Params struct {
	ManifestPath string

	// @optional name shown in the wizard, derived from the manifest's
	// file name when empty
	Name string

	Consumer *state.Consumer
}

// Do walks through the uninstall wizard: it asks for confirmation, then
// removes every path listed in the manifest, in order. Removal is
// best-effort, paths that can't be removed are reported in the result.
func Do(params Params) (*mansion.UninstallResult, error) {
	consumer := params.Consumer
	if consumer == nil {
		consumer = &state.Consumer{}
	}

	name := params.Name
	if name == "" {
		name = nameFromManifest(params.ManifestPath)
	}

	lines, err := bfs.ReadManifest(params.ManifestPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading install manifest")
	}

	w := wizard.New(wizard.Params{Kind: wizard.KindUninstall})
	comm.Opf("%s", wizard.Title(name, w.Page()))

	res := &mansion.UninstallResult{
		Name:         name,
		ManifestPath: params.ManifestPath,
	}

	if comm.YesNo("Remove " + name + " and all of its files?") {
		err = w.Next()
		if err != nil {
			return nil, err
		}
		comm.Opf("%s", wizard.Title(name, w.Page()))

		op := &removal{mode: installer.ModeIdle}
		w.Attach(op)

		consumer.Infof("Removing %d entries listed in %s", len(lines), params.ManifestPath)
		op.mode = installer.ModeUndoing
		comm.StartProgress()
		stats := bfs.RemoveListed(bfs.RemoveListedParams{
			Consumer: consumer,
			Paths:    lines,
		})
		comm.EndProgress()

		res.Found = stats.Found
		res.Removed = stats.Removed
		res.Failed = stats.Failed
		if len(stats.Failed) > 0 {
			op.mode = installer.ModeError
		} else {
			op.mode = installer.ModeComplete
		}

		err = w.Next()
		if err != nil {
			return nil, err
		}
	} else {
		w.Cancel()
	}

	outcome := w.Outcome()
	res.Outcome = string(outcome)
	res.Message = wizard.EndText(wizard.KindUninstall, name, outcome)
	return res, nil
}

func nameFromManifest(manifestPath string) string {
	name := strings.TrimSuffix(filepath.Base(manifestPath), filepath.Ext(manifestPath))
	for _, suffix := range []string{".exe", ".app"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// removal is the uninstall wizard's operation. It runs to completion
// once started: there's nothing to roll back to.
type removal struct {
	mode installer.Mode
}

var _ wizard.Operation = (*removal)(nil)

func (r *removal) Running() bool {
	return r.mode != installer.ModeIdle && !r.mode.IsTerminal()
}

func (r *removal) Cancel() {}

func (r *removal) Mode() installer.Mode {
	return r.mode
}
