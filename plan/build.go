package plan

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/itchio/ox"
	"github.com/itchio/setup/installer"
	"github.com/itchio/setup/installer/bfs"
	"github.com/itchio/setup/redist"
	"github.com/itchio/wharf/state"
	shellquote "github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
)

type BuildParams struct {
	// Directory to install into. Must be an existing absolute directory.
	Target string

	// IDs of the features the user picked. Required features are
	// added even when missing.
	Features []string

	// Platform we're installing on, resolved once at startup
	Runtime *ox.Runtime

	Consumer *state.Consumer
}

// Build turns a setup description and the user's choices into an
// install plan with every variable resolved.
func Build(cfg *Config, params BuildParams) (*installer.InstallPlan, error) {
	consumer := params.Consumer
	if consumer == nil {
		consumer = &state.Consumer{}
	}

	if params.Runtime == nil {
		return nil, errors.New("plan: missing runtime")
	}

	err := CheckTarget(params.Target)
	if err != nil {
		return nil, err
	}

	vars := Vars{
		"target":   params.Target,
		"src":      cfg.SourceDir(),
		"platform": string(params.Runtime.Platform),
	}

	selected, err := cfg.selection(params.Features)
	if err != nil {
		return nil, err
	}

	plan := &installer.InstallPlan{
		StepDelay: time.Duration(cfg.Slowdown * float64(time.Second)),
	}

	for _, f := range cfg.Features {
		if !selected[f.ID] {
			continue
		}

		for _, file := range f.Files {
			spec, err := vars.renderSpec(file.Source, file.Destination)
			if err != nil {
				return nil, errors.Wrapf(err, "feature (%s)", f.ID)
			}
			plan.CopySpecs = append(plan.CopySpecs, spec)
		}
	}

	for _, entry := range cfg.Dependencies {
		name := entry.Name
		if !entry.MatchesPlatform(params.Runtime.Platform) {
			consumer.Infof("Skipping dependency (%s): only for %s", name, entry.Platform)
			continue
		}
		if !entry.AppliesTo(selected) {
			consumer.Infof("Skipping dependency (%s): none of %s will be installed", name, strings.Join(entry.Features, ", "))
			continue
		}

		dep, err := cfg.dependency(entry, vars)
		if err != nil {
			return nil, errors.Wrapf(err, "dependency (%s)", name)
		}
		plan.Dependencies = append(plan.Dependencies, dep)
	}

	if cfg.Uninstaller != nil && cfg.Uninstaller.Enabled {
		u := cfg.Uninstaller
		targetDir, err := vars.Render(u.TargetDirectory)
		if err != nil {
			return nil, errors.Wrap(err, "uninstaller")
		}
		if !filepath.IsAbs(targetDir) {
			return nil, errors.Errorf("uninstaller: target directory (%s) must be absolute", targetDir)
		}

		sourceDir := u.Source
		if sourceDir == "" {
			sourceDir = "uninstaller"
		}
		uninstallerName := u.Name + AppSuffix(params.Runtime.Platform)

		plan.CopySpecs = append(plan.CopySpecs, bfs.CopySpec{
			Source:      filepath.Join(cfg.ResolvePath(sourceDir), uninstallerName),
			Destination: filepath.Join(targetDir, uninstallerName),
		})
		plan.ManifestPath = ManifestPathFor(filepath.Join(targetDir, uninstallerName))
	}

	err = plan.Validate()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return plan, nil
}

// CheckTarget makes sure target is an existing absolute directory
func CheckTarget(target string) error {
	if target == "" || !filepath.IsAbs(target) {
		return errors.Errorf("target directory (%s) must be an absolute path", target)
	}

	stats, err := os.Stat(target)
	if err != nil {
		return errors.Errorf("target directory (%s) does not exist", target)
	}
	if !stats.IsDir() {
		return errors.Errorf("target (%s) is not a directory", target)
	}
	return nil
}

// AppSuffix is what programs' file names end with on a platform
func AppSuffix(platform ox.Platform) string {
	switch platform {
	case ox.PlatformWindows:
		return ".exe"
	case ox.PlatformOSX:
		return ".app"
	}
	return ""
}

// ManifestPathFor returns where the manifest of an install goes,
// given the path of its uninstaller.
func ManifestPathFor(uninstallerPath string) string {
	return uninstallerPath + ".data"
}

func (c *Config) selection(picked []string) (map[string]bool, error) {
	known := c.FeatureIDs()
	selected := make(map[string]bool)
	for _, id := range picked {
		if !known[id] {
			return nil, errors.Errorf("unknown feature (%s)", id)
		}
		selected[id] = true
	}

	for _, f := range c.Features {
		if f.Required {
			selected[f.ID] = true
		}
	}
	return selected, nil
}

func (c *Config) dependency(entry *redist.Entry, vars Vars) (*installer.Dependency, error) {
	var tokens []string
	if entry.Command != "" {
		words, err := shellquote.Split(entry.Command)
		if err != nil {
			return nil, errors.Wrap(err, "parsing command")
		}
		tokens = words
	} else {
		tokens = append([]string{entry.File}, entry.Args...)
	}
	if len(tokens) == 0 {
		return nil, errors.New("empty command")
	}

	for i, token := range tokens {
		rendered, err := vars.Render(token)
		if err != nil {
			return nil, err
		}
		tokens[i] = rendered
	}

	// bare program names are looked up in PATH, anything else
	// is relative to the setup description
	program := tokens[0]
	if strings.ContainsAny(program, `/\`) {
		program = c.ResolvePath(program)
	}

	return &installer.Dependency{
		Name:             entry.Name,
		Command:          program,
		Args:             tokens[1:],
		ExitCodes:        entry.AcceptedCodes(),
		ExitCodeMessages: entry.Messages(),
		Stage:            installer.Stage(entry.Stage),
	}, nil
}

func fileExists(p string) bool {
	stats, err := os.Stat(p)
	return err == nil && stats.Mode().IsRegular()
}
