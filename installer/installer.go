package installer

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/itchio/setup/installer/bfs"
)

// An InstallPlan is everything the executor needs to perform an install.
// It must be fully resolved (no template variables left) before being
// handed to an Executor, and is never modified afterwards.
type InstallPlan struct {
	// Files and folders to copy, in order
	CopySpecs []bfs.CopySpec

	// External programs to run, in order (within their stage)
	Dependencies []*Dependency

	// Where to write the list of installed paths. Empty means no manifest.
	ManifestPath string

	// Artificial delay after each progress update, for UI testing
	StepDelay time.Duration
}

func (p *InstallPlan) Validate() error {
	for i, spec := range p.CopySpecs {
		err := validation.ValidateStruct(&spec,
			validation.Field(&spec.Source, validation.Required),
			validation.Field(&spec.Destination, validation.Required),
		)
		if err != nil {
			return fmt.Errorf("copy spec %d: %v", i, err)
		}
	}

	for _, dep := range p.Dependencies {
		err := dep.Validate()
		if err != nil {
			return fmt.Errorf("dependency (%s): %v", dep.Name, err)
		}
	}

	return validation.ValidateStruct(p,
		validation.Field(&p.StepDelay, validation.Min(time.Duration(0))),
	)
}

// DependenciesFor returns the dependencies that run at a given stage, in order
func (p *InstallPlan) DependenciesFor(stage Stage) []*Dependency {
	var res []*Dependency
	for _, dep := range p.Dependencies {
		if dep.StageOrDefault() == stage {
			res = append(res, dep)
		}
	}
	return res
}

// Stage determines when a dependency runs relative to the bulk file copy
type Stage string

const (
	// StageBeforeCopy is for prerequisite installers (the default)
	StageBeforeCopy Stage = "before-copy"
	// StageAfterCopy is for installers that need the copied files
	StageAfterCopy Stage = "after-copy"
)

// A Dependency is an external program run as part of the install,
// typically a bundled redistributable installer.
type Dependency struct {
	// Human-readable name, for logs
	Name string

	// Program to run, and its arguments
	Command string
	Args    []string

	// Exit codes that mean success. Empty means only 0.
	ExitCodes []int

	// Optional human-readable meaning of some exit codes
	ExitCodeMessages map[int]string

	// @optional
	Stage Stage
}

func (d *Dependency) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Command, validation.Required),
		validation.Field(&d.Stage, validation.In(StageBeforeCopy, StageAfterCopy)),
	)
}

func (d *Dependency) StageOrDefault() Stage {
	if d.Stage == "" {
		return StageBeforeCopy
	}
	return d.Stage
}

// Accepts returns true if exitCode means the dependency installed fine
func (d *Dependency) Accepts(exitCode int) bool {
	if len(d.ExitCodes) == 0 {
		return exitCode == 0
	}

	for _, code := range d.ExitCodes {
		if code == exitCode {
			return true
		}
	}
	return false
}

// Mode is the state the executor is in
type Mode string

const (
	// ModeUnchanged is used in progress events when the mode
	// is the same as in the previous event
	ModeUnchanged Mode = ""

	// ModeIdle is the mode of an executor that hasn't been started
	ModeIdle Mode = "idle"

	ModeCollecting      Mode = "collecting"
	ModeDependencies    Mode = "dependencies"
	ModeCopying         Mode = "copying"
	ModeWritingManifest Mode = "writing-manifest"
	ModeUndoing         Mode = "undoing"

	ModeComplete  Mode = "complete"
	ModeCancelled Mode = "cancelled"
	ModeError     Mode = "error"
)

// IsTerminal returns true for modes an executor never leaves
func (m Mode) IsTerminal() bool {
	switch m {
	case ModeComplete, ModeCancelled, ModeError:
		return true
	}
	return false
}
