package plan

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/itchio/ox"
	"github.com/itchio/setup/installer"
	"github.com/itchio/setup/redist"
	"github.com/pkg/errors"
)

// Config describes what a setup installs, as read from setup.toml
// (or setup.json) next to the payload.
type Config struct {
	// Name of the application, shown in the wizard
	Name string

	// @optional paths to text files shown on the about and license pages,
	// relative to the config's directory
	About   string
	License string

	// @optional directory holding the files to install, relative to the
	// config's directory. ${src} expands to it. Defaults to "install".
	Source string

	// @optional seconds to wait after each progress update, to test UIs
	Slowdown float64

	// Features the user may pick from, in display order
	Features []*Feature

	// External programs to run during the install
	Dependencies []*redist.Entry

	// @optional
	Uninstaller *Uninstaller

	// BaseDir is the directory the config was loaded from. It isn't part
	// of the file, Load fills it in.
	BaseDir string
}

// A Feature is a part of the application the user may choose to install
type Feature struct {
	ID   string
	Name string

	// Required features are always installed and can't be deselected
	Required bool

	// @optional whether the feature is selected initially, defaults to true
	Default *bool

	// Files to copy when the feature is selected, in order
	Files []*File
}

// IsDefault returns true if the feature should be selected initially
func (f *Feature) IsDefault() bool {
	return f.Required || f.Default == nil || *f.Default
}

type File struct {
	Source      string
	Destination string
}

type Uninstaller struct {
	Enabled bool

	// Name of the uninstaller program, without the platform suffix
	Name string

	// @optional directory the uninstaller program is read from, relative
	// to the config's directory. Defaults to "uninstaller".
	Source string

	// Where the uninstaller and the manifest are installed
	TargetDirectory string `mapstructure:"target_directory"`
}

// Validate checks the config for mistakes that would only show
// up halfway through an install otherwise.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Slowdown, validation.Min(0.0)),
		validation.Field(&c.Features, validation.By(uniqueFeatures)),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	for i, f := range c.Features {
		err := validation.ValidateStruct(f,
			validation.Field(&f.ID, validation.Required),
		)
		if err != nil {
			return errors.Wrapf(err, "feature %d", i)
		}

		for j, file := range f.Files {
			err := validation.ValidateStruct(file,
				validation.Field(&file.Source, validation.Required),
				validation.Field(&file.Destination, validation.Required),
			)
			if err != nil {
				return errors.Wrapf(err, "feature (%s) file %d", f.ID, j)
			}
		}
	}

	known := c.FeatureIDs()
	for i, dep := range c.Dependencies {
		err := validation.ValidateStruct(dep,
			validation.Field(&dep.Name, validation.Required),
			validation.Field(&dep.Platform, validation.In(ox.PlatformWindows, ox.PlatformOSX, ox.PlatformLinux)),
			validation.Field(&dep.Stage, validation.In(string(installer.StageBeforeCopy), string(installer.StageAfterCopy))),
			validation.Field(&dep.Features, validation.By(featuresIn(known))),
			validation.Field(&dep.File, validation.By(fileOrCommand(dep))),
		)
		if err != nil {
			return errors.Wrapf(err, "dependency %d", i)
		}
	}

	if c.Uninstaller != nil && c.Uninstaller.Enabled {
		u := c.Uninstaller
		err := validation.ValidateStruct(u,
			validation.Field(&u.Name, validation.Required),
			validation.Field(&u.TargetDirectory, validation.Required),
		)
		if err != nil {
			return errors.Wrap(err, "uninstaller")
		}
	}

	return nil
}

// FeatureIDs returns the set of all declared feature IDs
func (c *Config) FeatureIDs() map[string]bool {
	res := make(map[string]bool)
	for _, f := range c.Features {
		res[f.ID] = true
	}
	return res
}

// DefaultSelection returns the IDs of the features selected initially
func (c *Config) DefaultSelection() []string {
	var res []string
	for _, f := range c.Features {
		if f.IsDefault() {
			res = append(res, f.ID)
		}
	}
	return res
}

func uniqueFeatures(value interface{}) error {
	features, _ := value.([]*Feature)
	seen := make(map[string]bool)
	for _, f := range features {
		if f.ID == "" {
			continue
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate feature id (%s)", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

func featuresIn(known map[string]bool) validation.RuleFunc {
	return func(value interface{}) error {
		ids, _ := value.([]string)
		for _, id := range ids {
			if !known[id] {
				return fmt.Errorf("unknown feature (%s)", id)
			}
		}
		return nil
	}
}

func fileOrCommand(dep *redist.Entry) validation.RuleFunc {
	return func(value interface{}) error {
		switch {
		case dep.File == "" && dep.Command == "":
			return errors.New("one of file or command is required")
		case dep.File != "" && dep.Command != "":
			return errors.New("only one of file or command may be given")
		case dep.Command != "" && len(dep.Args) > 0:
			return errors.New("args can only be used with file")
		}
		return nil
	}
}
