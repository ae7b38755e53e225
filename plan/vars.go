package plan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/itchio/setup/installer/bfs"
	"github.com/pkg/errors"
)

// Vars are substituted in paths and dependency commands, as ${name}
type Vars map[string]string

// Render replaces every ${name} (or $name) in s. Referencing a
// variable that isn't defined is an error.
func (v Vars) Render(s string) (string, error) {
	var missing []string
	res := os.Expand(s, func(name string) string {
		if value, ok := v[name]; ok {
			return value
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Errorf("undefined variable in (%s): %s (known: %s)", s, strings.Join(missing, ", "), strings.Join(v.names(), ", "))
	}
	return res, nil
}

func (v Vars) renderSpec(source string, destination string) (bfs.CopySpec, error) {
	src, err := v.Render(source)
	if err != nil {
		return bfs.CopySpec{}, err
	}
	dst, err := v.Render(destination)
	if err != nil {
		return bfs.CopySpec{}, err
	}

	return bfs.CopySpec{
		Source:      filepath.Clean(filepath.FromSlash(src)),
		Destination: filepath.Clean(filepath.FromSlash(dst)),
	}, nil
}

func (v Vars) names() []string {
	var res []string
	for name := range v {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}
