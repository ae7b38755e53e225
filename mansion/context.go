package mansion

import (
	"fmt"

	"github.com/itchio/ox"
	"github.com/itchio/setup/comm"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

type DoCommand func(ctx *Context)

type Context struct {
	App      *kingpin.Application
	Commands map[string]DoCommand

	// VersionString is the complete version string
	VersionString string

	// Version is just the version number, as a string
	Version string

	// The git commit hash
	Commit string

	// Quiet silences all output
	Quiet bool

	// Verbose enables chatty output
	Verbose bool

	// JSON enables JSON-lines output
	JSON bool

	// AssumeYes answers every question with its default
	AssumeYes bool

	// Runtime is the platform we're running on, resolved once on startup
	Runtime *ox.Runtime
}

func NewContext(app *kingpin.Application) *Context {
	return &Context{
		App:      app,
		Commands: make(map[string]DoCommand),
		Runtime:  ox.CurrentRuntime(),
	}
}

func (ctx *Context) Register(clause *kingpin.CmdClause, do DoCommand) {
	ctx.Commands[clause.FullCommand()] = do
}

// Interactive returns true if the wizard may ask the user questions
// and wait for answers.
func (ctx *Context) Interactive() bool {
	return !ctx.JSON && !ctx.AssumeYes && IsTerminal()
}

func (ctx *Context) Must(err error) {
	if err != nil {
		if ctx.Verbose || ctx.JSON {
			comm.Dief("%+v", err)
		} else {
			comm.Dief("%s", err)
		}
	}
}

// UserAgent identifies this program in logs and results
func (ctx *Context) UserAgent() string {
	version := ctx.Version
	if version == "head" && ctx.Commit != "" {
		version = ctx.Commit
	}

	return fmt.Sprintf("setup/%s (%s)", version, ctx.Runtime)
}
