package installer

import (
	"os/exec"
	"strings"
	"syscall"

	"github.com/itchio/setup/installer/loggerwriter"
	"github.com/itchio/wharf/state"
	"github.com/pkg/errors"
)

// DependencyRunner runs one dependency to completion
type DependencyRunner func(consumer *state.Consumer, dep *Dependency) error

var _ DependencyRunner = RunDependency

// RunDependency launches a dependency's program, waits for it
// and checks its exit code against the accepted set.
func RunDependency(consumer *state.Consumer, dep *Dependency) error {
	consumer.Infof("Installing dependency (%s)", dep.Name)

	tokens := append([]string{dep.Command}, dep.Args...)
	exitCode, err := RunCommand(consumer, tokens)
	if err != nil {
		return errors.WithStack(&DependencyLaunchError{
			Name: dep.Name,
			Err:  err,
		})
	}

	if !dep.Accepts(exitCode) {
		return errors.WithStack(&DependencyFailedError{
			Name:     dep.Name,
			ExitCode: exitCode,
			Message:  dep.ExitCodeMessages[exitCode],
		})
	}

	if exitCode != 0 {
		msg := dep.ExitCodeMessages[exitCode]
		if msg == "" {
			msg = "accepted"
		}
		consumer.Infof("Dependency (%s) exited with code %d: %s", dep.Name, exitCode, msg)
	}
	return nil
}

// RunCommand starts and waits for an *exec.Cmd to finish,
// and goes through a weird type-casting dance to retrieve
// the actual exit code. A non-nil error means the command
// could not be run at all.
func RunCommand(consumer *state.Consumer, cmdTokens []string) (int, error) {
	consumer.Infof("→ Running command:")
	consumer.Infof("  %s", strings.Join(cmdTokens, " ::: "))

	stdout := loggerwriter.New(consumer, "out")
	stderr := loggerwriter.New(consumer, "err")

	cmd := exec.Command(cmdTokens[0], cmdTokens[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	stdout.Close()
	stderr.Close()

	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return status.ExitStatus(), nil
			}
			return exitError.ExitCode(), nil
		}

		return 127, err
	}

	return 0, nil
}
