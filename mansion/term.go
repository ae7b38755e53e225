package mansion

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal returns true if stdin is an interactive terminal,
// so the wizard can ask questions.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
