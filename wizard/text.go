package wizard

import (
	"fmt"

	"github.com/itchio/setup/installer"
)

// Title returns the heading shown for a page
func Title(appName string, page Page) string {
	switch page {
	case PageAbout:
		return fmt.Sprintf("About %s", appName)
	case PageWelcome:
		return fmt.Sprintf("Welcome to the %s setup", appName)
	case PageLicense:
		return "License agreement"
	case PageFeatures:
		return "Pick the features to install"
	case PageTarget:
		return "Pick a destination folder"
	case PageInstall:
		return fmt.Sprintf("Installing %s", appName)
	case PageUninstall:
		return fmt.Sprintf("Uninstalling %s", appName)
	case PageEnd:
		return "Setup finished"
	}
	return string(page)
}

// ModeLabel describes what an executor is doing, for the progress label
func ModeLabel(mode installer.Mode) string {
	switch mode {
	case installer.ModeCollecting:
		return "Collecting files..."
	case installer.ModeDependencies:
		return "Installing dependencies..."
	case installer.ModeCopying:
		return "Copying files..."
	case installer.ModeWritingManifest:
		return "Writing uninstall information..."
	case installer.ModeUndoing:
		return "Rolling back..."
	case installer.ModeComplete:
		return "Done."
	case installer.ModeCancelled:
		return "Cancelled."
	case installer.ModeError:
		return "Failed."
	}
	return ""
}

// EndText is the message shown on the end page
func EndText(kind Kind, appName string, outcome Outcome) string {
	verb := "installed"
	if kind == KindUninstall {
		verb = "uninstalled"
	}

	switch outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("%s was %s successfully.", appName, verb)
	case OutcomeFailure:
		if kind == KindUninstall {
			return fmt.Sprintf("%s could not be completely %s, see the log above for details.", appName, verb)
		}
		return fmt.Sprintf("%s could not be %s. Any changes were rolled back, see the log above for details.", appName, verb)
	}
	return fmt.Sprintf("Setup was cancelled, %s was not %s.", appName, verb)
}
