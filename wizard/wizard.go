package wizard

import (
	"github.com/itchio/setup/installer"
	"github.com/pkg/errors"
)

// Page is one step of a setup wizard
type Page string

const (
	PageAbout     Page = "about"
	PageWelcome   Page = "welcome"
	PageLicense   Page = "license"
	PageFeatures  Page = "features"
	PageTarget    Page = "target"
	PageInstall   Page = "install"
	PageUninstall Page = "uninstall"
	PageEnd       Page = "end"
)

// Kind selects which pages a wizard walks through
type Kind string

const (
	KindInstall   Kind = "install"
	KindUninstall Kind = "uninstall"
)

var flows = map[Kind]map[Page]Page{
	KindInstall: {
		PageWelcome:  PageLicense,
		PageLicense:  PageFeatures,
		PageFeatures: PageTarget,
		PageTarget:   PageInstall,
		PageInstall:  PageEnd,
	},
	KindUninstall: {
		PageWelcome:   PageUninstall,
		PageUninstall: PageEnd,
	},
}

// Operation is the long-running part of a wizard, that runs
// while it's on the install (or uninstall) page.
type Operation interface {
	Running() bool
	Cancel()
	Mode() installer.Mode
}

var _ Operation = (*installer.Executor)(nil)

// ErrNotReady is returned by Next when the current page
// needs something from the user first.
var ErrNotReady = errors.New("not ready to continue")

type Params struct {
	Kind Kind

	// Pages without content are skipped
	HasLicense  bool
	HasFeatures bool

	// CheckTarget validates the directory picked on the target page
	CheckTarget func(target string) error
}

// A Wizard tracks which page a setup is on and decides where it goes next.
// It never touches the screen: callers render Page() however they like.
type Wizard struct {
	params   Params
	page     Page
	returnTo Page

	licenseAccepted bool
	target          string
	operation       Operation
}

func New(params Params) *Wizard {
	if params.Kind == "" {
		params.Kind = KindInstall
	}

	return &Wizard{
		params: params,
		page:   PageWelcome,
	}
}

func (w *Wizard) Page() Page {
	return w.page
}

func (w *Wizard) Kind() Kind {
	return w.params.Kind
}

func (w *Wizard) Target() string {
	return w.target
}

func (w *Wizard) LicenseAccepted() bool {
	return w.licenseAccepted
}

func (w *Wizard) AcceptLicense(accepted bool) {
	w.licenseAccepted = accepted
}

// SetTarget picks the directory to install into. It's only
// remembered if it passes CheckTarget.
func (w *Wizard) SetTarget(target string) error {
	if w.params.CheckTarget != nil {
		err := w.params.CheckTarget(target)
		if err != nil {
			return err
		}
	}
	w.target = target
	return nil
}

// Attach hands the wizard the operation started from the
// install or uninstall page.
func (w *Wizard) Attach(op Operation) {
	w.operation = op
}

// Next moves on to the following page, skipping the ones that
// have nothing to show.
func (w *Wizard) Next() error {
	err := w.canLeave()
	if err != nil {
		return err
	}

	next, ok := flows[w.params.Kind][w.page]
	if !ok {
		return errors.Errorf("no page after %s", w.page)
	}
	for w.skipped(next) {
		next = flows[w.params.Kind][next]
	}

	w.page = next
	return nil
}

// About shows the about page. Back returns to where we were.
func (w *Wizard) About() error {
	if w.page != PageWelcome {
		return errors.Errorf("about page is only reachable from %s", PageWelcome)
	}
	w.returnTo = w.page
	w.page = PageAbout
	return nil
}

func (w *Wizard) Back() error {
	if w.page != PageAbout {
		return errors.Errorf("can't go back from %s", w.page)
	}
	w.page = w.returnTo
	return nil
}

// Cancel is what happens when the user asks to quit. While an operation
// is running, it's asked to stop and the wizard stays where it is: Cancel
// returns false and the caller is expected to wait for the operation to
// wind down. Once the operation is over, there's nothing left to cancel:
// the wizard stays put so Next can show how it ended. Otherwise, the
// wizard goes straight to the end page.
func (w *Wizard) Cancel() bool {
	if w.operationPage() && w.operation != nil {
		if w.operation.Mode().IsTerminal() {
			return false
		}
		if w.operation.Running() {
			w.operation.Cancel()
			return false
		}
	}

	w.page = PageEnd
	return true
}

// Outcome is how the setup ended, shown on the end page
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeCancelled Outcome = "cancelled"
)

// Outcome tells what the end page should say
func (w *Wizard) Outcome() Outcome {
	if w.operation == nil {
		return OutcomeCancelled
	}

	switch w.operation.Mode() {
	case installer.ModeComplete:
		return OutcomeSuccess
	case installer.ModeError:
		return OutcomeFailure
	}
	return OutcomeCancelled
}

func (w *Wizard) operationPage() bool {
	return w.page == PageInstall || w.page == PageUninstall
}

func (w *Wizard) canLeave() error {
	switch w.page {
	case PageAbout:
		return errors.Wrap(ErrNotReady, "use Back to leave the about page")
	case PageEnd:
		return errors.Wrap(ErrNotReady, "the end page is the last one")
	case PageLicense:
		if !w.licenseAccepted {
			return errors.Wrap(ErrNotReady, "the license must be accepted")
		}
	case PageTarget:
		if w.target == "" {
			return errors.Wrap(ErrNotReady, "no target directory picked")
		}
	case PageInstall, PageUninstall:
		if w.operation == nil || !w.operation.Mode().IsTerminal() {
			return errors.Wrapf(ErrNotReady, "%s is still in progress", w.page)
		}
	}
	return nil
}

func (w *Wizard) skipped(page Page) bool {
	switch page {
	case PageLicense:
		return !w.params.HasLicense
	case PageFeatures:
		return !w.params.HasFeatures
	}
	return false
}
