package wizard

import (
	"testing"

	"github.com/itchio/setup/installer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeOperation struct {
	running   bool
	cancelled bool
	mode      installer.Mode
}

func (op *fakeOperation) Running() bool        { return op.running }
func (op *fakeOperation) Cancel()              { op.cancelled = true }
func (op *fakeOperation) Mode() installer.Mode { return op.mode }

func must(t *testing.T, err error) {
	if err != nil {
		assert.NoError(t, err)
		t.FailNow()
	}
}

func Test_InstallFlow(t *testing.T) {
	w := New(Params{
		HasLicense:  true,
		HasFeatures: true,
	})
	assert.Equal(t, PageWelcome, w.Page())

	must(t, w.About())
	assert.Equal(t, PageAbout, w.Page())
	assert.Error(t, w.Next())
	must(t, w.Back())
	assert.Equal(t, PageWelcome, w.Page())

	must(t, w.Next())
	assert.Equal(t, PageLicense, w.Page())

	err := w.Next()
	assert.Equal(t, ErrNotReady, errors.Cause(err))
	w.AcceptLicense(true)
	must(t, w.Next())
	assert.Equal(t, PageFeatures, w.Page())

	must(t, w.Next())
	assert.Equal(t, PageTarget, w.Page())
	assert.Error(t, w.Next())
	must(t, w.SetTarget("/opt/app"))
	must(t, w.Next())
	assert.Equal(t, PageInstall, w.Page())

	// can't leave until the install is over
	assert.Error(t, w.Next())
	op := &fakeOperation{running: true, mode: installer.ModeCopying}
	w.Attach(op)
	assert.Error(t, w.Next())

	op.running = false
	op.mode = installer.ModeComplete
	must(t, w.Next())
	assert.Equal(t, PageEnd, w.Page())
	assert.Equal(t, OutcomeSuccess, w.Outcome())
	assert.Error(t, w.Next())
}

func Test_SkipsEmptyPages(t *testing.T) {
	w := New(Params{})
	must(t, w.Next())
	assert.Equal(t, PageTarget, w.Page())
}

func Test_AboutOnlyFromWelcome(t *testing.T) {
	w := New(Params{})
	must(t, w.Next())
	assert.Error(t, w.About())
	assert.Error(t, w.Back())
}

func Test_SetTargetChecks(t *testing.T) {
	w := New(Params{
		CheckTarget: func(target string) error {
			if target != "/good" {
				return errors.New("bad target")
			}
			return nil
		},
	})
	assert.Error(t, w.SetTarget("/bad"))
	assert.Equal(t, "", w.Target())
	must(t, w.SetTarget("/good"))
	assert.Equal(t, "/good", w.Target())
}

func Test_CancelBeforeInstall(t *testing.T) {
	w := New(Params{HasLicense: true})
	must(t, w.Next())

	assert.True(t, w.Cancel())
	assert.Equal(t, PageEnd, w.Page())
	assert.Equal(t, OutcomeCancelled, w.Outcome())
}

func Test_CancelDuringInstall(t *testing.T) {
	w := New(Params{})
	must(t, w.Next())
	must(t, w.SetTarget("/opt/app"))
	must(t, w.Next())

	op := &fakeOperation{running: true, mode: installer.ModeCopying}
	w.Attach(op)

	assert.False(t, w.Cancel())
	assert.True(t, op.cancelled)
	assert.Equal(t, PageInstall, w.Page())

	op.running = false
	op.mode = installer.ModeCancelled
	must(t, w.Next())
	assert.Equal(t, OutcomeCancelled, w.Outcome())
}

func Test_CancelAfterOperationFinished(t *testing.T) {
	for _, kind := range []Kind{KindInstall, KindUninstall} {
		w := New(Params{Kind: kind})
		must(t, w.Next())
		if kind == KindInstall {
			must(t, w.SetTarget("/opt/app"))
			must(t, w.Next())
		}

		op := &fakeOperation{mode: installer.ModeComplete}
		w.Attach(op)

		assert.False(t, w.Cancel())
		assert.False(t, op.cancelled)
		assert.NotEqual(t, PageEnd, w.Page())

		must(t, w.Next())
		assert.Equal(t, PageEnd, w.Page())
		assert.Equal(t, OutcomeSuccess, w.Outcome())
	}
}

func Test_Outcomes(t *testing.T) {
	w := New(Params{})
	w.Attach(&fakeOperation{mode: installer.ModeError})
	assert.Equal(t, OutcomeFailure, w.Outcome())

	w.Attach(&fakeOperation{mode: installer.ModeComplete})
	assert.Equal(t, OutcomeSuccess, w.Outcome())
}

func Test_UninstallFlow(t *testing.T) {
	w := New(Params{Kind: KindUninstall, HasLicense: true})
	must(t, w.Next())
	assert.Equal(t, PageUninstall, w.Page())

	op := &fakeOperation{running: true}
	w.Attach(op)
	assert.False(t, w.Cancel())

	op.running = false
	op.mode = installer.ModeComplete
	must(t, w.Next())
	assert.Equal(t, PageEnd, w.Page())
	assert.Equal(t, OutcomeSuccess, w.Outcome())
}

func Test_EndText(t *testing.T) {
	assert.Equal(t, "Sample was installed successfully.", EndText(KindInstall, "Sample", OutcomeSuccess))
	assert.Equal(t, "Setup was cancelled, Sample was not uninstalled.", EndText(KindUninstall, "Sample", OutcomeCancelled))
	assert.Contains(t, EndText(KindInstall, "Sample", OutcomeFailure), "rolled back")
	assert.Equal(t, "Copying files...", ModeLabel(installer.ModeCopying))
}
