package install

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/itchio/setup/comm"
	"github.com/itchio/setup/installer"
	"github.com/itchio/setup/mansion"
	"github.com/itchio/setup/plan"
	"github.com/itchio/setup/wizard"
	"github.com/pkg/errors"
)

type session struct {
	params  Params
	cfg     *plan.Config
	about   string
	license string

	w        *wizard.Wizard
	features []string
	exec     *installer.Executor
	plan     *installer.InstallPlan
}

func (s *session) run() (*mansion.InstallResult, error) {
	for {
		page := s.w.Page()
		if page == wizard.PageEnd {
			return s.result(), nil
		}
		comm.Opf("%s", wizard.Title(s.cfg.Name, page))

		var err error
		switch page {
		case wizard.PageWelcome:
			err = s.welcome()
		case wizard.PageLicense:
			err = s.acceptLicense()
		case wizard.PageFeatures:
			err = s.pickFeatures()
		case wizard.PageTarget:
			err = s.pickTarget()
		case wizard.PageInstall:
			err = s.install()
		default:
			err = errors.Errorf("unexpected page %s", page)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *session) welcome() error {
	if s.about != "" {
		err := s.w.About()
		if err != nil {
			return err
		}
		comm.Logf("%s", strings.TrimSpace(s.about))

		err = s.w.Back()
		if err != nil {
			return err
		}
	}
	return s.w.Next()
}

func (s *session) acceptLicense() error {
	comm.Logf("%s", strings.TrimSpace(s.license))

	s.w.AcceptLicense(comm.YesNo("Do you accept the terms of the license agreement?"))
	if !s.w.LicenseAccepted() {
		comm.Warn("The license agreement was declined")
		s.w.Cancel()
		return nil
	}
	return s.w.Next()
}

func (s *session) pickFeatures() error {
	known := s.cfg.FeatureIDs()

	picked := s.params.Features
	if len(picked) > 0 {
		for _, id := range picked {
			if !known[id] {
				return errors.Errorf("unknown feature (%s)", id)
			}
		}
	} else {
		for _, f := range s.cfg.Features {
			if f.Required {
				comm.Logf("  %s (required)", f.Name)
				picked = append(picked, f.ID)
				continue
			}

			if s.ask(fmt.Sprintf("Install %s?", f.Name), f.IsDefault()) {
				picked = append(picked, f.ID)
			}
		}
	}

	s.features = picked
	return s.w.Next()
}

func (s *session) pickTarget() error {
	target := s.params.Target
	for {
		if s.params.Interactive {
			target = comm.Prompt("Install to:", target)
		}

		if target != "" && !filepath.IsAbs(target) {
			abs, err := filepath.Abs(target)
			if err == nil {
				target = abs
			}
		}

		err := s.w.SetTarget(target)
		if err == nil {
			break
		}
		if !s.params.Interactive {
			return err
		}
		comm.Warnf("%s", err.Error())
	}

	return s.w.Next()
}

func (s *session) install() error {
	p, err := plan.Build(s.cfg, plan.BuildParams{
		Target:   s.w.Target(),
		Features: s.features,
		Runtime:  s.params.Runtime,
		Consumer: comm.NewStateConsumer(),
	})
	if err != nil {
		return err
	}
	s.plan = p

	exec, err := installer.NewExecutor(installer.ExecutorParams{
		Plan:          p,
		RunDependency: s.params.RunDependency,
	})
	if err != nil {
		return err
	}
	s.exec = exec
	s.w.Attach(exec)

	var interrupts chan os.Signal
	if s.params.HandleInterrupts {
		interrupts = make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt)
		defer signal.Stop(interrupts)
	}

	err = exec.Start(context.Background())
	if err != nil {
		return err
	}

	comm.StartProgress()
	events := exec.Events()
	done := exec.Done()
	for events != nil || done != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			render(ev)
		case <-done:
			done = nil
		case sig := <-interrupts:
			if done == nil {
				comm.Debugf("Received %s, but the install is already over", sig)
				continue
			}
			comm.Warnf("Received %s, cancelling install...", sig)
			s.w.Cancel()
		}
	}
	comm.EndProgress()

	return s.w.Next()
}

func render(ev installer.Event) {
	switch ev.Type {
	case installer.EventLog:
		comm.Logl(ev.Level, ev.Message)
	case installer.EventProgress:
		if ev.Mode != installer.ModeUnchanged {
			comm.ProgressLabel(wizard.ModeLabel(ev.Mode))
		}
		comm.Progress(ev.Progress)
	}
}

// ask returns def without asking when not interactive
func (s *session) ask(question string, def bool) bool {
	if !s.params.Interactive {
		return def
	}

	defAnswer := "n"
	if def {
		defAnswer = "y"
	}
	answer := comm.Prompt(fmt.Sprintf("%s (y/n)", question), defAnswer)
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

func (s *session) result() *mansion.InstallResult {
	outcome := s.w.Outcome()
	res := &mansion.InstallResult{
		Name:     s.cfg.Name,
		Outcome:  string(outcome),
		Message:  wizard.EndText(wizard.KindInstall, s.cfg.Name, outcome),
		Target:   s.w.Target(),
		Features: s.features,
	}

	if s.exec != nil {
		res.ID = s.exec.ID()
		res.Mode = string(s.exec.Mode())
		res.InstalledFiles = s.exec.InstalledFiles()
		res.CreatedDirs = s.exec.CreatedDirs()
		if err := s.exec.Err(); err != nil {
			res.Error = err.Error()
			if code, ok := installer.AsCode(err); ok {
				res.ErrorCode = int64(code)
			}
		}

		slog.Debug("Install finished",
			"id", res.ID,
			"mode", res.Mode,
			"installed", len(res.InstalledFiles),
			installer.ErrorAttr(s.exec.Err()),
		)
	}
	if s.plan != nil && outcome == wizard.OutcomeSuccess {
		res.ManifestPath = s.plan.ManifestPath
	}
	return res
}
