package redist

import (
	"github.com/itchio/ox"
)

// An Entry declares a redistributable (or any other external program)
// the setup runs as part of an install.
type Entry struct {
	// Name is the human-readable name for a redistributable
	Name string `json:"name"`
	// Platform restricts the entry to one platform ("windows", "osx", "linux").
	// Empty means all platforms.
	Platform ox.Platform `json:"platform,omitempty"`
	// File is the exe/msi/script to fire up to install the redist
	File string `json:"file,omitempty"`
	// Args are passed to File
	Args []string `json:"args,omitempty"`
	// Command is an alternative to File+Args, as a single shell-quoted string
	Command string `json:"command,omitempty"`
	// ReturnCodes are the exit codes that mean success. Empty means only 0.
	ReturnCodes []int `json:"returncodes,omitempty"`
	// ExitCodes let installation succeed in case of non-zero exit codes
	// that mean something like "this is already installed", and describe
	// the ones that mean failure.
	ExitCodes []*ExitCode `json:"exitcodes,omitempty"`
	// Features restricts the entry to installs where at least one of them
	// is selected. Empty means always.
	Features []string `json:"features,omitempty"`
	// Stage is either "before-copy" (the default) or "after-copy"
	Stage string `json:"stage,omitempty"`
}

type ExitCode struct {
	// Code is the process's exit code
	Code int `json:"code"`
	// Success is true if that non-zero exit code means success
	Success bool `json:"success"`
	// Message is a human-readable message (in english) for what the exit code means
	Message string `json:"message"`
}

// AcceptedCodes returns the exit codes that mean success, or nil
// if only 0 does.
func (e *Entry) AcceptedCodes() []int {
	var res []int
	res = append(res, e.ReturnCodes...)
	for _, ec := range e.ExitCodes {
		if ec.Success {
			if len(res) == 0 {
				// listing success codes doesn't make 0 a failure
				res = append(res, 0)
			}
			res = append(res, ec.Code)
		}
	}
	return res
}

// Messages returns the known meaning of exit codes, by code
func (e *Entry) Messages() map[int]string {
	if len(e.ExitCodes) == 0 {
		return nil
	}

	res := make(map[int]string)
	for _, ec := range e.ExitCodes {
		if ec.Message != "" {
			res[ec.Code] = ec.Message
		}
	}
	return res
}

// MatchesPlatform returns true if the entry should run on a given platform
func (e *Entry) MatchesPlatform(platform ox.Platform) bool {
	return e.Platform == "" || e.Platform == platform
}

// AppliesTo returns true if the entry should run given the selected features
func (e *Entry) AppliesTo(selected map[string]bool) bool {
	if len(e.Features) == 0 {
		return true
	}

	for _, feature := range e.Features {
		if selected[feature] {
			return true
		}
	}
	return false
}
