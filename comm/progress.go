package comm

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress is reported with this many steps
const progressSteps = 1000

var progressState = struct {
	sync.Mutex
	bar       *progressbar.ProgressBar
	label     string
	lastAlpha float64
	paused    bool
}{}

// ProgressTheme contains all the characters we need to show progress
type ProgressTheme struct {
	BarStart string
	BarEnd   string
	Current  string
	Empty    string
	OpSign   string
	StatSign string
}

var themes = map[string]*ProgressTheme{
	"unicode": {"▐", "▌", "▓", "░", "•", "✓"},
	"ascii":   {"|", "|", "#", "-", ">", "<"},
	"cp437":   {"▐", "▌", "█", "░", "∙", "√"},
}

func (th *ProgressTheme) barTheme() progressbar.Theme {
	return progressbar.Theme{
		Saucer:        th.Current,
		SaucerPadding: th.Empty,
		BarStart:      th.BarStart,
		BarEnd:        th.BarEnd,
	}
}

func getCharset() string {
	if runtime.GOOS == "windows" && os.Getenv("OS") != "CYGWIN" {
		return "cp437"
	}

	var utf8 = ".UTF-8"
	if strings.Contains(os.Getenv("LC_ALL"), utf8) ||
		os.Getenv("LC_CTYPE") == "UTF-8" ||
		strings.Contains(os.Getenv("LANG"), utf8) {
		return "unicode"
	}

	return "ascii"
}

var theme = themes[getCharset()]

// GetTheme returns the theme used to show progress
func GetTheme() *ProgressTheme {
	return theme
}

const maxLabelLength = 40

// ProgressLabel sets the string printed next to the progress indicator
func ProgressLabel(label string) {
	if len(label) > maxLabelLength {
		label = fmt.Sprintf("...%s", label[len(label)-(maxLabelLength-3):])
	}

	progressState.Lock()
	defer progressState.Unlock()

	progressState.label = label
	if progressState.bar != nil {
		progressState.bar.Describe(label)
	}
}

func progressSilent() bool {
	return settings.noProgress || settings.json || settings.quiet
}

// StartProgress begins a period in which progress is regularly printed
func StartProgress() {
	progressState.Lock()
	defer progressState.Unlock()

	if progressState.bar != nil {
		// Already in-progress
		return
	}
	if progressSilent() {
		return
	}

	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(progressState.label),
		progressbar.OptionSetTheme(theme.barTheme()),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	bar.Set(int(progressState.lastAlpha * progressSteps))
	progressState.bar = bar
}

// PauseProgress temporarily stops printing the progress bar
func PauseProgress() {
	progressState.Lock()
	defer progressState.Unlock()

	if progressState.bar != nil {
		progressState.bar.Clear()
	}
	progressState.paused = true
}

// ResumeProgress resumes printing the progress bar after PauseProgress was called
func ResumeProgress() {
	progressState.Lock()
	defer progressState.Unlock()

	progressState.paused = false
}

var lastJsonPrintTime time.Time
var maxJsonPrintDuration = 500 * time.Millisecond

// Progress sets the completion of a task whose progress is being printed
// In JSON mode, it's sent at most twice a second.
func Progress(alpha float64) {
	progressState.Lock()
	progressState.lastAlpha = alpha
	bar := progressState.bar
	paused := progressState.paused
	progressState.Unlock()

	if bar != nil && !paused {
		bar.Set(int(alpha * progressSteps))
	}

	if !settings.json {
		return
	}

	if lastJsonPrintTime.IsZero() || alpha >= 1.0 || time.Since(lastJsonPrintTime) > maxJsonPrintDuration {
		lastJsonPrintTime = time.Now()
		send("progress", JsonMessage{
			"progress":   alpha,
			"percentage": alpha * 100.0,
		})
	}
}

// EndProgress stops refreshing the progress bar and erases it.
func EndProgress() {
	progressState.Lock()
	defer progressState.Unlock()

	if progressState.bar != nil {
		progressState.bar.Finish()
		progressState.bar = nil
	}
	progressState.lastAlpha = 0
	progressState.label = ""
	lastJsonPrintTime = time.Time{}
}
