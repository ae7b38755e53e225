package comm

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/itchio/setup/installer"
	"github.com/itchio/wharf/state"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func must(t *testing.T, err error) {
	if err != nil {
		assert.NoError(t, err)
		t.FailNow()
	}
}

type message struct {
	level string
	msg   string
}

func recordingConsumer(messages *[]message) *state.Consumer {
	return &state.Consumer{
		OnMessage: func(level string, msg string) {
			*messages = append(*messages, message{level, msg})
		},
	}
}

func Test_SlogToConsumer(t *testing.T) {
	var messages []message
	logger := slog.New(NewSlogHandler(recordingConsumer(&messages), slog.LevelInfo))

	logger.Debug("not shown")
	logger.Info("Loaded setup description", "path", "/media/setup/setup.toml", "features", 2)
	logger.Warn("Ignoring unknown keys in setup description")
	logger.Error("Install failed")

	assert.Equal(t, []message{
		{"info", "Loaded setup description (path=/media/setup/setup.toml, features=2)"},
		{"warning", "Ignoring unknown keys in setup description"},
		{"error", "Install failed"},
	}, messages)
}

func Test_SlogWithAttrsAndGroup(t *testing.T) {
	var messages []message
	logger := slog.New(NewSlogHandler(recordingConsumer(&messages), slog.LevelDebug)).
		With("id", "run-1").
		WithGroup("dependency")
	logger.Debug("Skipping dependency", "name", "Visual C++ Runtime", "platform", "windows")

	assert.Equal(t, []message{
		{"debug", "Skipping dependency (id=run-1, dependency.name=Visual C++ Runtime, dependency.platform=windows)"},
	}, messages)
}

func Test_SlogInstallerErrors(t *testing.T) {
	var messages []message
	logger := slog.New(NewSlogHandler(recordingConsumer(&messages), slog.LevelDebug))

	failed := errors.WithStack(&installer.DependencyFailedError{Name: "vcredist", ExitCode: 5})
	logger.Info("Install finished", installer.ErrorAttr(failed))
	logger.Info("Install finished", installer.ErrorAttr(errors.New("disk on fire")))
	logger.Info("Install finished", installer.ErrorAttr(nil))
	logger.Info("Cancelled", "reason", installer.CodeOperationCancelled)

	if assert.Len(t, messages, 4) {
		assert.Contains(t, messages[0].msg, "error.code=3002")
		assert.Contains(t, messages[0].msg, "error.message=")
		assert.Equal(t, "Install finished (error=disk on fire)", messages[1].msg)
		assert.Equal(t, "Install finished", messages[2].msg)
		assert.Equal(t, "Cancelled (reason.code=499, reason.message=The installation was cancelled.)", messages[3].msg)
	}
}

func Test_SlogJSON(t *testing.T) {
	output := captureJSONLogs(t, func() {
		logger := slog.New(NewSlogHandler(nil, slog.LevelDebug))
		logger.Debug("Loaded setup description",
			slog.String("path", "/media/setup/setup.toml"),
			slog.Any("features", []any{"plugin", "docs"}),
			installer.ErrorAttr(installer.ErrAlreadyRunning),
		)
	})

	if !assert.Len(t, output, 1) {
		return
	}
	obj := output[0]
	assert.Equal(t, "log", obj["type"])
	assert.Equal(t, "debug", obj["level"], "debug records aren't filtered again in JSON mode")
	assert.Equal(t, "Loaded setup description", obj["message"])
	assert.Equal(t, "/media/setup/setup.toml", obj["path"])
	assert.Equal(t, []any{"plugin", "docs"}, obj["features"])
	assert.EqualValues(t, 409, obj["error.code"])
	assert.Contains(t, obj, "time")
}

func Test_LoglFiltersDebugInJSONMode(t *testing.T) {
	output := captureJSONLogs(t, func() {
		Debugf("copied %d files", 3)
		Warnf("leaving %s behind", "/opt/app")
		Statf("done")
	})

	if assert.Len(t, output, 2) {
		assert.Equal(t, "warning", output[0]["level"])
		assert.Equal(t, theme.StatSign+" done", output[1]["message"])
	}
}

func captureJSONLogs(t *testing.T, fn func()) []map[string]any {
	t.Helper()

	oldSettings := *settings
	defer func() {
		*settings = oldSettings
	}()
	Configure(false, false, false, true, false, false)

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	must(t, err)
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
	}()

	fn()

	must(t, w.Close())
	outBytes, err := io.ReadAll(r)
	must(t, err)

	var output []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(outBytes), []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		must(t, json.Unmarshal(line, &obj))
		output = append(output, obj)
	}
	return output
}
