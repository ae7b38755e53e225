package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/itchio/setup/installer/bfs"
	"github.com/itchio/wharf/counter"
	"github.com/itchio/wharf/state"
	"github.com/pkg/errors"
)

type ExecutorParams struct {
	Plan *InstallPlan

	// @optional, defaults to RunDependency
	RunDependency DependencyRunner
}

// An Executor performs one install, on its own goroutine. It reports
// progress and logs through Events(), can be cancelled at any time,
// and removes everything it did if the install doesn't complete.
//
// Executors are single-use: Start may only succeed once.
type Executor struct {
	id            string
	plan          *InstallPlan
	runDependency DependencyRunner

	queue    *EventQueue
	consumer *state.Consumer
	done     chan struct{}

	// everything below is guarded by mu
	mu             sync.Mutex
	mode           Mode
	cancelled      bool
	running        bool
	started        bool
	installedFiles []string
	createdDirs    []string
	err            error
}

func NewExecutor(params ExecutorParams) (*Executor, error) {
	if params.Plan == nil {
		return nil, errors.New("executor: missing plan")
	}

	err := params.Plan.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "validating install plan")
	}

	runDependency := params.RunDependency
	if runDependency == nil {
		runDependency = RunDependency
	}

	queue := NewEventQueue()
	return &Executor{
		id:            uuid.New().String(),
		plan:          params.Plan,
		runDependency: runDependency,
		queue:         queue,
		consumer:      queue.Consumer(),
		done:          make(chan struct{}),
		mode:          ModeIdle,
	}, nil
}

// ID uniquely identifies this install run in logs and results
func (e *Executor) ID() string {
	return e.id
}

// Events returns the channel progress and log events are delivered on.
// It's closed after the terminal progress event.
func (e *Executor) Events() <-chan Event {
	return e.queue.Events()
}

// Start kicks off the install in the background. Cancelling ctx
// has the same effect as calling Cancel.
func (e *Executor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return errors.WithStack(ErrAlreadyRunning)
	}
	if e.started {
		return errors.WithStack(ErrAlreadyFinished)
	}
	e.started = true
	e.running = true

	go e.work(ctx)
	return nil
}

// Cancel asks the install to stop at the next step boundary and
// roll back. It does nothing if the executor isn't running, or if
// it's already rolling back.
func (e *Executor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running || e.mode == ModeUndoing {
		return
	}
	e.cancelled = true
}

// Done is closed once the executor has reached a terminal mode
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the executor reaches a terminal mode, and returns it.
// It must only be called after a successful Start.
func (e *Executor) Wait() Mode {
	<-e.done
	return e.Mode()
}

func (e *Executor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

func (e *Executor) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Cancelled returns true once a cancel request was taken into account.
// If the install fails for another reason first, it ends in ModeError
// and Cancelled goes back to false.
func (e *Executor) Cancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

// InstalledFiles returns the files the install wrote, in order.
// After a rollback, only the ones that couldn't be removed are left.
// It's only meaningful once the executor is done.
func (e *Executor) InstalledFiles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.installedFiles...)
}

// CreatedDirs returns the directories the install created, outermost first.
func (e *Executor) CreatedDirs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.createdDirs...)
}

// Err returns what made the install fail or stop, if anything.
func (e *Executor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Executor) work(ctx context.Context) {
	defer func() {
		e.queue.Close()
		close(e.done)
	}()

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("install executor crashed: %v", r)
			e.consumer.OnMessage("error", err.Error())
			e.finish(ModeError, 0.0, err)
		}
	}()

	e.consumer.Infof("Starting install (%s)", e.id)

	err := e.forward(ctx)
	if err == nil {
		e.consumer.Infof("Install complete")
		e.finish(ModeComplete, 1.0, nil)
		return
	}

	terminal := ModeError
	if IsCancelled(err) {
		terminal = ModeCancelled
		e.consumer.Infof("Install cancelled, rolling back...")
	} else {
		e.consumer.OnMessage("error", fmt.Sprintf("Install failed: %s", err.Error()))
		e.consumer.Debugf("Full error: %+v", err)
		e.consumer.Infof("Rolling back...")
	}

	e.undo()
	e.finish(terminal, 0.0, err)
}

func (e *Executor) finish(mode Mode, progress float64, err error) {
	e.mu.Lock()
	reported := e.reportedMode(mode)
	e.mode = mode
	e.err = err
	e.running = false
	if mode != ModeCancelled {
		e.cancelled = false
	}
	e.mu.Unlock()

	e.queue.Progress(reported, progress)
}

// must be called with mu held
func (e *Executor) reportedMode(mode Mode) Mode {
	if mode == e.mode {
		return ModeUnchanged
	}
	return mode
}

func (e *Executor) updateProgress(mode Mode, progress float64) {
	e.mu.Lock()
	reported := e.reportedMode(mode)
	e.mode = mode
	e.mu.Unlock()

	e.queue.Progress(reported, progress)

	if e.plan.StepDelay > 0 {
		time.Sleep(e.plan.StepDelay)
	}
}

func (e *Executor) checkCancelled(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil {
		e.cancelled = true
	}
	if e.cancelled {
		return errors.WithStack(ErrCancelled)
	}
	return nil
}

func (e *Executor) recordInstalled(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.installedFiles = append(e.installedFiles, path)
}

func (e *Executor) recordCreated(dirs []string) {
	if len(dirs) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.createdDirs = append(e.createdDirs, dirs...)
}

func (e *Executor) forward(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic during install: %v", r)
		}
	}()

	ops, err := e.collect(ctx)
	if err != nil {
		return err
	}

	err = e.runDependencies(ctx, StageBeforeCopy)
	if err != nil {
		return err
	}

	tree := bfs.NewDirTree()
	err = e.copyAll(ctx, tree, ops)
	if err != nil {
		return err
	}

	err = e.runDependencies(ctx, StageAfterCopy)
	if err != nil {
		return err
	}

	if e.plan.ManifestPath != "" {
		err = e.writeManifest(ctx, tree)
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Executor) collect(ctx context.Context) ([]bfs.CopyOperation, error) {
	specs := e.plan.CopySpecs
	e.updateProgress(ModeCollecting, 0.0)

	var ops []bfs.CopyOperation
	for i, spec := range specs {
		err := e.checkCancelled(ctx)
		if err != nil {
			return nil, err
		}

		ex := bfs.Expand(spec)
		for {
			op, ok := ex.Next()
			if !ok {
				break
			}
			ops = append(ops, op)
		}
		if ex.Err() != nil {
			return nil, errors.WithStack(ex.Err())
		}

		e.updateProgress(ModeCollecting, float64(i+1)/float64(len(specs)))
	}

	e.consumer.Infof("Collected %d files from %d copy specs", len(ops), len(specs))
	return ops, nil
}

func (e *Executor) runDependencies(ctx context.Context, stage Stage) error {
	deps := e.plan.DependenciesFor(stage)
	if len(deps) == 0 {
		return nil
	}

	e.updateProgress(ModeDependencies, 0.0)
	for i, dep := range deps {
		err := e.checkCancelled(ctx)
		if err != nil {
			return err
		}

		err = e.runDependency(e.consumer, dep)
		if err != nil {
			return err
		}

		e.updateProgress(ModeDependencies, float64(i+1)/float64(len(deps)))
	}
	return nil
}

func (e *Executor) copyAll(ctx context.Context, tree *bfs.DirTree, ops []bfs.CopyOperation) error {
	e.updateProgress(ModeCopying, 0.0)

	var totalBytes int64
	for i, op := range ops {
		err := e.checkCancelled(ctx)
		if err != nil {
			return err
		}

		created, err := tree.EnsureParents(op.Destination)
		e.recordCreated(created)
		if err != nil {
			return errors.WithStack(&IOError{Op: "mkdir", Path: op.Destination, Err: err})
		}

		written, err := copyFile(op)
		if err != nil {
			return err
		}
		e.recordInstalled(op.Destination)
		totalBytes += written

		e.updateProgress(ModeCopying, float64(i+1)/float64(len(ops)))
	}

	e.consumer.Infof("Copied %d files (%s)", len(ops), humanize.IBytes(uint64(totalBytes)))
	return nil
}

// copyFile copies a single file, preserving its permissions. A partially
// written destination is removed before returning an error.
func copyFile(op bfs.CopyOperation) (int64, error) {
	src, err := os.Open(op.Source)
	if err != nil {
		return 0, errors.WithStack(&IOError{Op: "open", Path: op.Source, Err: err})
	}
	defer src.Close()

	stats, err := src.Stat()
	if err != nil {
		return 0, errors.WithStack(&IOError{Op: "stat", Path: op.Source, Err: err})
	}

	dst, err := os.OpenFile(op.Destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, stats.Mode().Perm())
	if err != nil {
		return 0, errors.WithStack(&IOError{Op: "create", Path: op.Destination, Err: err})
	}

	cw := counter.NewWriter(dst)
	_, err = io.Copy(cw, src)
	if err != nil {
		dst.Close()
		os.Remove(op.Destination)
		return 0, errors.WithStack(&IOError{Op: "copy", Path: op.Destination, Err: err})
	}

	err = dst.Close()
	if err != nil {
		os.Remove(op.Destination)
		return 0, errors.WithStack(&IOError{Op: "close", Path: op.Destination, Err: err})
	}

	return cw.Count(), nil
}

func (e *Executor) writeManifest(ctx context.Context, tree *bfs.DirTree) error {
	manifestPath := e.plan.ManifestPath
	e.updateProgress(ModeWritingManifest, 0.0)

	created, err := tree.EnsureParents(manifestPath)
	e.recordCreated(created)
	if err != nil {
		return errors.WithStack(&IOError{Op: "mkdir", Path: manifestPath, Err: err})
	}

	lines := bfs.ManifestLines(e.InstalledFiles(), e.CreatedDirs(), manifestPath)

	mw, err := bfs.CreateManifest(manifestPath)
	if err != nil {
		return errors.WithStack(&IOError{Op: "create", Path: manifestPath, Err: err})
	}
	defer mw.Close()

	for i, line := range lines {
		err := e.checkCancelled(ctx)
		if err != nil {
			return err
		}

		err = mw.WriteLine(line)
		if err != nil {
			return errors.WithStack(&IOError{Op: "write", Path: manifestPath, Err: err})
		}

		e.updateProgress(ModeWritingManifest, float64(i+1)/float64(len(lines)))
	}

	err = mw.Commit()
	if err != nil {
		return errors.WithStack(&IOError{Op: "commit", Path: manifestPath, Err: err})
	}
	e.recordInstalled(manifestPath)

	e.consumer.Infof("Wrote manifest with %d entries to %s", len(lines), manifestPath)
	return nil
}

// undo removes installed files in reverse installation order, then
// created directories in reverse creation order. It never gives up
// on the remaining items because one of them couldn't be removed.
func (e *Executor) undo() {
	e.mu.Lock()
	files := append([]string(nil), e.installedFiles...)
	dirs := append([]string(nil), e.createdDirs...)
	e.mu.Unlock()

	var items []string
	for i := len(files) - 1; i >= 0; i-- {
		items = append(items, files[i])
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		items = append(items, dirs[i])
	}

	e.updateProgress(ModeUndoing, 1.0)

	removed := make(map[string]bool)
	for i, item := range items {
		err := bfs.RemoveEntry(item)
		if err != nil && !os.IsNotExist(errors.Cause(err)) {
			rerr := &RollbackItemError{Path: item, Err: err}
			e.consumer.Warnf("Rollback: %s", rerr.Error())
		} else {
			removed[item] = true
		}

		e.updateProgress(ModeUndoing, 1.0-float64(i+1)/float64(len(items)))
	}

	e.mu.Lock()
	e.installedFiles = keepUnremoved(e.installedFiles, removed)
	e.createdDirs = keepUnremoved(e.createdDirs, removed)
	e.mu.Unlock()

	e.consumer.Infof("Rolled back %d of %d items", len(removed), len(items))
}

func keepUnremoved(paths []string, removed map[string]bool) []string {
	var res []string
	for _, path := range paths {
		if !removed[path] {
			res = append(res, path)
		}
	}
	return res
}
