// Package scriptworker implements Component B: a single script executed on
// a timer, reporting each run's pass/fail disposition to the Supervisor
// Loop. Grounded on the worker goroutine shape of
// _examples/Nehonix-Team-XyPriss/tools/xypriss-sys-go/internal/cluster/worker.go
// (mutex-guarded state, a done channel closed on terminal exit), since
// original_source/src/worker/script_worker.rs is an unimplemented stub.
package scriptworker

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nehonix-oss/procsupervisor/internal/scriptexec"
	"github.com/nehonix-oss/procsupervisor/internal/supervisorerr"
	"github.com/nehonix-oss/procsupervisor/internal/xlog"
)

// State is the worker's control state, spec.md §4.B: IDLE, RUNNING, EXITED.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateExited
)

type command int

const (
	cmdStart command = iota
	cmdStop
	cmdClose
)

// Worker runs ScriptPath on a timer and publishes each run's status.
type Worker struct {
	name        string
	interpreter string
	scriptPath  string
	env         map[string]string
	delay       time.Duration
	interval    time.Duration
	log         *xlog.Logger

	cmds   chan command
	closed chan struct{}

	mu       sync.Mutex
	statuses []int
}

// New materializes scriptBody to a temp file and starts the worker
// goroutine in StateIdle. Materialization failure aborts construction.
func New(name, interpreter, scriptBody string, env map[string]string, delaySec, intervalSec int, log *xlog.Logger) (*Worker, error) {
	path, err := scriptexec.Materialize(name, scriptBody)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		name:        name,
		interpreter: interpreter,
		scriptPath:  path,
		env:         env,
		delay:       time.Duration(delaySec) * time.Second,
		interval:    time.Duration(intervalSec) * time.Second,
		log:         log,
		cmds:        make(chan command, 4),
		closed:      make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Start transitions the worker to RUNNING; the first execution occurs
// after the configured delay.
func (w *Worker) Start() { w.cmds <- cmdStart }

// Stop transitions the worker to IDLE at its next decision point.
func (w *Worker) Stop() { w.cmds <- cmdStop }

// Close transitions the worker to EXITED; idempotent, safe to call more
// than once.
func (w *Worker) Close() {
	select {
	case w.cmds <- cmdClose:
	case <-w.closed:
	}
}

// WaitClosed blocks until the worker goroutine has reached EXITED.
func (w *Worker) WaitClosed() { <-w.closed }

// PollStatus returns every run status (0=success, non-zero=failure)
// produced since the last call, in order, and clears the buffer.
func (w *Worker) PollStatus() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.statuses) == 0 {
		return nil
	}
	out := w.statuses
	w.statuses = nil
	return out
}

func (w *Worker) recordStatus(code int) {
	w.mu.Lock()
	w.statuses = append(w.statuses, code)
	w.mu.Unlock()
}

func (w *Worker) loop() {
	state := StateIdle
	firstRun := true

	for {
		switch state {
		case StateIdle:
			switch <-w.cmds {
			case cmdStart:
				state = StateRunning
				firstRun = true
			case cmdStop:
				// already idle
			case cmdClose:
				close(w.closed)
				return
			}

		case StateRunning:
			wait := w.interval
			if firstRun {
				wait = w.delay
			}
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				firstRun = false
				w.runOnce()
			case cmd := <-w.cmds:
				timer.Stop()
				switch cmd {
				case cmdStop:
					state = StateIdle
				case cmdClose:
					close(w.closed)
					return
				case cmdStart:
					// already running; restart the delay/interval cycle
					firstRun = true
				}
			}
		}
	}
}

func (w *Worker) runOnce() {
	runID := uuid.NewString()
	res, err := scriptexec.Run(w.interpreter, w.scriptPath, w.env)
	if err != nil {
		w.log.Warnf("script worker %s: %v", w.name, supervisorerr.WrapTransientExec(fmt.Sprintf("run [%s]", runID), err))
		return
	}
	if res.Stdout != "" {
		w.log.Infof("script worker %s [%s]: %s", w.name, runID, res.Stdout)
	}
	if res.Stderr != "" {
		w.log.Errorf("script worker %s [%s]: %s", w.name, runID, res.Stderr)
	}
	status := 0
	if res.ExitCode != 0 {
		status = 1
	}
	w.recordStatus(status)
}
