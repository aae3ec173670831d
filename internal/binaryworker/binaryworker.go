// Package binaryworker implements Component C: ownership of exactly one
// child OS process, with pre/post hook scripts around every spawn and
// signal, and a mutex-guarded observable state cell for the Supervisor
// Loop. Grounded on
// _examples/Nehonix-Team-XyPriss/tools/xypriss-sys-go/internal/cluster/worker.go
// (Spawn/Kill/streamLogs/reaper-goroutine shape) and worker_unix.go
// (Setpgid), generalized from a fixed node/bun runner to an
// arbitrary configured binary with a command channel replacing direct
// method calls, matching the state machine in spec.md §4.C.
package binaryworker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nehonix-oss/procsupervisor/internal/scriptexec"
	"github.com/nehonix-oss/procsupervisor/internal/supervisorerr"
	"github.com/nehonix-oss/procsupervisor/internal/xlog"
)

// State is the observable lifecycle state from spec.md §3 "Child State":
// CREATED -> STARTED -> EXITED(code) -> (CREATED | DESTROYED).
type State int

const (
	StateCreated State = iota
	StateStarted
	StateExited
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateStarted:
		return "STARTED"
	case StateExited:
		return "EXITED"
	case StateDestroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// Observed is a snapshot of the worker's observable state cell.
type Observed struct {
	State    State
	ExitCode int // meaningful only when State == StateExited
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdRestart
	cmdKill
	cmdExit
)

type command struct {
	kind commandKind
	sig  syscall.Signal // only for cmdKill
}

const killTimeout = 90 * time.Second

// Worker owns one child process across its lifetime.
type Worker struct {
	binary       string
	argv         []string
	envp         map[string]string
	preHookPath  string
	postHookPath string
	interpreter  string
	exitSignal   syscall.Signal
	log          *xlog.Logger

	cmds   chan command
	closed chan struct{}

	mu       sync.Mutex
	observed Observed

	destroyedFlag bool
	destroyedMu   sync.Mutex
}

// Config carries everything New needs to construct a Worker.
type Config struct {
	Binary       string
	Argv         []string
	Envp         map[string]string
	PreHookBody  string // empty => no pre-hook
	PostHookBody string // empty => no post-hook
	Interpreter  string
	ExitSignal   syscall.Signal
	Log          *xlog.Logger
}

// New materializes the pre/post hook scripts (if present) and starts the
// worker goroutine in CREATED, awaiting its first command.
func New(cfg Config) (*Worker, error) {
	w := &Worker{
		binary:      cfg.Binary,
		argv:        cfg.Argv,
		envp:        cfg.Envp,
		interpreter: cfg.Interpreter,
		exitSignal:  cfg.ExitSignal,
		log:         cfg.Log,
		cmds:        make(chan command, 4),
		closed:      make(chan struct{}),
		observed:    Observed{State: StateCreated},
	}

	if cfg.PreHookBody != "" {
		path, err := scriptexec.Materialize("prehook", cfg.PreHookBody)
		if err != nil {
			return nil, err
		}
		w.preHookPath = path
	}
	if cfg.PostHookBody != "" {
		path, err := scriptexec.Materialize("posthook", cfg.PostHookBody)
		if err != nil {
			return nil, err
		}
		w.postHookPath = path
	}

	go w.loop()
	return w, nil
}

// Observe returns the current observable state without blocking.
func (w *Worker) Observe() Observed {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.observed
}

func (w *Worker) setObserved(o Observed) {
	w.mu.Lock()
	w.observed = o
	w.mu.Unlock()
}

// send enqueues a command, dropping it silently once the worker has
// latched DESTROYED — per spec.md §4.C, commands sent after DESTROYED are
// errors at the producer side and the worker may ignore them.
func (w *Worker) send(c command) {
	w.destroyedMu.Lock()
	destroyed := w.destroyedFlag
	w.destroyedMu.Unlock()
	if destroyed {
		return
	}
	select {
	case w.cmds <- c:
	case <-w.closed:
	}
}

func (w *Worker) Start()                  { w.send(command{kind: cmdStart}) }
func (w *Worker) Restart()                { w.send(command{kind: cmdRestart}) }
func (w *Worker) Kill(sig syscall.Signal)  { w.send(command{kind: cmdKill, sig: sig}) }
func (w *Worker) Exit()                   { w.send(command{kind: cmdExit}) }

// WaitDestroyed blocks until the worker has transitioned to DESTROYED.
func (w *Worker) WaitDestroyed() { <-w.closed }

// loop is the worker's single control goroutine: it owns every state
// transition and every access to the live *exec.Cmd, so no locking is
// needed around the child's lifecycle itself — only around the observed
// snapshot read by the Supervisor.
func (w *Worker) loop() {
	for {
		cmd, ok := <-w.cmds
		if !ok {
			return
		}
		switch cmd.kind {
		case cmdStart, cmdRestart:
			w.runPrehookThenSpawn()
		case cmdKill:
			// Nothing running yet; ignore.
		case cmdExit:
			w.destroy()
			return
		}
		if w.destroyed() {
			return
		}
	}
}

func (w *Worker) destroyed() bool {
	w.destroyedMu.Lock()
	defer w.destroyedMu.Unlock()
	return w.destroyedFlag
}

func (w *Worker) destroy() {
	w.destroyedMu.Lock()
	w.destroyedFlag = true
	w.destroyedMu.Unlock()
	w.setObserved(Observed{State: StateDestroyed})
	close(w.closed)
}

// runPrehookThenSpawn executes the pre-hook (if any), spawns the child,
// and then services it until it exits or a command arrives. It loops
// internally on RESTART so that re-entering PREHOOK never unwinds the
// goroutine stack, matching the state diagram's PREHOOK -> RUNNING edge.
func (w *Worker) runPrehookThenSpawn() {
	for {
		w.setObserved(Observed{State: StateCreated})
		if w.preHookPath != "" {
			runID := uuid.NewString()
			res, err := scriptexec.Run(w.interpreter, w.preHookPath, w.envp)
			if err != nil || res.ExitCode != 0 {
				w.log.Errorf("binary worker: pre-hook [%s] failed: err=%v exit=%d", runID, err, res.ExitCode)
				w.setObserved(Observed{State: StateExited, ExitCode: 1})
				return
			}
		}

		if w.spawnAndServe() {
			continue
		}
		return
	}
}

// spawnAndServe starts the child and blocks until it exits naturally or a
// command forces a transition. It returns true when the caller should loop
// back into runPrehookThenSpawn's PREHOOK step (a RESTART was handled).
func (w *Worker) spawnAndServe() (restart bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := exec.CommandContext(ctx, w.binary, w.argv...)
	c.Dir = filepath.Dir(w.binary)
	c.Env = envSlice(w.envp)
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, errOut := c.StdoutPipe()
	stderr, errErr := c.StderrPipe()
	if errOut != nil || errErr != nil {
		w.log.Errorf("binary worker: pipe setup failed: stdout=%v stderr=%v", errOut, errErr)
		w.setObserved(Observed{State: StateExited, ExitCode: 1})
		return false
	}

	if err := c.Start(); err != nil {
		w.log.Errorf("binary worker: %v", supervisorerr.WrapTransientExec("spawn "+w.binary, err))
		w.setObserved(Observed{State: StateExited, ExitCode: 1})
		return false
	}

	w.setObserved(Observed{State: StateStarted})

	go streamOutput(w.log, stdout, xlog.INFO)
	go streamOutput(w.log, stderr, xlog.WARN)

	childExited := make(chan int, 1)
	go func() {
		err := c.Wait()
		childExited <- exitCodeOf(err)
	}()

	for {
		select {
		case code := <-childExited:
			w.runPosthook()
			w.setObserved(Observed{State: StateExited, ExitCode: code})
			return false

		case ctrl := <-w.cmds:
			switch ctrl.kind {
			case cmdKill:
				sig := ctrl.sig
				if sig == 0 {
					sig = w.exitSignal
				}
				w.signalChildAndReap(c, sig, childExited)
				return false

			case cmdExit:
				w.signalChildAndReap(c, w.exitSignal, childExited)
				w.destroy()
				return false

			case cmdRestart:
				w.signalChildAndReap(c, w.exitSignal, childExited)
				return true

			case cmdStart:
				// Already running; ignore per the state diagram (no
				// transition is defined for START while RUNNING).
			}
		}
	}
}

func (w *Worker) signalChildAndReap(c *exec.Cmd, sig syscall.Signal, childExited chan int) {
	if c.Process != nil {
		if err := c.Process.Signal(sig); err != nil {
			w.log.Warnf("binary worker: signal %v failed: %v", sig, err)
		}
	}
	w.runPosthook()
	code := w.waitThenKill(c, childExited, killTimeout)
	w.setObserved(Observed{State: StateExited, ExitCode: code})
}

// waitThenKill polls every 500 ms for up to timeout (spec.md §4.C step 5)
// for the child to exit on its own, force-killing it with SIGKILL otherwise.
// It always returns the eventual exit code (or -1 if none could be
// determined).
func (w *Worker) waitThenKill(c *exec.Cmd, childExited chan int, timeout time.Duration) int {
	start := time.Now()
	deadline := start.Add(timeout)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case code := <-childExited:
			w.log.Infof("binary worker: child exited after %s with code %d", time.Since(start), code)
			return code
		case <-ticker.C:
			if time.Now().Before(deadline) {
				continue
			}
			w.log.Warnf("binary worker: child did not exit within %s, sending SIGKILL", timeout)
			if c.Process != nil {
				_ = c.Process.Kill()
			}
			code := <-childExited
			w.log.Infof("binary worker: child force-killed after %s with code %d", time.Since(start), code)
			return code
		}
	}
}

func (w *Worker) runPosthook() {
	if w.postHookPath == "" {
		return
	}
	runID := uuid.NewString()
	res, err := scriptexec.Run(w.interpreter, w.postHookPath, w.envp)
	if err != nil {
		w.log.Warnf("binary worker: post-hook [%s] spawn failed: %v", runID, err)
		return
	}
	if res.Stdout != "" {
		w.log.Infof("binary worker: post-hook [%s]: %s", runID, res.Stdout)
	}
	if res.Stderr != "" {
		w.log.Warnf("binary worker: post-hook [%s]: %s", runID, res.Stderr)
	}
}

func streamOutput(log *xlog.Logger, r io.Reader, level xlog.Level) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if level == xlog.WARN {
			log.Warnf("binary worker: %s", line)
		} else {
			log.Infof("binary worker: %s", line)
		}
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	if len(out) == 0 {
		return os.Environ()
	}
	return out
}
