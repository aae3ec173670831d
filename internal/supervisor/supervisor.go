// Package supervisor implements Component E: the main control loop that
// wires Signal Intake, the Binary Worker, and the health/startup Script
// Workers together, applies the restart policy, and drives the started
// callback once. Grounded on
// _examples/Nehonix-Team-XyPriss/tools/xypriss-sys-go/internal/cluster/manager.go
// (ClusterManager.Start/monitorLoop shape: one goroutine polling on a
// fixed tick, mutating worker state under a decision table) generalized
// from an N-worker memory/CPU monitor to the single-child restart-policy
// state machine of spec.md §4.E.
package supervisor

import (
	"syscall"
	"time"

	"github.com/nehonix-oss/procsupervisor/internal/argbuilder"
	"github.com/nehonix-oss/procsupervisor/internal/binaryworker"
	"github.com/nehonix-oss/procsupervisor/internal/config"
	"github.com/nehonix-oss/procsupervisor/internal/scriptexec"
	"github.com/nehonix-oss/procsupervisor/internal/scriptworker"
	"github.com/nehonix-oss/procsupervisor/internal/signalintake"
	"github.com/nehonix-oss/procsupervisor/internal/template"
	"github.com/nehonix-oss/procsupervisor/internal/xlog"
)

const tickInterval = 500 * time.Millisecond

// Supervisor owns the whole running system for one ProjectConfig.
type Supervisor struct {
	cfg *config.ProjectConfig
	log *xlog.Logger

	signals *signalintake.Intake
	child   *binaryworker.Worker
	health  *scriptworker.Worker
	startup *scriptworker.Worker
	envp    map[string]string

	startedScript string
	startedSucc   int

	healthFail    int
	startedSucess int
}

// New builds the Supervisor and every worker it owns, but does not start
// anything yet; call Run to enter the main loop.
func New(cfg *config.ProjectConfig, ctx *argbuilder.BinaryContext, log *xlog.Logger) (*Supervisor, error) {
	// script_vars keys are already "{{name}}"-wrapped (argbuilder step 10),
	// so hook/probe bodies are resolved by literal substitution rather than
	// the candidate-fallback Expand used for argument exprs.
	vars := make(map[string]string, len(ctx.ScriptVars))
	for k, v := range ctx.ScriptVars {
		vars[k] = v
	}

	preHook := template.ReplaceAllLiteral(cfg.Project.BeforeScript, vars)
	postHook := template.ReplaceAllLiteral(cfg.Project.AfterScript, vars)

	s := &Supervisor{
		cfg:           cfg,
		log:           log,
		signals:       signalintake.New(),
		envp:          mergeEnv(ctx.Envp),
		startedSucess: 0,
	}

	child, err := binaryworker.New(binaryworker.Config{
		Binary:       cfg.Project.Binary,
		Argv:         ctx.Argv,
		Envp:         s.envp,
		PreHookBody:  preHook,
		PostHookBody: postHook,
		Interpreter:  cfg.Project.ScriptWorker.Interpreter,
		ExitSignal:   syscall.Signal(cfg.Project.Signals.Exit),
		Log:          log,
	})
	if err != nil {
		s.signals.Close()
		return nil, err
	}
	s.child = child

	if cfg.Project.CheckHealth.Enabled() {
		healthBody := template.ReplaceAllLiteral(cfg.Project.CheckHealth.Script, vars)
		health, err := scriptworker.New("health", cfg.Project.ScriptWorker.Interpreter, healthBody,
			s.envp, cfg.Project.CheckHealth.DelaySec, cfg.Project.CheckHealth.IntervalSec, log)
		if err != nil {
			s.teardownPartial()
			return nil, err
		}
		s.health = health
	}

	if cfg.Project.CheckStarted.Enabled() {
		startedBody := template.ReplaceAllLiteral(cfg.Project.CheckStarted.Script, vars)
		startup, err := scriptworker.New("startup", cfg.Project.ScriptWorker.Interpreter, startedBody,
			s.envp, 0, cfg.Project.CheckStarted.IntervalSec, log)
		if err != nil {
			s.teardownPartial()
			return nil, err
		}
		s.startup = startup
		s.startedScript = template.ReplaceAllLiteral(cfg.Project.CheckStarted.StartedScript, vars)
		s.startedSucc = cfg.Project.CheckStarted.Success
	}

	return s, nil
}

func (s *Supervisor) teardownPartial() {
	s.signals.Close()
	if s.child != nil {
		s.child.Exit()
		s.child.WaitDestroyed()
	}
	if s.health != nil {
		s.health.Close()
	}
	if s.startup != nil {
		s.startup.Close()
	}
}

// Run starts every owned worker and drives the main loop until a
// terminating signal or restart policy decision breaks it, then runs the
// shutdown sequence.
func (s *Supervisor) Run() {
	s.child.Start()
	s.enableCheck()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		if s.tick() {
			break
		}
	}

	s.shutdown()
}

// tick runs one main-loop iteration and reports whether the loop should
// terminate.
func (s *Supervisor) tick() bool {
	s.drainHealth()
	s.drainStartup()
	if s.drainSignals() {
		return true
	}
	return s.drainChildState()
}

func (s *Supervisor) drainHealth() {
	if s.health == nil {
		return
	}
	for _, code := range s.health.PollStatus() {
		if code == 0 {
			s.healthFail = 0
			continue
		}
		s.healthFail++
		if s.healthFail >= s.cfg.Project.CheckHealth.Failures {
			s.log.Errorf("supervisor: health check failed %d times, restarting child", s.healthFail)
			s.health.Stop()
			s.child.Restart()
			s.enableCheck()
		}
	}
}

func (s *Supervisor) drainStartup() {
	if s.startup == nil || s.startedSucess == -1 {
		return
	}
	for _, code := range s.startup.PollStatus() {
		if code == 0 {
			s.startedSucess++
		} else {
			s.startedSucess = 0
		}
		if s.startedSucess >= s.startedSucc {
			s.startup.Stop()
			s.runStartedScript()
			s.startedSucess = -1
			break
		}
	}
}

func (s *Supervisor) runStartedScript() {
	if s.startedScript == "" {
		return
	}
	path, err := scriptexec.Materialize("started", s.startedScript)
	if err != nil {
		s.log.Warnf("supervisor: started script materialize failed: %v", err)
		return
	}
	res, err := scriptexec.Run(s.cfg.Project.ScriptWorker.Interpreter, path, s.envp)
	if err != nil {
		s.log.Warnf("supervisor: started script spawn failed: %v", err)
		return
	}
	s.log.Infof("supervisor: started script exited with code %d", res.ExitCode)
}

func (s *Supervisor) drainSignals() (terminate bool) {
	for _, sig := range s.signals.Poll() {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			return true
		case syscall.SIGHUP:
			s.child.Restart()
			s.enableCheck()
		}
	}
	return false
}

func (s *Supervisor) drainChildState() (terminate bool) {
	obs := s.child.Observe()
	if obs.State != binaryworker.StateExited {
		return false
	}

	policy := s.cfg.Project.RestartPolicy
	switch {
	case (obs.ExitCode == 0 && policy == config.RestartFail) || policy == config.RestartNone:
		s.child.Exit()
		return true
	case obs.ExitCode != 0 && policy == config.RestartFail:
		s.child.Restart()
		s.enableCheck()
	default: // policy == ALWAYS
		s.child.Restart()
		s.enableCheck()
	}
	return false
}

func (s *Supervisor) enableCheck() {
	s.startedSucess = 0
	s.healthFail = 0
	if s.startup != nil {
		s.startup.Start()
	}
	if s.health != nil {
		s.health.Start()
	}
}

func (s *Supervisor) shutdown() {
	s.child.Exit()
	s.signals.Close()
	if s.health != nil {
		s.health.Close()
		s.health.WaitClosed()
	}
	if s.startup != nil {
		s.startup.Close()
		s.startup.WaitClosed()
	}
	s.child.WaitDestroyed()
}

func mergeEnv(envp map[string]string) map[string]string {
	if envp == nil {
		return map[string]string{}
	}
	return envp
}
