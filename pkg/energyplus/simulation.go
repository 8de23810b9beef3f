// Package energyplus stages an EnergyPlus installation into a run directory,
// runs ExpandObjects and the solver, and checks the solver's own status files.
package energyplus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/studioflow/internal/logging"
	"github.com/aretw0/studioflow/internal/runtime"
	"github.com/aretw0/studioflow/pkg/adapters/process"
	"github.com/aretw0/studioflow/pkg/domain"
)

// State is a stage of a simulation run.
type State int

const (
	Idle State = iota
	StagingFiles
	ExpandObjectsPass
	MainSolverPass
	ParsingStatus
	CleaningUp
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case StagingFiles:
		return "StagingFiles"
	case ExpandObjectsPass:
		return "ExpandObjectsPass"
	case MainSolverPass:
		return "MainSolverPass"
	case ParsingStatus:
		return "ParsingStatus"
	case CleaningUp:
		return "CleaningUp"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

const (
	cmdExpandObjects = "expandobjects"
	cmdEnergyPlus    = "energyplus"

	ExpandLog   = "stdout-expandobjects"
	SolverLog   = "stdout-energyplus"
	ExpandedIDF = "expanded.idf"
	PreExpand   = "pre-expand.idf"

	packagedMeasures = "packaged_measures"
	iniFile          = "Energy+.ini"
)

// Simulation runs EnergyPlus once in a run directory.
type Simulation struct {
	runDir     string
	enginePath string
	keepFiles  bool
	timeout    time.Duration
	commands   map[string]process.ProcessConfig
	logger     *slog.Logger

	mu      sync.Mutex
	history []State
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		s.logger = l
	}
}

// WithKeepFiles leaves the staged installation files in the run directory.
func WithKeepFiles(keep bool) Option {
	return func(s *Simulation) {
		s.keepFiles = keep
	}
}

// WithTimeout bounds the combined ExpandObjects and solver passes. Zero
// means no limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Simulation) {
		s.timeout = d
	}
}

// WithCommands overrides arguments and environment of the engine processes,
// keyed by "expandobjects" and "energyplus".
func WithCommands(cmds map[string]process.ProcessConfig) Option {
	return func(s *Simulation) {
		s.commands = cmds
	}
}

// New creates a simulation of the in.idf in runDir using the installation
// at enginePath.
func New(runDir, enginePath string, opts ...Option) *Simulation {
	s := &Simulation{
		runDir:     runDir,
		enginePath: enginePath,
		logger:     logging.NewNop(),
		history:    []State{Idle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[len(s.history)-1]
}

// History returns every state entered, in order.
func (s *Simulation) History() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.history...)
}

func (s *Simulation) enter(st State) {
	s.mu.Lock()
	s.history = append(s.history, st)
	s.mu.Unlock()
	s.logger.Debug("simulation state", "state", st.String(), "run_dir", s.runDir)
}

// Run stages the installation, runs both passes and checks the outcome.
// Cleanup runs on every exit path.
func (s *Simulation) Run(ctx context.Context) (status Status, err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var inst *Install
	defer func() {
		s.enter(CleaningUp)
		s.cleanup(inst)
		if err != nil {
			s.enter(Failed)
			return
		}
		s.enter(Done)
	}()

	s.enter(StagingFiles)
	inst, err = Stage(s.runDir, s.enginePath)
	if err != nil {
		return status, err
	}

	err = runtime.WithWorkingDir(s.runDir, func() error {
		st, err := s.solve(ctx, inst)
		status = st
		return err
	})
	return status, err
}

func (s *Simulation) solve(ctx context.Context, inst *Install) (Status, error) {
	runner := s.processRunner(inst)

	s.enter(ExpandObjectsPass)
	res, err := runner.Execute(ctx, cmdExpandObjects, process.Invocation{LogFile: filepath.Join(s.runDir, ExpandLog)})
	if err != nil {
		return Status{}, s.processError(err)
	}
	if !res.Success() {
		s.logger.Warn("ExpandObjects exited with non-zero status", "exit_code", res.ExitCode)
	}
	if err := s.promoteExpanded(); err != nil {
		return Status{}, err
	}

	s.enter(MainSolverPass)
	res, err = runner.Execute(ctx, cmdEnergyPlus, process.Invocation{LogFile: filepath.Join(s.runDir, SolverLog)})
	if err != nil {
		return Status{}, s.processError(err)
	}
	if !res.Success() {
		s.logger.Warn("EnergyPlus exited with non-zero status", "exit_code", res.ExitCode)
	}

	s.enter(ParsingStatus)
	st, err := CheckEnding(s.runDir)
	st.ExitCode = res.ExitCode
	if err != nil {
		return st, err
	}
	s.logger.Info("EnergyPlus finished", "warnings", st.Warnings, "severe", st.Severe, "exit_code", st.ExitCode)
	return st, nil
}

func (s *Simulation) processRunner(inst *Install) *process.Runner {
	exes := map[string]string{cmdExpandObjects: inst.ExpandObjects, cmdEnergyPlus: inst.EnergyPlus}
	runner := process.NewRunner(process.WithBaseDir(s.runDir), process.WithLogger(s.logger))
	for name, exe := range exes {
		runner.Register(name, exe)
	}
	overrides := make(map[string]process.ProcessConfig)
	for name, c := range s.commands {
		exe, ok := exes[name]
		if !ok {
			continue
		}
		if c.Command == "" {
			c.Command = exe
		}
		overrides[name] = c
	}
	process.WithRegistry(overrides)(runner)
	return runner
}

// promoteExpanded swaps expanded.idf in as in.idf when ExpandObjects produced it.
func (s *Simulation) promoteExpanded() error {
	expanded := filepath.Join(s.runDir, ExpandedIDF)
	if _, err := os.Stat(expanded); err != nil {
		return nil
	}
	in := filepath.Join(s.runDir, domain.InputIDF)
	if _, err := os.Stat(in); err == nil {
		if err := os.Rename(in, filepath.Join(s.runDir, PreExpand)); err != nil {
			return domain.NewError(domain.IOError, in, err)
		}
	}
	if err := os.Rename(expanded, in); err != nil {
		return domain.NewError(domain.IOError, expanded, err)
	}
	s.logger.Debug("promoted expanded input", "path", in)
	return nil
}

func (s *Simulation) processError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewError(domain.EngineError, s.runDir, fmt.Errorf("simulation timed out after %s: %w", s.timeout, err))
	}
	return domain.NewError(domain.EngineError, s.runDir, err)
}

func (s *Simulation) cleanup(inst *Install) {
	if inst != nil && !s.keepFiles {
		for _, f := range inst.Staged {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("failed to remove staged file", "path", f, "err", err)
			}
		}
	}
	if err := os.RemoveAll(filepath.Join(s.runDir, packagedMeasures)); err != nil {
		s.logger.Warn("failed to remove packaged measures", "err", err)
	}
	if err := os.Remove(filepath.Join(s.runDir, iniFile)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove ini file", "err", err)
	}
}
