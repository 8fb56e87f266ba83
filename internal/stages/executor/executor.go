package executor

import (
	"context"
	"strings"
	"time"

	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/metrics"
	"github.com/mini-maxit/executor/internal/pool"
	"github.com/mini-maxit/executor/internal/sandbox"
	"github.com/mini-maxit/executor/internal/stages/harness"
	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/mini-maxit/executor/pkg/languages"
	"github.com/mini-maxit/executor/pkg/solution"
	"go.uber.org/zap"
)

// CommandConfig describes one sandboxed command.
type CommandConfig struct {
	ID                string
	WorkDir           string
	Toolchain         languages.Toolchain
	Cmd               []string
	Stdin             string
	TimeLimit         time.Duration
	MemoryLimitMB     int64
	LimitAddressSpace bool
	// Submitted programs may not start processes; build tools need to.
	NoSpawn bool
}

// RunOutcome is the classified result of a single sandboxed run. WrongAnswer is
// never produced here; only the verifier compares outputs.
type RunOutcome struct {
	Status       solution.Status
	Stdout       string
	Stderr       string
	ExitCode     int
	Duration     time.Duration
	PeakMemoryKB int64
}

type Executor interface {
	// Run executes a unit's program with the test input on stdin.
	Run(ctx context.Context, unit *harness.Unit, workDir string, timeLimitMs, memoryLimitMB int64) (RunOutcome, error)
	// ExecuteCommand runs an arbitrary command in the sandbox. An error means the
	// process could not be started or observed, never that the program failed.
	ExecuteCommand(ctx context.Context, cfg CommandConfig) (RunOutcome, error)
}

type executor struct {
	isolator    sandbox.Isolator
	pool        pool.ProcessPool
	outputLimit int
	logger      *zap.SugaredLogger
}

func NewExecutor(isolator sandbox.Isolator, processPool pool.ProcessPool, outputLimitBytes int64) Executor {
	if outputLimitBytes <= 0 {
		outputLimitBytes = constants.DefaultOutputLimitBytes
	}
	return &executor{
		isolator:    isolator,
		pool:        processPool,
		outputLimit: int(outputLimitBytes),
		logger:      logger.NewNamedLogger(isolator.Name() + "-executor"),
	}
}

func (e *executor) Run(
	ctx context.Context,
	unit *harness.Unit,
	workDir string,
	timeLimitMs, memoryLimitMB int64,
) (RunOutcome, error) {
	tc := unit.Toolchain
	tc.RunCmd = unit.RunCmd

	return e.ExecuteCommand(ctx, CommandConfig{
		ID:                unit.ID,
		WorkDir:           workDir,
		Toolchain:         unit.Toolchain,
		Cmd:               tc.RunCommand(memoryLimitMB),
		Stdin:             unit.Stdin,
		TimeLimit:         time.Duration(timeLimitMs) * time.Millisecond,
		MemoryLimitMB:     memoryLimitMB,
		LimitAddressSpace: unit.Toolchain.AddressSpaceSafe,
		NoSpawn:           true,
	})
}

func (e *executor) ExecuteCommand(ctx context.Context, cfg CommandConfig) (RunOutcome, error) {
	release, err := e.pool.Acquire(ctx)
	if err != nil {
		return RunOutcome{}, err
	}
	defer release()

	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = constants.DefaultTimeLimitMs * time.Millisecond
	}
	stdout := sandbox.NewCappedBuffer(e.outputLimit)
	stderr := sandbox.NewCappedBuffer(e.outputLimit)

	spec := sandbox.Spec{
		ID:      cfg.ID,
		WorkDir: cfg.WorkDir,
		Image:   cfg.Toolchain.Image,
		Cmd:     cfg.Cmd,
		Stdin:   strings.NewReader(cfg.Stdin),
		Stdout:  stdout,
		Stderr:  stderr,
		Limits: sandbox.Limits{
			MemoryBytes: cfg.MemoryLimitMB * 1024 * 1024,
			// Wall clock is the real limit; this only stops a spinning process
			// that somehow outlives the kill.
			CPUTime:           cfg.TimeLimit + time.Second,
			MaxTasks:          cfg.Toolchain.MaxTasks,
			MaxFileSize:       constants.MaxFileSizeBytes,
			LimitAddressSpace: cfg.LimitAddressSpace,
			NoSpawn:           cfg.NoSpawn,
		},
	}

	e.logger.Debugf("Spawning %v [Spawn: %s]", cfg.Cmd, cfg.ID)
	proc, err := e.isolator.Spawn(ctx, spec)
	if err != nil {
		e.logger.Errorf("Failed to spawn process: %s [Spawn: %s]", err, cfg.ID)
		return RunOutcome{}, err
	}
	metrics.ProcessesInFlight.Inc()
	defer func() {
		if err := proc.Release(); err != nil {
			e.logger.Warnf("Failed to release process: %s [Spawn: %s]", err, cfg.ID)
		}
		metrics.ProcessesInFlight.Dec()
	}()

	waitCtx, cancel := context.WithTimeout(ctx, cfg.TimeLimit)
	state, err := proc.Wait(waitCtx)
	timedOut := err != nil && waitCtx.Err() != nil
	cancel()

	if timedOut {
		state = e.killAndReap(proc, cfg.ID)
		if ctx.Err() != nil {
			return RunOutcome{}, ctx.Err()
		}
		e.logger.Infof("Time limit of %s exceeded [Spawn: %s]", cfg.TimeLimit, cfg.ID)
		return RunOutcome{
			Status:       solution.TimeLimitExceeded,
			Stderr:       capture(stderr),
			ExitCode:     state.ExitCode,
			Duration:     cfg.TimeLimit,
			PeakMemoryKB: state.PeakMemoryKB,
		}, nil
	}
	if err != nil {
		e.logger.Errorf("Failed to wait for process: %s [Spawn: %s]", err, cfg.ID)
		return RunOutcome{}, err
	}

	outcome := RunOutcome{
		Stdout:       capture(stdout),
		Stderr:       capture(stderr),
		ExitCode:     state.ExitCode,
		Duration:     state.Duration,
		PeakMemoryKB: state.PeakMemoryKB,
	}
	outcome.Status = classify(state, outcome.Stderr, cfg.Toolchain, cfg.MemoryLimitMB)

	e.logger.Debugf("Process finished with %s, exit code %d, %s, %dKB [Spawn: %s]",
		outcome.Status, state.ExitCode, state.Duration, state.PeakMemoryKB, cfg.ID)
	return outcome, nil
}

// killAndReap kills the process tree and waits until it is gone, so the pool slot
// is only handed back once nothing from this run is alive.
func (e *executor) killAndReap(proc sandbox.Process, id string) sandbox.ExitState {
	if err := proc.Kill(); err != nil {
		e.logger.Errorf("Failed to kill process: %s [Spawn: %s]", err, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ContainerCleanupTimeoutSec*time.Second)
	defer cancel()
	state, err := proc.Wait(ctx)
	if err != nil {
		e.logger.Errorf("Process was not reaped after kill: %s [Spawn: %s]", err, id)
	}
	return state
}

// classify maps an exit state to a status. Going over the memory ceiling counts
// even when the program managed to exit cleanly. A CPU limit is only reported
// for an actual SIGXCPU, a program can exit with 152 by itself.
func classify(state sandbox.ExitState, stderr string, tc languages.Toolchain, memoryLimitMB int64) solution.Status {
	if state.OOMKilled {
		return solution.MemoryLimitExceeded
	}
	if memoryLimitMB > 0 && state.PeakMemoryKB > memoryLimitMB*1024 {
		return solution.MemoryLimitExceeded
	}
	if state.ExitCode == constants.ExitCodeSuccess && !state.Signaled {
		return solution.Success
	}
	if state.Signaled && state.Signal == constants.SignalCPULimitExceeded {
		return solution.TimeLimitExceeded
	}
	for _, marker := range tc.OOMMarkers {
		if strings.Contains(stderr, marker) {
			return solution.MemoryLimitExceeded
		}
	}
	return solution.RuntimeError
}

func capture(buf *sandbox.CappedBuffer) string {
	if buf.Truncated() {
		return buf.String() + constants.OutputTruncatedMarker
	}
	return buf.String()
}
