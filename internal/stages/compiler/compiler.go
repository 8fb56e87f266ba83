package compiler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/stages/executor"
	"github.com/mini-maxit/executor/internal/stages/harness"
	"github.com/mini-maxit/executor/internal/stages/packager"
	"github.com/mini-maxit/executor/internal/storage"
	"github.com/mini-maxit/executor/pkg/constants"
	customErr "github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/solution"
	"github.com/mini-maxit/executor/utils"
	"go.uber.org/zap"
)

// CompilationError carries the compiler diagnostics of a failed build.
type CompilationError struct {
	Output string
}

func (e *CompilationError) Error() string {
	return customErr.ErrCompilationFailed.Error()
}

func (e *CompilationError) Unwrap() error {
	return customErr.ErrCompilationFailed
}

// Artifacts is the output of one successful build, shared read-only by every unit
// of a request through Install.
type Artifacts struct {
	dir     *packager.PackageDirConfig
	sources []string
}

// Install copies the build output into a unit's own directory.
func (a *Artifacts) Install(dstDir string) error {
	if a == nil {
		return nil
	}
	return utils.CopyDirFiles(a.dir.PackageDirPath, dstDir, func(name string) bool {
		return utils.Contains(a.sources, name)
	})
}

func (a *Artifacts) Cleanup() {
	if a != nil {
		a.dir.Cleanup()
	}
}

type Compiler interface {
	// CompileSolutionIfNeeded returns nil artifacts for interpreted languages. A
	// build failure is reported as *CompilationError.
	CompileSolutionIfNeeded(ctx context.Context, unit *harness.Unit, submissionID string) (*Artifacts, error)
}

type compiler struct {
	packager    packager.Packager
	executor    executor.Executor
	cache       storage.ArtifactCache
	timeLimitMs int64
	logger      *zap.SugaredLogger
}

// NewCompiler builds compiled units. cache may be nil.
func NewCompiler(p packager.Packager, e executor.Executor, cache storage.ArtifactCache, timeLimitMs int64) Compiler {
	if timeLimitMs <= 0 {
		timeLimitMs = constants.DefaultCompileTimeLimitMs
	}
	return &compiler{
		packager:    p,
		executor:    e,
		cache:       cache,
		timeLimitMs: timeLimitMs,
		logger:      logger.NewNamedLogger("compiler"),
	}
}

func (c *compiler) CompileSolutionIfNeeded(
	ctx context.Context,
	unit *harness.Unit,
	submissionID string,
) (*Artifacts, error) {
	if len(unit.CompileCmd) == 0 {
		return nil, nil
	}

	sources := make([]string, 0, len(unit.Files))
	for _, f := range unit.Files {
		sources = append(sources, f.Name)
	}
	isSource := func(name string) bool { return utils.Contains(sources, name) }

	dir, err := c.packager.PreparePackage(unit.Files, submissionID, "compile")
	if err != nil {
		return nil, err
	}

	key := cacheKey(unit)
	if c.cache != nil {
		found, err := c.cache.GetCachedArtifacts(key, dir.PackageDirPath)
		if err != nil {
			c.logger.Warnf("Failed to restore cached build: %s [Submission: %s]", err, submissionID)
		}
		if found && err == nil {
			c.logger.Infof("Reusing cached %s build [Submission: %s]", unit.Language, submissionID)
			return &Artifacts{dir: dir, sources: sources}, nil
		}
	}

	c.logger.Infof("Compiling %s solution [Submission: %s]", unit.Language, submissionID)

	outcome, err := c.executor.ExecuteCommand(ctx, executor.CommandConfig{
		ID:                unit.ID + "-compile",
		WorkDir:           dir.PackageDirPath,
		Toolchain:         unit.Toolchain,
		Cmd:               unit.CompileCmd,
		TimeLimit:         time.Duration(c.timeLimitMs) * time.Millisecond,
		MemoryLimitMB:     constants.CompileMemoryLimitMB,
		LimitAddressSpace: unit.Toolchain.AddressSpaceSafe,
	})
	if err != nil {
		dir.Cleanup()
		return nil, err
	}

	if outcome.Status != solution.Success {
		dir.Cleanup()
		output := compilerOutput(outcome, c.timeLimitMs)
		c.logger.Infof("Compilation failed with %s [Submission: %s]", outcome.Status, submissionID)
		return nil, &CompilationError{Output: output}
	}

	c.logger.Infof("Compilation successful in %s [Submission: %s]", outcome.Duration, submissionID)
	if c.cache != nil {
		if err := c.cache.CacheArtifacts(key, unit.Language.String(), dir.PackageDirPath, isSource); err != nil {
			c.logger.Warnf("Failed to cache build: %s [Submission: %s]", err, submissionID)
		}
	}
	return &Artifacts{dir: dir, sources: sources}, nil
}

func cacheKey(unit *harness.Unit) string {
	files := make(map[string]string, len(unit.Files))
	for _, f := range unit.Files {
		files[f.Name] = f.Content
	}
	return storage.ArtifactKey(unit.Language.String()+"@"+unit.Toolchain.Image, unit.CompileCmd, files)
}

func compilerOutput(outcome executor.RunOutcome, timeLimitMs int64) string {
	switch outcome.Status {
	case solution.TimeLimitExceeded:
		return fmt.Sprintf("compilation exceeded the time limit of %dms", timeLimitMs)
	case solution.MemoryLimitExceeded:
		return fmt.Sprintf("compilation exceeded the memory limit of %dMB", constants.CompileMemoryLimitMB)
	}
	output := strings.TrimSpace(outcome.Stderr)
	if output == "" {
		output = strings.TrimSpace(outcome.Stdout)
	}
	if output == "" {
		output = fmt.Sprintf("compiler exited with code %d", outcome.ExitCode)
	}
	return output
}
