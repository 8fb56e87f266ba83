package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mini-maxit/executor/internal/config"
	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/metrics"
	"github.com/mini-maxit/executor/internal/sandbox"
	"github.com/mini-maxit/executor/internal/stages/compiler"
	"github.com/mini-maxit/executor/internal/stages/executor"
	"github.com/mini-maxit/executor/internal/stages/harness"
	"github.com/mini-maxit/executor/internal/stages/packager"
	"github.com/mini-maxit/executor/internal/stages/verifier"
	"github.com/mini-maxit/executor/pkg/constants"
	customErr "github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/languages"
	"github.com/mini-maxit/executor/pkg/solution"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service runs one execution request end to end. It never returns an error:
// every failure ends up in the report.
type Service interface {
	Execute(ctx context.Context, req *solution.ExecutionRequest) solution.ExecutionReport
}

type service struct {
	limits     config.LimitsConfig
	toolchains languages.Toolchains
	isolator   sandbox.Isolator
	builder    harness.Builder
	compiler   compiler.Compiler
	executor   executor.Executor
	verifier   verifier.Verifier
	packager   packager.Packager
	logger     *zap.SugaredLogger
}

func NewService(
	limits config.LimitsConfig,
	toolchains languages.Toolchains,
	isolator sandbox.Isolator,
	builder harness.Builder,
	compiler compiler.Compiler,
	executor executor.Executor,
	verifier verifier.Verifier,
	packager packager.Packager,
) Service {
	if limits.TimeLimitMs <= 0 {
		limits.TimeLimitMs = constants.DefaultTimeLimitMs
	}
	if limits.MemoryLimitMB <= 0 {
		limits.MemoryLimitMB = constants.DefaultMemoryLimitMB
	}
	return &service{
		limits:     limits,
		toolchains: toolchains,
		isolator:   isolator,
		builder:    builder,
		compiler:   compiler,
		executor:   executor,
		verifier:   verifier,
		packager:   packager,
		logger:     logger.NewNamedLogger("pipeline"),
	}
}

func (s *service) Execute(ctx context.Context, req *solution.ExecutionRequest) (report solution.ExecutionReport) {
	start := time.Now()
	submissionID := req.SubmissionID
	if submissionID == "" {
		submissionID = uuid.NewString()
	}
	language := "unknown"

	metrics.ActiveRequests.Inc()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Recovered from panic: %v [Submission: %s]", r, submissionID)
			report = solution.FailureReport(
				solution.InternalError,
				fmt.Sprintf(constants.ReportErrorExecution, fmt.Sprint(r)),
			)
		}
		metrics.ActiveRequests.Dec()
		metrics.ExecutionsTotal.WithLabelValues(language, report.Verdict).Inc()
		metrics.ExecutionDuration.WithLabelValues(language, "total").
			Observe(float64(time.Since(start).Milliseconds()))
	}()

	s.logger.Infof("Executing %d test cases in %s [Submission: %s]", len(req.TestCases), req.Language, submissionID)

	lt, err := languages.ParseLanguageType(req.Language)
	if err != nil {
		s.logger.Infof("Rejected language %q [Submission: %s]", req.Language, submissionID)
		return solution.FailureReport(
			solution.UnsupportedLanguage,
			fmt.Sprintf("%s: %s", constants.ReportErrorUnsupportedLanguage, req.Language),
		)
	}
	language = lt.String()

	tc, err := s.toolchains.Get(lt)
	if err != nil {
		return solution.FailureReport(
			solution.UnsupportedLanguage,
			fmt.Sprintf("%s: %s", constants.ReportErrorUnsupportedLanguage, req.Language),
		)
	}
	if err := s.isolator.EnsureToolchain(ctx, tc); err != nil {
		s.logger.Errorf("Toolchain for %s unavailable: %s [Submission: %s]", lt, err, submissionID)
		return solution.FailureReport(
			solution.UnsupportedLanguage,
			fmt.Sprintf(constants.ReportErrorToolchainMissing, lt),
		)
	}

	policy := req.Comparison
	if policy != solution.ComparisonExact {
		policy = solution.ComparisonStructural
	}
	if len(req.TestCases) == 0 {
		return s.verifier.EvaluateAllTestCases(nil, nil, policy)
	}

	units := make([]*harness.Unit, len(req.TestCases))
	for i, testCase := range req.TestCases {
		units[i], err = s.builder.Build(req.Code, req.Language, req.EntryPoint, testCase)
		if err != nil {
			return s.buildFailure(err, submissionID)
		}
	}

	compileStart := time.Now()
	artifacts, err := s.compiler.CompileSolutionIfNeeded(ctx, units[0], submissionID)
	if tc.RequiresCompilation() {
		metrics.ExecutionDuration.WithLabelValues(language, "compile").
			Observe(float64(time.Since(compileStart).Milliseconds()))
	}
	if err != nil {
		var compErr *compiler.CompilationError
		if errors.As(err, &compErr) {
			return compilationReport(req.TestCases, compErr.Output)
		}
		s.logger.Errorf("Compilation could not run: %s [Submission: %s]", err, submissionID)
		return solution.FailureReport(solution.InternalError, fmt.Sprintf(constants.ReportErrorExecution, err))
	}
	defer artifacts.Cleanup()

	timeLimitMs := req.TimeLimitMs
	if timeLimitMs <= 0 {
		timeLimitMs = s.limits.TimeLimitMs
	}
	memoryLimitMB := req.MemoryLimitMB
	if memoryLimitMB <= 0 {
		memoryLimitMB = s.limits.MemoryLimitMB
	}

	outcomes := make([]executor.RunOutcome, len(units))
	g, gctx := errgroup.WithContext(ctx)
	for i, unit := range units {
		g.Go(func() error {
			outcome, err := s.runUnit(gctx, unit, artifacts, submissionID, i, timeLimitMs, memoryLimitMB)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Errorf("Execution failed: %s [Submission: %s]", err, submissionID)
		return solution.FailureReport(solution.InternalError, fmt.Sprintf(constants.ReportErrorExecution, err))
	}

	report = s.verifier.EvaluateAllTestCases(req.TestCases, outcomes, policy)
	for i, result := range report.TestResults {
		metrics.TestCasesTotal.WithLabelValues(language, string(result.Status)).Inc()
		metrics.ExecutionDuration.WithLabelValues(language, "run").Observe(float64(result.DurationMs))
		metrics.MemoryUsage.WithLabelValues(language).Observe(float64(outcomes[i].PeakMemoryKB))
	}

	s.logger.Infof("Finished with %s, %d/%d passed [Submission: %s]",
		report.Verdict, report.PassedCount(), len(report.TestResults), submissionID)
	return report
}

func (s *service) runUnit(
	ctx context.Context,
	unit *harness.Unit,
	artifacts *compiler.Artifacts,
	submissionID string,
	index int,
	timeLimitMs, memoryLimitMB int64,
) (executor.RunOutcome, error) {
	dir, err := s.packager.PreparePackage(unit.Files, submissionID, fmt.Sprintf("case-%d", index+1))
	if err != nil {
		return executor.RunOutcome{}, err
	}
	defer dir.Cleanup()

	if err := artifacts.Install(dir.PackageDirPath); err != nil {
		return executor.RunOutcome{}, fmt.Errorf("install build artifacts: %w", err)
	}
	return s.executor.Run(ctx, unit, dir.PackageDirPath, timeLimitMs, memoryLimitMB)
}

func (s *service) buildFailure(err error, submissionID string) solution.ExecutionReport {
	s.logger.Infof("Could not build harness: %s [Submission: %s]", err, submissionID)
	switch {
	case errors.Is(err, customErr.ErrUnsupportedValueType), errors.Is(err, customErr.ErrInvalidLanguageType):
		return solution.FailureReport(
			solution.UnsupportedLanguage,
			fmt.Sprintf("%s: %s", constants.ReportErrorUnsupportedLanguage, err),
		)
	case errors.Is(err, customErr.ErrInvalidEntryPoint):
		return solution.FailureReport(
			solution.InvalidRequest,
			fmt.Sprintf("%s: %s", constants.ReportErrorInvalidEntryPoint, err),
		)
	default:
		return solution.FailureReport(solution.InternalError, fmt.Sprintf(constants.ReportErrorExecution, err))
	}
}

// compilationReport fails every case with the compiler output in the console.
func compilationReport(testCases []solution.TestCase, output string) solution.ExecutionReport {
	results := make([]solution.TestResult, len(testCases))
	for i, tc := range testCases {
		results[i] = solution.TestResult{
			Input:    tc.Input,
			Expected: tc.Expected,
			Status:   solution.CompilationError,
		}
	}
	console := output
	if console != "" && !strings.HasSuffix(console, "\n") {
		console += "\n"
	}
	return solution.ExecutionReport{
		Success:       false,
		TestResults:   results,
		ConsoleOutput: console,
		Error:         constants.ReportErrorCompilation,
		Verdict:       solution.CompilationError.Verdict(),
	}
}
