package solution

// Status classifies a single test case run. The runner produces every status except
// WrongAnswer, which only the verifier can decide.
type Status string

const (
	// The process exited normally; for a test result it also means the output matched.
	Success Status = "SUCCESS"
	// The process exited normally but its output differs from the expected output.
	WrongAnswer Status = "WRONG_ANSWER"
	// The process exited with a non-zero code or was killed by a signal.
	RuntimeError Status = "RUNTIME_ERROR"
	// The wall-clock limit was reached and the process was killed.
	TimeLimitExceeded Status = "TIME_LIMIT_EXCEEDED"
	// The memory ceiling was reached.
	MemoryLimitExceeded Status = "MEMORY_LIMIT_EXCEEDED"
	// The build step failed before any test input was consumed.
	CompilationError Status = "COMPILATION_ERROR"
	// The language has no harness or no toolchain on this worker.
	UnsupportedLanguage Status = "UNSUPPORTED_LANGUAGE"
	// The request itself is unusable, e.g. its entry point names are not identifiers.
	InvalidRequest Status = "INVALID_REQUEST"
	// Something in the worker itself failed, e.g. the spawn syscall.
	InternalError Status = "INTERNAL_ERROR"
)

// Verdict returns the user facing name of the status.
func (s Status) Verdict() string {
	switch s {
	case Success:
		return "Accepted"
	case WrongAnswer:
		return "Wrong Answer"
	case RuntimeError:
		return "Runtime Error"
	case TimeLimitExceeded:
		return "Time Limit Exceeded"
	case MemoryLimitExceeded:
		return "Memory Limit Exceeded"
	case CompilationError:
		return "Compilation Error"
	case UnsupportedLanguage:
		return "Unsupported Language"
	case InvalidRequest:
		return "Invalid Request"
	default:
		return "Internal Error"
	}
}

// ComparisonPolicy decides how actual and expected output are matched.
type ComparisonPolicy string

const (
	// Exact match first, then structural equality when both sides are collections.
	ComparisonStructural ComparisonPolicy = "structural"
	// Trimmed exact string match only.
	ComparisonExact ComparisonPolicy = "exact"
)

type ExecutionRequest struct {
	SubmissionID  string           `json:"submission_id,omitempty"`
	Code          string           `json:"code"`
	Language      string           `json:"language"`
	EntryPoint    EntryPoint       `json:"entry_point"`
	TestCases     []TestCase       `json:"test_cases"`
	TimeLimitMs   int64            `json:"time_limit_ms,omitempty"`   // 0 means the service default
	MemoryLimitMB int64            `json:"memory_limit_mb,omitempty"` // 0 means the service default
	Comparison    ComparisonPolicy `json:"comparison,omitempty"`
}

type TestCase struct {
	Input    string `json:"input"`    // one argument per line, language literal syntax
	Expected string `json:"expected"` // expected stdout
}

type TestResult struct {
	Input      string `json:"input"`
	Expected   string `json:"expected"`
	Actual     string `json:"actual"` // empty when the case failed to run
	Passed     bool   `json:"passed"`
	Status     Status `json:"status"`
	DurationMs int64  `json:"duration_ms"`
}

type ExecutionReport struct {
	Success       bool         `json:"success"`
	TestResults   []TestResult `json:"test_results"` // same order as the request test cases
	ConsoleOutput string       `json:"console_output"`
	Error         string       `json:"error,omitempty"`
	Runtime       string       `json:"runtime,omitempty"`
	Memory        string       `json:"memory,omitempty"`
	Verdict       string       `json:"verdict"`
}

// PassedCount returns the number of passed test results.
func (r ExecutionReport) PassedCount() int {
	passed := 0
	for _, tr := range r.TestResults {
		if tr.Passed {
			passed++
		}
	}
	return passed
}

// FailureReport builds a report for requests that could not be executed at all.
// It carries no test results.
func FailureReport(status Status, message string) ExecutionReport {
	return ExecutionReport{
		Success:     false,
		TestResults: []TestResult{},
		Error:       message,
		Verdict:     status.Verdict(),
	}
}
