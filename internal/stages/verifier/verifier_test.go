package verifier_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mini-maxit/executor/internal/stages/executor"
	. "github.com/mini-maxit/executor/internal/stages/verifier"
	"github.com/mini-maxit/executor/pkg/solution"
)

func TestCompareOutput_Structural(t *testing.T) {
	v := NewVerifier()

	tests := []struct {
		name     string
		actual   string
		expected string
		want     bool
	}{
		{"identical", "[0,1]", "[0,1]", true},
		{"spacing", "[0, 1]", "[0,1]", true},
		{"padded brackets", "[ 0 , 1 ]\n", "[0,1]", true},
		{"order matters", "[1,0]", "[0,1]", false},
		{"length matters", "[0,1,2]", "[0,1]", false},
		{"python quotes", "['a', \"b\"]", `["a","b"]`, true},
		{"python literals", "[True, False, None]", "[true,false,null]", true},
		{"quoted None stays a string", "['None']", "[null]", false},
		{"int equals float", "[1.0, 2]", "[1,2]", true},
		{"float rounding", "[0.30000000000000004]", "[0.3]", true},
		{"nested", "[[1, 2], [3]]", "[[1,2],[3]]", true},
		{"mapping", "{'a': 1, 'b': [2]}", `{"b":[2],"a":1}`, true},
		{"scalar exact", "42", "42", true},
		{"scalars are not parsed", "42.0", "42", false},
		{"string vs number", "['1']", "[1]", false},
		{"malformed", "[1, 2", "[1,2]", false},
		{"surrounding whitespace", "  hello\n", "hello", true},
		{"exponent equals integer", "[1e2]", "[100]", true},
		{"negative numbers", "[-1, -0.5]", "[-1,-0.5]", true},
		{"multiline json", "[\n  1,\n  2\n]", "[1,2]", true},
		{"int keys match float keys", "{1: 'a'}", "{1.0: 'a'}", true},
		{"int key is not a string key", "{1: 'a'}", `{"1": "a"}`, false},
		{"hash inside string", "['#1']", `["#1"]`, true},
		{"block sequence", "- 0\n- 1", "[0,1]", false},
		{"hex literal", "[0x1]", "[1]", false},
		{"octal literal", "[0o7]", "[7]", false},
		{"comment", "[0, 1] # note", "[0,1]", false},
		{"large ints compare exactly", "[9007199254740993]", "[9007199254740992]", false},
		{"tagged scalar", "[!!int '1']", "[1]", false},
		{"plain string", "[abc]", `["abc"]`, false},
		{"multiple documents", "[1]\n---\n[2]", "[1]", false},
		{"anchor and alias", "[&a 1, *a]", "[1,1]", false},
		{"tilde is not null", "[~]", "[null]", false},
		{"yaml booleans", "[yes]", "[true]", false},
		{"duplicate keys", "{'a': 1, 'a': 2}", `{"a":2}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.CompareOutput(tt.actual, tt.expected, solution.ComparisonStructural); got != tt.want {
				t.Fatalf("CompareOutput(%q, %q) = %v, want %v", tt.actual, tt.expected, got, tt.want)
			}
		})
	}
}

func TestCompareOutput_Exact(t *testing.T) {
	v := NewVerifier()

	if !v.CompareOutput("[0,1]\n", "[0,1]", solution.ComparisonExact) {
		t.Fatalf("trailing whitespace must be ignored")
	}
	if v.CompareOutput("[0, 1]", "[0,1]", solution.ComparisonExact) {
		t.Fatalf("exact policy must not normalize collections")
	}
}

func TestEvaluateAllTestCases_AllPassed(t *testing.T) {
	v := NewVerifier()
	cases := []solution.TestCase{
		{Input: "[2,7,11,15]\n9", Expected: "[0,1]"},
		{Input: "[3,2,4]\n6", Expected: "[1,2]"},
	}
	outcomes := []executor.RunOutcome{
		{Status: solution.Success, Stdout: "[0, 1]\n", Duration: 12 * time.Millisecond, PeakMemoryKB: 2048},
		{Status: solution.Success, Stdout: "[1, 2]\n", Duration: 30 * time.Millisecond, PeakMemoryKB: 1024},
	}

	report := v.EvaluateAllTestCases(cases, outcomes, solution.ComparisonStructural)

	if !report.Success || report.Verdict != "Accepted" {
		t.Fatalf("expected accepted report, got %+v", report)
	}
	if report.ConsoleOutput != "" {
		t.Fatalf("expected empty console, got %q", report.ConsoleOutput)
	}
	if report.Runtime != "30ms" || report.Memory != "2.0MB" {
		t.Fatalf("unexpected labels %q %q", report.Runtime, report.Memory)
	}
	if len(report.TestResults) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.TestResults))
	}
	first := report.TestResults[0]
	if first.Input != cases[0].Input || first.Actual != "[0, 1]" || !first.Passed || first.DurationMs != 12 {
		t.Fatalf("unexpected first result %+v", first)
	}
}

func TestEvaluateAllTestCases_MixedOutcomes(t *testing.T) {
	v := NewVerifier()
	cases := []solution.TestCase{
		{Input: "1", Expected: "1"},
		{Input: "2", Expected: "2"},
		{Input: "3", Expected: "3"},
		{Input: "4", Expected: "4"},
		{Input: "5", Expected: "5"},
	}
	outcomes := []executor.RunOutcome{
		{Status: solution.Success, Stdout: "1\n"},
		{Status: solution.Success, Stdout: "7\n"},
		{Status: solution.TimeLimitExceeded, Stdout: "partial", Duration: 200 * time.Millisecond},
		{Status: solution.RuntimeError, Stderr: "Traceback: ZeroDivisionError\n", ExitCode: 1},
		{Status: solution.MemoryLimitExceeded},
	}

	report := v.EvaluateAllTestCases(cases, outcomes, solution.ComparisonStructural)

	if report.Success {
		t.Fatalf("report must not succeed")
	}
	if report.Verdict != "Wrong Answer" {
		t.Fatalf("expected the first failure to decide the verdict, got %q", report.Verdict)
	}

	wantStatus := []solution.Status{
		solution.Success,
		solution.WrongAnswer,
		solution.TimeLimitExceeded,
		solution.RuntimeError,
		solution.MemoryLimitExceeded,
	}
	for i, want := range wantStatus {
		if report.TestResults[i].Status != want {
			t.Errorf("case %d: status %s, want %s", i+1, report.TestResults[i].Status, want)
		}
		if report.TestResults[i].Input != cases[i].Input {
			t.Errorf("case %d: results must keep request order", i+1)
		}
	}
	if report.TestResults[2].Actual != "" {
		t.Errorf("timed out case must have empty actual output, got %q", report.TestResults[2].Actual)
	}
	if report.PassedCount() != 1 {
		t.Errorf("expected 1 passed case, got %d", report.PassedCount())
	}

	lines := strings.Split(strings.TrimSuffix(report.ConsoleOutput, "\n"), "\n")
	wantLines := []string{
		"Test case 3: Time Limit Exceeded",
		"Test case 4: Error: Traceback: ZeroDivisionError",
		"Test case 5: Memory Limit Exceeded",
	}
	if len(lines) != len(wantLines) {
		t.Fatalf("unexpected console output %q", report.ConsoleOutput)
	}
	for i := range wantLines {
		if lines[i] != wantLines[i] {
			t.Errorf("console line %d = %q, want %q", i, lines[i], wantLines[i])
		}
	}
	if report.Runtime != "200ms" {
		t.Errorf("unexpected runtime label %q", report.Runtime)
	}
}

func TestEvaluateAllTestCases_RuntimeErrorWithoutStderr(t *testing.T) {
	v := NewVerifier()
	report := v.EvaluateAllTestCases(
		[]solution.TestCase{{Input: "1", Expected: "1"}},
		[]executor.RunOutcome{{Status: solution.RuntimeError, ExitCode: 139}},
		solution.ComparisonStructural,
	)
	if report.ConsoleOutput != "Test case 1: Runtime Error (exit code 139)\n" {
		t.Fatalf("unexpected console %q", report.ConsoleOutput)
	}
	if report.Verdict != "Runtime Error" {
		t.Fatalf("unexpected verdict %q", report.Verdict)
	}
}

func TestEvaluateAllTestCases_Empty(t *testing.T) {
	v := NewVerifier()
	report := v.EvaluateAllTestCases(nil, nil, solution.ComparisonStructural)

	if !report.Success || report.Verdict != "Accepted" {
		t.Fatalf("empty test list must succeed vacuously, got %+v", report)
	}
	if report.TestResults == nil || len(report.TestResults) != 0 {
		t.Fatalf("expected empty non-nil results")
	}
	if report.Runtime != "" || report.Memory != "" {
		t.Fatalf("labels must be omitted for an empty list")
	}
}

func TestEvaluateAllTestCases_MissingOutcome(t *testing.T) {
	v := NewVerifier()
	report := v.EvaluateAllTestCases(
		[]solution.TestCase{{Input: "1", Expected: "1"}, {Input: "2", Expected: "2"}},
		[]executor.RunOutcome{{Status: solution.Success, Stdout: "1"}},
		solution.ComparisonStructural,
	)
	if report.TestResults[1].Status != solution.InternalError || report.TestResults[1].Passed {
		t.Fatalf("missing outcome must be an internal error, got %+v", report.TestResults[1])
	}
	if report.Success || report.Verdict != "Internal Error" {
		t.Fatalf("unexpected report %+v", report)
	}
}
