package verifier

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/stages/executor"
	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/mini-maxit/executor/pkg/solution"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Verifier interface {
	// CompareOutput reports whether the program output matches the expected output
	// under the given policy.
	CompareOutput(actual, expected string, policy solution.ComparisonPolicy) bool
	// EvaluateAllTestCases turns run outcomes into a report. outcomes[i] belongs to
	// testCases[i]; it never fails.
	EvaluateAllTestCases(
		testCases []solution.TestCase,
		outcomes []executor.RunOutcome,
		policy solution.ComparisonPolicy,
	) solution.ExecutionReport
}

type verifier struct {
	logger *zap.SugaredLogger
}

func NewVerifier() Verifier {
	return &verifier{logger: logger.NewNamedLogger("verifier")}
}

var (
	floatOpts  = cmpopts.EquateApprox(0, 1e-9)
	numberOpts = cmp.Comparer(equalNumbers)
)

func (v *verifier) CompareOutput(actual, expected string, policy solution.ComparisonPolicy) bool {
	actual = strings.TrimSpace(actual)
	expected = strings.TrimSpace(expected)
	if actual == expected {
		return true
	}
	if policy == solution.ComparisonExact {
		return false
	}

	actualValue, ok := parseCollection(actual)
	if !ok {
		return false
	}
	expectedValue, ok := parseCollection(expected)
	if !ok {
		return false
	}
	return cmp.Equal(actualValue, expectedValue, numberOpts)
}

func (v *verifier) EvaluateAllTestCases(
	testCases []solution.TestCase,
	outcomes []executor.RunOutcome,
	policy solution.ComparisonPolicy,
) solution.ExecutionReport {
	results := make([]solution.TestResult, len(testCases))
	var console strings.Builder
	var maxDuration time.Duration
	var maxMemoryKB int64
	verdict := solution.Success

	for i, tc := range testCases {
		outcome := executor.RunOutcome{Status: solution.InternalError}
		if i < len(outcomes) {
			outcome = outcomes[i]
		} else {
			v.logger.Errorf("Missing run outcome for test case %d", i+1)
		}

		result := solution.TestResult{
			Input:      tc.Input,
			Expected:   tc.Expected,
			Status:     outcome.Status,
			DurationMs: outcome.Duration.Milliseconds(),
		}
		if outcome.Status != solution.TimeLimitExceeded {
			result.Actual = strings.TrimSpace(outcome.Stdout)
		}
		if outcome.Status == solution.Success {
			result.Passed = v.CompareOutput(outcome.Stdout, tc.Expected, policy)
			if !result.Passed {
				result.Status = solution.WrongAnswer
			}
		}
		results[i] = result

		if line := consoleLine(outcome); line != "" {
			fmt.Fprintf(&console, constants.ConsoleTestCaseFormat+"\n", i+1, line)
		}
		if verdict == solution.Success && result.Status != solution.Success {
			verdict = result.Status
		}
		maxDuration = max(maxDuration, outcome.Duration)
		maxMemoryKB = max(maxMemoryKB, outcome.PeakMemoryKB)
	}

	report := solution.ExecutionReport{
		Success:       verdict == solution.Success,
		TestResults:   results,
		ConsoleOutput: console.String(),
		Verdict:       verdict.Verdict(),
	}
	if len(testCases) > 0 {
		report.Runtime = fmt.Sprintf(constants.ReportRuntimeLabelFormat, maxDuration.Milliseconds())
		report.Memory = fmt.Sprintf(constants.ReportMemoryLabelFormat, float64(maxMemoryKB)/1024)
	}
	return report
}

// consoleLine returns the diagnostic for one test case, or "" when it has none.
func consoleLine(outcome executor.RunOutcome) string {
	stderr := strings.TrimSpace(outcome.Stderr)
	switch {
	case outcome.Status == solution.TimeLimitExceeded:
		return constants.ConsoleTimeLimitExceeded
	case outcome.Status == solution.MemoryLimitExceeded:
		return constants.ConsoleMemoryLimitExceeded
	case stderr != "":
		return constants.ConsoleErrorPrefix + stderr
	case outcome.Status == solution.RuntimeError:
		return fmt.Sprintf("%s (exit code %d)", constants.ConsoleRuntimeError, outcome.ExitCode)
	case outcome.Status == solution.InternalError:
		return solution.InternalError.Verdict()
	default:
		return ""
	}
}

// parseCollection parses s as a flow literal and returns it only when it is a
// sequence or a mapping. The accepted syntax is what JSON encoders and Python's
// repr print: flow collections, quoted strings, decimal numbers, null/None and
// true/True/false/False. Anything else YAML would accept makes s unparseable.
func parseCollection(s string) (any, bool) {
	if s == "" || (s[0] != '[' && s[0] != '{') || usesYAMLOnlySyntax(s) {
		return nil, false
	}

	dec := yaml.NewDecoder(strings.NewReader(s))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}
	var next yaml.Node
	if err := dec.Decode(&next); !errors.Is(err, io.EOF) {
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || hasComment(&doc) {
		return nil, false
	}
	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode && root.Kind != yaml.MappingNode {
		return nil, false
	}
	return normalize(root)
}

// usesYAMLOnlySyntax reports whether s has a comment, tag, anchor, alias,
// directive or explicit key outside quoted strings.
func usesYAMLOnlySyntax(s string) bool {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == '"' && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.IndexByte("#!&*?%|>", c) >= 0:
			return true
		}
	}
	return false
}

func hasComment(n *yaml.Node) bool {
	return n.HeadComment != "" || n.LineComment != "" || n.FootComment != ""
}

// normalize converts a node into plain values. Numbers keep their literal text
// and are compared by equalNumbers.
func normalize(n *yaml.Node) (any, bool) {
	if hasComment(n) || n.Anchor != "" || n.Style&yaml.TaggedStyle != 0 {
		return nil, false
	}
	switch n.Kind {
	case yaml.SequenceNode:
		if n.Style&yaml.FlowStyle == 0 {
			return nil, false
		}
		items := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, ok := normalize(child)
			if !ok {
				return nil, false
			}
			items = append(items, v)
		}
		return items, true
	case yaml.MappingNode:
		if n.Style&yaml.FlowStyle == 0 || len(n.Content)%2 != 0 {
			return nil, false
		}
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			key, ok := mappingKey(n.Content[i])
			if !ok {
				return nil, false
			}
			if _, dup := m[key]; dup {
				return nil, false
			}
			v, ok := normalize(n.Content[i+1])
			if !ok {
				return nil, false
			}
			m[key] = v
		}
		return m, true
	case yaml.ScalarNode:
		return scalar(n)
	default:
		return nil, false
	}
}

// mappingKey renders a scalar key so that keys equal as values collide, e.g.
// Python's {1: x} and {1.0: x}, while the string "1" stays distinct.
func mappingKey(n *yaml.Node) (string, bool) {
	if n.Kind != yaml.ScalarNode || hasComment(n) || n.Anchor != "" || n.Style&yaml.TaggedStyle != 0 {
		return "", false
	}
	v, ok := scalar(n)
	if !ok {
		return "", false
	}
	switch v := v.(type) {
	case string:
		return "s:" + v, true
	case number:
		r, ok := new(big.Rat).SetString(string(v))
		if !ok {
			return "", false
		}
		return "n:" + r.RatString(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

func scalar(n *yaml.Node) (any, bool) {
	switch {
	case n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0:
		return n.Value, true
	case n.Style != 0:
		return nil, false
	}
	switch n.Value {
	case "null", "None":
		return nil, true
	case "true", "True":
		return true, true
	case "false", "False":
		return false, true
	}
	if numberLiteral.MatchString(n.Value) {
		return number(n.Value), true
	}
	return nil, false
}

// number is a decimal literal kept as written, so integers past float64
// precision still compare exactly.
type number string

var numberLiteral = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]{1,3})?$`)

// equalNumbers compares integers exactly. Anything with a fraction or an
// exponent is compared as float64 within 1e-9, as floats printed by different
// runtimes may differ in the last digit.
func equalNumbers(a, b number) bool {
	ra, okA := new(big.Rat).SetString(string(a))
	rb, okB := new(big.Rat).SetString(string(b))
	if !okA || !okB {
		return false
	}
	if ra.Cmp(rb) == 0 {
		return true
	}
	if !strings.ContainsAny(string(a), ".eE") && !strings.ContainsAny(string(b), ".eE") {
		return false
	}
	fa, errA := strconv.ParseFloat(string(a), 64)
	fb, errB := strconv.ParseFloat(string(b), 64)
	if errA != nil || errB != nil {
		return false
	}
	return cmp.Equal(fa, fb, floatOpts)
}
