package harness

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/languages"
	"github.com/mini-maxit/executor/pkg/solution"
	"go.uber.org/zap"
)

// File is a source file of a unit, relative to the unit's scratch dir.
type File struct {
	Name    string
	Content string
}

// Unit is a self-contained program for one (submission, test case) pair. The test
// input reaches the program on stdin, never through its source text.
type Unit struct {
	ID         string
	Language   languages.LanguageType
	Toolchain  languages.Toolchain
	Files      []File
	Stdin      string
	CompileCmd []string
	RunCmd     []string
}

type Builder interface {
	Build(code, language string, entryPoint solution.EntryPoint, testCase solution.TestCase) (*Unit, error)
}

type builder struct {
	toolchains languages.Toolchains
	drivers    map[languages.LanguageType]*template.Template
	logger     *zap.SugaredLogger
}

func NewBuilder(toolchains languages.Toolchains) Builder {
	return &builder{
		toolchains: toolchains,
		drivers: map[languages.LanguageType]*template.Template{
			languages.JAVASCRIPT: newDriver("javascript", javascriptDriver),
			languages.PYTHON:     newDriver("python", pythonDriver),
			languages.JAVA:       newDriver("java", javaDriver),
			languages.CPP:        newDriver("cpp", cppDriver),
		},
		logger: logger.NewNamedLogger("harness-builder"),
	}
}

// Build does not look at the user code beyond splicing it in; a missing entry
// point shows up as a compilation or runtime error.
func (b *builder) Build(
	code, language string,
	entryPoint solution.EntryPoint,
	testCase solution.TestCase,
) (*Unit, error) {
	lt, err := languages.ParseLanguageType(language)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, language)
	}
	tc, err := b.toolchains.Get(lt)
	if err != nil {
		return nil, err
	}
	driver, ok := b.drivers[lt]
	if !ok {
		return nil, fmt.Errorf("%w: no harness for %s", errors.ErrInvalidLanguageType, lt)
	}

	if entryPoint.IsZero() {
		entryPoint = solution.DefaultEntryPoint()
	}
	if lt.IsScriptingLanguage() {
		err = entryPoint.ValidateNames()
	} else {
		err = entryPoint.Validate()
	}
	if err != nil {
		return nil, err
	}

	var src strings.Builder
	data := templateData{Code: prepareCode(lt, code), EntryPoint: entryPoint}
	if err := driver.Execute(&src, data); err != nil {
		b.logger.Errorf("Failed to render %s harness: %s", lt, err)
		return nil, err
	}

	return &Unit{
		ID:         uuid.NewString(),
		Language:   lt,
		Toolchain:  tc,
		Files:      []File{{Name: tc.SourceFile, Content: src.String()}},
		Stdin:      normalizeInput(testCase.Input),
		CompileCmd: tc.CompileCmd,
		RunCmd:     tc.RunCmd,
	}, nil
}

type templateData struct {
	Code       string
	EntryPoint solution.EntryPoint
}

var publicSolutionRegex = regexp.MustCompile(`\bpublic\s+(final\s+)?class\s+Solution\b`)

// prepareCode adapts user code to the single file layout of its language.
func prepareCode(lt languages.LanguageType, code string) string {
	if lt == languages.JAVA {
		// Main.java may only hold one public class.
		code = publicSolutionRegex.ReplaceAllString(code, "${1}class Solution")
	}
	return code
}

// normalizeInput turns the input into one argument per line, newline terminated.
func normalizeInput(input string) string {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	return input + "\n"
}

func newDriver(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(driverFuncs).Parse(text))
}

var driverFuncs = template.FuncMap{
	"javaType": func(t solution.ValueType) string { return javaTypes[t] },
	"cppType":  func(t solution.ValueType) string { return cppTypes[t] },
	"conv":     func(t solution.ValueType) string { return converters[t] },
	"args": func(params []solution.Param) string {
		names := make([]string, len(params))
		for i := range params {
			names[i] = fmt.Sprintf("a%d", i)
		}
		return strings.Join(names, ", ")
	},
	"quote": func(s string) string { return `"` + s + `"` },
}

var converters = map[solution.ValueType]string{
	solution.TypeInt:          "toInt",
	solution.TypeLong:         "toLong",
	solution.TypeDouble:       "toDouble",
	solution.TypeBool:         "toBool",
	solution.TypeString:       "toStr",
	solution.TypeIntArray:     "toIntArray",
	solution.TypeLongArray:    "toLongArray",
	solution.TypeDoubleArray:  "toDoubleArray",
	solution.TypeBoolArray:    "toBoolArray",
	solution.TypeStringArray:  "toStrArray",
	solution.TypeIntMatrix:    "toIntMatrix",
	solution.TypeStringMatrix: "toStrMatrix",
}
