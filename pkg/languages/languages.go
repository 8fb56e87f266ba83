package languages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/shlex"
	"github.com/mini-maxit/executor/pkg/errors"
)

type LanguageType int

const (
	JAVASCRIPT LanguageType = iota + 1
	PYTHON
	JAVA
	CPP
)

var languageNames = map[LanguageType]string{
	JAVASCRIPT: "javascript",
	PYTHON:     "python",
	JAVA:       "java",
	CPP:        "cpp",
}

func (lt LanguageType) String() string {
	return languageNames[lt]
}

// LanguageTypeMap maps accepted (upper-cased) tags to language types.
var LanguageTypeMap = map[string]LanguageType{
	"JAVASCRIPT": JAVASCRIPT,
	"JS":         JAVASCRIPT,
	"NODE":       JAVASCRIPT,
	"PYTHON":     PYTHON,
	"PYTHON3":    PYTHON,
	"PY":         PYTHON,
	"JAVA":       JAVA,
	"CPP":        CPP,
	"C++":        CPP,
}

func ParseLanguageType(s string) (LanguageType, error) {
	if lt, ok := LanguageTypeMap[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return lt, nil
	}
	return 0, errors.ErrInvalidLanguageType
}

func (lt LanguageType) IsScriptingLanguage() bool {
	return lt == JAVASCRIPT || lt == PYTHON
}

func GetSupportedLanguages() []string {
	languages := make([]string, 0, len(languageNames))
	for _, name := range languageNames {
		languages = append(languages, name)
	}
	sort.Strings(languages)
	return languages
}

// Toolchain describes how one language is built and run inside a sandbox.
type Toolchain struct {
	Language   LanguageType
	Image      string   // runtime image used by the docker backend
	SourceFile string   // file the harness is written to
	CompileCmd []string // nil for interpreted languages
	RunCmd     []string
	// MemoryFlag is a printf format taking the memory limit in MB, inserted right after
	// the run binary (heap flags for runtimes that reserve large virtual ranges).
	MemoryFlag string
	// Binaries that must be present on the host for the local backend.
	Binaries []string
	// Whether RLIMIT_AS can be used as the memory ceiling without breaking the runtime.
	AddressSpaceSafe bool
	// Ceiling on tasks (processes and threads) the runtime needs for itself.
	MaxTasks int64
	// Stderr fragments the runtime prints when an allocation fails.
	OOMMarkers []string
}

func (tc Toolchain) RequiresCompilation() bool {
	return len(tc.CompileCmd) > 0
}

// RunCommand returns the run command with the memory flag applied.
func (tc Toolchain) RunCommand(memoryLimitMB int64) []string {
	cmd := make([]string, 0, len(tc.RunCmd)+1)
	if len(tc.RunCmd) == 0 {
		return cmd
	}
	cmd = append(cmd, tc.RunCmd[0])
	if tc.MemoryFlag != "" && memoryLimitMB > 0 {
		cmd = append(cmd, fmt.Sprintf(tc.MemoryFlag, memoryLimitMB))
	}
	return append(cmd, tc.RunCmd[1:]...)
}

// Toolchains is the set of toolchains a service instance was configured with.
type Toolchains map[LanguageType]Toolchain

// NewToolchains builds the toolchain set. Compiler flags are given as shell-like strings.
func NewToolchains(cppFlags, javaFlags string) (Toolchains, error) {
	cppArgs, err := shlex.Split(cppFlags)
	if err != nil {
		return nil, fmt.Errorf("parse c++ compile flags: %w", err)
	}
	javaArgs, err := shlex.Split(javaFlags)
	if err != nil {
		return nil, fmt.Errorf("parse java compile flags: %w", err)
	}

	cppCompile := append([]string{"g++"}, cppArgs...)
	cppCompile = append(cppCompile, "-o", "solution", "main.cpp")

	javaCompile := append([]string{"javac"}, javaArgs...)
	javaCompile = append(javaCompile, "Main.java")

	return Toolchains{
		JAVASCRIPT: {
			Language:   JAVASCRIPT,
			Image:      "node:22-slim",
			SourceFile: "main.js",
			RunCmd:     []string{"node", "main.js"},
			MemoryFlag: "--max-old-space-size=%d",
			Binaries:   []string{"node"},
			MaxTasks:   64,
			OOMMarkers: []string{"heap out of memory"},
		},
		PYTHON: {
			Language:         PYTHON,
			Image:            "python:3.12-slim",
			SourceFile:       "main.py",
			RunCmd:           []string{"python3", "-B", "main.py"},
			Binaries:         []string{"python3"},
			AddressSpaceSafe: true,
			MaxTasks:         16,
			OOMMarkers:       []string{"MemoryError"},
		},
		JAVA: {
			Language:   JAVA,
			Image:      "eclipse-temurin:21-jdk",
			SourceFile: "Main.java",
			CompileCmd: javaCompile,
			RunCmd:     []string{"java", "-Xss64m", "-XX:+UseSerialGC", "-cp", ".", "Main"},
			MemoryFlag: "-Xmx%dm",
			Binaries:   []string{"javac", "java"},
			MaxTasks:   128,
			OOMMarkers: []string{"java.lang.OutOfMemoryError"},
		},
		CPP: {
			Language:         CPP,
			Image:            "gcc:14",
			SourceFile:       "main.cpp",
			CompileCmd:       cppCompile,
			RunCmd:           []string{"./solution"},
			Binaries:         []string{"g++"},
			AddressSpaceSafe: true,
			MaxTasks:         16,
			OOMMarkers:       []string{"std::bad_alloc"},
		},
	}, nil
}

// Get returns the toolchain for the language.
func (t Toolchains) Get(lt LanguageType) (Toolchain, error) {
	if tc, ok := t[lt]; ok {
		return tc, nil
	}
	return Toolchain{}, errors.ErrInvalidLanguageType
}
