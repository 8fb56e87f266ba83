package languages_test

import (
	"errors"
	"reflect"
	"testing"

	pkgerrors "github.com/mini-maxit/executor/pkg/errors"
	. "github.com/mini-maxit/executor/pkg/languages"
)

func TestParseLanguageType(t *testing.T) {
	cases := []struct {
		in      string
		want    LanguageType
		wantErr bool
	}{
		{"javascript", JAVASCRIPT, false},
		{"JS", JAVASCRIPT, false},
		{"python", PYTHON, false},
		{" py ", PYTHON, false},
		{"java", JAVA, false},
		{"cpp", CPP, false},
		{"c++", CPP, false},
		{"ruby", 0, true},
		{"", 0, true},
	}

	for _, c := range cases {
		got, err := ParseLanguageType(c.in)
		if c.wantErr {
			if !errors.Is(err, pkgerrors.ErrInvalidLanguageType) {
				t.Fatalf("ParseLanguageType(%q) expected ErrInvalidLanguageType, got %v", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLanguageType(%q) unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseLanguageType(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestGetSupportedLanguages(t *testing.T) {
	want := []string{"cpp", "java", "javascript", "python"}
	if got := GetSupportedLanguages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("GetSupportedLanguages() = %v, want %v", got, want)
	}
}

func TestNewToolchainsCompileFlags(t *testing.T) {
	tcs, err := NewToolchains(`-O2 -std=c++17 -DLABEL="two words"`, "-encoding UTF-8")
	if err != nil {
		t.Fatalf("NewToolchains returned error: %v", err)
	}

	cpp, err := tcs.Get(CPP)
	if err != nil {
		t.Fatalf("Get(CPP) returned error: %v", err)
	}
	wantCpp := []string{"g++", "-O2", "-std=c++17", "-DLABEL=two words", "-o", "solution", "main.cpp"}
	if !reflect.DeepEqual(cpp.CompileCmd, wantCpp) {
		t.Fatalf("cpp compile cmd = %v, want %v", cpp.CompileCmd, wantCpp)
	}

	java, _ := tcs.Get(JAVA)
	wantJava := []string{"javac", "-encoding", "UTF-8", "Main.java"}
	if !reflect.DeepEqual(java.CompileCmd, wantJava) {
		t.Fatalf("java compile cmd = %v, want %v", java.CompileCmd, wantJava)
	}
}

func TestNewToolchainsRejectsBrokenFlags(t *testing.T) {
	if _, err := NewToolchains(`-O2 "unterminated`, ""); err == nil {
		t.Fatalf("expected error for unterminated quote")
	}
}

func TestRequiresCompilation(t *testing.T) {
	tcs, _ := NewToolchains("", "")
	for lt, tc := range tcs {
		if tc.RequiresCompilation() == lt.IsScriptingLanguage() {
			t.Fatalf("%s: RequiresCompilation()=%v but IsScriptingLanguage()=%v",
				lt, tc.RequiresCompilation(), lt.IsScriptingLanguage())
		}
	}
}

func TestRunCommandMemoryFlag(t *testing.T) {
	tcs, _ := NewToolchains("", "")

	node, _ := tcs.Get(JAVASCRIPT)
	want := []string{"node", "--max-old-space-size=128", "main.js"}
	if got := node.RunCommand(128); !reflect.DeepEqual(got, want) {
		t.Fatalf("node run cmd = %v, want %v", got, want)
	}

	java, _ := tcs.Get(JAVA)
	want = []string{"java", "-Xmx256m", "-Xss64m", "-XX:+UseSerialGC", "-cp", ".", "Main"}
	if got := java.RunCommand(256); !reflect.DeepEqual(got, want) {
		t.Fatalf("java run cmd = %v, want %v", got, want)
	}

	py, _ := tcs.Get(PYTHON)
	want = []string{"python3", "-B", "main.py"}
	if got := py.RunCommand(128); !reflect.DeepEqual(got, want) {
		t.Fatalf("python run cmd = %v, want %v", got, want)
	}
}

func TestToolchainsGetUnknown(t *testing.T) {
	tcs, _ := NewToolchains("", "")
	if _, err := tcs.Get(LanguageType(42)); !errors.Is(err, pkgerrors.ErrInvalidLanguageType) {
		t.Fatalf("expected ErrInvalidLanguageType, got %v", err)
	}
}
