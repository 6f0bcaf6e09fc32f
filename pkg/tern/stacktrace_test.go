package tern

import (
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestNewStacktrace_InnermostFrameLast(t *testing.T) {
	trace := stacktraceFromHelper()
	if trace == nil || len(trace.Frames) < 2 {
		t.Fatalf("trace = %+v, want at least two frames", trace)
	}

	last := trace.Frames[len(trace.Frames)-1]
	if !strings.Contains(last.Function, "stacktraceFromHelper") {
		t.Errorf("innermost frame = %q, want the capture site", last.Function)
	}
	secondLast := trace.Frames[len(trace.Frames)-2]
	if !strings.Contains(secondLast.Function, "TestNewStacktrace_InnermostFrameLast") {
		t.Errorf("caller frame = %q, want this test", secondLast.Function)
	}
}

//go:noinline
func stacktraceFromHelper() *Stacktrace {
	return NewStacktrace()
}

func TestNewStacktrace_FiltersRuntimeFrames(t *testing.T) {
	trace := NewStacktrace()
	if trace == nil {
		t.Fatal("expected a trace")
	}
	for _, frame := range trace.Frames {
		if frame.Module == "runtime" {
			t.Errorf("runtime frame leaked: %+v", frame)
		}
	}
}

func TestExtractStacktrace_PkgErrors(t *testing.T) {
	err := pkgerrors.New("origin")
	trace := ExtractStacktrace(err)
	if trace == nil || len(trace.Frames) == 0 {
		t.Fatal("expected frames from a pkg/errors error")
	}
	last := trace.Frames[len(trace.Frames)-1]
	if !strings.Contains(last.Function, "TestExtractStacktrace_PkgErrors") {
		t.Errorf("innermost frame = %q, want the error's origin", last.Function)
	}
}

func TestExtractStacktrace_PlainErrorHasNone(t *testing.T) {
	if trace := ExtractStacktrace(plainError("no stack")); trace != nil {
		t.Errorf("trace = %+v, want nil", trace)
	}
}

type plainError string

func (e plainError) Error() string { return string(e) }

func TestSplitQualifiedName(t *testing.T) {
	cases := []struct {
		in           string
		wantModule   string
		wantFunction string
	}{
		{"github.com/acme/svc/handler.(*Server).Run", "github.com/acme/svc/handler", "(*Server).Run"},
		{"main.main", "main", "main"},
		{"runtime.goexit", "runtime", "goexit"},
		{"noPackage", "", "noPackage"},
	}
	for _, tc := range cases {
		module, function := splitQualifiedName(tc.in)
		if module != tc.wantModule || function != tc.wantFunction {
			t.Errorf("splitQualifiedName(%q) = (%q, %q), want (%q, %q)",
				tc.in, module, function, tc.wantModule, tc.wantFunction)
		}
	}
}

func TestFilterFrames_KeepsTestFiles(t *testing.T) {
	frames := []Frame{
		{Module: "runtime", Function: "goexit"},
		{Module: "testing", Function: "tRunner"},
		{Module: sdkModulePrefix, Filename: "client.go", Function: "internal"},
		{Module: sdkModulePrefix, Filename: "client_test.go", Function: "TestSomething"},
		{Module: "github.com/acme/app", Filename: "main.go", Function: "run"},
	}
	filtered := filterFrames(frames)
	if len(filtered) != 2 {
		t.Fatalf("kept %d frames, want 2: %+v", len(filtered), filtered)
	}
	if filtered[0].Function != "TestSomething" || filtered[1].Function != "run" {
		t.Errorf("filtered = %+v", filtered)
	}
}

func TestIsInAppModule(t *testing.T) {
	cases := []struct {
		module string
		want   bool
	}{
		{"main", true},
		{"", true},
		{"github.com/acme/app", true},
		{"runtime", false},
		{"testing", false},
		{"github.com/acme/vendor/dep", false},
	}
	for _, tc := range cases {
		if got := isInAppModule(tc.module); got != tc.want {
			t.Errorf("isInAppModule(%q) = %v, want %v", tc.module, got, tc.want)
		}
	}
}
