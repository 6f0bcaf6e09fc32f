// stacktrace.go converts program counters and stack-carrying errors into
// ordered frame lists, independent of how the error was produced.

package tern

import (
	"path/filepath"
	"runtime"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

const maxStackDepth = 64

// sdkModulePrefix identifies this library's own packages so their frames can
// be dropped from captured stacks.
const sdkModulePrefix = "github.com/strongdm/tern/pkg/tern"

// NewStacktrace captures the stack of the caller. Returns nil when no
// reportable frames remain after filtering.
func NewStacktrace() *Stacktrace {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(1, pcs)
	if n == 0 {
		return nil
	}

	frames := filterFrames(framesFromCallers(pcs[:n]))
	if len(frames) == 0 {
		return nil
	}
	return &Stacktrace{Frames: frames}
}

// ExtractStacktrace returns the stack carried by the error, or nil when the
// error does not expose one. Both the pkg/errors StackTrace convention and
// the Callers convention are recognized.
func ExtractStacktrace(err error) *Stacktrace {
	pcs := stackFromError(err)
	if len(pcs) == 0 {
		return nil
	}

	frames := filterFrames(framesFromCallers(pcs))
	if len(frames) == 0 {
		return nil
	}
	return &Stacktrace{Frames: frames}
}

func stackFromError(err error) []uintptr {
	switch stacked := err.(type) {
	case interface{ StackTrace() pkgerrors.StackTrace }:
		trace := stacked.StackTrace()
		pcs := make([]uintptr, 0, len(trace))
		for _, frame := range trace {
			pcs = append(pcs, uintptr(frame))
		}
		return pcs
	case interface{ Callers() []uintptr }:
		return stacked.Callers()
	}
	return nil
}

// framesFromCallers resolves program counters into wire frames, reversed so
// the innermost frame is last, per the store's rendering convention.
func framesFromCallers(pcs []uintptr) []Frame {
	callers := runtime.CallersFrames(pcs)

	var frames []Frame
	for {
		caller, more := callers.Next()
		frames = append(frames, newFrame(caller))
		if !more {
			break
		}
	}

	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return frames
}

func newFrame(caller runtime.Frame) Frame {
	module, function := splitQualifiedName(caller.Function)
	return Frame{
		Function: function,
		Module:   module,
		AbsPath:  caller.File,
		Filename: filepath.Base(caller.File),
		Lineno:   caller.Line,
		InApp:    isInAppModule(module),
	}
}

// splitQualifiedName splits a fully qualified symbol such as
// "github.com/acme/svc/handler.(*Server).Run" into package path and
// function name.
func splitQualifiedName(name string) (module string, function string) {
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	if dot < 0 {
		return "", name
	}
	dot += slash + 1
	return name[:dot], name[dot+1:]
}

// filterFrames removes runtime plumbing and this library's own frames.
// Frames originating in _test.go files are kept so tests see their own call
// sites.
func filterFrames(frames []Frame) []Frame {
	filtered := make([]Frame, 0, len(frames))
	for _, frame := range frames {
		if frame.Module == "runtime" || frame.Module == "testing" {
			continue
		}
		if strings.HasPrefix(frame.Module, sdkModulePrefix) && !strings.HasSuffix(frame.Filename, "_test.go") {
			continue
		}
		filtered = append(filtered, frame)
	}
	return filtered
}

func isInAppModule(module string) bool {
	if module == "" || module == "main" {
		return true
	}
	if strings.HasPrefix(module, "runtime") || strings.HasPrefix(module, "testing") {
		return false
	}
	return !strings.Contains(module, "vendor/")
}
