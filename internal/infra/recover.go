package infra

import (
	"fmt"
	"runtime"
	"strings"
)

// SafeRun calls f once and converts a panic into an error.
func SafeRun(id string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v at %s", id, r, panicSite())
		}
	}()
	return f()
}

// panicSite names the first non-runtime frame above the deferred recover.
func panicSite() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, "runtime.") {
			return fmt.Sprintf("%s:%d", frame.Function, frame.Line)
		}
		if !more {
			return "unknown"
		}
	}
}
