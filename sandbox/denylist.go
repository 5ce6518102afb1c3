package sandbox

import (
	"fmt"
	"strings"
)

// SecurityError reports a snippet rejected by the static pre-check. Unlike
// runtime snippet errors it is returned as a Go error, so the violation is
// loud on the call path instead of being folded into the result payload.
type SecurityError struct {
	Pattern string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("code contains disallowed pattern %q", e.Pattern)
}

// denyList is scanned case-insensitively against the raw snippet text before
// any parsing or execution. It is a fast-reject layer, not the mediation
// boundary: the execution environment itself resolves no name outside the
// explicit symbol table. False positives are acceptable.
var denyList = []string{
	// module loading
	"import",
	"load(",
	// file handles
	"open(",
	"file(",
	// arbitrary code execution / compilation
	"eval(",
	"exec(",
	"compile(",
	// process and OS control
	"os.",
	"sys.",
	"subprocess",
	"system(",
	"popen(",
	"spawn",
	"fork",
	"kill(",
	"exit(",
	"quit(",
	// attribute and scope introspection
	"getattr",
	"setattr",
	"delattr",
	"hasattr",
	"globals(",
	"locals(",
	"vars(",
	"dir(",
	"breakpoint",
	// dangerous libraries
	"shutil",
	"pathlib",
	"socket",
	"urllib",
	"requests",
	"http",
	"pickle",
	"marshal",
	"shelve",
	"ctypes",
	"mmap",
	"signal",
	"threading",
	"multiprocessing",
	"input(",
}

// checkCode returns a SecurityError for the first deny-list pattern found
// anywhere in the snippet, or nil when the snippet passes.
func checkCode(code string) error {
	lowered := strings.ToLower(code)
	for _, pattern := range denyList {
		if strings.Contains(lowered, pattern) {
			return &SecurityError{Pattern: pattern}
		}
	}
	return nil
}
