package classify

import (
	"regexp"
	"strconv"
	"strings"
)

// Frame is one entry of a traceback's frame list, innermost last.
type Frame struct {
	File     string
	Line     int
	Function string
}

// Traceback is the structured form of a Python error report: the exception
// type, its message, and the frame list when one was printed.
type Traceback struct {
	Type    string
	Message string
	Frames  []Frame
}

// IsSyntaxError reports whether the exception is a parse-level failure
// rather than a runtime one.
func (t *Traceback) IsSyntaxError() bool {
	switch t.Type {
	case "SyntaxError", "IndentationError", "TabError":
		return true
	}
	return false
}

var (
	frameLine = regexp.MustCompile(`^\s+File "([^"]+)", line (\d+)(?:, in (.+))?$`)

	// The closing line of an error report: an exception identifier,
	// optionally dotted, optionally followed by a message.
	exceptionLine = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)(?::\s?(.*))?$`)
)

// exceptionName reports whether an identifier plausibly names an exception
// class. Matching on the conventional suffixes keeps ordinary output lines
// like "done" from being read as errors. All-caps identifiers are tool
// prefixes ("ERROR: ..."), not class names, and are rejected.
func exceptionName(name string) bool {
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	if name == "" || name == strings.ToUpper(name) {
		return false
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "error") || strings.HasSuffix(lower, "exception") || strings.HasSuffix(lower, "warning") {
		return true
	}
	switch name {
	case "KeyboardInterrupt", "SystemExit", "StopIteration", "StopAsyncIteration", "GeneratorExit":
		return true
	}
	return false
}

// ParseTraceback extracts the structured error report from captured
// stderr, or returns nil when none is present. It handles both the full
// "Traceback (most recent call last)" form and the bare syntax-error form
// the interpreter prints for parse failures.
func ParseTraceback(stderr string) *Traceback {
	lines := strings.Split(stderr, "\n")

	// Find the closing exception line: the last line that parses as an
	// exception identifier. Everything a payload prints after its own
	// error would be stdout, so scanning from the end is safe.
	excIdx := -1
	var excType, excMessage string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], "\r")
		if line == "" {
			continue
		}
		m := exceptionLine.FindStringSubmatch(line)
		if m != nil && exceptionName(m[1]) {
			excIdx = i
			excType = m[1]
			excMessage = m[2]
			// Drop a leading package path: "module.ValueError" -> "ValueError".
			if dot := strings.LastIndex(excType, "."); dot >= 0 {
				excType = excType[dot+1:]
			}
		}
		break
	}
	if excIdx < 0 {
		return nil
	}

	tb := &Traceback{Type: excType, Message: excMessage}

	for _, line := range lines[:excIdx] {
		if m := frameLine.FindStringSubmatch(line); m != nil {
			lineNo, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			tb.Frames = append(tb.Frames, Frame{
				File:     m[1],
				Line:     lineNo,
				Function: m[3],
			})
		}
	}

	return tb
}
