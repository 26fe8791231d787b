package vicare

import (
	"fmt"
	"strings"
)

// ViolationKind classifies a single constraint violation.
type ViolationKind string

const (
	ViolationTypeMismatch ViolationKind = "type_mismatch"
	ViolationEnum         ViolationKind = "enum"
	ViolationRange        ViolationKind = "range"
	ViolationStep         ViolationKind = "step"
	ViolationLength       ViolationKind = "length"
	ViolationPattern      ViolationKind = "pattern"
	ViolationUnknownParam ViolationKind = "unknown_param"
	ViolationMissingParam ViolationKind = "missing_param"
)

// Violation is one failed constraint check for one parameter.
type Violation struct {
	Param   string
	Kind    ViolationKind
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Param, v.Message, v.Kind)
}

// ValidationError is a local, pre-network rejection: unknown command,
// non-executable command, unknown or missing parameter, constraint
// violation, or a structurally invalid payload at construction time. It is
// always recoverable by the caller adjusting input and is never retried.
// All violations of an invocation are enumerated, not just the first.
type ValidationError struct {
	Feature    string
	Command    string
	Message    string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	if e.Command != "" {
		fmt.Fprintf(&b, " for command %q", e.Command)
	}
	if e.Feature != "" {
		fmt.Fprintf(&b, " on feature %q", e.Feature)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Violations) > 0 {
		parts := make([]string, len(e.Violations))
		for i, v := range e.Violations {
			parts[i] = v.String()
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, "; "))
	}
	return b.String()
}

// NotFoundError reports a purely local lookup miss against an
// already-fetched snapshot, distinct from a transport-level 404.
type NotFoundError struct {
	Kind   string
	Name   string
	Device string
}

func (e *NotFoundError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s %q not found on device %s", e.Kind, e.Name, e.Device)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// TransportError is a network or protocol failure while talking to the
// cloud API. It is propagated unchanged so callers can apply their own
// retry policy; the client never retries, backs off or suppresses it.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
