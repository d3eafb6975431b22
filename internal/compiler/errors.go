package compiler

import (
	"errors"
	"fmt"
)

// Entity roles reported by UnknownEntityError.
const (
	RoleSource  = "source"
	RoleTarget  = "target"
	RoleLiaison = "liaison"
)

// UnknownEntityError reports an entity name absent from the registry.
type UnknownEntityError struct {
	Name string // The missing entity name
	Role string // RoleSource, RoleTarget or RoleLiaison
	Line int    // 1-based DSL line, 0 when parsing a single line
}

func (e *UnknownEntityError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: unknown %s entity %q", e.Line, e.Role, e.Name)
	}
	return fmt.Sprintf("unknown %s entity %q", e.Role, e.Name)
}

// MalformedLineError reports a declaration that does not match the grammar:
// missing "->", too many segments, or a missing alias where one is required.
type MalformedLineError struct {
	Line   int
	Text   string // The trimmed line
	Reason string
}

func (e *MalformedLineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: malformed line %q: %s", e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("malformed line %q: %s", e.Text, e.Reason)
}

// MalformedOptionsTailError reports an options-tail entry missing its key or
// value, or carrying a value of the wrong type.
type MalformedOptionsTailError struct {
	Line   int
	Tail   string // The whole options tail
	Entry  string // The offending entry
	Reason string
}

func (e *MalformedOptionsTailError) Error() string {
	msg := fmt.Sprintf("malformed options %q: entry %q: %s", e.Tail, e.Entry, e.Reason)
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// IsUnknownEntity returns true if err is or wraps an UnknownEntityError.
func IsUnknownEntity(err error) bool {
	var target *UnknownEntityError
	return errors.As(err, &target)
}

// IsMalformedLine returns true if err is or wraps a MalformedLineError.
func IsMalformedLine(err error) bool {
	var target *MalformedLineError
	return errors.As(err, &target)
}

// IsMalformedOptions returns true if err is or wraps a MalformedOptionsTailError.
func IsMalformedOptions(err error) bool {
	var target *MalformedOptionsTailError
	return errors.As(err, &target)
}

// LineOf extracts the DSL line number from a parse error, or 0.
func LineOf(err error) int {
	var ue *UnknownEntityError
	if errors.As(err, &ue) {
		return ue.Line
	}
	var ml *MalformedLineError
	if errors.As(err, &ml) {
		return ml.Line
	}
	var mo *MalformedOptionsTailError
	if errors.As(err, &mo) {
		return mo.Line
	}
	var he *HookError
	if errors.As(err, &he) {
		return he.Line
	}
	return 0
}

// HookError wraps an error returned by a relationship hook.
type HookError struct {
	Line int
	Kind string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("line %d: %s hook: %v", e.Line, e.Kind, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
