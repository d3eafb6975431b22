package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // validation errors, failing scenarios
	ExitCommandError = 2 // unreadable project, bad flags, parse errors
)

// ExitError carries the process exit code of a failed command. Commands
// print their own diagnostics, so main only reports errors of other types.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError creates an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain,
// ExitSuccess for nil and ExitFailure otherwise.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the envelope of every JSON response.
type CLIResponse struct {
	Status  string    `json:"status"` // "ok" or "error"
	Data    any       `json:"data,omitempty"`
	Error   *CLIError `json:"error,omitempty"`
	TraceID string    `json:"trace_id,omitempty"` // UUIDv7, also usable to correlate log lines
}

// CLIError is the error member of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"` // ErrCode* constant, or E_TEST_FAILED
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as CLIResponse JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose diagnostics; nil falls back to Writer
	Verbose   bool

	// TraceID is generated on first use and shared by every response of
	// this formatter.
	TraceID string
}

func (f *OutputFormatter) traceID() string {
	if f.TraceID == "" {
		f.TraceID = NewTraceID()
	}
	return f.TraceID
}

// NewTraceID returns a time-ordered UUIDv7 string.
func NewTraceID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) respond(status string, data any, cliErr *CLIError) error {
	return json.NewEncoder(f.Writer).Encode(CLIResponse{
		Status:  status,
		Data:    data,
		Error:   cliErr,
		TraceID: f.traceID(),
	})
}

// Success writes data. Text output prints data with fmt.Println semantics,
// so payloads render through their String method when they have one.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return f.respond("ok", data, nil)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes an error response. Text output shows details only in
// verbose mode.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.respond("error", nil, &CLIError{Code: code, Message: message, Details: details})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// Report writes err as an error response and returns the ExitError the
// command should fail with. LoadErrors keep their code; a DSL line becomes
// the {"line": N} details. Every reported error exits with
// ExitCommandError.
func (f *OutputFormatter) Report(err error) error {
	code := loadErrorCode(err)
	var details any
	var loadErr *LoadError
	if errors.As(err, &loadErr) && loadErr.Line > 0 {
		details = map[string]int{"line": loadErr.Line}
	}
	if outErr := f.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, code, err)
}

// VerboseLog writes a diagnostic line in verbose mode. Diagnostics go to
// ErrWriter so JSON on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
