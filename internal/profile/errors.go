package profile

import "fmt"

// ParseError is returned when a profile document or a version string is
// malformed.
type ParseError struct {
	Path   string // file the input came from, if any
	Input  string // offending text, if short enough to be useful
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "profile: parse"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Input != "" {
		msg += fmt.Sprintf(" %q", e.Input)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError is returned when a requested profile file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile: not found: %s", e.Path)
}

// ExtractionError records a single assembly, type or module that could not
// be reflected. Extraction collects these and carries on.
type ExtractionError struct {
	Kind string // "assembly", "type", "module", "accelerators"
	Item string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("profile: extract %s %s: %v", e.Kind, e.Item, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError is returned when a cached union profile does not describe
// the constituents it is expected to.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile: invalid union %s: %s", e.Path, e.Reason)
}

// IOError wraps a filesystem failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("profile: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
