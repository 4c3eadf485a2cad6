package domain

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed configuration file. Fatal; exit code 2.
type ParseError struct {
	File   string
	Line   int
	Detail string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: invalid syntax at line %d: %s", e.File, e.Line, e.Detail)
	}
	return fmt.Sprintf("%s: invalid syntax: %s", e.File, e.Detail)
}

// CycleKind names the structure in which a cycle was detected.
type CycleKind string

const (
	CycleProfileGroup CycleKind = "profile group"
	CycleImport       CycleKind = "import"
)

// CycleError reports a circular profile group or import chain. Fatal; exit
// code 2. The chain names every participant of the cycle.
type CycleError struct {
	Kind  CycleKind
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular %s reference detected: %s", e.Kind, strings.Join(e.Chain, " -> "))
}

// ImportError reports a spring.config.import target that could not be
// resolved and was not marked optional. Fatal; exit code 2.
type ImportError struct {
	Directive string
	File      string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: import %q could not be resolved", e.File, e.Directive)
}

// UsageError reports invalid CLI input (missing project, bad flag values).
// Fatal; exit code 1.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }
