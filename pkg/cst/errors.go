package cst

import (
	"errors"
	"fmt"
)

var (
	// ErrLanguageUnavailable is returned when the embedded Python
	// grammar cannot be loaded.
	ErrLanguageUnavailable = errors.New("python grammar not available")

	errNoRootNode = errors.New("parse produced no root node")
	errPoolType   = errors.New("unexpected type in parser pool")
	errChildCount = errors.New("replacement children must match existing count")
)

// SyntaxError reports unparseable input. Conversion of the unit is
// aborted; nothing is written.
type SyntaxError struct {
	Pos  Position
	Near string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("syntax error at line %d, column %d near %q", e.Pos.Line, e.Pos.Column, e.Near)
	}

	return fmt.Sprintf("syntax error at line %d, column %d", e.Pos.Line, e.Pos.Column)
}
