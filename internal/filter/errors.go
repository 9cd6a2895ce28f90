package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ErrorKind classifies a parse error.
type ErrorKind int

const (
	ErrLexical ErrorKind = iota
	ErrSyntax
	ErrUnknownOperator
	ErrUnknownConjunction
	ErrUnbalancedGrouping
	ErrInvalidCustomField
	ErrUnknownFunction
	ErrFunctionArguments
	ErrInvalidValueList
	ErrInvalidGrammar
	ErrUnrecognizedValue
)

func (k ErrorKind) String() string {
	switch k {
	case ErrLexical:
		return "lexical"
	case ErrSyntax:
		return "syntax"
	case ErrUnknownOperator:
		return "unknown_operator"
	case ErrUnknownConjunction:
		return "unknown_conjunction"
	case ErrUnbalancedGrouping:
		return "unbalanced_grouping"
	case ErrInvalidCustomField:
		return "invalid_custom_field"
	case ErrUnknownFunction:
		return "unknown_function"
	case ErrFunctionArguments:
		return "function_arguments"
	case ErrInvalidValueList:
		return "invalid_value_list"
	case ErrInvalidGrammar:
		return "invalid_grammar"
	case ErrUnrecognizedValue:
		return "unrecognized_value"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Fatal reports whether errors of this kind leave the surrounding structure
// undeterminable. Only unrecognized literal values are recoverable.
func (k ErrorKind) Fatal() bool {
	switch k {
	case ErrUnrecognizedValue:
		return false
	case ErrLexical, ErrSyntax, ErrUnknownOperator, ErrUnknownConjunction,
		ErrUnbalancedGrouping, ErrInvalidCustomField, ErrUnknownFunction,
		ErrFunctionArguments, ErrInvalidValueList, ErrInvalidGrammar:
		return true
	default:
		return true
	}
}

// Error is a single problem found while parsing.
type Error struct {
	Kind    ErrorKind
	Token   string // offending token or fragment
	Message string
	Column  int // 1-based; 0 when unknown
}

func (e *Error) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("%d: %s", e.Column, e.Message)
	}
	return e.Message
}

// Fatal reports whether the error is fatal.
func (e *Error) Fatal() bool {
	return e.Kind.Fatal()
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		Token   string `json:"token"`
		Message string `json:"message"`
		Column  int    `json:"column,omitempty"`
		Fatal   bool   `json:"fatal"`
	}{e.Kind.String(), e.Token, e.Message, e.Column, e.Fatal()})
}

// errorList accumulates errors in the order they are found.
type errorList struct {
	errs   []*Error
	logger *slog.Logger
}

func (l *errorList) add(kind ErrorKind, tok Token, format string, args ...any) *Error {
	e := &Error{
		Kind:    kind,
		Token:   tok.Text,
		Message: fmt.Sprintf(format, args...),
		Column:  tok.Column,
	}
	l.append(e)
	return e
}

func (l *errorList) append(e *Error) {
	l.errs = append(l.errs, e)
	if l.logger != nil {
		l.logger.LogAttrs(context.Background(), slog.LevelDebug, "filter error",
			slog.String("kind", e.Kind.String()),
			slog.String("token", e.Token),
			slog.Int("column", e.Column),
			slog.Bool("fatal", e.Fatal()),
			slog.String("message", e.Message),
		)
	}
}

func hasFatal(errs []*Error) bool {
	for _, e := range errs {
		if e.Fatal() {
			return true
		}
	}
	return false
}
