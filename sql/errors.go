// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sql

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrKind classifies engine errors per the error taxonomy: every error
// surfaced to a caller is tagged with exactly one kind so SAFE_* kernels
// and TryCatch can pattern-match on it without string sniffing.
type ErrKind string

const (
	KindParseError        ErrKind = "ParseError"
	KindInvalidQuery       ErrKind = "InvalidQuery"
	KindTableNotFound      ErrKind = "TableNotFound"
	KindColumnNotFound     ErrKind = "ColumnNotFound"
	KindFunctionNotFound   ErrKind = "FunctionNotFound"
	KindTypeMismatch       ErrKind = "TypeMismatch"
	KindInvalidCast        ErrKind = "InvalidCast"
	KindArithmeticOverflow ErrKind = "ArithmeticOverflow"
	KindDivisionByZero     ErrKind = "DivisionByZero"
	KindOutOfBounds        ErrKind = "OutOfBounds"
	KindUnsupported        ErrKind = "Unsupported"
	KindCancelled          ErrKind = "Cancelled"
	KindInternal           ErrKind = "Internal"
	KindRaised             ErrKind = "Raised"
)

// EngineError is the concrete error type for every failure the planner,
// optimizer, and executor produce. Ident, when set, names the offending
// identifier (table, column, function) for diagnostics.
type EngineError struct {
	Kind  ErrKind
	Ident string
	msg   string
	cause error
}

func (e *EngineError) Error() string {
	if e.Ident != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Ident, e.msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *EngineError) Unwrap() error { return e.cause }

func newErr(kind ErrKind, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// NewError builds a bare EngineError of the given kind.
func NewError(kind ErrKind, format string, args ...interface{}) *EngineError {
	return newErr(kind, format, args...)
}

// NewIdentError builds an EngineError naming the offending identifier.
func NewIdentError(kind ErrKind, ident, format string, args ...interface{}) *EngineError {
	e := newErr(kind, format, args...)
	e.Ident = ident
	return e
}

// Wrap attaches a stack-carrying cause via github.com/pkg/errors, keeping
// the kind for callers that only care about classification while still
// letting debug logging print the full %+v chain.
func Wrap(kind ErrKind, cause error, format string, args ...interface{}) *EngineError {
	e := newErr(kind, format, args...)
	e.cause = errors.WithStack(cause)
	return e
}

func ErrTableNotFound(name string) error {
	return NewIdentError(KindTableNotFound, name, "table not found")
}

func ErrColumnNotFound(name string) error {
	return NewIdentError(KindColumnNotFound, name, "column not found")
}

func ErrAmbiguousColumn(name string) error {
	return NewIdentError(KindColumnNotFound, name, "ambiguous column reference")
}

func ErrFunctionNotFound(name string) error {
	return NewIdentError(KindFunctionNotFound, name, "function not found")
}

func ErrTypeMismatch(format string, args ...interface{}) error {
	return newErr(KindTypeMismatch, format, args...)
}

func ErrInvalidQuery(format string, args ...interface{}) error {
	return newErr(KindInvalidQuery, format, args...)
}

func ErrUnsupported(format string, args ...interface{}) error {
	return newErr(KindUnsupported, format, args...)
}

func ErrInvalidCast(from, to string) error {
	return newErr(KindInvalidCast, "cannot cast %s to %s", from, to)
}

func ErrDivisionByZero() error {
	return newErr(KindDivisionByZero, "division by zero")
}

func ErrArithmeticOverflow(format string, args ...interface{}) error {
	return newErr(KindArithmeticOverflow, format, args...)
}

func ErrOutOfBounds(format string, args ...interface{}) error {
	return newErr(KindOutOfBounds, format, args...)
}

func ErrCancelled() error {
	return newErr(KindCancelled, "query was cancelled")
}

func ErrInternal(format string, args ...interface{}) error {
	return newErr(KindInternal, format, args...)
}

// ErrRaised builds the error a RAISE statement produces (Procedural);
// TryCatch binds its descriptor to CatchVarName when one is caught.
func ErrRaised(message string) error {
	return newErr(KindRaised, "%s", message)
}

// KindOf extracts the ErrKind from err, defaulting to KindInternal when err
// is not an *EngineError (e.g. a raw panic recovery or stdlib error).
func KindOf(err error) ErrKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindInternal
}

// IsSafeRecoverable reports whether a SAFE_* scalar kernel should convert
// this error into a Null result rather than propagate it, per /.
func IsSafeRecoverable(err error) bool {
	switch KindOf(err) {
	case KindInvalidCast, KindArithmeticOverflow, KindDivisionByZero, KindOutOfBounds:
		return true
	default:
		return false
	}
}

// Diagnose renders a user-visible diagnostic string prefixed by the error
// kind, per ("the engine never writes to stdout/stderr on error; all
// reporting is through returned errors").
func Diagnose(err error) string {
	if err == nil {
		return ""
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Error()
	}
	return fmt.Sprintf("%s: %s", KindInternal, err.Error())
}
