package bai2

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every *FormatError.
	ErrFormat = errors.New("bai2: format error")
	// ErrValidation is matched by every validation failure.
	ErrValidation = errors.New("bai2: validation failed")
)

// FormatErrorKind classifies a FormatError.
type FormatErrorKind int

const (
	// IllegalCharacter means a value contained the field separator, the
	// record terminator or a line break. BAI2 has no escaping, so such values
	// are rejected.
	IllegalCharacter FormatErrorKind = iota + 1
	// FieldTooLong means a value exceeded the field's maximum width.
	FieldTooLong
	// InvalidTypeCode means a detail type code is not a credit or debit code,
	// or disagrees with the sign of the amount.
	InvalidTypeCode
)

func (k FormatErrorKind) String() string {
	switch k {
	case IllegalCharacter:
		return "illegal character"
	case FieldTooLong:
		return "field too long"
	case InvalidTypeCode:
		return "invalid type code"
	default:
		return "unknown"
	}
}

// FormatError reports a value that cannot be rendered into a record.
type FormatError struct {
	Record RecordCode
	Field  string
	Value  string
	Kind   FormatErrorKind
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bai2: record %s field %s: %s: %q", e.Record, e.Field, e.Kind, e.Value)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// Level names the hierarchy level a trailer belongs to.
type Level string

const (
	LevelAccount Level = "account"
	LevelGroup   Level = "group"
	LevelFile    Level = "file"
)

// CountMismatchError reports a trailer count that does not match the
// structure it closes. What is "records", "accounts" or "groups".
type CountMismatchError struct {
	Level    Level
	What     string
	Line     int
	Expected int
	Actual   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("bai2: line %d: %s trailer %s count: expected %d, got %d",
		e.Line, e.Level, e.What, e.Expected, e.Actual)
}

func (e *CountMismatchError) Unwrap() error { return ErrValidation }

// ControlTotalMismatchError reports a trailer control total that does not
// match the balances it summarizes.
type ControlTotalMismatchError struct {
	Level    Level
	Line     int
	Expected int64
	Actual   int64
}

func (e *ControlTotalMismatchError) Error() string {
	return fmt.Sprintf("bai2: line %d: %s trailer control total: expected %d, got %d",
		e.Line, e.Level, e.Expected, e.Actual)
}

func (e *ControlTotalMismatchError) Unwrap() error { return ErrValidation }

// StructuralError reports a document that does not follow the record
// grammar: a missing or unexpected record, wrong field arity, a malformed
// value or an unterminated line. Line is 1-based; 0 means end of document.
type StructuralError struct {
	Line   int
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Line == 0 {
		return "bai2: " + e.Reason
	}
	return fmt.Sprintf("bai2: line %d: %s", e.Line, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrValidation }
