package bai2

import (
	"fmt"
	"strconv"
	"strings"
)

// Validate re-derives every trailer count and control total of doc from its
// rendered lines and compares them with what the trailers report.
func Validate(doc *Document) error {
	_, err := walk(doc.lines)
	return err
}

// ValidateLines is Validate for raw record lines.
func ValidateLines(lines []string) error {
	_, err := walk(lines)
	return err
}

type parsedRecord struct {
	line   int
	code   RecordCode
	fields []string
}

// validator walks records in grammar order. It only reads.
type validator struct {
	records []parsedRecord
	pos     int
}

func walk(lines []string) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, &StructuralError{Reason: "empty document"}
	}

	v := &validator{}
	for i, l := range lines {
		rec, err := parseRecord(i+1, l)
		if err != nil {
			return Totals{}, err
		}
		v.records = append(v.records, rec)
	}
	return v.file()
}

func parseRecord(line int, text string) (parsedRecord, error) {
	if !strings.HasSuffix(text, Terminator) {
		return parsedRecord{}, &StructuralError{Line: line, Reason: "unterminated record"}
	}
	parts := strings.Split(strings.TrimSuffix(text, Terminator), FieldSeparator)
	code := RecordCode(parts[0])

	specs, ok := grammar[code]
	if !ok {
		return parsedRecord{}, &StructuralError{Line: line, Reason: fmt.Sprintf("unknown record code %q", parts[0])}
	}
	required := len(specs)
	for required > 0 && specs[required-1].optional {
		required--
	}
	n := len(parts) - 1
	if n < required || n > len(specs) {
		return parsedRecord{}, &StructuralError{
			Line:   line,
			Reason: fmt.Sprintf("record %s has %d fields, expected %d", code, n, len(specs)),
		}
	}
	return parsedRecord{line: line, code: code, fields: parts[1:]}, nil
}

func (v *validator) peek() (parsedRecord, bool) {
	if v.pos >= len(v.records) {
		return parsedRecord{}, false
	}
	return v.records[v.pos], true
}

func (v *validator) expect(code RecordCode) (parsedRecord, error) {
	rec, ok := v.peek()
	if !ok {
		return parsedRecord{}, &StructuralError{Reason: fmt.Sprintf("missing record %s", code)}
	}
	if rec.code != code {
		return parsedRecord{}, &StructuralError{
			Line:   rec.line,
			Reason: fmt.Sprintf("expected record %s, got %s", code, rec.code),
		}
	}
	v.pos++
	return rec, nil
}

func (v *validator) file() (Totals, error) {
	if _, err := v.expect(FileHeaderCode); err != nil {
		return Totals{}, err
	}

	var t Totals
	records := 1
	for {
		rec, ok := v.peek()
		if !ok || rec.code != GroupHeaderCode {
			break
		}
		total, accounts, n, err := v.group()
		if err != nil {
			return Totals{}, err
		}
		t.ControlTotal += total
		t.AccountCount += accounts
		t.GroupCount++
		records += n
	}

	trailer, err := v.expect(FileTrailerCode)
	if err != nil {
		return Totals{}, err
	}
	records++
	t.RecordCount = records

	if err := checkTrailer(trailer, LevelFile, t.ControlTotal, "groups", t.GroupCount, records); err != nil {
		return Totals{}, err
	}
	if rec, ok := v.peek(); ok {
		return Totals{}, &StructuralError{Line: rec.line, Reason: "record after file trailer"}
	}
	return t, nil
}

func (v *validator) group() (total int64, accounts, records int, err error) {
	if _, err := v.expect(GroupHeaderCode); err != nil {
		return 0, 0, 0, err
	}
	records = 1
	for {
		rec, ok := v.peek()
		if !ok || rec.code != AccountIdentifierCode {
			break
		}
		acctTotal, n, err := v.account()
		if err != nil {
			return 0, 0, 0, err
		}
		total += acctTotal
		accounts++
		records += n
	}

	trailer, err := v.expect(GroupTrailerCode)
	if err != nil {
		return 0, 0, 0, err
	}
	records++

	if err := checkTrailer(trailer, LevelGroup, total, "accounts", accounts, records); err != nil {
		return 0, 0, 0, err
	}
	return total, accounts, records, nil
}

func (v *validator) account() (total int64, records int, err error) {
	ident, err := v.expect(AccountIdentifierCode)
	if err != nil {
		return 0, 0, err
	}
	opening, err := parseAmount(ident, 3)
	if err != nil {
		return 0, 0, err
	}
	records = 1

	var net int64
	var closing *int64
loop:
	for {
		rec, ok := v.peek()
		if !ok {
			break
		}
		switch rec.code {
		case SummaryCode:
			if rec.fields[0] == ClosingLedgerCode {
				amount, err := parseAmount(rec, 1)
				if err != nil {
					return 0, 0, err
				}
				closing = &amount
			}
		case TransactionDetailCode:
			amount, err := parseAmount(rec, 1)
			if err != nil {
				return 0, 0, err
			}
			if amount < 0 {
				return 0, 0, &StructuralError{Line: rec.line, Reason: "detail amount must be unsigned"}
			}
			switch {
			case IsCreditCode(rec.fields[0]):
				net += amount
			case IsDebitCode(rec.fields[0]):
				net -= amount
			default:
				return 0, 0, &StructuralError{
					Line:   rec.line,
					Reason: fmt.Sprintf("detail type code %q is neither credit nor debit", rec.fields[0]),
				}
			}
		default:
			break loop
		}
		v.pos++
		records++
	}

	trailer, err := v.expect(AccountTrailerCode)
	if err != nil {
		return 0, 0, err
	}
	records++

	total = opening + net
	if closing != nil {
		total = *closing
	}

	if err := checkTrailer(trailer, LevelAccount, total, "", 0, records); err != nil {
		return 0, 0, err
	}
	return total, records, nil
}

// checkTrailer compares a trailer against derived figures. Trailer fields
// are control total, then the child count when what is set, then the record
// count.
func checkTrailer(rec parsedRecord, level Level, total int64, what string, children, records int) error {
	countField := 1
	if what != "" {
		gotChildren, err := parseCount(rec, 1)
		if err != nil {
			return err
		}
		if gotChildren != children {
			return &CountMismatchError{Level: level, What: what, Line: rec.line, Expected: children, Actual: gotChildren}
		}
		countField = 2
	}

	gotRecords, err := parseCount(rec, countField)
	if err != nil {
		return err
	}
	if gotRecords != records {
		return &CountMismatchError{Level: level, What: "records", Line: rec.line, Expected: records, Actual: gotRecords}
	}

	gotTotal, err := parseAmount(rec, 0)
	if err != nil {
		return err
	}
	if gotTotal != total {
		return &ControlTotalMismatchError{Level: level, Line: rec.line, Expected: total, Actual: gotTotal}
	}
	return nil
}

// parseAmount reads an amount field; blank means zero.
func parseAmount(rec parsedRecord, field int) (int64, error) {
	s := rec.fields[field]
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &StructuralError{
			Line:   rec.line,
			Reason: fmt.Sprintf("record %s %s: invalid amount %q", rec.code, grammar[rec.code][field].name, s),
		}
	}
	return n, nil
}

func parseCount(rec parsedRecord, field int) (int, error) {
	s := rec.fields[field]
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &StructuralError{
			Line:   rec.line,
			Reason: fmt.Sprintf("record %s %s: invalid count %q", rec.code, grammar[rec.code][field].name, s),
		}
	}
	return n, nil
}
