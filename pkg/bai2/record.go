package bai2

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// RecordCode identifies a BAI2 record type.
type RecordCode string

const (
	FileHeaderCode        RecordCode = "01"
	GroupHeaderCode       RecordCode = "02"
	AccountIdentifierCode RecordCode = "03"
	TransactionDetailCode RecordCode = "16"
	SummaryCode           RecordCode = "88"
	AccountTrailerCode    RecordCode = "49"
	GroupTrailerCode      RecordCode = "98"
	FileTrailerCode       RecordCode = "99"
)

const (
	// FieldSeparator separates fields within a record.
	FieldSeparator = ","
	// Terminator ends every record.
	Terminator = "/"

	// OpeningLedgerCode is the balance type carried on the 03 record.
	OpeningLedgerCode = "010"

	lineBreaks = "\r\n"

	dateLayout = "060102"
	timeLayout = "1504"
)

// fieldSpec describes one field after the record code. A zero max means the
// field has no width limit of its own. Optional fields may only trail and are
// omitted from the rendered line when empty.
type fieldSpec struct {
	name     string
	max      int
	optional bool
}

var grammar = map[RecordCode][]fieldSpec{
	FileHeaderCode: {
		{name: "sender", max: 35},
		{name: "receiver", max: 35},
		{name: "creation date", max: 6},
		{name: "creation time", max: 4},
		{name: "file id", max: 20},
		{name: "physical record length", max: 5},
		{name: "block size", max: 5},
		{name: "version", max: 1},
	},
	GroupHeaderCode: {
		{name: "receiver", max: 35},
		{name: "originator", max: 35},
		{name: "group status", max: 1},
		{name: "as-of date", max: 6},
		{name: "as-of time", max: 4},
		{name: "currency", max: 3},
		{name: "as-of date modifier", max: 1},
	},
	AccountIdentifierCode: {
		{name: "account number", max: 35},
		{name: "currency", max: 3},
		{name: "type code", max: 3},
		{name: "amount", max: 20},
		{name: "item count", max: 10},
		{name: "funds type", max: 1},
	},
	SummaryCode: {
		{name: "type code", max: 3},
		{name: "amount", max: 20},
		{name: "item count", max: 10},
		{name: "funds type", max: 1},
		{name: "text", optional: true},
	},
	TransactionDetailCode: {
		{name: "type code", max: 3},
		{name: "amount", max: 20},
		{name: "funds type", max: 1},
		{name: "bank reference", max: 35},
		{name: "customer reference", max: 35},
		{name: "text"},
	},
	AccountTrailerCode: {
		{name: "control total", max: 20},
		{name: "record count", max: 10},
	},
	GroupTrailerCode: {
		{name: "control total", max: 20},
		{name: "account count", max: 10},
		{name: "record count", max: 10},
	},
	FileTrailerCode: {
		{name: "control total", max: 20},
		{name: "group count", max: 10},
		{name: "record count", max: 10},
	},
}

// FormatLine renders one record. Fields follow the record code in grammar
// order; the result carries the terminator but no line break. Values holding
// a separator, terminator or line break are rejected.
func FormatLine(code RecordCode, fields ...string) (string, error) {
	specs, ok := grammar[code]
	if !ok {
		return "", fmt.Errorf("unknown record code %q: %w", code, ErrFormat)
	}
	if len(fields) != len(specs) {
		return "", fmt.Errorf("record %s expects %d fields, got %d: %w", code, len(specs), len(fields), ErrFormat)
	}

	for i, v := range fields {
		spec := specs[i]
		if strings.ContainsAny(v, FieldSeparator+Terminator+lineBreaks) {
			return "", &FormatError{Record: code, Field: spec.name, Value: v, Kind: IllegalCharacter}
		}
		if spec.max > 0 && utf8.RuneCountInString(v) > spec.max {
			return "", &FormatError{Record: code, Field: spec.name, Value: v, Kind: FieldTooLong}
		}
	}

	n := len(fields)
	for n > 0 && specs[n-1].optional && fields[n-1] == "" {
		n--
	}

	var b strings.Builder
	b.WriteString(string(code))
	for _, v := range fields[:n] {
		b.WriteString(FieldSeparator)
		b.WriteString(v)
	}
	b.WriteString(Terminator)
	return b.String(), nil
}

// FormatAmount renders signed cents as a bare integer.
func FormatAmount(cents int64) string {
	return strconv.FormatInt(cents, 10)
}

// FormatOptionalAmount renders an amount, leaving absent and zero values
// blank.
func FormatOptionalAmount(cents *int64) string {
	if cents == nil || *cents == 0 {
		return ""
	}
	return FormatAmount(*cents)
}

// FormatOptionalCount renders an item count, leaving absent and zero values
// blank.
func FormatOptionalCount(n *int) string {
	if n == nil || *n == 0 {
		return ""
	}
	return strconv.Itoa(*n)
}

// FormatDate renders t as YYMMDD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatTime renders t as HHMM.
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// Truncate cuts s to at most max runes. A max of zero or less disables it.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// flattenText puts free text on one line: runs of whitespace, line breaks
// included, become a single space.
func flattenText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsCreditCode reports whether a detail type code is in the credit range.
func IsCreditCode(code string) bool {
	n, ok := typeCodeNumber(code)
	return ok && n >= 100 && n <= 399
}

// IsDebitCode reports whether a detail type code is in the debit range.
func IsDebitCode(code string) bool {
	n, ok := typeCodeNumber(code)
	return ok && n >= 400 && n <= 699
}

func typeCodeNumber(code string) (int, bool) {
	if len(code) != 3 {
		return 0, false
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return n, true
}

func checkTypeCode(code string, cents int64) error {
	switch {
	case cents > 0 && IsCreditCode(code):
		return nil
	case cents < 0 && IsDebitCode(code):
		return nil
	}
	return &FormatError{Record: TransactionDetailCode, Field: "type code", Value: code, Kind: InvalidTypeCode}
}

func (h FileHeader) line() (string, error) {
	return FormatLine(FileHeaderCode,
		h.SenderID,
		h.ReceiverID,
		FormatDate(h.Created),
		FormatTime(h.Created),
		h.FileID,
		h.PhysicalRecordLength,
		h.BlockSize,
		h.Version,
	)
}

func (g *Group) headerLine() (string, error) {
	return FormatLine(GroupHeaderCode,
		g.ReceiverID,
		g.OriginatorID,
		g.Status,
		FormatDate(g.AsOfDate),
		g.AsOfTime,
		g.Currency,
		g.AsOfDateModifier,
	)
}

// Balance records (03 and 88) leave the funds type blank; only 16 records
// carry one.
func (a *Account) identifierLine() (string, error) {
	return FormatLine(AccountIdentifierCode,
		a.Number,
		a.Currency,
		OpeningLedgerCode,
		FormatAmount(a.Opening),
		"",
		"",
	)
}

func (s SummaryRecord) line() (string, error) {
	return FormatLine(SummaryCode,
		s.Code,
		FormatOptionalAmount(s.Amount),
		FormatOptionalCount(s.ItemCount),
		"",
		s.Text,
	)
}

func (d Detail) line(maxText int) (string, error) {
	if err := checkTypeCode(d.TypeCode, d.Amount); err != nil {
		return "", err
	}
	amount := d.Amount
	if amount < 0 {
		amount = -amount
	}
	return FormatLine(TransactionDetailCode,
		d.TypeCode,
		FormatAmount(amount),
		d.FundsType,
		d.BankReference,
		d.CustomerReference,
		Truncate(flattenText(d.Text), maxText),
	)
}

func accountTrailerLine(total int64, records int) (string, error) {
	return FormatLine(AccountTrailerCode, FormatAmount(total), strconv.Itoa(records))
}

func groupTrailerLine(total int64, accounts, records int) (string, error) {
	return FormatLine(GroupTrailerCode, FormatAmount(total), strconv.Itoa(accounts), strconv.Itoa(records))
}

func fileTrailerLine(total int64, groups, records int) (string, error) {
	return FormatLine(FileTrailerCode, FormatAmount(total), strconv.Itoa(groups), strconv.Itoa(records))
}
