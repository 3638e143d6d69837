package statement

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ErrSubCent is returned when an amount carries more than two decimal places.
var ErrSubCent = errors.New("amount has sub-cent precision")

// ErrOutOfRange is returned when an amount does not fit in int64 cents.
var ErrOutOfRange = errors.New("amount out of range")

// ErrMissingDate is returned for an undated transaction in a statement
// without an as-of date.
var ErrMissingDate = errors.New("transaction has no date and statement has no as-of date")

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// UnmarshalJSON parses a YYYY-MM-DD string. Empty strings and null leave the
// date zero.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Input is the JSON document produced by the extraction step for one source
// statement. Amounts are decimal currency units.
type Input struct {
	AccountNumber   string             `json:"account_number"`
	RoutingNumber   string             `json:"routing_number"`
	Currency        string             `json:"currency"`
	AsOfDate        Date               `json:"as_of_date"`
	OpeningBalance  decimal.Decimal    `json:"opening_balance"`
	ClosingBalance  decimal.Decimal    `json:"closing_balance"`
	Summaries       []SummaryInput     `json:"summaries"`
	Transactions    []TransactionInput `json:"transactions"`
	ExtractionError string             `json:"extraction_error"`
}

// SummaryInput is the decimal form of Summary.
type SummaryInput struct {
	Code      string              `json:"code"`
	Amount    decimal.NullDecimal `json:"amount"`
	ItemCount *int                `json:"item_count"`
}

// TransactionInput is the decimal form of Transaction.
type TransactionInput struct {
	Date              Date            `json:"date"`
	Amount            decimal.Decimal `json:"amount"`
	TypeCode          string          `json:"type_code"`
	Description       string          `json:"description"`
	BankReference     string          `json:"bank_reference"`
	CustomerReference string          `json:"customer_reference"`
}

// ToCents converts a decimal currency amount to integer cents. Amounts that
// cannot be represented exactly are rejected rather than rounded.
func ToCents(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%s: %w", d.String(), ErrSubCent)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("%s: %w", d.String(), ErrOutOfRange)
	}
	return shifted.IntPart(), nil
}

// Result converts the input into the encoder's contract. An input carrying
// an extraction error becomes an ExtractionFailure.
func (in *Input) Result(source string) (Result, error) {
	if in.ExtractionError != "" {
		return Result{
			Source:  source,
			Failure: &ExtractionFailure{Source: source, Reason: in.ExtractionError},
		}, nil
	}

	rec, err := in.Record()
	if err != nil {
		return Result{}, err
	}
	return Result{Source: source, Record: rec}, nil
}

// Record converts the decimal amounts of the input into a cents-based Record.
// Undated transactions take the statement's as-of date.
func (in *Input) Record() (*Record, error) {
	opening, err := ToCents(in.OpeningBalance)
	if err != nil {
		return nil, fmt.Errorf("opening balance: %w", err)
	}
	closing, err := ToCents(in.ClosingBalance)
	if err != nil {
		return nil, fmt.Errorf("closing balance: %w", err)
	}

	rec := &Record{
		AccountNumber:  strings.TrimSpace(in.AccountNumber),
		RoutingNumber:  strings.TrimSpace(in.RoutingNumber),
		Currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		AsOfDate:       in.AsOfDate.Time,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}

	for i, s := range in.Summaries {
		sum := Summary{Code: s.Code, ItemCount: s.ItemCount}
		if s.Amount.Valid {
			cents, err := ToCents(s.Amount.Decimal)
			if err != nil {
				return nil, fmt.Errorf("summary %d (%s): %w", i, s.Code, err)
			}
			sum.Amount = &cents
		}
		rec.Summaries = append(rec.Summaries, sum)
	}

	for i, t := range in.Transactions {
		cents, err := ToCents(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		date := t.Date.Time
		if date.IsZero() {
			date = rec.AsOfDate
		}
		if date.IsZero() {
			return nil, fmt.Errorf("transaction %d: %w", i, ErrMissingDate)
		}
		rec.AddTransaction(Transaction{
			Date:              date,
			Amount:            cents,
			TypeCode:          t.TypeCode,
			Description:       t.Description,
			BankReference:     t.BankReference,
			CustomerReference: t.CustomerReference,
		})
	}
	return rec, nil
}

// Decode reads one JSON statement input from r.
func Decode(r io.Reader, source string) (Result, error) {
	var in Input
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return Result{}, fmt.Errorf("failed to decode statement %s: %w", source, err)
	}
	res, err := in.Result(source)
	if err != nil {
		return Result{}, fmt.Errorf("invalid statement %s: %w", source, err)
	}
	return res, nil
}

// Load reads a JSON statement input from path. The source name is the file's
// base name without extension.
func Load(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Decode(f, source)
}
