package bai2

import (
	"time"

	"github.com/example/bai2-encoder/pkg/statement"
)

// Balance type codes the encoder knows how to fill from an account's
// balances and details.
const (
	ClosingLedgerCode    = "015"
	OpeningAvailableCode = "040"
	ClosingAvailableCode = "045"
	TotalCreditsCode     = "100"
	TotalDebitsCode      = "400"
)

// FileHeader holds the values of the 01 record.
type FileHeader struct {
	SenderID             string
	ReceiverID           string
	Created              time.Time
	FileID               string
	PhysicalRecordLength string
	BlockSize            string
	Version              string
}

// File is the root of the record tree. A File is built and rendered within
// one encode call and never shared.
type File struct {
	Header FileHeader
	Groups []*Group
}

// Group is one as-of date batch.
type Group struct {
	ReceiverID       string
	OriginatorID     string
	Status           string
	AsOfDate         time.Time
	AsOfTime         string
	Currency         string
	AsOfDateModifier string
	Accounts         []*Account
}

// Account holds one account's balances, summary lines and details within a
// group. Opening is rendered on the 03 record; Closing drives the control
// total.
type Account struct {
	Number    string
	Currency  string
	Opening   int64
	Closing   int64
	Summaries []SummaryRecord
	Details   []Detail
}

// SummaryRecord is a type-88 balance or control line. Nil Amount or
// ItemCount render as blank fields.
type SummaryRecord struct {
	Code      string
	Amount    *int64
	ItemCount *int
	Text      string
}

// Detail is a type-16 transaction. Amount is signed cents; the rendered
// amount is unsigned and the type code carries the direction.
type Detail struct {
	TypeCode          string
	Amount            int64
	FundsType         string
	BankReference     string
	CustomerReference string
	Text              string
}

func amountPtr(v int64) *int64 { return &v }

func countPtr(n int) *int { return &n }

// buildFile turns a statement into a record tree with one group per as-of
// date. Undated transactions belong to the statement's as-of date, or to the
// creation date when the statement has none. Only the first group's balances
// come from the statement; later groups are left for EnforceContinuity to
// fill.
func buildFile(rec *statement.Record, opts Options, sender string, created time.Time) *File {
	f := &File{
		Header: FileHeader{
			SenderID:             sender,
			ReceiverID:           opts.ReceiverID,
			Created:              created,
			FileID:               opts.FileID,
			PhysicalRecordLength: opts.PhysicalRecordLength,
			BlockSize:            opts.BlockSize,
			Version:              opts.Version,
		},
	}

	currency := rec.Currency
	if currency == "" {
		currency = opts.Currency
	}

	asOf := rec.AsOfDate
	if asOf.IsZero() {
		asOf = created
	}
	posted := rec.Posted()
	for i := range posted {
		if posted[i].Date.IsZero() {
			posted[i].Date = asOf
		}
	}

	days := statement.ByDate(posted)
	if len(days) == 0 {
		days = [][]statement.Transaction{nil}
		f.Groups = append(f.Groups, newGroup(opts, sender, currency, asOf))
	} else {
		for _, txs := range days {
			f.Groups = append(f.Groups, newGroup(opts, sender, currency, txs[0].Date))
		}
	}

	for i, txs := range days {
		acct := &Account{
			Number:   rec.AccountNumber,
			Currency: currency,
		}
		for _, t := range txs {
			acct.Details = append(acct.Details, newDetail(t, opts))
		}
		if i == 0 {
			acct.Opening = rec.OpeningBalance
			if len(days) == 1 {
				acct.Closing = rec.ClosingBalance
			} else {
				acct.Closing = acct.Opening + acct.Net()
			}
		}
		acct.Summaries = balanceSummaries(acct, opts.SummaryCodes)
		if i == len(days)-1 {
			acct.Summaries = appendExtraSummaries(acct.Summaries, rec.Summaries)
		}
		f.Groups[i].Accounts = []*Account{acct}
	}
	return f
}

func newGroup(opts Options, originator, currency string, asOf time.Time) *Group {
	return &Group{
		ReceiverID:       opts.ReceiverID,
		OriginatorID:     originator,
		Status:           opts.GroupStatus,
		AsOfDate:         statement.Day(asOf),
		AsOfTime:         opts.AsOfTime,
		Currency:         currency,
		AsOfDateModifier: opts.AsOfDateModifier,
	}
}

func newDetail(t statement.Transaction, opts Options) Detail {
	code := t.TypeCode
	if code == "" {
		if t.IsCredit() {
			code = opts.DefaultCreditCode
		} else {
			code = opts.DefaultDebitCode
		}
	}
	return Detail{
		TypeCode:          code,
		Amount:            t.Amount,
		FundsType:         opts.FundsType,
		BankReference:     t.BankReference,
		CustomerReference: t.CustomerReference,
		Text:              t.Description,
	}
}

// balanceSummaries produces the configured summary lines for an account.
// Codes without a derivable value are emitted blank.
func balanceSummaries(a *Account, codes []string) []SummaryRecord {
	credits, creditCount, debits, debitCount := a.Totals()

	var out []SummaryRecord
	for _, code := range codes {
		s := SummaryRecord{Code: code}
		switch code {
		case OpeningLedgerCode, OpeningAvailableCode:
			s.Amount = amountPtr(a.Opening)
		case ClosingLedgerCode, ClosingAvailableCode:
			s.Amount = amountPtr(a.Closing)
		case TotalCreditsCode:
			s.Amount = amountPtr(credits)
			s.ItemCount = countPtr(creditCount)
		case TotalDebitsCode:
			s.Amount = amountPtr(debits)
			s.ItemCount = countPtr(debitCount)
		}
		out = append(out, s)
	}
	return out
}

// appendExtraSummaries adds statement-supplied summary lines whose code is
// not already present.
func appendExtraSummaries(out []SummaryRecord, extra []statement.Summary) []SummaryRecord {
	present := make(map[string]bool, len(out))
	for _, s := range out {
		present[s.Code] = true
	}
	for _, s := range extra {
		if present[s.Code] {
			continue
		}
		present[s.Code] = true
		out = append(out, SummaryRecord{Code: s.Code, Amount: s.Amount, ItemCount: s.ItemCount})
	}
	return out
}
