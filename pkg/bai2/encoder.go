// Package bai2 encodes normalized statements into BAI2 documents and
// validates the record counts and control totals of BAI2 documents.
package bai2

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/bai2-encoder/pkg/statement"
)

// Options are the file-level values the encoder cannot take from a
// statement.
type Options struct {
	SenderID             string
	ReceiverID           string
	FileID               string
	PhysicalRecordLength string
	BlockSize            string
	Version              string
	GroupStatus          string
	AsOfTime             string
	AsOfDateModifier     string
	Currency             string
	FundsType            string
	MaxTextLength        int
	SummaryCodes         []string
	DefaultCreditCode    string
	DefaultDebitCode     string
}

// DefaultOptions returns the options used for any field left empty.
func DefaultOptions() Options {
	return Options{
		FileID:            "1",
		Version:           "2",
		GroupStatus:       "1",
		AsOfDateModifier:  "2",
		Currency:          "USD",
		FundsType:         "Z",
		MaxTextLength:     80,
		SummaryCodes:      []string{ClosingLedgerCode, OpeningAvailableCode, ClosingAvailableCode, TotalCreditsCode, TotalDebitsCode},
		DefaultCreditCode: "399",
		DefaultDebitCode:  "699",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FileID == "" {
		o.FileID = d.FileID
	}
	if o.Version == "" {
		o.Version = d.Version
	}
	if o.GroupStatus == "" {
		o.GroupStatus = d.GroupStatus
	}
	if o.AsOfDateModifier == "" {
		o.AsOfDateModifier = d.AsOfDateModifier
	}
	if o.Currency == "" {
		o.Currency = d.Currency
	}
	if o.FundsType == "" {
		o.FundsType = d.FundsType
	}
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = d.MaxTextLength
	}
	if o.SummaryCodes == nil {
		o.SummaryCodes = d.SummaryCodes
	}
	if o.DefaultCreditCode == "" {
		o.DefaultCreditCode = d.DefaultCreditCode
	}
	if o.DefaultDebitCode == "" {
		o.DefaultDebitCode = d.DefaultDebitCode
	}
	return o
}

// Encoder turns statements into BAI2 documents. It holds no per-call state
// and is safe for concurrent use.
type Encoder struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Encoder) {
		e.logger = l
	}
}

// WithClock sets the source of the file creation time.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		e.now = now
	}
}

// NewEncoder returns an encoder for opts. Empty option fields take their
// defaults. Options that cannot be rendered, such as an identifier with a
// comma, are rejected here so that the stub path cannot fail later.
func NewEncoder(opts Options, options ...Option) (*Encoder, error) {
	opts = opts.withDefaults()
	if !IsCreditCode(opts.DefaultCreditCode) {
		return nil, fmt.Errorf("default credit code %q is not a credit code: %w", opts.DefaultCreditCode, ErrFormat)
	}
	if !IsDebitCode(opts.DefaultDebitCode) {
		return nil, fmt.Errorf("default debit code %q is not a debit code: %w", opts.DefaultDebitCode, ErrFormat)
	}

	e := &Encoder{
		opts:   opts,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, o := range options {
		o(e)
	}

	if _, err := e.stub("probe"); err != nil {
		return nil, fmt.Errorf("invalid encoder options: %w", err)
	}
	return e, nil
}

// Options returns the effective options.
func (e *Encoder) Options() Options {
	return e.opts
}

// EncodeResult encodes a successful extraction, or the stub document for a
// failed one.
func (e *Encoder) EncodeResult(res statement.Result) (*Document, error) {
	if res.Failure != nil {
		return e.EncodeFailure(*res.Failure)
	}
	if res.Record == nil {
		return e.EncodeFailure(statement.ExtractionFailure{Source: res.Source, Reason: "no statement extracted"})
	}
	return e.Encode(res.Record)
}

// Encode renders rec as a BAI2 document with one group per as-of date. A
// record without an account number, or without a routing number when no
// sender is configured, yields the stub document. The serialized document
// is parsed back and validated before it is returned.
func (e *Encoder) Encode(rec *statement.Record) (*Document, error) {
	if rec == nil || strings.TrimSpace(rec.AccountNumber) == "" {
		return e.EncodeFailure(statement.ExtractionFailure{Reason: "missing account number"})
	}
	sender := strings.TrimSpace(rec.RoutingNumber)
	if sender == "" {
		sender = e.opts.SenderID
	}
	if sender == "" {
		return e.EncodeFailure(statement.ExtractionFailure{Reason: "missing routing number"})
	}

	log := e.logger.With(zap.String("account", maskAccount(rec.AccountNumber)))
	if dropped := len(rec.Transactions) - len(rec.Posted()); dropped > 0 {
		log.Debug("dropped zero-amount transactions", zap.Int("count", dropped))
	}

	f := buildFile(rec, e.opts, sender, e.now())
	final := EnforceContinuity(f.Groups)
	if len(f.Groups) > 1 && final[rec.AccountNumber] != rec.ClosingBalance {
		log.Warn("derived closing balance differs from statement",
			zap.Int64("derived", final[rec.AccountNumber]),
			zap.Int64("stated", rec.ClosingBalance),
			zap.Int("groups", len(f.Groups)))
	}

	doc, err := render(f, e.opts.MaxTextLength)
	if err != nil {
		return nil, fmt.Errorf("failed to render account %s: %w", maskAccount(rec.AccountNumber), err)
	}
	if err := doc.verify(); err != nil {
		return nil, fmt.Errorf("encoded document is inconsistent: %w", err)
	}

	log.Debug("encoded statement",
		zap.Int("groups", doc.totals.GroupCount),
		zap.Int("records", doc.totals.RecordCount),
		zap.Int64("control_total", doc.totals.ControlTotal))
	return doc, nil
}

// IsFormatError reports whether err was caused by input that cannot be
// represented in BAI2.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}

// maskAccount keeps the last four characters of an account number for logs.
func maskAccount(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
