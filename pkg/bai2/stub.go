package bai2

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/bai2-encoder/pkg/statement"
)

// Placeholder is used for identifiers that extraction could not supply.
const Placeholder = "ERROR"

const defaultFailureReason = "extraction failed"

// EncodeFailure returns the stub document for a failed extraction: one
// group holding one ERROR account whose single summary line carries the
// reason. The stub reports a control total of zero and is validated against
// the same count and total rules as any other document.
func (e *Encoder) EncodeFailure(f statement.ExtractionFailure) (*Document, error) {
	e.logger.Warn("emitting stub document",
		zap.String("source", f.Source),
		zap.String("reason", f.Reason))
	return e.stub(f.Reason)
}

func (e *Encoder) stub(reason string) (*Document, error) {
	created := e.now()
	sender := e.opts.SenderID
	if sender == "" {
		sender = Placeholder
	}

	f := &File{
		Header: FileHeader{
			SenderID:             sender,
			ReceiverID:           e.opts.ReceiverID,
			Created:              created,
			FileID:               e.opts.FileID,
			PhysicalRecordLength: e.opts.PhysicalRecordLength,
			BlockSize:            e.opts.BlockSize,
			Version:              e.opts.Version,
		},
	}
	g := newGroup(e.opts, Placeholder, e.opts.Currency, created)
	g.Accounts = []*Account{{
		Number:   Placeholder,
		Currency: e.opts.Currency,
		Summaries: []SummaryRecord{{
			Code: ClosingLedgerCode,
			Text: stubText(reason, e.opts.MaxTextLength),
		}},
	}}
	f.Groups = []*Group{g}

	doc, err := render(f, e.opts.MaxTextLength)
	if err != nil {
		return nil, err
	}
	if err := doc.verify(); err != nil {
		return nil, fmt.Errorf("stub document is inconsistent: %w", err)
	}
	doc.stub = true
	return doc, nil
}

// stubText makes a failure reason safe for a text field: separators,
// terminators and line breaks become spaces and the result is truncated.
func stubText(reason string, max int) string {
	reason = flattenText(strings.Map(func(r rune) rune {
		switch r {
		case ',', '/':
			return ' '
		}
		return r
	}, reason))
	if reason == "" {
		reason = defaultFailureReason
	}
	return Truncate(reason, max)
}
