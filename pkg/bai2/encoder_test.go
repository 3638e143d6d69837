package bai2

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/example/bai2-encoder/pkg/statement"
)

var fixedNow = time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestEncoder(t *testing.T, opts Options, options ...Option) *Encoder {
	t.Helper()
	options = append([]Option{WithClock(func() time.Time { return fixedNow })}, options...)
	enc, err := NewEncoder(opts, options...)
	require.NoError(t, err)
	return enc
}

func singleTransactionRecord() *statement.Record {
	return &statement.Record{
		AccountNumber:  "12345678",
		RoutingNumber:  "021000021",
		Currency:       "USD",
		AsOfDate:       date("2024-03-31"),
		OpeningBalance: 100000,
		ClosingBalance: 95000,
		Transactions: []statement.Transaction{
			{Date: date("2024-03-15"), Amount: -5000, Description: "CHECK 1001", BankReference: "BR1"},
		},
	}
}

func TestEncode_SingleTransaction(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "CUSTOMER1"})

	doc, err := enc.Encode(singleTransactionRecord())
	require.NoError(t, err)

	want := []string{
		"01,021000021,CUSTOMER1,240401,0930,1,,,2/",
		"02,CUSTOMER1,021000021,1,240315,,USD,2/",
		"03,12345678,USD,010,100000,,/",
		"88,015,95000,,/",
		"88,040,100000,,/",
		"88,045,95000,,/",
		"88,100,,,/",
		"88,400,5000,1,/",
		"16,699,5000,Z,BR1,,CHECK 1001/",
		"49,95000,8/",
		"98,95000,1,10/",
		"99,95000,1,12/",
	}
	assert.Equal(t, want, doc.Lines())
	assert.Equal(t, strings.Join(want, "\n")+"\n", doc.String())
	assert.Equal(t, Totals{ControlTotal: 95000, GroupCount: 1, AccountCount: 1, RecordCount: 12}, doc.Totals())
	assert.False(t, doc.IsStub())
	assert.NoError(t, Validate(doc))
}

func TestEncode_NoTransactions(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "CUSTOMER1"})
	rec := singleTransactionRecord()
	rec.Transactions = nil
	rec.ClosingBalance = rec.OpeningBalance

	doc, err := enc.Encode(rec)
	require.NoError(t, err)

	lines := doc.Lines()
	require.Len(t, lines, 11)
	assert.Equal(t, "02,CUSTOMER1,021000021,1,240331,,USD,2/", lines[1])
	assert.Equal(t, "49,100000,7/", lines[8])
	assert.Equal(t, "98,100000,1,9/", lines[9])
	assert.Equal(t, "99,100000,1,11/", lines[10])
	assert.NoError(t, Validate(doc))
}

func TestEncode_ConcreteScenario(t *testing.T) {
	enc := newTestEncoder(t, Options{SenderID: "BANK", ReceiverID: "CUSTOMER1"})

	rec := &statement.Record{
		AccountNumber:  "987654321",
		Currency:       "USD",
		OpeningBalance: 1498035,
		ClosingBalance: 1498035,
		Summaries: []statement.Summary{
			{Code: "072"},
			{Code: "074"},
			{Code: "075"},
			{Code: "190"},
		},
	}
	for i := 0; i < 4; i++ {
		rec.AddTransaction(statement.Transaction{Date: date("2024-03-29"), Amount: 25000, TypeCode: "301", Description: "DEPOSIT"})
	}
	for i := 0; i < 8; i++ {
		rec.AddTransaction(statement.Transaction{Date: date("2024-03-29"), Amount: -12500, TypeCode: "475", Description: "CHECK PAID"})
	}

	doc, err := enc.Encode(rec)
	require.NoError(t, err)

	lines := doc.Lines()
	n := len(lines)
	require.Equal(t, 27, n)

	summaries := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "88,") {
			summaries++
		}
	}
	assert.Equal(t, 9, summaries)
	assert.Equal(t, "49,1498035,23/", lines[n-3])
	assert.Equal(t, "98,1498035,1,25/", lines[n-2])
	assert.Equal(t, "99,1498035,1,27/", lines[n-1])
	assert.Equal(t, 27, doc.Totals().RecordCount)
	assert.NoError(t, Validate(doc))
}

func TestEncode_MultipleDatesKeepBalancesContinuous(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "CUSTOMER1"})
	rec := &statement.Record{
		AccountNumber:  "12345678",
		RoutingNumber:  "021000021",
		OpeningBalance: 1000000,
		ClosingBalance: 1040000,
		Transactions: []statement.Transaction{
			{Date: date("2024-03-02"), Amount: 50000, Description: "WIRE IN"},
			{Date: date("2024-03-01"), Amount: 10000, Description: "DEPOSIT"},
			{Date: date("2024-03-02"), Amount: -20000, Description: "ACH DEBIT"},
		},
	}

	doc, err := enc.Encode(rec)
	require.NoError(t, err)
	require.NoError(t, Validate(doc))

	want := []string{
		"01,021000021,CUSTOMER1,240401,0930,1,,,2/",
		"02,CUSTOMER1,021000021,1,240301,,USD,2/",
		"03,12345678,USD,010,1000000,,/",
		"88,015,1010000,,/",
		"88,040,1000000,,/",
		"88,045,1010000,,/",
		"88,100,10000,1,/",
		"88,400,,,/",
		"16,399,10000,Z,,,DEPOSIT/",
		"49,1010000,8/",
		"98,1010000,1,10/",
		"02,CUSTOMER1,021000021,1,240302,,USD,2/",
		"03,12345678,USD,010,1010000,,/",
		"88,015,1040000,,/",
		"88,040,1010000,,/",
		"88,045,1040000,,/",
		"88,100,50000,1,/",
		"88,400,20000,1,/",
		"16,399,50000,Z,,,WIRE IN/",
		"16,699,20000,Z,,,ACH DEBIT/",
		"49,1040000,9/",
		"98,1040000,1,11/",
		"99,2050000,2,23/",
	}
	assert.Equal(t, want, doc.Lines())
}

func TestEncode_ExtraSummariesOnLastGroup(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "R"})
	float := int64(1234)
	rec := &statement.Record{
		AccountNumber: "1",
		RoutingNumber: "2",
		Summaries: []statement.Summary{
			{Code: "072", Amount: &float},
			{Code: ClosingLedgerCode, Amount: &float},
		},
		Transactions: []statement.Transaction{
			{Date: date("2024-03-01"), Amount: 100},
			{Date: date("2024-03-02"), Amount: 100},
		},
		ClosingBalance: 200,
	}

	doc, err := enc.Encode(rec)
	require.NoError(t, err)

	lines := doc.Lines()
	floats := 0
	for i, l := range lines {
		if l == "88,072,1234,,/" {
			floats++
			assert.Greater(t, i, 12, "extra summary belongs to the last group")
		}
		assert.NotEqual(t, "88,015,1234,,/", l)
	}
	assert.Equal(t, 1, floats)
	assert.Equal(t, int64(1234), float)
}

func TestEncode_DropsZeroAmountTransactions(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	enc := newTestEncoder(t, Options{ReceiverID: "R"}, WithLogger(zap.New(core)))

	rec := singleTransactionRecord()
	rec.AddTransaction(statement.Transaction{Date: date("2024-03-15"), Amount: 0, Description: "MEMO"})

	doc, err := enc.Encode(rec)
	require.NoError(t, err)

	for _, l := range doc.Lines() {
		assert.NotContains(t, l, "MEMO")
	}
	assert.Equal(t, 12, doc.Totals().RecordCount)
	assert.Equal(t, 1, logs.FilterMessage("dropped zero-amount transactions").Len())
}

func TestEncode_LogsClosingDrift(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	enc := newTestEncoder(t, Options{ReceiverID: "R"}, WithLogger(zap.New(core)))

	rec := &statement.Record{
		AccountNumber:  "12345678",
		RoutingNumber:  "2",
		OpeningBalance: 0,
		ClosingBalance: 999,
		Transactions: []statement.Transaction{
			{Date: date("2024-03-01"), Amount: 100},
			{Date: date("2024-03-02"), Amount: 100},
		},
	}
	_, err := enc.Encode(rec)
	require.NoError(t, err)

	entries := logs.FilterMessage("derived closing balance differs from statement").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(200), fields["derived"])
	assert.Equal(t, int64(999), fields["stated"])
	assert.Equal(t, "****5678", fields["account"])
}

func TestEncode_UsesConfiguredSender(t *testing.T) {
	enc := newTestEncoder(t, Options{SenderID: "BANKID", ReceiverID: "R"})
	rec := singleTransactionRecord()
	rec.RoutingNumber = ""

	doc, err := enc.Encode(rec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Lines()[0], "01,BANKID,R,"))
	assert.Equal(t, "02,R,BANKID,1,240315,,USD,2/", doc.Lines()[1])
}

func TestEncode_MissingIdentifiersYieldStub(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "R"})

	rec := singleTransactionRecord()
	rec.AccountNumber = "  "
	doc, err := enc.Encode(rec)
	require.NoError(t, err)
	assert.True(t, doc.IsStub())
	assert.Equal(t, "03,ERROR,USD,010,0,,/", doc.Lines()[2])
	assert.Equal(t, "88,015,,,,missing account number/", doc.Lines()[3])

	rec = singleTransactionRecord()
	rec.RoutingNumber = ""
	doc, err = enc.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, "88,015,,,,missing routing number/", doc.Lines()[3])

	doc, err = enc.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), doc.Totals().ControlTotal)
}

func TestEncode_IllegalCharacterInDescription(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "R"})
	rec := singleTransactionRecord()
	rec.Transactions[0].Description = "PAYMENT TO ACME, INC"

	doc, err := enc.Encode(rec)
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.False(t, errors.Is(err, ErrValidation))

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, IllegalCharacter, fe.Kind)
	assert.Contains(t, err.Error(), "****5678")
}

func TestEncode_TypeCodeDisagreesWithSign(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "R"})
	rec := singleTransactionRecord()
	rec.Transactions[0].TypeCode = "301"

	_, err := enc.Encode(rec)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, InvalidTypeCode, fe.Kind)
}

func TestEncodeFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	enc := newTestEncoder(t, Options{ReceiverID: "CUSTOMER1"}, WithLogger(zap.New(core)))

	doc, err := enc.EncodeFailure(statement.ExtractionFailure{
		Source: "scan-17",
		Reason: "no account, found/\nretry later",
	})
	require.NoError(t, err)

	want := []string{
		"01,ERROR,CUSTOMER1,240401,0930,1,,,2/",
		"02,CUSTOMER1,ERROR,1,240401,,USD,2/",
		"03,ERROR,USD,010,0,,/",
		"88,015,,,,no account found retry later/",
		"49,0,3/",
		"98,0,1,5/",
		"99,0,1,7/",
	}
	assert.Equal(t, want, doc.Lines())
	assert.Equal(t, Totals{ControlTotal: 0, GroupCount: 1, AccountCount: 1, RecordCount: 7}, doc.Totals())
	assert.True(t, doc.IsStub())
	assert.NoError(t, Validate(doc))
	assert.Equal(t, 1, logs.FilterField(zap.String("source", "scan-17")).Len())
}

func TestEncodeFailure_ReasonTruncatedAndDefaulted(t *testing.T) {
	enc := newTestEncoder(t, Options{SenderID: "BANK", MaxTextLength: 10})

	doc, err := enc.EncodeFailure(statement.ExtractionFailure{Reason: strings.Repeat("z", 50)})
	require.NoError(t, err)
	assert.Equal(t, "88,015,,,,zzzzzzzzzz/", doc.Lines()[3])
	assert.True(t, strings.HasPrefix(doc.Lines()[0], "01,BANK,,"))

	doc, err = enc.EncodeFailure(statement.ExtractionFailure{Reason: " ,/ "})
	require.NoError(t, err)
	assert.Equal(t, "88,015,,,,extraction/", doc.Lines()[3])
	assert.NoError(t, Validate(doc))
}

func TestEncodeResult(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "R"})

	doc, err := enc.EncodeResult(statement.Result{Record: singleTransactionRecord()})
	require.NoError(t, err)
	assert.Equal(t, int64(95000), doc.Totals().ControlTotal)

	doc, err = enc.EncodeResult(statement.Result{Failure: &statement.ExtractionFailure{Reason: "ocr failed"}})
	require.NoError(t, err)
	assert.Equal(t, "88,015,,,,ocr failed/", doc.Lines()[3])

	doc, err = enc.EncodeResult(statement.Result{Source: "empty"})
	require.NoError(t, err)
	assert.Equal(t, "88,015,,,,no statement extracted/", doc.Lines()[3])
}

func TestNewEncoder_RejectsUnrenderableOptions(t *testing.T) {
	_, err := NewEncoder(Options{ReceiverID: "ACME, INC"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "invalid encoder options")

	_, err = NewEncoder(Options{DefaultCreditCode: "475"})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewEncoder(Options{DefaultDebitCode: "301"})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestNewEncoder_Defaults(t *testing.T) {
	enc, err := NewEncoder(Options{})
	require.NoError(t, err)

	opts := enc.Options()
	assert.Equal(t, DefaultOptions(), opts)
}

func TestEncoder_ConcurrentUse(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "R"})
	want, err := enc.Encode(singleTransactionRecord())
	require.NoError(t, err)

	var g errgroup.Group
	docs := make([]*Document, 16)
	for i := range docs {
		i := i
		g.Go(func() error {
			doc, err := enc.Encode(singleTransactionRecord())
			docs[i] = doc
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, doc := range docs {
		assert.Equal(t, want.String(), doc.String())
	}
}

func reparse(t *testing.T, doc *Document) *Document {
	t.Helper()
	parsed, err := Parse(strings.NewReader(doc.String()))
	require.NoError(t, err)
	return parsed
}

func TestEncode_LineBreaksInText(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "R"})

	rec := singleTransactionRecord()
	rec.Transactions[0].Description = "CHECK\r\n1001"
	doc, err := enc.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, "16,699,5000,Z,BR1,,CHECK 1001/", doc.Lines()[8])

	parsed := reparse(t, doc)
	assert.Equal(t, doc.Lines(), parsed.Lines())
	assert.NoError(t, Validate(parsed))

	rec = singleTransactionRecord()
	rec.Transactions[0].BankReference = "A\nB"
	doc, err = enc.Encode(rec)
	assert.Nil(t, doc)
	var fe *FormatError
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Equal(t, IllegalCharacter, fe.Kind)
	assert.Equal(t, "bank reference", fe.Field)
}

func TestEncode_UndatedTransactionUsesAsOfDate(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "CUSTOMER1"})
	rec := singleTransactionRecord()
	rec.AddTransaction(statement.Transaction{Amount: 100, Description: "INTEREST"})

	doc, err := enc.Encode(rec)
	require.NoError(t, err)

	var headers []string
	for _, l := range doc.Lines() {
		if strings.HasPrefix(l, "02,") {
			headers = append(headers, l)
		}
	}
	assert.Equal(t, []string{
		"02,CUSTOMER1,021000021,1,240315,,USD,2/",
		"02,CUSTOMER1,021000021,1,240331,,USD,2/",
	}, headers)
	assert.Contains(t, doc.Lines(), "03,12345678,USD,010,100000,,/")
	assert.Contains(t, doc.Lines(), "03,12345678,USD,010,95000,,/")
	assert.Equal(t, "99,190100,2,22/", doc.Lines()[len(doc.Lines())-1])
}

func TestEncode_UndatedTransactionWithoutAsOfDate(t *testing.T) {
	enc := newTestEncoder(t, Options{ReceiverID: "CUSTOMER1"})
	rec := singleTransactionRecord()
	rec.AsOfDate = time.Time{}
	rec.Transactions[0].Date = time.Time{}

	doc, err := enc.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, "02,CUSTOMER1,021000021,1,240401,,USD,2/", doc.Lines()[1])
	assert.Equal(t, 1, doc.Totals().GroupCount)
}

func TestEncodeFailure_SerializedStubValidates(t *testing.T) {
	enc := newTestEncoder(t, Options{SenderID: "BANK", ReceiverID: "R"})

	doc, err := enc.EncodeFailure(statement.ExtractionFailure{Reason: "page 3\r\nunreadable"})
	require.NoError(t, err)

	parsed := reparse(t, doc)
	require.NoError(t, Validate(parsed))
	assert.Equal(t, doc.Totals(), parsed.Totals())
	assert.Equal(t, "88,015,,,,page 3 unreadable/", parsed.Lines()[3])
}
