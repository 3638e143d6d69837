package statement

import (
	"sort"
	"time"
)

// Transaction represents a single posted item on a statement. Amount is in
// signed cents: positive for credits, negative for debits.
type Transaction struct {
	Date              time.Time `json:"date"`
	Amount            int64     `json:"amount"`
	TypeCode          string    `json:"type_code,omitempty"`
	Description       string    `json:"description"`
	BankReference     string    `json:"bank_reference,omitempty"`
	CustomerReference string    `json:"customer_reference,omitempty"`
}

// IsCredit reports whether the transaction adds to the balance.
func (t Transaction) IsCredit() bool {
	return t.Amount > 0
}

// IsDebit reports whether the transaction reduces the balance.
func (t Transaction) IsDebit() bool {
	return t.Amount < 0
}

// Summary is an extra balance line supplied by extraction, e.g. float or
// rejected items. Nil Amount or ItemCount means not reported.
type Summary struct {
	Code      string `json:"code"`
	Amount    *int64 `json:"amount,omitempty"`
	ItemCount *int   `json:"item_count,omitempty"`
}

// Record is one account's normalized statement for one processing run
type Record struct {
	AccountNumber  string        `json:"account_number"`
	RoutingNumber  string        `json:"routing_number,omitempty"`
	Currency       string        `json:"currency"`
	AsOfDate       time.Time     `json:"as_of_date"`
	OpeningBalance int64         `json:"opening_balance"`
	ClosingBalance int64         `json:"closing_balance"`
	Summaries      []Summary     `json:"summaries,omitempty"`
	Transactions   []Transaction `json:"transactions"`
}

// AddTransaction appends a transaction to the record
func (r *Record) AddTransaction(t Transaction) {
	r.Transactions = append(r.Transactions, t)
}

// Posted returns the transactions with a non-zero amount, in input order.
func (r *Record) Posted() []Transaction {
	var posted []Transaction
	for _, t := range r.Transactions {
		if t.Amount != 0 {
			posted = append(posted, t)
		}
	}
	return posted
}

// ByDate splits transactions into per-day buckets ordered by date. Order
// within a day is preserved.
func ByDate(txs []Transaction) [][]Transaction {
	index := make(map[time.Time]int)
	var days []time.Time
	var buckets [][]Transaction
	for _, t := range txs {
		day := Day(t.Date)
		i, ok := index[day]
		if !ok {
			i = len(buckets)
			index[day] = i
			days = append(days, day)
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], t)
	}

	order := make([]int, len(buckets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return days[order[a]].Before(days[order[b]])
	})

	sorted := make([][]Transaction, 0, len(buckets))
	for _, i := range order {
		sorted = append(sorted, buckets[i])
	}
	return sorted
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ExtractionFailure signals that upstream extraction could not produce a
// usable statement for Source.
type ExtractionFailure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Result is what extraction hands to the encoder: exactly one of Record or
// Failure is set.
type Result struct {
	Source  string
	Record  *Record
	Failure *ExtractionFailure
}
