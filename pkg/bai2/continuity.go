package bai2

// EnforceContinuity makes each group's opening balance equal the closing
// balance of the previous group for the same account. Groups must be in
// as-of date order. The first group of an account keeps its balances; every
// later group gets
//
//	opening = previous closing
//	closing = opening + credits - debits
//
// Opening and closing summary lines are rewritten to match, and missing
// opening available (040) or closing ledger (015) lines are synthesized. The
// returned map holds each account's final closing balance.
func EnforceContinuity(groups []*Group) map[string]int64 {
	running := make(map[string]int64)
	for _, g := range groups {
		for _, a := range g.Accounts {
			if prev, ok := running[a.Number]; ok {
				a.Opening = prev
				a.Closing = a.Opening + a.Net()
			}
			running[a.Number] = a.Closing
			a.syncBalanceSummaries()
		}
	}
	return running
}

func (a *Account) syncBalanceSummaries() {
	var hasOpening, hasClosing bool
	for i := range a.Summaries {
		s := &a.Summaries[i]
		switch s.Code {
		case OpeningLedgerCode, OpeningAvailableCode:
			s.Amount = amountPtr(a.Opening)
			hasOpening = true
		case ClosingLedgerCode:
			s.Amount = amountPtr(a.Closing)
			hasClosing = true
		case ClosingAvailableCode:
			s.Amount = amountPtr(a.Closing)
		}
	}

	if !hasOpening {
		opening := SummaryRecord{Code: OpeningAvailableCode, Amount: amountPtr(a.Opening)}
		a.Summaries = append([]SummaryRecord{opening}, a.Summaries...)
	}
	if !hasClosing {
		a.Summaries = append(a.Summaries, SummaryRecord{Code: ClosingLedgerCode, Amount: amountPtr(a.Closing)})
	}
}
