package bai2

// Control totals are balance based: an account reports its closing ledger
// balance, and each level above reports the sum of the level below.

// ControlTotal returns the value of the account's 49 control total.
func (a *Account) ControlTotal() int64 {
	return a.Closing
}

// ControlTotal returns the value of the group's 98 control total.
func (g *Group) ControlTotal() int64 {
	var total int64
	for _, a := range g.Accounts {
		total += a.ControlTotal()
	}
	return total
}

// ControlTotal returns the value of the 99 control total.
func (f *File) ControlTotal() int64 {
	var total int64
	for _, g := range f.Groups {
		total += g.ControlTotal()
	}
	return total
}

// Totals returns the credit and debit sums of the account's details as
// positive cents, with their item counts.
func (a *Account) Totals() (credits int64, creditCount int, debits int64, debitCount int) {
	for _, d := range a.Details {
		switch {
		case d.Amount > 0:
			credits += d.Amount
			creditCount++
		case d.Amount < 0:
			debits -= d.Amount
			debitCount++
		}
	}
	return credits, creditCount, debits, debitCount
}

// Net returns credits minus debits for the account's details.
func (a *Account) Net() int64 {
	credits, _, debits, _ := a.Totals()
	return credits - debits
}
