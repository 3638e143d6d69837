package bai2

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountWith(summaries, details int) *Account {
	a := &Account{Number: "A"}
	for i := 0; i < summaries; i++ {
		a.Summaries = append(a.Summaries, SummaryRecord{Code: fmt.Sprintf("%03d", 900+i)})
	}
	for i := 0; i < details; i++ {
		a.Details = append(a.Details, Detail{TypeCode: "399", Amount: 100})
	}
	return a
}

func TestRecordCount(t *testing.T) {
	tests := []struct {
		summaries, details int
	}{
		{0, 0},
		{1, 0},
		{0, 1},
		{1, 1},
		{9, 12},
		{5, 250},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d summaries %d details", tt.summaries, tt.details), func(t *testing.T) {
			a := accountWith(tt.summaries, tt.details)
			g := &Group{Accounts: []*Account{a}}
			f := &File{Groups: []*Group{g}}

			assert.Equal(t, 2+tt.summaries+tt.details, a.RecordCount())
			assert.Equal(t, 2+a.RecordCount(), g.RecordCount())
			assert.Equal(t, 2+g.RecordCount(), f.RecordCount())
		})
	}
}

func TestRecordCount_Empty(t *testing.T) {
	assert.Equal(t, 2, (&Group{}).RecordCount())
	assert.Equal(t, 2, (&File{}).RecordCount())
	assert.Equal(t, 0, (&File{}).AccountCount())
}

func TestRecordCount_ConcreteScenario(t *testing.T) {
	a := accountWith(9, 12)
	g := &Group{Accounts: []*Account{a}}
	f := &File{Groups: []*Group{g}}

	assert.Equal(t, 23, a.RecordCount())
	assert.Equal(t, 25, g.RecordCount())
	assert.Equal(t, 27, f.RecordCount())
}

func TestRecordCount_MultipleGroupsAndAccounts(t *testing.T) {
	g1 := &Group{Accounts: []*Account{accountWith(2, 3), accountWith(0, 0)}}
	g2 := &Group{Accounts: []*Account{accountWith(1, 1)}}
	f := &File{Groups: []*Group{g1, g2}}

	assert.Equal(t, 2+7+2, g1.RecordCount())
	assert.Equal(t, 2+4, g2.RecordCount())
	assert.Equal(t, 2+11+6, f.RecordCount())
	assert.Equal(t, 3, f.AccountCount())
}

func TestControlTotal(t *testing.T) {
	a1 := &Account{Opening: 100, Closing: 1000000}
	a2 := &Account{Opening: 0, Closing: -2500}
	a3 := &Account{Closing: 1030000}
	f := &File{Groups: []*Group{
		{Accounts: []*Account{a1, a2}},
		{Accounts: []*Account{a3}},
	}}

	assert.Equal(t, int64(1000000), a1.ControlTotal())
	assert.Equal(t, int64(997500), f.Groups[0].ControlTotal())
	assert.Equal(t, int64(1030000), f.Groups[1].ControlTotal())
	assert.Equal(t, int64(2027500), f.ControlTotal())
}

func TestControlTotal_IgnoresDetails(t *testing.T) {
	a := &Account{
		Opening: 1498035,
		Closing: 1498035,
		Details: []Detail{
			{TypeCode: "301", Amount: 40000},
			{TypeCode: "475", Amount: -1000},
		},
	}
	assert.Equal(t, int64(1498035), a.ControlTotal())
	assert.Equal(t, int64(39000), a.Net())

	credits, creditCount, debits, debitCount := a.Totals()
	assert.Equal(t, int64(40000), credits)
	assert.Equal(t, 1, creditCount)
	assert.Equal(t, int64(1000), debits)
	assert.Equal(t, 1, debitCount)
}

func summaryAmount(t *testing.T, a *Account, code string) int64 {
	t.Helper()
	for _, s := range a.Summaries {
		if s.Code == code {
			require.NotNil(t, s.Amount, "summary %s has no amount", code)
			return *s.Amount
		}
	}
	t.Fatalf("summary %s not found", code)
	return 0
}

func TestEnforceContinuity_TwoGroups(t *testing.T) {
	first := &Account{Number: "A", Opening: 900000, Closing: 1000000}
	second := &Account{
		Number:  "A",
		Opening: 0,
		Closing: 5,
		Details: []Detail{
			{TypeCode: "399", Amount: 50000},
			{TypeCode: "699", Amount: -20000},
		},
	}
	groups := []*Group{
		{Accounts: []*Account{first}},
		{Accounts: []*Account{second}},
	}

	final := EnforceContinuity(groups)

	assert.Equal(t, int64(900000), first.Opening)
	assert.Equal(t, int64(1000000), first.Closing)
	assert.Equal(t, int64(1000000), second.Opening)
	assert.Equal(t, int64(1030000), second.Closing)
	assert.Equal(t, int64(1030000), final["A"])

	require.Len(t, second.Summaries, 2)
	assert.Equal(t, OpeningAvailableCode, second.Summaries[0].Code)
	assert.Equal(t, int64(1000000), summaryAmount(t, second, OpeningAvailableCode))
	assert.Equal(t, int64(1030000), summaryAmount(t, second, ClosingLedgerCode))
}

func TestEnforceContinuity_Chain(t *testing.T) {
	var groups []*Group
	groups = append(groups, &Group{Accounts: []*Account{{Number: "A", Opening: 100, Closing: 150}}})
	for i := 0; i < 4; i++ {
		groups = append(groups, &Group{Accounts: []*Account{{
			Number:  "A",
			Opening: -999999,
			Closing: 42,
			Details: []Detail{{TypeCode: "399", Amount: 10}, {TypeCode: "475", Amount: -3}},
		}}})
	}

	final := EnforceContinuity(groups)

	for i := 1; i < len(groups); i++ {
		prev := groups[i-1].Accounts[0]
		cur := groups[i].Accounts[0]
		assert.Equal(t, prev.Closing, cur.Opening, "group %d", i)
		assert.Equal(t, cur.Opening+7, cur.Closing, "group %d", i)
	}
	assert.Equal(t, int64(150+4*7), final["A"])
}

func TestEnforceContinuity_RewritesExistingSummaries(t *testing.T) {
	first := &Account{Number: "A", Opening: 0, Closing: 500}
	second := &Account{
		Number: "A",
		Summaries: []SummaryRecord{
			{Code: ClosingLedgerCode, Amount: amountPtr(1)},
			{Code: OpeningAvailableCode, Amount: amountPtr(2)},
			{Code: ClosingAvailableCode, Amount: amountPtr(3)},
			{Code: "072", Amount: amountPtr(4)},
		},
		Details: []Detail{{TypeCode: "699", Amount: -200}},
	}

	EnforceContinuity([]*Group{
		{Accounts: []*Account{first}},
		{Accounts: []*Account{second}},
	})

	require.Len(t, second.Summaries, 4)
	assert.Equal(t, int64(300), summaryAmount(t, second, ClosingLedgerCode))
	assert.Equal(t, int64(500), summaryAmount(t, second, OpeningAvailableCode))
	assert.Equal(t, int64(300), summaryAmount(t, second, ClosingAvailableCode))
	assert.Equal(t, int64(4), summaryAmount(t, second, "072"))
}

func TestEnforceContinuity_IndependentAccounts(t *testing.T) {
	a1 := &Account{Number: "A", Opening: 10, Closing: 20}
	b1 := &Account{Number: "B", Opening: 1000, Closing: 900}
	a2 := &Account{Number: "A", Details: []Detail{{TypeCode: "399", Amount: 5}}}
	b2 := &Account{Number: "B", Details: []Detail{{TypeCode: "699", Amount: -50}}}

	final := EnforceContinuity([]*Group{
		{Accounts: []*Account{a1, b1}},
		{Accounts: []*Account{a2, b2}},
	})

	assert.Equal(t, int64(20), a2.Opening)
	assert.Equal(t, int64(25), a2.Closing)
	assert.Equal(t, int64(900), b2.Opening)
	assert.Equal(t, int64(850), b2.Closing)
	assert.Equal(t, map[string]int64{"A": 25, "B": 850}, final)
}

func TestEnforceContinuity_SingleGroupKeepsStatedBalances(t *testing.T) {
	a := &Account{
		Number:  "A",
		Opening: 1498035,
		Closing: 1498035,
		Details: []Detail{{TypeCode: "399", Amount: 100}},
	}
	EnforceContinuity([]*Group{{Accounts: []*Account{a}}})

	assert.Equal(t, int64(1498035), a.Closing)
	assert.Equal(t, int64(1498035), summaryAmount(t, a, ClosingLedgerCode))
}
