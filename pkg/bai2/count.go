package bai2

// Trailer record counts are derived from the tree, never accumulated while
// rendering. Every count includes the header and trailer of its own level.

// RecordCount returns the value of the account's 49 record count: the 03
// record, its summaries and details, and the 49 record itself.
func (a *Account) RecordCount() int {
	return 1 + len(a.Summaries) + len(a.Details) + 1
}

// RecordCount returns the value of the group's 98 record count.
func (g *Group) RecordCount() int {
	n := 1
	for _, a := range g.Accounts {
		n += a.RecordCount()
	}
	return n + 1
}

// RecordCount returns the value of the 99 record count: the 01 record, every
// group's records and the 99 record itself, so it equals the number of lines
// in the file.
func (f *File) RecordCount() int {
	n := 1
	for _, g := range f.Groups {
		n += g.RecordCount()
	}
	return n + 1
}

// AccountCount returns the number of accounts across all groups.
func (f *File) AccountCount() int {
	n := 0
	for _, g := range f.Groups {
		n += len(g.Accounts)
	}
	return n
}
