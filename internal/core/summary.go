package core

// RecentLimit is how many transactions the dashboard shows.
const RecentLimit = 5

// Summary is the dashboard aggregate for one user at a single point in time.
// Balance is income minus expense and may be negative.
type Summary struct {
	IncomeTotal  Money
	ExpenseTotal Money
	Balance      Money
	Recent       []Transaction
}
