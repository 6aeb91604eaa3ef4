package core

import "sort"

// CategoryTotal is the monthly-normalized spend for one category.
type CategoryTotal struct {
	Category     Category
	MonthlyCents int64
	Count        int
}

// Average is the per-subscription monthly spend in this category,
// half-up rounded. Count is never zero for an emitted entry.
func (ct CategoryTotal) Average() Money {
	return Money{Cents: divideHalfUp(ct.MonthlyCents, int64(ct.Count))}
}

// Summary is the derived view of a subscription snapshot. All monetary
// fields cover active subscriptions only.
type Summary struct {
	MonthlyTotal  Money
	YearlyTotal   Money
	ActiveCount   int
	InactiveCount int
	// ByCategory holds per-category monthly sums in category declaration
	// order, omitting categories with no active subscriptions.
	ByCategory []CategoryTotal
}

// Summarize folds a subscription snapshot into totals and per-category
// breakdowns. It is total over any well-formed input including the empty
// list, never mutates its input, and allocates only the output.
func Summarize(subs []Subscription) Summary {
	var s Summary
	monthly := make(map[Category]int64)
	counts := make(map[Category]int)

	for _, sub := range subs {
		if !sub.Active {
			s.InactiveCount++
			continue
		}
		s.ActiveCount++
		s.MonthlyTotal.Cents += sub.MonthlyCents()
		s.YearlyTotal.Cents += sub.YearlyCents()
		monthly[sub.Category] += sub.MonthlyCents()
		counts[sub.Category]++
	}

	for _, c := range Categories {
		if counts[c] == 0 {
			continue
		}
		s.ByCategory = append(s.ByCategory, CategoryTotal{
			Category:     c,
			MonthlyCents: monthly[c],
			Count:        counts[c],
		})
	}
	return s
}

// TopCategories returns up to n categories ranked by monthly spend,
// highest first. Equal totals keep category declaration order.
func (s Summary) TopCategories(n int) []CategoryTotal {
	ranked := make([]CategoryTotal, len(s.ByCategory))
	copy(ranked, s.ByCategory)
	// ByCategory is already in declaration order; a stable sort preserves
	// it as the tie-break.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MonthlyCents > ranked[j].MonthlyCents
	})
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
