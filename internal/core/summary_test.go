package core

import "testing"

func sub(name string, cents int64, cycle BillingCycle, cat Category, active bool) Subscription {
	return Subscription{
		ID:          name,
		Name:        name,
		Price:       Money{Cents: cents},
		Cycle:       cycle,
		Category:    cat,
		NextBilling: NewDate(2025, 6, 15),
		Active:      active,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.MonthlyTotal.Cents != 0 || s.YearlyTotal.Cents != 0 {
		t.Fatalf("empty snapshot: totals = %d/%d, want 0/0",
			s.MonthlyTotal.Cents, s.YearlyTotal.Cents)
	}
	if len(s.ByCategory) != 0 {
		t.Fatalf("empty snapshot: ByCategory has %d entries", len(s.ByCategory))
	}
	if s.ActiveCount != 0 || s.InactiveCount != 0 {
		t.Fatalf("empty snapshot: counts = %d/%d", s.ActiveCount, s.InactiveCount)
	}
}

func TestSummarizeTotals(t *testing.T) {
	subs := []Subscription{
		sub("Netflix", 4590, Monthly, CategoryStreaming, true),
		sub("Adobe", 8990, Yearly, CategorySoftware, true),
		sub("Old gym", 10000, Monthly, CategoryFitness, false),
	}
	s := Summarize(subs)

	// 4590 + round(8990/12) = 4590 + 749
	if want := int64(5339); s.MonthlyTotal.Cents != want {
		t.Errorf("MonthlyTotal = %d, want %d", s.MonthlyTotal.Cents, want)
	}
	// 4590*12 + 8990
	if want := int64(64070); s.YearlyTotal.Cents != want {
		t.Errorf("YearlyTotal = %d, want %d", s.YearlyTotal.Cents, want)
	}
	if s.ActiveCount != 2 || s.InactiveCount != 1 {
		t.Errorf("counts = %d active / %d inactive, want 2/1", s.ActiveCount, s.InactiveCount)
	}
}

func TestSummarizeByCategory(t *testing.T) {
	subs := []Subscription{
		sub("Netflix", 4590, Monthly, CategoryStreaming, true),
		sub("Spotify", 2190, Monthly, CategoryStreaming, true),
		sub("Adobe", 8990, Monthly, CategorySoftware, true),
		sub("Inactive SaaS", 2490, Monthly, CategorySaaS, false),
	}
	s := Summarize(subs)

	if len(s.ByCategory) != 2 {
		t.Fatalf("ByCategory has %d entries, want 2 (zero and inactive-only categories omitted)", len(s.ByCategory))
	}
	streaming, software := s.ByCategory[0], s.ByCategory[1]
	if streaming.Category != CategoryStreaming || streaming.MonthlyCents != 6780 || streaming.Count != 2 {
		t.Errorf("streaming entry = %+v", streaming)
	}
	if software.Category != CategorySoftware || software.MonthlyCents != 8990 || software.Count != 1 {
		t.Errorf("software entry = %+v", software)
	}
	if got := streaming.Average().Cents; got != 3390 {
		t.Errorf("streaming Average() = %d, want 3390", got)
	}
}

// Category sums partition the monthly total exactly: both are built from
// the same per-subscription monthly equivalents.
func TestSummarizePartition(t *testing.T) {
	subs := []Subscription{
		sub("a", 999, Yearly, CategoryStreaming, true),
		sub("b", 1234, Monthly, CategoryGaming, true),
		sub("c", 8990, Yearly, CategoryGaming, true),
		sub("d", 100, Monthly, CategoryOther, true),
		sub("e", 5000, Monthly, CategoryOther, false),
	}
	s := Summarize(subs)

	var byCat int64
	for _, ct := range s.ByCategory {
		if ct.MonthlyCents == 0 {
			t.Errorf("category %s emitted with zero total", ct.Category)
		}
		byCat += ct.MonthlyCents
	}
	if byCat != s.MonthlyTotal.Cents {
		t.Errorf("sum of category totals = %d, monthly total = %d", byCat, s.MonthlyTotal.Cents)
	}
}

func TestTopCategories(t *testing.T) {
	subs := []Subscription{
		sub("a", 1000, Monthly, CategoryGaming, true),
		sub("b", 3000, Monthly, CategorySoftware, true),
		sub("c", 1000, Monthly, CategoryStreaming, true),
		sub("d", 500, Monthly, CategoryOther, true),
	}
	s := Summarize(subs)

	top := s.TopCategories(3)
	if len(top) != 3 {
		t.Fatalf("TopCategories(3) returned %d entries", len(top))
	}
	// software first, then the 1000-cent tie resolved by declaration
	// order: streaming before gaming.
	want := []Category{CategorySoftware, CategoryStreaming, CategoryGaming}
	for i, c := range want {
		if top[i].Category != c {
			t.Errorf("top[%d] = %s, want %s", i, top[i].Category, c)
		}
	}
}
