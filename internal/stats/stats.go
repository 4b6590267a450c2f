// Package stats computes derived statistics from a transaction collection.
// Everything here is a pure function of the records passed in: stats are
// recomputed on demand and never stored separately from their source.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/finlens/ledgerscan/internal/category"
	"github.com/finlens/ledgerscan/internal/model"
)

// DefaultPeriodDays is assumed when no usable dates exist in the collection.
const DefaultPeriodDays = 30

const dateLayout = "2006-01-02"

// CategoryTotal is the summed debit for one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// CostBucket is one side of the fixed/variable split.
type CostBucket struct {
	Total float64                   `json:"total"`
	Items []model.TransactionRecord `json:"items"`
}

// CostBreakdown splits total debit into fixed and variable spend. Only
// records with a positive debit participate.
type CostBreakdown struct {
	Fixed           CostBucket `json:"fixed"`
	Variable        CostBucket `json:"variable"`
	TotalExpenses   float64    `json:"totalExpenses"`
	FixedPercent    float64    `json:"fixedPercent"`
	VariablePercent float64    `json:"variablePercent"`
}

// Stats is the full derived view over a collection.
type Stats struct {
	TotalDebit       float64                 `json:"totalDebit"`
	TotalCredit      float64                 `json:"totalCredit"`
	NetFlow          float64                 `json:"netFlow"`
	TransactionCount int                     `json:"transactionCount"`
	StartDate        string                  `json:"startDate,omitempty"`
	EndDate          string                  `json:"endDate,omitempty"`
	PeriodDays       int                     `json:"periodDays"`
	DailyBurnRate    float64                 `json:"dailyBurnRate"`
	TopCategory      CategoryTotal           `json:"topCategory"`
	CategoryTotals   []CategoryTotal         `json:"categoryTotals"`
	CostBreakdown    CostBreakdown           `json:"costBreakdown"`
	LargestExpense   model.TransactionRecord `json:"largestExpense"`
	Positive         bool                    `json:"isPositive"`
}

// Compute derives the full statistics for a collection. Deterministic: the
// same input always yields the same output, and NetFlow is exactly
// TotalCredit - TotalDebit.
func Compute(records []model.TransactionRecord) Stats {
	var totalDebit, totalCredit float64
	for _, r := range records {
		totalDebit += r.DebitAmount()
		totalCredit += r.CreditAmount()
	}

	start, end, periodDays := periodSpan(records)
	categoryTotals := CategoryTotals(records)

	top := CategoryTotal{Category: "None"}
	if len(categoryTotals) > 0 {
		top = categoryTotals[0]
	}

	// Zero-debit sentinel so an empty collection yields a defined "none"
	// result instead of failing.
	largest := model.TransactionRecord{Description: "None"}
	for _, r := range records {
		if r.DebitAmount() > largest.DebitAmount() {
			largest = r
		}
	}

	netFlow := totalCredit - totalDebit

	return Stats{
		TotalDebit:       totalDebit,
		TotalCredit:      totalCredit,
		NetFlow:          netFlow,
		TransactionCount: len(records),
		StartDate:        start,
		EndDate:          end,
		PeriodDays:       periodDays,
		DailyBurnRate:    BurnRate(records, periodDays),
		TopCategory:      top,
		CategoryTotals:   categoryTotals,
		CostBreakdown:    FixedVsVariable(records),
		LargestExpense:   largest,
		Positive:         netFlow >= 0,
	}
}

// BurnRate is the spending velocity: total debit divided by the period.
func BurnRate(records []model.TransactionRecord, periodDays int) float64 {
	if periodDays <= 0 {
		return 0
	}
	var totalDebit float64
	for _, r := range records {
		totalDebit += r.DebitAmount()
	}
	return totalDebit / float64(periodDays)
}

// CategoryTotals sums debit amounts per category, descending by amount.
// Credits are not categorized into spending categories. Ties keep
// first-encountered order.
func CategoryTotals(records []model.TransactionRecord) []CategoryTotal {
	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)

	for _, r := range records {
		name := r.Category
		if name == "" {
			name = category.Other
		}
		i, ok := index[name]
		if !ok {
			i = len(totals)
			index[name] = i
			totals = append(totals, CategoryTotal{Category: name})
		}
		totals[i].Amount += r.DebitAmount()
	}

	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].Amount > totals[b].Amount
	})
	return totals
}

// FixedVsVariable partitions positive-debit records into fixed and variable
// buckets. A record with no debit contributes to neither.
func FixedVsVariable(records []model.TransactionRecord) CostBreakdown {
	var bd CostBreakdown
	for _, r := range records {
		if r.DebitAmount() <= 0 {
			continue
		}
		if r.CostType == category.CostFixed {
			bd.Fixed.Total += r.DebitAmount()
			bd.Fixed.Items = append(bd.Fixed.Items, r)
		} else {
			bd.Variable.Total += r.DebitAmount()
			bd.Variable.Items = append(bd.Variable.Items, r)
		}
	}

	bd.TotalExpenses = bd.Fixed.Total + bd.Variable.Total
	if bd.TotalExpenses > 0 {
		bd.FixedPercent = bd.Fixed.Total / bd.TotalExpenses * 100
		bd.VariablePercent = bd.Variable.Total / bd.TotalExpenses * 100
	}
	return bd
}

// periodSpan derives the statement period from record dates. Dates are
// sorted lexicographically, which equals chronological order for the
// enforced YYYY-MM-DD shape; unparseable dates are unusable and when none
// remain the span defaults to DefaultPeriodDays.
func periodSpan(records []model.TransactionRecord) (start, end string, days int) {
	dates := make([]string, 0, len(records))
	for _, r := range records {
		if r.Date == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			continue
		}
		dates = append(dates, r.Date)
	}

	if len(dates) == 0 {
		return "", "", DefaultPeriodDays
	}

	sort.Strings(dates)
	start, end = dates[0], dates[len(dates)-1]

	first, _ := time.Parse(dateLayout, start)
	last, _ := time.Parse(dateLayout, end)

	days = int(math.Ceil(last.Sub(first).Hours()/24)) + 1
	if days < 1 {
		days = 1
	}
	return start, end, days
}

// SummaryText renders the one-paragraph executive summary shown above the
// ledger and embedded in exports.
func SummaryText(st Stats, bankName, period *string) string {
	var b strings.Builder

	periodText := fmt.Sprintf("%s to %s", orNA(st.StartDate), orNA(st.EndDate))
	if period != nil {
		periodText = *period
	}
	fmt.Fprintf(&b, "Statement Period: %s. ", periodText)

	if st.Positive {
		fmt.Fprintf(&b, "You are Cash Flow Positive by %.2f. ", math.Abs(st.NetFlow))
	} else {
		fmt.Fprintf(&b, "You are Cash Flow Negative by %.2f. ", math.Abs(st.NetFlow))
	}

	fmt.Fprintf(&b, "Your largest spending category is %q at %.2f.", st.TopCategory.Category, st.TopCategory.Amount)

	if st.LargestExpense.DebitAmount() > 0 {
		fmt.Fprintf(&b, " Largest single expense: %q (%.2f).", st.LargestExpense.Description, st.LargestExpense.DebitAmount())
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
