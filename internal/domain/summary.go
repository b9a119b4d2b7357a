package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotals holds the rollup for one payment category
type CategoryTotals struct {
	TotalDue  decimal.Decimal `json:"totalDue"`
	Collected decimal.Decimal `json:"collected"` // approved amounts only
	Pending   decimal.Decimal `json:"pending"`
	Unpaid    decimal.Decimal `json:"unpaid"` // unpaid + rejected amounts
	Arrears   decimal.Decimal `json:"arrears"`
}

// FinancialSummary is a projection over a set of payment records. It is never
// authored directly; callers recompute it on demand from the current records.
type FinancialSummary struct {
	TotalDue            decimal.Decimal                    `json:"totalDue"`
	TotalPaid           decimal.Decimal                    `json:"totalPaid"` // approved amounts only
	PendingAmount       decimal.Decimal                    `json:"pendingAmount"`
	UnpaidAmount        decimal.Decimal                    `json:"unpaidAmount"`
	TotalArrears        decimal.Decimal                    `json:"totalArrears"`
	Categories          map[PaymentCategory]CategoryTotals `json:"categories"`
	MembersWithPayments int                                `json:"membersWithPayments"`
	TotalMembers        int                                `json:"totalMembers"`
	ParticipationRate   float64                            `json:"participationRate"`
}

func newCategoryTotals() CategoryTotals {
	return CategoryTotals{
		TotalDue:  decimal.Zero,
		Collected: decimal.Zero,
		Pending:   decimal.Zero,
		Unpaid:    decimal.Zero,
		Arrears:   decimal.Zero,
	}
}

// SummarizePayments folds a set of payment records into a FinancialSummary.
//
// Collected totals count approved submissions only; pending amounts sit in
// their own bucket, and everything else (unpaid, rejected) is unpaid money.
// Arrears are computed from due dates alone, independent of approval status:
// an amount never paid by its due date is in arrears whether or not a partial
// payment was approved. A member participates once the sum of their paid
// amounts is strictly positive, regardless of approval state.
//
// The fold never mutates its inputs and performs no I/O; `now` is injected so
// results are reproducible.
func SummarizePayments(records []*PaymentRecord, totalMembers int, now time.Time) *FinancialSummary {
	summary := &FinancialSummary{
		TotalDue:      decimal.Zero,
		TotalPaid:     decimal.Zero,
		PendingAmount: decimal.Zero,
		UnpaidAmount:  decimal.Zero,
		TotalArrears:  decimal.Zero,
		Categories:    make(map[PaymentCategory]CategoryTotals),
		TotalMembers:  totalMembers,
	}

	paidByMember := make(map[int32]decimal.Decimal)

	for _, record := range records {
		totals, ok := summary.Categories[record.Category]
		if !ok {
			totals = newCategoryTotals()
		}

		paid := record.AmountPaid
		if paid.IsNegative() {
			paid = decimal.Zero
		}

		summary.TotalDue = summary.TotalDue.Add(record.TotalAmount)
		totals.TotalDue = totals.TotalDue.Add(record.TotalAmount)

		switch record.ApprovalStatus {
		case StatusApproved:
			summary.TotalPaid = summary.TotalPaid.Add(paid)
			totals.Collected = totals.Collected.Add(paid)
		case StatusPending:
			summary.PendingAmount = summary.PendingAmount.Add(paid)
			totals.Pending = totals.Pending.Add(paid)
		default: // unpaid, rejected
			summary.UnpaidAmount = summary.UnpaidAmount.Add(paid)
			totals.Unpaid = totals.Unpaid.Add(paid)
		}

		arrears := record.ArrearsAt(now)
		summary.TotalArrears = summary.TotalArrears.Add(arrears)
		totals.Arrears = totals.Arrears.Add(arrears)

		summary.Categories[record.Category] = totals

		paidByMember[record.MemberID] = paidByMember[record.MemberID].Add(paid)
	}

	for _, total := range paidByMember {
		if total.GreaterThan(decimal.Zero) {
			summary.MembersWithPayments++
		}
	}

	if totalMembers > 0 {
		summary.ParticipationRate = float64(summary.MembersWithPayments) / float64(totalMembers)
	}

	return summary
}

// MemberArrears is one row of a group arrears report
type MemberArrears struct {
	MemberID       int32           `json:"memberId"`
	Arrears        decimal.Decimal `json:"arrears"`
	OverdueRecords int             `json:"overdueRecords"`
}

// ArrearsByMember rolls overdue amounts up per member, largest debt first.
// Members with no arrears are omitted.
func ArrearsByMember(records []*PaymentRecord, now time.Time) []MemberArrears {
	byMember := make(map[int32]*MemberArrears)
	for _, record := range records {
		arrears := record.ArrearsAt(now)
		if !arrears.IsPositive() {
			continue
		}
		row, ok := byMember[record.MemberID]
		if !ok {
			row = &MemberArrears{MemberID: record.MemberID, Arrears: decimal.Zero}
			byMember[record.MemberID] = row
		}
		row.Arrears = row.Arrears.Add(arrears)
		row.OverdueRecords++
	}

	report := make([]MemberArrears, 0, len(byMember))
	for _, row := range byMember {
		report = append(report, *row)
	}
	sort.Slice(report, func(i, j int) bool {
		if report[i].Arrears.Equal(report[j].Arrears) {
			return report[i].MemberID < report[j].MemberID
		}
		return report[i].Arrears.GreaterThan(report[j].Arrears)
	})
	return report
}

// MemberSummary is the per-member rollup shown on a member's detail view
type MemberSummary struct {
	MemberID     int32             `json:"memberId"`
	Summary      *FinancialSummary `json:"summary"`
	ActiveLoans  int               `json:"activeLoans"`
	LoanProgress map[int32]int     `json:"loanProgress,omitempty"` // loan ID → percent repaid
}
