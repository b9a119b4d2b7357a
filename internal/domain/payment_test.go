package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var (
	testNow       = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	testYesterday = testNow.AddDate(0, 0, -1)
	testTomorrow  = testNow.AddDate(0, 0, 1)
)

func record(total, paid string, dueDate *time.Time, status ApprovalStatus) *PaymentRecord {
	return &PaymentRecord{
		GroupID:        1,
		MemberID:       1,
		Category:       CategoryMonthlyContribution,
		TotalAmount:    dec(total),
		AmountPaid:     dec(paid),
		DueDate:        dueDate,
		ApprovalStatus: status,
	}
}

func TestArrearsAt_BeforeDueDate(t *testing.T) {
	p := record("5000", "0", &testTomorrow, StatusUnpaid)

	if !p.ArrearsAt(testNow).IsZero() {
		t.Errorf("expected 0 arrears before due date, got %s", p.ArrearsAt(testNow))
	}
	if !p.Outstanding().Equal(dec("5000")) {
		t.Errorf("expected outstanding 5000, got %s", p.Outstanding())
	}
}

func TestArrearsAt_AfterDueDate(t *testing.T) {
	p := record("5000", "2000", &testYesterday, StatusPending)

	if !p.ArrearsAt(testNow).Equal(dec("3000")) {
		t.Errorf("expected 3000 arrears after due date, got %s", p.ArrearsAt(testNow))
	}
}

func TestArrearsAt_FullyPaid(t *testing.T) {
	p := record("5000", "5000", &testYesterday, StatusApproved)

	if !p.ArrearsAt(testNow).IsZero() {
		t.Errorf("fully paid record should have no arrears, got %s", p.ArrearsAt(testNow))
	}
}

func TestArrearsAt_NoDueDate(t *testing.T) {
	// No due date assigned yet: conservatively not in arrears
	p := record("5000", "0", nil, StatusUnpaid)

	if !p.ArrearsAt(testNow).IsZero() {
		t.Errorf("record without due date should have no arrears, got %s", p.ArrearsAt(testNow))
	}
}

func TestArrearsAt_ExactlyOnDueDate(t *testing.T) {
	// Arrears start strictly after the due date, not at it
	p := record("5000", "0", &testNow, StatusUnpaid)

	if !p.ArrearsAt(testNow).IsZero() {
		t.Errorf("due date not yet strictly past, expected 0 arrears, got %s", p.ArrearsAt(testNow))
	}
	if !p.ArrearsAt(testNow.Add(time.Second)).Equal(dec("5000")) {
		t.Errorf("one second past due, expected 5000 arrears")
	}
}

func TestOutstanding_ClampsOverpayment(t *testing.T) {
	p := record("5000", "6000", &testYesterday, StatusApproved)

	if !p.Outstanding().IsZero() {
		t.Errorf("overpaid record should have 0 outstanding, got %s", p.Outstanding())
	}
	if !p.ArrearsAt(testNow).IsZero() {
		t.Errorf("overpaid record should have 0 arrears, got %s", p.ArrearsAt(testNow))
	}
}

func TestState_Classification(t *testing.T) {
	cases := []struct {
		paid string
		want PaymentState
	}{
		{"0", PaymentStateUnpaid},
		{"-10", PaymentStateUnpaid},
		{"2500", PaymentStatePartial},
		{"5000", PaymentStatePaid},
		{"6000", PaymentStatePaid},
	}

	for _, tc := range cases {
		p := record("5000", tc.paid, nil, StatusUnpaid)
		if got := p.State(); got != tc.want {
			t.Errorf("paid %s: expected %s, got %s", tc.paid, tc.want, got)
		}
	}
}

func TestSubmitProof_MovesToPending(t *testing.T) {
	p := record("5000", "0", &testTomorrow, StatusUnpaid)

	if err := p.SubmitProof(dec("5000"), "1/payments/42/proof.jpg", testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ApprovalStatus != StatusPending {
		t.Errorf("expected pending, got %s", p.ApprovalStatus)
	}
	if p.ProofPath == nil || *p.ProofPath != "1/payments/42/proof.jpg" {
		t.Errorf("proof path not recorded")
	}
}

func TestSubmitProof_RejectedCanResubmit(t *testing.T) {
	p := record("5000", "5000", &testTomorrow, StatusRejected)

	if err := p.SubmitProof(dec("5000"), "1/payments/42/proof2.jpg", testNow); err != nil {
		t.Fatalf("resubmission after rejection should succeed: %v", err)
	}
	if p.ApprovalStatus != StatusPending {
		t.Errorf("expected pending after resubmission, got %s", p.ApprovalStatus)
	}
	if p.DecidedBy != nil || p.DecidedAt != nil {
		t.Errorf("previous decision should be cleared on resubmission")
	}
}

func TestSubmitProof_Validation(t *testing.T) {
	p := record("5000", "0", nil, StatusUnpaid)

	if err := p.SubmitProof(decimal.Zero, "proof.jpg", testNow); err != ErrPaymentAmountInvalid {
		t.Errorf("zero amount: expected ErrPaymentAmountInvalid, got %v", err)
	}
	if err := p.SubmitProof(dec("100"), "", testNow); err != ErrPaymentProofRequired {
		t.Errorf("missing proof: expected ErrPaymentProofRequired, got %v", err)
	}

	settled := record("5000", "5000", nil, StatusApproved)
	if err := settled.SubmitProof(dec("100"), "proof.jpg", testNow); err != ErrPaymentAlreadyApproved {
		t.Errorf("settled record: expected ErrPaymentAlreadyApproved, got %v", err)
	}
}

func TestApproveReject_OnlyFromPending(t *testing.T) {
	p := record("5000", "5000", nil, StatusPending)
	if err := p.Approve(7, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ApprovalStatus != StatusApproved {
		t.Errorf("expected approved, got %s", p.ApprovalStatus)
	}
	if p.DecidedBy == nil || *p.DecidedBy != 7 {
		t.Errorf("deciding admin not recorded")
	}

	// Terminal for this submission: cannot re-decide
	if err := p.Approve(7, testNow); err != ErrPaymentNotPending {
		t.Errorf("expected ErrPaymentNotPending on double approve, got %v", err)
	}
	if err := p.Reject(7, testNow); err != ErrPaymentNotPending {
		t.Errorf("expected ErrPaymentNotPending rejecting approved record, got %v", err)
	}

	q := record("5000", "5000", nil, StatusUnpaid)
	if err := q.Reject(7, testNow); err != ErrPaymentNotPending {
		t.Errorf("expected ErrPaymentNotPending rejecting unsubmitted record, got %v", err)
	}
}
