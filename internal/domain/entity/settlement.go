package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payer says who paid for a line item
type Payer string

const (
	PayerEmployee Payer = "EMPLOYEE"
	PayerEmployer Payer = "EMPLOYER"
)

// IsValid reports whether p is a known payer
func (p Payer) IsValid() bool {
	return p == PayerEmployee || p == PayerEmployer
}

// ItemKind classifies a settlement line item
type ItemKind string

const (
	ItemKindHotel     ItemKind = "hotel"
	ItemKindTransport ItemKind = "transport"
	ItemKindPerDiem   ItemKind = "per_diem"
	ItemKindOther     ItemKind = "other"
)

// LineItem is one entry in a settlement ledger
type LineItem struct {
	ID              string          `json:"id"`
	Kind            ItemKind        `json:"kind"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Payer           Payer           `json:"payer"`
	SystemGenerated bool            `json:"system_generated"`
	ReadOnly        bool            `json:"read_only"`
	ReceiptRef      string          `json:"receipt_ref,omitempty"`
}

// Deletable reports whether the item may be removed from the ledger
func (i LineItem) Deletable() bool {
	return !i.SystemGenerated
}

// OwedToEmployee reports whether the amount is reimbursed to the employee.
// Per-diem is an allowance and always counts.
func (i LineItem) OwedToEmployee() bool {
	return i.Kind == ItemKindPerDiem || i.Payer == PayerEmployee
}

// Settlement is the submitted actual-cost ledger of a trip
type Settlement struct {
	TripID      string     `json:"trip_id"`
	Items       []LineItem `json:"items"`
	Currency    string     `json:"currency"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

// SettlementTotals are derived from ledger items and never stored
type SettlementTotals struct {
	TotalAmount          decimal.Decimal `json:"total_amount"`
	AmountOwedToEmployee decimal.Decimal `json:"amount_owed_to_employee"`
	Currency             string          `json:"currency"`
}

// ComputeTotals sums items into a SettlementTotals
func ComputeTotals(items []LineItem, currency string) SettlementTotals {
	total := decimal.Zero
	owed := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
		if item.OwedToEmployee() {
			owed = owed.Add(item.Amount)
		}
	}
	return SettlementTotals{
		TotalAmount:          total,
		AmountOwedToEmployee: owed,
		Currency:             currency,
	}
}

// Totals recomputes the settlement totals from its items
func (s *Settlement) Totals() SettlementTotals {
	return ComputeTotals(s.Items, s.Currency)
}

// Clone returns a deep copy of the settlement
func (s *Settlement) Clone() *Settlement {
	cp := *s
	cp.Items = append([]LineItem(nil), s.Items...)
	if s.ApprovedAt != nil {
		at := *s.ApprovedAt
		cp.ApprovedAt = &at
	}
	return &cp
}
