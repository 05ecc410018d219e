// Package settlement builds and validates the post-trip expense ledger.
package settlement

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/business-trip/internal/domain/cost"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Descriptions of the seeded items
const (
	DescriptionHotel     = "Hotel"
	DescriptionTransport = "Transport"
	DescriptionPerDiem   = "Per-diem allowance"
)

// ItemInput is a caller edit to the ledger. Kind hotel or transport edits the
// seeded item; per_diem may only repeat the computed amount; other adds a free item.
type ItemInput struct {
	Kind        entity.ItemKind
	Description string
	Amount      decimal.Decimal
	Payer       entity.Payer
	ReceiptRef  string
}

// Ledger is the working copy of a trip's settlement items
type Ledger struct {
	tripID          string
	currency        string
	items           []entity.LineItem
	expectedPerDiem decimal.Decimal
}

// Seed creates a ledger from the trip's frozen plan: hotel and transport
// when booked, and the per-diem allowance
func Seed(trip *entity.Trip) *Ledger {
	est := trip.Estimate
	l := &Ledger{
		tripID:          trip.ID,
		currency:        est.Currency,
		expectedPerDiem: cost.PerDiemCost(est.Days, est.PerDiemRate),
	}

	if trip.HasHotel() {
		l.items = append(l.items, systemItem(entity.ItemKindHotel, DescriptionHotel, est.Hotel, false))
	}
	if trip.HasTransport() {
		l.items = append(l.items, systemItem(entity.ItemKindTransport, DescriptionTransport, est.Transport, false))
	}
	l.items = append(l.items, systemItem(entity.ItemKindPerDiem, DescriptionPerDiem, l.expectedPerDiem, true))

	return l
}

// FromSettlement reopens a previously submitted settlement of trip
func FromSettlement(trip *entity.Trip) *Ledger {
	if trip.Settlement == nil {
		return Seed(trip)
	}
	est := trip.Estimate
	return &Ledger{
		tripID:          trip.ID,
		currency:        trip.Settlement.Currency,
		items:           append([]entity.LineItem(nil), trip.Settlement.Items...),
		expectedPerDiem: cost.PerDiemCost(est.Days, est.PerDiemRate),
	}
}

func systemItem(kind entity.ItemKind, description string, amount decimal.Decimal, readOnly bool) entity.LineItem {
	return entity.LineItem{
		ID:              uuid.NewString(),
		Kind:            kind,
		Description:     description,
		Amount:          amount,
		Payer:           entity.PayerEmployer,
		SystemGenerated: true,
		ReadOnly:        readOnly,
	}
}

// Items returns a copy of the items in insertion order
func (l *Ledger) Items() []entity.LineItem {
	return append([]entity.LineItem(nil), l.items...)
}

// Item returns the item with id
func (l *Ledger) Item(id string) (entity.LineItem, error) {
	idx, err := l.indexOf(id)
	if err != nil {
		return entity.LineItem{}, err
	}
	return l.items[idx], nil
}

// UpdateItemAmount sets the actual amount of an editable item
func (l *Ledger) UpdateItemAmount(id string, amount decimal.Decimal) error {
	idx, err := l.indexOf(id)
	if err != nil {
		return err
	}
	if l.items[idx].ReadOnly {
		return fmt.Errorf("%w: item %s is read-only", entity.ErrValidation, id)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", entity.ErrValidation)
	}
	l.items[idx].Amount = amount
	return nil
}

// UpdateItemPayer changes who paid an item. The per-diem payer is fixed.
func (l *Ledger) UpdateItemPayer(id string, payer entity.Payer) error {
	idx, err := l.indexOf(id)
	if err != nil {
		return err
	}
	if l.items[idx].Kind == entity.ItemKindPerDiem {
		return fmt.Errorf("%w: per-diem payer cannot be changed", entity.ErrValidation)
	}
	if !payer.IsValid() {
		return fmt.Errorf("%w: unknown payer %q", entity.ErrValidation, payer)
	}
	l.items[idx].Payer = payer
	return nil
}

// AddItem appends a free-form expense
func (l *Ledger) AddItem(description string, amount decimal.Decimal, payer entity.Payer, receiptRef string) (entity.LineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return entity.LineItem{}, fmt.Errorf("%w: description is required", entity.ErrValidation)
	}
	if amount.IsNegative() {
		return entity.LineItem{}, fmt.Errorf("%w: amount must not be negative", entity.ErrValidation)
	}
	if !payer.IsValid() {
		return entity.LineItem{}, fmt.Errorf("%w: unknown payer %q", entity.ErrValidation, payer)
	}

	item := entity.LineItem{
		ID:          uuid.NewString(),
		Kind:        entity.ItemKindOther,
		Description: description,
		Amount:      amount,
		Payer:       payer,
		ReceiptRef:  strings.TrimSpace(receiptRef),
	}
	l.items = append(l.items, item)
	return item, nil
}

// RemoveItem deletes a free-form item
func (l *Ledger) RemoveItem(id string) error {
	idx, err := l.indexOf(id)
	if err != nil {
		return err
	}
	if !l.items[idx].Deletable() {
		return fmt.Errorf("%w: system item %s cannot be removed", entity.ErrInvalidOperation, id)
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return nil
}

// Apply folds caller inputs into the ledger in order
func (l *Ledger) Apply(inputs []ItemInput) error {
	for i, in := range inputs {
		if err := l.apply(in); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (l *Ledger) apply(in ItemInput) error {
	switch in.Kind {
	case entity.ItemKindHotel, entity.ItemKindTransport:
		item, ok := l.systemItemOf(in.Kind)
		if !ok {
			return fmt.Errorf("%w: trip has no %s booking", entity.ErrValidation, in.Kind)
		}
		if err := l.UpdateItemAmount(item.ID, in.Amount); err != nil {
			return err
		}
		if in.Payer != "" {
			return l.UpdateItemPayer(item.ID, in.Payer)
		}
		return nil
	case entity.ItemKindPerDiem:
		if !in.Amount.Equal(l.expectedPerDiem) {
			return fmt.Errorf("%w: per-diem amount is computed and cannot be edited", entity.ErrValidation)
		}
		return nil
	case entity.ItemKindOther, "":
		_, err := l.AddItem(in.Description, in.Amount, in.Payer, in.ReceiptRef)
		return err
	default:
		return fmt.Errorf("%w: unknown item kind %q", entity.ErrValidation, in.Kind)
	}
}

// Totals recomputes the ledger totals
func (l *Ledger) Totals() entity.SettlementTotals {
	return entity.ComputeTotals(l.items, l.currency)
}

// Validate checks every item and the per-diem amount
func (l *Ledger) Validate() error {
	perDiemSeen := false
	for _, item := range l.items {
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("%w: item %s has no description", entity.ErrValidation, item.ID)
		}
		if item.Amount.IsNegative() {
			return fmt.Errorf("%w: item %s has a negative amount", entity.ErrValidation, item.ID)
		}
		if !item.Payer.IsValid() {
			return fmt.Errorf("%w: item %s has unknown payer %q", entity.ErrValidation, item.ID, item.Payer)
		}
		if item.Kind == entity.ItemKindPerDiem {
			if perDiemSeen {
				return fmt.Errorf("%w: duplicate per-diem item", entity.ErrValidation)
			}
			perDiemSeen = true
			if !item.Amount.Equal(l.expectedPerDiem) {
				return fmt.Errorf("%w: per-diem amount %s does not match %s",
					entity.ErrValidation, item.Amount, l.expectedPerDiem)
			}
		}
	}
	if !perDiemSeen {
		return fmt.Errorf("%w: per-diem item is missing", entity.ErrValidation)
	}
	return nil
}

// Submit validates the ledger and snapshots it into trip.Settlement,
// replacing any earlier submission
func (l *Ledger) Submit(trip *entity.Trip, now time.Time) error {
	if trip.ID != l.tripID {
		return fmt.Errorf("%w: ledger belongs to trip %s", entity.ErrInvalidOperation, l.tripID)
	}
	if err := l.Validate(); err != nil {
		return err
	}
	trip.Settlement = &entity.Settlement{
		TripID:      l.tripID,
		Items:       l.Items(),
		Currency:    l.currency,
		SubmittedAt: now,
	}
	return nil
}

// FreeItems returns the caller-added items
func (l *Ledger) FreeItems() []entity.LineItem {
	var out []entity.LineItem
	for _, item := range l.items {
		if !item.SystemGenerated {
			out = append(out, item)
		}
	}
	return out
}

func (l *Ledger) systemItemOf(kind entity.ItemKind) (entity.LineItem, bool) {
	for _, item := range l.items {
		if item.SystemGenerated && item.Kind == kind {
			return item, true
		}
	}
	return entity.LineItem{}, false
}

func (l *Ledger) indexOf(id string) (int, error) {
	for i, item := range l.items {
		if item.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: settlement item %s", entity.ErrNotFound, id)
}
