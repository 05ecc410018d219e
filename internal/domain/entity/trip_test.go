package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{Kind: ItemKindHotel, Amount: decimal.NewFromInt(600), Payer: PayerEmployer, SystemGenerated: true},
		{Kind: ItemKindTransport, Amount: decimal.NewFromInt(600), Payer: PayerEmployee, SystemGenerated: true},
		{Kind: ItemKindPerDiem, Amount: decimal.NewFromInt(600), Payer: PayerEmployer, SystemGenerated: true, ReadOnly: true},
		{Kind: ItemKindOther, Amount: decimal.RequireFromString("45.50"), Payer: PayerEmployee},
		{Kind: ItemKindOther, Amount: decimal.RequireFromString("12.25"), Payer: PayerEmployer},
	}

	totals := ComputeTotals(items, "PLN")

	assert.True(t, totals.TotalAmount.Equal(decimal.RequireFromString("1857.75")), totals.TotalAmount.String())
	assert.True(t, totals.AmountOwedToEmployee.Equal(decimal.RequireFromString("1245.50")), totals.AmountOwedToEmployee.String())
	assert.Equal(t, "PLN", totals.Currency)
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil, "PLN")
	assert.True(t, totals.TotalAmount.IsZero())
	assert.True(t, totals.AmountOwedToEmployee.IsZero())
}

func TestLineItem_Flags(t *testing.T) {
	perDiem := LineItem{Kind: ItemKindPerDiem, Payer: PayerEmployer, SystemGenerated: true}
	free := LineItem{Kind: ItemKindOther, Payer: PayerEmployer}

	assert.True(t, perDiem.OwedToEmployee())
	assert.False(t, perDiem.Deletable())
	assert.False(t, free.OwedToEmployee())
	assert.True(t, free.Deletable())
}

func TestPayer_IsValid(t *testing.T) {
	assert.True(t, PayerEmployee.IsValid())
	assert.True(t, PayerEmployer.IsValid())
	assert.False(t, Payer("COMPANY").IsValid())
}

func TestTrip_CloneIsDeep(t *testing.T) {
	approved := time.Now()
	trip := &Trip{
		ID:        "trip-1",
		Hotel:     &HotelSelection{HotelID: "h1", NightlyPrice: decimal.NewFromInt(300)},
		Transport: &TransportSelection{RouteID: "r1", OneWayPrice: decimal.NewFromInt(300)},
		Settlement: &Settlement{
			Items:      []LineItem{{ID: "i1", Amount: decimal.NewFromInt(10)}},
			ApprovedAt: &approved,
		},
	}

	cp := trip.Clone()
	cp.Hotel.NightlyPrice = decimal.NewFromInt(1)
	cp.Transport.RouteID = "r2"
	cp.Settlement.Items[0].Amount = decimal.NewFromInt(99)

	assert.True(t, trip.Hotel.NightlyPrice.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "r1", trip.Transport.RouteID)
	assert.True(t, trip.Settlement.Items[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.NotSame(t, trip.Settlement.ApprovedAt, cp.Settlement.ApprovedAt)
}

func TestTrip_Helpers(t *testing.T) {
	trip := &Trip{RequesterID: "emp-1"}
	assert.False(t, trip.HasHotel())
	assert.False(t, trip.HasTransport())
	assert.True(t, trip.IsOwnedBy("emp-1"))
	assert.False(t, trip.IsOwnedBy("emp-2"))
}
