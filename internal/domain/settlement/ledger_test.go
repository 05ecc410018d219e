package settlement

import (
	"testing"
	"time"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrip(withHotel, withTransport bool) *entity.Trip {
	trip := &entity.Trip{
		ID:          "trip-1",
		RequesterID: "emp-1",
		Status:      workflow.StateApproved,
		Estimate: entity.CostEstimate{
			PerDiem:     decimal.NewFromInt(600),
			Days:        3,
			PerDiemRate: decimal.NewFromInt(200),
			Currency:    "PLN",
		},
	}
	if withHotel {
		trip.Hotel = &entity.HotelSelection{HotelID: "h1", NightlyPrice: decimal.NewFromInt(300)}
		trip.Estimate.Hotel = decimal.NewFromInt(600)
		trip.Estimate.Nights = 2
	}
	if withTransport {
		trip.Transport = &entity.TransportSelection{RouteID: "r1", OneWayPrice: decimal.NewFromInt(300)}
		trip.Estimate.Transport = decimal.NewFromInt(600)
	}
	trip.Estimate.Total = trip.Estimate.Transport.Add(trip.Estimate.Hotel).Add(trip.Estimate.PerDiem)
	return trip
}

func itemOfKind(t *testing.T, l *Ledger, kind entity.ItemKind) entity.LineItem {
	t.Helper()
	for _, item := range l.Items() {
		if item.Kind == kind {
			return item
		}
	}
	t.Fatalf("no %s item", kind)
	return entity.LineItem{}
}

func TestSeed(t *testing.T) {
	l := Seed(newTrip(true, true))
	items := l.Items()

	require.Len(t, items, 3)
	assert.Equal(t, entity.ItemKindHotel, items[0].Kind)
	assert.Equal(t, entity.ItemKindTransport, items[1].Kind)
	assert.Equal(t, entity.ItemKindPerDiem, items[2].Kind)

	for _, item := range items {
		assert.True(t, item.SystemGenerated)
		assert.Equal(t, entity.PayerEmployer, item.Payer)
		assert.NotEmpty(t, item.ID)
	}
	assert.False(t, items[0].ReadOnly)
	assert.False(t, items[1].ReadOnly)
	assert.True(t, items[2].ReadOnly)
	assert.True(t, items[2].Amount.Equal(decimal.NewFromInt(600)))
}

func TestSeed_WithoutBookings(t *testing.T) {
	items := Seed(newTrip(false, false)).Items()
	require.Len(t, items, 1)
	assert.Equal(t, entity.ItemKindPerDiem, items[0].Kind)
}

func TestSeed_TotalsMatchEstimate(t *testing.T) {
	for _, tc := range []struct{ hotel, transport bool }{
		{true, true}, {true, false}, {false, true}, {false, false},
	} {
		trip := newTrip(tc.hotel, tc.transport)
		totals := Seed(trip).Totals()

		sum := trip.Estimate.Hotel.Add(trip.Estimate.Transport).Add(trip.Estimate.PerDiem)
		assert.True(t, totals.TotalAmount.Equal(sum), "hotel=%v transport=%v", tc.hotel, tc.transport)
	}
}

func TestLedger_UpdateItemAmount(t *testing.T) {
	l := Seed(newTrip(true, true))
	hotel := itemOfKind(t, l, entity.ItemKindHotel)
	perDiem := itemOfKind(t, l, entity.ItemKindPerDiem)

	require.NoError(t, l.UpdateItemAmount(hotel.ID, decimal.RequireFromString("540.50")))
	updated, err := l.Item(hotel.ID)
	require.NoError(t, err)
	assert.Equal(t, "540.5", updated.Amount.String())

	assert.ErrorIs(t, l.UpdateItemAmount(perDiem.ID, decimal.NewFromInt(1)), entity.ErrValidation)
	assert.ErrorIs(t, l.UpdateItemAmount(hotel.ID, decimal.NewFromInt(-1)), entity.ErrValidation)
	assert.ErrorIs(t, l.UpdateItemAmount("missing", decimal.NewFromInt(1)), entity.ErrNotFound)
}

func TestLedger_UpdateItemPayer(t *testing.T) {
	l := Seed(newTrip(true, true))
	transport := itemOfKind(t, l, entity.ItemKindTransport)
	perDiem := itemOfKind(t, l, entity.ItemKindPerDiem)

	require.NoError(t, l.UpdateItemPayer(transport.ID, entity.PayerEmployee))
	assert.ErrorIs(t, l.UpdateItemPayer(perDiem.ID, entity.PayerEmployee), entity.ErrValidation)
	assert.ErrorIs(t, l.UpdateItemPayer(transport.ID, entity.Payer("BANK")), entity.ErrValidation)
	assert.ErrorIs(t, l.UpdateItemPayer("missing", entity.PayerEmployee), entity.ErrNotFound)

	totals := l.Totals()
	assert.True(t, totals.AmountOwedToEmployee.Equal(decimal.NewFromInt(1200)))
}

func TestLedger_AddItem(t *testing.T) {
	l := Seed(newTrip(false, false))

	item, err := l.AddItem("  Taxi  ", decimal.RequireFromString("35.20"), entity.PayerEmployee, "receipt-7")
	require.NoError(t, err)
	assert.Equal(t, "Taxi", item.Description)
	assert.Equal(t, entity.ItemKindOther, item.Kind)
	assert.False(t, item.SystemGenerated)
	assert.Equal(t, "receipt-7", item.ReceiptRef)

	items := l.Items()
	assert.Equal(t, item.ID, items[len(items)-1].ID)

	tests := []struct {
		name        string
		description string
		amount      decimal.Decimal
		payer       entity.Payer
	}{
		{"empty description", " ", decimal.NewFromInt(1), entity.PayerEmployee},
		{"negative amount", "Taxi", decimal.NewFromInt(-1), entity.PayerEmployee},
		{"bad payer", "Taxi", decimal.NewFromInt(1), entity.Payer("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.AddItem(tt.description, tt.amount, tt.payer, "")
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
}

func TestLedger_RemoveItem(t *testing.T) {
	l := Seed(newTrip(true, true))
	free, err := l.AddItem("Parking", decimal.NewFromInt(20), entity.PayerEmployee, "")
	require.NoError(t, err)

	require.NoError(t, l.RemoveItem(free.ID))
	assert.Len(t, l.Items(), 3)

	for _, item := range l.Items() {
		assert.ErrorIs(t, l.RemoveItem(item.ID), entity.ErrInvalidOperation)
	}
	assert.Len(t, l.Items(), 3)
	assert.ErrorIs(t, l.RemoveItem(free.ID), entity.ErrNotFound)
}

func TestLedger_TotalsOwedToEmployee(t *testing.T) {
	l := Seed(newTrip(true, true))
	_, err := l.AddItem("Taxi", decimal.NewFromInt(50), entity.PayerEmployee, "")
	require.NoError(t, err)
	_, err = l.AddItem("Conference fee", decimal.NewFromInt(400), entity.PayerEmployer, "")
	require.NoError(t, err)

	totals := l.Totals()
	// 600 hotel + 600 transport + 600 per-diem + 50 + 400
	assert.True(t, totals.TotalAmount.Equal(decimal.NewFromInt(2250)))
	// per-diem plus the taxi; employer-paid items excluded
	assert.True(t, totals.AmountOwedToEmployee.Equal(decimal.NewFromInt(650)))
	assert.Equal(t, "PLN", totals.Currency)
}

func TestLedger_Apply(t *testing.T) {
	l := Seed(newTrip(true, false))

	err := l.Apply([]ItemInput{
		{Kind: entity.ItemKindHotel, Amount: decimal.NewFromInt(550), Payer: entity.PayerEmployee},
		{Kind: entity.ItemKindPerDiem, Amount: decimal.NewFromInt(600)},
		{Kind: entity.ItemKindOther, Description: "Metro", Amount: decimal.NewFromInt(12), Payer: entity.PayerEmployee},
	})
	require.NoError(t, err)

	hotel := itemOfKind(t, l, entity.ItemKindHotel)
	assert.True(t, hotel.Amount.Equal(decimal.NewFromInt(550)))
	assert.Equal(t, entity.PayerEmployee, hotel.Payer)
	assert.Len(t, l.FreeItems(), 1)
}

func TestLedger_ApplyRejects(t *testing.T) {
	tests := []struct {
		name  string
		input ItemInput
		want  error
	}{
		{"transport not booked", ItemInput{Kind: entity.ItemKindTransport, Amount: decimal.NewFromInt(1)}, entity.ErrValidation},
		{"per-diem edited", ItemInput{Kind: entity.ItemKindPerDiem, Amount: decimal.NewFromInt(601)}, entity.ErrValidation},
		{"negative hotel", ItemInput{Kind: entity.ItemKindHotel, Amount: decimal.NewFromInt(-5)}, entity.ErrValidation},
		{"unknown kind", ItemInput{Kind: entity.ItemKind("fuel"), Amount: decimal.NewFromInt(1)}, entity.ErrValidation},
		{"free item without description", ItemInput{Amount: decimal.NewFromInt(1), Payer: entity.PayerEmployee}, entity.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Seed(newTrip(true, false))
			assert.ErrorIs(t, l.Apply([]ItemInput{tt.input}), tt.want)
		})
	}
}

func TestLedger_Submit(t *testing.T) {
	trip := newTrip(true, true)
	l := Seed(trip)
	_, err := l.AddItem("Taxi", decimal.NewFromInt(50), entity.PayerEmployee, "")
	require.NoError(t, err)

	now := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	require.NoError(t, l.Submit(trip, now))

	require.NotNil(t, trip.Settlement)
	assert.Equal(t, "trip-1", trip.Settlement.TripID)
	assert.Equal(t, now, trip.Settlement.SubmittedAt)
	assert.Len(t, trip.Settlement.Items, 4)
	assert.True(t, trip.Settlement.Totals().TotalAmount.Equal(l.Totals().TotalAmount))

	// later ledger edits do not leak into the snapshot
	require.NoError(t, l.RemoveItem(trip.Settlement.Items[3].ID))
	assert.Len(t, trip.Settlement.Items, 4)
}

func TestLedger_SubmitWrongTrip(t *testing.T) {
	l := Seed(newTrip(false, false))
	other := newTrip(false, false)
	other.ID = "trip-2"

	assert.ErrorIs(t, l.Submit(other, time.Now()), entity.ErrInvalidOperation)
	assert.Nil(t, other.Settlement)
}

func TestLedger_ValidateDetectsTamperedPerDiem(t *testing.T) {
	trip := newTrip(false, false)
	trip.Settlement = &entity.Settlement{
		TripID:   trip.ID,
		Currency: "PLN",
		Items: []entity.LineItem{{
			ID: "pd", Kind: entity.ItemKindPerDiem, Description: DescriptionPerDiem,
			Amount: decimal.NewFromInt(999), Payer: entity.PayerEmployer, SystemGenerated: true, ReadOnly: true,
		}},
	}

	l := FromSettlement(trip)
	assert.ErrorIs(t, l.Validate(), entity.ErrValidation)
	assert.ErrorIs(t, l.Submit(trip, time.Now()), entity.ErrValidation)
}

func TestFromSettlement_ReopensPreviousItems(t *testing.T) {
	trip := newTrip(true, false)
	first := Seed(trip)
	_, err := first.AddItem("Taxi", decimal.NewFromInt(30), entity.PayerEmployee, "")
	require.NoError(t, err)
	require.NoError(t, first.Submit(trip, time.Now()))

	draft := FromSettlement(trip)
	assert.Len(t, draft.Items(), 3)
	assert.Len(t, draft.FreeItems(), 1)
	require.NoError(t, draft.Validate())
}

func TestFromSettlement_SeedsWhenNothingSubmitted(t *testing.T) {
	l := FromSettlement(newTrip(true, true))
	assert.Len(t, l.Items(), 3)
}
