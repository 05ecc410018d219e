package cost

import (
	"testing"
	"time"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(entity.DateLayout, s)
	require.NoError(t, err)
	return d
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestDurationDays(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"same day", "2024-05-01", "2024-05-01", 1},
		{"two days", "2024-05-01", "2024-05-02", 2},
		{"three days", "2024-05-01", "2024-05-03", 3},
		{"across month", "2024-04-30", "2024-05-02", 3},
		{"leap day", "2024-02-28", "2024-03-01", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationDays(date(t, tt.start), date(t, tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationDays_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC)

	got, err := DurationDays(start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestDurationDays_EndBeforeStart(t *testing.T) {
	_, err := DurationDays(date(t, "2024-05-03"), date(t, "2024-05-01"))
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestNights(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		hotel bool
		want  int
	}{
		{"no hotel", "2024-05-01", "2024-05-03", false, 0},
		{"no hotel same day", "2024-05-01", "2024-05-01", false, 0},
		{"same day with hotel", "2024-05-01", "2024-05-01", true, 1},
		{"two days with hotel", "2024-05-01", "2024-05-02", true, 1},
		{"three days with hotel", "2024-05-01", "2024-05-03", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Nights(date(t, tt.start), date(t, tt.end), tt.hotel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimate_WarsawBerlin(t *testing.T) {
	est, err := Estimate(Input{
		Start:        date(t, "2024-05-01"),
		End:          date(t, "2024-05-03"),
		OneWayPrice:  dec("300"),
		NightlyPrice: dec("300"),
		PerDiemRate:  decimal.NewFromInt(200),
		Currency:     "PLN",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, est.Days)
	assert.Equal(t, 2, est.Nights)
	assert.True(t, est.Transport.Equal(decimal.NewFromInt(600)))
	assert.True(t, est.Hotel.Equal(decimal.NewFromInt(600)))
	assert.True(t, est.PerDiem.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, "1800.00", est.Total.StringFixed(2))
	assert.Equal(t, "PLN", est.Currency)
}

func TestEstimate_ZeroWhenNothingBooked(t *testing.T) {
	est, err := Estimate(Input{
		Start:       date(t, "2024-05-01"),
		End:         date(t, "2024-05-05"),
		PerDiemRate: decimal.Zero,
	})
	require.NoError(t, err)

	assert.True(t, est.Total.IsZero())
	assert.Equal(t, 0, est.Nights)
}

func TestEstimate_RoundsOnlyTheTotal(t *testing.T) {
	// each component rounds to 0.00 alone, their sum rounds to 0.01
	est, err := Estimate(Input{
		Start:        date(t, "2024-05-01"),
		End:          date(t, "2024-05-01"),
		OneWayPrice:  dec("0.002"),
		NightlyPrice: dec("0.004"),
		PerDiemRate:  decimal.RequireFromString("0.004"),
	})
	require.NoError(t, err)

	assert.Equal(t, "0.004", est.Transport.String())
	assert.Equal(t, "0.004", est.Hotel.String())
	assert.Equal(t, "0.004", est.PerDiem.String())
	assert.Equal(t, "0.01", est.Total.StringFixed(2))
}

func TestRoundTotal_HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10.004", "10.00"},
		{"0.125", "0.13"},
		{"1799.995", "1800.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundTotal(decimal.RequireFromString(tt.in)).StringFixed(2))
		})
	}
}

func TestEstimate_RejectsNegativeInputs(t *testing.T) {
	base := Input{Start: date(t, "2024-05-01"), End: date(t, "2024-05-02")}

	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"transport", func(in *Input) { in.OneWayPrice = dec("-1") }},
		{"hotel", func(in *Input) { in.NightlyPrice = dec("-0.01") }},
		{"per diem", func(in *Input) { in.PerDiemRate = decimal.NewFromInt(-5) }},
		{"dates", func(in *Input) { in.End = date(t, "2024-04-30") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := Estimate(in)
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
}

func TestEstimate_NeverNegative(t *testing.T) {
	prices := []string{"0", "0.01", "99.999", "12345.678"}
	for _, p := range prices {
		for days := 0; days < 4; days++ {
			start := date(t, "2024-05-01")
			est, err := Estimate(Input{
				Start:        start,
				End:          start.AddDate(0, 0, days),
				OneWayPrice:  dec(p),
				NightlyPrice: dec(p),
				PerDiemRate:  decimal.RequireFromString(p),
			})
			require.NoError(t, err)
			assert.False(t, est.Total.IsNegative(), "price %s days %d", p, days)
		}
	}
}

func TestPolicy_ResolvePerDiemRate(t *testing.T) {
	policy := Policy{
		HomeCountryID:        "PL",
		DomesticPerDiem:      decimal.NewFromInt(45),
		InternationalPerDiem: decimal.NewFromInt(200),
	}

	rate, fallback := policy.ResolvePerDiemRate("DE", dec("180"))
	assert.False(t, fallback)
	assert.True(t, rate.Equal(decimal.NewFromInt(180)))

	rate, fallback = policy.ResolvePerDiemRate("PL", nil)
	assert.True(t, fallback)
	assert.True(t, rate.Equal(decimal.NewFromInt(45)))

	rate, fallback = policy.ResolvePerDiemRate("FR", nil)
	assert.True(t, fallback)
	assert.True(t, rate.Equal(decimal.NewFromInt(200)))
}

func TestSettlementTotals_Rounded(t *testing.T) {
	items := []entity.LineItem{
		{Kind: entity.ItemKindOther, Amount: decimal.RequireFromString("0.005"), Payer: entity.PayerEmployee},
		{Kind: entity.ItemKindOther, Amount: decimal.RequireFromString("10"), Payer: entity.PayerEmployer},
	}

	totals := SettlementTotals(items, "PLN")
	assert.Equal(t, "10.01", totals.TotalAmount.StringFixed(2))
	assert.Equal(t, "0.01", totals.AmountOwedToEmployee.StringFixed(2))
}
