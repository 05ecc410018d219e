// Package cost is the single place trip duration, nights and money totals are computed.
//
// Nights rule: a trip without a hotel has 0 nights. With a hotel it has
// DurationDays-1 nights, floored at 1, so a same-day trip with a hotel
// is billed one night.
//
// Rounding: components are kept at full precision and only the total is
// rounded, half-up, to MinorUnits decimal places.
package cost

import (
	"fmt"
	"math"
	"time"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places a total is rounded to
const MinorUnits = 2

const day = 24 * time.Hour

// Policy holds the configured per-diem fallbacks
type Policy struct {
	HomeCountryID        string
	DomesticPerDiem      decimal.Decimal
	InternationalPerDiem decimal.Decimal
	Currency             string
}

// Input is everything needed to estimate one trip
type Input struct {
	Start        time.Time
	End          time.Time
	OneWayPrice  *decimal.Decimal
	NightlyPrice *decimal.Decimal
	PerDiemRate  decimal.Decimal
	Currency     string
}

// ResolvePerDiemRate returns rate when present, otherwise the domestic or
// international default. fallback reports whether a default was used.
func (p Policy) ResolvePerDiemRate(countryID string, rate *decimal.Decimal) (resolved decimal.Decimal, fallback bool) {
	if rate != nil {
		return *rate, false
	}
	if countryID == p.HomeCountryID {
		return p.DomesticPerDiem, true
	}
	return p.InternationalPerDiem, true
}

// DurationDays returns the inclusive number of calendar days between start and end
func DurationDays(start, end time.Time) (int, error) {
	s, e := truncateDay(start), truncateDay(end)
	if e.Before(s) {
		return 0, fmt.Errorf("%w: end date %s is before start date %s",
			entity.ErrValidation, e.Format(entity.DateLayout), s.Format(entity.DateLayout))
	}
	return int(math.Ceil(float64(e.Sub(s))/float64(day))) + 1, nil
}

// Nights returns the number of hotel nights for the trip
func Nights(start, end time.Time, hotelBooked bool) (int, error) {
	days, err := DurationDays(start, end)
	if err != nil {
		return 0, err
	}
	if !hotelBooked {
		return 0, nil
	}
	if days-1 < 1 {
		return 1, nil
	}
	return days - 1, nil
}

// PerDiemCost returns days * rate
func PerDiemCost(days int, rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(days)))
}

// TransportCost returns the round-trip price, zero when no route is booked
func TransportCost(oneWay *decimal.Decimal) decimal.Decimal {
	if oneWay == nil {
		return decimal.Zero
	}
	return oneWay.Mul(decimal.NewFromInt(2))
}

// HotelCost returns nightly * nights, zero when no hotel is booked
func HotelCost(nightly *decimal.Decimal, nights int) decimal.Decimal {
	if nightly == nil {
		return decimal.Zero
	}
	return nightly.Mul(decimal.NewFromInt(int64(nights)))
}

// RoundTotal applies the currency rounding policy
func RoundTotal(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MinorUnits)
}

// Estimate computes the planned cost of a trip
func Estimate(in Input) (entity.CostEstimate, error) {
	if err := validateInput(in); err != nil {
		return entity.CostEstimate{}, err
	}

	days, err := DurationDays(in.Start, in.End)
	if err != nil {
		return entity.CostEstimate{}, err
	}
	nights, err := Nights(in.Start, in.End, in.NightlyPrice != nil)
	if err != nil {
		return entity.CostEstimate{}, err
	}

	transport := TransportCost(in.OneWayPrice)
	hotel := HotelCost(in.NightlyPrice, nights)
	perDiem := PerDiemCost(days, in.PerDiemRate)

	return entity.CostEstimate{
		Transport:   transport,
		Hotel:       hotel,
		PerDiem:     perDiem,
		Total:       RoundTotal(transport.Add(hotel).Add(perDiem)),
		Days:        days,
		Nights:      nights,
		PerDiemRate: in.PerDiemRate,
		Currency:    in.Currency,
	}, nil
}

// SettlementTotals computes totals for logged expenses, rounding like Estimate
func SettlementTotals(items []entity.LineItem, currency string) entity.SettlementTotals {
	totals := entity.ComputeTotals(items, currency)
	totals.TotalAmount = RoundTotal(totals.TotalAmount)
	totals.AmountOwedToEmployee = RoundTotal(totals.AmountOwedToEmployee)
	return totals
}

func validateInput(in Input) error {
	if in.OneWayPrice != nil && in.OneWayPrice.IsNegative() {
		return fmt.Errorf("%w: transport price must not be negative", entity.ErrValidation)
	}
	if in.NightlyPrice != nil && in.NightlyPrice.IsNegative() {
		return fmt.Errorf("%w: hotel nightly price must not be negative", entity.ErrValidation)
	}
	if in.PerDiemRate.IsNegative() {
		return fmt.Errorf("%w: per-diem rate must not be negative", entity.ErrValidation)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
