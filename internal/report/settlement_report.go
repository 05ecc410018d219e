// Package report renders settlement reconciliation workbooks.
package report

import (
	"context"
	"fmt"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/cost"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names and fixed cells of the workbook
const (
	SummarySheet = "Summary"
	ItemsSheet   = "Items"

	cellTripID      = "B1"
	cellRequester   = "B2"
	cellDestination = "B3"
	cellDates       = "B4"
	cellStatus      = "B5"
	cellCurrency    = "B6"

	// plan vs actual table: header on row 8, kinds on rows 9-12, total on 13
	compareHeaderRow = 8
	compareFirstRow  = 9

	cellTotalAmount = "B16"
	cellOwedAmount  = "B17"
)

var comparedKinds = []struct {
	kind  entity.ItemKind
	label string
}{
	{entity.ItemKindTransport, "Transport"},
	{entity.ItemKindHotel, "Hotel"},
	{entity.ItemKindPerDiem, "Per diem"},
	{entity.ItemKindOther, "Other"},
}

// SettlementRenderer implements port.ReportRenderer with excelize
type SettlementRenderer struct {
	logger *zap.Logger
}

// NewSettlementRenderer creates a new workbook renderer
func NewSettlementRenderer(logger *zap.Logger) *SettlementRenderer {
	return &SettlementRenderer{logger: logger}
}

// RenderSettlement builds an .xlsx comparing the plan with the submitted settlement
func (r *SettlementRenderer) RenderSettlement(ctx context.Context, trip *entity.Trip) ([]byte, error) {
	if trip.Settlement == nil {
		return nil, fmt.Errorf("%w: trip %s has no submitted settlement", entity.ErrValidation, trip.ID)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return nil, fmt.Errorf("failed to add items sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := r.fillSummary(f, styles, trip); err != nil {
		return nil, fmt.Errorf("failed to fill summary: %w", err)
	}
	if err := r.fillItems(f, styles, trip.Settlement); err != nil {
		return nil, fmt.Errorf("failed to fill items: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Debug("Settlement workbook rendered",
		zap.String("trip_id", trip.ID),
		zap.Int("items", len(trip.Settlement.Items)),
		zap.Int("size", buf.Len()))
	return buf.Bytes(), nil
}

type styles struct {
	bold  int
	money int
	total int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	// builtin number format 4 is #,##0.00
	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: 4}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	if s.total, err = f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	return s, nil
}

func (r *SettlementRenderer) fillSummary(f *excelize.File, st styles, trip *entity.Trip) error {
	s := trip.Settlement
	header := []struct {
		label string
		cell  string
		value any
	}{
		{"Trip", cellTripID, trip.ID},
		{"Requester", cellRequester, trip.RequesterID},
		{"Destination", cellDestination, trip.DestinationCityID},
		{"Dates", cellDates, fmt.Sprintf("%s to %s", trip.StartDate.Format(entity.DateLayout), trip.EndDate.Format(entity.DateLayout))},
		{"Status", cellStatus, trip.Status.String()},
		{"Currency", cellCurrency, s.Currency},
	}
	for i, h := range header {
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", i+1), h.label); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, h.cell, h.value); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(header)), st.bold); err != nil {
		return err
	}

	if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", compareHeaderRow),
		&[]any{"Category", "Planned", "Actual", "Difference"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("A%d", compareHeaderRow), fmt.Sprintf("D%d", compareHeaderRow), st.bold); err != nil {
		return err
	}

	actual := actualByKind(s.Items)
	planned := map[entity.ItemKind]decimal.Decimal{
		entity.ItemKindTransport: trip.Estimate.Transport,
		entity.ItemKindHotel:     trip.Estimate.Hotel,
		entity.ItemKindPerDiem:   trip.Estimate.PerDiem,
		entity.ItemKindOther:     decimal.Zero,
	}

	row := compareFirstRow
	for _, k := range comparedKinds {
		p := cost.RoundTotal(planned[k.kind])
		a := cost.RoundTotal(actual[k.kind])
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", row),
			&[]any{k.label, p.InexactFloat64(), a.InexactFloat64(), a.Sub(p).InexactFloat64()}); err != nil {
			return err
		}
		row++
	}

	totals := cost.SettlementTotals(s.Items, s.Currency)
	if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", row), &[]any{
		"Total",
		trip.Estimate.Total.InexactFloat64(),
		totals.TotalAmount.InexactFloat64(),
		totals.TotalAmount.Sub(trip.Estimate.Total).InexactFloat64(),
	}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("B%d", compareFirstRow), fmt.Sprintf("D%d", row-1), st.money); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), st.total); err != nil {
		return err
	}

	if err := f.SetCellValue(SummarySheet, "A16", "Settlement total"); err != nil {
		return err
	}
	if err := f.SetCellValue(SummarySheet, cellTotalAmount, totals.TotalAmount.InexactFloat64()); err != nil {
		return err
	}
	if err := f.SetCellValue(SummarySheet, "A17", "Owed to employee"); err != nil {
		return err
	}
	if err := f.SetCellValue(SummarySheet, cellOwedAmount, totals.AmountOwedToEmployee.InexactFloat64()); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, cellTotalAmount, cellOwedAmount, st.total); err != nil {
		return err
	}

	return f.SetColWidth(SummarySheet, "A", "D", 18)
}

func (r *SettlementRenderer) fillItems(f *excelize.File, st styles, s *entity.Settlement) error {
	if err := f.SetSheetRow(ItemsSheet, "A1",
		&[]any{"#", "Kind", "Description", "Amount", "Payer", "Receipt", "Owed to employee"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(ItemsSheet, "A1", "G1", st.bold); err != nil {
		return err
	}

	for i, item := range s.Items {
		owed := "no"
		if item.OwedToEmployee() {
			owed = "yes"
		}
		row := i + 2
		if err := f.SetSheetRow(ItemsSheet, fmt.Sprintf("A%d", row), &[]any{
			i + 1,
			string(item.Kind),
			item.Description,
			item.Amount.InexactFloat64(),
			string(item.Payer),
			item.ReceiptRef,
			owed,
		}); err != nil {
			return err
		}
	}
	if len(s.Items) > 0 {
		if err := f.SetCellStyle(ItemsSheet, "D2", fmt.Sprintf("D%d", len(s.Items)+1), st.money); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(ItemsSheet, "C", "C", 32); err != nil {
		return err
	}
	return f.SetColWidth(ItemsSheet, "D", "G", 14)
}

func actualByKind(items []entity.LineItem) map[entity.ItemKind]decimal.Decimal {
	sums := make(map[entity.ItemKind]decimal.Decimal, len(comparedKinds))
	for _, item := range items {
		kind := item.Kind
		if kind == "" {
			kind = entity.ItemKindOther
		}
		sums[kind] = sums[kind].Add(item.Amount)
	}
	return sums
}

// Verify interface compliance
var _ port.ReportRenderer = (*SettlementRenderer)(nil)
