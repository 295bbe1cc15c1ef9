// Package report derives GST summaries from sale bills and exports them as
// CSV or XLSX. All GST is split evenly into CGST and SGST halves.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"bahikhata/backend/internal/domain"
)

// RateBreakdown accumulates taxable value and tax for a single GST rate.
type RateBreakdown struct {
	Rate    float64 `json:"rate"`
	Taxable float64 `json:"taxable"`
	CGST    float64 `json:"cgst"`
	SGST    float64 `json:"sgst"`
	Total   float64 `json:"total"`
}

// BillRow is one invoice line of the detailed section.
type BillRow struct {
	Date          time.Time `json:"date"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerName  string    `json:"customer_name"`
	Taxable       float64   `json:"taxable"`
	CGST          float64   `json:"cgst"`
	SGST          float64   `json:"sgst"`
	Total         float64   `json:"total"`
}

type Summary struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	TotalTaxable      float64         `json:"total_taxable"`
	TotalGST          float64         `json:"total_gst"`
	CGST              float64         `json:"cgst"`
	SGST              float64         `json:"sgst"`
	TotalInvoiceValue float64         `json:"total_invoice_value"`
	ByRate            []RateBreakdown `json:"by_rate"`
	Bills             []BillRow       `json:"bills"`
}

// BuildGSTSummary aggregates the bills dated within [from, to] inclusive.
// customerNames maps customer id to display name; unknown ids show as the id.
func BuildGSTSummary(bills []domain.SaleBill, customerNames map[string]string, from, to time.Time) Summary {
	summary := Summary{From: from, To: to, ByRate: []RateBreakdown{}, Bills: []BillRow{}}
	byRate := map[float64]*RateBreakdown{}

	for _, bill := range bills {
		if bill.Date.Before(from) || bill.Date.After(to) {
			continue
		}

		summary.TotalTaxable += bill.Subtotal
		summary.TotalGST += bill.GSTAmount
		summary.TotalInvoiceValue += bill.Total

		for _, item := range bill.Items {
			taxable := float64(item.Quantity) * item.Price
			tax := taxable * item.GST / 100
			bd, ok := byRate[item.GST]
			if !ok {
				bd = &RateBreakdown{Rate: item.GST}
				byRate[item.GST] = bd
			}
			bd.Taxable += taxable
			bd.CGST += tax / 2
			bd.SGST += tax / 2
			bd.Total += tax
		}

		name := customerNames[bill.CustomerID]
		if name == "" {
			name = bill.CustomerID
		}
		summary.Bills = append(summary.Bills, BillRow{
			Date:          bill.Date,
			InvoiceNumber: bill.InvoiceNumber,
			CustomerName:  name,
			Taxable:       bill.Subtotal,
			CGST:          bill.GSTAmount / 2,
			SGST:          bill.GSTAmount / 2,
			Total:         bill.Total,
		})
	}

	summary.CGST = summary.TotalGST / 2
	summary.SGST = summary.TotalGST / 2

	for _, bd := range byRate {
		summary.ByRate = append(summary.ByRate, *bd)
	}
	slices.SortFunc(summary.ByRate, func(a, b RateBreakdown) int {
		switch {
		case a.Rate < b.Rate:
			return -1
		case a.Rate > b.Rate:
			return 1
		}
		return 0
	})
	slices.SortFunc(summary.Bills, func(a, b BillRow) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return 0
	})

	return summary
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func rateLabel(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}

// WriteCSV renders the summary in three sections: totals, rate-wise
// breakdown, and the detailed bill list.
func (s Summary) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"GST Report"},
		{fmt.Sprintf("Period: %s to %s", s.From.Format("02 Jan 2006"), s.To.Format("02 Jan 2006"))},
		{},
		{"Summary"},
		{"Total Taxable Value", money(s.TotalTaxable)},
		{"Total CGST", money(s.CGST)},
		{"Total SGST", money(s.SGST)},
		{"Total GST", money(s.TotalGST)},
		{"Total Invoice Value", money(s.TotalInvoiceValue)},
		{},
		{"GST Rate-wise Breakdown"},
		{"GST Rate", "Taxable Value", "CGST", "SGST", "Total GST"},
	}
	for _, bd := range s.ByRate {
		rows = append(rows, []string{rateLabel(bd.Rate), money(bd.Taxable), money(bd.CGST), money(bd.SGST), money(bd.Total)})
	}
	rows = append(rows,
		[]string{},
		[]string{"Detailed Bills"},
		[]string{"Date", "Invoice No", "Customer", "Taxable Value", "CGST", "SGST", "Total"},
	)
	for _, bill := range s.Bills {
		rows = append(rows, []string{
			bill.Date.Format("02/01/2006"),
			bill.InvoiceNumber,
			bill.CustomerName,
			money(bill.Taxable),
			money(bill.CGST),
			money(bill.SGST),
			money(bill.Total),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the summary as a single-sheet workbook.
func (s Summary) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "GST Report"
	f.SetSheetName(f.GetSheetName(0), sheet)

	row := 1
	set := func(values ...any) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	set("GST Report")
	set(fmt.Sprintf("Period: %s to %s", s.From.Format("02 Jan 2006"), s.To.Format("02 Jan 2006")))
	row++
	set("Summary")
	set("Total Taxable Value", s.TotalTaxable)
	set("Total CGST", s.CGST)
	set("Total SGST", s.SGST)
	set("Total GST", s.TotalGST)
	set("Total Invoice Value", s.TotalInvoiceValue)
	row++
	set("GST Rate-wise Breakdown")
	set("GST Rate", "Taxable Value", "CGST", "SGST", "Total GST")
	for _, bd := range s.ByRate {
		set(rateLabel(bd.Rate), bd.Taxable, bd.CGST, bd.SGST, bd.Total)
	}
	row++
	set("Detailed Bills")
	set("Date", "Invoice No", "Customer", "Taxable Value", "CGST", "SGST", "Total")
	for _, bill := range s.Bills {
		set(bill.Date.Format("02/01/2006"), bill.InvoiceNumber, bill.CustomerName, bill.Taxable, bill.CGST, bill.SGST, bill.Total)
	}

	return f.Write(w)
}
