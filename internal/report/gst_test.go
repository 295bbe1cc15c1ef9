package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"bahikhata/backend/internal/domain"
)

func sampleBills() []domain.SaleBill {
	march := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	return []domain.SaleBill{
		{
			ID: "bil-1", InvoiceNumber: "INV24030001", CustomerID: "cus-1", UserID: "usr-1",
			Items: []domain.SaleItem{
				{Name: "Widget", Quantity: 2, Price: 100, GST: 18},
			},
			Subtotal: 200, GSTAmount: 36, Total: 236, FinalTotal: 236, Paid: 236, Date: march,
		},
		{
			ID: "bil-2", InvoiceNumber: "INV24030002", CustomerID: "cus-1", UserID: "usr-1",
			Items: []domain.SaleItem{
				{Name: "Gadget", Quantity: 1, Price: 500, GST: 5},
				{Name: "Bolt", Quantity: 10, Price: 10}, // no GST
			},
			Subtotal: 600, GSTAmount: 25, Total: 625, FinalTotal: 625, Paid: 625, Date: march.Add(24 * time.Hour),
		},
		{
			// Outside the March window, must be excluded.
			ID: "bil-3", InvoiceNumber: "INV24040003", CustomerID: "cus-1", UserID: "usr-1",
			Items:    []domain.SaleItem{{Name: "Widget", Quantity: 1, Price: 100, GST: 18}},
			Subtotal: 100, GSTAmount: 18, Total: 118, FinalTotal: 118, Paid: 118, Date: april,
		},
	}
}

func marchWindow() (time.Time, time.Time) {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
}

func TestBuildGSTSummaryTotals(t *testing.T) {
	from, to := marchWindow()
	s := BuildGSTSummary(sampleBills(), map[string]string{"cus-1": "Asha"}, from, to)

	if s.TotalTaxable != 800 {
		t.Fatalf("TotalTaxable = %v, want 800", s.TotalTaxable)
	}
	if s.TotalGST != 61 {
		t.Fatalf("TotalGST = %v, want 61", s.TotalGST)
	}
	if s.CGST != 30.5 || s.SGST != 30.5 {
		t.Fatalf("CGST/SGST = %v/%v, want 30.5 each", s.CGST, s.SGST)
	}
	if s.TotalInvoiceValue != 861 {
		t.Fatalf("TotalInvoiceValue = %v, want 861", s.TotalInvoiceValue)
	}
	if len(s.Bills) != 2 {
		t.Fatalf("expected 2 bills in window, got %d", len(s.Bills))
	}
	if s.Bills[0].CustomerName != "Asha" {
		t.Fatalf("customer name not resolved: %q", s.Bills[0].CustomerName)
	}
}

func TestBuildGSTSummaryRateBreakdown(t *testing.T) {
	from, to := marchWindow()
	s := BuildGSTSummary(sampleBills(), nil, from, to)

	if len(s.ByRate) != 3 {
		t.Fatalf("expected rates 0/5/18, got %+v", s.ByRate)
	}
	// Sorted ascending by rate.
	if s.ByRate[0].Rate != 0 || s.ByRate[1].Rate != 5 || s.ByRate[2].Rate != 18 {
		t.Fatalf("rates out of order: %+v", s.ByRate)
	}
	eighteen := s.ByRate[2]
	if eighteen.Taxable != 200 || eighteen.Total != 36 || eighteen.CGST != 18 || eighteen.SGST != 18 {
		t.Fatalf("18%% breakdown wrong: %+v", eighteen)
	}
	zero := s.ByRate[0]
	if zero.Taxable != 100 || zero.Total != 0 {
		t.Fatalf("0%% breakdown wrong: %+v", zero)
	}
}

func TestWriteCSVSections(t *testing.T) {
	from, to := marchWindow()
	s := BuildGSTSummary(sampleBills(), map[string]string{"cus-1": "Asha"}, from, to)

	var buf bytes.Buffer
	if err := s.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"GST Report",
		"Total Taxable Value,800.00",
		"Total GST,61.00",
		"GST Rate-wise Breakdown",
		"18%,200.00,18.00,18.00,36.00",
		"Detailed Bills",
		"INV24030001,Asha,200.00,18.00,18.00,236.00",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("CSV missing %q:\n%s", want, out)
		}
	}
}

func TestWriteXLSXProducesWorkbook(t *testing.T) {
	from, to := marchWindow()
	s := BuildGSTSummary(sampleBills(), nil, from, to)

	var buf bytes.Buffer
	if err := s.WriteXLSX(&buf); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	// XLSX files are zip archives.
	if buf.Len() == 0 || buf.String()[:2] != "PK" {
		t.Fatalf("output does not look like an xlsx workbook (%d bytes)", buf.Len())
	}
}
