package billing

import (
	"math"
	"testing"
	"time"

	"bahikhata/backend/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeTotalsWithGST(t *testing.T) {
	totals := Compute([]domain.SaleItem{
		{Name: "Rice Bag", Quantity: 2, Price: 100, GST: 18},
	}, domain.RoundNone)

	if !almostEqual(totals.Subtotal, 200) {
		t.Fatalf("subtotal = %v, want 200", totals.Subtotal)
	}
	if !almostEqual(totals.GSTAmount, 36) {
		t.Fatalf("gst amount = %v, want 36", totals.GSTAmount)
	}
	if !almostEqual(totals.Total, 236) {
		t.Fatalf("total = %v, want 236", totals.Total)
	}
	if totals.RoundOff != 0 {
		t.Fatalf("round off = %v, want 0 when not requested", totals.RoundOff)
	}
	if !almostEqual(totals.FinalTotal, totals.Total+totals.RoundOff) {
		t.Fatalf("final total %v != total %v + round off %v", totals.FinalTotal, totals.Total, totals.RoundOff)
	}
}

func TestComputeRoundOffModes(t *testing.T) {
	items := []domain.SaleItem{{Name: "Oil 1L", Quantity: 3, Price: 33.5, GST: 5}}
	// total = 100.5 * 1.05 = 105.525

	cases := []struct {
		mode      domain.RoundingMode
		wantFinal float64
	}{
		{domain.RoundNone, 105.525},
		{domain.RoundNearest, 106},
		{domain.RoundUp, 106},
		{domain.RoundDown, 105},
	}
	for _, tc := range cases {
		totals := Compute(items, tc.mode)
		if !almostEqual(totals.FinalTotal, tc.wantFinal) {
			t.Fatalf("mode %q: final total = %v, want %v", tc.mode, totals.FinalTotal, tc.wantFinal)
		}
		if !almostEqual(totals.FinalTotal, totals.Total+totals.RoundOff) {
			t.Fatalf("mode %q: final total %v != total + round off", tc.mode, totals.FinalTotal)
		}
	}
}

func TestFilterItemsDropsDegenerateLines(t *testing.T) {
	kept := FilterItems([]domain.SaleItem{
		{Name: "Sugar 1kg", Quantity: 1, Price: 45},
		{Name: "", Quantity: 1, Price: 10},
		{Name: "Free Sample", Quantity: 0, Price: 10},
		{Name: "Negative", Quantity: 2, Price: -5},
		{Name: "   ", Quantity: 1, Price: 10},
	})
	if len(kept) != 1 || kept[0].Name != "Sugar 1kg" {
		t.Fatalf("expected only the valid line to survive, got %+v", kept)
	}
}

func TestCGSTSGSTSplitIsEven(t *testing.T) {
	cgst, sgst := CGSTSGSTSplit(36)
	if cgst != 18 || sgst != 18 {
		t.Fatalf("split = %v/%v, want 18/18", cgst, sgst)
	}
}

func TestInvoiceNumberFormat(t *testing.T) {
	at := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)
	if got := InvoiceNumber(at, 0); got != "INV24030001" {
		t.Fatalf("invoice number = %q, want INV24030001", got)
	}
	if got := InvoiceNumber(at, 41); got != "INV24030042" {
		t.Fatalf("invoice number = %q, want INV24030042", got)
	}
}

func TestInvoiceNumberSequenceIsNotMonthlyReset(t *testing.T) {
	jan := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	if got := InvoiceNumber(jan, 11); got != "INV25010012" {
		t.Fatalf("invoice number = %q, want INV25010012", got)
	}
	// Next bill keeps counting even though the month rolled over.
	if got := InvoiceNumber(feb, 12); got != "INV25020013" {
		t.Fatalf("invoice number = %q, want INV25020013", got)
	}
}
