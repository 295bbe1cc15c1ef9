// Package billing holds the pure invoice math: line-item totals, round-off,
// and invoice number formatting. Nothing here touches the store.
package billing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"bahikhata/backend/internal/domain"
)

type Totals struct {
	Subtotal   float64
	GSTAmount  float64
	Total      float64
	RoundOff   float64
	FinalTotal float64
}

// FilterItems drops degenerate lines: empty name, non-positive quantity or
// price. Invalid lines never fail the whole bill.
func FilterItems(items []domain.SaleItem) []domain.SaleItem {
	kept := make([]domain.SaleItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity <= 0 || item.Price <= 0 {
			continue
		}
		if item.GST < 0 {
			item.GST = 0
		}
		kept = append(kept, item)
	}
	return kept
}

// Compute derives a bill's totals from its line items. Round-off is only
// applied when a mode is given; it is the signed delta that brings the total
// to a whole currency unit, so FinalTotal = Total + RoundOff always holds.
func Compute(items []domain.SaleItem, mode domain.RoundingMode) Totals {
	var t Totals
	for _, item := range items {
		line := float64(item.Quantity) * item.Price
		t.Subtotal += line
		t.GSTAmount += line * item.GST / 100
	}
	t.Total = t.Subtotal + t.GSTAmount
	t.RoundOff = roundOff(t.Total, mode)
	t.FinalTotal = t.Total + t.RoundOff
	return t
}

func roundOff(total float64, mode domain.RoundingMode) float64 {
	switch mode {
	case domain.RoundNearest:
		return math.Round(total) - total
	case domain.RoundUp:
		return math.Ceil(total) - total
	case domain.RoundDown:
		return math.Floor(total) - total
	default:
		return 0
	}
}

// CGSTSGSTSplit halves a GST amount into its CGST and SGST components for
// display. The split is a reporting convention, never stored.
func CGSTSGSTSplit(gstAmount float64) (cgst, sgst float64) {
	return gstAmount / 2, gstAmount / 2
}

// InvoiceNumber formats INV{yy}{mm}{seq:04d}. Year and month come from the
// wall clock, not the bill's business date, and seq counts all of the user's
// existing bills plus one. The sequence is never reset at a month boundary,
// so the prefix is cosmetic; numbers stay unique per user regardless.
func InvoiceNumber(now time.Time, existingBills int) string {
	return fmt.Sprintf("INV%02d%02d%04d", now.Year()%100, int(now.Month()), existingBills+1)
}
