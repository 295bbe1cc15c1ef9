package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"bahikhata/backend/internal/cache"
	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/store/memory"
)

func newTestService() (*Service, context.Context) {
	svc := New(memory.New(), cache.NoopBalanceCache{}, time.Minute)
	ctx := WithActor(context.Background(), domain.Actor{
		UserID: "usr-test",
		Email:  "owner@example.com",
	})
	return svc, ctx
}

func mustAddCustomer(t *testing.T, svc *Service, ctx context.Context, name string) domain.Customer {
	t.Helper()
	customer, err := svc.AddCustomer(ctx, name, "9999000011", "")
	if err != nil {
		t.Fatalf("add customer failed: %v", err)
	}
	return customer
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBalanceNetZeroRoundTrip(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Ravi")

	before, err := svc.Balance(ctx, customer.ID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}

	if _, err := svc.AddTransaction(ctx, customer.ID, 250, domain.KindGot, "", date(2024, 2, 1), ""); err != nil {
		t.Fatalf("add got failed: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, customer.ID, 250, domain.KindGave, "", date(2024, 2, 2), ""); err != nil {
		t.Fatalf("add gave failed: %v", err)
	}

	after, err := svc.Balance(ctx, customer.ID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if !almostEqual(before, after) {
		t.Fatalf("expected net-zero round trip, balance went from %v to %v", before, after)
	}
}

func TestBalanceSignConvention(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Asha")

	if _, err := svc.AddTransaction(ctx, customer.ID, 500, domain.KindGave, "credit", date(2024, 1, 1), ""); err != nil {
		t.Fatalf("add gave failed: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, customer.ID, 200, domain.KindGot, "payment", date(2024, 1, 5), ""); err != nil {
		t.Fatalf("add got failed: %v", err)
	}

	balance, err := svc.Balance(ctx, customer.ID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if !almostEqual(balance, -300) {
		t.Fatalf("balance = %v, want -300 (to pay)", balance)
	}
}

func TestListTransactionsSortedDateDesc(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Ravi")

	for _, d := range []time.Time{date(2024, 1, 3), date(2024, 1, 9), date(2024, 1, 1)} {
		if _, err := svc.AddTransaction(ctx, customer.ID, 10, domain.KindGot, "", d, ""); err != nil {
			t.Fatalf("add transaction failed: %v", err)
		}
	}

	txs, err := svc.ListTransactions(ctx, customer.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.After(txs[i-1].Date) {
			t.Fatalf("transactions not sorted date desc: %v before %v", txs[i-1].Date, txs[i].Date)
		}
	}
}

func TestUpdateTransactionNotFoundSentinel(t *testing.T) {
	svc, ctx := newTestService()

	amount := 50.0
	_, err := svc.UpdateTransaction(ctx, "txn-missing", domain.TransactionUpdateRequest{Amount: &amount})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTransactionIsIdempotent(t *testing.T) {
	svc, ctx := newTestService()

	if err := svc.DeleteTransaction(ctx, "txn-missing"); err != nil {
		t.Fatalf("deleting a nonexistent transaction should be a no-op, got %v", err)
	}
}

func TestAddSaleBillPartiallyPaidCreatesLinkedTransaction(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	bill, err := svc.AddSaleBill(ctx, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items: []domain.SaleItem{
			{Name: "Notebook", Quantity: 3, Price: 50},
		},
		Paid: 100,
		Date: date(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("add sale bill failed: %v", err)
	}

	if !almostEqual(bill.Subtotal, 150) || !almostEqual(bill.Total, 150) {
		t.Fatalf("subtotal/total = %v/%v, want 150/150", bill.Subtotal, bill.Total)
	}
	if bill.TransactionID == "" {
		t.Fatalf("expected a linked transaction for a partially paid bill")
	}

	txs, err := svc.ListTransactions(ctx, customer.ID)
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected exactly one linked transaction, got %d", len(txs))
	}
	linked := txs[0]
	if linked.ID != bill.TransactionID {
		t.Fatalf("back-reference %q does not match transaction %q", bill.TransactionID, linked.ID)
	}
	if linked.Kind != domain.KindGave {
		t.Fatalf("linked transaction kind = %q, want gave", linked.Kind)
	}
	if !almostEqual(linked.Amount, 50) {
		t.Fatalf("linked transaction amount = %v, want 50", linked.Amount)
	}
}

func TestAddSaleBillFullyPaidHasNoLinkedTransaction(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	bill, err := svc.AddSaleBill(ctx, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items: []domain.SaleItem{
			{Name: "Notebook", Quantity: 2, Price: 100, GST: 18},
		},
		Paid: 236,
		Date: date(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("add sale bill failed: %v", err)
	}

	if !almostEqual(bill.GSTAmount, 36) {
		t.Fatalf("gst amount = %v, want 36", bill.GSTAmount)
	}
	if bill.TransactionID != "" {
		t.Fatalf("fully paid bill must not carry a linked transaction")
	}
	txs, _ := svc.ListTransactions(ctx, customer.ID)
	if len(txs) != 0 {
		t.Fatalf("expected no transactions, got %d", len(txs))
	}
}

func TestAddSaleBillDropsDegenerateItems(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	bill, err := svc.AddSaleBill(ctx, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items: []domain.SaleItem{
			{Name: "Pen", Quantity: 1, Price: 20},
			{Name: "", Quantity: 5, Price: 100},
			{Name: "Ghost", Quantity: 0, Price: 100},
		},
		Paid: 20,
		Date: date(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("add sale bill failed: %v", err)
	}
	if len(bill.Items) != 1 {
		t.Fatalf("expected degenerate items to be dropped, kept %d", len(bill.Items))
	}
	if !almostEqual(bill.FinalTotal, 20) {
		t.Fatalf("final total = %v, want 20", bill.FinalTotal)
	}
}

func TestUpdateSaleBillPaidLifecycle(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	bill, err := svc.AddSaleBill(ctx, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items: []domain.SaleItem{
			{Name: "Rice Bag", Quantity: 2, Price: 100},
		},
		Paid: 50,
		Date: date(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("add sale bill failed: %v", err)
	}

	// Pay down part of the due: linked transaction follows the new due.
	updated, err := svc.UpdateSaleBillPaid(ctx, bill.ID, 120)
	if err != nil {
		t.Fatalf("update paid failed: %v", err)
	}
	if updated.TransactionID == "" {
		t.Fatalf("expected linked transaction to survive a partial payment")
	}
	linked, err := svc.repo.GetTransactionByID(ctx, updated.TransactionID)
	if err != nil {
		t.Fatalf("linked transaction lookup failed: %v", err)
	}
	if !almostEqual(linked.Amount, 80) {
		t.Fatalf("linked amount = %v, want 80", linked.Amount)
	}

	// Fully pay: linked transaction is removed and the back-reference cleared.
	updated, err = svc.UpdateSaleBillPaid(ctx, bill.ID, 200)
	if err != nil {
		t.Fatalf("update paid failed: %v", err)
	}
	if updated.TransactionID != "" {
		t.Fatalf("expected back-reference to be cleared on full payment")
	}
	txs, _ := svc.ListTransactions(ctx, customer.ID)
	if len(txs) != 0 {
		t.Fatalf("expected linked transaction to be deleted, found %d", len(txs))
	}

	// Drop back to partially paid: a fresh linked transaction appears.
	updated, err = svc.UpdateSaleBillPaid(ctx, bill.ID, 150)
	if err != nil {
		t.Fatalf("update paid failed: %v", err)
	}
	if updated.TransactionID == "" {
		t.Fatalf("expected a new linked transaction after reverting to partial payment")
	}
	linked, err = svc.repo.GetTransactionByID(ctx, updated.TransactionID)
	if err != nil {
		t.Fatalf("linked transaction lookup failed: %v", err)
	}
	if !almostEqual(linked.Amount, 50) {
		t.Fatalf("recreated linked amount = %v, want 50", linked.Amount)
	}
}

func TestUpdateSaleBillPaidKeepsRoundOff(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	// total = 105.525, rounded up to 106 with roundOff 0.475.
	bill, err := svc.AddSaleBill(ctx, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items: []domain.SaleItem{
			{Name: "Oil 1L", Quantity: 3, Price: 33.5, GST: 5},
		},
		Paid:     0,
		Date:     date(2024, 3, 1),
		Rounding: domain.RoundUp,
	})
	if err != nil {
		t.Fatalf("add sale bill failed: %v", err)
	}
	if !almostEqual(bill.FinalTotal, 106) {
		t.Fatalf("final total = %v, want 106", bill.FinalTotal)
	}

	updated, err := svc.UpdateSaleBillPaid(ctx, bill.ID, 100)
	if err != nil {
		t.Fatalf("update paid failed: %v", err)
	}
	linked, err := svc.repo.GetTransactionByID(ctx, updated.TransactionID)
	if err != nil {
		t.Fatalf("linked transaction lookup failed: %v", err)
	}
	// Due is recomputed against finalTotal, so the round-off is not lost.
	if !almostEqual(linked.Amount, 6) {
		t.Fatalf("linked amount = %v, want 6", linked.Amount)
	}
}

func TestUpdateSaleBillPaidNotFoundSentinel(t *testing.T) {
	svc, ctx := newTestService()

	_, err := svc.UpdateSaleBillPaid(ctx, "bill-missing", 10)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSaleBillRemovesLinkedTransaction(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	bill, err := svc.AddSaleBill(ctx, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items: []domain.SaleItem{
			{Name: "Rice Bag", Quantity: 1, Price: 400},
		},
		Paid: 100,
		Date: date(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("add sale bill failed: %v", err)
	}

	balance, _ := svc.Balance(ctx, customer.ID)
	if !almostEqual(balance, -300) {
		t.Fatalf("balance before delete = %v, want -300", balance)
	}

	if err := svc.DeleteSaleBill(ctx, bill.ID); err != nil {
		t.Fatalf("delete sale bill failed: %v", err)
	}

	if _, err := svc.GetSaleBill(ctx, bill.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected bill to be gone, got %v", err)
	}
	txs, _ := svc.ListTransactions(ctx, customer.ID)
	if len(txs) != 0 {
		t.Fatalf("expected linked transaction to be gone, found %d", len(txs))
	}
	balance, _ = svc.Balance(ctx, customer.ID)
	if !almostEqual(balance, 0) {
		t.Fatalf("balance after delete = %v, want 0", balance)
	}

	// Deleting again is a no-op.
	if err := svc.DeleteSaleBill(ctx, bill.ID); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestInvoiceNumbersIncrement(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	first, err := svc.AddSaleBill(ctx, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items:      []domain.SaleItem{{Name: "Pen", Quantity: 1, Price: 10}},
		Paid:       10,
		Date:       date(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("first bill failed: %v", err)
	}
	second, err := svc.AddSaleBill(ctx, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items:      []domain.SaleItem{{Name: "Pen", Quantity: 1, Price: 10}},
		Paid:       10,
		Date:       date(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("second bill failed: %v", err)
	}

	if first.InvoiceNumber == second.InvoiceNumber {
		t.Fatalf("back-to-back invoice numbers must differ, both %q", first.InvoiceNumber)
	}
}

func TestDeleteCustomerCascades(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")
	other := mustAddCustomer(t, svc, ctx, "Ravi")

	if _, err := svc.AddTransaction(ctx, customer.ID, 100, domain.KindGave, "", date(2024, 1, 1), ""); err != nil {
		t.Fatalf("add transaction failed: %v", err)
	}
	if _, err := svc.AddReminder(ctx, customer.ID, 100, date(2024, 2, 1), "pay up"); err != nil {
		t.Fatalf("add reminder failed: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, other.ID, 40, domain.KindGot, "", date(2024, 1, 1), ""); err != nil {
		t.Fatalf("add transaction failed: %v", err)
	}

	if err := svc.DeleteCustomer(ctx, customer.ID); err != nil {
		t.Fatalf("delete customer failed: %v", err)
	}

	txs, _ := svc.ListTransactions(ctx, customer.ID)
	if len(txs) != 0 {
		t.Fatalf("expected no transactions for deleted customer, got %d", len(txs))
	}
	reminders, _ := svc.ListReminders(ctx)
	for _, r := range reminders {
		if r.CustomerID == customer.ID {
			t.Fatalf("reminder %s still references deleted customer", r.ID)
		}
	}
	// The other customer's ledger is untouched.
	otherTxs, _ := svc.ListTransactions(ctx, other.ID)
	if len(otherTxs) != 1 {
		t.Fatalf("expected other customer's transaction to survive, got %d", len(otherTxs))
	}
}

func TestMarkReminderSent(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	reminder, err := svc.AddReminder(ctx, customer.ID, 100, date(2024, 2, 1), "pay up")
	if err != nil {
		t.Fatalf("add reminder failed: %v", err)
	}
	if reminder.Sent {
		t.Fatalf("new reminder must not be marked sent")
	}

	updated, err := svc.MarkReminderSent(ctx, reminder.ID)
	if err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	if !updated.Sent {
		t.Fatalf("expected reminder to be marked sent")
	}
}

func TestRemindersSortedByDueDateAsc(t *testing.T) {
	svc, ctx := newTestService()
	customer := mustAddCustomer(t, svc, ctx, "Meena")

	for _, d := range []time.Time{date(2024, 5, 1), date(2024, 3, 1), date(2024, 4, 1)} {
		if _, err := svc.AddReminder(ctx, customer.ID, 10, d, ""); err != nil {
			t.Fatalf("add reminder failed: %v", err)
		}
	}

	reminders, err := svc.ListReminders(ctx)
	if err != nil {
		t.Fatalf("list reminders failed: %v", err)
	}
	for i := 1; i < len(reminders); i++ {
		if reminders[i].DueDate.Before(reminders[i-1].DueDate) {
			t.Fatalf("reminders not sorted due date asc")
		}
	}
}

func TestCrossUserAccessReportsNotFound(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopBalanceCache{}, time.Minute)
	ctxA := WithActor(context.Background(), domain.Actor{UserID: "usr-a", Email: "a@example.com"})
	ctxB := WithActor(context.Background(), domain.Actor{UserID: "usr-b", Email: "b@example.com"})

	customer := mustAddCustomer(t, svc, ctxA, "Asha")
	tx, err := svc.AddTransaction(ctxA, customer.ID, 500, domain.KindGave, "", date(2024, 1, 1), "")
	if err != nil {
		t.Fatalf("add transaction failed: %v", err)
	}
	bill, err := svc.AddSaleBill(ctxA, domain.SaleBillCreateRequest{
		CustomerID: customer.ID,
		Items:      []domain.SaleItem{{Name: "Rice Bag", Quantity: 1, Price: 400}},
		Paid:       100,
		Date:       date(2024, 1, 2),
	})
	if err != nil {
		t.Fatalf("add sale bill failed: %v", err)
	}
	reminder, err := svc.AddReminder(ctxA, customer.ID, 100, date(2024, 2, 1), "pay up")
	if err != nil {
		t.Fatalf("add reminder failed: %v", err)
	}

	// Reads and writes against another user's records report not found.
	if _, err := svc.GetCustomer(ctxB, customer.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get customer across users: expected ErrNotFound, got %v", err)
	}
	notes := "poached"
	if _, err := svc.UpdateCustomer(ctxB, customer.ID, domain.CustomerUpdateRequest{Notes: &notes}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update customer across users: expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteCustomer(ctxB, customer.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete customer across users: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.ListTransactions(ctxB, customer.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("list transactions across users: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Balance(ctxB, customer.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("balance across users: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AddTransaction(ctxB, customer.ID, 10, domain.KindGot, "", date(2024, 1, 3), ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("add transaction to foreign customer: expected ErrNotFound, got %v", err)
	}
	amount := 1.0
	if _, err := svc.UpdateTransaction(ctxB, tx.ID, domain.TransactionUpdateRequest{Amount: &amount}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update transaction across users: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetSaleBill(ctxB, bill.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get sale bill across users: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.UpdateSaleBillPaid(ctxB, bill.ID, 400); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update paid across users: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.MarkReminderSent(ctxB, reminder.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("mark reminder sent across users: expected ErrNotFound, got %v", err)
	}

	// Foreign deletes behave like unknown ids and leave the records intact.
	if err := svc.DeleteTransaction(ctxB, tx.ID); err != nil {
		t.Fatalf("foreign transaction delete should be a no-op, got %v", err)
	}
	if err := svc.DeleteSaleBill(ctxB, bill.ID); err != nil {
		t.Fatalf("foreign sale bill delete should be a no-op, got %v", err)
	}
	if err := svc.DeleteReminder(ctxB, reminder.ID); err != nil {
		t.Fatalf("foreign reminder delete should be a no-op, got %v", err)
	}

	if _, err := svc.GetCustomer(ctxA, customer.ID); err != nil {
		t.Fatalf("owner lost the customer: %v", err)
	}
	txs, err := svc.ListTransactions(ctxA, customer.ID)
	if err != nil {
		t.Fatalf("owner list transactions failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("owner's transactions changed, expected 2, got %d", len(txs))
	}
	if _, err := svc.GetSaleBill(ctxA, bill.ID); err != nil {
		t.Fatalf("owner lost the bill: %v", err)
	}
	reminders, err := svc.ListReminders(ctxA)
	if err != nil {
		t.Fatalf("owner list reminders failed: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("owner's reminders changed, expected 1, got %d", len(reminders))
	}
}

func TestInventoryAccessIsScopedToActor(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopBalanceCache{}, time.Minute)
	ctxA := WithActor(context.Background(), domain.Actor{UserID: "usr-a", Email: "a@example.com"})
	ctxB := WithActor(context.Background(), domain.Actor{UserID: "usr-b", Email: "b@example.com"})

	item, err := svc.AddInventoryItem(ctxA, domain.InventoryItem{Name: "Rice", Quantity: 10, Unit: "kg"})
	if err != nil {
		t.Fatalf("add inventory item failed: %v", err)
	}

	qty := 0
	if _, err := svc.UpdateInventoryItem(ctxB, item.ID, domain.InventoryUpdateRequest{Quantity: &qty}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update inventory across users: expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteInventoryItem(ctxB, item.ID); err != nil {
		t.Fatalf("foreign inventory delete should be a no-op, got %v", err)
	}
	items, err := svc.ListInventory(ctxA)
	if err != nil {
		t.Fatalf("owner list inventory failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 10 {
		t.Fatalf("owner's inventory changed: %+v", items)
	}
}

func TestExpenseDeleteIsScopedToActor(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopBalanceCache{}, time.Minute)
	ctxA := WithActor(context.Background(), domain.Actor{UserID: "usr-a", Email: "a@example.com"})
	ctxB := WithActor(context.Background(), domain.Actor{UserID: "usr-b", Email: "b@example.com"})

	expense, err := svc.AddExpense(ctxA, "rent", 5000, "", date(2024, 1, 1))
	if err != nil {
		t.Fatalf("add expense failed: %v", err)
	}

	if err := svc.DeleteExpense(ctxB, expense.ID); err != nil {
		t.Fatalf("foreign expense delete should be a no-op, got %v", err)
	}
	expenses, err := svc.ListExpenses(ctxA)
	if err != nil {
		t.Fatalf("owner list expenses failed: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("owner's expense removed by another user, %d left", len(expenses))
	}
}

// recordingCache is an in-process BalanceCache that remembers which entries
// were invalidated.
type recordingCache struct {
	entries     map[string]float64
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]float64{}}
}

func (c *recordingCache) Get(_ context.Context, customerID string) (float64, bool, error) {
	balance, ok := c.entries[customerID]
	return balance, ok, nil
}

func (c *recordingCache) Set(_ context.Context, customerID string, balance float64, _ time.Duration) error {
	c.entries[customerID] = balance
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, customerID string) error {
	delete(c.entries, customerID)
	c.invalidated = append(c.invalidated, customerID)
	return nil
}

func TestImportBackupInvalidatesPreRestoreBalances(t *testing.T) {
	repo := memory.New()
	balances := newRecordingCache()
	svc := New(repo, balances, time.Minute)
	ctx := WithActor(context.Background(), domain.Actor{UserID: "usr-test", Email: "owner@example.com"})

	customer := mustAddCustomer(t, svc, ctx, "Asha")
	if _, err := svc.AddTransaction(ctx, customer.ID, 500, domain.KindGave, "", date(2024, 1, 1), ""); err != nil {
		t.Fatalf("add transaction failed: %v", err)
	}
	if _, err := svc.Balance(ctx, customer.ID); err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if _, ok := balances.entries[customer.ID]; !ok {
		t.Fatalf("expected balance to be cached before restore")
	}

	// The archive does not contain the customer; the cached balance must go.
	if err := svc.ImportBackup(ctx, domain.BackupArchive{}); err != nil {
		t.Fatalf("import backup failed: %v", err)
	}
	if _, ok := balances.entries[customer.ID]; ok {
		t.Fatalf("stale balance survived restore for customer %s", customer.ID)
	}
}

func TestOperationsRequireActor(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.AddCustomer(context.Background(), "NoAuth", "", ""); err == nil {
		t.Fatalf("expected unauthenticated add customer to fail")
	}
	if _, err := svc.Balance(context.Background(), "cus-x"); err == nil {
		t.Fatalf("expected unauthenticated balance to fail")
	}
}
