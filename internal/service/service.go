// Package service is the ledger core: customer registry, transaction ledger,
// sale bill engine, reminders, and the supporting expense/inventory books.
// The sale bill engine keeps a bill's outstanding due mirrored by a linked
// transaction in the general ledger; that invariant is maintained here and
// committed through the repository's multi-entity write methods so the two
// records never drift apart.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bahikhata/backend/internal/billing"
	"bahikhata/backend/internal/cache"
	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/id"
	"bahikhata/backend/internal/report"
	"bahikhata/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo       store.Repository
	balances   cache.BalanceCache
	balanceTTL time.Duration
}

func New(repo store.Repository, balances cache.BalanceCache, balanceTTL time.Duration) *Service {
	if balances == nil {
		balances = cache.NoopBalanceCache{}
	}
	if balanceTTL <= 0 {
		balanceTTL = 5 * time.Minute
	}
	return &Service{
		repo:       repo,
		balances:   balances,
		balanceTTL: balanceTTL,
	}
}

func requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID == "" {
		return domain.Actor{}, fmt.Errorf("authentication required")
	}
	return actor, nil
}

func (s *Service) invalidateBalance(ctx context.Context, customerID string) {
	if err := s.balances.Invalidate(ctx, customerID); err != nil {
		slog.Warn("balance cache invalidation failed", "customer_id", customerID, "err", err)
	}
}

// ownedCustomer resolves a customer id within the actor's partition. A
// customer belonging to another user reports not found, never forbidden, so
// ids cannot be probed across accounts.
func (s *Service) ownedCustomer(ctx context.Context, actor domain.Actor, customerID string) (*domain.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.UserID != actor.UserID {
		return nil, store.ErrNotFound
	}
	return customer, nil
}

// --- Customer registry ---

func (s *Service) AddCustomer(ctx context.Context, name, phone, notes string) (domain.Customer, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	if name == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}

	customer := domain.Customer{
		ID:        id.New("cus"),
		UserID:    actor.UserID,
		Name:      name,
		Phone:     phone,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, customerID string, req domain.CustomerUpdateRequest) (*domain.Customer, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.ownedCustomer(ctx, actor, customerID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.Name != nil {
		if *req.Name == "" {
			return nil, store.ErrInvalidInput
		}
		updated.Name = *req.Name
	}
	if req.Phone != nil {
		updated.Phone = *req.Phone
	}
	if req.Notes != nil {
		updated.Notes = *req.Notes
	}
	return s.repo.UpdateCustomer(ctx, updated)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCustomers(ctx, actor.UserID)
}

func (s *Service) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.ownedCustomer(ctx, actor, customerID)
}

// DeleteCustomer cascades to the customer's transactions and reminders. The
// repository performs all three removals as one logical operation.
func (s *Service) DeleteCustomer(ctx context.Context, customerID string) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if _, err := s.ownedCustomer(ctx, actor, customerID); err != nil {
		return err
	}
	if err := s.repo.DeleteCustomer(ctx, customerID); err != nil {
		return err
	}
	s.invalidateBalance(ctx, customerID)
	return nil
}

// --- Transaction ledger ---

func (s *Service) AddTransaction(ctx context.Context, customerID string, amount float64, kind domain.TransactionKind, note string, date time.Time, method domain.PaymentMethod) (domain.Transaction, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	if customerID == "" || amount <= 0 || !kind.Valid() || !method.Valid() {
		return domain.Transaction{}, store.ErrInvalidInput
	}
	if _, err := s.ownedCustomer(ctx, actor, customerID); err != nil {
		return domain.Transaction{}, err
	}

	tx := domain.Transaction{
		ID:            id.New("txn"),
		CustomerID:    customerID,
		UserID:        actor.UserID,
		Amount:        amount,
		Kind:          kind,
		Note:          note,
		Date:          date,
		CreatedAt:     time.Now().UTC(),
		PaymentMethod: method,
	}
	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.invalidateBalance(ctx, customerID)
	return *created, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, txID string, req domain.TransactionUpdateRequest) (*domain.Transaction, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetTransactionByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != actor.UserID {
		return nil, store.ErrNotFound
	}

	updated := *existing
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, store.ErrInvalidInput
		}
		updated.Amount = *req.Amount
	}
	if req.Kind != nil {
		if !req.Kind.Valid() {
			return nil, store.ErrInvalidInput
		}
		updated.Kind = *req.Kind
	}
	if req.Note != nil {
		updated.Note = *req.Note
	}
	if req.Date != nil {
		updated.Date = *req.Date
	}
	if req.PaymentMethod != nil {
		if !req.PaymentMethod.Valid() {
			return nil, store.ErrInvalidInput
		}
		updated.PaymentMethod = *req.PaymentMethod
	}

	saved, err := s.repo.UpdateTransaction(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.invalidateBalance(ctx, saved.CustomerID)
	return saved, nil
}

// DeleteTransaction is idempotent: deleting an unknown id is a no-op, and a
// transaction in another user's partition behaves as unknown.
func (s *Service) DeleteTransaction(ctx context.Context, txID string) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetTransactionByID(ctx, txID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.UserID != actor.UserID {
		return nil
	}
	if err := s.repo.DeleteTransaction(ctx, txID); err != nil {
		return err
	}
	s.invalidateBalance(ctx, existing.CustomerID)
	return nil
}

func (s *Service) ListTransactions(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCustomer(ctx, actor, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactionsByCustomer(ctx, customerID)
}

func (s *Service) ListAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactionsByUser(ctx, actor.UserID)
}

// Balance is Σ got − Σ gave over the customer's transactions, linked ones
// included. Positive means the customer owes the business.
func (s *Service) Balance(ctx context.Context, customerID string) (float64, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := s.ownedCustomer(ctx, actor, customerID); err != nil {
		return 0, err
	}

	if cached, ok, err := s.balances.Get(ctx, customerID); err == nil && ok {
		return cached, nil
	}

	txs, err := s.repo.ListTransactionsByCustomer(ctx, customerID)
	if err != nil {
		return 0, err
	}
	var balance float64
	for _, tx := range txs {
		if tx.Kind == domain.KindGot {
			balance += tx.Amount
		} else {
			balance -= tx.Amount
		}
	}

	if err := s.balances.Set(ctx, customerID, balance, s.balanceTTL); err != nil {
		slog.Warn("balance cache set failed", "customer_id", customerID, "err", err)
	}
	return balance, nil
}

// --- Sale bill engine ---

// AddSaleBill computes totals from the (silently filtered) line items,
// assigns the next invoice number, and, when the bill is not fully paid,
// creates a linked "gave" transaction for the due amount. Bill and linked
// transaction are committed together.
func (s *Service) AddSaleBill(ctx context.Context, req domain.SaleBillCreateRequest) (domain.SaleBill, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.SaleBill{}, err
	}
	if req.CustomerID == "" || !req.PaymentMethod.Valid() {
		return domain.SaleBill{}, store.ErrInvalidInput
	}
	if _, err := s.ownedCustomer(ctx, actor, req.CustomerID); err != nil {
		return domain.SaleBill{}, err
	}

	items := billing.FilterItems(req.Items)
	totals := billing.Compute(items, req.Rounding)

	count, err := s.repo.CountSaleBillsByUser(ctx, actor.UserID)
	if err != nil {
		return domain.SaleBill{}, err
	}
	now := time.Now().UTC()
	invoiceNumber := billing.InvoiceNumber(now, count)

	bill := domain.SaleBill{
		ID:            id.New("bill"),
		InvoiceNumber: invoiceNumber,
		CustomerID:    req.CustomerID,
		UserID:        actor.UserID,
		Items:         items,
		Subtotal:      totals.Subtotal,
		GSTAmount:     totals.GSTAmount,
		Total:         totals.Total,
		RoundOff:      totals.RoundOff,
		FinalTotal:    totals.FinalTotal,
		Paid:          req.Paid,
		Date:          req.Date,
		CreatedAt:     now,
		PaymentMethod: req.PaymentMethod,
	}

	var linked *domain.Transaction
	if req.Paid < totals.FinalTotal {
		linked = &domain.Transaction{
			ID:         id.New("txn"),
			CustomerID: req.CustomerID,
			UserID:     actor.UserID,
			Amount:     totals.FinalTotal - req.Paid,
			Kind:       domain.KindGave,
			Note:       "Invoice " + invoiceNumber,
			Date:       req.Date,
			CreatedAt:  now,
		}
		bill.TransactionID = linked.ID
	}

	created, err := s.repo.CreateSaleBill(ctx, bill, linked)
	if err != nil {
		return domain.SaleBill{}, err
	}
	s.invalidateBalance(ctx, req.CustomerID)
	return *created, nil
}

func (s *Service) GetSaleBill(ctx context.Context, billID string) (*domain.SaleBill, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	bill, err := s.repo.GetSaleBillByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.UserID != actor.UserID {
		return nil, store.ErrNotFound
	}
	return bill, nil
}

func (s *Service) ListSaleBills(ctx context.Context, customerID string) ([]domain.SaleBill, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCustomer(ctx, actor, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListSaleBillsByCustomer(ctx, customerID)
}

func (s *Service) ListAllSaleBills(ctx context.Context) ([]domain.SaleBill, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSaleBillsByUser(ctx, actor.UserID)
}

// UpdateSaleBillPaid records a new paid amount and reshapes the linked
// transaction so that it exists exactly when due > 0 and always carries the
// due amount. Due is finalTotal − paid, so a round-off applied at creation
// survives later payment edits.
func (s *Service) UpdateSaleBillPaid(ctx context.Context, billID string, paid float64) (*domain.SaleBill, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetSaleBillByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != actor.UserID {
		return nil, store.ErrNotFound
	}

	bill := *existing
	bill.Paid = paid
	newDue := bill.FinalTotal - paid

	var linked *domain.Transaction
	removeTxID := ""

	switch {
	case bill.TransactionID != "" && newDue > 0:
		prev, err := s.repo.GetTransactionByID(ctx, bill.TransactionID)
		if err == nil {
			tx := *prev
			tx.Amount = newDue
			linked = &tx
		} else {
			// Back-reference points at a transaction that no longer exists
			// (deleted out-of-band); recreate it rather than fail.
			linked = s.newDueTransaction(bill, newDue)
			bill.TransactionID = linked.ID
		}
	case bill.TransactionID != "" && newDue <= 0:
		removeTxID = bill.TransactionID
		bill.TransactionID = ""
	case bill.TransactionID == "" && newDue > 0:
		linked = s.newDueTransaction(bill, newDue)
		bill.TransactionID = linked.ID
	}

	saved, err := s.repo.UpdateSaleBill(ctx, bill, linked, removeTxID)
	if err != nil {
		return nil, err
	}
	s.invalidateBalance(ctx, bill.CustomerID)
	return saved, nil
}

func (s *Service) newDueTransaction(bill domain.SaleBill, due float64) *domain.Transaction {
	return &domain.Transaction{
		ID:         id.New("txn"),
		CustomerID: bill.CustomerID,
		UserID:     bill.UserID,
		Amount:     due,
		Kind:       domain.KindGave,
		Note:       "Invoice " + bill.InvoiceNumber,
		Date:       bill.Date,
		CreatedAt:  time.Now().UTC(),
	}
}

// DeleteSaleBill removes the bill and its linked transaction together; the
// repository guarantees neither survives without the other. Unknown ids are
// a no-op.
func (s *Service) DeleteSaleBill(ctx context.Context, billID string) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetSaleBillByID(ctx, billID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.UserID != actor.UserID {
		return nil
	}
	if err := s.repo.DeleteSaleBill(ctx, billID); err != nil {
		return err
	}
	s.invalidateBalance(ctx, existing.CustomerID)
	return nil
}

// --- Reminders ---

func (s *Service) AddReminder(ctx context.Context, customerID string, amount float64, dueDate time.Time, message string) (domain.Reminder, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Reminder{}, err
	}
	if customerID == "" {
		return domain.Reminder{}, store.ErrInvalidInput
	}
	if _, err := s.ownedCustomer(ctx, actor, customerID); err != nil {
		return domain.Reminder{}, err
	}

	reminder := domain.Reminder{
		ID:         id.New("rem"),
		CustomerID: customerID,
		UserID:     actor.UserID,
		Amount:     amount,
		DueDate:    dueDate,
		Message:    message,
		Sent:       false,
		CreatedAt:  time.Now().UTC(),
	}
	created, err := s.repo.CreateReminder(ctx, reminder)
	if err != nil {
		return domain.Reminder{}, err
	}
	return *created, nil
}

func (s *Service) ListReminders(ctx context.Context) ([]domain.Reminder, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListReminders(ctx, actor.UserID)
}

// DeleteReminder is a no-op for ids outside the actor's partition.
func (s *Service) DeleteReminder(ctx context.Context, reminderID string) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	owned, err := s.actorOwnsReminder(ctx, actor, reminderID)
	if err != nil {
		return err
	}
	if !owned {
		return nil
	}
	return s.repo.DeleteReminder(ctx, reminderID)
}

// MarkReminderSent flips the informational sent flag; nothing ever flips it
// back automatically.
func (s *Service) MarkReminderSent(ctx context.Context, reminderID string) (*domain.Reminder, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	owned, err := s.actorOwnsReminder(ctx, actor, reminderID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, store.ErrNotFound
	}
	return s.repo.MarkReminderSent(ctx, reminderID)
}

func (s *Service) actorOwnsReminder(ctx context.Context, actor domain.Actor, reminderID string) (bool, error) {
	reminders, err := s.repo.ListReminders(ctx, actor.UserID)
	if err != nil {
		return false, err
	}
	for _, r := range reminders {
		if r.ID == reminderID {
			return true, nil
		}
	}
	return false, nil
}

// --- Expenses ---

func (s *Service) AddExpense(ctx context.Context, category string, amount float64, description string, date time.Time) (domain.Expense, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Expense{}, err
	}

	expense := domain.Expense{
		ID:          id.New("exp"),
		UserID:      actor.UserID,
		Category:    category,
		Amount:      amount,
		Description: description,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, actor.UserID)
}

// DeleteExpense is a no-op for ids outside the actor's partition.
func (s *Service) DeleteExpense(ctx context.Context, expenseID string) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	expenses, err := s.repo.ListExpenses(ctx, actor.UserID)
	if err != nil {
		return err
	}
	for _, e := range expenses {
		if e.ID == expenseID {
			return s.repo.DeleteExpense(ctx, expenseID)
		}
	}
	return nil
}

// --- Inventory ---

func (s *Service) AddInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	if item.Name == "" {
		return domain.InventoryItem{}, store.ErrInvalidInput
	}

	item.ID = id.New("inv")
	item.UserID = actor.UserID
	item.CreatedAt = time.Now().UTC()
	created, err := s.repo.CreateInventoryItem(ctx, item)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return *created, nil
}

func (s *Service) UpdateInventoryItem(ctx context.Context, itemID string, req domain.InventoryUpdateRequest) (*domain.InventoryItem, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetInventoryItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != actor.UserID {
		return nil, store.ErrNotFound
	}

	updated := *existing
	if req.Name != nil {
		if *req.Name == "" {
			return nil, store.ErrInvalidInput
		}
		updated.Name = *req.Name
	}
	if req.Quantity != nil {
		updated.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		updated.Unit = *req.Unit
	}
	if req.CostPrice != nil {
		updated.CostPrice = *req.CostPrice
	}
	if req.SellingPrice != nil {
		updated.SellingPrice = *req.SellingPrice
	}
	if req.LowStockAlert != nil {
		updated.LowStockAlert = *req.LowStockAlert
	}
	return s.repo.UpdateInventoryItem(ctx, updated)
}

func (s *Service) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListInventory(ctx, actor.UserID)
}

// DeleteInventoryItem is a no-op for ids outside the actor's partition.
func (s *Service) DeleteInventoryItem(ctx context.Context, itemID string) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	existing, err := s.repo.GetInventoryItemByID(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.UserID != actor.UserID {
		return nil
	}
	return s.repo.DeleteInventoryItem(ctx, itemID)
}

// --- Backup ---

func (s *Service) ExportBackup(ctx context.Context) (domain.BackupArchive, error) {
	if _, err := requireActor(ctx); err != nil {
		return domain.BackupArchive{}, err
	}
	archive, err := s.repo.Snapshot(ctx)
	if err != nil {
		return domain.BackupArchive{}, err
	}
	return *archive, nil
}

// ImportBackup overwrites every collection with the archive's contents.
// Balances are invalidated for customers on both sides of the restore: a
// customer the archive drops must not keep serving a cached balance.
func (s *Service) ImportBackup(ctx context.Context, archive domain.BackupArchive) error {
	if _, err := requireActor(ctx); err != nil {
		return err
	}
	prior, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.Restore(ctx, archive); err != nil {
		return err
	}
	for _, customer := range prior.Customers {
		s.invalidateBalance(ctx, customer.ID)
	}
	for _, customer := range archive.Customers {
		s.invalidateBalance(ctx, customer.ID)
	}
	return nil
}

// --- Reporting ---

// GSTReport aggregates the acting user's bills dated within [from, to].
func (s *Service) GSTReport(ctx context.Context, from, to time.Time) (report.Summary, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return report.Summary{}, err
	}

	bills, err := s.repo.ListSaleBillsByUser(ctx, actor.UserID)
	if err != nil {
		return report.Summary{}, err
	}
	customers, err := s.repo.ListCustomers(ctx, actor.UserID)
	if err != nil {
		return report.Summary{}, err
	}
	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return report.BuildGSTSummary(bills, names, from, to), nil
}
