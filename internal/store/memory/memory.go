// Package memory is the in-memory Repository used by tests and as the
// dev-mode fallback when no durable backend is configured. Multi-entity
// writes happen inside one critical section, so cascades are atomic from
// the caller's point of view.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	customers    map[string]domain.Customer
	transactions map[string]domain.Transaction
	saleBills    map[string]domain.SaleBill
	reminders    map[string]domain.Reminder
	expenses     map[string]domain.Expense
	inventory    map[string]domain.InventoryItem
}

func New() *Store {
	return &Store{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		customers:    make(map[string]domain.Customer),
		transactions: make(map[string]domain.Transaction),
		saleBills:    make(map[string]domain.SaleBill),
		reminders:    make(map[string]domain.Reminder),
		expenses:     make(map[string]domain.Expense),
		inventory:    make(map[string]domain.InventoryItem),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if email == "" || user.ID == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.usersByEmail[email]; exists {
		return nil, store.ErrDuplicate
	}

	user.Email = email
	s.usersByID[user.ID] = user
	s.usersByEmail[email] = user.ID
	created := user
	return &created, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[normalizeEmail(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	user := s.usersByID[id]
	return &user, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := user
	return &found, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.usersByID[user.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	// Email is the login key and is not updatable through this path.
	user.Email = existing.Email
	s.usersByID[user.ID] = user
	updated := user
	return &updated, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.usersByID))
	for _, u := range s.usersByID {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Email, b.Email)
	})
	return users, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" || customer.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := customer
	return &found, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customer.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.customers[customer.ID] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) ListCustomers(_ context.Context, userID string) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0)
	for _, c := range s.customers {
		if c.UserID == userID {
			customers = append(customers, c)
		}
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return customers, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.customers, id)
	for txID, tx := range s.transactions {
		if tx.CustomerID == id {
			delete(s.transactions, txID)
		}
	}
	for rID, r := range s.reminders {
		if r.CustomerID == id {
			delete(s.reminders, rID)
		}
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" || tx.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	s.transactions[tx.ID] = tx
	created := tx
	return &created, nil
}

func (s *Store) GetTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := tx
	return &found, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.transactions[tx.ID] = tx
	updated := tx
	return &updated, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.transactions, id)
	return nil
}

func (s *Store) ListTransactionsByCustomer(_ context.Context, customerID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.CustomerID == customerID {
			result = append(result, tx)
		}
	}
	sortTransactionsDateDesc(result)
	return result, nil
}

func (s *Store) ListTransactionsByUser(_ context.Context, userID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	sortTransactionsDateDesc(result)
	return result, nil
}

func sortTransactionsDateDesc(txs []domain.Transaction) {
	slices.SortFunc(txs, func(a, b domain.Transaction) int {
		if a.Date.Equal(b.Date) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
}

func (s *Store) CreateSaleBill(_ context.Context, bill domain.SaleBill, linked *domain.Transaction) (*domain.SaleBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bill.ID == "" || bill.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	if linked != nil {
		if linked.ID == "" {
			return nil, store.ErrInvalidInput
		}
		s.transactions[linked.ID] = *linked
		bill.TransactionID = linked.ID
	}
	bill.Items = slices.Clone(bill.Items)
	s.saleBills[bill.ID] = bill
	created := bill
	return &created, nil
}

func (s *Store) GetSaleBillByID(_ context.Context, id string) (*domain.SaleBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bill, ok := s.saleBills[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := bill
	found.Items = slices.Clone(bill.Items)
	return &found, nil
}

func (s *Store) UpdateSaleBill(_ context.Context, bill domain.SaleBill, linked *domain.Transaction, removeTxID string) (*domain.SaleBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.saleBills[bill.ID]; !ok {
		return nil, store.ErrNotFound
	}
	if removeTxID != "" {
		delete(s.transactions, removeTxID)
	}
	if linked != nil {
		s.transactions[linked.ID] = *linked
	}
	bill.Items = slices.Clone(bill.Items)
	s.saleBills[bill.ID] = bill
	updated := bill
	return &updated, nil
}

func (s *Store) DeleteSaleBill(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, ok := s.saleBills[id]
	if !ok {
		return nil
	}
	if bill.TransactionID != "" {
		delete(s.transactions, bill.TransactionID)
	}
	delete(s.saleBills, id)
	return nil
}

func (s *Store) ListSaleBillsByCustomer(_ context.Context, customerID string) ([]domain.SaleBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SaleBill, 0)
	for _, bill := range s.saleBills {
		if bill.CustomerID == customerID {
			b := bill
			b.Items = slices.Clone(bill.Items)
			result = append(result, b)
		}
	}
	sortSaleBillsDateDesc(result)
	return result, nil
}

func (s *Store) ListSaleBillsByUser(_ context.Context, userID string) ([]domain.SaleBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SaleBill, 0)
	for _, bill := range s.saleBills {
		if bill.UserID == userID {
			b := bill
			b.Items = slices.Clone(bill.Items)
			result = append(result, b)
		}
	}
	sortSaleBillsDateDesc(result)
	return result, nil
}

func sortSaleBillsDateDesc(bills []domain.SaleBill) {
	slices.SortFunc(bills, func(a, b domain.SaleBill) int {
		if a.Date.Equal(b.Date) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
}

func (s *Store) CountSaleBillsByUser(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, bill := range s.saleBills {
		if bill.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateReminder(_ context.Context, reminder domain.Reminder) (*domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reminder.ID == "" || reminder.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	s.reminders[reminder.ID] = reminder
	created := reminder
	return &created, nil
}

func (s *Store) ListReminders(_ context.Context, userID string) ([]domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Reminder, 0)
	for _, r := range s.reminders {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	slices.SortFunc(result, func(a, b domain.Reminder) int {
		if a.DueDate.Equal(b.DueDate) {
			return strings.Compare(a.ID, b.ID)
		}
		if a.DueDate.Before(b.DueDate) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) DeleteReminder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reminders, id)
	return nil
}

func (s *Store) MarkReminderSent(_ context.Context, id string) (*domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminder, ok := s.reminders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	reminder.Sent = true
	s.reminders[id] = reminder
	updated := reminder
	return &updated, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" || expense.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	s.expenses[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, func(a, b domain.Expense) int {
		if a.Date.Equal(b.Date) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expenses, id)
	return nil
}

func (s *Store) CreateInventoryItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" || item.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	s.inventory[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetInventoryItemByID(_ context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.inventory[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := item
	return &found, nil
}

func (s *Store) UpdateInventoryItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inventory[item.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.inventory[item.ID] = item
	updated := item
	return &updated, nil
}

func (s *Store) ListInventory(_ context.Context, userID string) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.InventoryItem, 0)
	for _, item := range s.inventory {
		if item.UserID == userID {
			result = append(result, item)
		}
	}
	slices.SortFunc(result, func(a, b domain.InventoryItem) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return result, nil
}

func (s *Store) DeleteInventoryItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inventory, id)
	return nil
}

func (s *Store) Snapshot(ctx context.Context) (*domain.BackupArchive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	archive := &domain.BackupArchive{
		Users:        make([]domain.User, 0, len(s.usersByID)),
		Customers:    make([]domain.Customer, 0, len(s.customers)),
		Transactions: make([]domain.Transaction, 0, len(s.transactions)),
		SaleBills:    make([]domain.SaleBill, 0, len(s.saleBills)),
		Reminders:    make([]domain.Reminder, 0, len(s.reminders)),
		Expenses:     make([]domain.Expense, 0, len(s.expenses)),
		Inventory:    make([]domain.InventoryItem, 0, len(s.inventory)),
	}
	for _, u := range s.usersByID {
		archive.Users = append(archive.Users, u)
	}
	for _, c := range s.customers {
		archive.Customers = append(archive.Customers, c)
	}
	for _, tx := range s.transactions {
		archive.Transactions = append(archive.Transactions, tx)
	}
	for _, bill := range s.saleBills {
		b := bill
		b.Items = slices.Clone(bill.Items)
		archive.SaleBills = append(archive.SaleBills, b)
	}
	for _, r := range s.reminders {
		archive.Reminders = append(archive.Reminders, r)
	}
	for _, e := range s.expenses {
		archive.Expenses = append(archive.Expenses, e)
	}
	for _, item := range s.inventory {
		archive.Inventory = append(archive.Inventory, item)
	}

	slices.SortFunc(archive.Users, func(a, b domain.User) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(archive.Customers, func(a, b domain.Customer) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(archive.Transactions, func(a, b domain.Transaction) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(archive.SaleBills, func(a, b domain.SaleBill) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(archive.Reminders, func(a, b domain.Reminder) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(archive.Expenses, func(a, b domain.Expense) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(archive.Inventory, func(a, b domain.InventoryItem) int { return strings.Compare(a.ID, b.ID) })

	return archive, nil
}

func (s *Store) Restore(_ context.Context, archive domain.BackupArchive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usersByID = make(map[string]domain.User, len(archive.Users))
	s.usersByEmail = make(map[string]string, len(archive.Users))
	s.customers = make(map[string]domain.Customer, len(archive.Customers))
	s.transactions = make(map[string]domain.Transaction, len(archive.Transactions))
	s.saleBills = make(map[string]domain.SaleBill, len(archive.SaleBills))
	s.reminders = make(map[string]domain.Reminder, len(archive.Reminders))
	s.expenses = make(map[string]domain.Expense, len(archive.Expenses))
	s.inventory = make(map[string]domain.InventoryItem, len(archive.Inventory))

	for _, u := range archive.Users {
		u.Email = normalizeEmail(u.Email)
		s.usersByID[u.ID] = u
		s.usersByEmail[u.Email] = u.ID
	}
	for _, c := range archive.Customers {
		s.customers[c.ID] = c
	}
	for _, tx := range archive.Transactions {
		s.transactions[tx.ID] = tx
	}
	for _, bill := range archive.SaleBills {
		bill.Items = slices.Clone(bill.Items)
		s.saleBills[bill.ID] = bill
	}
	for _, r := range archive.Reminders {
		s.reminders[r.ID] = r
	}
	for _, e := range archive.Expenses {
		s.expenses[e.ID] = e
	}
	for _, item := range archive.Inventory {
		s.inventory[item.ID] = item
	}
	return nil
}
