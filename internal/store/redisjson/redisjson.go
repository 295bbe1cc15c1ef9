// Package redisjson keeps each entity collection as one JSON array under a
// fixed logical key (users, customers, transactions, saleBills, reminders,
// expenses, inventory). The access discipline is read the whole collection,
// mutate in memory, write the whole collection back. A corrupt or missing
// blob decodes as an empty collection. This layout assumes a single logical
// writer; concurrent writers are last-write-wins at collection granularity.
package redisjson

import (
	"context"
	"encoding/json"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
)

const (
	keyUsers        = "users"
	keyCustomers    = "customers"
	keyTransactions = "transactions"
	keySaleBills    = "saleBills"
	keyReminders    = "reminders"
	keyExpenses     = "expenses"
	keyInventory    = "inventory"
)

type Store struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "kb:"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// readList decodes a collection blob. Missing keys and malformed JSON both
// degrade to an empty collection rather than an error.
func readList[T any](ctx context.Context, s *Store, name string) ([]T, error) {
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err == redis.Nil {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []T
	if jsonErr := json.Unmarshal([]byte(val), &items); jsonErr != nil {
		return []T{}, nil
	}
	return items, nil
}

func writeList[T any](ctx context.Context, s *Store, name string, items []T) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(name), payload, 0).Err()
}

// writeLists flushes several collections in one pipeline so a multi-entity
// mutation lands as a single round trip.
func (s *Store) writeLists(ctx context.Context, payloads map[string]any) error {
	pipe := s.client.TxPipeline()
	for name, items := range payloads {
		blob, err := json.Marshal(items)
		if err != nil {
			return err
		}
		pipe.Set(ctx, s.key(name), blob, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.ID == "" || strings.TrimSpace(user.Email) == "" {
		return nil, store.ErrInvalidInput
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	users, err := readList[domain.User](ctx, s, keyUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == user.Email {
			return nil, store.ErrDuplicate
		}
	}
	users = append(users, user)
	if err := writeList(ctx, s, keyUsers, users); err != nil {
		return nil, err
	}
	created := user
	return &created, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := readList[domain.User](ctx, s, keyUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := readList[domain.User](ctx, s, keyUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	users, err := readList[domain.User](ctx, s, keyUsers)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		if u.ID == user.ID {
			user.Email = u.Email
			users[i] = user
			if err := writeList(ctx, s, keyUsers, users); err != nil {
				return nil, err
			}
			updated := user
			return &updated, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	return readList[domain.User](ctx, s, keyUsers)
}

// --- Customers ---

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	customers, err := readList[domain.Customer](ctx, s, keyCustomers)
	if err != nil {
		return nil, err
	}
	customers = append(customers, customer)
	if err := writeList(ctx, s, keyCustomers, customers); err != nil {
		return nil, err
	}
	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	customers, err := readList[domain.Customer](ctx, s, keyCustomers)
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	customers, err := readList[domain.Customer](ctx, s, keyCustomers)
	if err != nil {
		return nil, err
	}
	for i, c := range customers {
		if c.ID == customer.ID {
			customers[i] = customer
			if err := writeList(ctx, s, keyCustomers, customers); err != nil {
				return nil, err
			}
			updated := customer
			return &updated, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListCustomers(ctx context.Context, userID string) ([]domain.Customer, error) {
	customers, err := readList[domain.Customer](ctx, s, keyCustomers)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Customer, 0, len(customers))
	for _, c := range customers {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	customers, err := readList[domain.Customer](ctx, s, keyCustomers)
	if err != nil {
		return err
	}
	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return err
	}
	reminders, err := readList[domain.Reminder](ctx, s, keyReminders)
	if err != nil {
		return err
	}

	keptCustomers := make([]domain.Customer, 0, len(customers))
	for _, c := range customers {
		if c.ID != id {
			keptCustomers = append(keptCustomers, c)
		}
	}
	keptTxs := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.CustomerID != id {
			keptTxs = append(keptTxs, tx)
		}
	}
	keptReminders := make([]domain.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.CustomerID != id {
			keptReminders = append(keptReminders, r)
		}
	}

	return s.writeLists(ctx, map[string]any{
		keyCustomers:    keptCustomers,
		keyTransactions: keptTxs,
		keyReminders:    keptReminders,
	})
}

// --- Transactions ---

func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.ID == "" || tx.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return nil, err
	}
	transactions = append(transactions, tx)
	if err := writeList(ctx, s, keyTransactions, transactions); err != nil {
		return nil, err
	}
	created := tx
	return &created, nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return nil, err
	}
	for _, tx := range transactions {
		if tx.ID == id {
			found := tx
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return nil, err
	}
	for i, existing := range transactions {
		if existing.ID == tx.ID {
			transactions[i] = tx
			if err := writeList(ctx, s, keyTransactions, transactions); err != nil {
				return nil, err
			}
			updated := tx
			return &updated, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return err
	}
	kept := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	return writeList(ctx, s, keyTransactions, kept)
}

func (s *Store) ListTransactionsByCustomer(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.CustomerID == customerID {
			result = append(result, tx)
		}
	}
	sortTransactionsDateDesc(result)
	return result, nil
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	sortTransactionsDateDesc(result)
	return result, nil
}

// --- Sale bills ---

func (s *Store) CreateSaleBill(ctx context.Context, bill domain.SaleBill, linked *domain.Transaction) (*domain.SaleBill, error) {
	if bill.ID == "" || bill.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	bills, err := readList[domain.SaleBill](ctx, s, keySaleBills)
	if err != nil {
		return nil, err
	}
	payloads := map[string]any{}
	if linked != nil {
		if linked.ID == "" {
			return nil, store.ErrInvalidInput
		}
		transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
		if err != nil {
			return nil, err
		}
		bill.TransactionID = linked.ID
		payloads[keyTransactions] = append(transactions, *linked)
	}
	payloads[keySaleBills] = append(bills, bill)
	if err := s.writeLists(ctx, payloads); err != nil {
		return nil, err
	}
	created := bill
	return &created, nil
}

func (s *Store) GetSaleBillByID(ctx context.Context, id string) (*domain.SaleBill, error) {
	bills, err := readList[domain.SaleBill](ctx, s, keySaleBills)
	if err != nil {
		return nil, err
	}
	for _, bill := range bills {
		if bill.ID == id {
			found := bill
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateSaleBill(ctx context.Context, bill domain.SaleBill, linked *domain.Transaction, removeTxID string) (*domain.SaleBill, error) {
	bills, err := readList[domain.SaleBill](ctx, s, keySaleBills)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, b := range bills {
		if b.ID == bill.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, store.ErrNotFound
	}
	bills[idx] = bill

	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return nil, err
	}
	if removeTxID != "" {
		kept := make([]domain.Transaction, 0, len(transactions))
		for _, tx := range transactions {
			if tx.ID != removeTxID {
				kept = append(kept, tx)
			}
		}
		transactions = kept
	}
	if linked != nil {
		replaced := false
		for i, tx := range transactions {
			if tx.ID == linked.ID {
				transactions[i] = *linked
				replaced = true
				break
			}
		}
		if !replaced {
			transactions = append(transactions, *linked)
		}
	}

	if err := s.writeLists(ctx, map[string]any{
		keySaleBills:    bills,
		keyTransactions: transactions,
	}); err != nil {
		return nil, err
	}
	updated := bill
	return &updated, nil
}

func (s *Store) DeleteSaleBill(ctx context.Context, id string) error {
	bills, err := readList[domain.SaleBill](ctx, s, keySaleBills)
	if err != nil {
		return err
	}
	removeTxID := ""
	kept := make([]domain.SaleBill, 0, len(bills))
	for _, bill := range bills {
		if bill.ID == id {
			removeTxID = bill.TransactionID
			continue
		}
		kept = append(kept, bill)
	}

	payloads := map[string]any{keySaleBills: kept}
	if removeTxID != "" {
		transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
		if err != nil {
			return err
		}
		keptTxs := make([]domain.Transaction, 0, len(transactions))
		for _, tx := range transactions {
			if tx.ID != removeTxID {
				keptTxs = append(keptTxs, tx)
			}
		}
		payloads[keyTransactions] = keptTxs
	}
	return s.writeLists(ctx, payloads)
}

func (s *Store) ListSaleBillsByCustomer(ctx context.Context, customerID string) ([]domain.SaleBill, error) {
	bills, err := readList[domain.SaleBill](ctx, s, keySaleBills)
	if err != nil {
		return nil, err
	}
	result := make([]domain.SaleBill, 0, len(bills))
	for _, bill := range bills {
		if bill.CustomerID == customerID {
			result = append(result, bill)
		}
	}
	sortSaleBillsDateDesc(result)
	return result, nil
}

func (s *Store) ListSaleBillsByUser(ctx context.Context, userID string) ([]domain.SaleBill, error) {
	bills, err := readList[domain.SaleBill](ctx, s, keySaleBills)
	if err != nil {
		return nil, err
	}
	result := make([]domain.SaleBill, 0, len(bills))
	for _, bill := range bills {
		if bill.UserID == userID {
			result = append(result, bill)
		}
	}
	sortSaleBillsDateDesc(result)
	return result, nil
}

func (s *Store) CountSaleBillsByUser(ctx context.Context, userID string) (int, error) {
	bills, err := readList[domain.SaleBill](ctx, s, keySaleBills)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, bill := range bills {
		if bill.UserID == userID {
			count++
		}
	}
	return count, nil
}

// --- Reminders ---

func (s *Store) CreateReminder(ctx context.Context, reminder domain.Reminder) (*domain.Reminder, error) {
	if reminder.ID == "" || reminder.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	reminders, err := readList[domain.Reminder](ctx, s, keyReminders)
	if err != nil {
		return nil, err
	}
	reminders = append(reminders, reminder)
	if err := writeList(ctx, s, keyReminders, reminders); err != nil {
		return nil, err
	}
	created := reminder
	return &created, nil
}

func (s *Store) ListReminders(ctx context.Context, userID string) ([]domain.Reminder, error) {
	reminders, err := readList[domain.Reminder](ctx, s, keyReminders)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	sortRemindersDueDateAsc(result)
	return result, nil
}

func (s *Store) DeleteReminder(ctx context.Context, id string) error {
	reminders, err := readList[domain.Reminder](ctx, s, keyReminders)
	if err != nil {
		return err
	}
	kept := make([]domain.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return writeList(ctx, s, keyReminders, kept)
}

func (s *Store) MarkReminderSent(ctx context.Context, id string) (*domain.Reminder, error) {
	reminders, err := readList[domain.Reminder](ctx, s, keyReminders)
	if err != nil {
		return nil, err
	}
	for i, r := range reminders {
		if r.ID == id {
			reminders[i].Sent = true
			if err := writeList(ctx, s, keyReminders, reminders); err != nil {
				return nil, err
			}
			updated := reminders[i]
			return &updated, nil
		}
	}
	return nil, store.ErrNotFound
}

// --- Expenses ---

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" || expense.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	expenses, err := readList[domain.Expense](ctx, s, keyExpenses)
	if err != nil {
		return nil, err
	}
	expenses = append(expenses, expense)
	if err := writeList(ctx, s, keyExpenses, expenses); err != nil {
		return nil, err
	}
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error) {
	expenses, err := readList[domain.Expense](ctx, s, keyExpenses)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	sortExpensesDateDesc(result)
	return result, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	expenses, err := readList[domain.Expense](ctx, s, keyExpenses)
	if err != nil {
		return err
	}
	kept := make([]domain.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return writeList(ctx, s, keyExpenses, kept)
}

// --- Inventory ---

func (s *Store) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if item.ID == "" || item.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	inventory, err := readList[domain.InventoryItem](ctx, s, keyInventory)
	if err != nil {
		return nil, err
	}
	inventory = append(inventory, item)
	if err := writeList(ctx, s, keyInventory, inventory); err != nil {
		return nil, err
	}
	created := item
	return &created, nil
}

func (s *Store) GetInventoryItemByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	inventory, err := readList[domain.InventoryItem](ctx, s, keyInventory)
	if err != nil {
		return nil, err
	}
	for _, item := range inventory {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	inventory, err := readList[domain.InventoryItem](ctx, s, keyInventory)
	if err != nil {
		return nil, err
	}
	for i, existing := range inventory {
		if existing.ID == item.ID {
			inventory[i] = item
			if err := writeList(ctx, s, keyInventory, inventory); err != nil {
				return nil, err
			}
			updated := item
			return &updated, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	inventory, err := readList[domain.InventoryItem](ctx, s, keyInventory)
	if err != nil {
		return nil, err
	}
	result := make([]domain.InventoryItem, 0, len(inventory))
	for _, item := range inventory {
		if item.UserID == userID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (s *Store) DeleteInventoryItem(ctx context.Context, id string) error {
	inventory, err := readList[domain.InventoryItem](ctx, s, keyInventory)
	if err != nil {
		return err
	}
	kept := make([]domain.InventoryItem, 0, len(inventory))
	for _, item := range inventory {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	return writeList(ctx, s, keyInventory, kept)
}

// --- Backup ---

func (s *Store) Snapshot(ctx context.Context) (*domain.BackupArchive, error) {
	users, err := readList[domain.User](ctx, s, keyUsers)
	if err != nil {
		return nil, err
	}
	customers, err := readList[domain.Customer](ctx, s, keyCustomers)
	if err != nil {
		return nil, err
	}
	transactions, err := readList[domain.Transaction](ctx, s, keyTransactions)
	if err != nil {
		return nil, err
	}
	bills, err := readList[domain.SaleBill](ctx, s, keySaleBills)
	if err != nil {
		return nil, err
	}
	reminders, err := readList[domain.Reminder](ctx, s, keyReminders)
	if err != nil {
		return nil, err
	}
	expenses, err := readList[domain.Expense](ctx, s, keyExpenses)
	if err != nil {
		return nil, err
	}
	inventory, err := readList[domain.InventoryItem](ctx, s, keyInventory)
	if err != nil {
		return nil, err
	}

	return &domain.BackupArchive{
		Users:        users,
		Customers:    customers,
		Transactions: transactions,
		SaleBills:    bills,
		Reminders:    reminders,
		Expenses:     expenses,
		Inventory:    inventory,
	}, nil
}

// Restore overwrites every collection key verbatim in one pipeline.
func (s *Store) Restore(ctx context.Context, archive domain.BackupArchive) error {
	return s.writeLists(ctx, map[string]any{
		keyUsers:        archive.Users,
		keyCustomers:    archive.Customers,
		keyTransactions: archive.Transactions,
		keySaleBills:    archive.SaleBills,
		keyReminders:    archive.Reminders,
		keyExpenses:     archive.Expenses,
		keyInventory:    archive.Inventory,
	})
}
