package store

import (
	"context"
	"errors"

	"bahikhata/backend/internal/domain"
)

var (
	// ErrNotFound is the soft failure for every lookup by id. Callers check
	// for it with errors.Is; nothing in the core treats it as fatal.
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("already exists")
)

// Repository is the persistence port. Every implementation must make the
// multi-entity operations (CreateSaleBill, DeleteSaleBill with its linked
// transaction, DeleteCustomer with its children) atomic from the caller's
// point of view: a single critical section, SQL transaction, or write batch.
type Repository interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	ListCustomers(ctx context.Context, userID string) ([]domain.Customer, error)
	// DeleteCustomer removes the customer together with all of its
	// transactions and reminders. Deleting an unknown id is a no-op.
	DeleteCustomer(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactionsByCustomer(ctx context.Context, customerID string) ([]domain.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error)

	// CreateSaleBill persists the bill and, when linked is non-nil, the
	// linked due transaction in the same commit boundary. The stored bill
	// carries the created transaction's id.
	CreateSaleBill(ctx context.Context, bill domain.SaleBill, linked *domain.Transaction) (*domain.SaleBill, error)
	GetSaleBillByID(ctx context.Context, id string) (*domain.SaleBill, error)
	// UpdateSaleBill rewrites the bill and applies the linked-transaction
	// change alongside it: create when linked is non-nil and the bill had
	// none, update when ids match, delete removeTxID when set.
	UpdateSaleBill(ctx context.Context, bill domain.SaleBill, linked *domain.Transaction, removeTxID string) (*domain.SaleBill, error)
	DeleteSaleBill(ctx context.Context, id string) error
	ListSaleBillsByCustomer(ctx context.Context, customerID string) ([]domain.SaleBill, error)
	ListSaleBillsByUser(ctx context.Context, userID string) ([]domain.SaleBill, error)
	CountSaleBillsByUser(ctx context.Context, userID string) (int, error)

	CreateReminder(ctx context.Context, reminder domain.Reminder) (*domain.Reminder, error)
	ListReminders(ctx context.Context, userID string) ([]domain.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	MarkReminderSent(ctx context.Context, id string) (*domain.Reminder, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	GetInventoryItemByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	ListInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id string) error

	// Snapshot and Restore move the whole dataset for backup files.
	// Restore overwrites every collection verbatim.
	Snapshot(ctx context.Context) (*domain.BackupArchive, error)
	Restore(ctx context.Context, archive domain.BackupArchive) error
}
