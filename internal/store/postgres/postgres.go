// Package postgres is the durable SQL Repository. Multi-entity mutations
// (bill + linked transaction, customer cascade) run inside one serializable
// transaction so the ledger invariants hold even if the process dies
// mid-operation.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			business_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			gst_number TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_user ON customers (user_id)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			kind TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			payment_method TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions (customer_id, date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id, date DESC)`,
		`CREATE TABLE IF NOT EXISTS sale_bills (
			id TEXT PRIMARY KEY,
			invoice_number TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			items JSONB NOT NULL DEFAULT '[]',
			subtotal DOUBLE PRECISION NOT NULL,
			gst_amount DOUBLE PRECISION NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			round_off DOUBLE PRECISION NOT NULL,
			final_total DOUBLE PRECISION NOT NULL,
			paid DOUBLE PRECISION NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			transaction_id TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_bills_customer ON sale_bills (customer_id, date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_bills_user ON sale_bills (user_id)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			due_date TIMESTAMPTZ NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			sent BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders (user_id, due_date)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			amount DOUBLE PRECISION NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			unit TEXT NOT NULL DEFAULT '',
			cost_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			selling_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			low_stock_alert INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.ID == "" || user.Email == "" {
		return nil, store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password, business_name, phone, address, gst_number)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, user.ID, user.Email, user.Password, user.BusinessName, user.Phone, user.Address, user.GSTNumber)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	created := user
	return &created, nil
}

func (s *Store) getUser(ctx context.Context, column string, value string) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password, business_name, phone, address, gst_number
		FROM users
		WHERE `+column+` = $1
	`, value).Scan(&user.ID, &user.Email, &user.Password, &user.BusinessName, &user.Phone, &user.Address, &user.GSTNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2, business_name = $3, phone = $4, address = $5, gst_number = $6
		WHERE id = $1
	`, user.ID, user.Password, user.BusinessName, user.Phone, user.Address, user.GSTNumber)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, password, business_name, phone, address, gst_number
		FROM users
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Password, &user.BusinessName, &user.Phone, &user.Address, &user.GSTNumber); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// --- Customers ---

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, user_id, name, phone, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, customer.ID, customer.UserID, customer.Name, customer.Phone, customer.Notes, customer.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, phone, notes, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.UserID, &customer.Name, &customer.Phone, &customer.Notes, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return &customer, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, phone = $3, notes = $4
		WHERE id = $1
	`, customer.ID, customer.Name, customer.Phone, customer.Notes)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := customer
	return &updated, nil
}

func (s *Store) ListCustomers(ctx context.Context, userID string) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, phone, notes, created_at
		FROM customers
		WHERE user_id = $1
		ORDER BY lower(name)
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.UserID, &customer.Name, &customer.Phone, &customer.Notes, &customer.CreatedAt); err != nil {
			return nil, err
		}
		customer.CreatedAt = customer.CreatedAt.UTC()
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE customer_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE customer_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Transactions ---

func insertTransaction(ctx context.Context, execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, tx domain.Transaction) error {
	_, err := execer.ExecContext(ctx, `
		INSERT INTO transactions (id, customer_id, user_id, amount, kind, note, date, created_at, payment_method)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tx.ID, tx.CustomerID, tx.UserID, tx.Amount, string(tx.Kind), tx.Note, tx.Date, tx.CreatedAt, string(tx.PaymentMethod))
	return err
}

func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.ID == "" || tx.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	if err := insertTransaction(ctx, s.db, tx); err != nil {
		return nil, err
	}
	created := tx
	return &created, nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	var kind, method string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, user_id, amount, kind, note, date, created_at, payment_method
		FROM transactions
		WHERE id = $1
	`, id).Scan(&tx.ID, &tx.CustomerID, &tx.UserID, &tx.Amount, &kind, &tx.Note, &tx.Date, &tx.CreatedAt, &method)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	tx.Kind = domain.TransactionKind(kind)
	tx.PaymentMethod = domain.PaymentMethod(method)
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = tx.CreatedAt.UTC()
	return &tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = $2, kind = $3, note = $4, date = $5, payment_method = $6
		WHERE id = $1
	`, tx.ID, tx.Amount, string(tx.Kind), tx.Note, tx.Date, string(tx.PaymentMethod))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := tx
	return &updated, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return err
}

func (s *Store) listTransactions(ctx context.Context, column string, value string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, user_id, amount, kind, note, date, created_at, payment_method
		FROM transactions
		WHERE `+column+` = $1
		ORDER BY date DESC, id
	`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Transaction, 0, 64)
	for rows.Next() {
		var tx domain.Transaction
		var kind, method string
		if err := rows.Scan(&tx.ID, &tx.CustomerID, &tx.UserID, &tx.Amount, &kind, &tx.Note, &tx.Date, &tx.CreatedAt, &method); err != nil {
			return nil, err
		}
		tx.Kind = domain.TransactionKind(kind)
		tx.PaymentMethod = domain.PaymentMethod(method)
		tx.Date = tx.Date.UTC()
		tx.CreatedAt = tx.CreatedAt.UTC()
		result = append(result, tx)
	}
	return result, rows.Err()
}

func (s *Store) ListTransactionsByCustomer(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	return s.listTransactions(ctx, "customer_id", customerID)
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.listTransactions(ctx, "user_id", userID)
}

// --- Sale bills ---

func (s *Store) CreateSaleBill(ctx context.Context, bill domain.SaleBill, linked *domain.Transaction) (*domain.SaleBill, error) {
	if bill.ID == "" || bill.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	items, err := json.Marshal(bill.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if linked != nil {
		if linked.ID == "" {
			return nil, store.ErrInvalidInput
		}
		bill.TransactionID = linked.ID
		if err := insertTransaction(ctx, tx, *linked); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sale_bills (id, invoice_number, customer_id, user_id, items, subtotal, gst_amount, total, round_off, final_total, paid, date, created_at, transaction_id, payment_method)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, bill.ID, bill.InvoiceNumber, bill.CustomerID, bill.UserID, items, bill.Subtotal, bill.GSTAmount, bill.Total, bill.RoundOff, bill.FinalTotal, bill.Paid, bill.Date, bill.CreatedAt, bill.TransactionID, string(bill.PaymentMethod))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := bill
	return &created, nil
}

func scanSaleBill(scanner interface{ Scan(dest ...any) error }) (*domain.SaleBill, error) {
	var bill domain.SaleBill
	var items []byte
	var method string
	err := scanner.Scan(&bill.ID, &bill.InvoiceNumber, &bill.CustomerID, &bill.UserID, &items, &bill.Subtotal, &bill.GSTAmount, &bill.Total, &bill.RoundOff, &bill.FinalTotal, &bill.Paid, &bill.Date, &bill.CreatedAt, &bill.TransactionID, &method)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &bill.Items); err != nil {
		bill.Items = []domain.SaleItem{}
	}
	bill.PaymentMethod = domain.PaymentMethod(method)
	bill.Date = bill.Date.UTC()
	bill.CreatedAt = bill.CreatedAt.UTC()
	return &bill, nil
}

const saleBillColumns = `id, invoice_number, customer_id, user_id, items, subtotal, gst_amount, total, round_off, final_total, paid, date, created_at, transaction_id, payment_method`

func (s *Store) GetSaleBillByID(ctx context.Context, id string) (*domain.SaleBill, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+saleBillColumns+` FROM sale_bills WHERE id = $1`, id)
	bill, err := scanSaleBill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return bill, nil
}

func (s *Store) UpdateSaleBill(ctx context.Context, bill domain.SaleBill, linked *domain.Transaction, removeTxID string) (*domain.SaleBill, error) {
	items, err := json.Marshal(bill.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE sale_bills
		SET items = $2, subtotal = $3, gst_amount = $4, total = $5, round_off = $6, final_total = $7, paid = $8, date = $9, transaction_id = $10, payment_method = $11
		WHERE id = $1
	`, bill.ID, items, bill.Subtotal, bill.GSTAmount, bill.Total, bill.RoundOff, bill.FinalTotal, bill.Paid, bill.Date, bill.TransactionID, string(bill.PaymentMethod))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	if removeTxID != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, removeTxID); err != nil {
			return nil, err
		}
	}
	if linked != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET amount = $2, kind = $3, note = $4, date = $5
			WHERE id = $1
		`, linked.ID, linked.Amount, string(linked.Kind), linked.Note, linked.Date)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			if err := insertTransaction(ctx, tx, *linked); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	updated := bill
	return &updated, nil
}

func (s *Store) DeleteSaleBill(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var linkedID string
	err = tx.QueryRowContext(ctx, `SELECT transaction_id FROM sale_bills WHERE id = $1`, id).Scan(&linkedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if linkedID != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, linkedID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_bills WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) listSaleBills(ctx context.Context, column string, value string) ([]domain.SaleBill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+saleBillColumns+`
		FROM sale_bills
		WHERE `+column+` = $1
		ORDER BY date DESC, id
	`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.SaleBill, 0, 32)
	for rows.Next() {
		bill, err := scanSaleBill(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *bill)
	}
	return result, rows.Err()
}

func (s *Store) ListSaleBillsByCustomer(ctx context.Context, customerID string) ([]domain.SaleBill, error) {
	return s.listSaleBills(ctx, "customer_id", customerID)
}

func (s *Store) ListSaleBillsByUser(ctx context.Context, userID string) ([]domain.SaleBill, error) {
	return s.listSaleBills(ctx, "user_id", userID)
}

func (s *Store) CountSaleBillsByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM sale_bills WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// --- Reminders ---

func (s *Store) CreateReminder(ctx context.Context, reminder domain.Reminder) (*domain.Reminder, error) {
	if reminder.ID == "" || reminder.CustomerID == "" {
		return nil, store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, customer_id, user_id, amount, due_date, message, sent, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, reminder.ID, reminder.CustomerID, reminder.UserID, reminder.Amount, reminder.DueDate, reminder.Message, reminder.Sent, reminder.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := reminder
	return &created, nil
}

func (s *Store) ListReminders(ctx context.Context, userID string) ([]domain.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, user_id, amount, due_date, message, sent, created_at
		FROM reminders
		WHERE user_id = $1
		ORDER BY due_date, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Reminder, 0, 32)
	for rows.Next() {
		var r domain.Reminder
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.UserID, &r.Amount, &r.DueDate, &r.Message, &r.Sent, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.DueDate = r.DueDate.UTC()
		r.CreatedAt = r.CreatedAt.UTC()
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) DeleteReminder(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	return err
}

func (s *Store) MarkReminderSent(ctx context.Context, id string) (*domain.Reminder, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE reminders SET sent = true WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	var r domain.Reminder
	err = s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, user_id, amount, due_date, message, sent, created_at
		FROM reminders
		WHERE id = $1
	`, id).Scan(&r.ID, &r.CustomerID, &r.UserID, &r.Amount, &r.DueDate, &r.Message, &r.Sent, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.DueDate = r.DueDate.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// --- Expenses ---

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" || expense.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, category, amount, description, date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, expense.ID, expense.UserID, expense.Category, expense.Amount, expense.Description, expense.Date, expense.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, amount, description, date, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Amount, &e.Description, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Date = e.Date.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	return err
}

// --- Inventory ---

func (s *Store) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if item.ID == "" || item.UserID == "" {
		return nil, store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, user_id, name, quantity, unit, cost_price, selling_price, low_stock_alert, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, item.ID, item.UserID, item.Name, item.Quantity, item.Unit, item.CostPrice, item.SellingPrice, item.LowStockAlert, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := item
	return &created, nil
}

func (s *Store) GetInventoryItemByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, quantity, unit, cost_price, selling_price, low_stock_alert, created_at
		FROM inventory_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Unit, &item.CostPrice, &item.SellingPrice, &item.LowStockAlert, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func (s *Store) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = $2, quantity = $3, unit = $4, cost_price = $5, selling_price = $6, low_stock_alert = $7
		WHERE id = $1
	`, item.ID, item.Name, item.Quantity, item.Unit, item.CostPrice, item.SellingPrice, item.LowStockAlert)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := item
	return &updated, nil
}

func (s *Store) ListInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, quantity, unit, cost_price, selling_price, low_stock_alert, created_at
		FROM inventory_items
		WHERE user_id = $1
		ORDER BY lower(name)
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.InventoryItem, 0, 64)
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Unit, &item.CostPrice, &item.SellingPrice, &item.LowStockAlert, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		result = append(result, item)
	}
	return result, rows.Err()
}

func (s *Store) DeleteInventoryItem(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	return err
}

// --- Backup ---

func (s *Store) Snapshot(ctx context.Context) (*domain.BackupArchive, error) {
	archive := &domain.BackupArchive{}

	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	archive.Users = users

	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, name, phone, notes, created_at FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Notes, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		archive.Customers = append(archive.Customers, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txRows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, user_id, amount, kind, note, date, created_at, payment_method
		FROM transactions ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	for txRows.Next() {
		var tx domain.Transaction
		var kind, method string
		if err := txRows.Scan(&tx.ID, &tx.CustomerID, &tx.UserID, &tx.Amount, &kind, &tx.Note, &tx.Date, &tx.CreatedAt, &method); err != nil {
			txRows.Close()
			return nil, err
		}
		tx.Kind = domain.TransactionKind(kind)
		tx.PaymentMethod = domain.PaymentMethod(method)
		tx.Date = tx.Date.UTC()
		tx.CreatedAt = tx.CreatedAt.UTC()
		archive.Transactions = append(archive.Transactions, tx)
	}
	txRows.Close()
	if err := txRows.Err(); err != nil {
		return nil, err
	}

	billRows, err := s.db.QueryContext(ctx, `SELECT `+saleBillColumns+` FROM sale_bills ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for billRows.Next() {
		bill, err := scanSaleBill(billRows)
		if err != nil {
			billRows.Close()
			return nil, err
		}
		archive.SaleBills = append(archive.SaleBills, *bill)
	}
	billRows.Close()
	if err := billRows.Err(); err != nil {
		return nil, err
	}

	remRows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, user_id, amount, due_date, message, sent, created_at
		FROM reminders ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	for remRows.Next() {
		var r domain.Reminder
		if err := remRows.Scan(&r.ID, &r.CustomerID, &r.UserID, &r.Amount, &r.DueDate, &r.Message, &r.Sent, &r.CreatedAt); err != nil {
			remRows.Close()
			return nil, err
		}
		r.DueDate = r.DueDate.UTC()
		r.CreatedAt = r.CreatedAt.UTC()
		archive.Reminders = append(archive.Reminders, r)
	}
	remRows.Close()
	if err := remRows.Err(); err != nil {
		return nil, err
	}

	expRows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, amount, description, date, created_at
		FROM expenses ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	for expRows.Next() {
		var e domain.Expense
		if err := expRows.Scan(&e.ID, &e.UserID, &e.Category, &e.Amount, &e.Description, &e.Date, &e.CreatedAt); err != nil {
			expRows.Close()
			return nil, err
		}
		e.Date = e.Date.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		archive.Expenses = append(archive.Expenses, e)
	}
	expRows.Close()
	if err := expRows.Err(); err != nil {
		return nil, err
	}

	invRows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, quantity, unit, cost_price, selling_price, low_stock_alert, created_at
		FROM inventory_items ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	for invRows.Next() {
		var item domain.InventoryItem
		if err := invRows.Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Unit, &item.CostPrice, &item.SellingPrice, &item.LowStockAlert, &item.CreatedAt); err != nil {
			invRows.Close()
			return nil, err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		archive.Inventory = append(archive.Inventory, item)
	}
	invRows.Close()
	if err := invRows.Err(); err != nil {
		return nil, err
	}

	return archive, nil
}

// Restore wipes every table and reloads it from the archive inside a single
// transaction.
func (s *Store) Restore(ctx context.Context, archive domain.BackupArchive) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"users", "customers", "transactions", "sale_bills", "reminders", "expenses", "inventory_items"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}

	for _, user := range archive.Users {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, email, password, business_name, phone, address, gst_number)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, user.ID, user.Email, user.Password, user.BusinessName, user.Phone, user.Address, user.GSTNumber); err != nil {
			return err
		}
	}
	for _, c := range archive.Customers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, user_id, name, phone, notes, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, c.ID, c.UserID, c.Name, c.Phone, c.Notes, c.CreatedAt); err != nil {
			return err
		}
	}
	for _, txn := range archive.Transactions {
		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
	}
	for _, bill := range archive.SaleBills {
		items, err := json.Marshal(bill.Items)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sale_bills (id, invoice_number, customer_id, user_id, items, subtotal, gst_amount, total, round_off, final_total, paid, date, created_at, transaction_id, payment_method)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`, bill.ID, bill.InvoiceNumber, bill.CustomerID, bill.UserID, items, bill.Subtotal, bill.GSTAmount, bill.Total, bill.RoundOff, bill.FinalTotal, bill.Paid, bill.Date, bill.CreatedAt, bill.TransactionID, string(bill.PaymentMethod)); err != nil {
			return err
		}
	}
	for _, r := range archive.Reminders {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reminders (id, customer_id, user_id, amount, due_date, message, sent, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, r.ID, r.CustomerID, r.UserID, r.Amount, r.DueDate, r.Message, r.Sent, r.CreatedAt); err != nil {
			return err
		}
	}
	for _, e := range archive.Expenses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, user_id, category, amount, description, date, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, e.ID, e.UserID, e.Category, e.Amount, e.Description, e.Date, e.CreatedAt); err != nil {
			return err
		}
	}
	for _, item := range archive.Inventory {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_items (id, user_id, name, quantity, unit, cost_price, selling_price, low_stock_alert, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, item.ID, item.UserID, item.Name, item.Quantity, item.Unit, item.CostPrice, item.SellingPrice, item.LowStockAlert, item.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
