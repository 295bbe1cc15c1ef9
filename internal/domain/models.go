package domain

import "time"

// TransactionKind carries the sign of a ledger entry. Amounts are always
// positive; the kind decides whether they add to or subtract from a balance.
type TransactionKind string

const (
	KindGave TransactionKind = "gave" // credit extended, customer owes the business
	KindGot  TransactionKind = "got"  // payment received from the customer
)

func (k TransactionKind) Valid() bool {
	return k == KindGave || k == KindGot
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentGPay PaymentMethod = "gpay"
	PaymentCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == "" || m == PaymentCash || m == PaymentGPay || m == PaymentCard
}

// RoundingMode selects how a bill total is rounded to a whole currency unit.
// Round-off is never applied unless the caller asks for it.
type RoundingMode string

const (
	RoundNone    RoundingMode = ""
	RoundNearest RoundingMode = "nearest"
	RoundUp      RoundingMode = "up"
	RoundDown    RoundingMode = "down"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// Password holds the bcrypt hash. JSON-backed stores and backup archives
	// serialize it; anything leaving the API goes through Redacted first.
	Password     string `json:"password_hash,omitempty"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address,omitempty"`
	GSTNumber    string `json:"gst_number,omitempty"`
}

// Redacted returns a copy safe for API responses, with the hash cleared.
func (u User) Redacted() User {
	u.Password = ""
	return u
}

type ProfileUpdateRequest struct {
	BusinessName *string `json:"business_name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	GSTNumber    *string `json:"gst_number,omitempty"`
}

type Customer struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type CustomerUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

type Transaction struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	UserID        string          `json:"user_id"`
	Amount        float64         `json:"amount"`
	Kind          TransactionKind `json:"kind"`
	Note          string          `json:"note"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
}

type TransactionCreateRequest struct {
	CustomerID    string          `json:"customer_id"`
	Amount        float64         `json:"amount"`
	Kind          TransactionKind `json:"kind"`
	Note          string          `json:"note,omitempty"`
	Date          time.Time       `json:"date"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
}

type TransactionUpdateRequest struct {
	Amount        *float64         `json:"amount,omitempty"`
	Kind          *TransactionKind `json:"kind,omitempty"`
	Note          *string          `json:"note,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	PaymentMethod *PaymentMethod   `json:"payment_method,omitempty"`
}

// SaleItem is embedded in a bill, never stored on its own.
type SaleItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	GST      float64 `json:"gst,omitempty"` // percent, 0 when absent
}

type SaleBill struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	CustomerID    string        `json:"customer_id"`
	UserID        string        `json:"user_id"`
	Items         []SaleItem    `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	GSTAmount     float64       `json:"gst_amount"`
	Total         float64       `json:"total"`
	RoundOff      float64       `json:"round_off"`
	FinalTotal    float64       `json:"final_total"`
	Paid          float64       `json:"paid"`
	Date          time.Time     `json:"date"`
	CreatedAt     time.Time     `json:"created_at"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
}

// Due is the unpaid remainder of a bill.
func (b SaleBill) Due() float64 {
	return b.FinalTotal - b.Paid
}

type SaleBillCreateRequest struct {
	CustomerID    string        `json:"customer_id"`
	Items         []SaleItem    `json:"items"`
	Paid          float64       `json:"paid"`
	Date          time.Time     `json:"date"`
	Rounding      RoundingMode  `json:"rounding,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
}

type Reminder struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	UserID     string    `json:"user_id"`
	Amount     float64   `json:"amount"`
	DueDate    time.Time `json:"due_date"`
	Message    string    `json:"message"`
	Sent       bool      `json:"sent"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReminderCreateRequest struct {
	CustomerID string    `json:"customer_id"`
	Amount     float64   `json:"amount"`
	DueDate    time.Time `json:"due_date"`
	Message    string    `json:"message,omitempty"`
}

type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

type InventoryItem struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Quantity      int       `json:"quantity"`
	Unit          string    `json:"unit"`
	CostPrice     float64   `json:"cost_price"`
	SellingPrice  float64   `json:"selling_price"`
	LowStockAlert int       `json:"low_stock_alert"`
	CreatedAt     time.Time `json:"created_at"`
}

type InventoryUpdateRequest struct {
	Name          *string  `json:"name,omitempty"`
	Quantity      *int     `json:"quantity,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	CostPrice     *float64 `json:"cost_price,omitempty"`
	SellingPrice  *float64 `json:"selling_price,omitempty"`
	LowStockAlert *int     `json:"low_stock_alert,omitempty"`
}

type SignupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"business_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
	ExpiresAt   string `json:"expires_at"`
}

// Actor identifies the authenticated user on a request context.
type Actor struct {
	UserID string
	Email  string
}

// BackupArchive is the JSON union of every collection, the unit the backup
// encoder works on. Restoring overwrites all collections verbatim.
type BackupArchive struct {
	Users        []User          `json:"users"`
	Customers    []Customer      `json:"customers"`
	Transactions []Transaction   `json:"transactions"`
	SaleBills    []SaleBill      `json:"sale_bills"`
	Reminders    []Reminder      `json:"reminders"`
	Expenses     []Expense       `json:"expenses"`
	Inventory    []InventoryItem `json:"inventory"`
}
