package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCredit   = "credit"
)

const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
)

const (
	ReferenceSale       = "sale"
	ReferencePurchase   = "purchase"
	ReferencePayment    = "payment"
	ReferenceExpense    = "expense"
	ReferenceAdjustment = "adjustment"
)

const (
	PaymentTypeReceivable = "receivable"
	PaymentTypePayable    = "payable"
)

const (
	CategoryFuel      = "fuel"
	CategoryLubricant = "lubricant"
	CategoryOther     = "other"
)

const (
	AccountAsset     = "asset"
	AccountLiability = "liability"
	AccountEquity    = "equity"
	AccountRevenue   = "revenue"
	AccountExpense   = "expense"
)

const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusReceived  = "received"
	PurchaseStatusCancelled = "cancelled"
)

const (
	AgingReceivable = "receivable"
	AgingPayable    = "payable"
)

type Station struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is the internal persistence model for auth credentials.
// Password always holds a bcrypt hash once the account has been stored.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	StationID string
	Active    bool
	CreatedAt time.Time
}

// Actor is the authenticated caller carried through request context.
// StationID is empty for admins, which grants access to every station.
type Actor struct {
	Username  string
	Role      string
	StationID string
}

type Product struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

type Tank struct {
	ID           string          `json:"id"`
	StationID    string          `json:"station_id"`
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Capacity     decimal.Decimal `json:"capacity"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Pump struct {
	ID        string    `json:"id"`
	StationID string    `json:"station_id"`
	TankID    string    `json:"tank_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type PumpReading struct {
	ID             string          `json:"id"`
	PumpID         string          `json:"pump_id"`
	ReadingDate    time.Time       `json:"reading_date"`
	OpeningReading decimal.Decimal `json:"opening_reading"`
	ClosingReading decimal.Decimal `json:"closing_reading"`
	RecordedBy     string          `json:"recorded_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Customer struct {
	ID                string          `json:"id"`
	StationID         string          `json:"station_id"`
	Name              string          `json:"name"`
	Phone             string          `json:"phone,omitempty"`
	Email             string          `json:"email,omitempty"`
	CreditLimit       decimal.Decimal `json:"credit_limit"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	CreatedAt         time.Time       `json:"created_at"`
}

type Supplier struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Phone             string          `json:"phone,omitempty"`
	Email             string          `json:"email,omitempty"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	CreatedAt         time.Time       `json:"created_at"`
}

type Account struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// StationSettings carries per-station billing defaults. TaxRate is a
// percentage (10 means 10%), not a fraction.
type StationSettings struct {
	StationID     string          `json:"station_id"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Currency      string          `json:"currency"`
	ReceiptFooter string          `json:"receipt_footer,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type SalesTransaction struct {
	ID                string          `json:"id"`
	InvoiceNumber     string          `json:"invoice_number"`
	StationID         string          `json:"station_id"`
	CustomerID        string          `json:"customer_id,omitempty"`
	Cashier           string          `json:"cashier"`
	PaymentMethod     string          `json:"payment_method"`
	Currency          string          `json:"currency"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	Items             []SalesItem     `json:"items"`
}

type SalesItem struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	TankID        string          `json:"tank_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type PurchaseOrder struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	StationID         string          `json:"station_id"`
	SupplierID        string          `json:"supplier_id"`
	CreatedBy         string          `json:"created_by"`
	Status            string          `json:"status"`
	PaymentMethod     string          `json:"payment_method"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	ReceivedAt        *time.Time      `json:"received_at,omitempty"`
	ReceivedBy        string          `json:"received_by,omitempty"`
	Items             []PurchaseItem  `json:"items"`
}

type PurchaseItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	TankID    string          `json:"tank_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// StockMovement is an append-only audit row: tank stock is never mutated
// except alongside the creation of one of these.
type StockMovement struct {
	ID            string          `json:"id"`
	TankID        string          `json:"tank_id"`
	MovementType  string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Expense struct {
	ID          string          `json:"id"`
	StationID   string          `json:"station_id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	ExpenseDate time.Time       `json:"expense_date"`
	RecordedBy  string          `json:"recorded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Payment struct {
	ID          string          `json:"id"`
	StationID   string          `json:"station_id"`
	PaymentType string          `json:"payment_type"`
	CustomerID  string          `json:"customer_id,omitempty"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type JournalEntry struct {
	ID            string        `json:"id"`
	EntryNumber   string        `json:"entry_number"`
	StationID     string        `json:"station_id"`
	EntryDate     time.Time     `json:"entry_date"`
	Description   string        `json:"description,omitempty"`
	ReferenceType string        `json:"reference_type,omitempty"`
	ReferenceID   string        `json:"reference_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Lines         []JournalLine `json:"lines"`
}

type JournalLine struct {
	ID          string          `json:"id"`
	EntryID     string          `json:"entry_id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo,omitempty"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	StationID  string    `json:"station_id"`
	Actor      string    `json:"actor"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Balanced reports whether the entry's debits equal its credits.
func (e JournalEntry) Balanced() bool {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit.Equal(credit)
}
