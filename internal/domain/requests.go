package domain

import "github.com/shopspring/decimal"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	StationID   string `json:"station_id,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}

type UserCreateRequest struct {
	Username  string `json:"username" validate:"required,min=4"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required,oneof=admin manager cashier"`
	StationID string `json:"station_id,omitempty"`
}

type UserView struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	StationID string `json:"station_id,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

type PasswordUpdateRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type StationCreateRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
}

type ProductCreateRequest struct {
	SKU       string          `json:"sku" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Category  string          `json:"category" validate:"required,oneof=fuel lubricant other"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type ProductUpdateRequest struct {
	Name      *string          `json:"name,omitempty"`
	Category  *string          `json:"category,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Active    *bool            `json:"active,omitempty"`
}

type TankCreateRequest struct {
	StationID    string          `json:"station_id" validate:"required"`
	ProductID    string          `json:"product_id" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Capacity     decimal.Decimal `json:"capacity"`
	InitialStock decimal.Decimal `json:"initial_stock"`
}

// TankAdjustRequest carries a signed quantity: positive tops the tank up,
// negative draws it down.
type TankAdjustRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes,omitempty"`
}

type PumpCreateRequest struct {
	StationID string `json:"station_id" validate:"required"`
	TankID    string `json:"tank_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
}

type PumpReadingCreateRequest struct {
	PumpID         string          `json:"pump_id" validate:"required"`
	ReadingDate    string          `json:"reading_date" validate:"required"`
	OpeningReading decimal.Decimal `json:"opening_reading"`
	ClosingReading decimal.Decimal `json:"closing_reading"`
}

type CustomerCreateRequest struct {
	StationID   string          `json:"station_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Phone       string          `json:"phone,omitempty"`
	Email       string          `json:"email,omitempty" validate:"omitempty,email"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

type SupplierCreateRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type AccountCreateRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
}

type SettingsUpdateRequest struct {
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	ReceiptFooter *string          `json:"receipt_footer,omitempty"`
}

// SaleHeaderInput mirrors the dashboard payload: monetary totals are computed
// by the caller and verified, not re-derived, on this side.
type SaleHeaderInput struct {
	StationID         string          `json:"station_id" validate:"required"`
	CustomerID        string          `json:"customer_id,omitempty"`
	PaymentMethod     string          `json:"payment_method" validate:"required,oneof=cash card transfer credit"`
	Currency          string          `json:"currency,omitempty"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

type SaleItemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	TankID    string          `json:"tank_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type SaleCreateRequest struct {
	Transaction SaleHeaderInput `json:"transaction"`
	Items       []SaleItemInput `json:"items" validate:"min=1,dive"`
}

type SaleResponse struct {
	Transaction SalesTransaction `json:"transaction"`
	Items       []SalesItem      `json:"items"`
}

type PurchaseHeaderInput struct {
	StationID     string          `json:"station_id" validate:"required"`
	SupplierID    string          `json:"supplier_id" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card transfer credit"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

type PurchaseItemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	TankID    string          `json:"tank_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type PurchaseCreateRequest struct {
	Order PurchaseHeaderInput `json:"order"`
	Items []PurchaseItemInput `json:"items" validate:"min=1,dive"`
}

type PurchaseResponse struct {
	Order PurchaseOrder  `json:"order"`
	Items []PurchaseItem `json:"items"`
}

type ExpenseCreateRequest struct {
	StationID   string          `json:"station_id" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	ExpenseDate string          `json:"expense_date,omitempty"`
}

type PaymentCreateRequest struct {
	StationID   string          `json:"station_id" validate:"required"`
	PaymentType string          `json:"payment_type" validate:"required,oneof=receivable payable"`
	CustomerID  string          `json:"customer_id,omitempty"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required,oneof=cash card transfer"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

type JournalLineInput struct {
	AccountCode string          `json:"account_code" validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo,omitempty"`
}

type JournalEntryCreateRequest struct {
	StationID   string             `json:"station_id" validate:"required"`
	EntryDate   string             `json:"entry_date,omitempty"`
	Description string             `json:"description,omitempty"`
	Lines       []JournalLineInput `json:"lines" validate:"min=2,dive"`
}
