package domain

import "github.com/shopspring/decimal"

type SalesByMethod struct {
	PaymentMethod string          `json:"payment_method"`
	Transactions  int64           `json:"transactions"`
	Total         decimal.Decimal `json:"total"`
}

type SalesByProduct struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

type ExpensesByCategory struct {
	Category string          `json:"category"`
	Count    int64           `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

type CashFlowSummary struct {
	CashIn  decimal.Decimal `json:"cash_in"`
	CashOut decimal.Decimal `json:"cash_out"`
	Net     decimal.Decimal `json:"net"`
}

type DailyReport struct {
	StationID          string               `json:"station_id"`
	Date               string               `json:"date"`
	Transactions       int64                `json:"transactions"`
	GrossSales         decimal.Decimal      `json:"gross_sales"`
	TaxCollected       decimal.Decimal      `json:"tax_collected"`
	SalesByMethod      []SalesByMethod      `json:"sales_by_method"`
	SalesByProduct     []SalesByProduct     `json:"sales_by_product"`
	ExpensesByCategory []ExpensesByCategory `json:"expenses_by_category"`
	TotalReceivables   decimal.Decimal      `json:"total_receivables"`
	TotalPayables      decimal.Decimal      `json:"total_payables"`
	CashFlow           CashFlowSummary      `json:"cash_flow"`
}

type AccountTypeTotal struct {
	AccountType string          `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type FinancialReport struct {
	StationID string             `json:"station_id"`
	From      string             `json:"from"`
	To        string             `json:"to"`
	Revenue   decimal.Decimal    `json:"revenue"`
	Expenses  decimal.Decimal    `json:"expenses"`
	Net       decimal.Decimal    `json:"net"`
	ByType    []AccountTypeTotal `json:"by_account_type"`
}

type AgingBucket struct {
	PartyID     string          `json:"party_id"`
	PartyName   string          `json:"party_name"`
	Current     decimal.Decimal `json:"current"`
	Days31To60  decimal.Decimal `json:"days_31_to_60"`
	Days61To90  decimal.Decimal `json:"days_61_to_90"`
	Over90Days  decimal.Decimal `json:"over_90_days"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type AgingReport struct {
	StationID string        `json:"station_id"`
	Side      string        `json:"side"`
	AsOf      string        `json:"as_of"`
	Buckets   []AgingBucket `json:"buckets"`
}

type BalanceDrift struct {
	PartyType string          `json:"party_type"`
	PartyID   string          `json:"party_id"`
	PartyName string          `json:"party_name"`
	Stored    decimal.Decimal `json:"stored"`
	Computed  decimal.Decimal `json:"computed"`
	Drift     decimal.Decimal `json:"drift"`
}

type ReconciliationResult struct {
	StationID string         `json:"station_id"`
	Applied   bool           `json:"applied"`
	CheckedAt string         `json:"checked_at"`
	Drifts    []BalanceDrift `json:"drifts"`
}
