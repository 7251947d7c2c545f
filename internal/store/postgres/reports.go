package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
)

func (s *Store) GetDailyReport(ctx context.Context, stationID string, from time.Time, to time.Time) (domain.DailyReport, error) {
	report := domain.DailyReport{
		StationID:          stationID,
		Date:               dayUTC(from).Format("2006-01-02"),
		SalesByMethod:      make([]domain.SalesByMethod, 0, 4),
		SalesByProduct:     make([]domain.SalesByProduct, 0, 8),
		ExpensesByCategory: make([]domain.ExpensesByCategory, 0, 8),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)::bigint, COALESCE(SUM(total_amount),0), COALESCE(SUM(tax_amount),0)
		FROM sales_transactions
		WHERE station_id = $1 AND created_at >= $2 AND created_at < $3
	`, stationID, from, to).Scan(&report.Transactions, &report.GrossSales, &report.TaxCollected)
	if err != nil {
		return report, err
	}

	methodRows, err := s.db.QueryContext(ctx, `
		SELECT payment_method, COUNT(*)::bigint, COALESCE(SUM(total_amount),0)
		FROM sales_transactions
		WHERE station_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY payment_method
		ORDER BY payment_method
	`, stationID, from, to)
	if err != nil {
		return report, err
	}
	for methodRows.Next() {
		var row domain.SalesByMethod
		if err := methodRows.Scan(&row.PaymentMethod, &row.Transactions, &row.Total); err != nil {
			_ = methodRows.Close()
			return report, err
		}
		report.SalesByMethod = append(report.SalesByMethod, row)
	}
	if err := methodRows.Err(); err != nil {
		_ = methodRows.Close()
		return report, err
	}
	_ = methodRows.Close()

	productRows, err := s.db.QueryContext(ctx, `
		SELECT i.product_id, p.name, COALESCE(SUM(i.quantity),0), COALESCE(SUM(i.total_price),0)
		FROM sales_items i
		JOIN sales_transactions t ON t.id = i.transaction_id
		JOIN products p ON p.id = i.product_id
		WHERE t.station_id = $1 AND t.created_at >= $2 AND t.created_at < $3
		GROUP BY i.product_id, p.name
		ORDER BY p.name
	`, stationID, from, to)
	if err != nil {
		return report, err
	}
	for productRows.Next() {
		var row domain.SalesByProduct
		if err := productRows.Scan(&row.ProductID, &row.ProductName, &row.Quantity, &row.Total); err != nil {
			_ = productRows.Close()
			return report, err
		}
		report.SalesByProduct = append(report.SalesByProduct, row)
	}
	if err := productRows.Err(); err != nil {
		_ = productRows.Close()
		return report, err
	}
	_ = productRows.Close()

	expenseRows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*)::bigint, COALESCE(SUM(amount),0)
		FROM expenses
		WHERE station_id = $1 AND expense_date >= $2 AND expense_date < $3
		GROUP BY category
		ORDER BY category
	`, stationID, dayUTC(from), dayUTC(to))
	if err != nil {
		return report, err
	}
	totalExpenses := decimal.Zero
	for expenseRows.Next() {
		var row domain.ExpensesByCategory
		if err := expenseRows.Scan(&row.Category, &row.Count, &row.Total); err != nil {
			_ = expenseRows.Close()
			return report, err
		}
		totalExpenses = totalExpenses.Add(row.Total)
		report.ExpensesByCategory = append(report.ExpensesByCategory, row)
	}
	if err := expenseRows.Err(); err != nil {
		_ = expenseRows.Close()
		return report, err
	}
	_ = expenseRows.Close()

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE((SELECT SUM(outstanding_amount) FROM customers WHERE station_id = $1), 0),
			COALESCE((SELECT SUM(outstanding_amount) FROM suppliers), 0)
	`, stationID).Scan(&report.TotalReceivables, &report.TotalPayables)
	if err != nil {
		return report, err
	}

	var cashSales, cashReceipts, cashPaid decimal.Decimal
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE((
				SELECT SUM(paid_amount) FROM sales_transactions
				WHERE station_id = $1 AND payment_method = 'cash' AND created_at >= $2 AND created_at < $3
			), 0),
			COALESCE((
				SELECT SUM(amount) FROM payments
				WHERE station_id = $1 AND payment_type = 'receivable' AND method = 'cash'
					AND created_at >= $2 AND created_at < $3
			), 0),
			COALESCE((
				SELECT SUM(amount) FROM payments
				WHERE station_id = $1 AND payment_type = 'payable' AND method = 'cash'
					AND created_at >= $2 AND created_at < $3
			), 0)
	`, stationID, from, to).Scan(&cashSales, &cashReceipts, &cashPaid)
	if err != nil {
		return report, err
	}

	report.CashFlow.CashIn = cashSales.Add(cashReceipts)
	report.CashFlow.CashOut = cashPaid.Add(totalExpenses)
	report.CashFlow.Net = report.CashFlow.CashIn.Sub(report.CashFlow.CashOut)
	return report, nil
}

func (s *Store) GetFinancialReport(ctx context.Context, stationID string, from time.Time, to time.Time) (domain.FinancialReport, error) {
	report := domain.FinancialReport{
		StationID: stationID,
		From:      dayUTC(from).Format("2006-01-02"),
		To:        dayUTC(to).Format("2006-01-02"),
		ByType:    make([]domain.AccountTypeTotal, 0, 5),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.type, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		JOIN accounts a ON a.code = l.account_code
		WHERE e.station_id = $1 AND e.entry_date >= $2 AND e.entry_date < $3
		GROUP BY a.type
		ORDER BY a.type
	`, stationID, dayUTC(from), dayUTC(to))
	if err != nil {
		return report, err
	}
	defer rows.Close()

	for rows.Next() {
		var row domain.AccountTypeTotal
		if err := rows.Scan(&row.AccountType, &row.Debit, &row.Credit); err != nil {
			return report, err
		}
		switch row.AccountType {
		case domain.AccountRevenue:
			report.Revenue = report.Revenue.Add(row.Credit.Sub(row.Debit))
		case domain.AccountExpense:
			report.Expenses = report.Expenses.Add(row.Debit.Sub(row.Credit))
		}
		report.ByType = append(report.ByType, row)
	}
	if err := rows.Err(); err != nil {
		return report, err
	}

	report.Net = report.Revenue.Sub(report.Expenses)
	return report, nil
}

// GetAgingReport buckets each open credit document by its age: 0-30, 31-60,
// 61-90 and 90+ days. Receivables age credit sales, payables age pending
// purchase credit.
func (s *Store) GetAgingReport(ctx context.Context, stationID string, side string, asOf time.Time) (domain.AgingReport, error) {
	report := domain.AgingReport{
		StationID: stationID,
		Side:      side,
		AsOf:      dayUTC(asOf).Format("2006-01-02"),
		Buckets:   make([]domain.AgingBucket, 0, 16),
	}

	var query string
	if side == domain.AgingPayable {
		query = `
			SELECT s.id, s.name, o.outstanding_amount, o.created_at
			FROM purchase_orders o
			JOIN suppliers s ON s.id = o.supplier_id
			WHERE o.station_id = $1 AND o.outstanding_amount > 0
			ORDER BY s.name ASC, o.created_at ASC
		`
	} else {
		query = `
			SELECT c.id, c.name, t.outstanding_amount, t.created_at
			FROM sales_transactions t
			JOIN customers c ON c.id = t.customer_id
			WHERE t.station_id = $1 AND t.payment_method = 'credit' AND t.outstanding_amount > 0
			ORDER BY c.name ASC, t.created_at ASC
		`
	}

	rows, err := s.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return report, err
	}
	defer rows.Close()

	byParty := make(map[string]*domain.AgingBucket)
	order := make([]string, 0, 16)
	for rows.Next() {
		var partyID, partyName string
		var amount decimal.Decimal
		var createdAt time.Time
		if err := rows.Scan(&partyID, &partyName, &amount, &createdAt); err != nil {
			return report, err
		}

		bucket, ok := byParty[partyID]
		if !ok {
			bucket = &domain.AgingBucket{PartyID: partyID, PartyName: partyName}
			byParty[partyID] = bucket
			order = append(order, partyID)
		}

		age := int(dayUTC(asOf).Sub(dayUTC(createdAt)).Hours() / 24)
		switch {
		case age <= 30:
			bucket.Current = bucket.Current.Add(amount)
		case age <= 60:
			bucket.Days31To60 = bucket.Days31To60.Add(amount)
		case age <= 90:
			bucket.Days61To90 = bucket.Days61To90.Add(amount)
		default:
			bucket.Over90Days = bucket.Over90Days.Add(amount)
		}
		bucket.Outstanding = bucket.Outstanding.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return report, err
	}

	for _, partyID := range order {
		report.Buckets = append(report.Buckets, *byParty[partyID])
	}
	return report, nil
}
