package memory

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
)

func (s *Store) GetDailyReport(_ context.Context, stationID string, from time.Time, to time.Time) (domain.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.DailyReport{
		StationID:          stationID,
		Date:               from.UTC().Format("2006-01-02"),
		SalesByMethod:      make([]domain.SalesByMethod, 0, 4),
		SalesByProduct:     make([]domain.SalesByProduct, 0, 8),
		ExpensesByCategory: make([]domain.ExpensesByCategory, 0, 8),
	}

	byMethod := map[string]*domain.SalesByMethod{}
	byProduct := map[string]*domain.SalesByProduct{}
	cashIn := decimal.Zero
	for _, sale := range s.sales {
		if sale.StationID != stationID {
			continue
		}
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		report.Transactions++
		report.GrossSales = report.GrossSales.Add(sale.TotalAmount)
		report.TaxCollected = report.TaxCollected.Add(sale.TaxAmount)

		method, ok := byMethod[sale.PaymentMethod]
		if !ok {
			method = &domain.SalesByMethod{PaymentMethod: sale.PaymentMethod}
			byMethod[sale.PaymentMethod] = method
		}
		method.Transactions++
		method.Total = method.Total.Add(sale.TotalAmount)

		if sale.PaymentMethod == domain.PaymentMethodCash {
			cashIn = cashIn.Add(sale.PaidAmount)
		}

		for _, item := range sale.Items {
			row, ok := byProduct[item.ProductID]
			if !ok {
				name := item.ProductID
				if p, exists := s.products[item.ProductID]; exists {
					name = p.Name
				}
				row = &domain.SalesByProduct{ProductID: item.ProductID, ProductName: name}
				byProduct[item.ProductID] = row
			}
			row.Quantity = row.Quantity.Add(item.Quantity)
			row.Total = row.Total.Add(item.TotalPrice)
		}
	}

	byCategory := map[string]*domain.ExpensesByCategory{}
	totalExpenses := decimal.Zero
	for _, expense := range s.expenses {
		if expense.StationID != stationID {
			continue
		}
		if expense.ExpenseDate.Before(from) || !expense.ExpenseDate.Before(to) {
			continue
		}
		row, ok := byCategory[expense.Category]
		if !ok {
			row = &domain.ExpensesByCategory{Category: expense.Category}
			byCategory[expense.Category] = row
		}
		row.Count++
		row.Total = row.Total.Add(expense.Amount)
		totalExpenses = totalExpenses.Add(expense.Amount)
	}

	cashReceipts := decimal.Zero
	cashPaid := decimal.Zero
	for _, payment := range s.payments {
		if payment.StationID != stationID || payment.Method != domain.PaymentMethodCash {
			continue
		}
		if payment.CreatedAt.Before(from) || !payment.CreatedAt.Before(to) {
			continue
		}
		switch payment.PaymentType {
		case domain.PaymentTypeReceivable:
			cashReceipts = cashReceipts.Add(payment.Amount)
		case domain.PaymentTypePayable:
			cashPaid = cashPaid.Add(payment.Amount)
		}
	}

	for _, c := range s.customers {
		if c.StationID == stationID {
			report.TotalReceivables = report.TotalReceivables.Add(c.OutstandingAmount)
		}
	}
	for _, sp := range s.suppliers {
		report.TotalPayables = report.TotalPayables.Add(sp.OutstandingAmount)
	}

	for _, row := range byMethod {
		report.SalesByMethod = append(report.SalesByMethod, *row)
	}
	slices.SortFunc(report.SalesByMethod, func(a, b domain.SalesByMethod) int {
		return cmpString(a.PaymentMethod, b.PaymentMethod)
	})
	for _, row := range byProduct {
		report.SalesByProduct = append(report.SalesByProduct, *row)
	}
	slices.SortFunc(report.SalesByProduct, func(a, b domain.SalesByProduct) int {
		return cmpString(a.ProductName, b.ProductName)
	})
	for _, row := range byCategory {
		report.ExpensesByCategory = append(report.ExpensesByCategory, *row)
	}
	slices.SortFunc(report.ExpensesByCategory, func(a, b domain.ExpensesByCategory) int {
		return cmpString(a.Category, b.Category)
	})

	report.CashFlow.CashIn = cashIn.Add(cashReceipts)
	report.CashFlow.CashOut = cashPaid.Add(totalExpenses)
	report.CashFlow.Net = report.CashFlow.CashIn.Sub(report.CashFlow.CashOut)
	return report, nil
}

func (s *Store) GetFinancialReport(_ context.Context, stationID string, from time.Time, to time.Time) (domain.FinancialReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.FinancialReport{
		StationID: stationID,
		From:      from.UTC().Format("2006-01-02"),
		To:        to.UTC().Format("2006-01-02"),
		ByType:    make([]domain.AccountTypeTotal, 0, 5),
	}

	typeByCode := map[string]string{}
	for _, account := range s.accounts {
		typeByCode[account.Code] = account.Type
	}

	byType := map[string]*domain.AccountTypeTotal{}
	for _, entry := range s.journals {
		if entry.StationID != stationID {
			continue
		}
		if entry.EntryDate.Before(from) || !entry.EntryDate.Before(to) {
			continue
		}
		for _, line := range entry.Lines {
			accountType, ok := typeByCode[line.AccountCode]
			if !ok {
				continue
			}
			row, exists := byType[accountType]
			if !exists {
				row = &domain.AccountTypeTotal{AccountType: accountType}
				byType[accountType] = row
			}
			row.Debit = row.Debit.Add(line.Debit)
			row.Credit = row.Credit.Add(line.Credit)
		}
	}

	for _, row := range byType {
		switch row.AccountType {
		case domain.AccountRevenue:
			report.Revenue = report.Revenue.Add(row.Credit.Sub(row.Debit))
		case domain.AccountExpense:
			report.Expenses = report.Expenses.Add(row.Debit.Sub(row.Credit))
		}
		report.ByType = append(report.ByType, *row)
	}
	slices.SortFunc(report.ByType, func(a, b domain.AccountTypeTotal) int {
		return cmpString(a.AccountType, b.AccountType)
	})

	report.Net = report.Revenue.Sub(report.Expenses)
	return report, nil
}

func (s *Store) GetAgingReport(_ context.Context, stationID string, side string, asOf time.Time) (domain.AgingReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.AgingReport{
		StationID: stationID,
		Side:      side,
		AsOf:      asOf.UTC().Format("2006-01-02"),
		Buckets:   make([]domain.AgingBucket, 0, 16),
	}

	type openDoc struct {
		partyID   string
		partyName string
		amount    decimal.Decimal
		createdAt time.Time
	}
	docs := make([]openDoc, 0, 32)

	if side == domain.AgingPayable {
		for _, order := range s.purchases {
			if order.StationID != stationID || !order.OutstandingAmount.IsPositive() {
				continue
			}
			supplier, exists := s.suppliers[order.SupplierID]
			if !exists {
				continue
			}
			docs = append(docs, openDoc{order.SupplierID, supplier.Name, order.OutstandingAmount, order.CreatedAt})
		}
	} else {
		for _, sale := range s.sales {
			if sale.StationID != stationID || sale.PaymentMethod != domain.PaymentMethodCredit || !sale.OutstandingAmount.IsPositive() {
				continue
			}
			customer, exists := s.customers[sale.CustomerID]
			if !exists {
				continue
			}
			docs = append(docs, openDoc{sale.CustomerID, customer.Name, sale.OutstandingAmount, sale.CreatedAt})
		}
	}

	byParty := map[string]*domain.AgingBucket{}
	order := make([]string, 0, 16)
	for _, doc := range docs {
		bucket, exists := byParty[doc.partyID]
		if !exists {
			bucket = &domain.AgingBucket{PartyID: doc.partyID, PartyName: doc.partyName}
			byParty[doc.partyID] = bucket
			order = append(order, doc.partyID)
		}
		age := int(asOf.UTC().Sub(doc.createdAt.UTC()).Hours() / 24)
		switch {
		case age <= 30:
			bucket.Current = bucket.Current.Add(doc.amount)
		case age <= 60:
			bucket.Days31To60 = bucket.Days31To60.Add(doc.amount)
		case age <= 90:
			bucket.Days61To90 = bucket.Days61To90.Add(doc.amount)
		default:
			bucket.Over90Days = bucket.Over90Days.Add(doc.amount)
		}
		bucket.Outstanding = bucket.Outstanding.Add(doc.amount)
	}

	slices.SortFunc(order, func(a, b string) int {
		return cmpString(byParty[a].PartyName, byParty[b].PartyName)
	})
	for _, partyID := range order {
		report.Buckets = append(report.Buckets, *byParty[partyID])
	}
	return report, nil
}
