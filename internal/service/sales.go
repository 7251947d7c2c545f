package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
)

// RecordSale books a sale atomically: header, items, tank draw-downs, the
// customer balance change and the journal posting all land in one repository
// transaction. Totals arrive precomputed from the till and are verified here,
// never re-derived.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleCreateRequest) (domain.SalesTransaction, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	if err := s.check(req); err != nil {
		return domain.SalesTransaction{}, err
	}
	if err := scopeStation(actor, req.Transaction.StationID); err != nil {
		return domain.SalesTransaction{}, err
	}

	sale, err := s.buildSale(ctx, actor, req)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	now := time.Now().UTC()
	sale.InvoiceNumber = invoiceNumber(now)
	sale.CreatedAt = now

	created, err := s.repo.CreateSale(ctx, sale, saleJournal(sale, now))
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	s.dropDailyReport(ctx, created.StationID, created.CreatedAt)
	s.logAudit(ctx, created.StationID, "sale_record", "sale", created.ID, "invoice="+created.InvoiceNumber+",total="+created.TotalAmount.String())
	return *created, nil
}

// UpdateSale replaces a recorded sale's header and items. The repository
// reverses the old stock and balance effects and applies the new ones in a
// single transaction; the invoice number and cashier survive the edit. The
// original journal posting is removed with the reversal, so corrections that
// must stay on the books should go through a manual journal entry instead.
func (s *Service) UpdateSale(ctx context.Context, id string, req domain.SaleCreateRequest) (domain.SalesTransaction, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	existing, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	if err := scopeStation(actor, existing.StationID); err != nil {
		return domain.SalesTransaction{}, err
	}
	if err := s.check(req); err != nil {
		return domain.SalesTransaction{}, err
	}
	if req.Transaction.StationID != existing.StationID {
		return domain.SalesTransaction{}, store.Invalid("station_id", "cannot move a sale to another station")
	}

	sale, err := s.buildSale(ctx, actor, req)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	sale.ID = id

	updated, err := s.repo.UpdateSale(ctx, sale)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	s.dropDailyReport(ctx, updated.StationID, existing.CreatedAt)
	s.dropDailyReport(ctx, updated.StationID, updated.CreatedAt)
	s.logAudit(ctx, updated.StationID, "sale_update", "sale", updated.ID, "invoice="+updated.InvoiceNumber)
	return *updated, nil
}

func (s *Service) DeleteSale(ctx context.Context, id string) error {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return err
	}
	existing, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return err
	}
	if err := scopeStation(actor, existing.StationID); err != nil {
		return err
	}
	if err := s.repo.DeleteSale(ctx, id); err != nil {
		return err
	}
	s.dropDailyReport(ctx, existing.StationID, existing.CreatedAt)
	s.logAudit(ctx, existing.StationID, "sale_delete", "sale", id, "invoice="+existing.InvoiceNumber)
	return nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.SalesTransaction, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	if err := scopeStation(actor, sale.StationID); err != nil {
		return domain.SalesTransaction{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.SalesTransaction, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(24 * time.Hour)
	}
	return s.repo.ListSales(ctx, stationID, from, to, limit)
}

// buildSale verifies the header arithmetic and item references, returning a
// transaction ready for persistence. It never touches stock: quantity checks
// against the tanks happen inside the repository transaction.
func (s *Service) buildSale(ctx context.Context, actor domain.Actor, req domain.SaleCreateRequest) (domain.SalesTransaction, error) {
	header := req.Transaction

	settings, err := s.repo.GetOrCreateSettings(ctx, header.StationID)
	if err != nil {
		return domain.SalesTransaction{}, err
	}
	currency := header.Currency
	if currency == "" {
		currency = settings.Currency
	}

	subtotal := decimal.Zero
	items := make([]domain.SalesItem, 0, len(req.Items))
	for _, input := range req.Items {
		if !input.Quantity.IsPositive() {
			return domain.SalesTransaction{}, store.Invalid("quantity", "must be positive")
		}
		if input.UnitPrice.IsNegative() {
			return domain.SalesTransaction{}, store.Invalid("unit_price", "must not be negative")
		}
		product, err := s.repo.GetProduct(ctx, input.ProductID)
		if err != nil {
			return domain.SalesTransaction{}, err
		}
		if !product.Active {
			return domain.SalesTransaction{}, store.Invalid("product_id", "product is inactive")
		}
		if product.Category == domain.CategoryFuel && input.TankID == "" {
			return domain.SalesTransaction{}, store.Invalid("tank_id", "is required for fuel items")
		}
		if input.TankID != "" {
			tank, err := s.repo.GetTank(ctx, input.TankID)
			if err != nil {
				return domain.SalesTransaction{}, err
			}
			if tank.StationID != header.StationID {
				return domain.SalesTransaction{}, store.Invalid("tank_id", "tank belongs to another station")
			}
			if tank.ProductID != input.ProductID {
				return domain.SalesTransaction{}, store.Invalid("tank_id", "tank holds a different product")
			}
		}

		total := input.Quantity.Mul(input.UnitPrice).Round(2)
		subtotal = subtotal.Add(total)
		items = append(items, domain.SalesItem{
			ProductID:  input.ProductID,
			TankID:     input.TankID,
			Quantity:   input.Quantity.Round(3),
			UnitPrice:  input.UnitPrice.Round(2),
			TotalPrice: total,
		})
	}

	if !subtotal.IsPositive() {
		return domain.SalesTransaction{}, store.Invalid("subtotal", "must be positive")
	}
	if !header.Subtotal.Round(2).Equal(subtotal) {
		return domain.SalesTransaction{}, store.Invalid("subtotal", "does not match the sum of item totals")
	}
	if header.TaxAmount.IsNegative() {
		return domain.SalesTransaction{}, store.Invalid("tax_amount", "must not be negative")
	}
	tax := header.TaxAmount.Round(2)
	total := subtotal.Add(tax)
	if !header.TotalAmount.Round(2).Equal(total) {
		return domain.SalesTransaction{}, store.Invalid("total_amount", "must equal subtotal plus tax_amount")
	}
	paid := header.PaidAmount.Round(2)
	if paid.IsNegative() {
		return domain.SalesTransaction{}, store.Invalid("paid_amount", "must not be negative")
	}
	if paid.GreaterThan(total) {
		return domain.SalesTransaction{}, store.Invalid("paid_amount", "must not exceed total_amount")
	}
	outstanding := total.Sub(paid)
	if !header.OutstandingAmount.Round(2).Equal(outstanding) {
		return domain.SalesTransaction{}, store.Invalid("outstanding_amount", "must equal total_amount minus paid_amount")
	}

	if header.PaymentMethod == domain.PaymentMethodCredit {
		if header.CustomerID == "" {
			return domain.SalesTransaction{}, store.Invalid("customer_id", "is required for credit sales")
		}
		customer, err := s.repo.GetCustomer(ctx, header.CustomerID)
		if err != nil {
			return domain.SalesTransaction{}, err
		}
		if customer.StationID != header.StationID {
			return domain.SalesTransaction{}, store.Invalid("customer_id", "customer belongs to another station")
		}
		if customer.CreditLimit.IsPositive() && customer.OutstandingAmount.Add(outstanding).GreaterThan(customer.CreditLimit) {
			return domain.SalesTransaction{}, store.Invalid("customer_id", "credit limit exceeded")
		}
	} else if outstanding.IsPositive() {
		return domain.SalesTransaction{}, store.Invalid("paid_amount", "non-credit sales must be paid in full")
	}

	return domain.SalesTransaction{
		StationID:         header.StationID,
		CustomerID:        header.CustomerID,
		Cashier:           actor.Username,
		PaymentMethod:     header.PaymentMethod,
		Currency:          currency,
		Subtotal:          subtotal,
		TaxAmount:         tax,
		TotalAmount:       total,
		PaidAmount:        paid,
		OutstandingAmount: outstanding,
		Items:             items,
	}, nil
}

// saleJournal posts the sale to the ledger: cash and receivable are debited
// for the paid and outstanding portions, revenue and tax payable are credited.
func saleJournal(sale domain.SalesTransaction, now time.Time) *domain.JournalEntry {
	lines := make([]domain.JournalLine, 0, 4)
	if sale.PaidAmount.IsPositive() {
		lines = append(lines, domain.JournalLine{AccountCode: accountCash, Debit: sale.PaidAmount, Memo: "sale payment"})
	}
	if sale.OutstandingAmount.IsPositive() {
		lines = append(lines, domain.JournalLine{AccountCode: accountReceivable, Debit: sale.OutstandingAmount, Memo: "credit sale"})
	}
	lines = append(lines, domain.JournalLine{AccountCode: accountRevenue, Credit: sale.Subtotal, Memo: "fuel and shop revenue"})
	if sale.TaxAmount.IsPositive() {
		lines = append(lines, domain.JournalLine{AccountCode: accountTaxPayable, Credit: sale.TaxAmount, Memo: "sales tax collected"})
	}

	return &domain.JournalEntry{
		EntryNumber: entryNumber(now),
		StationID:   sale.StationID,
		EntryDate:   now,
		Description: "sale " + sale.InvoiceNumber,
		Lines:       lines,
	}
}
