package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
)

// CreatePurchaseOrder books a pending order against a supplier. Stock does not
// move until the delivery is confirmed through ReceivePurchaseOrder; the
// supplier balance and the journal posting land immediately, in the same
// transaction as the order.
func (s *Service) CreatePurchaseOrder(ctx context.Context, req domain.PurchaseCreateRequest) (domain.PurchaseOrder, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if err := s.check(req); err != nil {
		return domain.PurchaseOrder{}, err
	}
	header := req.Order
	if err := scopeStation(actor, header.StationID); err != nil {
		return domain.PurchaseOrder{}, err
	}

	settings, err := s.repo.GetOrCreateSettings(ctx, header.StationID)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if _, err := s.repo.GetSupplier(ctx, header.SupplierID); err != nil {
		return domain.PurchaseOrder{}, err
	}

	subtotal := decimal.Zero
	items := make([]domain.PurchaseItem, 0, len(req.Items))
	for _, input := range req.Items {
		if !input.Quantity.IsPositive() {
			return domain.PurchaseOrder{}, store.Invalid("quantity", "must be positive")
		}
		if input.UnitCost.IsNegative() {
			return domain.PurchaseOrder{}, store.Invalid("unit_cost", "must not be negative")
		}
		product, err := s.repo.GetProduct(ctx, input.ProductID)
		if err != nil {
			return domain.PurchaseOrder{}, err
		}
		if product.Category == domain.CategoryFuel && input.TankID == "" {
			return domain.PurchaseOrder{}, store.Invalid("tank_id", "is required for fuel items")
		}
		if input.TankID != "" {
			tank, err := s.repo.GetTank(ctx, input.TankID)
			if err != nil {
				return domain.PurchaseOrder{}, err
			}
			if tank.StationID != header.StationID {
				return domain.PurchaseOrder{}, store.Invalid("tank_id", "tank belongs to another station")
			}
			if tank.ProductID != input.ProductID {
				return domain.PurchaseOrder{}, store.Invalid("tank_id", "tank holds a different product")
			}
		}

		total := input.Quantity.Mul(input.UnitCost).Round(2)
		subtotal = subtotal.Add(total)
		items = append(items, domain.PurchaseItem{
			ProductID: input.ProductID,
			TankID:    input.TankID,
			Quantity:  input.Quantity.Round(3),
			UnitCost:  input.UnitCost.Round(2),
			TotalCost: total,
		})
	}
	if !subtotal.IsPositive() {
		return domain.PurchaseOrder{}, store.Invalid("items", "order total must be positive")
	}

	// TaxRate is a percentage, e.g. 10 for a 10% levy.
	tax := subtotal.Mul(settings.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(tax)
	paid := header.PaidAmount.Round(2)
	if paid.IsNegative() {
		return domain.PurchaseOrder{}, store.Invalid("paid_amount", "must not be negative")
	}
	if paid.GreaterThan(total) {
		return domain.PurchaseOrder{}, store.Invalid("paid_amount", "must not exceed the order total")
	}
	outstanding := total.Sub(paid)
	if header.PaymentMethod != domain.PaymentMethodCredit && outstanding.IsPositive() {
		return domain.PurchaseOrder{}, store.Invalid("paid_amount", "non-credit orders must be paid in full")
	}

	now := time.Now().UTC()
	order := domain.PurchaseOrder{
		OrderNumber:       orderNumber(now),
		StationID:         header.StationID,
		SupplierID:        header.SupplierID,
		CreatedBy:         actor.Username,
		Status:            domain.PurchaseStatusPending,
		PaymentMethod:     header.PaymentMethod,
		Subtotal:          subtotal,
		TaxAmount:         tax,
		TotalAmount:       total,
		PaidAmount:        paid,
		OutstandingAmount: outstanding,
		CreatedAt:         now,
		Items:             items,
	}

	created, err := s.repo.CreatePurchaseOrder(ctx, order, purchaseJournal(order, now))
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.logAudit(ctx, created.StationID, "purchase_create", "purchase", created.ID, "order="+created.OrderNumber+",total="+created.TotalAmount.String())
	return *created, nil
}

// ReceivePurchaseOrder confirms delivery of a pending order and books the fuel
// into its tanks. Receiving the same order twice fails with a conflict.
func (s *Service) ReceivePurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	existing, err := s.repo.GetPurchaseOrder(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if err := scopeStation(actor, existing.StationID); err != nil {
		return domain.PurchaseOrder{}, err
	}

	received, err := s.repo.ReceivePurchaseOrder(ctx, id, actor.Username, time.Now().UTC())
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.logAudit(ctx, received.StationID, "purchase_receive", "purchase", received.ID, "order="+received.OrderNumber)
	return *received, nil
}

func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	order, err := s.repo.GetPurchaseOrder(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if err := scopeStation(actor, order.StationID); err != nil {
		return domain.PurchaseOrder{}, err
	}
	return *order, nil
}

func (s *Service) ListPurchaseOrders(ctx context.Context, stationID string, status string, limit int) ([]domain.PurchaseOrder, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	switch status {
	case "", domain.PurchaseStatusPending, domain.PurchaseStatusReceived, domain.PurchaseStatusCancelled:
	default:
		return nil, store.Invalid("status", "must be one of: pending, received, cancelled")
	}
	return s.repo.ListPurchaseOrders(ctx, stationID, status, limit)
}

// purchaseJournal debits inventory for the full order value and credits cash
// and accounts payable for the paid and outstanding portions.
func purchaseJournal(order domain.PurchaseOrder, now time.Time) *domain.JournalEntry {
	lines := make([]domain.JournalLine, 0, 3)
	lines = append(lines, domain.JournalLine{AccountCode: accountInventory, Debit: order.TotalAmount, Memo: "fuel purchase"})
	if order.PaidAmount.IsPositive() {
		lines = append(lines, domain.JournalLine{AccountCode: accountCash, Credit: order.PaidAmount, Memo: "purchase payment"})
	}
	if order.OutstandingAmount.IsPositive() {
		lines = append(lines, domain.JournalLine{AccountCode: accountPayable, Credit: order.OutstandingAmount, Memo: "supplier credit"})
	}

	return &domain.JournalEntry{
		EntryNumber: entryNumber(now),
		StationID:   order.StationID,
		EntryDate:   now,
		Description: "purchase " + order.OrderNumber,
		Lines:       lines,
	}
}
