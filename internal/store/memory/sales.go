package memory

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/xid"
)

func (s *Store) CreateSale(_ context.Context, sale domain.SalesTransaction, journal *domain.JournalEntry) (*domain.SalesTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sale.Items) == 0 {
		return nil, store.Invalid("items", "at least one item is required")
	}
	if _, exists := s.invoiceNos[sale.InvoiceNumber]; exists {
		return nil, store.ErrConflict
	}
	if err := s.checkSaleLocked(&sale); err != nil {
		return nil, err
	}
	if journal != nil {
		if err := checkJournal(journal); err != nil {
			return nil, err
		}
	}

	if sale.ID == "" {
		sale.ID = xid.New("sal")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	s.applySaleLocked(&sale)
	if journal != nil {
		journal.ReferenceType = domain.ReferenceSale
		journal.ReferenceID = sale.ID
		s.insertJournalLocked(journal)
	}
	return &sale, nil
}

// checkSaleLocked validates every side effect of a sale before any map is
// touched: tank existence and sufficiency (aggregated across items drawing
// from the same tank) and customer existence for credit sales.
func (s *Store) checkSaleLocked(sale *domain.SalesTransaction) error {
	needed := map[string]decimal.Decimal{}
	for _, item := range sale.Items {
		if item.TankID == "" {
			continue
		}
		needed[item.TankID] = needed[item.TankID].Add(item.Quantity)
	}
	for tankID, qty := range needed {
		tank, exists := s.tanks[tankID]
		if !exists {
			return store.ErrNotFound
		}
		if tank.CurrentStock.LessThan(qty) {
			return store.ErrInsufficientStock
		}
	}
	if sale.PaymentMethod == domain.PaymentMethodCredit && sale.CustomerID != "" {
		if _, exists := s.customers[sale.CustomerID]; !exists {
			return store.ErrNotFound
		}
	}
	return nil
}

func (s *Store) applySaleLocked(sale *domain.SalesTransaction) {
	for i := range sale.Items {
		item := &sale.Items[i]
		if item.ID == "" {
			item.ID = xid.New("sli")
		}
		item.TransactionID = sale.ID
		if item.TankID == "" {
			continue
		}
		newStock := s.shiftTankLocked(item.TankID, item.Quantity.Neg())
		s.movements = append(s.movements, domain.StockMovement{
			ID:            xid.New("mov"),
			TankID:        item.TankID,
			MovementType:  domain.MovementOut,
			Quantity:      item.Quantity,
			PreviousStock: newStock.Add(item.Quantity),
			NewStock:      newStock,
			ReferenceType: domain.ReferenceSale,
			ReferenceID:   sale.ID,
			CreatedAt:     sale.CreatedAt,
		})
	}

	if sale.PaymentMethod == domain.PaymentMethodCredit && sale.CustomerID != "" && sale.OutstandingAmount.IsPositive() {
		customer := s.customers[sale.CustomerID]
		customer.OutstandingAmount = customer.OutstandingAmount.Add(sale.OutstandingAmount)
		s.customers[sale.CustomerID] = customer
	}

	s.sales[sale.ID] = *sale
	s.invoiceNos[sale.InvoiceNumber] = sale.ID
}

func (s *Store) reverseSaleLocked(saleID string) (*domain.SalesTransaction, error) {
	sale, exists := s.sales[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}

	for _, item := range sale.Items {
		if item.TankID == "" {
			continue
		}
		newStock := s.shiftTankLocked(item.TankID, item.Quantity)
		s.movements = append(s.movements, domain.StockMovement{
			ID:            xid.New("mov"),
			TankID:        item.TankID,
			MovementType:  domain.MovementIn,
			Quantity:      item.Quantity,
			PreviousStock: newStock.Sub(item.Quantity),
			NewStock:      newStock,
			ReferenceType: domain.ReferenceSale,
			ReferenceID:   sale.ID,
			Notes:         "sale reversal",
			CreatedAt:     time.Now().UTC(),
		})
	}

	if sale.PaymentMethod == domain.PaymentMethodCredit && sale.CustomerID != "" && sale.OutstandingAmount.IsPositive() {
		customer := s.customers[sale.CustomerID]
		customer.OutstandingAmount = customer.OutstandingAmount.Sub(sale.OutstandingAmount)
		s.customers[sale.CustomerID] = customer
	}

	for id, entry := range s.journals {
		if entry.ReferenceType == domain.ReferenceSale && entry.ReferenceID == saleID {
			delete(s.journals, id)
			delete(s.entryNos, entry.EntryNumber)
		}
	}
	delete(s.sales, saleID)
	delete(s.invoiceNos, sale.InvoiceNumber)
	reversed := sale
	return &reversed, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.SalesTransaction) (*domain.SalesTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		return nil, store.Invalid("id", "is required")
	}
	if len(sale.Items) == 0 {
		return nil, store.Invalid("items", "at least one item is required")
	}
	existing, exists := s.sales[sale.ID]
	if !exists {
		return nil, store.ErrNotFound
	}

	// Validate against the post-reversal stock level without mutating yet.
	restored := map[string]decimal.Decimal{}
	for _, item := range existing.Items {
		if item.TankID != "" {
			restored[item.TankID] = restored[item.TankID].Add(item.Quantity)
		}
	}
	needed := map[string]decimal.Decimal{}
	for _, item := range sale.Items {
		if item.TankID != "" {
			needed[item.TankID] = needed[item.TankID].Add(item.Quantity)
		}
	}
	for tankID, qty := range needed {
		tank, tankExists := s.tanks[tankID]
		if !tankExists {
			return nil, store.ErrNotFound
		}
		if tank.CurrentStock.Add(restored[tankID]).LessThan(qty) {
			return nil, store.ErrInsufficientStock
		}
	}
	if sale.PaymentMethod == domain.PaymentMethodCredit && sale.CustomerID != "" {
		if _, customerExists := s.customers[sale.CustomerID]; !customerExists {
			return nil, store.ErrNotFound
		}
	}

	previous, err := s.reverseSaleLocked(sale.ID)
	if err != nil {
		return nil, err
	}
	if sale.InvoiceNumber == "" {
		sale.InvoiceNumber = previous.InvoiceNumber
	}
	if sale.Cashier == "" {
		sale.Cashier = previous.Cashier
	}
	if sale.Currency == "" {
		sale.Currency = previous.Currency
	}
	sale.CreatedAt = previous.CreatedAt
	for i := range sale.Items {
		sale.Items[i].ID = ""
	}
	s.applySaleLocked(&sale)
	return &sale, nil
}

func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.reverseSaleLocked(id)
	return err
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.SalesTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := sale
	found.Items = slices.Clone(sale.Items)
	return &found, nil
}

func (s *Store) ListSales(_ context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.SalesTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	sales := make([]domain.SalesTransaction, 0, limit)
	for _, sale := range s.sales {
		if stationID != "" && sale.StationID != stationID {
			continue
		}
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		sale.Items = slices.Clone(sale.Items)
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.SalesTransaction) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return 1
		}
		return cmpString(a.ID, b.ID)
	})
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

// --- purchases ---

func (s *Store) CreatePurchaseOrder(_ context.Context, order domain.PurchaseOrder, journal *domain.JournalEntry) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(order.Items) == 0 {
		return nil, store.Invalid("items", "at least one item is required")
	}
	if _, exists := s.orderNos[order.OrderNumber]; exists {
		return nil, store.ErrConflict
	}
	if _, exists := s.suppliers[order.SupplierID]; !exists {
		return nil, store.ErrNotFound
	}
	if journal != nil {
		if err := checkJournal(journal); err != nil {
			return nil, err
		}
	}

	if order.ID == "" {
		order.ID = xid.New("pur")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	if order.Status == "" {
		order.Status = domain.PurchaseStatusPending
	}
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = xid.New("pli")
		}
		item.OrderID = order.ID
	}

	if order.OutstandingAmount.IsPositive() {
		supplier := s.suppliers[order.SupplierID]
		supplier.OutstandingAmount = supplier.OutstandingAmount.Add(order.OutstandingAmount)
		s.suppliers[order.SupplierID] = supplier
	}

	s.purchases[order.ID] = order
	s.orderNos[order.OrderNumber] = order.ID
	if journal != nil {
		journal.ReferenceType = domain.ReferencePurchase
		journal.ReferenceID = order.ID
		s.insertJournalLocked(journal)
	}
	created := order
	created.Items = slices.Clone(order.Items)
	return &created, nil
}

func (s *Store) GetPurchaseOrder(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.purchases[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := order
	found.Items = slices.Clone(order.Items)
	return &found, nil
}

func (s *Store) ListPurchaseOrders(_ context.Context, stationID string, status string, limit int) ([]domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	orders := make([]domain.PurchaseOrder, 0, limit)
	for _, order := range s.purchases {
		if stationID != "" && order.StationID != stationID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		order.Items = slices.Clone(order.Items)
		orders = append(orders, order)
	}
	slices.SortFunc(orders, func(a, b domain.PurchaseOrder) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return 1
		}
		return cmpString(a.ID, b.ID)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Store) ReceivePurchaseOrder(_ context.Context, id string, receivedBy string, receivedAt time.Time) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.purchases[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if order.Status != domain.PurchaseStatusPending {
		return nil, store.ErrConflict
	}
	for _, item := range order.Items {
		if item.TankID == "" {
			continue
		}
		if _, tankExists := s.tanks[item.TankID]; !tankExists {
			return nil, store.ErrNotFound
		}
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	for _, item := range order.Items {
		if item.TankID == "" {
			continue
		}
		newStock := s.shiftTankLocked(item.TankID, item.Quantity)
		s.movements = append(s.movements, domain.StockMovement{
			ID:            xid.New("mov"),
			TankID:        item.TankID,
			MovementType:  domain.MovementIn,
			Quantity:      item.Quantity,
			PreviousStock: newStock.Sub(item.Quantity),
			NewStock:      newStock,
			ReferenceType: domain.ReferencePurchase,
			ReferenceID:   order.ID,
			CreatedAt:     receivedAt,
		})
	}

	order.Status = domain.PurchaseStatusReceived
	order.ReceivedAt = &receivedAt
	order.ReceivedBy = receivedBy
	s.purchases[id] = order
	received := order
	received.Items = slices.Clone(order.Items)
	return &received, nil
}
