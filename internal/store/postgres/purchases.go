package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/xid"
)

// CreatePurchaseOrder books the order and, for credit purchases, the
// supplier's outstanding increase, together with the journal posting. No
// stock moves until the order is received.
func (s *Store) CreatePurchaseOrder(ctx context.Context, order domain.PurchaseOrder, journal *domain.JournalEntry) (*domain.PurchaseOrder, error) {
	if len(order.Items) == 0 {
		return nil, store.Invalid("items", "at least one item is required")
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

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchase_orders (
			id, order_number, station_id, supplier_id, created_by, status, payment_method,
			subtotal, tax_amount, total_amount, paid_amount, outstanding_amount, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, order.ID, order.OrderNumber, order.StationID, order.SupplierID, order.CreatedBy, order.Status,
		order.PaymentMethod, order.Subtotal, order.TaxAmount, order.TotalAmount,
		order.PaidAmount, order.OutstandingAmount, order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = xid.New("pli")
		}
		item.OrderID = order.ID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_items (id, order_id, product_id, tank_id, quantity, unit_cost, total_cost, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, item.ID, item.OrderID, item.ProductID, nullIfEmpty(item.TankID),
			item.Quantity, item.UnitCost, item.TotalCost, i)
		if err != nil {
			return nil, err
		}
	}

	if order.OutstandingAmount.IsPositive() {
		if err := shiftSupplierOutstandingTx(ctx, tx, order.SupplierID, order.OutstandingAmount, false); err != nil {
			return nil, err
		}
	}

	if journal != nil {
		journal.ReferenceType = domain.ReferencePurchase
		journal.ReferenceID = order.ID
		if err := insertJournalTx(ctx, tx, journal); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	var order domain.PurchaseOrder
	var receivedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_number, station_id, supplier_id, created_by, status, payment_method,
			subtotal, tax_amount, total_amount, paid_amount, outstanding_amount, created_at,
			received_at, received_by
		FROM purchase_orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.OrderNumber, &order.StationID, &order.SupplierID, &order.CreatedBy,
		&order.Status, &order.PaymentMethod, &order.Subtotal, &order.TaxAmount, &order.TotalAmount,
		&order.PaidAmount, &order.OutstandingAmount, &order.CreatedAt, &receivedAt, &order.ReceivedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	order.CreatedAt = order.CreatedAt.UTC()
	if receivedAt.Valid {
		at := receivedAt.Time.UTC()
		order.ReceivedAt = &at
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, COALESCE(tank_id,''), quantity, unit_cost, total_cost
		FROM purchase_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.PurchaseItem, 0, 4)
	for rows.Next() {
		var item domain.PurchaseItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.TankID,
			&item.Quantity, &item.UnitCost, &item.TotalCost); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (s *Store) ListPurchaseOrders(ctx context.Context, stationID string, status string, limit int) ([]domain.PurchaseOrder, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_number, station_id, supplier_id, created_by, status, payment_method,
			subtotal, tax_amount, total_amount, paid_amount, outstanding_amount, created_at,
			received_at, received_by
		FROM purchase_orders
		WHERE ($1 = '' OR station_id = $1)
			AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, stationID, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.PurchaseOrder, 0, limit)
	for rows.Next() {
		var order domain.PurchaseOrder
		var receivedAt sql.NullTime
		if err := rows.Scan(&order.ID, &order.OrderNumber, &order.StationID, &order.SupplierID, &order.CreatedBy,
			&order.Status, &order.PaymentMethod, &order.Subtotal, &order.TaxAmount, &order.TotalAmount,
			&order.PaidAmount, &order.OutstandingAmount, &order.CreatedAt, &receivedAt, &order.ReceivedBy); err != nil {
			return nil, err
		}
		order.CreatedAt = order.CreatedAt.UTC()
		if receivedAt.Valid {
			at := receivedAt.Time.UTC()
			order.ReceivedAt = &at
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// ReceivePurchaseOrder flips a pending order to received and books one "in"
// movement per tank item. Receiving an already-received order is a conflict.
func (s *Store) ReceivePurchaseOrder(ctx context.Context, id string, receivedBy string, receivedAt time.Time) (*domain.PurchaseOrder, error) {
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM purchase_orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.PurchaseStatusPending {
		return nil, store.ErrConflict
	}

	itemRows, err := tx.QueryContext(ctx, `
		SELECT COALESCE(tank_id,''), quantity
		FROM purchase_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}
	var items []domain.PurchaseItem
	for itemRows.Next() {
		var item domain.PurchaseItem
		if err := itemRows.Scan(&item.TankID, &item.Quantity); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		items = append(items, item)
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	for _, item := range items {
		if item.TankID == "" {
			continue
		}
		newStock, err := shiftTankStockTx(ctx, tx, item.TankID, item.Quantity)
		if err != nil {
			return nil, err
		}
		movement := domain.StockMovement{
			ID:            xid.New("mov"),
			TankID:        item.TankID,
			MovementType:  domain.MovementIn,
			Quantity:      item.Quantity,
			PreviousStock: newStock.Sub(item.Quantity),
			NewStock:      newStock,
			ReferenceType: domain.ReferencePurchase,
			ReferenceID:   id,
			CreatedAt:     receivedAt,
		}
		if err := insertMovementTx(ctx, tx, movement); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE purchase_orders
		SET status = $2, received_at = $3, received_by = $4
		WHERE id = $1
	`, id, domain.PurchaseStatusReceived, receivedAt, receivedBy)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetPurchaseOrder(ctx, id)
}
