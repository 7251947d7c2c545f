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

// CreateSale persists the header, items, tank decrements, the customer
// balance change and the journal posting in one serializable transaction.
// The caller (service layer) has already validated the totals.
func (s *Store) CreateSale(ctx context.Context, sale domain.SalesTransaction, journal *domain.JournalEntry) (*domain.SalesTransaction, error) {
	if len(sale.Items) == 0 {
		return nil, store.Invalid("items", "at least one item is required")
	}
	if sale.ID == "" {
		sale.ID = xid.New("sal")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := applySaleTx(ctx, tx, &sale); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if journal != nil {
		journal.ReferenceType = domain.ReferenceSale
		journal.ReferenceID = sale.ID
		if err := insertJournalTx(ctx, tx, journal); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &sale, nil
}

// applySaleTx inserts the header and items, decrements tanks conditionally
// and books one "out" movement per tank item, and bumps the customer's
// outstanding for credit sales.
func applySaleTx(ctx context.Context, tx *sql.Tx, sale *domain.SalesTransaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sales_transactions (
			id, invoice_number, station_id, customer_id, cashier, payment_method,
			currency, subtotal, tax_amount, total_amount, paid_amount, outstanding_amount, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, sale.ID, sale.InvoiceNumber, sale.StationID, nullIfEmpty(sale.CustomerID), sale.Cashier,
		sale.PaymentMethod, sale.Currency, sale.Subtotal, sale.TaxAmount, sale.TotalAmount,
		sale.PaidAmount, sale.OutstandingAmount, sale.CreatedAt)
	if err != nil {
		return err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		if item.ID == "" {
			item.ID = xid.New("sli")
		}
		item.TransactionID = sale.ID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sales_items (id, transaction_id, product_id, tank_id, quantity, unit_price, total_price, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, item.ID, item.TransactionID, item.ProductID, nullIfEmpty(item.TankID),
			item.Quantity, item.UnitPrice, item.TotalPrice, i)
		if err != nil {
			return err
		}

		if item.TankID == "" {
			continue
		}
		newStock, err := shiftTankStockTx(ctx, tx, item.TankID, item.Quantity.Neg())
		if err != nil {
			return err
		}
		movement := domain.StockMovement{
			ID:            xid.New("mov"),
			TankID:        item.TankID,
			MovementType:  domain.MovementOut,
			Quantity:      item.Quantity,
			PreviousStock: newStock.Add(item.Quantity),
			NewStock:      newStock,
			ReferenceType: domain.ReferenceSale,
			ReferenceID:   sale.ID,
			CreatedAt:     sale.CreatedAt,
		}
		if err := insertMovementTx(ctx, tx, movement); err != nil {
			return err
		}
	}

	if sale.PaymentMethod == domain.PaymentMethodCredit && sale.CustomerID != "" && sale.OutstandingAmount.IsPositive() {
		if err := shiftCustomerOutstandingTx(ctx, tx, sale.CustomerID, sale.OutstandingAmount, false); err != nil {
			return err
		}
	}
	return nil
}

// reverseSaleTx undoes a sale's side effects and removes its rows: tank stock
// is restored with "in" movements, the customer outstanding change is
// reversed, and the sale's journal posting is dropped.
func reverseSaleTx(ctx context.Context, tx *sql.Tx, saleID string) (*domain.SalesTransaction, error) {
	sale, err := getSaleTx(ctx, tx, saleID)
	if err != nil {
		return nil, err
	}

	for _, item := range sale.Items {
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
			ReferenceType: domain.ReferenceSale,
			ReferenceID:   sale.ID,
			Notes:         "sale reversal",
			CreatedAt:     time.Now().UTC(),
		}
		if err := insertMovementTx(ctx, tx, movement); err != nil {
			return nil, err
		}
	}

	if sale.PaymentMethod == domain.PaymentMethodCredit && sale.CustomerID != "" && sale.OutstandingAmount.IsPositive() {
		if err := shiftCustomerOutstandingTx(ctx, tx, sale.CustomerID, sale.OutstandingAmount, true); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM journal_lines
		WHERE entry_id IN (SELECT id FROM journal_entries WHERE reference_type = $1 AND reference_id = $2)
	`, domain.ReferenceSale, saleID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM journal_entries WHERE reference_type = $1 AND reference_id = $2
	`, domain.ReferenceSale, saleID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sales_items WHERE transaction_id = $1`, saleID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sales_transactions WHERE id = $1`, saleID); err != nil {
		return nil, err
	}
	return sale, nil
}

// UpdateSale replaces a sale wholesale: the old items and side effects are
// reversed and the submitted set is applied fresh, all in one transaction.
func (s *Store) UpdateSale(ctx context.Context, sale domain.SalesTransaction) (*domain.SalesTransaction, error) {
	if sale.ID == "" {
		return nil, store.Invalid("id", "is required")
	}
	if len(sale.Items) == 0 {
		return nil, store.Invalid("items", "at least one item is required")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	previous, err := reverseSaleTx(ctx, tx, sale.ID)
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

	if err := applySaleTx(ctx, tx, &sale); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := reverseSaleTx(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.SalesTransaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	sale, err := getSaleTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sale, nil
}

func getSaleTx(ctx context.Context, tx *sql.Tx, id string) (*domain.SalesTransaction, error) {
	var sale domain.SalesTransaction
	err := tx.QueryRowContext(ctx, `
		SELECT id, invoice_number, station_id, COALESCE(customer_id,''), cashier, payment_method,
			currency, subtotal, tax_amount, total_amount, paid_amount, outstanding_amount, created_at
		FROM sales_transactions
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.InvoiceNumber, &sale.StationID, &sale.CustomerID, &sale.Cashier,
		&sale.PaymentMethod, &sale.Currency, &sale.Subtotal, &sale.TaxAmount, &sale.TotalAmount,
		&sale.PaidAmount, &sale.OutstandingAmount, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, transaction_id, product_id, COALESCE(tank_id,''), quantity, unit_price, total_price
		FROM sales_items
		WHERE transaction_id = $1
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SalesItem, 0, 4)
	for rows.Next() {
		var item domain.SalesItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.ProductID, &item.TankID,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.SalesTransaction, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_number, station_id, COALESCE(customer_id,''), cashier, payment_method,
			currency, subtotal, tax_amount, total_amount, paid_amount, outstanding_amount, created_at
		FROM sales_transactions
		WHERE ($1 = '' OR station_id = $1)
			AND created_at >= $2
			AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4
	`, stationID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SalesTransaction, 0, limit)
	for rows.Next() {
		var sale domain.SalesTransaction
		if err := rows.Scan(&sale.ID, &sale.InvoiceNumber, &sale.StationID, &sale.CustomerID, &sale.Cashier,
			&sale.PaymentMethod, &sale.Currency, &sale.Subtotal, &sale.TaxAmount, &sale.TotalAmount,
			&sale.PaidAmount, &sale.OutstandingAmount, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}
