package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/xid"
)

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.SKU = strings.ToUpper(strings.TrimSpace(product.SKU))
	product.Name = strings.TrimSpace(product.Name)
	if product.SKU == "" || product.Name == "" || product.Category == "" {
		return nil, store.Invalid("sku", "sku, name and category are required")
	}
	if product.UnitPrice.IsNegative() {
		return nil, store.Invalid("unit_price", "must not be negative")
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.Active = true
	product.UnitPrice = money(product.UnitPrice)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, sku, name, category, unit_price, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, product.ID, product.SKU, product.Name, product.Category, product.UnitPrice, product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, name, category, unit_price, active, created_at
		FROM products
		WHERE active = true
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.UnitPrice, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sku, name, category, unit_price, active, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.UnitPrice, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Category == "" {
		return nil, store.Invalid("name", "name and category are required")
	}
	if product.UnitPrice.IsNegative() {
		return nil, store.Invalid("unit_price", "must not be negative")
	}
	product.UnitPrice = money(product.UnitPrice)

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, unit_price = $4, active = $5
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.UnitPrice, product.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := product
	return &updated, nil
}

func (s *Store) CreateTank(ctx context.Context, tank domain.Tank) (*domain.Tank, error) {
	tank.Name = strings.TrimSpace(tank.Name)
	if tank.StationID == "" || tank.ProductID == "" || tank.Name == "" {
		return nil, store.Invalid("name", "station_id, product_id and name are required")
	}
	if tank.Capacity.IsNegative() || tank.CurrentStock.IsNegative() {
		return nil, store.Invalid("capacity", "capacity and stock must not be negative")
	}
	if tank.ID == "" {
		tank.ID = xid.New("tnk")
	}
	if tank.CreatedAt.IsZero() {
		tank.CreatedAt = time.Now().UTC()
	}
	tank.Capacity = litres(tank.Capacity)
	tank.CurrentStock = litres(tank.CurrentStock)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tanks (id, station_id, product_id, name, capacity, current_stock, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, tank.ID, tank.StationID, tank.ProductID, tank.Name, tank.Capacity, tank.CurrentStock, tank.CreatedAt)
	if err != nil {
		return nil, err
	}

	if tank.CurrentStock.IsPositive() {
		movement := domain.StockMovement{
			ID:            xid.New("mov"),
			TankID:        tank.ID,
			MovementType:  domain.MovementIn,
			Quantity:      tank.CurrentStock,
			PreviousStock: decimal.Zero,
			NewStock:      tank.CurrentStock,
			ReferenceType: domain.ReferenceAdjustment,
			Notes:         "initial stock",
			CreatedAt:     tank.CreatedAt,
		}
		if err := insertMovementTx(ctx, tx, movement); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := tank
	return &created, nil
}

func (s *Store) ListTanks(ctx context.Context, stationID string) ([]domain.Tank, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, product_id, name, capacity, current_stock, created_at
		FROM tanks
		WHERE ($1 = '' OR station_id = $1)
		ORDER BY name ASC
	`, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tanks := make([]domain.Tank, 0, 8)
	for rows.Next() {
		var t domain.Tank
		if err := rows.Scan(&t.ID, &t.StationID, &t.ProductID, &t.Name, &t.Capacity, &t.CurrentStock, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		tanks = append(tanks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tanks, nil
}

func (s *Store) GetTank(ctx context.Context, id string) (*domain.Tank, error) {
	var t domain.Tank
	err := s.db.QueryRowContext(ctx, `
		SELECT id, station_id, product_id, name, capacity, current_stock, created_at
		FROM tanks
		WHERE id = $1
	`, id).Scan(&t.ID, &t.StationID, &t.ProductID, &t.Name, &t.Capacity, &t.CurrentStock, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// AdjustTankStock applies a signed delta and books the matching "adjustment"
// movement in one transaction. A draw-down larger than the current stock
// fails the whole operation.
func (s *Store) AdjustTankStock(ctx context.Context, tankID string, delta decimal.Decimal, notes string) (*domain.StockMovement, error) {
	if delta.IsZero() {
		return nil, store.Invalid("quantity", "must not be zero")
	}
	delta = litres(delta)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	newStock, err := shiftTankStockTx(ctx, tx, tankID, delta)
	if err != nil {
		return nil, err
	}

	movementType := domain.MovementAdjustment
	movement := domain.StockMovement{
		ID:            xid.New("mov"),
		TankID:        tankID,
		MovementType:  movementType,
		Quantity:      delta.Abs(),
		PreviousStock: newStock.Sub(delta),
		NewStock:      newStock,
		ReferenceType: domain.ReferenceAdjustment,
		Notes:         notes,
		CreatedAt:     time.Now().UTC(),
	}
	if err := insertMovementTx(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &movement, nil
}

// shiftTankStockTx moves a tank's stock by delta inside tx. Negative deltas
// are conditional on sufficient stock; zero rows affected distinguishes a
// missing tank from an insufficient one.
func shiftTankStockTx(ctx context.Context, tx *sql.Tx, tankID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var newStock decimal.Decimal
	err := tx.QueryRowContext(ctx, `
		UPDATE tanks
		SET current_stock = current_stock + $1
		WHERE id = $2 AND current_stock + $1 >= 0
		RETURNING current_stock
	`, delta, tankID).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, err
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tanks WHERE id = $1)`, tankID).Scan(&exists); err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, store.ErrNotFound
	}
	return decimal.Zero, store.ErrInsufficientStock
}

func insertMovementTx(ctx context.Context, tx *sql.Tx, movement domain.StockMovement) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stock_movements (
			id, tank_id, movement_type, quantity, previous_stock, new_stock,
			reference_type, reference_id, notes, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, movement.ID, movement.TankID, movement.MovementType, movement.Quantity, movement.PreviousStock,
		movement.NewStock, movement.ReferenceType, nullIfEmpty(movement.ReferenceID), movement.Notes, movement.CreatedAt)
	return err
}

func (s *Store) ListStockMovements(ctx context.Context, tankID string, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, movement_type, quantity, previous_stock, new_stock,
			reference_type, COALESCE(reference_id,''), notes, created_at
		FROM stock_movements
		WHERE tank_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tankID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.TankID, &m.MovementType, &m.Quantity, &m.PreviousStock, &m.NewStock,
			&m.ReferenceType, &m.ReferenceID, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) CreatePump(ctx context.Context, pump domain.Pump) (*domain.Pump, error) {
	pump.Name = strings.TrimSpace(pump.Name)
	if pump.StationID == "" || pump.TankID == "" || pump.Name == "" {
		return nil, store.Invalid("name", "station_id, tank_id and name are required")
	}
	if pump.ID == "" {
		pump.ID = xid.New("pmp")
	}
	if pump.CreatedAt.IsZero() {
		pump.CreatedAt = time.Now().UTC()
	}
	pump.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pumps (id, station_id, tank_id, name, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, pump.ID, pump.StationID, pump.TankID, pump.Name, pump.Active, pump.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := pump
	return &created, nil
}

func (s *Store) ListPumps(ctx context.Context, stationID string) ([]domain.Pump, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, tank_id, name, active, created_at
		FROM pumps
		WHERE ($1 = '' OR station_id = $1)
		ORDER BY name ASC
	`, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pumps := make([]domain.Pump, 0, 8)
	for rows.Next() {
		var p domain.Pump
		if err := rows.Scan(&p.ID, &p.StationID, &p.TankID, &p.Name, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		pumps = append(pumps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pumps, nil
}

func (s *Store) CreatePumpReading(ctx context.Context, reading domain.PumpReading) (*domain.PumpReading, error) {
	if reading.PumpID == "" {
		return nil, store.Invalid("pump_id", "is required")
	}
	if reading.ClosingReading.LessThan(reading.OpeningReading) {
		return nil, store.Invalid("closing_reading", "must not be below opening_reading")
	}
	if reading.ID == "" {
		reading.ID = xid.New("rdg")
	}
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now().UTC()
	}
	reading.ReadingDate = dayUTC(reading.ReadingDate)
	reading.OpeningReading = litres(reading.OpeningReading)
	reading.ClosingReading = litres(reading.ClosingReading)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pump_readings (id, pump_id, reading_date, opening_reading, closing_reading, recorded_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, reading.ID, reading.PumpID, reading.ReadingDate, reading.OpeningReading, reading.ClosingReading, reading.RecordedBy, reading.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := reading
	return &created, nil
}

func (s *Store) ListPumpReadings(ctx context.Context, pumpID string, from time.Time, to time.Time) ([]domain.PumpReading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pump_id, reading_date, opening_reading, closing_reading, recorded_by, created_at
		FROM pump_readings
		WHERE pump_id = $1 AND reading_date >= $2 AND reading_date < $3
		ORDER BY reading_date ASC
	`, pumpID, dayUTC(from), dayUTC(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]domain.PumpReading, 0, 32)
	for rows.Next() {
		var r domain.PumpReading
		if err := rows.Scan(&r.ID, &r.PumpID, &r.ReadingDate, &r.OpeningReading, &r.ClosingReading, &r.RecordedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ReadingDate = r.ReadingDate.UTC()
		r.CreatedAt = r.CreatedAt.UTC()
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.StationID == "" || customer.Name == "" {
		return nil, store.Invalid("name", "station_id and name are required")
	}
	if customer.CreditLimit.IsNegative() {
		return nil, store.Invalid("credit_limit", "must not be negative")
	}
	if customer.ID == "" {
		customer.ID = xid.New("cus")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	customer.CreditLimit = money(customer.CreditLimit)
	customer.OutstandingAmount = money(customer.OutstandingAmount)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, station_id, name, phone, email, credit_limit, outstanding_amount, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, customer.ID, customer.StationID, customer.Name, customer.Phone, customer.Email,
		customer.CreditLimit, customer.OutstandingAmount, customer.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := customer
	return &created, nil
}

func (s *Store) ListCustomers(ctx context.Context, stationID string) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, name, phone, email, credit_limit, outstanding_amount, created_at
		FROM customers
		WHERE ($1 = '' OR station_id = $1)
		ORDER BY name ASC
	`, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 32)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.StationID, &c.Name, &c.Phone, &c.Email, &c.CreditLimit, &c.OutstandingAmount, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, station_id, name, phone, email, credit_limit, outstanding_amount, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.StationID, &c.Name, &c.Phone, &c.Email, &c.CreditLimit, &c.OutstandingAmount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.Invalid("name", "is required")
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	supplier.OutstandingAmount = money(supplier.OutstandingAmount)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, phone, email, outstanding_amount, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, supplier.ID, supplier.Name, supplier.Phone, supplier.Email, supplier.OutstandingAmount, supplier.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, email, outstanding_amount, created_at
		FROM suppliers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		var sp domain.Supplier
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Phone, &sp.Email, &sp.OutstandingAmount, &sp.CreatedAt); err != nil {
			return nil, err
		}
		sp.CreatedAt = sp.CreatedAt.UTC()
		suppliers = append(suppliers, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var sp domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, email, outstanding_amount, created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&sp.ID, &sp.Name, &sp.Phone, &sp.Email, &sp.OutstandingAmount, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sp.CreatedAt = sp.CreatedAt.UTC()
	return &sp, nil
}

func (s *Store) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	account.Code = strings.ToUpper(strings.TrimSpace(account.Code))
	account.Name = strings.TrimSpace(account.Name)
	if account.Code == "" || account.Name == "" || account.Type == "" {
		return nil, store.Invalid("code", "code, name and type are required")
	}
	if account.ID == "" {
		account.ID = xid.New("acc")
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, code, name, type, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, account.ID, account.Code, account.Name, account.Type, account.Active, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := account
	return &created, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, type, active, created_at
		FROM accounts
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, 32)
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.CreatedAt = a.CreatedAt.UTC()
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}
