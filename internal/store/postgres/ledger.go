package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/xid"
)

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.StationID == "" || expense.Category == "" {
		return nil, store.Invalid("category", "station_id and category are required")
	}
	if !expense.Amount.IsPositive() {
		return nil, store.Invalid("amount", "must be positive")
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = expense.CreatedAt
	}
	expense.ExpenseDate = dayUTC(expense.ExpenseDate)
	expense.Amount = money(expense.Amount)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, station_id, category, amount, description, expense_date, recorded_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, expense.ID, expense.StationID, expense.Category, expense.Amount, expense.Description,
		expense.ExpenseDate, expense.RecordedBy, expense.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, stationID string, from time.Time, to time.Time) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, category, amount, description, expense_date, recorded_by, created_at
		FROM expenses
		WHERE ($1 = '' OR station_id = $1)
			AND expense_date >= $2
			AND expense_date < $3
		ORDER BY expense_date DESC, created_at DESC
	`, stationID, dayUTC(from), dayUTC(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.StationID, &e.Category, &e.Amount, &e.Description,
			&e.ExpenseDate, &e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ExpenseDate = e.ExpenseDate.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

// CreatePayment settles part of a receivable or payable. The balance
// decrement is conditional on sufficient outstanding so the flow can never
// drive a balance negative; the payment row, the balance update and the
// journal posting commit together.
func (s *Store) CreatePayment(ctx context.Context, payment domain.Payment, journal *domain.JournalEntry) (*domain.Payment, error) {
	if !payment.Amount.IsPositive() {
		return nil, store.Invalid("amount", "must be positive")
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	payment.Amount = money(payment.Amount)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	switch payment.PaymentType {
	case domain.PaymentTypeReceivable:
		if payment.CustomerID == "" {
			return nil, store.Invalid("customer_id", "is required for receivable payments")
		}
		if err := shiftCustomerOutstandingTx(ctx, tx, payment.CustomerID, payment.Amount, true); err != nil {
			return nil, err
		}
	case domain.PaymentTypePayable:
		if payment.SupplierID == "" {
			return nil, store.Invalid("supplier_id", "is required for payable payments")
		}
		if err := shiftSupplierOutstandingTx(ctx, tx, payment.SupplierID, payment.Amount, true); err != nil {
			return nil, err
		}
	default:
		return nil, store.Invalid("payment_type", "must be receivable or payable")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, station_id, payment_type, customer_id, supplier_id, amount, method, reference, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, payment.ID, payment.StationID, payment.PaymentType, nullIfEmpty(payment.CustomerID),
		nullIfEmpty(payment.SupplierID), payment.Amount, payment.Method, payment.Reference,
		payment.Notes, payment.CreatedAt)
	if err != nil {
		return nil, err
	}

	if journal != nil {
		journal.ReferenceType = domain.ReferencePayment
		journal.ReferenceID = payment.ID
		if err := insertJournalTx(ctx, tx, journal); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *Store) ListPayments(ctx context.Context, stationID string, from time.Time, to time.Time) ([]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, payment_type, COALESCE(customer_id,''), COALESCE(supplier_id,''),
			amount, method, reference, notes, created_at
		FROM payments
		WHERE ($1 = '' OR station_id = $1)
			AND created_at >= $2
			AND created_at < $3
		ORDER BY created_at DESC
	`, stationID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0, 32)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.StationID, &p.PaymentType, &p.CustomerID, &p.SupplierID,
			&p.Amount, &p.Method, &p.Reference, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// shiftCustomerOutstandingTx adds or subtracts from a customer's outstanding.
// Subtractions are conditional on the balance covering the amount.
func shiftCustomerOutstandingTx(ctx context.Context, tx *sql.Tx, customerID string, amount decimal.Decimal, subtract bool) error {
	return shiftOutstandingTx(ctx, tx, "customers", customerID, amount, subtract)
}

func shiftSupplierOutstandingTx(ctx context.Context, tx *sql.Tx, supplierID string, amount decimal.Decimal, subtract bool) error {
	return shiftOutstandingTx(ctx, tx, "suppliers", supplierID, amount, subtract)
}

func shiftOutstandingTx(ctx context.Context, tx *sql.Tx, table string, partyID string, amount decimal.Decimal, subtract bool) error {
	var res sql.Result
	var err error
	if subtract {
		res, err = tx.ExecContext(ctx, `
			UPDATE `+table+`
			SET outstanding_amount = outstanding_amount - $1
			WHERE id = $2 AND outstanding_amount >= $1
		`, amount, partyID)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE `+table+`
			SET outstanding_amount = outstanding_amount + $1
			WHERE id = $2
		`, amount, partyID)
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, partyID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		return store.ErrOverpayment
	}
	return nil
}

// CreateJournalEntry persists a manual entry. Balance is re-checked here so
// no path can slip an unbalanced entry past the service layer.
func (s *Store) CreateJournalEntry(ctx context.Context, entry domain.JournalEntry) (*domain.JournalEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertJournalTx(ctx, tx, &entry); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &entry, nil
}

func insertJournalTx(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error {
	if len(entry.Lines) < 2 {
		return store.Invalid("lines", "at least two lines are required")
	}
	if !entry.Balanced() {
		return store.Invalid("lines", "debits must equal credits")
	}
	if entry.ID == "" {
		entry.ID = xid.New("jrn")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.EntryDate.IsZero() {
		entry.EntryDate = entry.CreatedAt
	}
	entry.EntryDate = dayUTC(entry.EntryDate)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO journal_entries (id, entry_number, station_id, entry_date, description, reference_type, reference_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.EntryNumber, entry.StationID, entry.EntryDate, entry.Description,
		entry.ReferenceType, nullIfEmpty(entry.ReferenceID), entry.CreatedAt)
	if err != nil {
		return err
	}

	for i := range entry.Lines {
		line := &entry.Lines[i]
		if line.ID == "" {
			line.ID = xid.New("jln")
		}
		line.EntryID = entry.ID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO journal_lines (id, entry_id, account_code, debit, credit, memo, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, line.ID, line.EntryID, line.AccountCode, line.Debit, line.Credit, line.Memo, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListJournalEntries(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.JournalEntry, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_number, station_id, entry_date, description, reference_type, COALESCE(reference_id,''), created_at
		FROM journal_entries
		WHERE ($1 = '' OR station_id = $1)
			AND entry_date >= $2
			AND entry_date < $3
		ORDER BY entry_date DESC, created_at DESC
		LIMIT $4
	`, stationID, dayUTC(from), dayUTC(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var e domain.JournalEntry
		if err := rows.Scan(&e.ID, &e.EntryNumber, &e.StationID, &e.EntryDate, &e.Description,
			&e.ReferenceType, &e.ReferenceID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EntryDate = e.EntryDate.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return entries, nil
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, account_code, debit, credit, memo
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, position ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	byEntry := make(map[string][]domain.JournalLine, len(ids))
	for lineRows.Next() {
		var line domain.JournalLine
		if err := lineRows.Scan(&line.ID, &line.EntryID, &line.AccountCode, &line.Debit, &line.Credit, &line.Memo); err != nil {
			return nil, err
		}
		byEntry[line.EntryID] = append(byEntry[line.EntryID], line)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines = byEntry[entries[i].ID]
	}
	return entries, nil
}

// RecomputeBalances rebuilds each party's outstanding from sale/purchase and
// payment history and reports the drift against the stored column. With
// apply=true the stored balances are rewritten inside the same transaction.
func (s *Store) RecomputeBalances(ctx context.Context, stationID string, apply bool) ([]domain.BalanceDrift, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	drifts := make([]domain.BalanceDrift, 0, 8)

	customerRows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.name, c.outstanding_amount,
			COALESCE((
				SELECT SUM(t.outstanding_amount)
				FROM sales_transactions t
				WHERE t.customer_id = c.id AND t.payment_method = 'credit'
			), 0)
			- COALESCE((
				SELECT SUM(p.amount)
				FROM payments p
				WHERE p.customer_id = c.id AND p.payment_type = 'receivable'
			), 0)
		FROM customers c
		WHERE ($1 = '' OR c.station_id = $1)
		ORDER BY c.name ASC
	`, stationID)
	if err != nil {
		return nil, err
	}
	type partyRow struct {
		id       string
		name     string
		stored   decimal.Decimal
		computed decimal.Decimal
	}
	customers := make([]partyRow, 0, 32)
	for customerRows.Next() {
		var row partyRow
		if err := customerRows.Scan(&row.id, &row.name, &row.stored, &row.computed); err != nil {
			_ = customerRows.Close()
			return nil, err
		}
		customers = append(customers, row)
	}
	if err := customerRows.Err(); err != nil {
		_ = customerRows.Close()
		return nil, err
	}
	_ = customerRows.Close()

	for _, row := range customers {
		if row.stored.Equal(row.computed) {
			continue
		}
		drifts = append(drifts, domain.BalanceDrift{
			PartyType: "customer",
			PartyID:   row.id,
			PartyName: row.name,
			Stored:    row.stored,
			Computed:  row.computed,
			Drift:     row.stored.Sub(row.computed),
		})
		if apply {
			if _, err := tx.ExecContext(ctx, `
				UPDATE customers SET outstanding_amount = $2 WHERE id = $1
			`, row.id, row.computed); err != nil {
				return nil, err
			}
		}
	}

	supplierRows, err := tx.QueryContext(ctx, `
		SELECT s.id, s.name, s.outstanding_amount,
			COALESCE((
				SELECT SUM(o.outstanding_amount)
				FROM purchase_orders o
				WHERE o.supplier_id = s.id AND ($1 = '' OR o.station_id = $1)
			), 0)
			- COALESCE((
				SELECT SUM(p.amount)
				FROM payments p
				WHERE p.supplier_id = s.id AND p.payment_type = 'payable' AND ($1 = '' OR p.station_id = $1)
			), 0)
		FROM suppliers s
		ORDER BY s.name ASC
	`, stationID)
	if err != nil {
		return nil, err
	}
	suppliers := make([]partyRow, 0, 16)
	for supplierRows.Next() {
		var row partyRow
		if err := supplierRows.Scan(&row.id, &row.name, &row.stored, &row.computed); err != nil {
			_ = supplierRows.Close()
			return nil, err
		}
		suppliers = append(suppliers, row)
	}
	if err := supplierRows.Err(); err != nil {
		_ = supplierRows.Close()
		return nil, err
	}
	_ = supplierRows.Close()

	for _, row := range suppliers {
		if row.stored.Equal(row.computed) {
			continue
		}
		drifts = append(drifts, domain.BalanceDrift{
			PartyType: "supplier",
			PartyID:   row.id,
			PartyName: row.name,
			Stored:    row.stored,
			Computed:  row.computed,
			Drift:     row.stored.Sub(row.computed),
		})
		if apply {
			if _, err := tx.ExecContext(ctx, `
				UPDATE suppliers SET outstanding_amount = $2 WHERE id = $1
			`, row.id, row.computed); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return drifts, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, station_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.StationID, entry.Actor, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
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

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.StationID, &entry.Actor, &entry.ActorRole, &entry.Action,
			&entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
