package postgres

// schemaDDL is applied at startup. Statements are idempotent so a restart
// against an existing database is a no-op.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS stations (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS station_settings (
	station_id TEXT PRIMARY KEY REFERENCES stations(id),
	tax_rate NUMERIC(7,4) NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	receipt_footer TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS app_users (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'cashier',
	station_id TEXT REFERENCES stations(id),
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	sku TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	unit_price NUMERIC(14,2) NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tanks (
	id TEXT PRIMARY KEY,
	station_id TEXT NOT NULL REFERENCES stations(id),
	product_id TEXT NOT NULL REFERENCES products(id),
	name TEXT NOT NULL,
	capacity NUMERIC(14,3) NOT NULL DEFAULT 0,
	current_stock NUMERIC(14,3) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pumps (
	id TEXT PRIMARY KEY,
	station_id TEXT NOT NULL REFERENCES stations(id),
	tank_id TEXT NOT NULL REFERENCES tanks(id),
	name TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pump_readings (
	id TEXT PRIMARY KEY,
	pump_id TEXT NOT NULL REFERENCES pumps(id),
	reading_date DATE NOT NULL,
	opening_reading NUMERIC(14,3) NOT NULL,
	closing_reading NUMERIC(14,3) NOT NULL,
	recorded_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (pump_id, reading_date)
);

CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	station_id TEXT NOT NULL REFERENCES stations(id),
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	credit_limit NUMERIC(14,2) NOT NULL DEFAULT 0,
	outstanding_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS suppliers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	outstanding_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sales_transactions (
	id TEXT PRIMARY KEY,
	invoice_number TEXT NOT NULL UNIQUE,
	station_id TEXT NOT NULL REFERENCES stations(id),
	customer_id TEXT REFERENCES customers(id),
	cashier TEXT NOT NULL DEFAULT '',
	payment_method TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT 'USD',
	subtotal NUMERIC(14,2) NOT NULL,
	tax_amount NUMERIC(14,2) NOT NULL,
	total_amount NUMERIC(14,2) NOT NULL,
	paid_amount NUMERIC(14,2) NOT NULL,
	outstanding_amount NUMERIC(14,2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sales_items (
	id TEXT PRIMARY KEY,
	transaction_id TEXT NOT NULL REFERENCES sales_transactions(id) ON DELETE CASCADE,
	product_id TEXT NOT NULL REFERENCES products(id),
	tank_id TEXT REFERENCES tanks(id),
	quantity NUMERIC(14,3) NOT NULL,
	unit_price NUMERIC(14,2) NOT NULL,
	total_price NUMERIC(14,2) NOT NULL,
	position INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS purchase_orders (
	id TEXT PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	station_id TEXT NOT NULL REFERENCES stations(id),
	supplier_id TEXT NOT NULL REFERENCES suppliers(id),
	created_by TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	payment_method TEXT NOT NULL,
	subtotal NUMERIC(14,2) NOT NULL,
	tax_amount NUMERIC(14,2) NOT NULL,
	total_amount NUMERIC(14,2) NOT NULL,
	paid_amount NUMERIC(14,2) NOT NULL,
	outstanding_amount NUMERIC(14,2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	received_at TIMESTAMPTZ,
	received_by TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS purchase_items (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
	product_id TEXT NOT NULL REFERENCES products(id),
	tank_id TEXT REFERENCES tanks(id),
	quantity NUMERIC(14,3) NOT NULL,
	unit_cost NUMERIC(14,2) NOT NULL,
	total_cost NUMERIC(14,2) NOT NULL,
	position INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS stock_movements (
	id TEXT PRIMARY KEY,
	tank_id TEXT NOT NULL REFERENCES tanks(id),
	movement_type TEXT NOT NULL,
	quantity NUMERIC(14,3) NOT NULL,
	previous_stock NUMERIC(14,3) NOT NULL,
	new_stock NUMERIC(14,3) NOT NULL,
	reference_type TEXT NOT NULL,
	reference_id TEXT,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS expenses (
	id TEXT PRIMARY KEY,
	station_id TEXT NOT NULL REFERENCES stations(id),
	category TEXT NOT NULL,
	amount NUMERIC(14,2) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	expense_date DATE NOT NULL,
	recorded_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	station_id TEXT NOT NULL REFERENCES stations(id),
	payment_type TEXT NOT NULL,
	customer_id TEXT REFERENCES customers(id),
	supplier_id TEXT REFERENCES suppliers(id),
	amount NUMERIC(14,2) NOT NULL,
	method TEXT NOT NULL,
	reference TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS journal_entries (
	id TEXT PRIMARY KEY,
	entry_number TEXT NOT NULL UNIQUE,
	station_id TEXT NOT NULL REFERENCES stations(id),
	entry_date DATE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	reference_type TEXT NOT NULL DEFAULT '',
	reference_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS journal_lines (
	id TEXT PRIMARY KEY,
	entry_id TEXT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
	account_code TEXT NOT NULL,
	debit NUMERIC(14,2) NOT NULL DEFAULT 0,
	credit NUMERIC(14,2) NOT NULL DEFAULT 0,
	memo TEXT NOT NULL DEFAULT '',
	position INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	station_id TEXT NOT NULL DEFAULT '',
	actor_username TEXT NOT NULL DEFAULT '',
	actor_role TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL DEFAULT '',
	entity_id TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sales_station_created ON sales_transactions (station_id, created_at);
CREATE INDEX IF NOT EXISTS idx_purchases_station_created ON purchase_orders (station_id, created_at);
CREATE INDEX IF NOT EXISTS idx_movements_tank_created ON stock_movements (tank_id, created_at);
CREATE INDEX IF NOT EXISTS idx_expenses_station_date ON expenses (station_id, expense_date);
CREATE INDEX IF NOT EXISTS idx_payments_station_created ON payments (station_id, created_at);
CREATE INDEX IF NOT EXISTS idx_journal_station_date ON journal_entries (station_id, entry_date);
CREATE INDEX IF NOT EXISTS idx_audit_station_created ON audit_logs (station_id, created_at);
`
