package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaDDL)
	return err
}

func (s *Store) CreateStation(ctx context.Context, station domain.Station) (*domain.Station, error) {
	station.Code = strings.ToUpper(strings.TrimSpace(station.Code))
	station.Name = strings.TrimSpace(station.Name)
	if station.Code == "" || station.Name == "" {
		return nil, store.Invalid("code", "code and name are required")
	}
	if station.ID == "" {
		station.ID = xid.New("stn")
	}
	if station.CreatedAt.IsZero() {
		station.CreatedAt = time.Now().UTC()
	}
	station.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stations (id, code, name, address, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, station.ID, station.Code, station.Name, station.Address, station.Active, station.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := station
	return &created, nil
}

func (s *Store) ListStations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, address, active, created_at
		FROM stations
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]domain.Station, 0, 8)
	for rows.Next() {
		var st domain.Station
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &st.Address, &st.Active, &st.CreatedAt); err != nil {
			return nil, err
		}
		st.CreatedAt = st.CreatedAt.UTC()
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

func (s *Store) GetStation(ctx context.Context, id string) (*domain.Station, error) {
	var st domain.Station
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, address, active, created_at
		FROM stations
		WHERE id = $1
	`, id).Scan(&st.ID, &st.Code, &st.Name, &st.Address, &st.Active, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	st.CreatedAt = st.CreatedAt.UTC()
	return &st, nil
}

// GetOrCreateSettings returns the station's settings row, constructing the
// zero-rate default exactly once when the station has none yet. The insert is
// ON CONFLICT DO NOTHING so two concurrent callers converge on one row.
func (s *Store) GetOrCreateSettings(ctx context.Context, stationID string) (*domain.StationSettings, error) {
	if _, err := s.GetStation(ctx, stationID); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO station_settings (station_id, tax_rate, currency, receipt_footer, updated_at)
		VALUES ($1, 0, 'USD', '', now())
		ON CONFLICT (station_id) DO NOTHING
	`, stationID)
	if err != nil {
		return nil, err
	}

	var settings domain.StationSettings
	err = s.db.QueryRowContext(ctx, `
		SELECT station_id, tax_rate, currency, receipt_footer, updated_at
		FROM station_settings
		WHERE station_id = $1
	`, stationID).Scan(&settings.StationID, &settings.TaxRate, &settings.Currency, &settings.ReceiptFooter, &settings.UpdatedAt)
	if err != nil {
		return nil, err
	}
	settings.UpdatedAt = settings.UpdatedAt.UTC()
	return &settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings domain.StationSettings) (*domain.StationSettings, error) {
	if settings.TaxRate.IsNegative() {
		return nil, store.Invalid("tax_rate", "must not be negative")
	}
	if settings.Currency == "" {
		settings.Currency = "USD"
	}
	settings.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE station_settings
		SET tax_rate = $2, currency = $3, receipt_footer = $4, updated_at = $5
		WHERE station_id = $1
	`, settings.StationID, settings.TaxRate, settings.Currency, settings.ReceiptFooter, settings.UpdatedAt)
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
	updated := settings
	return &updated, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.Invalid("username", "username and password are required")
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, station_id, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
	`, user.Username, user.Password, user.Role, nullIfEmpty(user.StationID), user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, COALESCE(station_id,''), active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.StationID, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.Invalid("username", "username and password are required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func dayUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func litres(d decimal.Decimal) decimal.Decimal {
	return d.Round(3)
}
