package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
)

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager); err != nil {
		return domain.Product{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Product{}, err
	}
	if req.UnitPrice.IsNegative() {
		return domain.Product{}, store.Invalid("unit_price", "must not be negative")
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		SKU:       req.SKU,
		Name:      req.Name,
		Category:  req.Category,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "", "product_create", "product", created.ID, fmt.Sprintf("sku=%s,price=%s", created.SKU, created.UnitPrice))
	return *created, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	updated := *existing
	if req.Name != nil {
		if *req.Name == "" {
			return domain.Product{}, store.Invalid("name", "must not be empty")
		}
		updated.Name = *req.Name
	}
	if req.Category != nil {
		switch *req.Category {
		case domain.CategoryFuel, domain.CategoryLubricant, domain.CategoryOther:
			updated.Category = *req.Category
		default:
			return domain.Product{}, store.Invalid("category", "must be one of: fuel, lubricant, other")
		}
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return domain.Product{}, store.Invalid("unit_price", "must not be negative")
		}
		updated.UnitPrice = *req.UnitPrice
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "", "product_update", "product", saved.ID, fmt.Sprintf("active=%t,price=%s", saved.Active, saved.UnitPrice))
	return *saved, nil
}

func (s *Service) CreateTank(ctx context.Context, req domain.TankCreateRequest) (domain.Tank, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.Tank{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Tank{}, err
	}
	if err := scopeStation(actor, req.StationID); err != nil {
		return domain.Tank{}, err
	}
	if req.Capacity.IsNegative() || req.InitialStock.IsNegative() {
		return domain.Tank{}, store.Invalid("capacity", "capacity and initial_stock must not be negative")
	}
	if req.Capacity.IsPositive() && req.InitialStock.GreaterThan(req.Capacity) {
		return domain.Tank{}, store.Invalid("initial_stock", "must not exceed capacity")
	}
	if _, err := s.repo.GetProduct(ctx, req.ProductID); err != nil {
		return domain.Tank{}, err
	}

	created, err := s.repo.CreateTank(ctx, domain.Tank{
		StationID:    req.StationID,
		ProductID:    req.ProductID,
		Name:         req.Name,
		Capacity:     req.Capacity,
		CurrentStock: req.InitialStock,
	})
	if err != nil {
		return domain.Tank{}, err
	}
	s.logAudit(ctx, req.StationID, "tank_create", "tank", created.ID, "stock="+created.CurrentStock.String())
	return *created, nil
}

func (s *Service) ListTanks(ctx context.Context, stationID string) ([]domain.Tank, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	return s.repo.ListTanks(ctx, stationID)
}

// AdjustTank books a manual stock correction. The sign of the quantity picks
// the direction; draw-downs beyond the current stock are rejected whole.
func (s *Service) AdjustTank(ctx context.Context, tankID string, req domain.TankAdjustRequest) (domain.StockMovement, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.StockMovement{}, err
	}
	tank, err := s.repo.GetTank(ctx, tankID)
	if err != nil {
		return domain.StockMovement{}, err
	}
	if err := scopeStation(actor, tank.StationID); err != nil {
		return domain.StockMovement{}, err
	}
	if req.Quantity.IsZero() {
		return domain.StockMovement{}, store.Invalid("quantity", "must not be zero")
	}

	movement, err := s.repo.AdjustTankStock(ctx, tankID, req.Quantity, req.Notes)
	if err != nil {
		return domain.StockMovement{}, err
	}
	s.logAudit(ctx, tank.StationID, "tank_adjust", "tank", tankID, "delta="+req.Quantity.String())
	return *movement, nil
}

func (s *Service) ListStockMovements(ctx context.Context, tankID string, limit int) ([]domain.StockMovement, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	tank, err := s.repo.GetTank(ctx, tankID)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, tank.StationID); err != nil {
		return nil, err
	}
	return s.repo.ListStockMovements(ctx, tankID, limit)
}

func (s *Service) CreatePump(ctx context.Context, req domain.PumpCreateRequest) (domain.Pump, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.Pump{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Pump{}, err
	}
	if err := scopeStation(actor, req.StationID); err != nil {
		return domain.Pump{}, err
	}
	tank, err := s.repo.GetTank(ctx, req.TankID)
	if err != nil {
		return domain.Pump{}, err
	}
	if tank.StationID != req.StationID {
		return domain.Pump{}, store.Invalid("tank_id", "tank belongs to another station")
	}

	created, err := s.repo.CreatePump(ctx, domain.Pump{
		StationID: req.StationID,
		TankID:    req.TankID,
		Name:      req.Name,
	})
	if err != nil {
		return domain.Pump{}, err
	}
	s.logAudit(ctx, req.StationID, "pump_create", "pump", created.ID, "tank="+created.TankID)
	return *created, nil
}

func (s *Service) ListPumps(ctx context.Context, stationID string) ([]domain.Pump, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	return s.repo.ListPumps(ctx, stationID)
}

func (s *Service) RecordPumpReading(ctx context.Context, req domain.PumpReadingCreateRequest) (domain.PumpReading, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return domain.PumpReading{}, err
	}
	if err := s.check(req); err != nil {
		return domain.PumpReading{}, err
	}
	readingDate, err := time.Parse("2006-01-02", req.ReadingDate)
	if err != nil {
		return domain.PumpReading{}, store.Invalid("reading_date", "must be YYYY-MM-DD")
	}
	if req.ClosingReading.LessThan(req.OpeningReading) {
		return domain.PumpReading{}, store.Invalid("closing_reading", "must not be below opening_reading")
	}

	pumps, err := s.repo.ListPumps(ctx, "")
	if err != nil {
		return domain.PumpReading{}, err
	}
	stationID := ""
	for _, pump := range pumps {
		if pump.ID == req.PumpID {
			stationID = pump.StationID
			break
		}
	}
	if stationID == "" {
		return domain.PumpReading{}, store.ErrNotFound
	}
	if err := scopeStation(actor, stationID); err != nil {
		return domain.PumpReading{}, err
	}

	created, err := s.repo.CreatePumpReading(ctx, domain.PumpReading{
		PumpID:         req.PumpID,
		ReadingDate:    readingDate,
		OpeningReading: req.OpeningReading,
		ClosingReading: req.ClosingReading,
		RecordedBy:     actor.Username,
	})
	if err != nil {
		return domain.PumpReading{}, err
	}
	dispensed := created.ClosingReading.Sub(created.OpeningReading)
	s.logAudit(ctx, stationID, "pump_reading", "pump", req.PumpID, "dispensed="+dispensed.String())
	return *created, nil
}

func (s *Service) ListPumpReadings(ctx context.Context, pumpID string, from time.Time, to time.Time) ([]domain.PumpReading, error) {
	if _, err := requireRole(ctx); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(24 * time.Hour)
	}
	return s.repo.ListPumpReadings(ctx, pumpID, from, to)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.Customer{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Customer{}, err
	}
	if err := scopeStation(actor, req.StationID); err != nil {
		return domain.Customer{}, err
	}
	if req.CreditLimit.IsNegative() {
		return domain.Customer{}, store.Invalid("credit_limit", "must not be negative")
	}
	if _, err := s.repo.GetStation(ctx, req.StationID); err != nil {
		return domain.Customer{}, err
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		StationID:         req.StationID,
		Name:              req.Name,
		Phone:             req.Phone,
		Email:             req.Email,
		CreditLimit:       req.CreditLimit,
		OutstandingAmount: decimal.Zero,
	})
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, req.StationID, "customer_create", "customer", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) ListCustomers(ctx context.Context, stationID string) ([]domain.Customer, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	return s.repo.ListCustomers(ctx, stationID)
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager); err != nil {
		return domain.Supplier{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Supplier{}, err
	}

	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		Name:              req.Name,
		Phone:             req.Phone,
		Email:             req.Email,
		OutstandingAmount: decimal.Zero,
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "", "supplier_create", "supplier", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	if _, err := requireRole(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreateAccount(ctx context.Context, req domain.AccountCreateRequest) (domain.Account, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.Account{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Account{}, err
	}

	created, err := s.repo.CreateAccount(ctx, domain.Account{
		Code: req.Code,
		Name: req.Name,
		Type: req.Type,
	})
	if err != nil {
		return domain.Account{}, err
	}
	s.logAudit(ctx, "", "account_create", "account", created.ID, "code="+created.Code)
	return *created, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if _, err := requireRole(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListAccounts(ctx)
}
