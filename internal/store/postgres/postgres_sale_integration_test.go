package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
)

func TestCreateSaleRollsBackOnInsufficientStock(t *testing.T) {
	databaseURL := os.Getenv("FUELPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set FUELPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	station, err := s.CreateStation(ctx, domain.Station{
		Code: fmt.Sprintf("IT-%d", stamp),
		Name: "integration station",
	})
	if err != nil {
		t.Fatalf("create station: %v", err)
	}
	product, err := s.CreateProduct(ctx, domain.Product{
		SKU:       fmt.Sprintf("FUEL-IT-%d", stamp),
		Name:      "Diesel IT",
		Category:  domain.CategoryFuel,
		UnitPrice: decimal.RequireFromString("1.50"),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	tank, err := s.CreateTank(ctx, domain.Tank{
		StationID:    station.ID,
		ProductID:    product.ID,
		Name:         "Tank IT",
		Capacity:     decimal.RequireFromString("1000"),
		CurrentStock: decimal.RequireFromString("50"),
	})
	if err != nil {
		t.Fatalf("create tank: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE tank_id = $1`, tank.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM pumps WHERE tank_id = $1`, tank.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM tanks WHERE id = $1`, tank.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM station_settings WHERE station_id = $1`, station.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stations WHERE id = $1`, station.ID)
	})

	qty := decimal.RequireFromString("60.000")
	total := decimal.RequireFromString("90.00")
	_, err = s.CreateSale(ctx, domain.SalesTransaction{
		InvoiceNumber: fmt.Sprintf("INV-IT-%d", stamp),
		StationID:     station.ID,
		Cashier:       "it-cashier",
		PaymentMethod: domain.PaymentMethodCash,
		Currency:      "USD",
		Subtotal:      total,
		TotalAmount:   total,
		PaidAmount:    total,
		Items: []domain.SalesItem{{
			ProductID:  product.ID,
			TankID:     tank.ID,
			Quantity:   qty,
			UnitPrice:  decimal.RequireFromString("1.50"),
			TotalPrice: total,
		}},
	}, nil)
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	got, err := s.GetTank(ctx, tank.ID)
	if err != nil {
		t.Fatalf("get tank: %v", err)
	}
	if !got.CurrentStock.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected stock untouched at 50, got %s", got.CurrentStock)
	}

	var headers int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sales_transactions WHERE station_id = $1
	`, station.ID).Scan(&headers); err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if headers != 0 {
		t.Fatalf("expected no sale header after rollback, got %d", headers)
	}
}
