package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"fuelpos/backend/internal/cache"
	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/xid"
)

// ErrForbidden marks role or station-scope violations; the HTTP layer maps it
// to 403.
var ErrForbidden = errors.New("forbidden")

// Seeded chart-of-accounts codes used for automatic journal postings.
const (
	accountCash       = "1000"
	accountReceivable = "1100"
	accountInventory  = "1200"
	accountPayable    = "2000"
	accountTaxPayable = "2100"
	accountRevenue    = "4000"
	accountExpense    = "6000"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	reports  cache.ReportCache
	validate *validator.Validate
}

func New(repo store.Repository, reports cache.ReportCache) *Service {
	if reports == nil {
		reports = cache.NewNoop()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Service{
		repo:     repo,
		reports:  reports,
		validate: v,
	}
}

// check runs struct-tag validation and converts the result into the
// field-error shape the HTTP layer serializes.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &store.ValidationError{Fields: make([]store.FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, store.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("needs at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// requireRole loads the actor and checks the role list. An empty list allows
// any authenticated caller.
func requireRole(ctx context.Context, roles ...string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, ErrForbidden
	}
	if len(roles) == 0 {
		return actor, nil
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return actor, ErrForbidden
}

// scopeStation checks a station-bound actor against the target station.
// Admins (empty actor station) pass for every station.
func scopeStation(actor domain.Actor, stationID string) error {
	if actor.Role == domain.RoleAdmin || actor.StationID == "" {
		return nil
	}
	if stationID != "" && actor.StationID != stationID {
		return ErrForbidden
	}
	return nil
}

func invoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%d", now.Format("20060102"), now.UnixNano()%1_000_000_000)
}

func orderNumber(now time.Time) string {
	return fmt.Sprintf("PO-%s-%d", now.Format("20060102"), now.UnixNano()%1_000_000_000)
}

func entryNumber(now time.Time) string {
	return fmt.Sprintf("JE-%s-%d", now.Format("20060102"), now.UnixNano()%1_000_000_000)
}

func (s *Service) logAudit(ctx context.Context, stationID string, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		StationID:  stationID,
		Actor:      actor.Username,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s entity=%s: %v", action, entityID, err)
	}
}

// --- auth ---

// Authenticate verifies a username/password pair against the stored bcrypt
// hash. Unknown users, wrong passwords and inactive accounts are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, req domain.LoginRequest) (domain.Actor, error) {
	if err := s.check(req); err != nil {
		return domain.Actor{}, err
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	for _, user := range users {
		if user.Username != username {
			continue
		}
		if !user.Active {
			break
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			break
		}
		return domain.Actor{Username: user.Username, Role: user.Role, StationID: user.StationID}, nil
	}
	return domain.Actor{}, fmt.Errorf("invalid credentials")
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.UserView, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.UserView{}, err
	}
	if err := s.check(req); err != nil {
		return domain.UserView{}, err
	}
	if req.Role != domain.RoleAdmin && req.StationID == "" {
		return domain.UserView{}, store.Invalid("station_id", "is required for non-admin users")
	}
	if req.StationID != "" {
		if _, err := s.repo.GetStation(ctx, req.StationID); err != nil {
			return domain.UserView{}, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserView{}, err
	}
	user := domain.UserAccount{
		Username:  strings.ToLower(strings.TrimSpace(req.Username)),
		Password:  string(hash),
		Role:      req.Role,
		StationID: req.StationID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return domain.UserView{}, err
	}
	s.logAudit(ctx, req.StationID, "user_create", "user", user.Username, "role="+user.Role)
	return userView(user), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.UserView, 0, len(users))
	for _, user := range users {
		views = append(views, userView(user))
	}
	return views, nil
}

// ChangePassword lets admins reset any account and everyone else rotate their
// own.
func (s *Service) ChangePassword(ctx context.Context, username string, req domain.PasswordUpdateRequest) error {
	actor, err := requireRole(ctx)
	if err != nil {
		return err
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if actor.Role != domain.RoleAdmin && actor.Username != username {
		return ErrForbidden
	}
	if err := s.check(req); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUserPassword(ctx, username, string(hash)); err != nil {
		return err
	}
	s.logAudit(ctx, "", "password_change", "user", username, "")
	return nil
}

func userView(user domain.UserAccount) domain.UserView {
	return domain.UserView{
		Username:  user.Username,
		Role:      user.Role,
		StationID: user.StationID,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// --- stations & settings ---

func (s *Service) CreateStation(ctx context.Context, req domain.StationCreateRequest) (domain.Station, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.Station{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Station{}, err
	}
	created, err := s.repo.CreateStation(ctx, domain.Station{
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		return domain.Station{}, err
	}
	s.logAudit(ctx, created.ID, "station_create", "station", created.ID, "code="+created.Code)
	return *created, nil
}

func (s *Service) ListStations(ctx context.Context) ([]domain.Station, error) {
	return s.repo.ListStations(ctx)
}

func (s *Service) GetSettings(ctx context.Context, stationID string) (domain.StationSettings, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return domain.StationSettings{}, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return domain.StationSettings{}, err
	}
	settings, err := s.repo.GetOrCreateSettings(ctx, stationID)
	if err != nil {
		return domain.StationSettings{}, err
	}
	return *settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, stationID string, req domain.SettingsUpdateRequest) (domain.StationSettings, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.StationSettings{}, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return domain.StationSettings{}, err
	}

	settings, err := s.repo.GetOrCreateSettings(ctx, stationID)
	if err != nil {
		return domain.StationSettings{}, err
	}
	updated := *settings
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() {
			return domain.StationSettings{}, store.Invalid("tax_rate", "must not be negative")
		}
		if req.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
			return domain.StationSettings{}, store.Invalid("tax_rate", "is a percentage and must not exceed 100")
		}
		updated.TaxRate = *req.TaxRate
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return domain.StationSettings{}, store.Invalid("currency", "must be a 3-letter code")
		}
		updated.Currency = currency
	}
	if req.ReceiptFooter != nil {
		updated.ReceiptFooter = strings.TrimSpace(*req.ReceiptFooter)
	}

	saved, err := s.repo.UpdateSettings(ctx, updated)
	if err != nil {
		return domain.StationSettings{}, err
	}
	s.logAudit(ctx, stationID, "settings_update", "settings", stationID, "tax_rate="+saved.TaxRate.String())
	return *saved, nil
}
