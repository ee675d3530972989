package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/entity"
	customerrepo "github.com/greencrop/storefront/internal/repository/customer"
	orderrepo "github.com/greencrop/storefront/internal/repository/order"
	userrepo "github.com/greencrop/storefront/internal/repository/user"
	"github.com/greencrop/storefront/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/greencrop/storefront/service/account")

const minPasswordLength = 6

var (
	// ErrMissingFields is the cause of registrations with blank fields.
	ErrMissingFields = errors.New("all fields are required")
	// ErrPasswordMismatch is the cause when the confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordTooShort is the cause of passwords under the minimum length.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrEmailTaken is the cause when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is the cause of a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ConnProvider hands out request-scoped store connections.
type ConnProvider interface {
	Acquire(ctx context.Context) (bun.IDB, error)
	Release(db bun.IDB)
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// AddressInput is the address book form.
type AddressInput struct {
	Alias      string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Primary    bool
}

// OrderSummary is an order as listed on the profile.
type OrderSummary struct {
	ID        int64           `json:"id"`
	CreatedAt time.Time       `json:"fecha_pedido"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"estado"`
	Payload   string          `json:"datos_pedido"`
}

// Profile aggregates everything shown on the account page.
type Profile struct {
	ID          int64                          `json:"id"`
	Email       string                         `json:"email"`
	Phone       string                         `json:"telefono"`
	Points      int64                          `json:"puntos"`
	Addresses   []entity.Address               `json:"direcciones"`
	Orders      []OrderSummary                 `json:"pedidos"`
	Wishlist    []entity.WishlistItem          `json:"lista_deseos"`
	Preferences entity.NotificationPreferences `json:"preferencias"`
}

// Service manages customer accounts and their profile data.
type Service struct {
	conns     ConnProvider
	users     *userrepo.Repository
	customers *customerrepo.Repository
	orders    *orderrepo.Repository
	logger    *zap.Logger
	cost      int
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Provider  *database.Provider
	Users     *userrepo.Repository
	Customers *customerrepo.Repository
	Orders    *orderrepo.Repository
	Logger    *zap.Logger
}

// NewService wires the account service.
func NewService(p Params) *Service {
	return New(p.Provider, p.Users, p.Customers, p.Orders, p.Logger)
}

// New builds a Service from its collaborators.
func New(conns ConnProvider, users *userrepo.Repository, customers *customerrepo.Repository, orders *orderrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		conns:     conns,
		users:     users,
		customers: customers,
		orders:    orders,
		logger:    logger,
		cost:      bcrypt.DefaultCost,
	}
}

// Register creates an account with default notification preferences.
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Register")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Email == "" || in.Phone == "" || in.Password == "" || in.ConfirmPassword == "" {
		return 0, errorbank.BadRequest("all fields are required", errorbank.WithCause(ErrMissingFields))
	}
	if in.Password != in.ConfirmPassword {
		return 0, errorbank.BadRequest("passwords do not match", errorbank.WithCause(ErrPasswordMismatch))
	}
	if len(in.Password) < minPasswordLength {
		return 0, errorbank.BadRequest("password too short", errorbank.WithCause(ErrPasswordTooShort))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return 0, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	db, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer s.conns.Release(db)

	taken, err := s.users.EmailExists(ctx, db, in.Email)
	if err != nil {
		return 0, s.internal("check email", err)
	}
	if taken {
		return 0, errorbank.Conflict("email already registered", errorbank.WithCause(ErrEmailTaken))
	}

	var id int64
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user := &entity.User{Email: in.Email, Phone: in.Phone, PasswordHash: string(hash)}
		if id, err = s.users.Create(ctx, tx, user); err != nil {
			return err
		}
		prefs := entity.DefaultNotificationPreferences(id)
		return s.customers.SavePreferences(ctx, tx, &prefs)
	})
	if errors.Is(err, userrepo.ErrDuplicateEmail) {
		return 0, errorbank.Conflict("email already registered", errorbank.WithCause(ErrEmailTaken))
	}
	if err != nil {
		return 0, s.internal("register user", err)
	}

	span.SetAttributes(attribute.Int64("user.id", id))
	s.logger.Info("user registered", zap.Int64("user_id", id))
	return id, nil
}

// Authenticate checks credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Authenticate")
	defer span.End()

	db, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.conns.Release(db)

	user, err := s.users.ByEmail(ctx, db, strings.TrimSpace(email))
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.Unauthorized("invalid credentials", errorbank.WithCause(ErrInvalidCredentials))
	}
	if err != nil {
		return nil, s.internal("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errorbank.Unauthorized("invalid credentials", errorbank.WithCause(ErrInvalidCredentials))
	}
	return user, nil
}

// Profile gathers the account page of userID.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Profile", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	db, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.conns.Release(db)

	user, err := s.users.ByID(ctx, db, userID)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.NotFound("user not found")
	}
	if err != nil {
		return nil, s.internal("load user", err)
	}

	profile := &Profile{ID: user.ID, Email: user.Email, Phone: user.Phone, Points: user.Points}

	if profile.Addresses, err = s.customers.Addresses(ctx, db, userID); err != nil {
		return nil, s.internal("load addresses", err)
	}

	orders, err := s.orders.ListByOwner(ctx, db, userID)
	if err != nil {
		return nil, s.internal("load orders", err)
	}
	profile.Orders = make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		profile.Orders = append(profile.Orders, OrderSummary{
			ID:        o.ID,
			CreatedAt: o.CreatedAt,
			Total:     o.Total,
			Status:    o.Status,
			Payload:   o.Payload,
		})
	}

	if profile.Wishlist, err = s.customers.Wishlist(ctx, db, userID); err != nil {
		return nil, s.internal("load wishlist", err)
	}
	if profile.Preferences, err = s.customers.Preferences(ctx, db, userID); err != nil {
		return nil, s.internal("load preferences", err)
	}

	if profile.Addresses == nil {
		profile.Addresses = []entity.Address{}
	}
	if profile.Wishlist == nil {
		profile.Wishlist = []entity.WishlistItem{}
	}
	return profile, nil
}

// AddAddress stores a new address; street, city and country are required.
func (s *Service) AddAddress(ctx context.Context, userID int64, in AddressInput) error {
	ctx, span := serviceTracer.Start(ctx, "AccountService.AddAddress", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	var missing []string
	if strings.TrimSpace(in.Street) == "" {
		missing = append(missing, "calle")
	}
	if strings.TrimSpace(in.City) == "" {
		missing = append(missing, "ciudad")
	}
	if strings.TrimSpace(in.Country) == "" {
		missing = append(missing, "pais")
	}
	if len(missing) > 0 {
		return errorbank.Validation(missing)
	}

	db, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.conns.Release(db)

	addr := &entity.Address{
		UserID:     userID,
		Alias:      strings.TrimSpace(in.Alias),
		Street:     strings.TrimSpace(in.Street),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.TrimSpace(in.Country),
		IsPrimary:  in.Primary,
	}
	if err := s.customers.AddAddress(ctx, db, addr); err != nil {
		return s.internal("add address", err)
	}
	return nil
}

// AddFavorite puts a product on the wish list. It reports false when the
// product was already there.
func (s *Service) AddFavorite(ctx context.Context, userID, productID int64) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.AddFavorite", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	if productID <= 0 {
		return false, errorbank.BadRequest("invalid product id")
	}

	db, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer s.conns.Release(db)

	added, err := s.customers.AddWishlistItem(ctx, db, userID, productID)
	if err != nil {
		return false, s.internal("add favorite", err)
	}
	return added, nil
}

// RemoveFavorite deletes a wish list entry of the user.
func (s *Service) RemoveFavorite(ctx context.Context, userID, itemID int64) error {
	ctx, span := serviceTracer.Start(ctx, "AccountService.RemoveFavorite", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	db, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.conns.Release(db)

	removed, err := s.customers.RemoveWishlistItem(ctx, db, userID, itemID)
	if err != nil {
		return s.internal("remove favorite", err)
	}
	if !removed {
		return errorbank.NotFound("wishlist item not found")
	}
	return nil
}

// UpdatePreferences replaces the notification settings of the user.
func (s *Service) UpdatePreferences(ctx context.Context, userID int64, email, sms, promotional bool) error {
	ctx, span := serviceTracer.Start(ctx, "AccountService.UpdatePreferences", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	db, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.conns.Release(db)

	prefs := &entity.NotificationPreferences{UserID: userID, Email: email, SMS: sms, Promotional: promotional}
	if err := s.customers.SavePreferences(ctx, db, prefs); err != nil {
		return s.internal("save preferences", err)
	}
	return nil
}

func (s *Service) acquire(ctx context.Context) (bun.IDB, error) {
	db, err := s.conns.Acquire(ctx)
	if err != nil {
		s.logger.Error("account store unavailable", zap.Error(err))
		return nil, errorbank.Unavailable("account store unavailable", errorbank.WithCause(err))
	}
	return db, nil
}

func (s *Service) internal(op string, err error) error {
	s.logger.Error("account: "+op, zap.Error(err))
	return errorbank.Internal("failed to "+op, errorbank.WithCause(err))
}
