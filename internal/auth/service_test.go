package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mfigueroa/retailhub-backend/internal/identity"
	pkgauth "github.com/mfigueroa/retailhub-backend/pkg/auth"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/security"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	testJWT = config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "retailhub-test",
		ExpirationMinutes: 15,
	}
	testPassword = config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
	testRateLimit = config.AuthRateLimitConfig{
		LoginWindow:        time.Minute,
		LoginEmailLimit:    3,
		LoginIPLimit:       10,
		RegisterWindow:     time.Minute,
		RegisterEmailLimit: 3,
		RegisterIPLimit:    10,
	}
)

// stubLimiter counts calls and denies once remaining hits zero.
type stubLimiter struct {
	remaining int
	calls     []string
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, scope string, _ int64, _ time.Duration) (bool, int64, error) {
	s.calls = append(s.calls, scope)
	if s.remaining <= 0 {
		return false, 0, nil
	}
	s.remaining--
	return true, int64(s.remaining), nil
}

type fixture struct {
	svc     Service
	conn    *gorm.DB
	limiter *stubLimiter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Account{},
		&models.Customer{},
		&models.HomeProfile{},
		&models.BusinessProfile{},
		&models.Address{},
		&models.Employee{},
		&models.Salesperson{},
		&models.Store{},
		&models.Region{},
	); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}

	resolver, err := identity.NewService(identity.NewRepository(conn))
	if err != nil {
		t.Fatalf("identity.NewService failed: %v", err)
	}
	limiter := &stubLimiter{remaining: 100}
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn), resolver, limiter, testJWT, testPassword, testRateLimit)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return &fixture{svc: svc, conn: conn, limiter: limiter}
}

func (f *fixture) register(t *testing.T, name, email string, kind int) *UserDTO {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: "secret123",
		Kind:     kind,
		Age:      30,
		Income:   80_000,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestRegisterCreatesCustomerAndProfile(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "alice", " Alice@Example.com ", 0)
	if user.Email != "alice@example.com" {
		t.Fatalf("email must be normalized, got %q", user.Email)
	}
	if user.CustomerID == nil {
		t.Fatal("expected customer id")
	}
	var profile models.HomeProfile
	if err := f.conn.First(&profile, "customer_id = ?", *user.CustomerID).Error; err != nil {
		t.Fatalf("load home profile: %v", err)
	}
	if profile.Age != 30 || profile.Income != 80_000 {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "alice2", Email: "alice@example.com", Password: "x2345678", Kind: 0})
	expectCode(t, err, pkgerrors.CodeConflict)

	_, err = f.svc.Register(context.Background(), RegisterInput{Name: "bob", Email: "bob@example.com", Password: "x2345678", Kind: 7})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestRegisterBusinessProfile(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Register(context.Background(), RegisterInput{
		Name:        "corp",
		Email:       "corp@example.com",
		Password:    "secret123",
		Kind:        1,
		CompanyName: "Corp Inc",
		Category:    "logistics",
		GrossIncome: 1_000_000,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	var profile models.BusinessProfile
	if err := f.conn.First(&profile, "customer_id = ?", *user.CustomerID).Error; err != nil {
		t.Fatalf("load business profile: %v", err)
	}
	if profile.CompanyName != "Corp Inc" || profile.Category != "logistics" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	var count int64
	if err := f.conn.Model(&models.HomeProfile{}).Count(&count).Error; err != nil {
		t.Fatalf("count home profiles: %v", err)
	}
	if count != 0 {
		t.Fatal("business registration must not create a home profile")
	}
}

func TestLoginVerifiesCredentialsAndMintsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "alice@example.com", 0)

	result, err := f.svc.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Role != "customer" {
		t.Fatalf("expected customer role, got %q", result.Role)
	}
	if result.User.CustomerID == nil || *result.User.CustomerID != *user.CustomerID {
		t.Fatalf("expected customer id in payload, got %+v", result.User)
	}
	claims, err := pkgauth.ParseAccessToken(testJWT, result.Token)
	if err != nil {
		t.Fatalf("token must parse: %v", err)
	}
	if claims.AccountID != user.AccountID {
		t.Fatalf("expected account id %d in claims, got %d", user.AccountID, claims.AccountID)
	}

	_, err = f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = f.svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret123"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginRoleDerivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := security.HashPassword("secret123", testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	account := models.Account{Email: "seller@example.com", PasswordHash: hash, Name: "seller"}
	if err := f.conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	employee := models.Employee{AccountID: account.ID, JobTitle: "Sales Associate", Salary: 5_000_000}
	if err := f.conn.Create(&employee).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	store := models.Store{Name: "Alpha"}
	if err := f.conn.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := f.conn.Create(&models.Salesperson{StoreID: store.ID, EmployeeID: employee.ID}).Error; err != nil {
		t.Fatalf("seed salesperson: %v", err)
	}

	result, err := f.svc.Login(ctx, LoginInput{Email: "seller@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Role != "salesperson" {
		t.Fatalf("expected salesperson role, got %q", result.Role)
	}
	if result.User.StoreID == nil || *result.User.StoreID != store.ID {
		t.Fatalf("expected store id in payload, got %+v", result.User)
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t)
	f.limiter.remaining = 0

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "secret123", IP: "10.0.0.1"})
	expectCode(t, err, pkgerrors.CodeRateLimit)
	if len(f.limiter.calls) != 1 || f.limiter.calls[0] != "login:email:alice@example.com" {
		t.Fatalf("expected email scope consulted first, got %+v", f.limiter.calls)
	}
}

func TestProfileForCustomerWithAssignedSales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "alice@example.com", 0)

	sellerAccount := models.Account{Email: "seller@example.com", PasswordHash: "x", Name: "seller"}
	if err := f.conn.Create(&sellerAccount).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	seller := models.Employee{AccountID: sellerAccount.ID, JobTitle: "Sales Associate"}
	if err := f.conn.Create(&seller).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	store := models.Store{Name: "Alpha"}
	if err := f.conn.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := f.conn.Create(&models.Salesperson{StoreID: store.ID, EmployeeID: seller.ID}).Error; err != nil {
		t.Fatalf("seed salesperson: %v", err)
	}
	if err := f.conn.Model(&models.HomeProfile{}).
		Where("customer_id = ?", *user.CustomerID).
		Update("sales_id", seller.ID).Error; err != nil {
		t.Fatalf("assign sales: %v", err)
	}

	profile, err := f.svc.Profile(ctx, user.AccountID)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.Customer == nil || profile.Customer.Home == nil {
		t.Fatalf("expected customer profile, got %+v", profile)
	}
	assigned := profile.Customer.AssignedSales
	if assigned == nil || assigned.Name != "seller" || assigned.StoreName != "Alpha" {
		t.Fatalf("expected assigned sales contact, got %+v", assigned)
	}

	_, err = f.svc.Profile(ctx, 4242)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateProfileRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "alice@example.com", 0)

	// Customer can rename and update demographics.
	name := "alicia"
	age := 31
	if err := f.svc.UpdateProfile(ctx, user.AccountID, UpdateProfileInput{Name: &name, Age: &age}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	var account models.Account
	if err := f.conn.First(&account, "id = ?", user.AccountID).Error; err != nil {
		t.Fatalf("load account: %v", err)
	}
	if account.Name != "alicia" {
		t.Fatalf("expected renamed account, got %+v", account)
	}
	var home models.HomeProfile
	if err := f.conn.First(&home, "customer_id = ?", *user.CustomerID).Error; err != nil {
		t.Fatalf("load home profile: %v", err)
	}
	if home.Age != 31 {
		t.Fatalf("expected updated age, got %+v", home)
	}

	// Password change demands the current password.
	newPassword := "evenmoresecret"
	err := f.svc.UpdateProfile(ctx, user.AccountID, UpdateProfileInput{Password: &newPassword})
	expectCode(t, err, pkgerrors.CodeValidation)

	wrong := "not-my-password"
	err = f.svc.UpdateProfile(ctx, user.AccountID, UpdateProfileInput{Password: &newPassword, CurrentPassword: &wrong})
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	current := "secret123"
	if err := f.svc.UpdateProfile(ctx, user.AccountID, UpdateProfileInput{Password: &newPassword, CurrentPassword: &current}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if _, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: newPassword}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}

	// Employees cannot self-serve name or email changes.
	staffAccount := models.Account{Email: "boss@example.com", PasswordHash: "x", Name: "boss"}
	if err := f.conn.Create(&staffAccount).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if err := f.conn.Create(&models.Employee{AccountID: staffAccount.ID, JobTitle: "Store Manager"}).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	err = f.svc.UpdateProfile(ctx, staffAccount.ID, UpdateProfileInput{Name: &name})
	expectCode(t, err, pkgerrors.CodeValidation)
	email := "boss2@example.com"
	err = f.svc.UpdateProfile(ctx, staffAccount.ID, UpdateProfileInput{Email: &email})
	expectCode(t, err, pkgerrors.CodeValidation)

	// Taken email is a conflict for customers.
	takenEmail := "boss@example.com"
	err = f.svc.UpdateProfile(ctx, user.AccountID, UpdateProfileInput{Email: &takenEmail})
	expectCode(t, err, pkgerrors.CodeConflict)
}
