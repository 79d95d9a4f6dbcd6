package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mfigueroa/retailhub-backend/internal/identity"
	pkgauth "github.com/mfigueroa/retailhub-backend/pkg/auth"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	"github.com/mfigueroa/retailhub-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/security"
	"gorm.io/gorm"
)

// RateLimiter is the slice of the redis client the login path needs. A nil
// limiter disables throttling, which keeps tests and local setups simple.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service handles registration, login and the self-service profile.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Profile(ctx context.Context, accountID int64) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, accountID int64, input UpdateProfileInput) error
}

// RegisterInput creates a customer account. The profile fields matching the
// chosen kind apply; the rest are ignored.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Kind     int
	IP       string

	Gender         string
	Age            int
	MarriageStatus int
	Income         int64

	CompanyName string
	Category    string
	GrossIncome int64
}

// LoginInput carries the credentials plus the caller address for throttling.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// UserDTO is the account identity block returned by register and login.
type UserDTO struct {
	AccountID  int64  `json:"account_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	CustomerID *int64 `json:"customer_id,omitempty"`
	EmployeeID *int64 `json:"employee_id,omitempty"`
	StoreID    *int64 `json:"store_id,omitempty"`
}

// LoginResult bundles the minted token with the resolved identity.
type LoginResult struct {
	Token string  `json:"token"`
	Role  string  `json:"role"`
	User  UserDTO `json:"user"`
}

// AddressDTO mirrors the shared postal address shape.
type AddressDTO struct {
	ID       int64   `json:"id"`
	State    string  `json:"state"`
	City     string  `json:"city"`
	Zipcode  *int    `json:"zipcode"`
	Address1 string  `json:"address_1"`
	Address2 *string `json:"address_2"`
}

// HomeDetailsDTO is the household slice of a customer profile.
type HomeDetailsDTO struct {
	MarriageStatus int    `json:"marriage_status"`
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	Income         int64  `json:"income"`
}

// BusinessDetailsDTO is the company slice of a customer profile.
type BusinessDetailsDTO struct {
	CompanyName string `json:"company_name"`
	Category    string `json:"category"`
	GrossIncome int64  `json:"gross_income"`
}

// SalesContactDTO is the assigned salesperson's contact card.
type SalesContactDTO struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	StoreID    int64  `json:"store_id"`
	StoreName  string `json:"store_name"`
}

// CustomerProfileDTO is the customer half of a profile.
type CustomerProfileDTO struct {
	CustomerID    int64               `json:"customer_id"`
	Kind          int                 `json:"kind"`
	Address       *AddressDTO         `json:"address,omitempty"`
	Home          *HomeDetailsDTO     `json:"home_details,omitempty"`
	Business      *BusinessDetailsDTO `json:"business_details,omitempty"`
	AssignedSales *SalesContactDTO    `json:"assigned_sales,omitempty"`
}

// ContactDTO is a lightweight employee contact card.
type ContactDTO struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// StoreInfoDTO names the store an employee works at.
type StoreInfoDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RegionInfoDTO names the region an employee manages.
type RegionInfoDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EmployeeProfileDTO is the staff half of a profile.
type EmployeeProfileDTO struct {
	EmployeeID      int64          `json:"employee_id"`
	JobTitle        string         `json:"job_title"`
	IsSalesperson   bool           `json:"is_salesperson"`
	IsStoreManager  bool           `json:"is_store_manager"`
	IsRegionManager bool           `json:"is_region_manager"`
	Store           *StoreInfoDTO  `json:"store_info,omitempty"`
	StoreManager    *ContactDTO    `json:"store_manager,omitempty"`
	Region          *RegionInfoDTO `json:"region_info,omitempty"`
}

// ProfileDTO is the complete self-service profile.
type ProfileDTO struct {
	AccountID int64               `json:"account_id"`
	Email     string              `json:"email"`
	Name      string              `json:"name"`
	Role      string              `json:"role"`
	Customer  *CustomerProfileDTO `json:"customer,omitempty"`
	Employee  *EmployeeProfileDTO `json:"employee,omitempty"`
}

// UpdateProfileInput carries optional self-service mutations. A password
// change requires the current password.
type UpdateProfileInput struct {
	Name            *string
	Email           *string
	Password        *string
	CurrentPassword *string

	Gender         *string
	Age            *int
	MarriageStatus *int
	Income         *int64

	CompanyName *string
	Category    *string
	GrossIncome *int64
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	resolver  identity.Service
	limiter   RateLimiter
	jwt       config.JWTConfig
	password  config.PasswordConfig
	rateLimit config.AuthRateLimitConfig
	now       func() time.Time
}

// NewService constructs the auth service. The limiter is optional.
func NewService(
	repo *Repository,
	dbClient *db.Client,
	resolver identity.Service,
	limiter RateLimiter,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	rateLimitCfg config.AuthRateLimitConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		resolver:  resolver,
		limiter:   limiter,
		jwt:       jwtCfg,
		password:  passwordCfg,
		rateLimit: rateLimitCfg,
		now:       time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, email and password are required")
	}
	kind, err := enums.ParseCustomerKind(input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer kind")
	}
	if err := s.allow(ctx, "register:email:"+input.Email, s.rateLimit.RegisterEmailLimit, s.rateLimit.RegisterWindow); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "register:ip:"+input.IP, s.rateLimit.RegisterIPLimit, s.rateLimit.RegisterWindow); err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailTaken(ctx, input.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	account := &models.Account{Email: input.Email, PasswordHash: hash, Name: input.Name}
	var customerID int64
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if txErr := repo.CreateAccount(ctx, account); txErr != nil {
			return txErr
		}
		customer := &models.Customer{AccountID: account.ID, Kind: kind}
		if txErr := repo.CreateCustomer(ctx, customer); txErr != nil {
			return txErr
		}
		customerID = customer.ID

		if kind == enums.CustomerKindHome {
			marriage, parseErr := enums.ParseMarriageStatus(input.MarriageStatus)
			if parseErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid marriage status")
			}
			return repo.CreateHomeProfile(ctx, &models.HomeProfile{
				CustomerID:     customer.ID,
				MarriageStatus: marriage,
				Gender:         input.Gender,
				Age:            input.Age,
				Income:         input.Income,
			})
		}
		return repo.CreateBusinessProfile(ctx, &models.BusinessProfile{
			CustomerID:  customer.ID,
			CompanyName: input.CompanyName,
			Category:    input.Category,
			GrossIncome: input.GrossIncome,
		})
	})
	if err != nil {
		return nil, err
	}

	return &UserDTO{
		AccountID:  account.ID,
		Email:      account.Email,
		Name:       account.Name,
		CustomerID: &customerID,
	}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	if err := s.allow(ctx, "login:email:"+input.Email, s.rateLimit.LoginEmailLimit, s.rateLimit.LoginWindow); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "login:ip:"+input.IP, s.rateLimit.LoginIPLimit, s.rateLimit.LoginWindow); err != nil {
		return nil, err
	}

	account, err := s.repo.FindAccountByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	ok, err := security.VerifyPassword(input.Password, account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	fact, err := s.resolver.Resolve(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		AccountID: account.ID,
		Email:     account.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	user := UserDTO{AccountID: account.ID, Email: account.Email, Name: account.Name}
	if fact.IsCustomer() {
		customerID := fact.CustomerID
		user.CustomerID = &customerID
	}
	if fact.IsEmployee() {
		employeeID := fact.EmployeeID
		user.EmployeeID = &employeeID
		if fact.IsSalesperson {
			storeID := fact.SalesStoreID
			user.StoreID = &storeID
		}
	}

	return &LoginResult{
		Token: token,
		Role:  fact.PrimaryRole().String(),
		User:  user,
	}, nil
}

func (s *service) Profile(ctx context.Context, accountID int64) (*ProfileDTO, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	fact, err := s.resolver.Resolve(ctx, accountID)
	if err != nil {
		return nil, err
	}

	dto := &ProfileDTO{
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.Name,
		Role:      fact.PrimaryRole().String(),
	}
	if fact.IsCustomer() {
		customer, custErr := s.customerProfile(ctx, fact)
		if custErr != nil {
			return nil, custErr
		}
		dto.Customer = customer
	}
	if fact.IsEmployee() {
		employee, empErr := s.employeeProfile(ctx, fact)
		if empErr != nil {
			return nil, empErr
		}
		dto.Employee = employee
	}
	return dto, nil
}

func (s *service) customerProfile(ctx context.Context, fact identity.RoleFact) (*CustomerProfileDTO, error) {
	dto := &CustomerProfileDTO{CustomerID: fact.CustomerID, Kind: int(fact.CustomerKind)}

	customer, err := s.repo.FindCustomerByAccount(ctx, fact.AccountID)
	if err != nil {
		return nil, err
	}
	if customer != nil && customer.AddressID != nil {
		address, addrErr := s.repo.FindAddress(ctx, *customer.AddressID)
		if addrErr != nil {
			return nil, addrErr
		}
		if address != nil {
			dto.Address = &AddressDTO{
				ID:       address.ID,
				State:    address.State,
				City:     address.City,
				Zipcode:  address.Zipcode,
				Address1: address.Address1,
				Address2: address.Address2,
			}
		}
	}

	var salesID *int64
	switch fact.CustomerKind {
	case enums.CustomerKindHome:
		profile, profErr := s.repo.FindHomeProfile(ctx, fact.CustomerID)
		if profErr != nil {
			return nil, profErr
		}
		if profile != nil {
			dto.Home = &HomeDetailsDTO{
				MarriageStatus: int(profile.MarriageStatus),
				Gender:         profile.Gender,
				Age:            profile.Age,
				Income:         profile.Income,
			}
			salesID = profile.SalesID
		}
	case enums.CustomerKindBusiness:
		profile, profErr := s.repo.FindBusinessProfile(ctx, fact.CustomerID)
		if profErr != nil {
			return nil, profErr
		}
		if profile != nil {
			dto.Business = &BusinessDetailsDTO{
				CompanyName: profile.CompanyName,
				Category:    profile.Category,
				GrossIncome: profile.GrossIncome,
			}
			salesID = profile.SalesID
		}
	}

	if salesID != nil {
		contact, contactErr := s.repo.SalesContact(ctx, *salesID)
		if contactErr != nil {
			return nil, contactErr
		}
		if contact != nil {
			dto.AssignedSales = &SalesContactDTO{
				EmployeeID: contact.EmployeeID,
				Name:       contact.Name,
				Email:      contact.Email,
				StoreID:    contact.StoreID,
				StoreName:  contact.StoreName,
			}
		}
	}
	return dto, nil
}

func (s *service) employeeProfile(ctx context.Context, fact identity.RoleFact) (*EmployeeProfileDTO, error) {
	dto := &EmployeeProfileDTO{
		EmployeeID:      fact.EmployeeID,
		JobTitle:        fact.JobTitle,
		IsSalesperson:   fact.IsSalesperson,
		IsStoreManager:  fact.IsStoreManager,
		IsRegionManager: fact.IsRegionManager,
	}

	var storeID int64
	switch {
	case fact.IsSalesperson:
		storeID = fact.SalesStoreID
	case fact.IsStoreManager:
		storeID = fact.ManagedStoreID
	}
	if storeID != 0 {
		store, err := s.repo.FindStore(ctx, storeID)
		if err != nil {
			return nil, err
		}
		if store != nil {
			dto.Store = &StoreInfoDTO{ID: store.ID, Name: store.Name}
			if store.ManagerID != nil {
				manager, mgrErr := s.repo.EmployeeContact(ctx, *store.ManagerID)
				if mgrErr != nil {
					return nil, mgrErr
				}
				if manager != nil {
					dto.StoreManager = &ContactDTO{
						EmployeeID: manager.EmployeeID,
						Name:       manager.Name,
						Email:      manager.Email,
					}
				}
			}
		}
	}

	if fact.IsRegionManager {
		region, err := s.repo.FindRegion(ctx, fact.ManagedRegionID)
		if err != nil {
			return nil, err
		}
		if region != nil {
			dto.Region = &RegionInfoDTO{ID: region.ID, Name: region.Name}
		}
	}
	return dto, nil
}

func (s *service) UpdateProfile(ctx context.Context, accountID int64, input UpdateProfileInput) error {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	fact, err := s.resolver.Resolve(ctx, accountID)
	if err != nil {
		return err
	}

	if input.Name != nil {
		if fact.IsEmployee() {
			return pkgerrors.New(pkgerrors.CodeValidation, "employees cannot change their name, contact HR")
		}
		account.Name = *input.Name
	}
	if input.Email != nil {
		if fact.IsEmployee() {
			return pkgerrors.New(pkgerrors.CodeValidation, "employees cannot change their email, contact IT")
		}
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		taken, takenErr := s.repo.EmailTaken(ctx, email, accountID)
		if takenErr != nil {
			return takenErr
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
		}
		account.Email = email
	}
	if input.Password != nil && *input.Password != "" {
		if input.CurrentPassword == nil || *input.CurrentPassword == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "current password is required to change password")
		}
		ok, verifyErr := security.VerifyPassword(*input.CurrentPassword, account.PasswordHash)
		if verifyErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, verifyErr, "verify password")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
		}
		hash, hashErr := security.HashPassword(*input.Password, s.password)
		if hashErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, hashErr, "hash password")
		}
		account.PasswordHash = hash
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if txErr := repo.SaveAccount(ctx, account); txErr != nil {
			return txErr
		}
		if !fact.IsCustomer() {
			return nil
		}
		switch fact.CustomerKind {
		case enums.CustomerKindHome:
			return s.updateHomeDetails(ctx, repo, fact.CustomerID, input)
		case enums.CustomerKindBusiness:
			return s.updateBusinessDetails(ctx, repo, fact.CustomerID, input)
		default:
			return nil
		}
	})
}

func (s *service) updateHomeDetails(ctx context.Context, repo *Repository, customerID int64, input UpdateProfileInput) error {
	profile, err := repo.FindHomeProfile(ctx, customerID)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}
	if input.Gender != nil {
		profile.Gender = *input.Gender
	}
	if input.Age != nil {
		profile.Age = *input.Age
	}
	if input.MarriageStatus != nil {
		marriage, parseErr := enums.ParseMarriageStatus(*input.MarriageStatus)
		if parseErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid marriage status")
		}
		profile.MarriageStatus = marriage
	}
	if input.Income != nil {
		profile.Income = *input.Income
	}
	return repo.SaveHomeProfile(ctx, profile)
}

func (s *service) updateBusinessDetails(ctx context.Context, repo *Repository, customerID int64, input UpdateProfileInput) error {
	profile, err := repo.FindBusinessProfile(ctx, customerID)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}
	if input.CompanyName != nil {
		profile.CompanyName = *input.CompanyName
	}
	if input.Category != nil {
		profile.Category = *input.Category
	}
	if input.GrossIncome != nil {
		profile.GrossIncome = *input.GrossIncome
	}
	return repo.SaveBusinessProfile(ctx, profile)
}

// allow consults the rate limiter when one is configured.
func (s *service) allow(ctx context.Context, scope string, limit int, window time.Duration) error {
	if s.limiter == nil || limit <= 0 {
		return nil
	}
	ok, _, err := s.limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	}
	return nil
}
