package customers

import (
	"context"
	"fmt"

	"github.com/mfigueroa/retailhub-backend/internal/authz"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	"github.com/mfigueroa/retailhub-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes the customer roster used by the sales hierarchy.
type Service interface {
	List(ctx context.Context, fact identity.RoleFact, input ListInput) (*ListResult, error)
	Get(ctx context.Context, fact identity.RoleFact, customerID int64) (*CustomerDTO, error)
	Update(ctx context.Context, fact identity.RoleFact, customerID int64, input UpdateInput) error
	SalesList(ctx context.Context, fact identity.RoleFact) ([]SalesRef, error)
}

// ListInput narrows and pages a customer listing.
type ListInput struct {
	Kind   *int
	Search string
	Page   pagination.Params
}

// ListResult is a page of customer summaries.
type ListResult struct {
	Customers []CustomerDTO `json:"customers"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	Pages     int           `json:"pages"`
}

// AddressDTO mirrors the shared address row.
type AddressDTO struct {
	ID       int64   `json:"id"`
	State    string  `json:"state"`
	City     string  `json:"city"`
	Zipcode  *int    `json:"zipcode"`
	Address1 string  `json:"address_1"`
	Address2 *string `json:"address_2"`
}

// HomeDetails is the household profile slice of a customer.
type HomeDetails struct {
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	MarriageStatus int    `json:"marriage_status"`
	Income         int64  `json:"income"`
}

// BusinessDetails is the company profile slice of a customer.
type BusinessDetails struct {
	CompanyName string `json:"company_name"`
	Category    string `json:"category"`
	GrossIncome int64  `json:"gross_income"`
}

// CustomerDTO is a customer with account, profile and spend rollups.
type CustomerDTO struct {
	ID            int64            `json:"id"`
	AccountID     int64            `json:"account_id"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Kind          int              `json:"kind"`
	Address       *AddressDTO      `json:"address,omitempty"`
	Home          *HomeDetails     `json:"home,omitempty"`
	Business      *BusinessDetails `json:"business,omitempty"`
	SalesID       *int64           `json:"sales_id"`
	SalesName     string           `json:"sales_name,omitempty"`
	TotalSpending int64            `json:"total_spending"`
	OrderCount    int64            `json:"order_count"`
}

// AddressInput carries optional address fields; nil leaves a field alone.
type AddressInput struct {
	Address1 *string
	Address2 *string
	City     *string
	State    *string
	Zipcode  *int
}

// UpdateInput carries optional customer mutations. SetSales marks an explicit
// sales assignment change, with a nil SalesID clearing the assignment.
type UpdateInput struct {
	Address *AddressInput

	Gender         *string
	Age            *int
	MarriageStatus *int
	Income         *int64

	CompanyName *string
	Category    *string
	GrossIncome *int64

	SetSales bool
	SalesID  *int64
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	scopes   authz.Service
}

// NewService constructs a customer administration service.
func NewService(repo *Repository, dbClient *db.Client, scopes authz.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if scopes == nil {
		return nil, fmt.Errorf("authz service required")
	}
	return &service{repo: repo, dbClient: dbClient, scopes: scopes}, nil
}

func (s *service) List(ctx context.Context, fact identity.RoleFact, input ListInput) (*ListResult, error) {
	pred, err := s.scopes.Scope(ctx, fact, authz.ResourceCustomers)
	if err != nil {
		return nil, err
	}
	if pred.Denied() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access requires a staff role")
	}
	if input.Kind != nil {
		if _, err := enums.ParseCustomerKind(*input.Kind); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
	}

	page := pagination.Normalize(input.Page)
	if pred.Empty() {
		return &ListResult{Customers: []CustomerDTO{}, Total: 0, Page: page.Page, Pages: 0}, nil
	}

	filter := ListFilter{Kind: input.Kind, Search: input.Search}
	if pred.Kind == authz.PredicateCustomerIDs {
		filter.CustomerIDs = pred.CustomerIDs
	}

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	result := make([]CustomerDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := s.decorate(ctx, CustomerDTO{
			ID:        row.ID,
			AccountID: row.AccountID,
			Name:      row.Name,
			Email:     row.Email,
			Kind:      row.Kind,
		}, row.AddressID)
		if err != nil {
			return nil, err
		}
		result = append(result, dto)
	}
	return &ListResult{Customers: result, Total: total, Page: page.Page, Pages: page.Pages(total)}, nil
}

func (s *service) Get(ctx context.Context, fact identity.RoleFact, customerID int64) (*CustomerDTO, error) {
	pred, err := s.scopes.Scope(ctx, fact, authz.ResourceCustomers)
	if err != nil {
		return nil, err
	}
	if pred.Denied() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access requires a staff role")
	}

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if !customerInScope(pred, customerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer is outside your scope")
	}

	account, err := s.repo.FindAccount(ctx, customer.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}

	dto, err := s.decorate(ctx, CustomerDTO{
		ID:        customer.ID,
		AccountID: customer.AccountID,
		Name:      account.Name,
		Email:     account.Email,
		Kind:      int(customer.Kind),
	}, customer.AddressID)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// decorate fills profile details, address, sales assignment and spend
// rollups onto a bare customer row.
func (s *service) decorate(ctx context.Context, dto CustomerDTO, addressID *int64) (CustomerDTO, error) {
	if addressID != nil {
		address, err := s.repo.FindAddress(ctx, *addressID)
		if err != nil {
			return dto, err
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
	if enums.CustomerKind(dto.Kind) == enums.CustomerKindBusiness {
		profile, err := s.repo.FindBusinessProfile(ctx, dto.ID)
		if err != nil {
			return dto, err
		}
		if profile != nil {
			dto.Business = &BusinessDetails{
				CompanyName: profile.CompanyName,
				Category:    profile.Category,
				GrossIncome: profile.GrossIncome,
			}
			salesID = profile.SalesID
		}
	} else {
		profile, err := s.repo.FindHomeProfile(ctx, dto.ID)
		if err != nil {
			return dto, err
		}
		if profile != nil {
			dto.Home = &HomeDetails{
				Gender:         profile.Gender,
				Age:            profile.Age,
				MarriageStatus: int(profile.MarriageStatus),
				Income:         profile.Income,
			}
			salesID = profile.SalesID
		}
	}
	dto.SalesID = salesID
	if salesID != nil {
		name, err := s.repo.EmployeeName(ctx, *salesID)
		if err != nil {
			return dto, err
		}
		dto.SalesName = name
	}

	spending, err := s.repo.PaidSpending(ctx, dto.ID)
	if err != nil {
		return dto, err
	}
	dto.TotalSpending = spending

	orders, err := s.repo.OrderCount(ctx, dto.ID)
	if err != nil {
		return dto, err
	}
	dto.OrderCount = orders
	return dto, nil
}

func (s *service) Update(ctx context.Context, fact identity.RoleFact, customerID int64, input UpdateInput) error {
	pred, err := s.scopes.Scope(ctx, fact, authz.ResourceCustomers)
	if err != nil {
		return err
	}
	if pred.Denied() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "customer access requires a staff role")
	}

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if !customerInScope(pred, customerID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "customer is outside your scope")
	}

	if input.SetSales && input.SalesID != nil {
		exists, err := s.repo.EmployeeExists(ctx, *input.SalesID)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid sales employee")
		}
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.Address != nil {
			if txErr := upsertAddress(ctx, repo, customer, input.Address); txErr != nil {
				return txErr
			}
		}
		if customer.Kind == enums.CustomerKindBusiness {
			return updateBusinessProfile(ctx, repo, customerID, input)
		}
		return updateHomeProfile(ctx, repo, customerID, input)
	})
}

func upsertAddress(ctx context.Context, repo *Repository, customer *models.Customer, input *AddressInput) error {
	var address *models.Address
	if customer.AddressID != nil {
		existing, err := repo.FindAddress(ctx, *customer.AddressID)
		if err != nil {
			return err
		}
		address = existing
	}
	created := address == nil
	if created {
		address = &models.Address{}
	}

	if input.Address1 != nil {
		address.Address1 = *input.Address1
	}
	if input.Address2 != nil {
		address.Address2 = input.Address2
	}
	if input.City != nil {
		address.City = *input.City
	}
	if input.State != nil {
		address.State = *input.State
	}
	if input.Zipcode != nil {
		address.Zipcode = input.Zipcode
	}
	if err := repo.SaveAddress(ctx, address); err != nil {
		return err
	}
	if created {
		customer.AddressID = &address.ID
		return repo.SaveCustomer(ctx, customer)
	}
	return nil
}

func updateHomeProfile(ctx context.Context, repo *Repository, customerID int64, input UpdateInput) error {
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
		profile.MarriageStatus = enums.MarriageStatus(*input.MarriageStatus)
	}
	if input.Income != nil {
		profile.Income = *input.Income
	}
	if input.SetSales {
		profile.SalesID = input.SalesID
	}
	return repo.SaveHomeProfile(ctx, profile)
}

func updateBusinessProfile(ctx context.Context, repo *Repository, customerID int64, input UpdateInput) error {
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
	if input.SetSales {
		profile.SalesID = input.SalesID
	}
	return repo.SaveBusinessProfile(ctx, profile)
}

func (s *service) SalesList(ctx context.Context, fact identity.RoleFact) ([]SalesRef, error) {
	if !fact.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "sales list requires a staff role")
	}
	return s.repo.SalesList(ctx)
}

func customerInScope(pred authz.Predicate, customerID int64) bool {
	switch pred.Kind {
	case authz.PredicateAllowAll:
		return true
	case authz.PredicateCustomerIDs:
		for _, id := range pred.CustomerIDs {
			if id == customerID {
				return true
			}
		}
	}
	return false
}
