package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfigueroa/retailhub-backend/internal/authz"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes the store directory and region-scoped store administration.
type Service interface {
	List(ctx context.Context, fact identity.RoleFact, input ListInput) ([]StoreDTO, error)
	Get(ctx context.Context, storeID int64) (*StoreDTO, error)
	Inventory(ctx context.Context, storeID int64) ([]InventoryDTO, error)
	ProductStock(ctx context.Context, storeID, productID int64) (*StockDTO, error)
	Create(ctx context.Context, fact identity.RoleFact, input CreateInput) (*StoreDTO, error)
	Update(ctx context.Context, fact identity.RoleFact, storeID int64, input UpdateInput) (*StoreDTO, error)
	Delete(ctx context.Context, fact identity.RoleFact, storeID int64) error
}

// ListInput narrows the store directory. RegionID only applies to callers the
// scope engine does not already pin to a region.
type ListInput struct {
	RegionID *int64
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

// StoreDTO is the API shape of a store.
type StoreDTO struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	ManagerID   *int64      `json:"manager_id"`
	ManagerName string      `json:"manager_name,omitempty"`
	RegionID    *int64      `json:"region_id"`
	RegionName  string      `json:"region_name,omitempty"`
	Address     *AddressDTO `json:"address"`
}

// InventoryDTO is one stocked product at a store.
type InventoryDTO struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       int64   `json:"price"`
	Category    string  `json:"category"`
	ImageURL    *string `json:"image_url"`
	Stock       int     `json:"stock"`
}

// StockDTO is the stock level of one product at one store. Unknown pairs read
// as zero stock rather than an error.
type StockDTO struct {
	StoreID   int64 `json:"store_id"`
	ProductID int64 `json:"product_id"`
	Stock     int   `json:"stock"`
}

// AddressInput carries optional address fields for create and update.
type AddressInput struct {
	Address1 *string
	Address2 *string
	City     *string
	State    *string
	Zipcode  *int
}

// CreateInput opens a store inside the caller's region.
type CreateInput struct {
	Name      string
	ManagerID *int64
	Address   *AddressInput
}

// UpdateInput carries optional store mutations. SetManager marks an explicit
// manager change, with a nil ManagerID clearing the post.
type UpdateInput struct {
	Name       *string
	SetManager bool
	ManagerID  *int64
	Address    *AddressInput
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	scopes   authz.Service
}

// NewService constructs the store service.
func NewService(repo *Repository, dbClient *db.Client, scopes authz.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if scopes == nil {
		return nil, fmt.Errorf("authz service required")
	}
	return &service{repo: repo, dbClient: dbClient, scopes: scopes}, nil
}

func (s *service) List(ctx context.Context, fact identity.RoleFact, input ListInput) ([]StoreDTO, error) {
	pred, err := s.scopes.Scope(ctx, fact, authz.ResourceStores)
	if err != nil {
		return nil, err
	}
	if pred.Denied() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store directory is not available to you")
	}

	var filter ListFilter
	switch pred.Kind {
	case authz.PredicateRegionID:
		regionID := pred.RegionID
		filter.RegionID = &regionID
	default:
		filter.RegionID = input.RegionID
	}
	if pred.Empty() {
		return []StoreDTO{}, nil
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]StoreDTO, 0, len(rows))
	for _, row := range rows {
		dto := StoreDTO{
			ID:        row.ID,
			Name:      row.Name,
			ManagerID: row.ManagerID,
			RegionID:  row.RegionID,
		}
		if row.ManagerName != nil {
			dto.ManagerName = *row.ManagerName
		}
		if row.RegionName != nil {
			dto.RegionName = *row.RegionName
		}
		if row.AddressID != nil {
			address, addrErr := s.repo.FindAddress(ctx, *row.AddressID)
			if addrErr != nil {
				return nil, addrErr
			}
			dto.Address = toAddressDTO(address)
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, storeID int64) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return s.toDTO(ctx, store)
}

func (s *service) Inventory(ctx context.Context, storeID int64) ([]InventoryDTO, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}

	rows, err := s.repo.InventoryRows(ctx, storeID)
	if err != nil {
		return nil, err
	}
	out := make([]InventoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, InventoryDTO{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			Price:       row.Price,
			Category:    row.Kind,
			ImageURL:    row.ImageURL,
			Stock:       row.Stock,
		})
	}
	return out, nil
}

func (s *service) ProductStock(ctx context.Context, storeID, productID int64) (*StockDTO, error) {
	row, err := s.repo.InventoryRow(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	dto := &StockDTO{StoreID: storeID, ProductID: productID}
	if row != nil {
		dto.Stock = row.Stock
	}
	return dto, nil
}

func (s *service) Create(ctx context.Context, fact identity.RoleFact, input CreateInput) (*StoreDTO, error) {
	if !fact.IsEmployee() || !fact.IsRegionManager {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only region managers can create stores")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if input.ManagerID != nil {
		exists, err := s.repo.EmployeeExists(ctx, *input.ManagerID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid manager employee")
		}
	}

	regionID := fact.ManagedRegionID
	store := &models.Store{
		Name:      strings.TrimSpace(input.Name),
		RegionID:  &regionID,
		ManagerID: input.ManagerID,
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.Address != nil {
			address := &models.Address{}
			applyAddress(address, input.Address)
			if txErr := repo.SaveAddress(ctx, address); txErr != nil {
				return txErr
			}
			store.AddressID = &address.ID
		}
		return repo.SaveStore(ctx, store)
	})
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, store)
}

func (s *service) Update(ctx context.Context, fact identity.RoleFact, storeID int64, input UpdateInput) (*StoreDTO, error) {
	store, err := s.loadOwned(ctx, fact, storeID)
	if err != nil {
		return nil, err
	}
	if input.ManagerID != nil {
		exists, existsErr := s.repo.EmployeeExists(ctx, *input.ManagerID)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid manager employee")
		}
		// One manager per store: an occupied post must be cleared before a
		// different employee can take it.
		if store.ManagerID != nil && *store.ManagerID != *input.ManagerID {
			managerName, nameErr := s.repo.EmployeeName(ctx, *store.ManagerID)
			if nameErr != nil {
				return nil, nameErr
			}
			if managerName == "" {
				managerName = "Unknown"
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "store already has a manager").WithDetails(map[string]any{
				"store_id":         store.ID,
				"store_name":       store.Name,
				"manager_id":       *store.ManagerID,
				"manager_name":     managerName,
				"managers_allowed": 1,
			})
		}
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.Name != nil {
			if strings.TrimSpace(*input.Name) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
			}
			store.Name = strings.TrimSpace(*input.Name)
		}
		if input.SetManager {
			store.ManagerID = input.ManagerID
		}
		if input.Address != nil {
			if txErr := s.upsertAddress(ctx, repo, store, input.Address); txErr != nil {
				return txErr
			}
		}
		return repo.SaveStore(ctx, store)
	})
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, store)
}

func (s *service) Delete(ctx context.Context, fact identity.RoleFact, storeID int64) error {
	store, err := s.loadOwned(ctx, fact, storeID)
	if err != nil {
		return err
	}

	stocked, err := s.repo.InventoryCount(ctx, storeID)
	if err != nil {
		return err
	}
	if stocked > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete a store with inventory, remove the stock first").
			WithDetails(map[string]any{"store_id": storeID, "inventory_rows": stocked})
	}
	staffed, err := s.repo.SalespersonCount(ctx, storeID)
	if err != nil {
		return err
	}
	if staffed > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete a store with assigned salespeople, reassign them first").
			WithDetails(map[string]any{"store_id": storeID, "salespeople": staffed})
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteStore(ctx, store)
	})
}

// loadOwned loads a store and enforces that the region caller owns it.
func (s *service) loadOwned(ctx context.Context, fact identity.RoleFact, storeID int64) (*models.Store, error) {
	if !fact.IsEmployee() || !fact.IsRegionManager {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only region managers can manage stores")
	}
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	if store.RegionID == nil || *store.RegionID != fact.ManagedRegionID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store is outside your region")
	}
	return store, nil
}

func (s *service) upsertAddress(ctx context.Context, repo *Repository, store *models.Store, input *AddressInput) error {
	var address *models.Address
	if store.AddressID != nil {
		existing, err := repo.FindAddress(ctx, *store.AddressID)
		if err != nil {
			return err
		}
		address = existing
	}
	if address == nil {
		address = &models.Address{}
	}
	applyAddress(address, input)
	if err := repo.SaveAddress(ctx, address); err != nil {
		return err
	}
	store.AddressID = &address.ID
	return nil
}

func applyAddress(address *models.Address, input *AddressInput) {
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
}

func (s *service) toDTO(ctx context.Context, store *models.Store) (*StoreDTO, error) {
	dto := &StoreDTO{
		ID:        store.ID,
		Name:      store.Name,
		ManagerID: store.ManagerID,
		RegionID:  store.RegionID,
	}
	if store.ManagerID != nil {
		name, err := s.repo.EmployeeName(ctx, *store.ManagerID)
		if err != nil {
			return nil, err
		}
		dto.ManagerName = name
	}
	if store.RegionID != nil {
		name, err := s.repo.RegionName(ctx, *store.RegionID)
		if err != nil {
			return nil, err
		}
		dto.RegionName = name
	}
	if store.AddressID != nil {
		address, err := s.repo.FindAddress(ctx, *store.AddressID)
		if err != nil {
			return nil, err
		}
		dto.Address = toAddressDTO(address)
	}
	return dto, nil
}

func toAddressDTO(address *models.Address) *AddressDTO {
	if address == nil {
		return nil
	}
	return &AddressDTO{
		ID:       address.ID,
		State:    address.State,
		City:     address.City,
		Zipcode:  address.Zipcode,
		Address1: address.Address1,
		Address2: address.Address2,
	}
}
