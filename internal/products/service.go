package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes the public catalog and staff-gated catalog administration.
type Service interface {
	List(ctx context.Context, input ListInput) ([]ProductDTO, error)
	Get(ctx context.Context, productID int64) (*ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, fact identity.RoleFact, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, fact identity.RoleFact, productID int64, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, fact identity.RoleFact, productID int64) error
}

// ListInput narrows catalog listings. StoreID keeps only products with stock
// at that store.
type ListInput struct {
	StoreID *int64
}

// StoreAvailability is the stock level of a product at one store.
type StoreAvailability struct {
	StoreID   int64  `json:"store_id"`
	StoreName string `json:"store_name"`
	Stock     int    `json:"stock"`
}

// ProductDTO is the API shape of a catalog entry.
type ProductDTO struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Price       int64               `json:"price"`
	Category    string              `json:"category"`
	Description *string             `json:"description"`
	ImageURL    *string             `json:"image_url"`
	Stores      []StoreAvailability `json:"stores_inventory"`
}

// CreateInput adds a catalog entry.
type CreateInput struct {
	Name        string
	Price       int64
	Category    string
	Description *string
	ImageURL    *string
}

// UpdateInput carries optional catalog mutations.
type UpdateInput struct {
	Name        *string
	Price       *int64
	Category    *string
	Description *string
	ImageURL    *string
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs the catalog service.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	availability, err := s.repo.Availability(ctx, nil)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[int64][]StoreAvailability, len(rows))
	for _, row := range availability {
		byProduct[row.ProductID] = append(byProduct[row.ProductID], StoreAvailability{
			StoreID:   row.StoreID,
			StoreName: row.StoreName,
			Stock:     row.Stock,
		})
	}

	out := make([]ProductDTO, 0, len(rows))
	for _, product := range rows {
		dto := toDTO(&product)
		if stores, ok := byProduct[product.ID]; ok {
			dto.Stores = stores
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, productID int64) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	availability, err := s.repo.Availability(ctx, &productID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(product)
	for _, row := range availability {
		dto.Stores = append(dto.Stores, StoreAvailability{
			StoreID:   row.StoreID,
			StoreName: row.StoreName,
			Stock:     row.Stock,
		})
	}
	return dto, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *service) Create(ctx context.Context, fact identity.RoleFact, input CreateInput) (*ProductDTO, error) {
	if err := requireManager(fact); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		Kind:        input.Category,
		Description: input.Description,
		ImageURL:    input.ImageURL,
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	return toDTO(product), nil
}

func (s *service) Update(ctx context.Context, fact identity.RoleFact, productID int64, input UpdateInput) (*ProductDTO, error) {
	if err := requireManager(fact); err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Kind = *input.Category
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	return toDTO(product), nil
}

func (s *service) Delete(ctx context.Context, fact identity.RoleFact, productID int64) error {
	if !fact.IsEmployee() || !fact.IsRegionManager {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only region managers can delete products")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	// Stock rows for a retired product serve nothing, drop them alongside.
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if txErr := repo.DeleteInventoryFor(ctx, productID); txErr != nil {
			return txErr
		}
		return repo.Delete(ctx, product)
	})
}

func requireManager(fact identity.RoleFact) error {
	if !fact.IsEmployee() || (!fact.IsStoreManager && !fact.IsRegionManager) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "catalog writes require a manager role")
	}
	return nil
}

func toDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Category:    product.Kind,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Stores:      []StoreAvailability{},
	}
}
