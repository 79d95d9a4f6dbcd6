package inventory

import (
	"context"
	"fmt"

	"github.com/mfigueroa/retailhub-backend/internal/authz"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes the stock administration surface used by managers.
type Service interface {
	List(ctx context.Context, fact identity.RoleFact, input ListInput) (*ListResult, error)
	SetStock(ctx context.Context, fact identity.RoleFact, storeID, productID int64, stock int) (*Row, error)
	Delete(ctx context.Context, fact identity.RoleFact, storeID, productID int64) error
}

// ListInput narrows and pages an inventory listing.
type ListInput struct {
	StoreID   int64
	ProductID int64
	Page      pagination.Params
}

// ListResult is a page of inventory rows.
type ListResult struct {
	Rows  []Row `json:"rows"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	scopes   authz.Service
}

// NewService constructs an inventory administration service.
func NewService(repo *Repository, dbClient *db.Client, scopes authz.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
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
	pred, err := s.scopes.Scope(ctx, fact, authz.ResourceInventory)
	if err != nil {
		return nil, err
	}
	if pred.Denied() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "inventory access requires a manager role")
	}

	page := pagination.Normalize(input.Page)
	if pred.Empty() {
		return &ListResult{Rows: []Row{}, Total: 0, Page: page.Page, Pages: 0}, nil
	}

	filter := ListFilter{ProductID: input.ProductID}
	switch pred.Kind {
	case authz.PredicateStoreID:
		if input.StoreID > 0 && input.StoreID != pred.StoreID {
			return &ListResult{Rows: []Row{}, Total: 0, Page: page.Page, Pages: 0}, nil
		}
		filter.StoreID = pred.StoreID
	case authz.PredicateRegionID:
		filter.RegionID = pred.RegionID
		filter.StoreID = input.StoreID
	case authz.PredicateAllowAll:
		filter.StoreID = input.StoreID
	}

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return &ListResult{Rows: rows, Total: total, Page: page.Page, Pages: page.Pages(total)}, nil
}

// SetStock writes an absolute stock level, creating the row when the store
// has never carried the product.
func (s *service) SetStock(ctx context.Context, fact identity.RoleFact, storeID, productID int64, stock int) (*Row, error) {
	if err := s.scopes.CanWriteInventory(ctx, fact, storeID); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	exists, err := s.repo.StoreExists(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("store %d not found", storeID))
	}
	exists, err = s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", productID))
	}

	var saved *Row
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		row, txErr := s.repo.WithTx(tx).Save(ctx, storeID, productID, stock)
		if txErr != nil {
			return txErr
		}
		saved = &Row{
			ID:        row.ID,
			StoreID:   row.StoreID,
			ProductID: row.ProductID,
			Stock:     row.Stock,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete removes an inventory row regardless of remaining stock. Only a
// region manager may do this.
func (s *service) Delete(ctx context.Context, fact identity.RoleFact, storeID, productID int64) error {
	if !fact.IsEmployee() || !fact.IsRegionManager {
		return pkgerrors.New(pkgerrors.CodeForbidden, "inventory deletion requires the region role")
	}
	affected, err := s.repo.Delete(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	return nil
}
