package orders

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/mfigueroa/retailhub-backend/internal/authz"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/internal/inventory"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	"github.com/mfigueroa/retailhub-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Card format gates. This is a shape check only; no gateway is called.
var (
	cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)
	cardExpiryRe = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cardCVVRe    = regexp.MustCompile(`^\d{3,4}$`)
)

// Picker selects an index in [0, n) when an order needs a randomly assigned
// salesperson. Injected so tests can pin the choice.
type Picker func(n int) int

// Service drives the order lifecycle: Ordered(0) to Pending(1) to
// Complete(2), with Cancelled(3) reachable from the first two.
type Service interface {
	Create(ctx context.Context, fact identity.RoleFact, input CreateInput) (*OrderDTO, error)
	Get(ctx context.Context, fact identity.RoleFact, orderID int64) (*OrderDTO, error)
	List(ctx context.Context, fact identity.RoleFact, input ListInput) (*ListResult, error)
	Cancel(ctx context.Context, fact identity.RoleFact, orderID int64) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, fact identity.RoleFact, orderID int64, status int) (*OrderDTO, error)
	SetPayment(ctx context.Context, fact identity.RoleFact, orderID int64, paid bool) (*OrderDTO, error)
	ProcessPayment(ctx context.Context, fact identity.RoleFact, orderID int64, card CardInput) (*OrderDTO, error)
}

// CreateInput is the validated payload to place an order.
type CreateInput struct {
	StoreID int64
	Items   []ItemInput
}

// ItemInput is one requested line. UnitPrice is only honored in client
// pricing mode; server mode re-reads the catalog price.
type ItemInput struct {
	ProductID int64
	Quantity  int
	UnitPrice int64
}

// CardInput carries the self-service payment form.
type CardInput struct {
	Number string
	Expiry string
	CVV    string
	Holder string
}

// ListInput narrows and pages an order listing. CustomerID and SalesID only
// narrow within the caller's scope; Search matches customer name, customer
// email or an ordered product name.
type ListInput struct {
	Status     *int
	StoreID    int64
	CustomerID int64
	SalesID    int64
	Search     string
	Paid       *bool
	Page       pagination.Params
}

// ListResult is a page of order summaries.
type ListResult struct {
	Orders []Summary `json:"orders"`
	Total  int64     `json:"total"`
	Page   int       `json:"page"`
	Pages  int       `json:"pages"`
}

// ItemDTO is one persisted order line.
type ItemDTO struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	SubPrice  int64 `json:"sub_price"`
}

// OrderDTO is the full order detail.
type OrderDTO struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	StoreID       int64     `json:"store_id"`
	SalesID       int64     `json:"sales_id"`
	OrderDate     time.Time `json:"order_date"`
	PickupDate    time.Time `json:"pickup_date"`
	TotalAmount   int64     `json:"total_amount"`
	PaymentStatus bool      `json:"payment_status"`
	PickupStatus  int       `json:"pickup_status"`
	Items         []ItemDTO `json:"items"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	ledger   *inventory.Ledger
	scopes   authz.Service
	pricing  config.PricingConfig
	pick     Picker
	now      func() time.Time
}

// NewService constructs an order service. A nil picker falls back to the
// process-wide RNG.
func NewService(repo *Repository, dbClient *db.Client, ledger *inventory.Ledger, scopes authz.Service, pricing config.PricingConfig, pick Picker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if scopes == nil {
		return nil, fmt.Errorf("authz service required")
	}
	if pick == nil {
		pick = rand.Intn
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		ledger:   ledger,
		scopes:   scopes,
		pricing:  pricing,
		pick:     pick,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, fact identity.RoleFact, input CreateInput) (*OrderDTO, error) {
	if !fact.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can place orders")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if input.StoreID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	for _, item := range input.Items {
		if item.ProductID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}
	}

	exists, err := s.repo.StoreExists(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("store %d not found", input.StoreID))
	}

	salesID, err := s.resolveSalesperson(ctx, fact, input.StoreID)
	if err != nil {
		return nil, err
	}

	unitPrices, err := s.unitPrices(ctx, input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		CustomerID:    fact.CustomerID,
		StoreID:       input.StoreID,
		SalesID:       salesID,
		OrderDate:     now,
		PickupDate:    now,
		PaymentStatus: false,
		PickupStatus:  enums.PickupStatusOrdered,
	}
	for _, item := range input.Items {
		unit := unitPrices[item.ProductID]
		sub := unit * int64(item.Quantity)
		order.TotalAmount += sub
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			SubPrice:  sub,
		})
	}

	// Stock reservation and the order insert commit or roll back together,
	// so a short shelf on any line leaves nothing behind.
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range input.Items {
			if txErr := s.ledger.Reserve(ctx, tx, input.StoreID, item.ProductID, item.Quantity); txErr != nil {
				return txErr
			}
		}
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(order), nil
}

// resolveSalesperson applies the attribution rule: the customer's assigned
// salesperson when one exists, otherwise a random salesperson at the store.
func (s *service) resolveSalesperson(ctx context.Context, fact identity.RoleFact, storeID int64) (int64, error) {
	customer := &models.Customer{ID: fact.CustomerID, Kind: fact.CustomerKind}
	assigned, err := s.repo.AssignedSalesEmployeeID(ctx, customer)
	if err != nil {
		return 0, err
	}
	if assigned != nil {
		return *assigned, nil
	}
	salespeople, err := s.repo.SalespeopleByStore(ctx, storeID)
	if err != nil {
		return 0, err
	}
	if len(salespeople) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "no salesperson available at this store")
	}
	return salespeople[s.pick(len(salespeople))].EmployeeID, nil
}

func (s *service) unitPrices(ctx context.Context, input CreateInput) (map[int64]int64, error) {
	prices := make(map[int64]int64, len(input.Items))
	if !s.pricing.ServerPriced() {
		for _, item := range input.Items {
			prices[item.ProductID] = item.UnitPrice
		}
		return prices, nil
	}
	ids := make([]int64, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.repo.ProductPrices(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range input.Items {
		price, ok := catalog[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", item.ProductID))
		}
		prices[item.ProductID] = price
	}
	return prices, nil
}

func (s *service) Get(ctx context.Context, fact identity.RoleFact, orderID int64) (*OrderDTO, error) {
	order, _, err := s.loadScoped(ctx, fact, orderID)
	if err != nil {
		return nil, err
	}
	return toDTO(order), nil
}

func (s *service) List(ctx context.Context, fact identity.RoleFact, input ListInput) (*ListResult, error) {
	pred, err := s.scopes.Scope(ctx, fact, authz.ResourceOrders)
	if err != nil {
		return nil, err
	}
	if pred.Denied() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order access denied")
	}

	page := pagination.Normalize(input.Page)
	if pred.Empty() {
		return &ListResult{Orders: []Summary{}, Total: 0, Page: page.Page, Pages: 0}, nil
	}

	filter := ListFilter{StoreID: input.StoreID, Paid: input.Paid, Search: input.Search}
	if input.Status != nil {
		status, parseErr := enums.ParsePickupStatus(*input.Status)
		if parseErr != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, parseErr.Error())
		}
		filter.Status = &status
	}
	if input.CustomerID > 0 {
		filter.CustomerIDs = []int64{input.CustomerID}
	}
	filter.SalesID = input.SalesID
	switch pred.Kind {
	case authz.PredicateCustomerIDs:
		// A requested customer outside the caller's scope reads as empty,
		// never as someone else's orders.
		if input.CustomerID > 0 {
			if !containsID(pred.CustomerIDs, input.CustomerID) {
				return &ListResult{Orders: []Summary{}, Total: 0, Page: page.Page, Pages: 0}, nil
			}
		} else {
			filter.CustomerIDs = pred.CustomerIDs
		}
	case authz.PredicateSalesID:
		if input.SalesID > 0 && input.SalesID != pred.SalesID {
			return &ListResult{Orders: []Summary{}, Total: 0, Page: page.Page, Pages: 0}, nil
		}
		filter.SalesID = pred.SalesID
	case authz.PredicateStoreID:
		if input.StoreID > 0 && input.StoreID != pred.StoreID {
			return &ListResult{Orders: []Summary{}, Total: 0, Page: page.Page, Pages: 0}, nil
		}
		filter.StoreID = pred.StoreID
	}

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Summary{}
	}
	return &ListResult{Orders: rows, Total: total, Page: page.Page, Pages: page.Pages(total)}, nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *service) Cancel(ctx context.Context, fact identity.RoleFact, orderID int64) (*OrderDTO, error) {
	if !fact.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the ordering customer can cancel; staff use the status update")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.CustomerID != fact.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if order.PickupStatus != enums.PickupStatusOrdered && order.PickupStatus != enums.PickupStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot cancel an order in status %s", order.PickupStatus))
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if txErr := s.restoreItems(ctx, tx, order); txErr != nil {
			return txErr
		}
		order.PickupStatus = enums.PickupStatusCancelled
		return s.repo.WithTx(tx).Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(order), nil
}

func (s *service) UpdateStatus(ctx context.Context, fact identity.RoleFact, orderID int64, status int) (*OrderDTO, error) {
	if !fact.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "status updates require a staff role")
	}
	target, err := enums.ParsePickupStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	order, _, err := s.loadScoped(ctx, fact, orderID)
	if err != nil {
		return nil, err
	}

	if target == enums.PickupStatusComplete && !order.PaymentStatus {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order must be paid before completion")
	}

	restore := target == enums.PickupStatusCancelled && order.PickupStatus != enums.PickupStatusCancelled

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if restore {
			if txErr := s.restoreItems(ctx, tx, order); txErr != nil {
				return txErr
			}
		}
		if target == enums.PickupStatusComplete {
			order.PickupDate = s.now()
		}
		order.PickupStatus = target
		return s.repo.WithTx(tx).Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(order), nil
}

func (s *service) SetPayment(ctx context.Context, fact identity.RoleFact, orderID int64, paid bool) (*OrderDTO, error) {
	if !fact.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment overrides require a staff role")
	}
	order, _, err := s.loadScoped(ctx, fact, orderID)
	if err != nil {
		return nil, err
	}
	order.PaymentStatus = paid
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return toDTO(order), nil
}

func (s *service) ProcessPayment(ctx context.Context, fact identity.RoleFact, orderID int64, card CardInput) (*OrderDTO, error) {
	if !fact.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "self-service payment is customer only")
	}
	if err := validateCard(card); err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.CustomerID != fact.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if order.PaymentStatus {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already paid")
	}

	order.PaymentStatus = true
	if order.PickupStatus == enums.PickupStatusOrdered {
		order.PickupStatus = enums.PickupStatusPending
	}
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return toDTO(order), nil
}

func validateCard(card CardInput) error {
	if !cardNumberRe.MatchString(card.Number) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card number must be 13 to 19 digits")
	}
	if !cardExpiryRe.MatchString(card.Expiry) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry must use MM/YY format")
	}
	if !cardCVVRe.MatchString(card.CVV) {
		return pkgerrors.New(pkgerrors.CodeValidation, "cvv must be 3 or 4 digits")
	}
	if len(strings.ReplaceAll(card.Holder, " ", "")) < 3 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cardholder name must have at least 3 characters")
	}
	return nil
}

// restoreItems credits stock for every line not yet restored. The restored
// flag flips inside the same transaction as the credit, so replays see an
// already-flipped flag and skip the line.
func (s *service) restoreItems(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	txRepo := s.repo.WithTx(tx)
	for _, item := range order.Items {
		flipped, err := txRepo.MarkItemRestored(ctx, item.ID)
		if err != nil {
			return err
		}
		if !flipped {
			continue
		}
		if err := s.ledger.Restore(ctx, tx, order.StoreID, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// loadScoped loads an order and checks it against the caller's order scope.
// Rows outside the scope read as absent.
func (s *service) loadScoped(ctx context.Context, fact identity.RoleFact, orderID int64) (*models.Order, authz.Predicate, error) {
	pred, err := s.scopes.Scope(ctx, fact, authz.ResourceOrders)
	if err != nil {
		return nil, authz.Predicate{}, err
	}
	if pred.Denied() {
		return nil, authz.Predicate{}, pkgerrors.New(pkgerrors.CodeForbidden, "order access denied")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, authz.Predicate{}, err
	}
	if order == nil || !orderInScope(order, pred) {
		return nil, authz.Predicate{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, pred, nil
}

func orderInScope(order *models.Order, pred authz.Predicate) bool {
	switch pred.Kind {
	case authz.PredicateAllowAll:
		return true
	case authz.PredicateCustomerIDs:
		for _, id := range pred.CustomerIDs {
			if id == order.CustomerID {
				return true
			}
		}
		return false
	case authz.PredicateSalesID:
		return order.SalesID == pred.SalesID
	case authz.PredicateStoreID:
		return order.StoreID == pred.StoreID
	case authz.PredicateStoreIDs:
		for _, id := range pred.StoreIDs {
			if id == order.StoreID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func toDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		StoreID:       order.StoreID,
		SalesID:       order.SalesID,
		OrderDate:     order.OrderDate,
		PickupDate:    order.PickupDate,
		TotalAmount:   order.TotalAmount,
		PaymentStatus: order.PaymentStatus,
		PickupStatus:  int(order.PickupStatus),
		Items:         make([]ItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			SubPrice:  item.SubPrice,
		})
	}
	return dto
}
