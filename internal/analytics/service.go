package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Service computes the manager dashboard. Read-only; every rollup covers paid
// orders inside a trailing day-window.
type Service interface {
	Dashboard(ctx context.Context, fact identity.RoleFact, rangeDays int) (*DashboardDTO, error)
}

// SeriesDTO is a pair of parallel label/value slices for chart rendering.
type SeriesDTO struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// TrendDTO is daily revenue over the window.
type TrendDTO struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// SliceDTO is one labeled share of a breakdown.
type SliceDTO struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// CustomerTypeDTO summarizes order volume and value per customer type.
type CustomerTypeDTO struct {
	CustomerType  string  `json:"customer_type"`
	TotalOrders   int64   `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
	TotalRevenue  float64 `json:"total_revenue"`
}

// RegionRankingDTO is one region's standing in the revenue ranking.
type RegionRankingDTO struct {
	RegionName   string  `json:"region_name"`
	ManagerName  string  `json:"manager_name"`
	StoreCount   int64   `json:"store_count"`
	SalesCount   int64   `json:"total_sales_count"`
	TotalRevenue float64 `json:"total_revenue"`
}

// DeadStockDTO is one overstocked, slow-moving shelf row.
type DeadStockDTO struct {
	ProductName  string  `json:"product_name"`
	StoreName    string  `json:"store_name"`
	CurrentStock int     `json:"current_stock"`
	UnitsSold    int64   `json:"units_sold"`
	Revenue      float64 `json:"revenue_generated"`
}

// SalesEfficiencyDTO relates a salesperson's attributed revenue to their
// salary.
type SalesEfficiencyDTO struct {
	Name             string   `json:"salesperson_name"`
	JobTitle         string   `json:"job_title"`
	StoreLocation    string   `json:"store_location"`
	AnnualSalary     int64    `json:"annual_salary"`
	Revenue          float64  `json:"revenue_generated"`
	SalaryMultiplier *float64 `json:"salary_multiplier"`
}

// DashboardDTO bundles every rollup for one window.
type DashboardDTO struct {
	Trend              TrendDTO             `json:"trend"`
	TopProducts        SeriesDTO            `json:"top_products"`
	Segments           []SliceDTO           `json:"segments"`
	Categories         []SliceDTO           `json:"categories"`
	Demographics       []SliceDTO           `json:"demographics"`
	BusinessCategories []SliceDTO           `json:"business_categories"`
	RegionalSales      SeriesDTO            `json:"regional_sales"`
	CustomerTypes      []CustomerTypeDTO    `json:"customer_types"`
	RegionalRankings   []RegionRankingDTO   `json:"regional_rankings"`
	DeadStock          []DeadStockDTO       `json:"dead_stock"`
	SalesEfficiency    []SalesEfficiencyDTO `json:"sales_efficiency"`
}

type service struct {
	repo *Repository
	cfg  config.AnalyticsConfig
	now  func() time.Time
}

// NewService constructs the dashboard service.
func NewService(repo *Repository, cfg config.AnalyticsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	return &service{repo: repo, cfg: cfg, now: time.Now}, nil
}

func (s *service) Dashboard(ctx context.Context, fact identity.RoleFact, rangeDays int) (*DashboardDTO, error) {
	if !fact.IsEmployee() || (!fact.IsStoreManager && !fact.IsRegionManager) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "dashboard requires a manager role")
	}
	if rangeDays <= 0 {
		rangeDays = s.cfg.TrendDays
	}
	// Window starts at midnight so a day is either fully in or fully out.
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -rangeDays)

	var (
		dto  DashboardDTO
		errs error
	)

	if rows, err := s.repo.Trend(ctx, since); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.Trend = TrendDTO{Dates: []string{}, Values: []float64{}}
		for _, row := range rows {
			dto.Trend.Dates = append(dto.Trend.Dates, row.Day)
			dto.Trend.Values = append(dto.Trend.Values, toMajor(row.Total))
		}
	}

	if rows, err := s.repo.TopProducts(ctx, since, s.cfg.TopProductsLimit); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.TopProducts = SeriesDTO{Names: []string{}, Values: []float64{}}
		for _, row := range rows {
			dto.TopProducts.Names = append(dto.TopProducts.Names, row.Name)
			dto.TopProducts.Values = append(dto.TopProducts.Values, toMajor(row.Revenue))
		}
	}

	if rows, err := s.repo.SegmentTotals(ctx, since); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.Segments = make([]SliceDTO, 0, len(rows))
		for _, row := range rows {
			dto.Segments = append(dto.Segments, SliceDTO{
				Name:  segmentLabel(row.Kind),
				Value: toMajor(row.Total),
			})
		}
	}

	if rows, err := s.repo.CategoryRevenue(ctx, since); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.Categories = make([]SliceDTO, 0, len(rows))
		for _, row := range rows {
			name := row.Name
			if name == "" {
				name = "Uncategorized"
			}
			dto.Categories = append(dto.Categories, SliceDTO{Name: name, Value: toMajor(row.Total)})
		}
	}

	if rows, err := s.repo.AgeTotals(ctx, since); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.Demographics = make([]SliceDTO, 0, len(rows))
		for _, row := range rows {
			dto.Demographics = append(dto.Demographics, SliceDTO{Name: row.Name, Value: toMajor(row.Total)})
		}
	}

	if rows, err := s.repo.BusinessCategoryTotals(ctx, since); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.BusinessCategories = make([]SliceDTO, 0, len(rows))
		for _, row := range rows {
			name := row.Name
			if name == "" {
				name = "Other"
			}
			dto.BusinessCategories = append(dto.BusinessCategories, SliceDTO{Name: name, Value: toMajor(row.Total)})
		}
	}

	if rows, err := s.repo.RegionTotals(ctx, since); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.RegionalSales = SeriesDTO{Names: []string{}, Values: []float64{}}
		for _, row := range rows {
			dto.RegionalSales.Names = append(dto.RegionalSales.Names, row.Name)
			dto.RegionalSales.Values = append(dto.RegionalSales.Values, toMajor(row.Total))
		}
	}

	if rows, err := s.repo.CustomerTypeSummaries(ctx, since); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.CustomerTypes = make([]CustomerTypeDTO, 0, len(rows))
		for _, row := range rows {
			summary := CustomerTypeDTO{
				CustomerType: row.CustomerType,
				TotalOrders:  row.TotalOrders,
				TotalRevenue: toMajor(row.TotalRevenue),
			}
			if row.TotalOrders > 0 {
				summary.AvgOrderValue = decimal.NewFromInt(row.TotalRevenue).
					Div(decimal.NewFromInt(row.TotalOrders)).
					Div(decimal.NewFromInt(100)).
					Round(2).
					InexactFloat64()
			}
			dto.CustomerTypes = append(dto.CustomerTypes, summary)
		}
	}

	if rows, err := s.repo.RegionRankings(ctx, since, s.cfg.RegionRankingLimit); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.RegionalRankings = make([]RegionRankingDTO, 0, len(rows))
		for _, row := range rows {
			ranking := RegionRankingDTO{
				RegionName:   row.RegionName,
				StoreCount:   row.StoreCount,
				SalesCount:   row.SalesCount,
				TotalRevenue: toMajor(row.TotalRevenue),
			}
			if row.ManagerName != nil {
				ranking.ManagerName = *row.ManagerName
			}
			dto.RegionalRankings = append(dto.RegionalRankings, ranking)
		}
	}

	if rows, err := s.repo.DeadStock(ctx, since, s.cfg.DeadStockMinStock, s.cfg.DeadStockMaxSold, s.cfg.RegionRankingLimit); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.DeadStock = make([]DeadStockDTO, 0, len(rows))
		for _, row := range rows {
			dto.DeadStock = append(dto.DeadStock, DeadStockDTO{
				ProductName:  row.ProductName,
				StoreName:    row.StoreName,
				CurrentStock: row.Stock,
				UnitsSold:    row.UnitsSold,
				Revenue:      toMajor(row.Revenue),
			})
		}
	}

	if rows, err := s.repo.SalesEfficiency(ctx, since, s.cfg.RegionRankingLimit); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		dto.SalesEfficiency = make([]SalesEfficiencyDTO, 0, len(rows))
		for _, row := range rows {
			entry := SalesEfficiencyDTO{
				Name:          row.Name,
				JobTitle:      row.JobTitle,
				StoreLocation: row.Store,
				AnnualSalary:  row.Salary,
				Revenue:       toMajor(row.Revenue),
			}
			if row.Salary != 0 {
				multiplier := decimal.NewFromInt(row.Revenue).
					Div(decimal.NewFromInt(100)).
					Div(decimal.NewFromInt(row.Salary)).
					Round(2).
					InexactFloat64()
				entry.SalaryMultiplier = &multiplier
			}
			dto.SalesEfficiency = append(dto.SalesEfficiency, entry)
		}
	}

	if errs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dashboard rollups failed")
	}
	return &dto, nil
}

// toMajor scales cents to currency units with two decimal places.
func toMajor(minor int64) float64 {
	return decimal.NewFromInt(minor).
		Div(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}

func segmentLabel(kind int) string {
	switch enums.CustomerKind(kind) {
	case enums.CustomerKindHome:
		return "Home (B2C)"
	case enums.CustomerKindBusiness:
		return "Business (B2B)"
	default:
		return "Unknown"
	}
}
