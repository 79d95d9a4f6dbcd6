package analytics

import (
	"context"
	"time"

	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository runs the grouped rollup queries behind the dashboard. Every
// monetary column comes back in cents; the service layer scales to major
// units.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type trendRow struct {
	Day   string
	Total int64
}

// Trend sums paid order totals per calendar day inside the window.
func (r *Repository) Trend(ctx context.Context, since time.Time) ([]trendRow, error) {
	var rows []trendRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT DATE(o.order_date) AS day, SUM(o.total_amount) AS total
		     FROM orders o
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY DATE(o.order_date)
		     ORDER BY DATE(o.order_date) ASC`, true, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sales trend")
	}
	return rows, nil
}

type productRevenueRow struct {
	Name    string
	Revenue int64
}

// TopProducts ranks products by paid line revenue inside the window.
func (r *Repository) TopProducts(ctx context.Context, since time.Time, limit int) ([]productRevenueRow, error) {
	var rows []productRevenueRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT p.name AS name, SUM(oi.sub_price) AS revenue
		     FROM order_items oi
		     JOIN products p ON p.id = oi.product_id
		     JOIN orders o ON o.id = oi.order_id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY p.name
		     ORDER BY revenue DESC
		     LIMIT ?`, true, since, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: top products")
	}
	return rows, nil
}

type kindTotalRow struct {
	Kind  int
	Total int64
}

// SegmentTotals sums paid order totals per customer kind.
func (r *Repository) SegmentTotals(ctx context.Context, since time.Time) ([]kindTotalRow, error) {
	var rows []kindTotalRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT c.kind AS kind, SUM(o.total_amount) AS total
		     FROM orders o
		     JOIN customers c ON c.id = o.customer_id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY c.kind`, true, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: customer segments")
	}
	return rows, nil
}

type nameTotalRow struct {
	Name  string
	Total int64
}

// CategoryRevenue sums paid line revenue per product category.
func (r *Repository) CategoryRevenue(ctx context.Context, since time.Time) ([]nameTotalRow, error) {
	var rows []nameTotalRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT p.kind AS name, SUM(oi.sub_price) AS total
		     FROM order_items oi
		     JOIN products p ON p.id = oi.product_id
		     JOIN orders o ON o.id = oi.order_id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY p.kind`, true, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: category revenue")
	}
	return rows, nil
}

// AgeTotals buckets paid home-customer spending by age range.
func (r *Repository) AgeTotals(ctx context.Context, since time.Time) ([]nameTotalRow, error) {
	var rows []nameTotalRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT CASE
		            WHEN h.age < 25 THEN 'Under 25'
		            WHEN h.age BETWEEN 25 AND 35 THEN '25 - 35'
		            WHEN h.age BETWEEN 36 AND 50 THEN '36 - 50'
		            WHEN h.age > 50 THEN 'Over 50'
		            ELSE 'Unknown'
		        END AS name,
		        SUM(o.total_amount) AS total
		     FROM orders o
		     JOIN customers c ON c.id = o.customer_id
		     JOIN home_profiles h ON h.customer_id = c.id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY name
		     ORDER BY name`, true, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: age demographics")
	}
	return rows, nil
}

// BusinessCategoryTotals sums paid business-customer spending per company
// category.
func (r *Repository) BusinessCategoryTotals(ctx context.Context, since time.Time) ([]nameTotalRow, error) {
	var rows []nameTotalRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT b.category AS name, SUM(o.total_amount) AS total
		     FROM orders o
		     JOIN customers c ON c.id = o.customer_id
		     JOIN business_profiles b ON b.customer_id = c.id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY b.category`, true, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: business categories")
	}
	return rows, nil
}

// RegionTotals sums paid order totals per region, highest first.
func (r *Repository) RegionTotals(ctx context.Context, since time.Time) ([]nameTotalRow, error) {
	var rows []nameTotalRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT rg.name AS name, SUM(o.total_amount) AS total
		     FROM orders o
		     JOIN stores s ON s.id = o.store_id
		     JOIN regions rg ON rg.id = s.region_id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY rg.name
		     ORDER BY total DESC`, true, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: regional sales")
	}
	return rows, nil
}

type customerTypeRow struct {
	CustomerType string
	TotalOrders  int64
	TotalRevenue int64
}

// CustomerTypeSummaries counts paid orders and revenue per customer type.
func (r *Repository) CustomerTypeSummaries(ctx context.Context, since time.Time) ([]customerTypeRow, error) {
	var rows []customerTypeRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT CASE
		            WHEN h.customer_id IS NOT NULL THEN 'Home (B2C)'
		            WHEN b.customer_id IS NOT NULL THEN 'Business (B2B)'
		            ELSE 'Unknown'
		        END AS customer_type,
		        COUNT(DISTINCT o.id) AS total_orders,
		        SUM(o.total_amount) AS total_revenue
		     FROM orders o
		     JOIN customers c ON c.id = o.customer_id
		     LEFT JOIN home_profiles h ON h.customer_id = c.id
		     LEFT JOIN business_profiles b ON b.customer_id = c.id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY customer_type`, true, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: customer type summary")
	}
	return rows, nil
}

type regionRankingRow struct {
	RegionName   string
	ManagerName  *string
	StoreCount   int64
	SalesCount   int64
	TotalRevenue int64
}

// RegionRankings ranks regions by paid revenue, with store and order counts.
func (r *Repository) RegionRankings(ctx context.Context, since time.Time, limit int) ([]regionRankingRow, error) {
	var rows []regionRankingRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT rg.name AS region_name,
		        a.name AS manager_name,
		        COUNT(DISTINCT s.id) AS store_count,
		        COUNT(o.id) AS sales_count,
		        SUM(o.total_amount) AS total_revenue
		     FROM regions rg
		     LEFT JOIN employees e ON e.id = rg.manager_id
		     LEFT JOIN accounts a ON a.id = e.account_id
		     JOIN stores s ON s.region_id = rg.id
		     JOIN orders o ON o.store_id = s.id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY rg.id, rg.name, a.name
		     ORDER BY total_revenue DESC
		     LIMIT ?`, true, since, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: regional rankings")
	}
	return rows, nil
}

type deadStockRow struct {
	ProductName string
	StoreName   string
	Stock       int
	UnitsSold   int64
	Revenue     int64
}

// DeadStock finds shelf rows with high stock and low paid sales inside the
// window. Sales outside the window do not rescue a row.
func (r *Repository) DeadStock(ctx context.Context, since time.Time, minStock, maxSold, limit int) ([]deadStockRow, error) {
	var rows []deadStockRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT p.name AS product_name,
		        s.name AS store_name,
		        si.stock AS stock,
		        COALESCE(SUM(oi.quantity), 0) AS units_sold,
		        COALESCE(SUM(oi.sub_price), 0) AS revenue
		     FROM store_inventory si
		     JOIN products p ON p.id = si.product_id
		     JOIN stores s ON s.id = si.store_id
		     LEFT JOIN orders o ON o.store_id = si.store_id
		        AND o.payment_status = ? AND o.order_date >= ?
		     LEFT JOIN order_items oi ON oi.product_id = p.id AND oi.order_id = o.id
		     GROUP BY si.id, p.name, s.name, si.stock
		     HAVING si.stock > ? AND COALESCE(SUM(oi.quantity), 0) < ?
		     ORDER BY si.stock DESC
		     LIMIT ?`, true, since, minStock, maxSold, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: dead stock")
	}
	return rows, nil
}

type efficiencyRow struct {
	Name     string
	JobTitle string
	Store    string
	Salary   int64
	Revenue  int64
}

// SalesEfficiency sums attributed paid revenue per salesperson, highest first.
func (r *Repository) SalesEfficiency(ctx context.Context, since time.Time, limit int) ([]efficiencyRow, error) {
	var rows []efficiencyRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT a.name AS name,
		        e.job_title AS job_title,
		        s.name AS store,
		        e.salary AS salary,
		        SUM(o.total_amount) AS revenue
		     FROM salespeople sp
		     JOIN employees e ON e.id = sp.employee_id
		     JOIN accounts a ON a.id = e.account_id
		     JOIN stores s ON s.id = sp.store_id
		     JOIN orders o ON o.sales_id = sp.employee_id
		     WHERE o.payment_status = ? AND o.order_date >= ?
		     GROUP BY sp.id, a.name, e.job_title, s.name, e.salary
		     ORDER BY revenue DESC
		     LIMIT ?`, true, since, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sales efficiency")
	}
	return rows, nil
}
