package billing

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spidjo/billing-analyzer/internal/storage"
	"github.com/spidjo/billing-analyzer/pkg/models"
)

// Store is the persistence the billing engine needs.
type Store interface {
	storage.RecordStore
	ListUsersByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

// Engine computes revenue aggregates and runs the monthly flat-fee bill
// run.
type Engine struct {
	store   Store
	flatFee decimal.Decimal
}

// NewEngine creates a billing engine charging the given monthly flat fee.
func NewEngine(store Store, flatFee decimal.Decimal) *Engine {
	return &Engine{store: store, flatFee: flatFee}
}

// RevenueByMonth returns total revenue per calendar month from the store.
func (e *Engine) RevenueByMonth(ctx context.Context) ([]models.MonthlyRevenue, error) {
	return e.store.RevenueByMonth(ctx)
}

// TopCustomers returns the highest-spending customers from the store.
func (e *Engine) TopCustomers(ctx context.Context, limit int) ([]models.CustomerTotal, error) {
	return e.store.TopCustomers(ctx, limit)
}

// AggregateRevenue groups a record set by calendar month and sums cost.
// Pure function over its input; months come back sorted ascending.
func (e *Engine) AggregateRevenue(records []models.Record) []models.MonthlyRevenue {
	byMonth := make(map[string]*models.MonthlyRevenue)
	for _, r := range records {
		month := r.BillingDate.Format("2006-01")
		agg, ok := byMonth[month]
		if !ok {
			agg = &models.MonthlyRevenue{Month: month}
			byMonth[month] = agg
		}
		agg.Revenue = agg.Revenue.Add(decimal.NewFromFloat(r.Cost))
		agg.Records++
	}

	result := make([]models.MonthlyRevenue, 0, len(byMonth))
	for _, agg := range byMonth {
		agg.Revenue = agg.Revenue.Round(2)
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result
}

// TopCustomersOf ranks a record set by total spend, highest first, and
// keeps the top n. Ties break on customer ID for a deterministic order.
func (e *Engine) TopCustomersOf(records []models.Record, n int) []models.CustomerTotal {
	if n <= 0 {
		n = 10
	}

	byCustomer := make(map[string]*models.CustomerTotal)
	for _, r := range records {
		agg, ok := byCustomer[r.CustomerID]
		if !ok {
			agg = &models.CustomerTotal{CustomerID: r.CustomerID}
			byCustomer[r.CustomerID] = agg
		}
		agg.Total = agg.Total.Add(decimal.NewFromFloat(r.Cost))
		agg.Records++
	}

	result := make([]models.CustomerTotal, 0, len(byCustomer))
	for _, agg := range byCustomer {
		agg.Total = agg.Total.Round(2)
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Total.Equal(result[j].Total) {
			return result[i].Total.GreaterThan(result[j].Total)
		}
		return result[i].CustomerID < result[j].CustomerID
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}

// RunMonthlyBilling charges every client the flat monthly fee on the
// first of the current month. Customers already billed for that month are
// skipped, so re-running within the same month is safe.
func (e *Engine) RunMonthlyBilling(ctx context.Context, now time.Time) (*models.BillRunResult, error) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	clients, err := e.store.ListUsersByRole(ctx, models.RoleClient)
	if err != nil {
		return nil, err
	}

	fee, _ := e.flatFee.Round(2).Float64()
	bills := make([]models.Record, 0, len(clients))
	for _, c := range clients {
		bills = append(bills, models.Record{
			CustomerID:  c.ID,
			BillingDate: firstOfMonth,
			Cost:        fee,
			Details:     "Auto-billed monthly charge",
		})
	}

	inserted, err := e.store.InsertRecords(ctx, bills)
	if err != nil {
		return nil, err
	}

	return &models.BillRunResult{
		Month:    firstOfMonth.Format("2006-01-02"),
		NewBills: inserted,
		Skipped:  len(clients) - inserted,
		RanAt:    now,
	}, nil
}
