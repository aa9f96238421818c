package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record represents a single cleaned billing/usage entry. The cleaning
// stage guarantees customer_id, billing_date and cost are present; the
// analytics core does not coerce or backfill missing values.
type Record struct {
	ID          string    `json:"id,omitempty"`
	CustomerID  string    `json:"customer_id"`
	BillingDate time.Time `json:"billing_date"`
	Cost        float64   `json:"cost"`
	Details     string    `json:"details,omitempty"`
}

// UserRole represents the role of a dashboard user
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleClient UserRole = "client"
)

// User represents a dashboard user account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Role         UserRole  `json:"role"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

// MonthlyRevenue is one row of the revenue-by-month aggregate
type MonthlyRevenue struct {
	Month   string          `json:"month"` // YYYY-MM
	Revenue decimal.Decimal `json:"revenue"`
	Records int             `json:"records"`
}

// CustomerTotal is one row of the top-customers aggregate
type CustomerTotal struct {
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Records    int             `json:"records"`
}

// BillRunResult summarizes a monthly flat-fee bill run
type BillRunResult struct {
	Month    string    `json:"month"` // first of month, YYYY-MM-DD
	NewBills int       `json:"new_bills"`
	Skipped  int       `json:"skipped"`
	RanAt    time.Time `json:"ran_at"`
}
