package storage

import (
	"context"
	"errors"
	"time"

	"github.com/spidjo/billing-analyzer/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint would be violated.
var ErrDuplicate = errors.New("already exists")

// RecordStore is the persistence interface for billing records. Records
// are the source of truth; scored rows and summaries are never persisted.
type RecordStore interface {
	// InsertRecords inserts the given records, skipping any whose
	// (customer_id, billing_date) pair is already present. It returns the
	// number actually inserted.
	InsertRecords(ctx context.Context, records []models.Record) (int, error)

	// ListRecords returns all records ordered by billing date then
	// customer.
	ListRecords(ctx context.Context) ([]models.Record, error)

	// CustomerHistory returns the most recent records for one customer,
	// newest first.
	CustomerHistory(ctx context.Context, customerID string, limit int) ([]models.Record, error)

	// HasRecordOn reports whether the customer already has a record on
	// the given date.
	HasRecordOn(ctx context.Context, customerID string, date time.Time) (bool, error)

	// RevenueByMonth returns total revenue per calendar month.
	RevenueByMonth(ctx context.Context) ([]models.MonthlyRevenue, error)

	// TopCustomers returns the customers with the highest total spend.
	TopCustomers(ctx context.Context, limit int) ([]models.CustomerTotal, error)
}

// UserStore is the persistence interface for dashboard users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUsersByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Store combines record and user persistence.
type Store interface {
	RecordStore
	UserStore
	Close() error
}
