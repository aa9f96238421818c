package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/spidjo/billing-analyzer/pkg/models"
)

const dateLayout = "2006-01-02"

// SQLiteStore is the embedded SQLite implementation of Store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// initializes the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS billing_records (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		billing_date TEXT NOT NULL,
		cost REAL NOT NULL,
		details TEXT,
		created_at INTEGER DEFAULT (strftime('%s', 'now')),
		UNIQUE(customer_id, billing_date)
	);

	CREATE INDEX IF NOT EXISTS idx_records_customer ON billing_records(customer_id);
	CREATE INDEX IF NOT EXISTS idx_records_date ON billing_records(billing_date);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash BLOB NOT NULL,
		role TEXT NOT NULL DEFAULT 'client',
		email TEXT UNIQUE NOT NULL,
		created_at INTEGER DEFAULT (strftime('%s', 'now'))
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertRecords inserts records inside one transaction, skipping rows
// whose (customer_id, billing_date) pair already exists.
func (s *SQLiteStore) InsertRecords(ctx context.Context, records []models.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO billing_records (id, customer_id, billing_date, cost, details)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		res, err := stmt.ExecContext(ctx, id, r.CustomerID, r.BillingDate.Format(dateLayout), r.Cost, r.Details)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListRecords returns all records ordered by billing date then customer.
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, billing_date, cost, details
		FROM billing_records
		ORDER BY billing_date, customer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CustomerHistory returns the most recent records for one customer.
func (s *SQLiteStore) CustomerHistory(ctx context.Context, customerID string, limit int) ([]models.Record, error) {
	if limit <= 0 {
		limit = 12
	}
	query, _ := SQLFor(QueryCustomerHistory)
	rows, err := s.db.QueryContext(ctx, query, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// HasRecordOn reports whether the customer already has a record on the
// given date.
func (s *SQLiteStore) HasRecordOn(ctx context.Context, customerID string, date time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM billing_records
		WHERE customer_id = ? AND billing_date = ?`,
		customerID, date.Format(dateLayout)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RevenueByMonth runs the revenue_by_month catalog query.
func (s *SQLiteStore) RevenueByMonth(ctx context.Context) ([]models.MonthlyRevenue, error) {
	query, _ := SQLFor(QueryRevenueByMonth)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.MonthlyRevenue
	for rows.Next() {
		var m models.MonthlyRevenue
		var revenue float64
		if err := rows.Scan(&m.Month, &revenue, &m.Records); err != nil {
			return nil, err
		}
		m.Revenue = decimal.NewFromFloat(revenue).Round(2)
		result = append(result, m)
	}
	return result, rows.Err()
}

// TopCustomers runs the top_customers catalog query.
func (s *SQLiteStore) TopCustomers(ctx context.Context, limit int) ([]models.CustomerTotal, error) {
	if limit <= 0 {
		limit = 10
	}
	query, _ := SQLFor(QueryTopCustomers)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.CustomerTotal
	for rows.Next() {
		var c models.CustomerTotal
		var total float64
		if err := rows.Scan(&c.CustomerID, &total, &c.Records); err != nil {
			return nil, err
		}
		c.Total = decimal.NewFromFloat(total).Round(2)
		result = append(result, c)
	}
	return result, rows.Err()
}

// CreateUser inserts a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, string(user.Role), user.Email, user.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUserByUsername looks a user up by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	var role string
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, email, created_at
		FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.UserRole(role)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// ListUsers returns all users ordered by username.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.listUsers(ctx, `
		SELECT id, username, password_hash, role, email, created_at
		FROM users ORDER BY username`)
}

// ListUsersByRole returns users with the given role.
func (s *SQLiteStore) ListUsersByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	return s.listUsers(ctx, `
		SELECT id, username, password_hash, role, email, created_at
		FROM users WHERE role = ? ORDER BY username`, string(role))
}

func (s *SQLiteStore) listUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var role string
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.Email, &createdAt); err != nil {
			return nil, err
		}
		u.Role = models.UserRole(role)
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user by ID.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var records []models.Record
	for rows.Next() {
		var r models.Record
		var date string
		var details sql.NullString
		if err := rows.Scan(&r.ID, &r.CustomerID, &date, &r.Cost, &details); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("malformed billing_date %q: %w", date, err)
		}
		r.BillingDate = parsed
		r.Details = details.String
		records = append(records, r)
	}
	return records, rows.Err()
}
