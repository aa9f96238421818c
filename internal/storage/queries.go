package storage

// Query names a canned analytics query. The catalog replaces the
// SQL-file-per-query layout of earlier iterations with a typed
// name-to-statement mapping.
type Query string

const (
	QueryRevenueByMonth  Query = "revenue_by_month"
	QueryTopCustomers    Query = "top_customers"
	QueryCustomerHistory Query = "customer_history"
)

var catalog = map[Query]string{
	QueryRevenueByMonth: `
		SELECT strftime('%Y-%m', billing_date) AS month,
		       SUM(cost) AS revenue,
		       COUNT(*) AS records
		FROM billing_records
		GROUP BY month
		ORDER BY month`,

	QueryTopCustomers: `
		SELECT customer_id,
		       SUM(cost) AS total,
		       COUNT(*) AS records
		FROM billing_records
		GROUP BY customer_id
		ORDER BY total DESC
		LIMIT ?`,

	QueryCustomerHistory: `
		SELECT id, customer_id, billing_date, cost, details
		FROM billing_records
		WHERE customer_id = ?
		ORDER BY billing_date DESC
		LIMIT ?`,
}

// SQLFor returns the parameterized SQL for a named query.
func SQLFor(q Query) (string, bool) {
	sql, ok := catalog[q]
	return sql, ok
}
