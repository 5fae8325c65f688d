package shared

import (
	"context"
)

// Filter represents query filter options shared by list queries
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// TransactionManager runs a function inside one database transaction.
// Repositories participating in the transaction read the transaction handle
// from the context, so multi-aggregate mutations (payment + receipt,
// invoice + items) commit or roll back as a unit.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
