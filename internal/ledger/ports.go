// Package ledger defines the store ports the conversation engine drives.
package ledger

import (
	"context"

	"ledgerbot/internal/core"
)

type (
	// OperationStore is durable CRUD and aggregation over operations.
	OperationStore interface {
		// AddOperation inserts the operation and returns its assigned id.
		// The caller validates the operation before calling.
		AddOperation(ctx context.Context, op core.Operation) (int64, error)

		// Balance returns the signed net total per currency: incomes add,
		// expenses subtract. A currency stays present even at net zero as
		// long as it had any operation. An empty ledger yields an empty map.
		Balance(ctx context.Context) (map[string]core.Money, error)

		// OperationsByDate returns the operations recorded on the given
		// date, in creation order (id ascending).
		OperationsByDate(ctx context.Context, date core.Date) ([]core.Operation, error)

		// DeleteOperation removes an operation. Missing ids are a no-op.
		DeleteOperation(ctx context.Context, id int64) error

		// UpdateOperationAmount replaces an operation's amount. Missing ids
		// are a no-op.
		UpdateOperationAmount(ctx context.Context, id int64, amount core.Money) error

		// ClearOperations deletes every operation. Currency and category
		// registries are unaffected.
		ClearOperations(ctx context.Context) error

		// MonthlyCategoryStats sums expenses whose date falls in the given
		// YYYY-MM month, grouped by (category, currency). Operations without
		// a category form their own group with an empty Category.
		MonthlyCategoryStats(ctx context.Context, yearMonth string) ([]core.CategoryTotal, error)
	}

	// CurrencyRegistry manages the selectable currency codes.
	CurrencyRegistry interface {
		// AddCurrency stores the upper-cased code. A duplicate is not an
		// error; created reports whether a new entry was made.
		AddCurrency(ctx context.Context, code string) (created bool, err error)
		DeleteCurrency(ctx context.Context, code string) error
		ListCurrencies(ctx context.Context) ([]string, error)
	}

	// CategoryRegistry manages the selectable expense categories.
	CategoryRegistry interface {
		AddCategory(ctx context.Context, name string) (created bool, err error)
		DeleteCategory(ctx context.Context, name string) error
		ListCategories(ctx context.Context) ([]string, error)
	}

	// Store is the full ledger surface; both the SQLite repository and the
	// in-memory backend satisfy it.
	Store interface {
		OperationStore
		CurrencyRegistry
		CategoryRegistry
	}
)
